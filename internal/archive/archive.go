// Package archive packs a directory into a gzip-compressed tarball before it
// is offered, and unpacks one after it is received.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const Ext = ".tar.gz"

var ErrUnsafePath = errors.New("archive entry escapes destination")

const packPattern = "snd-pack-"

// TarGz writes archives under Dir, or the system temp directory when empty.
type TarGz struct {
	Dir string
}

// Pack archives the contents of dir, entries relative to dir, into
// <basename(dir)>.tar.gz inside a fresh private directory and returns that
// path. Release it with Discard.
func (a TarGz) Pack(dir string) (string, error) {
	name := filepath.Base(filepath.Clean(dir))
	if name == "." || name == string(filepath.Separator) {
		name = "archive"
	}

	work, err := os.MkdirTemp(a.Dir, packPattern)
	if err != nil {
		return "", fmt.Errorf("creating archive dir: %w", err)
	}
	artifact := filepath.Join(work, name+Ext)

	f, err := os.OpenFile(artifact, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		_ = os.RemoveAll(work)
		return "", fmt.Errorf("creating archive: %w", err)
	}
	if err := writeTarGz(f, dir); err != nil {
		_ = f.Close()
		_ = os.RemoveAll(work)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.RemoveAll(work)
		return "", fmt.Errorf("closing archive: %w", err)
	}
	return artifact, nil
}

// Discard removes an artifact returned by Pack along with its private
// directory. Paths Pack did not produce are left alone.
func (a TarGz) Discard(artifact string) error {
	work := filepath.Dir(artifact)
	if !strings.HasPrefix(filepath.Base(work), packPattern) || !strings.HasSuffix(artifact, Ext) {
		return fmt.Errorf("%s was not created by Pack", artifact)
	}
	return os.RemoveAll(work)
}

func writeTarGz(w io.Writer, dir string) error {
	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil || rel == "." {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}

		var link string
		if info.Mode()&fs.ModeSymlink != 0 {
			if link, err = os.Readlink(path); err != nil {
				return err
			}
		} else if !info.Mode().IsRegular() && !info.IsDir() {
			return nil
		}

		hdr, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if info.IsDir() {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(tw, src)
		return err
	})
	if err != nil {
		return fmt.Errorf("archiving %s: %w", dir, err)
	}
	if err := tw.Close(); err != nil {
		return err
	}
	return gz.Close()
}

// Unpack extracts artifact into dest, creating it if needed.
func (TarGz) Unpack(artifact, dest string) error {
	f, err := os.Open(artifact)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("reading archive: %w", err)
	}
	defer gz.Close()

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading archive: %w", err)
		}

		target, err := within(dest, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := extractFile(tr, target, hdr.FileInfo().Mode().Perm()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if filepath.IsAbs(hdr.Linkname) {
				return fmt.Errorf("%w: %s -> %s", ErrUnsafePath, hdr.Name, hdr.Linkname)
			}
			if _, err := within(dest, filepath.Join(filepath.Dir(hdr.Name), hdr.Linkname)); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return err
			}
		}
	}
}

func extractFile(r io.Reader, target string, perm fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm|0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func within(dest, name string) (string, error) {
	target := filepath.Join(dest, filepath.FromSlash(name))
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return target, nil
}

// UnpackDir is the directory an artifact is unpacked into: its path without
// the archive extension.
func UnpackDir(artifact string) string {
	if dir := strings.TrimSuffix(artifact, Ext); dir != artifact {
		return dir
	}
	return artifact + ".d"
}
