package files

import (
	"io/fs"
	"os"
	"path/filepath"
)

// Sizer computes the apparent size of a file or directory tree.
type Sizer struct{}

// Size sums regular file sizes under path. Hard links are counted once and
// unreadable entries are skipped. path itself is always resolved; follow only
// decides whether symlinks found inside a directory are resolved. Directories
// reached twice (symlink loops included) are not descended again.
func (Sizer) Size(path string, follow bool) (uint64, error) {
	stat := os.Lstat
	if follow {
		stat = os.Stat
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}

	w := &walker{
		stat:  stat,
		links: make(map[fileKey]bool),
		dirs:  make(map[string]bool),
	}
	return w.size(path, info), nil
}

type walker struct {
	stat  func(string) (fs.FileInfo, error)
	links map[fileKey]bool
	dirs  map[string]bool
}

func (w *walker) size(path string, info fs.FileInfo) uint64 {
	switch {
	case info.IsDir():
		return w.dir(path)
	case info.Mode().IsRegular():
		if key, ok := keyOf(info); ok {
			if w.links[key] {
				return 0
			}
			w.links[key] = true
		}
		return uint64(info.Size())
	default:
		return 0
	}
}

func (w *walker) dir(path string) uint64 {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return 0
	}
	if w.dirs[resolved] {
		return 0
	}
	w.dirs[resolved] = true

	entries, err := os.ReadDir(path)
	if err != nil {
		return 0
	}
	var total uint64
	for _, e := range entries {
		child := filepath.Join(path, e.Name())
		info, err := w.stat(child)
		if err != nil {
			continue
		}
		total += w.size(child, info)
	}
	return total
}
