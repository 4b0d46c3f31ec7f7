package node

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/rudransh-shrivastava/snd/internal/db"
	"github.com/rudransh-shrivastava/snd/internal/files"
	"github.com/rudransh-shrivastava/snd/internal/store"
	"github.com/rudransh-shrivastava/snd/internal/transport"
	"github.com/sirupsen/logrus"
)

// artifact is what actually goes on the wire: the file itself, or a
// temporary tarball standing in for a directory. Size is the apparent size
// of what the user chose and is what the offer declares; Length is the
// number of bytes streamed.
type artifact struct {
	Path   string
	Type   string
	Size   uint64
	Length uint64
	packed Archiver
}

func prepareArtifact(rawPath string, a Archiver, sizer SizeCalculator, follow bool) (artifact, error) {
	path, err := files.ExpandPath(rawPath)
	if err != nil {
		return artifact{}, fmt.Errorf("%w: %s: %v", ErrPathNotFound, rawPath, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return artifact{}, fmt.Errorf("%w: %s", ErrPathNotFound, path)
		}
		return artifact{}, err
	}

	size, err := sizer.Size(path, follow)
	if err != nil {
		return artifact{}, fmt.Errorf("sizing %s: %w", path, err)
	}

	art := artifact{Path: path, Type: files.Classify(path, info.IsDir()), Size: size}
	if info.IsDir() {
		packed, err := a.Pack(path)
		if err != nil {
			return artifact{}, fmt.Errorf("packing %s: %w", path, err)
		}
		art.Path = packed
		art.packed = a
		if info, err = os.Stat(packed); err != nil {
			art.cleanup(nil)
			return artifact{}, err
		}
	}
	art.Length = uint64(info.Size())
	return art, nil
}

func (a artifact) cleanup(log *logrus.Logger) {
	if a.packed == nil {
		return
	}
	if err := a.packed.Discard(a.Path); err != nil && log != nil {
		log.WithError(err).Warnf("Could not remove archive %s", a.Path)
	}
}

// engineOptions builds the per-transfer transport options and the function
// that finalises the progress display.
func engineOptions(opts Options, session, description string, total uint64) (transport.Options, func()) {
	topts := opts.Transport
	topts.Logger = opts.Logger
	topts.SessionID = session

	finish := func() {}
	if opts.Progress != nil {
		w := opts.Progress(description, total)
		topts.Progress = w
		if f, ok := w.(interface{ Finish() error }); ok {
			finish = func() { _ = f.Finish() }
		}
	}
	return topts, finish
}

func statusOf(err error) string {
	switch {
	case err == nil:
		return store.StatusCompleted
	case errors.Is(err, ErrCancelled):
		return store.StatusCancelled
	default:
		return store.StatusFailed
	}
}

func recordOutcome(ctx context.Context, opts Options, rec db.Transfer, err error) {
	rec.Status = statusOf(err)
	if err != nil {
		rec.Error = err.Error()
	}
	if herr := opts.History.Record(context.WithoutCancel(ctx), rec); herr != nil {
		opts.Logger.WithError(herr).Warn("Could not record transfer history")
	}
}
