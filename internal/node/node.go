// Package node runs the two sides of a transfer: the sender, which finds a
// host and offers it a file, and the receiver, which collects offers and
// accepts them on request.
package node

import (
	"context"
	"errors"

	"github.com/rudransh-shrivastava/snd/internal/db"
	"github.com/rudransh-shrivastava/snd/internal/registry"
	"github.com/rudransh-shrivastava/snd/internal/store"
)

var (
	ErrHostNotFound     = errors.New("host not found")
	ErrHandshakeTimeout = errors.New("no accept before handshake deadline")
	ErrCancelled        = errors.New("transfer cancelled")
	ErrPathNotFound     = errors.New("path not found")
	ErrInvalidIndex     = registry.ErrInvalidIndex
)

type HostPicker interface {
	Notify(names []string)
	Select(ctx context.Context) (string, error)
}

type Confirmer interface {
	Confirm(prompt string) bool
}

type SizeCalculator interface {
	Size(path string, follow bool) (uint64, error)
}

// Archiver packs directories for sending. Discard releases everything Pack
// created for an artifact.
type Archiver interface {
	Pack(dir string) (string, error)
	Unpack(artifact, dest string) error
	Discard(artifact string) error
}

type ConfigStore interface {
	Read(ctx context.Context) (store.Config, error)
}

type History interface {
	Record(ctx context.Context, rec db.Transfer) error
}
