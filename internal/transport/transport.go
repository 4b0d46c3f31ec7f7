// Package transport moves an artifact's bytes over UDP once a transfer has
// been accepted. Two engines exist: an unacknowledged legacy stream and a
// stop-and-wait semi-reliable mode.
package transport

import (
	"context"
	"errors"
	"io"
	"net"

	"github.com/rudransh-shrivastava/snd/internal/protocol"
)

var (
	// ErrTransferIO wraps local read/write failures; the partial output is left behind.
	ErrTransferIO = errors.New("transfer i/o error")
	ErrBind       = errors.New("bind failed")
)

// Engine runs one side of a transfer on a socket owned by the caller.
type Engine interface {
	Mode() protocol.Mode
	// Send writes the size header to peer, then size bytes from src.
	Send(ctx context.Context, conn net.PacketConn, peer net.Addr, src io.Reader, size uint64) error
	// Receive reads the size header and writes exactly that many bytes to dst.
	Receive(ctx context.Context, conn net.PacketConn, dst io.Writer) (uint64, error)
}

// New returns the engine for mode.
func New(mode protocol.Mode, opts Options) Engine {
	opts = opts.withDefaults()
	switch mode {
	case protocol.ModeLegacy:
		return &legacyEngine{opts: opts}
	default:
		return &reliableEngine{opts: opts}
	}
}
