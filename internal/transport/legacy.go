package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/rudransh-shrivastava/snd/internal/protocol"
)

// legacyEngine streams raw chunks with no acknowledgement. Loss and
// reordering silently corrupt the output.
type legacyEngine struct {
	opts Options
}

func (e *legacyEngine) Mode() protocol.Mode { return protocol.ModeLegacy }

func (e *legacyEngine) Send(ctx context.Context, conn net.PacketConn, peer net.Addr, src io.Reader, size uint64) error {
	log := e.opts.log("sender").WithField("peer", peer.String())

	if _, err := conn.WriteTo(protocol.EncodeUint64(size), peer); err != nil {
		return fmt.Errorf("sending size header: %w", err)
	}
	log.WithField("size", size).Debug("legacy header sent")

	buf := make([]byte, protocol.LegacyChunkSize)
	var chunks uint64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := io.ReadFull(src, buf)
		if n > 0 {
			if _, werr := conn.WriteTo(buf[:n], peer); werr != nil {
				return fmt.Errorf("sending chunk %d: %w", chunks, werr)
			}
			e.opts.Progress.Write(buf[:n])
			chunks++
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: reading source: %v", ErrTransferIO, err)
		}
	}

	log.WithField("chunks", chunks).Info("legacy stream sent")
	return nil
}

func (e *legacyEngine) Receive(ctx context.Context, conn net.PacketConn, dst io.Writer) (uint64, error) {
	log := e.opts.log("receiver")

	size, from, err := readHeader(ctx, conn, e.opts.PollInterval)
	if err != nil {
		return 0, err
	}
	log = log.WithField("peer", from.String())
	log.WithField("size", size).Debug("legacy header received")

	buf := make([]byte, protocol.MaxDatagramSize)
	remaining := size
	for remaining > 0 {
		n, _, err := ReadFrom(ctx, conn, buf, e.opts.PollInterval)
		if err != nil {
			return size - remaining, err
		}
		payload := buf[:n]
		if uint64(len(payload)) > remaining {
			payload = payload[:remaining]
		}
		if _, err := dst.Write(payload); err != nil {
			return size - remaining, fmt.Errorf("%w: writing output: %v", ErrTransferIO, err)
		}
		e.opts.Progress.Write(payload)
		remaining -= uint64(len(payload))
	}

	log.WithField("size", size).Info("legacy stream received")
	return size, nil
}
