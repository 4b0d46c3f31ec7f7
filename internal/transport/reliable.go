package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/rudransh-shrivastava/snd/internal/protocol"
	"github.com/sirupsen/logrus"
)

// reliableEngine is stop-and-wait: each sequenced chunk is retransmitted with
// exponential backoff until the receiver echoes its sequence number.
// The receiver never buffers ahead, so reordered chunks stall until resent.
type reliableEngine struct {
	opts Options
}

func (e *reliableEngine) Mode() protocol.Mode { return protocol.ModeSemiReliable }

func (e *reliableEngine) Send(ctx context.Context, conn net.PacketConn, peer net.Addr, src io.Reader, size uint64) error {
	log := e.opts.log("sender").WithField("peer", peer.String())

	if _, err := conn.WriteTo(protocol.EncodeUint64(size), peer); err != nil {
		return fmt.Errorf("sending size header: %w", err)
	}
	log.WithField("size", size).Debug("semi-reliable header sent")

	buf := make([]byte, protocol.ReliableChunkSize)
	var seq uint64
	for {
		n, err := io.ReadFull(src, buf)
		if n > 0 {
			if derr := e.deliver(ctx, conn, peer, seq, buf[:n]); derr != nil {
				return derr
			}
			e.opts.Progress.Write(buf[:n])
			seq++
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: reading source: %v", ErrTransferIO, err)
		}
	}

	log.WithField("chunks", seq).Info("semi-reliable stream sent")
	return nil
}

// deliver sends one chunk until it is acknowledged or ctx is done.
func (e *reliableEngine) deliver(ctx context.Context, conn net.PacketConn, peer net.Addr, seq uint64, payload []byte) error {
	datagram := protocol.EncodeChunk(seq, payload)
	timeout := e.opts.InitialTimeout
	ack := make([]byte, protocol.MaxDatagramSize)

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := conn.WriteTo(datagram, peer); err != nil {
			e.opts.log("sender").WithError(err).WithField("seq", seq).Debug("chunk write failed")
		}

		acked, err := e.awaitAck(conn, peer, seq, ack, time.Now().Add(timeout))
		if err != nil {
			return fmt.Errorf("waiting for ack %d: %w", seq, err)
		}
		if acked {
			return nil
		}

		e.opts.log("sender").WithFields(logrus.Fields{
			"seq":     seq,
			"attempt": attempt,
			"timeout": timeout,
		}).Debug("ack timeout, retransmitting")
		timeout *= 2
		if timeout > e.opts.MaxTimeout {
			timeout = e.opts.MaxTimeout
		}
	}
}

// awaitAck reads until deadline. Datagrams from other endpoints, short
// datagrams, and stale sequence numbers are ignored.
func (e *reliableEngine) awaitAck(conn net.PacketConn, peer net.Addr, seq uint64, buf []byte, deadline time.Time) (bool, error) {
	if err := conn.SetReadDeadline(deadline); err != nil {
		return false, err
	}
	for {
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			if IsTimeout(err) {
				return false, nil
			}
			return false, err
		}
		if !SameAddr(from, peer) {
			continue
		}
		got, err := protocol.DecodeUint64(buf[:n])
		if err != nil || got != seq {
			continue
		}
		return true, nil
	}
}

func (e *reliableEngine) Receive(ctx context.Context, conn net.PacketConn, dst io.Writer) (uint64, error) {
	log := e.opts.log("receiver")

	size, from, err := readHeader(ctx, conn, e.opts.PollInterval)
	if err != nil {
		return 0, err
	}
	log = log.WithField("peer", from.String())
	log.WithField("size", size).Debug("semi-reliable header received")

	buf := make([]byte, protocol.MaxDatagramSize)
	remaining := size
	var next uint64
	for remaining > 0 {
		n, from, err := ReadFrom(ctx, conn, buf, e.opts.PollInterval)
		if err != nil {
			return size - remaining, err
		}
		seq, payload, err := protocol.DecodeChunk(buf[:n])
		if err != nil {
			continue
		}

		switch {
		case seq < next:
			e.ack(conn, from, seq)
		case seq == next:
			if uint64(len(payload)) > remaining {
				payload = payload[:remaining]
			}
			if _, err := dst.Write(payload); err != nil {
				return size - remaining, fmt.Errorf("%w: writing output: %v", ErrTransferIO, err)
			}
			e.opts.Progress.Write(payload)
			remaining -= uint64(len(payload))
			next++
			e.ack(conn, from, seq)
		default:
			log.WithFields(logrus.Fields{"seq": seq, "expected": next}).Debug("out of order chunk dropped")
		}
	}

	log.WithFields(logrus.Fields{"size": size, "chunks": next}).Info("semi-reliable stream received")
	e.linger(ctx, conn, next)
	return size, nil
}

// linger re-acknowledges retransmissions of already applied chunks for a
// short while after completion, so a sender whose final ACK was lost can finish.
func (e *reliableEngine) linger(ctx context.Context, conn net.PacketConn, next uint64) {
	if e.opts.Linger < 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, e.opts.Linger)
	defer cancel()

	buf := make([]byte, protocol.MaxDatagramSize)
	for {
		n, from, err := ReadFrom(ctx, conn, buf, e.opts.PollInterval)
		if err != nil {
			return
		}
		seq, _, err := protocol.DecodeChunk(buf[:n])
		if err != nil || seq >= next {
			continue
		}
		e.ack(conn, from, seq)
	}
}

func (e *reliableEngine) ack(conn net.PacketConn, to net.Addr, seq uint64) {
	if _, err := conn.WriteTo(protocol.EncodeUint64(seq), to); err != nil {
		e.opts.log("receiver").WithError(err).WithField("seq", seq).Debug("ack write failed")
	}
}
