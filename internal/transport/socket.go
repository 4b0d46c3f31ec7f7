package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rudransh-shrivastava/snd/internal/protocol"
)

// Listen binds a broadcast-capable UDPv4 socket on port (0 for an ephemeral
// one). A port already held by another socket fails with ErrBind.
func Listen(ctx context.Context, port int) (*net.UDPConn, error) {
	lc := net.ListenConfig{Control: broadcastControl}
	pc, err := lc.ListenPacket(ctx, "udp4", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("%w: udp port %d: %v", ErrBind, port, err)
	}
	return pc.(*net.UDPConn), nil
}

// IsTimeout reports whether err is a read-deadline expiry, which callers
// treat as a normal polling iteration.
func IsTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// ReadFrom blocks until a datagram arrives or ctx is done, waking every poll
// to check ctx.
func ReadFrom(ctx context.Context, conn net.PacketConn, buf []byte, poll time.Duration) (int, net.Addr, error) {
	for {
		if err := ctx.Err(); err != nil {
			return 0, nil, err
		}
		if err := conn.SetReadDeadline(time.Now().Add(poll)); err != nil {
			return 0, nil, err
		}
		n, addr, err := conn.ReadFrom(buf)
		if err != nil {
			if IsTimeout(err) {
				continue
			}
			return 0, nil, err
		}
		return n, addr, nil
	}
}

// SameAddr compares UDP endpoints by IP and port.
func SameAddr(a, b net.Addr) bool {
	ua, okA := a.(*net.UDPAddr)
	ub, okB := b.(*net.UDPAddr)
	if okA && okB {
		return ua.IP.Equal(ub.IP) && ua.Port == ub.Port
	}
	return a.String() == b.String()
}

// readHeader waits for the 8-byte size header. Datagrams of any other length
// are ignored.
func readHeader(ctx context.Context, conn net.PacketConn, poll time.Duration) (uint64, net.Addr, error) {
	buf := make([]byte, protocol.MaxDatagramSize)
	for {
		n, from, err := ReadFrom(ctx, conn, buf, poll)
		if err != nil {
			return 0, nil, err
		}
		size, err := protocol.DecodeUint64(buf[:n])
		if err != nil {
			continue
		}
		return size, from, nil
	}
}
