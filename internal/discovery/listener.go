package discovery

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/rudransh-shrivastava/snd/internal/logger"
	"github.com/rudransh-shrivastava/snd/internal/protocol"
	"github.com/rudransh-shrivastava/snd/internal/registry"
	"github.com/rudransh-shrivastava/snd/internal/transport"
	"github.com/sirupsen/logrus"
)

const DefaultPollInterval = 100 * time.Millisecond

// Notifier is told the full list of known names whenever a new host appears.
type Notifier interface {
	Notify(names []string)
}

// Handler sees every datagram first; returning true consumes it.
type Handler func(msg string, from *net.UDPAddr) bool

type ListenerOptions struct {
	PollInterval time.Duration
	Notifier     Notifier
	Handler      Handler
	Logger       *logrus.Logger
}

type Listener struct {
	conn net.PacketConn
	opts ListenerOptions
}

func NewListener(conn net.PacketConn, opts ListenerOptions) *Listener {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewLogger()
	}
	return &Listener{conn: conn, opts: opts}
}

// Listen records announcing hosts into hosts until ctx is done. It returns
// nil on cancellation and an error only when the socket is closed under it.
func (l *Listener) Listen(ctx context.Context, hosts *registry.Hosts) error {
	buf := make([]byte, protocol.MaxDatagramSize)
	for {
		n, addr, err := transport.ReadFrom(ctx, l.conn, buf, l.opts.PollInterval)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			l.opts.Logger.WithError(err).Warn("discovery receive failed")
			continue
		}

		from, ok := addr.(*net.UDPAddr)
		if !ok {
			continue
		}
		msg := string(buf[:n])
		if l.opts.Handler != nil && l.opts.Handler(msg, from) {
			continue
		}
		l.handleAnnounce(msg, from, hosts)
	}
}

func (l *Listener) handleAnnounce(msg string, from *net.UDPAddr, hosts *registry.Hosts) {
	name, err := protocol.ExtractHostname(msg)
	if err != nil {
		return
	}
	if !hosts.Add(name, from.IP) {
		return
	}
	l.opts.Logger.WithFields(logrus.Fields{
		"host": name,
		"ip":   from.IP.String(),
	}).Debug("host discovered")

	if l.opts.Notifier != nil {
		l.opts.Notifier.Notify(hosts.Names())
	}
}
