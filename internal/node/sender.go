package node

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rudransh-shrivastava/snd/internal/db"
	"github.com/rudransh-shrivastava/snd/internal/discovery"
	"github.com/rudransh-shrivastava/snd/internal/protocol"
	"github.com/rudransh-shrivastava/snd/internal/registry"
	"github.com/rudransh-shrivastava/snd/internal/store"
	"github.com/rudransh-shrivastava/snd/internal/transport"
	"github.com/sirupsen/logrus"
)

type Sender struct {
	opts Options
}

func NewSender(opts Options) *Sender {
	return &Sender{opts: opts.withDefaults()}
}

// Send offers the file or directory at rawPath to a host chosen through the
// picker and streams it once the host accepts and the user confirms.
func (s *Sender) Send(ctx context.Context, rawPath string) error {
	if s.opts.Picker == nil || s.opts.Confirmer == nil {
		return errors.New("sender needs a host picker and a confirmer")
	}

	cfg, err := s.opts.Config.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	art, err := prepareArtifact(rawPath, s.opts.Archiver, s.opts.Sizer, cfg.FollowSymlinks)
	if err != nil {
		return err
	}
	defer art.cleanup(s.opts.Logger)

	rec := db.Transfer{
		ID:        uuid.NewString(),
		Direction: store.DirectionSend,
		Path:      art.Path,
		Type:      art.Type,
		Size:      art.Length,
		Mode:      cfg.SendMethod.String(),
	}
	err = s.send(ctx, cfg, art, &rec)
	recordOutcome(ctx, s.opts, rec, err)
	return err
}

func (s *Sender) send(ctx context.Context, cfg store.Config, art artifact, rec *db.Transfer) error {
	log := s.opts.Logger.WithField("session", rec.ID)

	host, err := s.discover(ctx)
	if err != nil {
		return err
	}
	rec.Peer = host.Name
	log = log.WithFields(logrus.Fields{"host": host.Name, "ip": host.IP.String()})

	// Bound before the offer leaves so a fast accept cannot be missed.
	conn, err := transport.Listen(ctx, s.opts.ListenPort)
	if err != nil {
		return err
	}
	defer conn.Close()

	offer := protocol.Offer{
		Hostname: s.opts.Hostname,
		Path:     art.Path,
		Type:     art.Type,
		Size:     art.Size,
		Mode:     cfg.SendMethod,
	}
	peer := &net.UDPAddr{IP: host.IP, Port: s.opts.PeerPort}
	if err := s.sendOffer(ctx, peer, offer); err != nil {
		return err
	}
	log.Infof("Offered %s (%s, %d bytes, %s)", art.Path, art.Type, art.Size, cfg.SendMethod)

	accept, from, err := s.awaitAccept(ctx, conn, art.Path)
	if err != nil {
		return err
	}
	log.Infof("%s accepted the transfer", accept.Hostname)

	prompt := fmt.Sprintf("%s accepted %s. Start the transfer?", accept.Hostname, art.Path)
	if !s.opts.Confirmer.Confirm(prompt) {
		return ErrCancelled
	}
	if _, err := conn.WriteTo([]byte(protocol.Ready), from); err != nil {
		return fmt.Errorf("sending ready: %w", err)
	}

	return s.stream(ctx, cfg.SendMethod, art, from, rec.ID)
}

// discover runs the listener while the picker chooses a name, then stops it
// before resolving that name.
func (s *Sender) discover(ctx context.Context) (registry.Host, error) {
	conn, err := transport.Listen(ctx, s.opts.ListenPort)
	if err != nil {
		return registry.Host{}, err
	}
	defer conn.Close()

	hosts := registry.NewHosts()
	listener := discovery.NewListener(conn, discovery.ListenerOptions{
		PollInterval: s.opts.PollInterval,
		Notifier:     s.opts.Picker,
		Logger:       s.opts.Logger,
	})

	lctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := listener.Listen(lctx, hosts); err != nil {
			s.opts.Logger.WithError(err).Warn("Discovery listener stopped")
		}
	}()

	name, err := s.opts.Picker.Select(ctx)
	cancel()
	wg.Wait()
	if err != nil {
		return registry.Host{}, fmt.Errorf("selecting host: %w", err)
	}

	host, ok := hosts.Lookup(name)
	if !ok {
		return registry.Host{}, fmt.Errorf("%w: %q", ErrHostNotFound, name)
	}
	return host, nil
}

func (s *Sender) sendOffer(ctx context.Context, peer *net.UDPAddr, offer protocol.Offer) error {
	conn, err := transport.Listen(ctx, 0)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.WriteTo([]byte(protocol.EncodeOffer(offer)), peer); err != nil {
		return fmt.Errorf("sending offer to %s: %w", peer, err)
	}
	return nil
}

// awaitAccept waits for an accept naming path until the handshake deadline.
// Anything else arriving on the port is ignored.
func (s *Sender) awaitAccept(ctx context.Context, conn net.PacketConn, path string) (protocol.Accept, net.Addr, error) {
	deadline := time.Now().Add(s.opts.HandshakeTimeout)
	buf := make([]byte, protocol.MaxDatagramSize)

	for {
		if err := ctx.Err(); err != nil {
			return protocol.Accept{}, nil, err
		}
		if !time.Now().Before(deadline) {
			return protocol.Accept{}, nil, fmt.Errorf("%w after %s", ErrHandshakeTimeout, s.opts.HandshakeTimeout)
		}

		wake := time.Now().Add(s.opts.PollInterval)
		if wake.After(deadline) {
			wake = deadline
		}
		if err := conn.SetReadDeadline(wake); err != nil {
			return protocol.Accept{}, nil, err
		}
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			if transport.IsTimeout(err) {
				continue
			}
			return protocol.Accept{}, nil, err
		}

		msg := string(buf[:n])
		if !protocol.IsAccept(msg) {
			continue
		}
		accept, err := protocol.ParseAccept(msg)
		if err != nil {
			s.opts.Logger.WithError(err).Warn("Dropping accept")
			continue
		}
		if accept.Path != path {
			s.opts.Logger.Debugf("Ignoring accept for %q", accept.Path)
			continue
		}
		return accept, from, nil
	}
}

func (s *Sender) stream(ctx context.Context, mode protocol.Mode, art artifact, to net.Addr, session string) error {
	f, err := os.Open(art.Path)
	if err != nil {
		return fmt.Errorf("%w: %v", transport.ErrTransferIO, err)
	}
	defer f.Close()

	conn, err := transport.Listen(ctx, 0)
	if err != nil {
		return err
	}
	defer conn.Close()

	topts, finish := engineOptions(s.opts, session, "sending", art.Length)
	defer finish()

	engine := transport.New(mode, topts)
	if err := engine.Send(ctx, conn, to, f, art.Length); err != nil {
		return fmt.Errorf("sending %s: %w", art.Path, err)
	}
	s.opts.Logger.WithField("session", session).Infof("Sent %s to %s", art.Path, to)
	return nil
}
