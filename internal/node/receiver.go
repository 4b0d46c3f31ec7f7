package node

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/rudransh-shrivastava/snd/internal/archive"
	"github.com/rudransh-shrivastava/snd/internal/db"
	"github.com/rudransh-shrivastava/snd/internal/discovery"
	"github.com/rudransh-shrivastava/snd/internal/files"
	"github.com/rudransh-shrivastava/snd/internal/protocol"
	"github.com/rudransh-shrivastava/snd/internal/registry"
	"github.com/rudransh-shrivastava/snd/internal/store"
	"github.com/rudransh-shrivastava/snd/internal/transport"
	"github.com/sirupsen/logrus"
)

var ErrBusy = errors.New("a transfer is already running")

// Received describes a completed incoming transfer.
type Received struct {
	Offer registry.Offer
	// Path is the written file, or the unpacked directory for directory offers.
	Path string
	Size uint64
}

type Receiver struct {
	opts   Options
	hosts  *registry.Hosts
	offers *registry.Offers

	conn   *net.UDPConn
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// OnOffer is called from the listener goroutine for each stored offer.
	OnOffer func(index int, offer registry.Offer)

	busy sync.Mutex
}

func NewReceiver(opts Options) *Receiver {
	return &Receiver{
		opts:   opts.withDefaults(),
		hosts:  registry.NewHosts(),
		offers: registry.NewOffers(),
	}
}

func (r *Receiver) Offers() *registry.Offers { return r.offers }

func (r *Receiver) Hostname() string { return r.opts.Hostname }

// Start binds the listen port and runs the broadcaster and the offer
// listener on it until Close.
func (r *Receiver) Start(ctx context.Context) error {
	conn, err := transport.Listen(ctx, r.opts.ListenPort)
	if err != nil {
		return err
	}
	r.conn = conn

	ctx, r.cancel = context.WithCancel(ctx)

	broadcaster := discovery.NewBroadcaster(conn, discovery.BroadcasterOptions{
		Hostname:   r.opts.Hostname,
		Port:       r.opts.PeerPort,
		Interfaces: r.opts.Interfaces,
		Logger:     r.opts.Logger,
	})
	listener := discovery.NewListener(conn, discovery.ListenerOptions{
		PollInterval: r.opts.PollInterval,
		Handler:      r.handleDatagram,
		Logger:       r.opts.Logger,
	})

	r.wg.Add(2)
	go func() {
		defer r.wg.Done()
		broadcaster.Run(ctx)
	}()
	go func() {
		defer r.wg.Done()
		if err := listener.Listen(ctx, r.hosts); err != nil {
			r.opts.Logger.WithError(err).Warn("Offer listener stopped")
		}
	}()

	r.opts.Logger.Infof("Receiving as %s on UDP port %d", r.opts.Hostname, r.opts.ListenPort)
	return nil
}

// Close stops the background goroutines and releases the port.
func (r *Receiver) Close() error {
	if r.cancel == nil {
		return nil
	}
	r.cancel()
	r.wg.Wait()
	return r.conn.Close()
}

// Run is Start followed by Close once ctx is done.
func (r *Receiver) Run(ctx context.Context) error {
	if err := r.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return r.Close()
}

func (r *Receiver) handleDatagram(msg string, from *net.UDPAddr) bool {
	if !protocol.IsOffer(msg) {
		return false
	}
	offer, err := protocol.ParseOffer(msg)
	if err != nil {
		r.opts.Logger.WithError(err).WithField("from", from.String()).Warn("Dropping offer")
		return true
	}

	stored := registry.Offer{
		Sender: registry.Host{Name: offer.Hostname, IP: from.IP},
		Path:   offer.Path,
		Type:   offer.Type,
		Size:   offer.Size,
		Mode:   offer.Mode,
	}
	index := r.offers.Append(stored)
	r.opts.Logger.WithFields(logrus.Fields{
		"index": index,
		"from":  offer.Hostname,
		"path":  offer.Path,
	}).Debug("Offer stored")

	if r.OnOffer != nil {
		r.OnOffer(index, stored)
	}
	return true
}

// Accept answers the offer at the 1-based index and receives it into the
// configured download directory.
func (r *Receiver) Accept(ctx context.Context, index int) (Received, error) {
	offer, err := r.offers.Get(index)
	if err != nil {
		return Received{}, err
	}
	if !r.busy.TryLock() {
		return Received{}, ErrBusy
	}
	defer r.busy.Unlock()

	cfg, err := r.opts.Config.Read(ctx)
	if err != nil {
		return Received{}, fmt.Errorf("reading config: %w", err)
	}

	rec := db.Transfer{
		ID:        uuid.NewString(),
		Direction: store.DirectionReceive,
		Peer:      offer.Sender.Name,
		Path:      offer.Path,
		Type:      offer.Type,
		Size:      offer.Size,
		Mode:      offer.Mode.String(),
	}
	res, err := r.receive(ctx, cfg, offer, rec.ID)
	if err == nil {
		rec.Path = res.Path
		rec.Size = res.Size
	}
	recordOutcome(ctx, r.opts, rec, err)
	return res, err
}

func (r *Receiver) receive(ctx context.Context, cfg store.Config, offer registry.Offer, session string) (Received, error) {
	log := r.opts.Logger.WithFields(logrus.Fields{"session": session, "from": offer.Sender.Name})

	conn, err := transport.Listen(ctx, 0)
	if err != nil {
		return Received{}, err
	}
	defer conn.Close()

	to := &net.UDPAddr{IP: offer.Sender.IP, Port: r.opts.PeerPort}
	accept := protocol.EncodeAccept(protocol.Accept{Path: offer.Path, Hostname: r.opts.Hostname})
	if _, err := conn.WriteTo([]byte(accept), to); err != nil {
		return Received{}, fmt.Errorf("sending accept to %s: %w", to, err)
	}
	log.Infof("Accepted %s, waiting for sender", offer.Path)

	if err := r.awaitReady(ctx, conn); err != nil {
		return Received{}, err
	}

	dir, err := files.ExpandPath(cfg.DownloadDir)
	if err != nil {
		return Received{}, fmt.Errorf("%w: download dir: %v", transport.ErrTransferIO, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Received{}, fmt.Errorf("%w: %v", transport.ErrTransferIO, err)
	}
	outPath := files.DownloadPath(dir, offer.Path)
	out, err := os.Create(outPath)
	if err != nil {
		return Received{}, fmt.Errorf("%w: %v", transport.ErrTransferIO, err)
	}

	topts, finish := engineOptions(r.opts, session, "receiving", offer.Size)
	n, err := transport.New(offer.Mode, topts).Receive(ctx, conn, out)
	finish()
	if cerr := out.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("%w: %v", transport.ErrTransferIO, cerr)
	}
	if err != nil {
		return Received{Offer: offer, Path: outPath, Size: n}, fmt.Errorf("receiving %s: %w", offer.Path, err)
	}
	log.Infof("Received %s (%d bytes)", outPath, n)

	res := Received{Offer: offer, Path: outPath, Size: n}
	if offer.Type == files.TypeDirectory {
		dest := archive.UnpackDir(outPath)
		if err := r.opts.Archiver.Unpack(outPath, dest); err != nil {
			return res, fmt.Errorf("unpacking %s: %w", outPath, err)
		}
		if err := os.Remove(outPath); err != nil {
			log.WithError(err).Warnf("Could not remove archive %s", outPath)
		}
		res.Path = dest
		log.Infof("Unpacked into %s", dest)
	}
	return res, nil
}

// awaitReady blocks until the sender's ready marker arrives. There is no
// deadline; only ctx ends the wait.
func (r *Receiver) awaitReady(ctx context.Context, conn net.PacketConn) error {
	buf := make([]byte, protocol.MaxDatagramSize)
	for {
		n, _, err := transport.ReadFrom(ctx, conn, buf, r.opts.PollInterval)
		if err != nil {
			return err
		}
		if protocol.IsReady(string(buf[:n])) {
			return nil
		}
	}
}
