package node

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rudransh-shrivastava/snd/internal/archive"
	"github.com/rudransh-shrivastava/snd/internal/db"
	"github.com/rudransh-shrivastava/snd/internal/discovery"
	"github.com/rudransh-shrivastava/snd/internal/files"
	"github.com/rudransh-shrivastava/snd/internal/logger"
	"github.com/rudransh-shrivastava/snd/internal/protocol"
	"github.com/rudransh-shrivastava/snd/internal/store"
	"github.com/rudransh-shrivastava/snd/internal/transport"
	"github.com/sirupsen/logrus"
)

const DefaultHandshakeTimeout = 30 * time.Second

// ProgressFunc returns a writer fed with every payload byte of one transfer.
// If the writer has a Finish method it is called when the transfer ends.
type ProgressFunc func(description string, total uint64) io.Writer

type Options struct {
	Hostname string
	// ListenPort is bound locally; PeerPort is where the other side listens.
	ListenPort int
	PeerPort   int

	HandshakeTimeout time.Duration
	PollInterval     time.Duration
	// Interfaces overrides interface enumeration for announces.
	Interfaces func() ([]discovery.Interface, error)

	Picker    HostPicker
	Confirmer Confirmer
	Sizer     SizeCalculator
	Archiver  Archiver
	Config    ConfigStore
	History   History
	Progress  ProgressFunc

	// Transport carries engine timing; logger, progress and session are set per transfer.
	Transport transport.Options
	Logger    *logrus.Logger
}

func (o Options) withDefaults() Options {
	if o.Hostname == "" {
		o.Hostname = LocalHostname()
	}
	if o.ListenPort == 0 {
		o.ListenPort = protocol.Port
	}
	if o.PeerPort == 0 {
		o.PeerPort = protocol.Port
	}
	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if o.PollInterval <= 0 {
		o.PollInterval = discovery.DefaultPollInterval
	}
	if o.Sizer == nil {
		o.Sizer = files.Sizer{}
	}
	if o.Archiver == nil {
		o.Archiver = archive.TarGz{}
	}
	if o.Config == nil {
		o.Config = StaticConfig(store.DefaultConfig())
	}
	if o.History == nil {
		o.History = discardHistory{}
	}
	if o.Logger == nil {
		o.Logger = logger.NewLogger()
	}
	return o
}

// LocalHostname is the name announced to peers.
func LocalHostname() string {
	name, err := os.Hostname()
	if err != nil || name == "" {
		return "unknown-host"
	}
	return name
}

// StaticConfig serves a fixed configuration.
type StaticConfig store.Config

func (c StaticConfig) Read(context.Context) (store.Config, error) {
	return store.Config(c), nil
}

type discardHistory struct{}

func (discardHistory) Record(context.Context, db.Transfer) error { return nil }
