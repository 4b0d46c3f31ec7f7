package transport

import (
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rudransh-shrivastava/snd/internal/logger"
	"github.com/sirupsen/logrus"
)

const (
	DefaultPollInterval   = 100 * time.Millisecond
	DefaultInitialTimeout = 100 * time.Millisecond
	DefaultMaxTimeout     = 2000 * time.Millisecond
	DefaultLinger         = 2 * time.Second
)

type Options struct {
	Logger *logrus.Logger
	// Progress receives a copy of every payload byte sent or applied.
	Progress io.Writer
	// SessionID tags log lines; generated when empty.
	SessionID string

	// PollInterval bounds how long a blocking receive goes without checking ctx.
	PollInterval time.Duration
	// InitialTimeout and MaxTimeout drive the semi-reliable retransmission backoff.
	InitialTimeout time.Duration
	MaxTimeout     time.Duration
	// Linger keeps a finished semi-reliable receiver answering duplicates so a
	// lost final ACK does not leave the sender retrying forever. Negative disables.
	Linger time.Duration
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = logger.NewLogger()
	}
	if o.Progress == nil {
		o.Progress = io.Discard
	}
	if o.SessionID == "" {
		o.SessionID = uuid.NewString()
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.InitialTimeout <= 0 {
		o.InitialTimeout = DefaultInitialTimeout
	}
	if o.MaxTimeout <= 0 {
		o.MaxTimeout = DefaultMaxTimeout
	}
	if o.Linger == 0 {
		o.Linger = DefaultLinger
	}
	return o
}

func (o Options) log(role string) *logrus.Entry {
	return o.Logger.WithFields(logrus.Fields{
		"session": o.SessionID,
		"role":    role,
	})
}
