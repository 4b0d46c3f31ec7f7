package node

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/rudransh-shrivastava/snd/internal/picker"
	"github.com/rudransh-shrivastava/snd/internal/registry"
)

const shellHelp = `Commands:
  vdms, list   show pending offers
  rec [n]      accept offer n (asks when n is omitted)
  help         show this help
  exit         leave receive mode
`

// Prompter reads one line of input after showing a prompt.
type Prompter interface {
	Prompt(ctx context.Context, prompt string) (string, error)
}

// Shell is the interactive command loop of receive mode.
type Shell struct {
	receiver *Receiver
	in       Prompter
	out      io.Writer
}

func NewShell(r *Receiver, in Prompter, out io.Writer) *Shell {
	return &Shell{receiver: r, in: in, out: out}
}

// Run reads commands until exit, end of input, or ctx is done.
func (s *Shell) Run(ctx context.Context) error {
	fmt.Fprint(s.out, shellHelp)
	for {
		line, err := s.in.Prompt(ctx, "snd> ")
		if err != nil {
			if errors.Is(err, picker.ErrNoInput) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		if s.Execute(ctx, line) {
			return nil
		}
	}
}

// Execute runs one command line and reports whether the shell should exit.
// Command failures are printed, never returned.
func (s *Shell) Execute(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch fields[0] {
	case "vdms", "list", "ls":
		s.list()
	case "rec", "accept":
		arg := ""
		if len(fields) > 1 {
			arg = fields[1]
		}
		s.accept(ctx, arg)
	case "help", "?":
		fmt.Fprint(s.out, shellHelp)
	case "exit", "quit":
		return true
	default:
		fmt.Fprintf(s.out, "Unknown command %q, type help\n", fields[0])
	}
	return false
}

func (s *Shell) list() {
	offers := s.receiver.Offers().List()
	if len(offers) == 0 {
		fmt.Fprintln(s.out, "No pending offers.")
		return
	}
	for i, o := range offers {
		fmt.Fprintf(s.out, "%d. %s\n", i+1, describeOffer(o))
	}
}

func describeOffer(o registry.Offer) string {
	return fmt.Sprintf("%s (%s, %s, %s) from %s [%s]",
		o.Path, o.Type, humanize.IBytes(o.Size), o.Mode, o.Sender.Name, o.Sender.IP)
}

func (s *Shell) accept(ctx context.Context, arg string) {
	if arg == "" {
		line, err := s.in.Prompt(ctx, "Offer number (or cancel): ")
		if err != nil {
			return
		}
		arg = strings.TrimSpace(line)
	}
	if arg == "" || strings.EqualFold(arg, "cancel") {
		fmt.Fprintln(s.out, "Cancelled.")
		return
	}

	index, err := strconv.Atoi(arg)
	if err != nil {
		fmt.Fprintf(s.out, "Invalid offer number %q\n", arg)
		return
	}

	res, err := s.receiver.Accept(ctx, index)
	if err != nil {
		fmt.Fprintf(s.out, "Transfer failed: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Saved %s (%s)\n", res.Path, humanize.IBytes(res.Size))
}
