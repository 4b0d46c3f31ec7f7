// Package picker is the interactive side of the CLI: choosing a discovered
// host, confirming a transfer, and reading shell commands.
package picker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
)

var ErrNoInput = errors.New("no input")

// Terminal reads answers line by line from one input stream. A single
// goroutine owns the reader and hands lines to whichever prompt is waiting,
// so a prompt abandoned on cancellation never swallows the next line.
type Terminal struct {
	in    *bufio.Reader
	lines chan lineResult
	once  sync.Once

	mu    sync.Mutex
	out   io.Writer
	names []string
}

func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), lines: make(chan lineResult), out: out}
}

// Notify prints the current host list. Safe to call from any goroutine.
func (t *Terminal) Notify(names []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.names = append(t.names[:0], names...)
	fmt.Fprintln(t.out, "\nAvailable hosts:")
	for i, name := range names {
		fmt.Fprintf(t.out, "  %d. %s\n", i+1, name)
	}
	fmt.Fprint(t.out, "Enter host name or number: ")
}

// Select blocks until a non-empty line is entered. A number picks from the
// most recently notified list; anything else is taken as a host name.
func (t *Terminal) Select(ctx context.Context) (string, error) {
	t.printf("Waiting for hosts... enter host name or number: ")
	for {
		line, err := t.readLine(ctx)
		if err != nil {
			return "", err
		}
		if line == "" {
			continue
		}
		return t.resolve(line), nil
	}
}

func (t *Terminal) resolve(line string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(t.names) {
		return t.names[n-1]
	}
	return line
}

// Confirm asks a yes/no question; anything but y or yes is no.
func (t *Terminal) Confirm(prompt string) bool {
	t.printf("%s [y/N]: ", prompt)
	line, err := t.readLine(context.Background())
	if err != nil {
		return false
	}
	switch strings.ToLower(line) {
	case "y", "yes":
		return true
	}
	return false
}

// Prompt prints prompt and returns the next trimmed line.
func (t *Terminal) Prompt(ctx context.Context, prompt string) (string, error) {
	t.printf("%s", prompt)
	return t.readLine(ctx)
}

func (t *Terminal) Printf(format string, args ...any) {
	t.printf(format, args...)
}

func (t *Terminal) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, format, args...)
}

type lineResult struct {
	line string
	err  error
}

func (t *Terminal) readLine(ctx context.Context) (string, error) {
	t.once.Do(func() { go t.readLoop() })

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r, ok := <-t.lines:
		if !ok {
			return "", ErrNoInput
		}
		return r.line, r.err
	}
}

// readLoop delivers lines until the input ends. A final line without a
// newline is still delivered.
func (t *Terminal) readLoop() {
	defer close(t.lines)
	for {
		line, err := t.in.ReadString('\n')
		if err == nil || line != "" {
			t.lines <- lineResult{line: strings.TrimSpace(line)}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				t.lines <- lineResult{err: err}
			}
			return
		}
	}
}
