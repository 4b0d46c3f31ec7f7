package node

import (
	"bytes"
	"context"
	"net"
	"testing"

	"github.com/rudransh-shrivastava/snd/internal/picker"
	"github.com/rudransh-shrivastava/snd/internal/protocol"
	"github.com/rudransh-shrivastava/snd/internal/registry"
	"github.com/stretchr/testify/assert"
)

type scriptedPrompter struct {
	lines []string
}

func (p *scriptedPrompter) Prompt(context.Context, string) (string, error) {
	if len(p.lines) == 0 {
		return "", picker.ErrNoInput
	}
	line := p.lines[0]
	p.lines = p.lines[1:]
	return line, nil
}

func newShell(lines ...string) (*Shell, *Receiver, *bytes.Buffer) {
	r := NewReceiver(testOptions("bravo", 1, 1))
	var out bytes.Buffer
	return NewShell(r, &scriptedPrompter{lines: lines}, &out), r, &out
}

func TestShell_ListEmpty(t *testing.T) {
	sh, _, out := newShell()

	assert.False(t, sh.Execute(context.Background(), "vdms"))
	assert.Equal(t, "No pending offers.\n", out.String())
}

func TestShell_ListOffers(t *testing.T) {
	sh, r, out := newShell()
	r.Offers().Append(registry.Offer{
		Sender: registry.Host{Name: "alpha", IP: net.IPv4(10, 0, 0, 1)},
		Path:   "/home/alpha/notes.txt",
		Type:   "Text file",
		Size:   4096,
		Mode:   protocol.ModeSemiReliable,
	})

	sh.Execute(context.Background(), "list")
	assert.Equal(t, "1. /home/alpha/notes.txt (Text file, 4.0 KiB, semi-reliable) from alpha [10.0.0.1]\n", out.String())
}

func TestShell_RecInvalidIndex(t *testing.T) {
	sh, _, out := newShell()

	sh.Execute(context.Background(), "rec 5")
	assert.Contains(t, out.String(), "Transfer failed: invalid offer index")

	out.Reset()
	sh.Execute(context.Background(), "rec five")
	assert.Equal(t, "Invalid offer number \"five\"\n", out.String())
}

func TestShell_RecPromptsAndCancels(t *testing.T) {
	sh, _, out := newShell("cancel")

	assert.False(t, sh.Execute(context.Background(), "rec"))
	assert.Equal(t, "Cancelled.\n", out.String())
}

func TestShell_UnknownAndExit(t *testing.T) {
	sh, _, out := newShell()

	assert.False(t, sh.Execute(context.Background(), "dance"))
	assert.Contains(t, out.String(), `Unknown command "dance"`)
	assert.False(t, sh.Execute(context.Background(), "   "))
	assert.True(t, sh.Execute(context.Background(), "exit"))
}

func TestShell_RunStopsAtEndOfInput(t *testing.T) {
	sh, _, out := newShell("help", "vdms")

	assert.NoError(t, sh.Run(context.Background()))
	assert.Contains(t, out.String(), "No pending offers.")
	assert.Contains(t, out.String(), "rec [n]")
}
