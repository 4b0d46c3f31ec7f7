package protocol

import "fmt"

const (
	// Port is shared by discovery, the handshake and the transfer.
	Port = 58422

	// LegacyChunkSize is the largest raw payload of a legacy datagram.
	LegacyChunkSize = 1400
	// HeaderSize is the width of size headers, sequence numbers and ACKs.
	HeaderSize = 8
	// ReliableChunkSize keeps sequence header plus payload within LegacyChunkSize.
	ReliableChunkSize = LegacyChunkSize - HeaderSize

	// MaxDatagramSize bounds receive buffers.
	MaxDatagramSize = 2048
)

const (
	offerPrefix  = "DIRECTH: HMCHNE; "
	acceptPrefix = "ACCEPT: "
	acceptFrom   = "FROM: "
	announceHead = "Hello from "
	announceTail = "!"

	markerFile = "WFILE"
	markerType = "WTYP"
	markerSize = "WSZ"
	markerMode = "SNDM"

	tokenSep = "; "

	// Ready tells the receiver that the size header and chunks follow.
	Ready = "FSNT;"
)

// Mode selects the transport state machine both sides run.
type Mode uint8

const (
	ModeLegacy Mode = iota
	ModeSemiReliable
)

const (
	modeTokenLegacy       = "legacy"
	modeTokenSemiReliable = "semi-reliable"
)

func (m Mode) String() string {
	switch m {
	case ModeLegacy:
		return modeTokenLegacy
	case ModeSemiReliable:
		return modeTokenSemiReliable
	default:
		return "unknown"
	}
}

// ParseMode maps a wire or config token to a Mode.
func ParseMode(token string) (Mode, error) {
	switch token {
	case modeTokenLegacy:
		return ModeLegacy, nil
	case modeTokenSemiReliable:
		return ModeSemiReliable, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, token)
	}
}
