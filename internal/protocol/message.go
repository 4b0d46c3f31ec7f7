package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrMalformedOffer    = errors.New("malformed offer")
	ErrMalformedAccept   = errors.New("malformed accept")
	ErrMalformedAnnounce = errors.New("malformed announce")
	ErrUnknownMode       = errors.New("unknown transfer mode")
)

// Offer proposes a transfer of a single artifact.
type Offer struct {
	Hostname string
	Path     string
	Type     string
	Size     uint64
	Mode     Mode
}

// Accept answers an offer; Path must equal the offered path.
type Accept struct {
	Path     string
	Hostname string
}

func IsOffer(msg string) bool {
	return strings.HasPrefix(msg, offerPrefix)
}

func EncodeOffer(o Offer) string {
	return offerPrefix + strings.Join([]string{
		o.Hostname,
		markerFile, o.Path,
		markerType, o.Type,
		markerSize, strconv.FormatUint(o.Size, 10),
		markerMode, o.Mode.String(),
	}, tokenSep)
}

// ParseOffer decodes an offer datagram. The hostname and path may themselves
// contain the token separator; type, size and mode are single tokens.
func ParseOffer(msg string) (Offer, error) {
	msg = strings.TrimSpace(msg)
	if !IsOffer(msg) {
		return Offer{}, fmt.Errorf("%w: missing prefix", ErrMalformedOffer)
	}

	tokens := strings.Split(strings.TrimPrefix(msg, offerPrefix), tokenSep)
	for i := range tokens {
		tokens[i] = strings.TrimSpace(tokens[i])
	}

	fileIdx := indexOf(tokens, markerFile)
	typeIdx := indexOf(tokens, markerType)
	sizeIdx := indexOf(tokens, markerSize)
	modeIdx := indexOf(tokens, markerMode)
	if fileIdx < 0 || typeIdx < 0 || sizeIdx < 0 || modeIdx < 0 {
		return Offer{}, fmt.Errorf("%w: missing marker", ErrMalformedOffer)
	}
	if !(fileIdx < typeIdx && typeIdx < sizeIdx && sizeIdx < modeIdx) {
		return Offer{}, fmt.Errorf("%w: markers out of order", ErrMalformedOffer)
	}
	if typeIdx-fileIdx < 2 {
		return Offer{}, fmt.Errorf("%w: empty path", ErrMalformedOffer)
	}
	if sizeIdx-typeIdx != 2 {
		return Offer{}, fmt.Errorf("%w: type must be a single token", ErrMalformedOffer)
	}
	if modeIdx != len(tokens)-2 {
		return Offer{}, fmt.Errorf("%w: mode must be a single token", ErrMalformedOffer)
	}

	mode, err := ParseMode(tokens[modeIdx+1])
	if err != nil {
		return Offer{}, fmt.Errorf("%w: %v", ErrMalformedOffer, err)
	}

	// A size that fails to parse is not fatal, the offer just reports 0.
	var size uint64
	if modeIdx-sizeIdx == 2 {
		if n, err := strconv.ParseUint(tokens[sizeIdx+1], 10, 64); err == nil {
			size = n
		}
	}

	return Offer{
		Hostname: strings.Join(tokens[:fileIdx], tokenSep),
		Path:     strings.Join(tokens[fileIdx+1:typeIdx], tokenSep),
		Type:     tokens[typeIdx+1],
		Size:     size,
		Mode:     mode,
	}, nil
}

func EncodeAccept(a Accept) string {
	return acceptPrefix + a.Path + tokenSep + acceptFrom + a.Hostname
}

func IsAccept(msg string) bool {
	return strings.HasPrefix(msg, acceptPrefix)
}

func ParseAccept(msg string) (Accept, error) {
	start := strings.Index(msg, acceptPrefix)
	from := strings.Index(msg, acceptFrom)
	if start < 0 || from < 0 || from < start {
		return Accept{}, ErrMalformedAccept
	}

	body := msg[start+len(acceptPrefix):]
	path := body
	if end := strings.IndexByte(body, ';'); end >= 0 {
		path = body[:end]
	}

	return Accept{
		Path:     strings.TrimSpace(path),
		Hostname: strings.TrimSpace(msg[from+len(acceptFrom):]),
	}, nil
}

func IsReady(msg string) bool {
	return strings.TrimSpace(msg) == Ready
}

func EncodeAnnounce(hostname string) string {
	return announceHead + hostname + announceTail
}

// ExtractHostname pulls the name out of an announce. Datagrams without the
// markers fall back to the whole trimmed message.
func ExtractHostname(msg string) (string, error) {
	start := strings.Index(msg, "from ")
	end := strings.Index(msg, announceTail)
	if start >= 0 && end > start+len("from ") {
		return msg[start+len("from ") : end], nil
	}

	name := strings.TrimSpace(msg)
	if name == "" {
		return "", ErrMalformedAnnounce
	}
	return name, nil
}

func indexOf(tokens []string, marker string) int {
	for i, t := range tokens {
		if t == marker {
			return i
		}
	}
	return -1
}
