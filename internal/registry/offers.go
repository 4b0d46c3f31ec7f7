package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rudransh-shrivastava/snd/internal/protocol"
)

var ErrInvalidIndex = errors.New("invalid offer index")

// Offer is an inbound transfer proposal together with the host that sent it.
type Offer struct {
	Sender Host
	Path   string
	Type   string
	Size   uint64
	Mode   protocol.Mode
}

// Offers is the append-only list of offers awaiting a decision.
type Offers struct {
	mu     sync.Mutex
	offers []Offer
}

func NewOffers() *Offers {
	return &Offers{}
}

func (o *Offers) Append(offer Offer) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.offers = append(o.offers, offer)
	return len(o.offers)
}

// Get returns the offer at a 1-based index.
func (o *Offers) Get(index int) (Offer, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if index < 1 || index > len(o.offers) {
		return Offer{}, fmt.Errorf("%w: %d (have %d)", ErrInvalidIndex, index, len(o.offers))
	}
	return o.offers[index-1], nil
}

// List returns a snapshot copy.
func (o *Offers) List() []Offer {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Offer(nil), o.offers...)
}

func (o *Offers) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.offers)
}
