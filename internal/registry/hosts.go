// Package registry holds the tables shared between the discovery goroutines
// and the foreground flows.
package registry

import (
	"net"
	"sync"
)

// Host is a peer seen through its announce.
type Host struct {
	Name string
	IP   net.IP
}

// Hosts maps announced names to the address they were first seen from.
type Hosts struct {
	mu    sync.Mutex
	hosts []Host
}

func NewHosts() *Hosts {
	return &Hosts{}
}

// Add records name unless it is already known and reports whether it was
// inserted. A later announce from another address does not replace the first.
func (h *Hosts) Add(name string, ip net.IP) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, host := range h.hosts {
		if host.Name == name {
			return false
		}
	}
	h.hosts = append(h.hosts, Host{Name: name, IP: append(net.IP(nil), ip...)})
	return true
}

func (h *Hosts) Lookup(name string) (Host, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, host := range h.hosts {
		if host.Name == name {
			return host, true
		}
	}
	return Host{}, false
}

// Names returns the known names in discovery order.
func (h *Hosts) Names() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	names := make([]string, 0, len(h.hosts))
	for _, host := range h.hosts {
		names = append(names, host.Name)
	}
	return names
}

func (h *Hosts) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.hosts)
}
