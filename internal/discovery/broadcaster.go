// Package discovery announces this host on the LAN and collects the
// announcements of others.
package discovery

import (
	"context"
	"fmt"
	"net"
	"runtime"
	"strings"
	"time"

	"github.com/rudransh-shrivastava/snd/internal/logger"
	"github.com/rudransh-shrivastava/snd/internal/protocol"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/ipv4"
)

const DefaultInterval = 2 * time.Second

var (
	unixVPNPrefixes      = []string{"tun", "tap", "ppp", "zt", "tailscale", "utun", "vpn"}
	windowsVPNSubstrings = []string{"TAP", "OPENVPN", "WIREGUARD", "ZEROTIER", "TAILSCALE"}
)

// Interface is the subset of net.Interface the broadcaster needs.
type Interface struct {
	Index int
	Name  string
	Flags net.Flags
	Addrs []net.Addr
}

type BroadcasterOptions struct {
	Hostname string
	// Port is the destination port of every announce.
	Port     int
	Interval time.Duration
	// Fallback is used when no interface qualifies. Defaults to 255.255.255.255.
	Fallback   net.IP
	Interfaces func() ([]Interface, error)
	Logger     *logrus.Logger
}

type Broadcaster struct {
	conn *ipv4.PacketConn
	opts BroadcasterOptions
	goos string
}

// NewBroadcaster sends announces from conn, which the caller owns.
func NewBroadcaster(conn net.PacketConn, opts BroadcasterOptions) *Broadcaster {
	if opts.Port == 0 {
		opts.Port = protocol.Port
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Fallback == nil {
		opts.Fallback = net.IPv4bcast
	}
	if opts.Interfaces == nil {
		opts.Interfaces = SystemInterfaces
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewLogger()
	}
	return &Broadcaster{
		conn: ipv4.NewPacketConn(conn),
		opts: opts,
		goos: runtime.GOOS,
	}
}

// Run announces immediately and then every Interval until ctx is done.
func (b *Broadcaster) Run(ctx context.Context) {
	ticker := time.NewTicker(b.opts.Interval)
	defer ticker.Stop()

	b.announce()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.announce()
		}
	}
}

func (b *Broadcaster) announce() {
	if _, err := b.BroadcastOnce(); err != nil {
		b.opts.Logger.WithError(err).Warn("announce failed")
	}
}

// BroadcastOnce sends one announce per qualifying interface and returns how
// many datagrams went out.
func (b *Broadcaster) BroadcastOnce() (int, error) {
	msg := []byte(protocol.EncodeAnnounce(b.opts.Hostname))

	targets, err := b.targets()
	if err != nil {
		b.opts.Logger.WithError(err).Debug("listing interfaces")
	}

	sent := 0
	for _, t := range targets {
		var cm *ipv4.ControlMessage
		if b.goos != "windows" {
			cm = &ipv4.ControlMessage{IfIndex: t.ifIndex}
		}
		dst := &net.UDPAddr{IP: t.broadcast, Port: b.opts.Port}
		if _, err := b.conn.WriteTo(msg, cm, dst); err != nil {
			b.opts.Logger.WithFields(logrus.Fields{
				"iface": t.name,
				"addr":  dst.String(),
			}).WithError(err).Debug("announce not sent")
			continue
		}
		sent++
	}
	if sent > 0 {
		return sent, nil
	}

	dst := &net.UDPAddr{IP: b.opts.Fallback, Port: b.opts.Port}
	if _, err := b.conn.WriteTo(msg, nil, dst); err != nil {
		return 0, fmt.Errorf("fallback announce to %s: %w", dst, err)
	}
	return 1, nil
}

type target struct {
	ifIndex   int
	name      string
	broadcast net.IP
}

func (b *Broadcaster) targets() ([]target, error) {
	ifaces, err := b.opts.Interfaces()
	if err != nil {
		return nil, err
	}

	var out []target
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 ||
			iface.Flags&net.FlagLoopback != 0 ||
			iface.Flags&net.FlagBroadcast == 0 {
			continue
		}
		if isVPN(iface.Name, b.goos) {
			continue
		}
		for _, addr := range iface.Addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			if bcast := directedBroadcast(ipnet); bcast != nil {
				out = append(out, target{ifIndex: iface.Index, name: iface.Name, broadcast: bcast})
			}
		}
	}
	return out, nil
}

// directedBroadcast returns the subnet broadcast address of an IPv4 network,
// or nil for IPv6 and point-to-point sized prefixes.
func directedBroadcast(ipnet *net.IPNet) net.IP {
	ip := ipnet.IP.To4()
	if ip == nil {
		return nil
	}
	mask := ipnet.Mask
	if len(mask) == net.IPv6len {
		mask = mask[12:]
	}
	if len(mask) != net.IPv4len {
		return nil
	}
	if ones, _ := mask.Size(); ones >= 31 {
		return nil
	}

	bcast := make(net.IP, net.IPv4len)
	for i := range bcast {
		bcast[i] = ip[i] | ^mask[i]
	}
	return bcast
}

func isVPN(name, goos string) bool {
	if goos == "windows" {
		upper := strings.ToUpper(name)
		for _, s := range windowsVPNSubstrings {
			if strings.Contains(upper, s) {
				return true
			}
		}
		return false
	}
	for _, p := range unixVPNPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// SystemInterfaces lists the host's interfaces with their addresses.
func SystemInterfaces() ([]Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	out := make([]Interface, 0, len(ifaces))
	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		out = append(out, Interface{
			Index: iface.Index,
			Name:  iface.Name,
			Flags: iface.Flags,
			Addrs: addrs,
		})
	}
	return out, nil
}
