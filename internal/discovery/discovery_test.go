package discovery

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/rudransh-shrivastava/snd/internal/logger"
	"github.com/rudransh-shrivastava/snd/internal/registry"
	"github.com/rudransh-shrivastava/snd/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu    sync.Mutex
	calls [][]string
}

func (n *recordingNotifier) Notify(names []string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, names)
}

func (n *recordingNotifier) last() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.calls) == 0 {
		return nil
	}
	return n.calls[len(n.calls)-1]
}

func udpConn(t *testing.T) *net.UDPConn {
	t.Helper()
	conn, err := transport.Listen(context.Background(), 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func portOf(conn net.PacketConn) int {
	return conn.LocalAddr().(*net.UDPAddr).Port
}

func cidr(t *testing.T, s string) *net.IPNet {
	t.Helper()
	ip, ipnet, err := net.ParseCIDR(s)
	require.NoError(t, err)
	ipnet.IP = ip
	return ipnet
}

func TestIsVPN(t *testing.T) {
	tests := []struct {
		name string
		goos string
		want bool
	}{
		{"tun0", "linux", true},
		{"tailscale0", "linux", true},
		{"utun3", "darwin", true},
		{"zt7nnig26", "linux", true},
		{"eth0", "linux", false},
		{"wlan0", "linux", false},
		{"en0", "darwin", false},
		{"OpenVPN Data Channel Offload", "windows", true},
		{"Tailscale", "windows", true},
		{"TAP-Windows Adapter V9", "windows", true},
		{"Ethernet", "windows", false},
		{"Wi-Fi", "windows", false},
	}
	for _, tt := range tests {
		t.Run(tt.goos+"/"+tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isVPN(tt.name, tt.goos))
		})
	}
}

func TestDirectedBroadcast(t *testing.T) {
	assert.Equal(t, "192.168.1.255", directedBroadcast(cidr(t, "192.168.1.10/24")).String())
	assert.Equal(t, "10.255.255.255", directedBroadcast(cidr(t, "10.1.2.3/8")).String())
	assert.Nil(t, directedBroadcast(cidr(t, "10.0.0.1/32")))
	assert.Nil(t, directedBroadcast(cidr(t, "fe80::1/64")))
}

func TestBroadcaster_TargetsSkipUnsuitableInterfaces(t *testing.T) {
	up := net.FlagUp | net.FlagBroadcast
	ifaces := []Interface{
		{Index: 1, Name: "lo", Flags: net.FlagUp | net.FlagLoopback, Addrs: []net.Addr{cidr(t, "127.0.0.1/8")}},
		{Index: 2, Name: "eth0", Flags: up, Addrs: []net.Addr{cidr(t, "192.168.1.10/24"), cidr(t, "fe80::1/64")}},
		{Index: 3, Name: "tailscale0", Flags: up, Addrs: []net.Addr{cidr(t, "100.64.0.1/10")}},
		{Index: 4, Name: "eth1", Flags: net.FlagBroadcast, Addrs: []net.Addr{cidr(t, "10.0.0.5/24")}},
		{Index: 5, Name: "wg-like", Flags: net.FlagUp, Addrs: []net.Addr{cidr(t, "10.9.0.1/24")}},
		{Index: 6, Name: "wlan0", Flags: up, Addrs: []net.Addr{cidr(t, "172.16.4.20/20")}},
	}

	b := NewBroadcaster(udpConn(t), BroadcasterOptions{
		Hostname:   "alpha",
		Interfaces: func() ([]Interface, error) { return ifaces, nil },
		Logger:     logger.Discard(),
	})

	got, err := b.targets()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].ifIndex)
	assert.Equal(t, "192.168.1.255", got[0].broadcast.String())
	assert.Equal(t, 6, got[1].ifIndex)
	assert.Equal(t, "172.16.15.255", got[1].broadcast.String())
}

func TestBroadcaster_FallsBackWhenNoInterfaceQualifies(t *testing.T) {
	recv := udpConn(t)

	b := NewBroadcaster(udpConn(t), BroadcasterOptions{
		Hostname:   "alpha",
		Port:       portOf(recv),
		Fallback:   net.IPv4(127, 0, 0, 1),
		Interfaces: func() ([]Interface, error) { return nil, nil },
		Logger:     logger.Discard(),
	})

	sent, err := b.BroadcastOnce()
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	buf := make([]byte, 128)
	require.NoError(t, recv.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, _, err := recv.ReadFrom(buf)
	require.NoError(t, err)
	assert.Equal(t, "Hello from alpha!", string(buf[:n]))
}

func TestListener_RegistersAnnouncingHosts(t *testing.T) {
	conn := udpConn(t)
	hosts := registry.NewHosts()
	notifier := &recordingNotifier{}

	l := NewListener(conn, ListenerOptions{
		PollInterval: 20 * time.Millisecond,
		Notifier:     notifier,
		Logger:       logger.Discard(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Listen(ctx, hosts) }()

	peer := udpConn(t)
	to := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: portOf(conn)}
	for _, msg := range []string{"Hello from bravo!", "Hello from bravo!", "Hello from charlie!", "   "} {
		_, err := peer.WriteTo([]byte(msg), to)
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool { return hosts.Len() == 2 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	host, ok := hosts.Lookup("bravo")
	require.True(t, ok)
	assert.True(t, host.IP.Equal(net.IPv4(127, 0, 0, 1)))
	assert.Equal(t, []string{"bravo", "charlie"}, notifier.last())
	assert.Len(t, notifier.calls, 2)
}

func TestListener_HandlerConsumesDatagrams(t *testing.T) {
	conn := udpConn(t)
	hosts := registry.NewHosts()
	handled := make(chan string, 1)

	l := NewListener(conn, ListenerOptions{
		PollInterval: 20 * time.Millisecond,
		Handler: func(msg string, _ *net.UDPAddr) bool {
			if msg == "DIRECTH: test" {
				handled <- msg
				return true
			}
			return false
		},
		Logger: logger.Discard(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = l.Listen(ctx, hosts) }()

	peer := udpConn(t)
	_, err := peer.WriteTo([]byte("DIRECTH: test"), &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: portOf(conn)})
	require.NoError(t, err)

	select {
	case msg := <-handled:
		assert.Equal(t, "DIRECTH: test", msg)
	case <-time.After(2 * time.Second):
		t.Fatal("handler not called")
	}
	assert.Equal(t, 0, hosts.Len())
}

func TestListener_StopsWithinPollInterval(t *testing.T) {
	conn := udpConn(t)
	l := NewListener(conn, ListenerOptions{PollInterval: 50 * time.Millisecond, Logger: logger.Discard()})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Listen(ctx, registry.NewHosts()) }()

	time.Sleep(30 * time.Millisecond)
	start := time.Now()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
		assert.Less(t, time.Since(start), 250*time.Millisecond)
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop")
	}
}

func TestBroadcaster_RunStopsOnCancel(t *testing.T) {
	recv := udpConn(t)
	b := NewBroadcaster(udpConn(t), BroadcasterOptions{
		Hostname:   "alpha",
		Port:       portOf(recv),
		Interval:   20 * time.Millisecond,
		Fallback:   net.IPv4(127, 0, 0, 1),
		Interfaces: func() ([]Interface, error) { return nil, nil },
		Logger:     logger.Discard(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()

	buf := make([]byte, 128)
	require.NoError(t, recv.SetReadDeadline(time.Now().Add(2*time.Second)))
	for i := 0; i < 2; i++ {
		n, _, err := recv.ReadFrom(buf)
		require.NoError(t, err)
		assert.Equal(t, "Hello from alpha!", string(buf[:n]))
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcaster did not stop")
	}
}
