// Package discovery advertises hosted puzzles on the LAN over UDP broadcast
// and collects the advertisements of others.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultPort is the UDP port used for server discovery.
	DefaultPort = 9998
	// BroadcastInterval is how often hosts advertise their puzzle.
	BroadcastInterval = 1 * time.Second
	// Expiry is how long a server stays visible after its last broadcast.
	Expiry = 4 * time.Second
)

// ServerInfo describes a hosted puzzle on the network.
type ServerInfo struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Viewers  int    `json:"viewers"`
	GameAddr string `json:"game_addr"` // WebSocket host:port to connect to
}

// Encode serializes an advertisement packet.
func Encode(info ServerInfo) ([]byte, error) {
	return json.Marshal(info)
}

// Decode parses an advertisement packet. from is the sender address; it
// fills in the host of a GameAddr advertised without one (":9999").
func Decode(data []byte, from net.Addr) (ServerInfo, error) {
	var info ServerInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return ServerInfo{}, fmt.Errorf("decode advertisement: %w", err)
	}
	if info.GameAddr == "" {
		return ServerInfo{}, fmt.Errorf("decode advertisement: missing game_addr")
	}
	host, port, err := net.SplitHostPort(info.GameAddr)
	if err != nil {
		return ServerInfo{}, fmt.Errorf("decode advertisement: %w", err)
	}
	if host == "" && from != nil {
		if udp, ok := from.(*net.UDPAddr); ok {
			info.GameAddr = net.JoinHostPort(udp.IP.String(), port)
		}
	}
	return info, nil
}

// --- Broadcaster ---

// Broadcaster periodically sends UDP broadcast packets with server info.
type Broadcaster struct {
	info    ServerInfo
	port    int
	viewers func() int
	log     *zap.Logger
	mu      sync.Mutex
}

// NewBroadcaster creates a broadcaster advertising info on the given port.
// viewers, when non-nil, is polled before every packet for the live count.
func NewBroadcaster(info ServerInfo, port int, viewers func() int, log *zap.Logger) *Broadcaster {
	return &Broadcaster{
		info:    info,
		port:    port,
		viewers: viewers,
		log:     log.With(zap.String("component", "discovery")),
	}
}

// Info returns the advertisement as it would be sent now.
func (b *Broadcaster) Info() ServerInfo {
	b.mu.Lock()
	defer b.mu.Unlock()
	info := b.info
	if b.viewers != nil {
		info.Viewers = b.viewers()
	}
	return info
}

// Run broadcasts until ctx is done.
func (b *Broadcaster) Run(ctx context.Context) error {
	// Use ListenPacket (not DialUDP) so broadcast works on Linux.
	// DialUDP to 255.255.255.255 silently fails without SO_BROADCAST.
	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return fmt.Errorf("create broadcast socket: %w", err)
	}
	defer conn.Close()

	ticker := time.NewTicker(BroadcastInterval)
	defer ticker.Stop()

	b.log.Debug("broadcasting", zap.Int("port", b.port), zap.String("game_addr", b.info.GameAddr))

	// Send immediately on start, then on tick
	b.sendBroadcast(conn)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			b.sendBroadcast(conn)
		}
	}
}

func (b *Broadcaster) sendBroadcast(conn net.PacketConn) {
	data, err := Encode(b.Info())
	if err != nil {
		b.log.Error("encode advertisement", zap.Error(err))
		return
	}

	// Loopback first for same-machine discovery; 255.255.255.255 is often
	// dropped by the Linux firewall.
	for _, ip := range append([]net.IP{net.IPv4(127, 0, 0, 1), net.IPv4bcast}, interfaceBroadcasts()...) {
		if _, err := conn.WriteTo(data, &net.UDPAddr{IP: ip, Port: b.port}); err != nil {
			b.log.Debug("broadcast write", zap.String("dst", ip.String()), zap.Error(err))
		}
	}
}

// interfaceBroadcasts returns each up interface's IPv4 broadcast address.
func interfaceBroadcasts() []net.IP {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil
	}

	var out []net.IP
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagBroadcast == 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok || ipnet.IP.To4() == nil {
				continue
			}
			out = append(out, broadcastAddr(ipnet))
		}
	}
	return out
}

// broadcastAddr computes IP | ~Mask.
func broadcastAddr(ipnet *net.IPNet) net.IP {
	ip4 := ipnet.IP.To4()
	mask := ipnet.Mask
	if len(mask) == net.IPv6len {
		mask = mask[12:]
	}
	broadcast := make(net.IP, 4)
	for i := range broadcast {
		broadcast[i] = ip4[i] | ^mask[i]
	}
	return broadcast
}

// --- Listener ---

// discoveredServer holds a server and when it was last seen.
type discoveredServer struct {
	Info     ServerInfo
	LastSeen time.Time
}

// Listener listens for UDP broadcast advertisements.
type Listener struct {
	servers map[string]*discoveredServer // keyed by GameAddr
	mu      sync.RWMutex
	conn    *net.UDPConn
	log     *zap.Logger
	now     func() time.Time
}

// NewListener creates a new listener.
func NewListener(log *zap.Logger) *Listener {
	return &Listener{
		servers: make(map[string]*discoveredServer),
		log:     log.With(zap.String("component", "discovery")),
		now:     time.Now,
	}
}

// Listen binds the discovery port and collects advertisements until ctx is
// done.
func (l *Listener) Listen(ctx context.Context, port int) error {
	var err error
	l.conn, err = net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: port})
	if err != nil {
		return fmt.Errorf("listen UDP on port %d: %w (is another instance browsing?)", port, err)
	}

	go func() {
		<-ctx.Done()
		l.conn.Close()
	}()

	go l.listenLoop(ctx)
	return nil
}

// Servers returns the currently visible servers, sorted by name.
func (l *Listener) Servers() []ServerInfo {
	l.expire()

	l.mu.RLock()
	defer l.mu.RUnlock()

	servers := make([]ServerInfo, 0, len(l.servers))
	for _, ds := range l.servers {
		servers = append(servers, ds.Info)
	}
	sort.Slice(servers, func(i, j int) bool {
		if servers[i].Name != servers[j].Name {
			return servers[i].Name < servers[j].Name
		}
		return servers[i].GameAddr < servers[j].GameAddr
	})
	return servers
}

// observe records one advertisement.
func (l *Listener) observe(info ServerInfo) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.servers[info.GameAddr] = &discoveredServer{
		Info:     info,
		LastSeen: l.now(),
	}
}

// expire drops servers not seen within Expiry.
func (l *Listener) expire() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for addr, ds := range l.servers {
		if now.Sub(ds.LastSeen) > Expiry {
			delete(l.servers, addr)
		}
	}
}

func (l *Listener) listenLoop(ctx context.Context) {
	buf := make([]byte, 4096)
	for {
		n, from, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() == nil {
				l.log.Warn("read advertisement", zap.Error(err))
			}
			return
		}

		info, err := Decode(buf[:n], from)
		if err != nil {
			l.log.Debug("ignoring packet", zap.String("from", from.String()), zap.Error(err))
			continue
		}
		l.observe(info)
	}
}

// Browse listens for wait and returns the first server seen, sorted by
// name. It returns an error if none was found.
func Browse(ctx context.Context, port int, wait time.Duration, log *zap.Logger) (ServerInfo, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	l := NewListener(log)
	if err := l.Listen(ctx, port); err != nil {
		return ServerInfo{}, err
	}

	select {
	case <-ctx.Done():
		return ServerInfo{}, ctx.Err()
	case <-time.After(wait):
	}

	servers := l.Servers()
	if len(servers) == 0 {
		return ServerInfo{}, fmt.Errorf("no servers found on UDP port %d", port)
	}
	return servers[0], nil
}
