package discovery

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEncodeDecode(t *testing.T) {
	info := ServerInfo{Name: "attic", Host: "box", Viewers: 2, GameAddr: "10.0.0.5:9999"}
	data, err := Encode(info)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"attic","host":"box","viewers":2,"game_addr":"10.0.0.5:9999"}`, string(data))

	got, err := Decode(data, nil)
	require.NoError(t, err)
	assert.Equal(t, info, got)
}

func TestDecodeFillsHostFromSender(t *testing.T) {
	data, err := Encode(ServerInfo{Name: "attic", GameAddr: ":9999"})
	require.NoError(t, err)

	got, err := Decode(data, &net.UDPAddr{IP: net.IPv4(192, 168, 1, 7), Port: 40000})
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.7:9999", got.GameAddr)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("hello"), nil)
	assert.Error(t, err)

	_, err = Decode([]byte(`{"name":"x"}`), nil)
	assert.Error(t, err)
}

func TestBroadcastAddr(t *testing.T) {
	_, ipnet, err := net.ParseCIDR("192.168.1.77/24")
	require.NoError(t, err)
	ipnet.IP = net.IPv4(192, 168, 1, 77)
	assert.Equal(t, "192.168.1.255", broadcastAddr(ipnet).String())
}

func TestListenerExpiry(t *testing.T) {
	now := time.Unix(1000, 0)
	l := NewListener(zap.NewNop())
	l.now = func() time.Time { return now }

	l.observe(ServerInfo{Name: "b", GameAddr: "10.0.0.2:9999"})
	l.observe(ServerInfo{Name: "a", GameAddr: "10.0.0.1:9999"})
	servers := l.Servers()
	require.Len(t, servers, 2)
	assert.Equal(t, "a", servers[0].Name)

	now = now.Add(3 * time.Second)
	l.observe(ServerInfo{Name: "b", GameAddr: "10.0.0.2:9999", Viewers: 1})

	now = now.Add(2 * time.Second)
	servers = l.Servers()
	require.Len(t, servers, 1)
	assert.Equal(t, 1, servers[0].Viewers)
}

func TestBroadcasterInfoPollsViewers(t *testing.T) {
	n := 0
	b := NewBroadcaster(ServerInfo{Name: "attic"}, DefaultPort, func() int { n++; return n }, zap.NewNop())
	assert.Equal(t, 1, b.Info().Viewers)
	assert.Equal(t, 2, b.Info().Viewers)
}

func TestBrowseFindsLoopbackBroadcast(t *testing.T) {
	reserve, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	port := reserve.LocalAddr().(*net.UDPAddr).Port
	reserve.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := NewBroadcaster(ServerInfo{Name: "attic", GameAddr: "127.0.0.1:9999"}, port, nil, zap.NewNop())
	go b.Run(ctx)

	info, err := Browse(ctx, port, 1500*time.Millisecond, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "attic", info.Name)
	assert.Equal(t, "127.0.0.1:9999", info.GameAddr)
}
