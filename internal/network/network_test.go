package network

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/amalg/go-sokoban/internal/game"
	"github.com/amalg/go-sokoban/internal/session"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	cfg := game.DefaultConfig()
	cfg.TickRate = 200
	sess := session.NewLocal(game.NewEngine(game.DefaultLevel(), cfg), zap.NewNop())
	srv := NewServer(sess, zap.NewNop())
	sess.Start(context.Background())

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		sess.Close()
	})
	return srv, "ws" + strings.TrimPrefix(ts.URL, "http") + Path
}

func dial(t *testing.T, url, name string) *Client {
	t.Helper()
	c, err := Dial(context.Background(), url, name, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func waitForState(t *testing.T, c *Client, ok func(game.State) bool) game.State {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case s, open := <-c.States():
			require.True(t, open, "connection closed")
			if ok(s) {
				return s
			}
		case <-deadline:
			t.Fatal("timed out waiting for state")
		}
	}
}

func TestEncodeDecode(t *testing.T) {
	body, err := Encode(MsgKey, KeyMsg{Direction: game.DirLeft, Pressed: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"key","payload":{"direction":"left","pressed":true}}`, string(body))

	env, err := Decode(body)
	require.NoError(t, err)
	var key KeyMsg
	require.NoError(t, DecodePayload(env, &key))
	assert.Equal(t, KeyMsg{Direction: game.DirLeft, Pressed: true}, key)

	_, err = Decode([]byte(`{"payload":{}}`))
	assert.Error(t, err)
	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestJoinReceivesWelcome(t *testing.T) {
	srv, url := newTestServer(t)
	c := dial(t, url, "alice")

	assert.Equal(t, "v1", c.ViewerID())
	assert.Equal(t, 200, c.TickRate())

	s := waitForState(t, c, func(game.State) bool { return true })
	assert.Equal(t, 8, s.Width)
	assert.Len(t, s.Boxes, 2)

	assert.Eventually(t, func() bool { return srv.Viewers() == 1 }, time.Second, 10*time.Millisecond)
}

func TestViewerKeysDriveSharedPlayer(t *testing.T) {
	_, url := newTestServer(t)
	alice := dial(t, url, "alice")
	bob := dial(t, url, "bob")
	assert.NotEqual(t, alice.ViewerID(), bob.ViewerID())

	alice.Tap(game.DirLeft)

	moved := func(s game.State) bool { return s.Player == game.Position{X: 2, Y: 3} }
	waitForState(t, alice, moved)
	waitForState(t, bob, moved)
}

func TestJoinRequired(t *testing.T) {
	_, url := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	body, err := Encode(MsgKey, KeyMsg{Direction: game.DirUp, Pressed: true})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, body))

	_, reply, err := conn.ReadMessage()
	require.NoError(t, err)
	env, err := Decode(reply)
	require.NoError(t, err)
	assert.Equal(t, MsgError, env.Type)

	var msg ErrorMsg
	require.NoError(t, DecodePayload(env, &msg))
	assert.Contains(t, msg.Message, "expected join")
}

func TestInvalidKeyReportsError(t *testing.T) {
	_, url := newTestServer(t)
	c := dial(t, url, "carol")

	require.NoError(t, c.send(MsgKey, map[string]any{"direction": "sideways", "pressed": true}))

	select {
	case msg := <-c.Errors():
		assert.Equal(t, "invalid key message", msg)
	case <-time.After(2 * time.Second):
		t.Fatal("no error reported")
	}
}

func TestViewerLeaves(t *testing.T) {
	srv, url := newTestServer(t)
	c := dial(t, url, "dave")
	require.Eventually(t, func() bool { return srv.Viewers() == 1 }, time.Second, 10*time.Millisecond)

	c.Close()
	assert.Eventually(t, func() bool { return srv.Viewers() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestWSURL(t *testing.T) {
	assert.Equal(t, "ws://10.0.0.2:9999/ws", wsURL("10.0.0.2:9999"))
	assert.Equal(t, "ws://example/custom", wsURL("ws://example/custom"))
}
