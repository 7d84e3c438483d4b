package network

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/amalg/go-sokoban/internal/game"
)

// Client connects to a hosted puzzle, sends key events and receives state
// updates.
type Client struct {
	conn     *websocket.Conn
	viewerID string
	tickRate int
	states   chan game.State
	errs     chan string
	log      *zap.Logger

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// Dial connects to the server at addr ("host:port" or a ws:// URL) and
// performs the join handshake.
func Dial(ctx context.Context, addr, name string, log *zap.Logger) (*Client, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, _, err := dialer.DialContext(ctx, wsURL(addr), nil)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}

	c := &Client{
		conn:   conn,
		states: make(chan game.State, 1),
		errs:   make(chan string, 8),
		log:    log.With(zap.String("component", "client")),
	}

	// Send join message
	if err := c.send(MsgJoin, JoinMsg{Name: name}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send join: %w", err)
	}

	// Read welcome message
	conn.SetReadDeadline(time.Now().Add(joinWait))
	_, body, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("read welcome: %w", err)
	}
	conn.SetReadDeadline(time.Time{})

	env, err := Decode(body)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("read welcome: %w", err)
	}

	if env.Type == MsgError {
		var errMsg ErrorMsg
		DecodePayload(env, &errMsg)
		conn.Close()
		return nil, fmt.Errorf("server error: %s", errMsg.Message)
	}

	if env.Type != MsgWelcome {
		conn.Close()
		return nil, fmt.Errorf("expected welcome, got %s", env.Type)
	}

	var welcome WelcomeMsg
	if err := DecodePayload(env, &welcome); err != nil {
		conn.Close()
		return nil, fmt.Errorf("decode welcome: %w", err)
	}

	c.viewerID = welcome.ViewerID
	c.tickRate = welcome.TickRate
	c.states <- welcome.State

	// Start receiving state updates
	go c.receiveLoop()

	return c, nil
}

func wsURL(addr string) string {
	if strings.HasPrefix(addr, "ws://") || strings.HasPrefix(addr, "wss://") {
		return addr
	}
	return "ws://" + addr + Path
}

// ViewerID returns the id the server assigned to this connection.
func (c *Client) ViewerID() string {
	return c.viewerID
}

// TickRate returns the server's simulation rate.
func (c *Client) TickRate() int {
	return c.tickRate
}

// States returns a channel that yields the latest settled state. It is
// closed when the connection ends.
func (c *Client) States() <-chan game.State {
	return c.states
}

// Errors yields error messages reported by the server.
func (c *Client) Errors() <-chan string {
	return c.errs
}

// Press sends a key-down event.
func (c *Client) Press(dir game.Direction) error {
	return c.send(MsgKey, KeyMsg{Direction: dir, Pressed: true})
}

// Release sends a key-up event.
func (c *Client) Release(dir game.Direction) error {
	return c.send(MsgKey, KeyMsg{Direction: dir, Pressed: false})
}

// Tap sends a press followed by a release.
func (c *Client) Tap(dir game.Direction) {
	if err := c.Press(dir); err != nil {
		c.log.Warn("send press", zap.Error(err))
		return
	}
	if err := c.Release(dir); err != nil {
		c.log.Warn("send release", zap.Error(err))
	}
}

// Close disconnects from the server.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		c.conn.Close()
	})
}

func (c *Client) send(msgType MsgType, payload interface{}) error {
	body, err := Encode(msgType, payload)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, body)
}

func (c *Client) receiveLoop() {
	defer close(c.states)

	for {
		_, body, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Warn("connection lost", zap.Error(err))
			}
			return
		}

		env, err := Decode(body)
		if err != nil {
			c.log.Warn("invalid message", zap.Error(err))
			continue
		}

		switch env.Type {
		case MsgState:
			var stateMsg StateMsg
			if err := DecodePayload(env, &stateMsg); err != nil {
				continue
			}
			// Non-blocking send to state channel
			select {
			case c.states <- stateMsg.State:
			default:
				// Drop old state if consumer is slow, latest state matters most
				select {
				case <-c.states:
				default:
				}
				c.states <- stateMsg.State
			}
		case MsgError:
			var errMsg ErrorMsg
			DecodePayload(env, &errMsg)
			c.log.Warn("server error", zap.String("message", errMsg.Message))
			select {
			case c.errs <- errMsg.Message:
			default:
			}
		}
	}
}
