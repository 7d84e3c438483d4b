package network

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/amalg/go-sokoban/internal/game"
	"github.com/amalg/go-sokoban/internal/session"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Time allowed for the join handshake.
	joinWait = 5 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Path the WebSocket endpoint is served on.
	Path = "/ws"
)

// Server hosts one puzzle session and fans its state out to every viewer.
// All viewers share the single player: their key events land in the same
// input buffer.
type Server struct {
	session  *session.Local
	log      *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	viewers map[string]*viewer
	nextID  int

	httpSrv  *http.Server
	listener net.Listener
}

// viewer represents a connected client.
type viewer struct {
	conn *websocket.Conn
	id   string
	name string
	send chan []byte
}

// NewServer creates a server broadcasting the given session.
func NewServer(sess *session.Local, log *zap.Logger) *Server {
	s := &Server{
		session: sess,
		log:     log.With(zap.String("component", "server")),
		viewers: make(map[string]*viewer),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Viewers are terminal clients, not browsers.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	sess.Subscribe(s.broadcastState)
	return s
}

// Handler returns the HTTP handler serving the WebSocket endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(Path, s.ServeWS)
	return mux
}

// Start begins accepting connections on addr.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.listener = ln
	s.httpSrv = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: joinWait}

	s.log.Info("listening", zap.String("addr", ln.Addr().String()), zap.Strings("lan", LocalAddrs(ln.Addr().String())))

	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("serve", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the bound listen address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts down the listener and disconnects every viewer.
func (s *Server) Stop(ctx context.Context) error {
	var err error
	if s.httpSrv != nil {
		err = s.httpSrv.Shutdown(ctx)
	}
	s.mu.Lock()
	for id, v := range s.viewers {
		delete(s.viewers, id)
		close(v.send)
	}
	s.mu.Unlock()
	return err
}

// Viewers returns the number of connected viewers.
func (s *Server) Viewers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.viewers)
}

// ServeWS upgrades the request and runs the viewer handshake.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	conn.SetReadLimit(maxMessageSize)

	join, err := s.readJoin(conn)
	if err != nil {
		s.log.Warn("join rejected", zap.String("remote", conn.RemoteAddr().String()), zap.Error(err))
		s.writeError(conn, err.Error())
		conn.Close()
		return
	}

	v := &viewer{
		conn: conn,
		name: join.Name,
		send: make(chan []byte, 256),
	}

	// The welcome is queued before the viewer becomes visible to broadcasts.
	s.mu.Lock()
	s.nextID++
	v.id = fmt.Sprintf("v%d", s.nextID)
	welcome, err := Encode(MsgWelcome, WelcomeMsg{
		ViewerID: v.id,
		TickRate: s.session.Engine().Config.TickRate,
		State:    s.session.Snapshot(),
	})
	if err == nil {
		v.send <- welcome
		s.viewers[v.id] = v
	}
	s.mu.Unlock()
	if err != nil {
		s.log.Error("encode welcome", zap.Error(err))
		conn.Close()
		return
	}

	s.log.Info("viewer joined", zap.String("viewer", v.id), zap.String("name", v.name))

	go s.writePump(v)
	go s.readPump(v)
}

func (s *Server) readJoin(conn *websocket.Conn) (*JoinMsg, error) {
	conn.SetReadDeadline(time.Now().Add(joinWait))
	_, body, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("read join: %w", err)
	}
	env, err := Decode(body)
	if err != nil {
		return nil, err
	}
	if env.Type != MsgJoin {
		return nil, fmt.Errorf("expected join message, got %s", env.Type)
	}
	var join JoinMsg
	if err := DecodePayload(env, &join); err != nil {
		return nil, fmt.Errorf("decode join: %w", err)
	}
	return &join, nil
}

func (s *Server) writeError(conn *websocket.Conn, msg string) {
	body, err := Encode(MsgError, ErrorMsg{Message: msg})
	if err != nil {
		return
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	conn.WriteMessage(websocket.TextMessage, body)
}

// readPump forwards a viewer's key events into the shared input buffer.
func (s *Server) readPump(v *viewer) {
	defer func() {
		s.removeViewer(v.id)
		v.conn.Close()
	}()

	v.conn.SetReadDeadline(time.Now().Add(pongWait))
	v.conn.SetPongHandler(func(string) error {
		v.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, body, err := v.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("viewer read", zap.String("viewer", v.id), zap.Error(err))
			}
			return
		}

		env, err := Decode(body)
		if err != nil {
			s.log.Warn("invalid message", zap.String("viewer", v.id), zap.Error(err))
			continue
		}

		switch env.Type {
		case MsgKey:
			var key KeyMsg
			if err := DecodePayload(env, &key); err != nil || key.Direction == game.DirNone {
				s.queueError(v, "invalid key message")
				continue
			}
			if key.Pressed {
				s.session.Press(key.Direction)
			} else {
				s.session.Release(key.Direction)
			}
		default:
			s.log.Warn("unknown message type", zap.String("viewer", v.id), zap.String("type", string(env.Type)))
			s.queueError(v, fmt.Sprintf("unknown message type %q", env.Type))
		}
	}
}

// writePump drains the viewer's send queue and keeps the connection alive.
func (s *Server) writePump(v *viewer) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		v.conn.Close()
	}()

	for {
		select {
		case message, ok := <-v.send:
			v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The server closed the channel
				v.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := v.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := v.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) queueError(v *viewer, msg string) {
	body, err := Encode(MsgError, ErrorMsg{Message: msg})
	if err != nil {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.viewers[v.id]; !ok {
		return
	}
	select {
	case v.send <- body:
	default:
	}
}

func (s *Server) removeViewer(id string) {
	s.mu.Lock()
	v, ok := s.viewers[id]
	if ok {
		delete(s.viewers, id)
		close(v.send)
	}
	s.mu.Unlock()
	if ok {
		s.log.Info("viewer left", zap.String("viewer", id), zap.String("name", v.name))
	}
}

func (s *Server) broadcastState(state game.State) {
	body, err := Encode(MsgState, StateMsg{State: state})
	if err != nil {
		s.log.Error("encode state", zap.Error(err))
		return
	}

	var slow []string
	s.mu.RLock()
	for id, v := range s.viewers {
		select {
		case v.send <- body:
		default:
			// Viewer's send queue is full, drop it
			slow = append(slow, id)
		}
	}
	s.mu.RUnlock()

	for _, id := range slow {
		s.log.Warn("dropping slow viewer", zap.String("viewer", id))
		s.removeViewer(id)
	}
}

// LocalAddrs lists the non-loopback IPv4 addresses viewers can use to reach
// a server bound to addr.
func LocalAddrs(addr string) []string {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil
	}

	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil
	}

	var out []string
	for _, a := range addrs {
		if ipnet, ok := a.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipnet.IP.To4() != nil {
				out = append(out, net.JoinHostPort(ipnet.IP.String(), port))
			}
		}
	}
	return out
}
