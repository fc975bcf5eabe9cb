/*
File Name:  websocket.go
Copyright:  2026 Bitmessage Core Contributors
Author:     Bitmessage Core Contributors

WebSocketTransport carries the same frame stream over gorilla/websocket,
for deployments that need to tunnel through browser-reachable infrastructure.
wsStream adapts a message-oriented *websocket.Conn to the io.ReadWriteCloser
conn.go expects, the same way the teacher's webapi package upgrades an
http.ResponseWriter to a websocket and then treats it as a JSON stream
(webapi/Search.go's apiSearchResultStream).
*/

package transport

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	peerpkg "github.com/bitchan/bitmessage/peer"
	"github.com/bitchan/bitmessage/wire"
)

// wsUpgrader allows all origins, matching the teacher's permissive default;
// deployments embedding this transport behind a public endpoint should
// replace CheckOrigin.
var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsStream adapts a *websocket.Conn's message framing to io.ReadWriteCloser:
// each WriteMessage call carries one EncodeMessage frame, and Read drains
// whatever the last ReadMessage call returned before asking for the next one.
type wsStream struct {
	conn *websocket.Conn
	buf  []byte
}

func (s *wsStream) Read(p []byte) (int, error) {
	for len(s.buf) == 0 {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return 0, err
		}
		s.buf = data
	}
	n := copy(p, s.buf)
	s.buf = s.buf[n:]
	return n, nil
}

func (s *wsStream) Write(p []byte) (int, error) {
	if err := s.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (s *wsStream) Close() error {
	return s.conn.Close()
}

// WebSocketTransport is the reference WebSocket Transport. Connect dials out;
// Handler returns an http.Handler a caller mounts on its own mux, and Listen
// runs a dedicated HTTP server serving only that handler.
type WebSocketTransport struct {
	Role          peerpkg.Role
	LocalStreams  []uint64
	LocalNonce    uint64
	LocalServices wire.ServicesBitfield
	UserAgent     string
	Log           *zap.Logger

	events chan Event
	mu     sync.Mutex
	conns  map[string]*conn
	nextID uint64
	closed bool
}

// NewWebSocketTransport constructs a WebSocketTransport. Log may be nil.
func NewWebSocketTransport(role peerpkg.Role, localStreams []uint64, localNonce uint64, localServices wire.ServicesBitfield, userAgent string, log *zap.Logger) *WebSocketTransport {
	return &WebSocketTransport{
		Role:          role,
		LocalStreams:  localStreams,
		LocalNonce:    localNonce,
		LocalServices: localServices,
		UserAgent:     userAgent,
		Log:           log,
		events:        make(chan Event, 64),
		conns:         make(map[string]*conn),
	}
}

// Events implements Capabilities.
func (t *WebSocketTransport) Events() <-chan Event {
	return t.events
}

func (t *WebSocketTransport) newConnID() string {
	n := atomic.AddUint64(&t.nextID, 1)
	return fmt.Sprintf("ws-%d", n)
}

func (t *WebSocketTransport) register(id string, c *conn) {
	t.mu.Lock()
	t.conns[id] = c
	t.mu.Unlock()
	go func() {
		c.run(t.events)
		t.mu.Lock()
		delete(t.conns, id)
		t.mu.Unlock()
	}()
}

// Connect implements Capabilities by dialing a ws:// or wss:// URL.
func (t *WebSocketTransport) Connect(ctx context.Context, addr string) (string, error) {
	dialer := websocket.Dialer{}
	wsConn, _, err := dialer.DialContext(ctx, addr, nil)
	if err != nil {
		return "", err
	}

	id := t.newConnID()
	p := peerpkg.New(t.Role, t.LocalStreams, t.LocalNonce, t.LocalServices, true)
	c := newConn(id, &wsStream{conn: wsConn}, p, t.Log, wire.NetAddr{}, wire.NetAddr{}, t.UserAgent)
	t.register(id, c)
	return id, nil
}

// Bootstrap implements Capabilities: best-effort, one seed failing does not
// stop the rest.
func (t *WebSocketTransport) Bootstrap(ctx context.Context, seeds []string) error {
	for _, seed := range seeds {
		if _, err := t.Connect(ctx, seed); err != nil && t.Log != nil {
			t.Log.Warn("bootstrap seed failed", zap.String("seed", seed), zap.Error(err))
		}
	}
	return nil
}

// Listen implements Capabilities by serving Handler on its own http.Server at
// addr. It blocks until ctx is cancelled (which closes the server) or the
// server fails, and returns ListenAndServe's error. Callers that already run
// an HTTP server mount Handler instead.
func (t *WebSocketTransport) Listen(ctx context.Context, addr string) error {
	server := &http.Server{Addr: addr, Handler: t.Handler()}
	go func() {
		<-ctx.Done()
		server.Close()
	}()
	return server.ListenAndServe()
}

// Handler upgrades incoming HTTP requests to WebSocket connections and drives
// the handshake on each one. Embed it in an existing router to avoid owning
// an HTTP server.
func (t *WebSocketTransport) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wsConn, err := wsUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		id := t.newConnID()
		p := peerpkg.New(t.Role, t.LocalStreams, t.LocalNonce, t.LocalServices, false)
		c := newConn(id, &wsStream{conn: wsConn}, p, t.Log, wire.NetAddr{}, wire.NetAddr{}, t.UserAgent)
		t.register(id, c)
	}
}

// Send implements Capabilities.
func (t *WebSocketTransport) Send(connID string, command string, payload []byte) error {
	t.mu.Lock()
	c, ok := t.conns[connID]
	t.mu.Unlock()
	if !ok {
		return ErrUnknownConn
	}
	return c.writeFrame(command, payload)
}

// Broadcast implements Capabilities.
func (t *WebSocketTransport) Broadcast(command string, payload []byte) error {
	t.mu.Lock()
	conns := make([]*conn, 0, len(t.conns))
	for _, c := range t.conns {
		conns = append(conns, c)
	}
	t.mu.Unlock()

	var firstErr error
	for _, c := range conns {
		if err := c.writeFrame(command, payload); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close implements Capabilities.
func (t *WebSocketTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	conns := make([]*conn, 0, len(t.conns))
	for _, c := range t.conns {
		conns = append(conns, c)
	}
	t.mu.Unlock()

	for _, c := range conns {
		c.rwc.Close()
	}
	return nil
}
