/*
File Name:  tcp.go
Copyright:  2026 Bitmessage Core Contributors
Author:     Bitmessage Core Contributors

TCPTransport is the reference byte-stream Transport: plain net.Conn,
the wire's natural habitat. It is sample wiring, not part of the core
contract — callers are free to supply any Capabilities implementation.
*/

package transport

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	peerpkg "github.com/bitchan/bitmessage/peer"
	"github.com/bitchan/bitmessage/wire"
)

// TCPTransport dials and accepts plain TCP connections.
type TCPTransport struct {
	Role          peerpkg.Role
	LocalStreams  []uint64
	LocalNonce    uint64
	LocalServices wire.ServicesBitfield
	UserAgent     string
	Log           *zap.Logger

	events   chan Event
	mu       sync.Mutex
	conns    map[string]*conn
	listener net.Listener
	nextID   uint64
	closed   bool
}

// NewTCPTransport constructs a TCPTransport. Log may be nil; it then runs silent.
func NewTCPTransport(role peerpkg.Role, localStreams []uint64, localNonce uint64, localServices wire.ServicesBitfield, userAgent string, log *zap.Logger) *TCPTransport {
	return &TCPTransport{
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
func (t *TCPTransport) Events() <-chan Event {
	return t.events
}

func (t *TCPTransport) newConnID() string {
	n := atomic.AddUint64(&t.nextID, 1)
	return fmt.Sprintf("tcp-%d", n)
}

func (t *TCPTransport) register(id string, c *conn) {
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

func (t *TCPTransport) addrFromNetConn(nc net.Conn) (addrRecv, addrFrom wire.NetAddr) {
	addrFrom = netAddrFromGoAddr(nc.LocalAddr())
	addrRecv = netAddrFromGoAddr(nc.RemoteAddr())
	return
}

func netAddrFromGoAddr(a net.Addr) wire.NetAddr {
	tcpAddr, ok := a.(*net.TCPAddr)
	if !ok {
		return wire.NetAddr{}
	}
	ip, err := wire.InetPton(tcpAddr.IP.String())
	if err != nil {
		return wire.NetAddr{Port: uint16(tcpAddr.Port)}
	}
	return wire.NetAddr{Port: uint16(tcpAddr.Port), IP: ip}
}

// Connect implements Capabilities.
func (t *TCPTransport) Connect(ctx context.Context, addr string) (string, error) {
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", err
	}

	id := t.newConnID()
	addrRecv, addrFrom := t.addrFromNetConn(nc)
	p := peerpkg.New(t.Role, t.LocalStreams, t.LocalNonce, t.LocalServices, true)
	c := newConn(id, nc, p, t.Log, addrRecv, addrFrom, t.UserAgent)
	t.register(id, c)
	return id, nil
}

// Bootstrap implements Capabilities: best-effort, one seed failing does not
// stop the rest.
func (t *TCPTransport) Bootstrap(ctx context.Context, seeds []string) error {
	for _, seed := range seeds {
		if _, err := t.Connect(ctx, seed); err != nil && t.Log != nil {
			t.Log.Warn("bootstrap seed failed", zap.String("seed", seed), zap.Error(err))
		}
	}
	return nil
}

// Listen implements Capabilities. It blocks accepting connections until ctx
// is cancelled or the transport is closed.
func (t *TCPTransport) Listen(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.listener = ln
	t.mu.Unlock()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		nc, err := ln.Accept()
		if err != nil {
			return nil
		}

		id := t.newConnID()
		addrRecv, addrFrom := t.addrFromNetConn(nc)
		p := peerpkg.New(t.Role, t.LocalStreams, t.LocalNonce, t.LocalServices, false)
		c := newConn(id, nc, p, t.Log, addrRecv, addrFrom, t.UserAgent)
		t.register(id, c)
	}
}

// Send implements Capabilities.
func (t *TCPTransport) Send(connID string, command string, payload []byte) error {
	t.mu.Lock()
	c, ok := t.conns[connID]
	t.mu.Unlock()
	if !ok {
		return ErrUnknownConn
	}
	return c.writeFrame(command, payload)
}

// Broadcast implements Capabilities.
func (t *TCPTransport) Broadcast(command string, payload []byte) error {
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
func (t *TCPTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	if t.listener != nil {
		t.listener.Close()
	}
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
