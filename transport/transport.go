/*
File Name:  transport.go
Copyright:  2026 Bitmessage Core Contributors
Author:     Bitmessage Core Contributors

Transport is the capability set a byte-stream transport exposes to the core:
bootstrap, connect, listen, send, broadcast, close, plus an event stream
(Design Note 9.1). The core itself never touches a socket; concrete TCP and
WebSocket transports in this package implement the interface by driving a
peer.Peer handshake over an io.ReadWriteCloser.
*/

package transport

import (
	"context"
	"errors"

	peerpkg "github.com/bitchan/bitmessage/peer"
)

// Capabilities is the trait every concrete transport implements.
type Capabilities interface {
	// Bootstrap dials a list of seed addresses best-effort; a single seed
	// failing does not abort the others.
	Bootstrap(ctx context.Context, seeds []string) error

	// Connect opens one outbound connection and returns its connection ID.
	Connect(ctx context.Context, addr string) (connID string, err error)

	// Listen accepts inbound connections on addr until the transport is closed.
	Listen(ctx context.Context, addr string) error

	// Send writes command/payload to one open connection.
	Send(connID string, command string, payload []byte) error

	// Broadcast writes command/payload to every open connection.
	Broadcast(command string, payload []byte) error

	// Close tears down every connection and stops accepting new ones.
	Close() error

	// Events returns the transport's event stream. Events from distinct
	// connections interleave; ordering within one ConnID is preserved.
	Events() <-chan Event
}

// EventKind mirrors peer.EventKind; the numeric values are kept identical so
// a peer.Event can be relabeled into a transport.Event without a lookup table.
type EventKind int

// The closed set of event variants, matching peer.EventKind 1:1.
const (
	EventOpen EventKind = iota
	EventMessage
	EventEstablished
	EventWarning
	EventError
	EventClose
)

// Event is a peer.Event tagged with the connection it came from.
type Event struct {
	ConnID  string
	Kind    EventKind
	Command string
	Payload []byte
	Raw     []byte
	Version uint64
	Err     error
}

// ErrUnknownConn is returned by Send when connID names no open connection.
var ErrUnknownConn = errors.New("transport: unknown connection id")

// ErrClosed names the closed-transport condition. TCPTransport and
// WebSocketTransport do not return it: after Close, Send reports
// ErrUnknownConn or the closed stream's write error.
var ErrClosed = errors.New("transport: closed")

func relabel(connID string, e peerpkg.Event) Event {
	return Event{
		ConnID:  connID,
		Kind:    EventKind(e.Kind),
		Command: e.Command,
		Payload: e.Payload,
		Version: e.Version,
		Err:     e.Err,
	}
}
