/*
File Name:  handshake.go
Copyright:  2026 Bitmessage Core Contributors
Author:     Bitmessage Core Contributors

Connection handshake state machine: Opened -> SentVersion -> GotVersion ->
Established -> Closed, symmetric for inbound and outbound connections. Driven
entirely by HandleVersion/HandleVerack; it never touches a socket directly —
Events are the only output, and the caller's transport is responsible for
turning them into bytes on the wire.
*/

package peer

import (
	"errors"
	"fmt"
	"time"

	"github.com/bitchan/bitmessage/wire"
)

// State is a connection's position in the handshake state machine.
type State int

// Handshake states.
const (
	Opened State = iota
	SentVersion
	GotVersion
	Established
	Closed
)

// Role gates which service bit a peer's version message must advertise.
type Role int

// Supported roles.
const (
	RoleNormal Role = iota
	RoleGateway
	RoleMobile
)

func (r Role) requiredServiceBit() int {
	switch r {
	case RoleGateway:
		return wire.NodeGateway
	case RoleMobile:
		return wire.NodeMobile
	default:
		return wire.NodeNetwork
	}
}

// MaxClockSkew is the largest tolerated difference between the peer's
// advertised timestamp and the local clock.
const MaxClockSkew = 3600 * time.Second

// MinProtocolVersion is the lowest protocol version this peer accepts.
const MinProtocolVersion = 3

// Errors surfaced via Event.Err during the handshake.
var (
	ErrProtocolVersionTooOld = errors.New("peer: protocol version too old")
	ErrConnectionToSelf      = errors.New("peer: connection to self")
	ErrClockSkew             = errors.New("peer: clock skew exceeds tolerance")
	ErrStreamMismatch        = errors.New("peer: no intersecting streams")
	ErrMissingServiceBit     = errors.New("peer: missing required service bit")
	ErrVersionTruncated      = errors.New("peer: version message truncated")
	ErrWrongState            = errors.New("peer: message received in wrong state")
)

// EventKind identifies the variant carried by an Event.
type EventKind int

// The closed set of event variants the state machine emits.
const (
	EventOpen EventKind = iota
	EventMessage
	EventEstablished
	EventWarning
	EventError
	EventClose
)

// Event is one of {Open, Message(cmd,payload), Established(version),
// Warning(err), Error(err), Close}; only the fields relevant to Kind are populated.
type Event struct {
	Kind    EventKind
	Command string
	Payload []byte
	Version uint64
	Err     error
}

// Peer drives one connection's handshake. It holds no transport reference;
// callers read Events and write whatever bytes those events imply.
type Peer struct {
	Role          Role
	LocalStreams  []uint64
	LocalNonce    uint64
	LocalServices wire.ServicesBitfield
	Outbound      bool

	state         State
	verackSent    bool
	verackRecv    bool
	peerVersion   uint64
	events        chan Event
}

// New constructs a Peer in the Opened state.
func New(role Role, localStreams []uint64, localNonce uint64, localServices wire.ServicesBitfield, outbound bool) *Peer {
	return &Peer{
		Role:          role,
		LocalStreams:  localStreams,
		LocalNonce:    localNonce,
		LocalServices: localServices,
		Outbound:      outbound,
		state:         Opened,
		events:        make(chan Event, 16),
	}
}

// Events returns the peer's event stream. Events are totally ordered within
// a single Peer; ordering across distinct Peers is not defined.
func (p *Peer) Events() <-chan Event {
	return p.events
}

// State reports the peer's current handshake state.
func (p *Peer) State() State {
	return p.state
}

func (p *Peer) emit(e Event) {
	p.events <- e
}

// Open begins the handshake. Outbound connections send their version
// message immediately; inbound connections wait for the peer's version.
func (p *Peer) Open(now time.Time, addrRecv, addrFrom wire.NetAddr, userAgent string) []byte {
	p.emit(Event{Kind: EventOpen})

	if !p.Outbound {
		return nil
	}

	v := VersionMessage{
		ProtocolVersion: MinProtocolVersion,
		Services:        p.LocalServices,
		Timestamp:       now.Unix(),
		AddrRecv:        addrRecv,
		AddrFrom:        addrFrom,
		Nonce:           p.LocalNonce,
		UserAgent:       userAgent,
		StreamNumbers:   p.LocalStreams,
	}
	payload, err := EncodeVersion(v)
	if err != nil {
		p.emit(Event{Kind: EventError, Err: err})
		p.close()
		return nil
	}
	p.state = SentVersion
	return payload
}

// intersects reports whether a and b share at least one element, by pairwise
// comparison (both lists are expected to be short).
func intersects(a, b []uint64) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// HandshakeResponse is what the caller must send after HandleVersion
// succeeds: a verack, and for an inbound connection that hasn't sent its own
// version yet, our version too.
type HandshakeResponse struct {
	SendVerack  bool
	SendVersion []byte // nil if our version was already sent on Open
}

// HandleVersion validates an incoming version message and advances the
// state machine. ok is false if the handshake failed and the connection was
// closed, in which case the response is zero-valued.
func (p *Peer) HandleVersion(v VersionMessage, now time.Time, addrRecv, addrFrom wire.NetAddr, userAgent string) (resp HandshakeResponse, ok bool) {
	if p.state != Opened && p.state != SentVersion {
		p.emit(Event{Kind: EventError, Err: fmt.Errorf("%w: version in state %d", ErrWrongState, p.state)})
		p.close()
		return HandshakeResponse{}, false
	}

	if v.ProtocolVersion < MinProtocolVersion {
		p.emit(Event{Kind: EventError, Err: ErrProtocolVersionTooOld})
		p.close()
		return HandshakeResponse{}, false
	}
	if v.Nonce == p.LocalNonce {
		p.emit(Event{Kind: EventError, Err: ErrConnectionToSelf})
		p.close()
		return HandshakeResponse{}, false
	}
	skew := now.Unix() - v.Timestamp
	if skew > int64(MaxClockSkew.Seconds()) || skew < -int64(MaxClockSkew.Seconds()) {
		p.emit(Event{Kind: EventError, Err: ErrClockSkew})
		p.close()
		return HandshakeResponse{}, false
	}
	if !intersects(p.LocalStreams, v.StreamNumbers) {
		p.emit(Event{Kind: EventError, Err: ErrStreamMismatch})
		p.close()
		return HandshakeResponse{}, false
	}
	if !v.Services.Get(p.Role.requiredServiceBit()) {
		p.emit(Event{Kind: EventError, Err: ErrMissingServiceBit})
		p.close()
		return HandshakeResponse{}, false
	}

	p.peerVersion = v.ProtocolVersion
	p.state = GotVersion

	resp.SendVerack = true

	if !p.Outbound {
		ourVersion := VersionMessage{
			ProtocolVersion: MinProtocolVersion,
			Services:        p.LocalServices,
			Timestamp:       now.Unix(),
			AddrRecv:        addrRecv,
			AddrFrom:        addrFrom,
			Nonce:           p.LocalNonce,
			UserAgent:       userAgent,
			StreamNumbers:   p.LocalStreams,
		}
		payload, err := EncodeVersion(ourVersion)
		if err != nil {
			p.emit(Event{Kind: EventError, Err: err})
			p.close()
			return HandshakeResponse{}, false
		}
		resp.SendVersion = payload
	}

	p.verackSent = true
	return resp, true
}

// HandleVerack marks the local verack as received from the peer and, once
// both directions have exchanged verack, transitions to Established.
func (p *Peer) HandleVerack() {
	if p.state != GotVersion && p.state != SentVersion {
		p.emit(Event{Kind: EventError, Err: fmt.Errorf("%w: verack in state %d", ErrWrongState, p.state)})
		p.close()
		return
	}

	p.verackRecv = true
	if p.verackSent && p.verackRecv {
		p.state = Established
		p.emit(Event{Kind: EventEstablished, Version: p.peerVersion})
	}
}

// HandleMessage forwards any non-handshake command as a Message event.
func (p *Peer) HandleMessage(command string, payload []byte) {
	p.emit(Event{Kind: EventMessage, Command: command, Payload: payload})
}

// Warn emits a non-fatal Warning event without closing the connection.
func (p *Peer) Warn(err error) {
	p.emit(Event{Kind: EventWarning, Err: err})
}

func (p *Peer) close() {
	p.state = Closed
	p.emit(Event{Kind: EventClose})
}

// Close closes the connection from the caller's side (idle/established
// timeout, transport error, or explicit shutdown).
func (p *Peer) Close() {
	if p.state == Closed {
		return
	}
	p.close()
}
