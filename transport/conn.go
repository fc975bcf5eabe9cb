/*
File Name:  conn.go
Copyright:  2026 Bitmessage Core Contributors
Author:     Bitmessage Core Contributors

conn drives a single connection's handshake and framing over an
io.ReadWriteCloser, whether that stream is a raw TCP socket or a WebSocket
message stream adapted to look like one (see websocket.go). It owns no
listening or dialing logic; tcp.go and websocket.go construct it once a
stream exists.
*/

package transport

import (
	"errors"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	peerpkg "github.com/bitchan/bitmessage/peer"
	"github.com/bitchan/bitmessage/wire"
)

// ErrCorruptFrame is surfaced as a peer Warning when the streaming decoder
// resyncs past bad bytes.
var ErrCorruptFrame = errors.New("transport: corrupt frame, resynchronizing")

// conn pairs one peer.Peer with the stream carrying its bytes.
type conn struct {
	id        string
	rwc       io.ReadWriteCloser
	peer      *peerpkg.Peer
	log       *zap.Logger
	addrRecv  wire.NetAddr
	addrFrom  wire.NetAddr
	userAgent string

	writeMu sync.Mutex
}

func newConn(id string, rwc io.ReadWriteCloser, p *peerpkg.Peer, log *zap.Logger, addrRecv, addrFrom wire.NetAddr, userAgent string) *conn {
	if log == nil {
		log = zap.NewNop()
	}
	return &conn{id: id, rwc: rwc, peer: p, log: log, addrRecv: addrRecv, addrFrom: addrFrom, userAgent: userAgent}
}

// run starts the connection: it sends the initial version frame for
// outbound connections, then blocks reading frames until the stream closes.
// It returns once the read loop exits; callers run it in its own goroutine.
func (c *conn) run(sink chan<- Event) {
	if initial := c.peer.Open(time.Now(), c.addrRecv, c.addrFrom, c.userAgent); initial != nil {
		if err := c.writeFrame("version", initial); err != nil {
			c.peer.Warn(err)
			c.peer.Close()
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.pumpEvents(sink)
	}()

	c.readLoop()
	<-done
}

func (c *conn) readLoop() {
	defer c.peer.Close()

	var buf []byte
	tmp := make([]byte, 4096)
	for {
		n, err := c.rwc.Read(tmp)
		if n > 0 {
			buf = append(buf, tmp[:n]...)
			buf = c.drain(buf)
		}
		if err != nil {
			return
		}
	}
}

// drain decodes as many complete frames as buf holds, dispatching each one,
// and returns whatever bytes remain (a partial frame, or bytes to resync past).
func (c *conn) drain(buf []byte) []byte {
	for {
		outcome, msg, rest := wire.TryDecodeMessage(buf)
		switch outcome {
		case wire.Pending:
			return rest
		case wire.Corrupt:
			c.peer.Warn(ErrCorruptFrame)
			buf = rest
			if buf == nil {
				return nil
			}
		case wire.Ok:
			c.dispatch(msg)
			buf = rest
		}
	}
}

func (c *conn) dispatch(msg wire.Message) {
	switch msg.Command {
	case "version":
		v, err := peerpkg.DecodeVersion(msg.Payload)
		if err != nil {
			c.peer.Warn(err)
			return
		}
		resp, ok := c.peer.HandleVersion(v, time.Now(), c.addrRecv, c.addrFrom, c.userAgent)
		if !ok {
			return
		}
		if resp.SendVersion != nil {
			if err := c.writeFrame("version", resp.SendVersion); err != nil {
				c.peer.Warn(err)
				c.peer.Close()
				return
			}
		}
		if resp.SendVerack {
			if err := c.writeFrame("verack", nil); err != nil {
				c.peer.Warn(err)
				c.peer.Close()
				return
			}
		}
	case "verack":
		c.peer.HandleVerack()
	default:
		c.peer.HandleMessage(msg.Command, msg.Payload)
	}
}

func (c *conn) writeFrame(command string, payload []byte) error {
	frame, err := wire.EncodeMessage(command, payload)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err = c.rwc.Write(frame)
	return err
}

// pumpEvents relays the peer's handshake events onto the transport's sink,
// tagging each with this connection's ID, until the peer closes.
func (c *conn) pumpEvents(sink chan<- Event) {
	for e := range c.peer.Events() {
		switch e.Kind {
		case peerpkg.EventError:
			c.log.Warn("peer error", zap.String("conn", c.id), zap.Error(e.Err))
		case peerpkg.EventEstablished:
			c.log.Info("peer established", zap.String("conn", c.id), zap.Uint64("version", e.Version))
		case peerpkg.EventClose:
			c.log.Debug("peer closed", zap.String("conn", c.id))
		}

		sink <- relabel(c.id, e)

		if e.Kind == peerpkg.EventClose {
			c.rwc.Close()
			return
		}
	}
}
