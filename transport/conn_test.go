package transport

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	peerpkg "github.com/bitchan/bitmessage/peer"
	"github.com/bitchan/bitmessage/wire"
)

func servicesWith(positions ...int) wire.ServicesBitfield {
	var s wire.ServicesBitfield
	for _, p := range positions {
		s.Set(p, true)
	}
	return s
}

// TestConnHandshakeOverPipe drives two conns over an in-memory net.Pipe and
// asserts both reach Established, exercising the frame codec, the handshake
// state machine, and conn's read/dispatch loop together.
func TestConnHandshakeOverPipe(t *testing.T) {
	clientRaw, serverRaw := net.Pipe()

	clientPeer := peerpkg.New(peerpkg.RoleNormal, []uint64{1}, 111, servicesWith(wire.NodeNetwork), true)
	serverPeer := peerpkg.New(peerpkg.RoleNormal, []uint64{1}, 222, servicesWith(wire.NodeNetwork), false)

	events := make(chan Event, 256)

	client := newConn("client", clientRaw, clientPeer, nil, wire.NetAddr{}, wire.NetAddr{}, "test/1.0")
	server := newConn("server", serverRaw, serverPeer, nil, wire.NetAddr{}, wire.NetAddr{}, "test/1.0")

	go client.run(events)
	go server.run(events)

	deadline := time.After(2 * time.Second)
	established := map[string]bool{}
	for len(established) < 2 {
		select {
		case e := <-events:
			if e.Kind == EventEstablished {
				established[e.ConnID] = true
			}
		case <-deadline:
			t.Fatal("timed out waiting for both peers to establish")
		}
	}

	require.True(t, established["client"])
	require.True(t, established["server"])

	client.peer.Close()
	server.peer.Close()
}
