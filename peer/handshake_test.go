package peer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bitchan/bitmessage/wire"
)

func servicesWith(positions ...int) wire.ServicesBitfield {
	var s wire.ServicesBitfield
	for _, p := range positions {
		s.Set(p, true)
	}
	return s
}

func drainEvents(t *testing.T, p *Peer) []Event {
	t.Helper()
	var out []Event
	for {
		select {
		case e := <-p.Events():
			out = append(out, e)
		default:
			return out
		}
	}
}

func TestHandshakeIntersectingStreamsReachesEstablished(t *testing.T) {
	now := time.Now()
	addr := wire.NetAddr{}

	local := New(RoleNormal, []uint64{1, 2}, 111, servicesWith(wire.NodeNetwork), true)
	remote := New(RoleNormal, []uint64{2, 3}, 222, servicesWith(wire.NodeNetwork), false)

	// local opens outbound, sends its version immediately
	localVersionPayload := local.Open(now, addr, addr, "test/1.0")
	require.NotEmpty(t, localVersionPayload)

	remote.Open(now, addr, addr, "test/1.0") // inbound: no immediate send

	localVersion, err := DecodeVersion(localVersionPayload)
	require.NoError(t, err)

	// remote processes local's version
	resp, ok := remote.HandleVersion(localVersion, now, addr, addr, "test/1.0")
	require.True(t, ok)
	require.True(t, resp.SendVerack)
	require.NotEmpty(t, resp.SendVersion) // inbound sends its own version now

	remoteVersion, err := DecodeVersion(resp.SendVersion)
	require.NoError(t, err)

	// local processes remote's version
	localResp, ok := local.HandleVersion(remoteVersion, now, addr, addr, "test/1.0")
	require.True(t, ok)
	require.True(t, localResp.SendVerack)
	require.Empty(t, localResp.SendVersion) // already sent on Open

	// exchange verack
	local.HandleVerack()
	remote.HandleVerack()

	require.Equal(t, Established, local.State())
	require.Equal(t, Established, remote.State())
}

func TestHandshakeSelfConnectionCloses(t *testing.T) {
	now := time.Now()
	addr := wire.NetAddr{}

	p := New(RoleNormal, []uint64{1}, 555, servicesWith(wire.NodeNetwork), true)
	p.Open(now, addr, addr, "test/1.0")

	selfVersion := VersionMessage{
		ProtocolVersion: MinProtocolVersion,
		Services:        servicesWith(wire.NodeNetwork),
		Timestamp:       now.Unix(),
		Nonce:           555, // same as local nonce
		StreamNumbers:   []uint64{1},
	}

	_, ok := p.HandleVersion(selfVersion, now, addr, addr, "test/1.0")
	require.False(t, ok)
	require.Equal(t, Closed, p.State())

	events := drainEvents(t, p)
	foundSelfError := false
	for _, e := range events {
		if e.Kind == EventError && e.Err == ErrConnectionToSelf {
			foundSelfError = true
		}
	}
	require.True(t, foundSelfError)
}

func TestHandshakeClockSkewCloses(t *testing.T) {
	now := time.Now()
	addr := wire.NetAddr{}

	p := New(RoleNormal, []uint64{1}, 1, servicesWith(wire.NodeNetwork), true)
	p.Open(now, addr, addr, "test/1.0")

	skewed := VersionMessage{
		ProtocolVersion: MinProtocolVersion,
		Services:        servicesWith(wire.NodeNetwork),
		Timestamp:       now.Add(3700 * time.Second).Unix(),
		Nonce:           2,
		StreamNumbers:   []uint64{1},
	}

	_, ok := p.HandleVersion(skewed, now, addr, addr, "test/1.0")
	require.False(t, ok)
	require.Equal(t, Closed, p.State())
}

func TestHandshakeOldProtocolVersionCloses(t *testing.T) {
	now := time.Now()
	addr := wire.NetAddr{}

	p := New(RoleNormal, []uint64{1}, 1, servicesWith(wire.NodeNetwork), true)
	p.Open(now, addr, addr, "test/1.0")

	old := VersionMessage{
		ProtocolVersion: 2,
		Services:        servicesWith(wire.NodeNetwork),
		Timestamp:       now.Unix(),
		Nonce:           2,
		StreamNumbers:   []uint64{1},
	}

	_, ok := p.HandleVersion(old, now, addr, addr, "test/1.0")
	require.False(t, ok)
	require.Equal(t, Closed, p.State())
}

func TestHandshakeNoStreamIntersectionCloses(t *testing.T) {
	now := time.Now()
	addr := wire.NetAddr{}

	p := New(RoleNormal, []uint64{1}, 1, servicesWith(wire.NodeNetwork), true)
	p.Open(now, addr, addr, "test/1.0")

	noOverlap := VersionMessage{
		ProtocolVersion: MinProtocolVersion,
		Services:        servicesWith(wire.NodeNetwork),
		Timestamp:       now.Unix(),
		Nonce:           2,
		StreamNumbers:   []uint64{99},
	}

	_, ok := p.HandleVersion(noOverlap, now, addr, addr, "test/1.0")
	require.False(t, ok)
}

func TestHandshakeMissingServiceBitCloses(t *testing.T) {
	now := time.Now()
	addr := wire.NetAddr{}

	p := New(RoleGateway, []uint64{1}, 1, servicesWith(wire.NodeNetwork, wire.NodeGateway), true)
	p.Open(now, addr, addr, "test/1.0")

	noGateway := VersionMessage{
		ProtocolVersion: MinProtocolVersion,
		Services:        servicesWith(wire.NodeNetwork), // missing NodeGateway
		Timestamp:       now.Unix(),
		Nonce:           2,
		StreamNumbers:   []uint64{1},
	}

	_, ok := p.HandleVersion(noGateway, now, addr, addr, "test/1.0")
	require.False(t, ok)
}

func TestVersionMessageEncodeDecodeRoundTrip(t *testing.T) {
	v := VersionMessage{
		ProtocolVersion: 3,
		Services:        servicesWith(wire.NodeNetwork),
		Timestamp:       1234567890,
		AddrRecv:        wire.NetAddr{Port: 8444},
		AddrFrom:        wire.NetAddr{Port: 8445},
		Nonce:           9999,
		UserAgent:       "/bitmessagecore:1.0/",
		StreamNumbers:   []uint64{1, 2, 3},
	}

	payload, err := EncodeVersion(v)
	require.NoError(t, err)

	decoded, err := DecodeVersion(payload)
	require.NoError(t, err)
	require.Equal(t, v.ProtocolVersion, decoded.ProtocolVersion)
	require.Equal(t, v.Services, decoded.Services)
	require.Equal(t, v.Timestamp, decoded.Timestamp)
	require.Equal(t, v.Nonce, decoded.Nonce)
	require.Equal(t, v.UserAgent, decoded.UserAgent)
	require.Equal(t, v.StreamNumbers, decoded.StreamNumbers)
	require.Equal(t, v.AddrRecv.Port, decoded.AddrRecv.Port)
}
