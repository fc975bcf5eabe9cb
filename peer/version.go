/*
File Name:  version.go
Copyright:  2026 Bitmessage Core Contributors
Author:     Bitmessage Core Contributors

The version message: the first thing either side of a connection sends. It
carries the peer's protocol version, services, clock, listening address, the
self-connection nonce, user agent, and the streams it is willing to relay.
*/

package peer

import (
	"encoding/binary"
	"fmt"

	"github.com/bitchan/bitmessage/wire"
)

// VersionMessage is the decoded payload of a "version" command.
type VersionMessage struct {
	ProtocolVersion uint64
	Services        wire.ServicesBitfield
	Timestamp       int64
	AddrRecv        wire.NetAddr
	AddrFrom        wire.NetAddr
	Nonce           uint64
	UserAgent       string
	StreamNumbers   []uint64
}

// MaxStreamNumbers is the upper bound on an advertised stream-number list, per §9's open question.
const MaxStreamNumbers = 160000

// EncodeVersion renders a VersionMessage as a "version" command payload.
func EncodeVersion(v VersionMessage) ([]byte, error) {
	if len(v.StreamNumbers) > MaxStreamNumbers {
		return nil, fmt.Errorf("peer: stream list exceeds %d entries", MaxStreamNumbers)
	}

	var buf []byte
	buf = append(buf, wire.EncodeVarInt(v.ProtocolVersion)...)
	buf = append(buf, v.Services[:]...)

	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(v.Timestamp))
	buf = append(buf, ts[:]...)

	buf = append(buf, v.AddrRecv.EncodeShort()...)
	buf = append(buf, v.AddrFrom.EncodeShort()...)

	var nonce [8]byte
	binary.BigEndian.PutUint64(nonce[:], v.Nonce)
	buf = append(buf, nonce[:]...)

	buf = append(buf, wire.EncodeVarStr(v.UserAgent)...)
	buf = append(buf, wire.EncodeVarIntList(v.StreamNumbers)...)
	return buf, nil
}

// DecodeVersion parses a version message payload.
func DecodeVersion(buf []byte) (VersionMessage, error) {
	var v VersionMessage

	protocolVersion, err := wire.DecodeVarInt(buf)
	if err != nil {
		return VersionMessage{}, fmt.Errorf("peer: decode protocol version: %w", err)
	}
	v.ProtocolVersion, err = protocolVersion.Value()
	if err != nil {
		return VersionMessage{}, fmt.Errorf("peer: decode protocol version: %w", err)
	}
	buf = buf[protocolVersion.Size():]

	if len(buf) < 8+8 {
		return VersionMessage{}, ErrVersionTruncated
	}
	copy(v.Services[:], buf[:8])
	v.Timestamp = int64(binary.BigEndian.Uint64(buf[8:16]))
	buf = buf[16:]

	if len(buf) < wire.NetAddrShortSize {
		return VersionMessage{}, ErrVersionTruncated
	}
	addrRecv, err := wire.DecodeNetAddrShort(buf[:wire.NetAddrShortSize])
	if err != nil {
		return VersionMessage{}, fmt.Errorf("peer: decode addrRecv: %w", err)
	}
	v.AddrRecv = addrRecv
	buf = buf[wire.NetAddrShortSize:]

	if len(buf) < wire.NetAddrShortSize {
		return VersionMessage{}, ErrVersionTruncated
	}
	addrFrom, err := wire.DecodeNetAddrShort(buf[:wire.NetAddrShortSize])
	if err != nil {
		return VersionMessage{}, fmt.Errorf("peer: decode addrFrom: %w", err)
	}
	v.AddrFrom = addrFrom
	buf = buf[wire.NetAddrShortSize:]

	if len(buf) < 8 {
		return VersionMessage{}, ErrVersionTruncated
	}
	v.Nonce = binary.BigEndian.Uint64(buf[:8])
	buf = buf[8:]

	userAgent, n, err := wire.DecodeVarStr(buf)
	if err != nil {
		return VersionMessage{}, fmt.Errorf("peer: decode user agent: %w", err)
	}
	v.UserAgent = userAgent
	buf = buf[n:]

	streams, _, err := wire.DecodeVarIntList(buf)
	if err != nil {
		return VersionMessage{}, fmt.Errorf("peer: decode stream numbers: %w", err)
	}
	if len(streams) > MaxStreamNumbers {
		return VersionMessage{}, fmt.Errorf("peer: stream list exceeds %d entries", MaxStreamNumbers)
	}
	v.StreamNumbers = streams

	return v, nil
}
