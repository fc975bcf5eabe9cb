/*
File Name:  netaddr.go
Copyright:  2026 Bitmessage Core Contributors
Author:     Bitmessage Core Contributors

net_addr long form (38 bytes): time(u64be), stream(u32be), services(8B),
ip(16B), port(u16be). Short form (26 bytes) omits time and stream.
*/

package wire

import (
	"encoding/binary"
	"errors"
)

// NetAddrLongSize and NetAddrShortSize are the two wire widths of net_addr.
const (
	NetAddrLongSize  = 38
	NetAddrShortSize = 26
)

// ErrNetAddrTruncated is returned when fewer bytes than the requested form remain.
var ErrNetAddrTruncated = errors.New("wire: net_addr truncated")

// NetAddr is a single peer address record.
type NetAddr struct {
	Time     uint64           // long form only
	Stream   uint32           // long form only
	Services ServicesBitfield
	IP       [16]byte // IPv4-mapped IPv6 on the wire; see InetPton/InetNtop
	Port     uint16
}

// EncodeLong serializes the 38-byte long form (time + stream + services + ip + port).
func (a NetAddr) EncodeLong() []byte {
	buf := make([]byte, NetAddrLongSize)
	binary.BigEndian.PutUint64(buf[0:8], a.Time)
	binary.BigEndian.PutUint32(buf[8:12], a.Stream)
	copy(buf[12:20], a.Services[:])
	copy(buf[20:36], a.IP[:])
	binary.BigEndian.PutUint16(buf[36:38], a.Port)
	return buf
}

// EncodeShort serializes the 26-byte short form (services + ip + port, no time/stream).
func (a NetAddr) EncodeShort() []byte {
	buf := make([]byte, NetAddrShortSize)
	copy(buf[0:8], a.Services[:])
	copy(buf[8:24], a.IP[:])
	binary.BigEndian.PutUint16(buf[24:26], a.Port)
	return buf
}

// DecodeNetAddrLong parses the 38-byte long form from the front of buf.
func DecodeNetAddrLong(buf []byte) (NetAddr, error) {
	if len(buf) < NetAddrLongSize {
		return NetAddr{}, ErrNetAddrTruncated
	}
	var a NetAddr
	a.Time = binary.BigEndian.Uint64(buf[0:8])
	a.Stream = binary.BigEndian.Uint32(buf[8:12])
	copy(a.Services[:], buf[12:20])
	copy(a.IP[:], buf[20:36])
	a.Port = binary.BigEndian.Uint16(buf[36:38])
	return a, nil
}

// DecodeNetAddrShort parses the 26-byte short form from the front of buf.
func DecodeNetAddrShort(buf []byte) (NetAddr, error) {
	if len(buf) < NetAddrShortSize {
		return NetAddr{}, ErrNetAddrTruncated
	}
	var a NetAddr
	copy(a.Services[:], buf[0:8])
	copy(a.IP[:], buf[8:24])
	a.Port = binary.BigEndian.Uint16(buf[24:26])
	return a, nil
}
