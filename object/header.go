/*
File Name:  header.go
Copyright:  2026 Bitmessage Core Contributors
Author:     Bitmessage Core Contributors

Object envelope: nonce(8) ‖ expiresTime(u64be) ‖ type(u32be) ‖ var_int(version)
‖ var_int(stream) ‖ objectPayload. The nonce is the proof-of-work solution;
EncodeWithoutNonce omits it so callers can hash the rest of the header while
searching for a nonce.
*/

package object

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/bitchan/bitmessage/pow"
	"github.com/bitchan/bitmessage/wire"
)

// MaxPayloadLength mirrors the frame codec's limit; an object is always
// carried inside a single "object" message.
const MaxPayloadLength = 1 << 18

// Object type identifiers, per the wire protocol.
const (
	TypeGetpubkey = 0
	TypePubkey    = 1
	TypeMsg       = 2
	TypeBroadcast = 3
)

// Errors returned while encoding or decoding an object envelope.
var (
	ErrPayloadTooLarge = errors.New("object: payload exceeds maximum length")
	ErrTruncated       = errors.New("object: buffer truncated")
	ErrPowInvalid      = errors.New("object: proof of work invalid")
)

// Header is the decoded envelope of an object, not including its type-specific payload.
type Header struct {
	Nonce        uint64
	ExpiresTime  uint64
	Type         uint32
	Version      uint64
	Stream       uint64
	HeaderLength int // bytes consumed by nonce..stream, i.e. where objectPayload begins
}

// TTL reports the header's remaining time to live relative to now.
func (h Header) TTL(now time.Time) int64 {
	return int64(h.ExpiresTime) - now.Unix()
}

// EncodeWithoutNonce renders expiresTime ‖ type ‖ version ‖ stream ‖
// objectPayload, omitting the leading 8-byte nonce field so that callers can
// compute its proof-of-work initial hash before a nonce is known.
func EncodeWithoutNonce(expiresTime uint64, objType uint32, version, stream uint64, objectPayload []byte) ([]byte, error) {
	if len(objectPayload) > MaxPayloadLength {
		return nil, ErrPayloadTooLarge
	}

	buf := make([]byte, 0, 8+4+len(objectPayload)+2)
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], expiresTime)
	buf = append(buf, tmp[:]...)

	var tmp4 [4]byte
	binary.BigEndian.PutUint32(tmp4[:], objType)
	buf = append(buf, tmp4[:]...)

	buf = append(buf, wire.EncodeVarInt(version)...)
	buf = append(buf, wire.EncodeVarInt(stream)...)
	buf = append(buf, objectPayload...)
	return buf, nil
}

// Encode prepends nonce to an already-assembled without-nonce body.
func Encode(nonce uint64, withoutNonce []byte) []byte {
	buf := make([]byte, 8, 8+len(withoutNonce))
	binary.BigEndian.PutUint64(buf, nonce)
	return append(buf, withoutNonce...)
}

// DecodeOptions controls Decode's proof-of-work enforcement. NonceTrialsPerByte
// and PayloadLengthExtraBytes should be set to the sender's advertised values
// (from a pubkey v3/v4 or msg v3+ record) when known; zero falls back to the
// protocol default of 1000, the same floor pow.GetTarget clamps to anyway.
type DecodeOptions struct {
	SkipPow                 bool
	NonceTrialsPerByte      int64
	PayloadLengthExtraBytes int64
}

// Decode parses an object's envelope out of buf, which must contain the full
// object payload (nonce through objectPayload, no trailing bytes expected
// beyond what the header declares). Unless opts.SkipPow is set, it runs the
// PoW check and fails with ErrPowInvalid when the nonce does not satisfy the
// target implied by ttl and payload length.
func Decode(buf []byte, opts DecodeOptions) (Header, []byte, error) {
	if len(buf) > MaxPayloadLength {
		return Header{}, nil, ErrPayloadTooLarge
	}
	if len(buf) < 8+8+4 {
		return Header{}, nil, ErrTruncated
	}

	nonce := binary.BigEndian.Uint64(buf[0:8])
	expiresTime := binary.BigEndian.Uint64(buf[8:16])
	objType := binary.BigEndian.Uint32(buf[16:20])

	rest := buf[20:]
	version, err := wire.DecodeVarInt(rest)
	if err != nil {
		return Header{}, nil, fmt.Errorf("object: decode version: %w", err)
	}
	versionVal, err := version.Value()
	if err != nil {
		return Header{}, nil, fmt.Errorf("object: decode version: %w", err)
	}
	rest = rest[version.Size():]

	stream, err := wire.DecodeVarInt(rest)
	if err != nil {
		return Header{}, nil, fmt.Errorf("object: decode stream: %w", err)
	}
	streamVal, err := stream.Value()
	if err != nil {
		return Header{}, nil, fmt.Errorf("object: decode stream: %w", err)
	}

	headerLength := 20 + version.Size() + stream.Size()
	objectPayload := buf[headerLength:]

	h := Header{
		Nonce:        nonce,
		ExpiresTime:  expiresTime,
		Type:         objType,
		Version:      versionVal,
		Stream:       streamVal,
		HeaderLength: headerLength,
	}

	if !opts.SkipPow {
		trials, extra := opts.NonceTrialsPerByte, opts.PayloadLengthExtraBytes
		if trials == 0 {
			trials = 1000
		}
		if extra == 0 {
			extra = 1000
		}
		ttl := h.TTL(time.Now())
		target, err := pow.GetTarget(ttl, int64(len(buf)-8), trials, extra)
		if err != nil {
			return Header{}, nil, fmt.Errorf("object: %w: %v", ErrPowInvalid, err)
		}
		initialHash := pow.InitialHash(buf[8:])
		if !pow.Check(nonce, target, initialHash) {
			return Header{}, nil, ErrPowInvalid
		}
	}

	return h, objectPayload, nil
}
