/*
File Name:  varint.go
Copyright:  2026 Bitmessage Core Contributors
Author:     Bitmessage Core Contributors

var_int encodes a non-negative integer using the shortest of: 1 byte
(value<0xFD); 0xFD + u16be; 0xFE + u32be; 0xFF + u64be. Decoding rejects
non-minimal encodings and, when a native int is requested, values at or
above 2^53 (the largest integer a float64/JS-derived client can hold exactly;
kept here so wire behavior matches the rest of the Bitmessage ecosystem).
*/

package wire

import (
	"encoding/binary"
	"errors"
)

// MaxSafeInteger is the largest value VarInt.Value will return without error.
const MaxSafeInteger = 1<<53 - 1

// ErrVarIntNonMinimal is returned when a var_int was not encoded in its shortest form.
var ErrVarIntNonMinimal = errors.New("wire: var_int is not minimally encoded")

// ErrVarIntTruncated is returned when the buffer ends before the var_int's body.
var ErrVarIntTruncated = errors.New("wire: var_int truncated")

// ErrVarIntUnsafe is returned by Value when the decoded integer exceeds MaxSafeInteger.
var ErrVarIntUnsafe = errors.New("wire: var_int exceeds safe integer range")

// VarInt is a decoded var_int: the raw 64-bit value plus how many bytes it consumed.
type VarInt struct {
	raw  uint64
	size int
}

// NewVarInt wraps a native uint64 for encoding.
func NewVarInt(v uint64) VarInt { return VarInt{raw: v} }

// Value returns v as a native int, failing if it exceeds MaxSafeInteger.
func (v VarInt) Value() (uint64, error) {
	if v.raw > MaxSafeInteger {
		return 0, ErrVarIntUnsafe
	}
	return v.raw, nil
}

// Raw returns the full 64-bit value regardless of safe-integer range (for lengths/timestamps).
func (v VarInt) Raw() uint64 { return v.raw }

// Size is the number of bytes the var_int occupied when decoded (0 if constructed fresh).
func (v VarInt) Size() int { return v.size }

// EncodeVarInt serializes v in its canonical shortest form.
func EncodeVarInt(v uint64) []byte {
	switch {
	case v < 0xFD:
		return []byte{byte(v)}
	case v <= 0xFFFF:
		buf := make([]byte, 3)
		buf[0] = 0xFD
		binary.BigEndian.PutUint16(buf[1:], uint16(v))
		return buf
	case v <= 0xFFFFFFFF:
		buf := make([]byte, 5)
		buf[0] = 0xFE
		binary.BigEndian.PutUint32(buf[1:], uint32(v))
		return buf
	default:
		buf := make([]byte, 9)
		buf[0] = 0xFF
		binary.BigEndian.PutUint64(buf[1:], v)
		return buf
	}
}

// EncodeVarIntBytes accepts a raw, up-to-8-byte big-endian buffer and zero-left-pads it
// into the 9-byte 0xFF form, whatever the value. For values that fit a shorter form
// the result is not minimal, and DecodeVarInt rejects it.
func EncodeVarIntBytes(raw []byte) ([]byte, error) {
	if len(raw) > 8 {
		return nil, errors.New("wire: var_int raw buffer longer than 8 bytes")
	}
	buf := make([]byte, 9)
	buf[0] = 0xFF
	copy(buf[9-len(raw):], raw)
	return buf, nil
}

// DecodeVarInt reads a var_int from the front of buf, rejecting non-minimal encodings.
func DecodeVarInt(buf []byte) (VarInt, error) {
	if len(buf) < 1 {
		return VarInt{}, ErrVarIntTruncated
	}

	switch prefix := buf[0]; {
	case prefix < 0xFD:
		return VarInt{raw: uint64(prefix), size: 1}, nil
	case prefix == 0xFD:
		if len(buf) < 3 {
			return VarInt{}, ErrVarIntTruncated
		}
		v := uint64(binary.BigEndian.Uint16(buf[1:3]))
		if v < 0xFD {
			return VarInt{}, ErrVarIntNonMinimal
		}
		return VarInt{raw: v, size: 3}, nil
	case prefix == 0xFE:
		if len(buf) < 5 {
			return VarInt{}, ErrVarIntTruncated
		}
		v := uint64(binary.BigEndian.Uint32(buf[1:5]))
		if v <= 0xFFFF {
			return VarInt{}, ErrVarIntNonMinimal
		}
		return VarInt{raw: v, size: 5}, nil
	default: // 0xFF
		if len(buf) < 9 {
			return VarInt{}, ErrVarIntTruncated
		}
		v := binary.BigEndian.Uint64(buf[1:9])
		if v <= 0xFFFFFFFF {
			return VarInt{}, ErrVarIntNonMinimal
		}
		return VarInt{raw: v, size: 9}, nil
	}
}
