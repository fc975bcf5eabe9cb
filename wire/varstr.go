/*
File Name:  varstr.go
Copyright:  2026 Bitmessage Core Contributors
Author:     Bitmessage Core Contributors
*/

package wire

import "errors"

// ErrVarStrTruncated is returned when the declared length exceeds the remaining buffer.
var ErrVarStrTruncated = errors.New("wire: var_str declared length exceeds buffer")

// EncodeVarStr serializes s as var_int(len) || UTF-8 bytes.
func EncodeVarStr(s string) []byte {
	body := []byte(s)
	return append(EncodeVarInt(uint64(len(body))), body...)
}

// DecodeVarStr reads a var_str from the front of buf, returning the string and bytes consumed.
func DecodeVarStr(buf []byte) (s string, consumed int, err error) {
	length, err := DecodeVarInt(buf)
	if err != nil {
		return "", 0, err
	}
	n, err := length.Value()
	if err != nil {
		return "", 0, err
	}

	rest := buf[length.Size():]
	if uint64(len(rest)) < n {
		return "", 0, ErrVarStrTruncated
	}

	return string(rest[:n]), length.Size() + int(n), nil
}

// EncodeVarIntList serializes var_int(n) || n var_ints.
func EncodeVarIntList(values []uint64) []byte {
	out := EncodeVarInt(uint64(len(values)))
	for _, v := range values {
		out = append(out, EncodeVarInt(v)...)
	}
	return out
}

// DecodeVarIntList reads a var_int_list from the front of buf.
func DecodeVarIntList(buf []byte) (values []uint64, consumed int, err error) {
	count, err := DecodeVarInt(buf)
	if err != nil {
		return nil, 0, err
	}
	n, err := count.Value()
	if err != nil {
		return nil, 0, err
	}

	offset := count.Size()
	values = make([]uint64, 0, n)
	for i := uint64(0); i < n; i++ {
		if offset >= len(buf) {
			return nil, 0, ErrVarIntTruncated
		}
		v, err := DecodeVarInt(buf[offset:])
		if err != nil {
			return nil, 0, err
		}
		value, err := v.Value()
		if err != nil {
			return nil, 0, err
		}
		values = append(values, value)
		offset += v.Size()
	}

	return values, offset, nil
}
