/*
File Name:  getpubkey.go
Copyright:  2026 Bitmessage Core Contributors
Author:     Bitmessage Core Contributors

getpubkey: a request for a pubkey object, addressed by ripe (v2/v3) or tag (v4).
*/

package object

import (
	"errors"

	"github.com/bitchan/bitmessage/address"
)

// ErrUnsupportedAddressVersion is returned when a getpubkey is built for or
// decoded against an address version this codec does not understand.
var ErrUnsupportedAddressVersion = errors.New("object: unsupported address version")

// Getpubkey is the decoded payload of a getpubkey object: the addressee,
// identified either by ripe (v2/v3) or tag (v4).
type Getpubkey struct {
	Version uint64
	Ripe    [20]byte // populated for version 2/3
	Tag     [32]byte // populated for version 4
}

// EncodeGetpubkey resolves the payload tail (ripe or tag) for target and
// returns the object-payload bytes (everything after version/stream in the
// envelope).
func EncodeGetpubkey(target *address.Address) ([]byte, error) {
	switch target.Version {
	case address.Version2, address.Version3:
		return append([]byte(nil), target.Ripe[:]...), nil
	case address.Version4:
		tag := target.Tag()
		return append([]byte(nil), tag[:]...), nil
	default:
		return nil, ErrUnsupportedAddressVersion
	}
}

// DecodeGetpubkey parses a getpubkey object payload given the envelope's
// address version.
func DecodeGetpubkey(version uint64, payload []byte) (Getpubkey, error) {
	g := Getpubkey{Version: version}
	switch version {
	case address.Version2, address.Version3:
		if len(payload) < 20 {
			return Getpubkey{}, ErrTruncated
		}
		copy(g.Ripe[:], payload[:20])
	case address.Version4:
		if len(payload) < 32 {
			return Getpubkey{}, ErrTruncated
		}
		copy(g.Tag[:], payload[:32])
	default:
		return Getpubkey{}, ErrUnsupportedAddressVersion
	}
	return g, nil
}
