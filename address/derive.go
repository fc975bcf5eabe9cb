/*
File Name:  derive.go
Copyright:  2026 Bitmessage Core Contributors
Author:     Bitmessage Core Contributors

Key derivations the object codec needs, all computed over the address's
identity (version, stream, ripe) rather than its key pairs:

	hash                = SHA512(var_int(version) || var_int(stream) || ripe)
	pubkeyPrivateKey    = SHA512(hash)[0:32]
	tag                 = SHA512(hash)[32:64]
	broadcastPrivateKey = SHA512(hash)[0:32]   for version >= 4
	                    = hash[0:32]           for version <  4
*/

package address

import (
	"crypto/sha512"

	"github.com/bitchan/bitmessage/wire"
)

// IdentityHash computes SHA512(var_int(version) || var_int(stream) || ripe).
func IdentityHash(version, stream uint64, ripe [RipeSize]byte) [64]byte {
	var buf []byte
	buf = append(buf, wire.EncodeVarInt(version)...)
	buf = append(buf, wire.EncodeVarInt(stream)...)
	buf = append(buf, ripe[:]...)
	return sha512.Sum512(buf)
}

// PubkeyPrivateKey derives the v4-pubkey decryption key for the given identity.
func PubkeyPrivateKey(version, stream uint64, ripe [RipeSize]byte) []byte {
	hash := IdentityHash(version, stream, ripe)
	inner := sha512.Sum512(hash[:])
	return append([]byte(nil), inner[:32]...)
}

// Tag derives the 32-byte v4-pubkey/subscription tag for the given identity.
func Tag(version, stream uint64, ripe [RipeSize]byte) [32]byte {
	hash := IdentityHash(version, stream, ripe)
	inner := sha512.Sum512(hash[:])
	var tag [32]byte
	copy(tag[:], inner[32:64])
	return tag
}

// BroadcastPrivateKey derives the v4/v5-broadcast decryption key for the given identity.
func BroadcastPrivateKey(version, stream uint64, ripe [RipeSize]byte) []byte {
	hash := IdentityHash(version, stream, ripe)
	if version >= Version4 {
		inner := sha512.Sum512(hash[:])
		return append([]byte(nil), inner[:32]...)
	}
	return append([]byte(nil), hash[:32]...)
}

// BroadcastTag derives the 32-byte v5-broadcast tag (the second half of the
// double hash), prefixed outside the ciphertext for addresses v4 and above.
func BroadcastTag(version, stream uint64, ripe [RipeSize]byte) [32]byte {
	hash := IdentityHash(version, stream, ripe)
	inner := sha512.Sum512(hash[:])
	var tag [32]byte
	copy(tag[:], inner[32:64])
	return tag
}

// PubkeyPrivateKey is the method form, convenient for callers holding an *Address.
func (a *Address) PubkeyPrivateKey() []byte {
	return PubkeyPrivateKey(a.Version, a.Stream, a.Ripe)
}

// Tag is the method form, convenient for callers holding an *Address.
func (a *Address) Tag() [32]byte {
	return Tag(a.Version, a.Stream, a.Ripe)
}

// BroadcastPrivateKey is the method form, convenient for callers holding an *Address.
func (a *Address) BroadcastPrivateKey() []byte {
	return BroadcastPrivateKey(a.Version, a.Stream, a.Ripe)
}

// BroadcastTag is the method form, convenient for callers holding an *Address.
func (a *Address) BroadcastTag() [32]byte {
	return BroadcastTag(a.Version, a.Stream, a.Ripe)
}
