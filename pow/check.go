/*
File Name:  check.go
Copyright:  2026 Bitmessage Core Contributors
Author:     Bitmessage Core Contributors

Proof-of-work verification: trial = SHA512(SHA512(nonce_be ‖ initialHash))[0:8],
interpreted big-endian, valid iff trial <= target.
*/

package pow

import (
	"crypto/sha512"
	"encoding/binary"
)

// InitialHash computes SHA512 of the object payload with the 8-byte nonce
// field omitted. Callers hash the payload once and reuse it across trials.
func InitialHash(payloadWithoutNonce []byte) [64]byte {
	return sha512.Sum512(payloadWithoutNonce)
}

// trial computes SHA512(SHA512(nonce_be_u64 || initialHash))[0:8] as a big-endian uint64.
func trial(nonce uint64, initialHash [64]byte) uint64 {
	var buf [8 + 64]byte
	binary.BigEndian.PutUint64(buf[:8], nonce)
	copy(buf[8:], initialHash[:])

	first := sha512.Sum512(buf[:])
	second := sha512.Sum512(first[:])
	return binary.BigEndian.Uint64(second[:8])
}

// Check reports whether nonce satisfies the proof-of-work target for initialHash.
func Check(nonce, target uint64, initialHash [64]byte) bool {
	return trial(nonce, initialHash) <= target
}
