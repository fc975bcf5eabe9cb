/*
File Name:  invvect.go
Copyright:  2026 Bitmessage Core Contributors
Author:     Bitmessage Core Contributors
*/

package wire

import "crypto/sha512"

// InvVectSize is the length of an inventory vector hash.
const InvVectSize = 32

// InvVect computes the first 32 bytes of SHA512(SHA512(payload)), used to
// identify an object for inventory announcements without transmitting it.
func InvVect(payload []byte) (hash [InvVectSize]byte) {
	first := sha512.Sum512(payload)
	second := sha512.Sum512(first[:])
	copy(hash[:], second[:InvVectSize])
	return hash
}
