/*
File Name:  generate.go
Copyright:  2026 Bitmessage Core Contributors
Author:     Bitmessage Core Contributors

Address generation: from randomness, and deterministically from a passphrase.
*/

package address

import (
	"crypto/sha512"

	"github.com/bitchan/bitmessage/bmcrypto"
	"github.com/bitchan/bitmessage/wire"
)

// shortLen reports the length the ripe would take once trimmed for version.
func shortLen(version uint64, ripe [RipeSize]byte) int {
	r, err := shortRipe(version, ripe)
	if err != nil {
		return RipeSize
	}
	return len(r)
}

// minRipeLen is the version's lower bound on short-ripe length, per §4.3's table.
func minRipeLen(version uint64) int {
	switch version {
	case Version1:
		return 20
	case Version2, Version3:
		return 18
	case Version4:
		return 4
	default:
		return 20
	}
}

// FromRandom draws a fresh key pair, retrying the encryption key until the
// resulting ripe is no longer than ripeLength (default 19) and still respects
// the version's lower bound.
func FromRandom(ripeLength int, version, stream uint64) (*Address, error) {
	if ripeLength <= 0 {
		ripeLength = 19
	}

	signPriv, err := bmcrypto.Default.NewPrivateKey()
	if err != nil {
		return nil, err
	}
	signPub, err := bmcrypto.Default.PublicFromPrivate(signPriv)
	if err != nil {
		return nil, err
	}

	lowerBound := minRipeLen(version)

	for {
		encPriv, err := bmcrypto.Default.NewPrivateKey()
		if err != nil {
			return nil, err
		}
		encPub, err := bmcrypto.Default.PublicFromPrivate(encPriv)
		if err != nil {
			return nil, err
		}

		ripe := ComputeRipe(signPub, encPub)
		n := shortLen(version, ripe)
		if n <= ripeLength && n >= lowerBound {
			addr := &Address{
				Version: version, Stream: stream,
				SignPrivateKey: signPriv, SignPublicKey: signPub,
				EncPrivateKey: encPriv, EncPublicKey: encPub,
				Ripe: ripe,
			}
			return addr, nil
		}
	}
}

// FromPassphrase deterministically derives sign/enc private keys from a
// passphrase. The same passphrase and ripeLength/version/stream always yield
// the same address.
func FromPassphrase(passphrase string, ripeLength int, version, stream uint64) (*Address, error) {
	if ripeLength <= 0 {
		ripeLength = 19
	}

	lowerBound := minRipeLen(version)
	passBytes := []byte(passphrase)

	var signNonce, encNonce uint64 = 0, 1
	for {
		signPriv := derivePassphraseKey(passBytes, signNonce)
		encPriv := derivePassphraseKey(passBytes, encNonce)

		signPub, err := bmcrypto.Default.PublicFromPrivate(signPriv)
		if err != nil {
			return nil, err
		}
		encPub, err := bmcrypto.Default.PublicFromPrivate(encPriv)
		if err != nil {
			return nil, err
		}

		ripe := ComputeRipe(signPub, encPub)
		n := shortLen(version, ripe)
		if n <= ripeLength && n >= lowerBound {
			return &Address{
				Version: version, Stream: stream,
				SignPrivateKey: signPriv, SignPublicKey: signPub,
				EncPrivateKey: encPriv, EncPublicKey: encPub,
				Ripe: ripe,
			}, nil
		}

		signNonce += 2
		encNonce += 2
	}
}

// derivePassphraseKey computes SHA512(passphrase || var_int(nonce))[0:32].
func derivePassphraseKey(passphrase []byte, nonce uint64) []byte {
	buf := append(append([]byte(nil), passphrase...), wire.EncodeVarInt(nonce)...)
	h := sha512.Sum512(buf)
	return append([]byte(nil), h[:32]...)
}
