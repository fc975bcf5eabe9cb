/*
File Name:  facade.go
Copyright:  2026 Bitmessage Core Contributors
Author:     Bitmessage Core Contributors

Facade abstracts every cryptographic primitive the rest of the library needs:
hashing, randomness, secp256k1 key derivation/signing, and the ECIES envelope
used to encrypt object payloads. Key derivation, signing, RIPEMD-160 and
ECIES go through this interface so the concrete implementations (btcec,
x/crypto/ripemd160) stay swappable and testable; the address, pow and wire
packages call stdlib crypto/sha512 directly for their SHA-512 hashing.
*/

package bmcrypto

import (
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"errors"

	"github.com/btcsuite/btcd/btcec"
	"golang.org/x/crypto/ripemd160"
)

// PublicKeySize is the length of an uncompressed secp256k1 point (0x04 prefix + X + Y).
const PublicKeySize = 65

// PrivateKeySize is the length of a raw secp256k1 scalar.
const PrivateKeySize = 32

// ErrInvalidPublicKey is returned when a byte slice cannot be parsed as an uncompressed secp256k1 point.
var ErrInvalidPublicKey = errors.New("bmcrypto: invalid public key encoding")

// ErrInvalidPrivateKey is returned when a byte slice cannot be used as a private scalar.
var ErrInvalidPrivateKey = errors.New("bmcrypto: invalid private key")

// ErrSignatureInvalid is returned by Verify when the signature does not match.
var ErrSignatureInvalid = errors.New("bmcrypto: signature verification failed")

// Facade is the narrow surface the rest of the library is built against.
// It never exposes curve-library types directly so callers deal only in byte slices.
type Facade interface {
	// SHA1/SHA256/SHA512/RIPEMD160 are pure digest functions.
	SHA1(data []byte) [sha1.Size]byte
	SHA256(data []byte) [sha256.Size]byte
	SHA512(data []byte) [sha512.Size]byte
	RIPEMD160(data []byte) [ripemd160.Size]byte

	// RandomBytes returns n cryptographically random bytes.
	RandomBytes(n int) ([]byte, error)

	// NewPrivateKey draws a fresh 32-byte secp256k1 private scalar.
	NewPrivateKey() (priv []byte, err error)

	// PublicFromPrivate derives the 65-byte uncompressed public key for a private scalar.
	PublicFromPrivate(priv []byte) (pub []byte, err error)

	// Sign produces a DER-encoded ECDSA signature over msg using priv.
	Sign(priv []byte, msg []byte) (sig []byte, err error)

	// Verify checks a DER-encoded ECDSA signature over msg against pub.
	Verify(pub []byte, msg []byte, sig []byte) error

	// Encrypt produces an ECIES envelope: IV(16) || ephemeralPub(65) || ciphertext || HMAC-SHA256(32).
	Encrypt(pub []byte, plain []byte) (envelope []byte, err error)

	// Decrypt opens an ECIES envelope produced by Encrypt using priv.
	Decrypt(priv []byte, envelope []byte) (plain []byte, err error)
}

// Default is the package-level Facade backed by btcec/secp256k1 and stdlib crypto.
var Default Facade = btcFacade{}

// btcFacade implements Facade using github.com/btcsuite/btcd/btcec, the same
// curve library the teacher repo (PeernetOfficial/core) already depends on for
// its own peer-identity keys.
type btcFacade struct{}

func (btcFacade) SHA1(data []byte) [sha1.Size]byte     { return sha1.Sum(data) }
func (btcFacade) SHA256(data []byte) [sha256.Size]byte { return sha256.Sum256(data) }
func (btcFacade) SHA512(data []byte) [sha512.Size]byte { return sha512.Sum512(data) }

func (btcFacade) RIPEMD160(data []byte) (out [ripemd160.Size]byte) {
	h := ripemd160.New()
	h.Write(data)
	copy(out[:], h.Sum(nil))
	return out
}

func (btcFacade) RandomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (btcFacade) NewPrivateKey() ([]byte, error) {
	key, err := btcec.NewPrivateKey(btcec.S256())
	if err != nil {
		return nil, err
	}
	return padPrivate(key.D.Bytes()), nil
}

func (btcFacade) PublicFromPrivate(priv []byte) ([]byte, error) {
	if len(priv) != PrivateKeySize {
		return nil, ErrInvalidPrivateKey
	}
	_, pub := btcec.PrivKeyFromBytes(btcec.S256(), priv)
	return pub.SerializeUncompressed(), nil
}

func (btcFacade) Sign(priv []byte, msg []byte) ([]byte, error) {
	if len(priv) != PrivateKeySize {
		return nil, ErrInvalidPrivateKey
	}
	key, _ := btcec.PrivKeyFromBytes(btcec.S256(), priv)
	sig, err := key.Sign(msg)
	if err != nil {
		return nil, err
	}
	return sig.Serialize(), nil
}

func (btcFacade) Verify(pub []byte, msg []byte, sigDER []byte) error {
	pubKey, err := parsePublicKey(pub)
	if err != nil {
		return err
	}
	sig, err := btcec.ParseSignature(sigDER, btcec.S256())
	if err != nil {
		return ErrSignatureInvalid
	}
	if !sig.Verify(msg, pubKey) {
		return ErrSignatureInvalid
	}
	return nil
}

func parsePublicKey(pub []byte) (*btcec.PublicKey, error) {
	if len(pub) != PublicKeySize || pub[0] != 0x04 {
		return nil, ErrInvalidPublicKey
	}
	key, err := btcec.ParsePubKey(pub, btcec.S256())
	if err != nil {
		return nil, ErrInvalidPublicKey
	}
	return key, nil
}

// padPrivate left-pads a big.Int-derived scalar to the fixed 32-byte width.
func padPrivate(raw []byte) []byte {
	if len(raw) == PrivateKeySize {
		return raw
	}
	out := make([]byte, PrivateKeySize)
	copy(out[PrivateKeySize-len(raw):], raw)
	return out
}
