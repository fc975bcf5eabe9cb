/*
File Name:  address.go
Copyright:  2026 Bitmessage Core Contributors
Author:     Bitmessage Core Contributors

Bitmessage address encoding: version/stream/RIPEMD layout, double-SHA-512
checksum, Base58. Grounded directly on the reference ishbir/bmgo address codec
(the retrieval pack's only real Go Bitmessage implementation), adapted to a
value-typed, no-mutation-after-construction record per the module's design
notes, and using github.com/btcsuite/btcutil/base58 (same ecosystem family as
the btcd curve library) instead of hand-rolling big.Int base58.
*/

package address

import (
	"bytes"
	"crypto/sha512"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/base58"

	"github.com/bitchan/bitmessage/bmcrypto"
	"github.com/bitchan/bitmessage/wire"
)

// RipeSize is the fixed, padded width of an address's ripe digest.
const RipeSize = 20

// Supported address versions.
const (
	Version1 = 1
	Version2 = 2
	Version3 = 3
	Version4 = 4
)

// Errors returned by Encode/Decode/fromRandom/fromPassphrase.
var (
	ErrUnsupportedVersion = errors.New("address: unsupported version")
	ErrRipeLength         = errors.New("address: ripe length invalid for version")
	ErrChecksum           = errors.New("address: checksum mismatch")
	ErrNotBase58          = errors.New("address: not a valid base58 string")
	ErrV4LeadingZero      = errors.New("address: version 4 ripe has a leading zero byte")
	ErrMissingPrefix      = errors.New("address: missing BM- prefix") // not returned: Decode accepts input without the prefix
)

// Address is an immutable Bitmessage identity: version, stream, behavior, the
// two secp256k1 key pairs, and their derived ripe digest. Once constructed it
// is never mutated; public keys and the ripe are derived once at construction
// and cached on the value, per design note 9 ("no mutation after creation").
type Address struct {
	Version  uint64
	Stream   uint64
	Behavior wire.PubkeyBitfield

	SignPrivateKey []byte // 32 bytes
	SignPublicKey  []byte // 65 bytes, uncompressed
	EncPrivateKey  []byte // 32 bytes
	EncPublicKey   []byte // 65 bytes, uncompressed

	Ripe [RipeSize]byte
}

// New builds an Address value from already-derived key material, computing the ripe digest.
func New(version, stream uint64, behavior wire.PubkeyBitfield, signPriv, encPriv []byte) (*Address, error) {
	signPub, err := bmcrypto.Default.PublicFromPrivate(signPriv)
	if err != nil {
		return nil, fmt.Errorf("address: derive sign public key: %w", err)
	}
	encPub, err := bmcrypto.Default.PublicFromPrivate(encPriv)
	if err != nil {
		return nil, fmt.Errorf("address: derive enc public key: %w", err)
	}

	addr := &Address{
		Version:        version,
		Stream:         stream,
		Behavior:       behavior,
		SignPrivateKey: signPriv,
		SignPublicKey:  signPub,
		EncPrivateKey:  encPriv,
		EncPublicKey:   encPub,
	}
	addr.Ripe = ComputeRipe(signPub, encPub)
	return addr, nil
}

// ComputeRipe computes RIPEMD160(SHA512(signPub || encPub)), padded to 20 bytes.
func ComputeRipe(signPub, encPub []byte) (ripe [RipeSize]byte) {
	h := sha512.Sum512(append(append([]byte(nil), signPub...), encPub...))
	digest := bmcrypto.Default.RIPEMD160(h[:])
	copy(ripe[RipeSize-len(digest):], digest[:])
	return ripe
}

// shortRipe strips the leading zero bytes the wire form omits, per version-specific rules.
func shortRipe(version uint64, ripe [RipeSize]byte) ([]byte, error) {
	switch version {
	case Version2, Version3:
		r := ripe[:]
		if r[0] == 0x00 {
			r = r[1:]
			if len(r) > 0 && r[0] == 0x00 {
				r = r[1:]
			}
		}
		return r, nil
	case Version4:
		return bytes.TrimLeft(ripe[:], "\x00"), nil
	default:
		return nil, ErrUnsupportedVersion
	}
}

// validateRipeLength enforces the version-specific short-ripe length table from §3/§4.3.
func validateRipeLength(version uint64, ripe []byte) error {
	switch version {
	case Version1:
		if len(ripe) != 20 {
			return ErrRipeLength
		}
	case Version2, Version3:
		if len(ripe) < 18 || len(ripe) > 20 {
			return ErrRipeLength
		}
	case Version4:
		if len(ripe) < 4 || len(ripe) > 20 {
			return ErrRipeLength
		}
	default:
		return ErrUnsupportedVersion
	}
	return nil
}

// Encode renders the address as its canonical "BM-..." string.
func (a *Address) Encode() (string, error) {
	ripe, err := shortRipe(a.Version, a.Ripe)
	if err != nil {
		return "", err
	}
	if err := validateRipeLength(a.Version, ripe); err != nil {
		return "", err
	}

	var data bytes.Buffer
	data.Write(wire.EncodeVarInt(a.Version))
	data.Write(wire.EncodeVarInt(a.Stream))
	data.Write(ripe)

	sum := checksum(data.Bytes())

	full := append(data.Bytes(), sum...)
	return "BM-" + base58.Encode(full), nil
}

// checksum computes SHA512(SHA512(data))[0:4].
func checksum(data []byte) []byte {
	first := sha512.Sum512(data)
	second := sha512.Sum512(first[:])
	return second[:4]
}

// Decode parses a "BM-..." address string. Leading/trailing whitespace and an
// optional "BM-" prefix are tolerated; the ripe is always re-padded to 20 bytes.
func Decode(s string) (*Address, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "BM-")

	raw := base58.Decode(s)
	if len(raw) == 0 && s != "" {
		return nil, ErrNotBase58
	}
	if len(raw) < 4 {
		return nil, ErrNotBase58
	}

	body := raw[:len(raw)-4]
	sum := raw[len(raw)-4:]
	if !bytes.Equal(checksum(body), sum) {
		return nil, ErrChecksum
	}

	version, err := wire.DecodeVarInt(body)
	if err != nil {
		return nil, fmt.Errorf("address: decode version: %w", err)
	}
	versionVal, err := version.Value()
	if err != nil {
		return nil, fmt.Errorf("address: decode version: %w", err)
	}
	body = body[version.Size():]

	stream, err := wire.DecodeVarInt(body)
	if err != nil {
		return nil, fmt.Errorf("address: decode stream: %w", err)
	}
	streamVal, err := stream.Value()
	if err != nil {
		return nil, fmt.Errorf("address: decode stream: %w", err)
	}
	ripe := body[stream.Size():]

	if err := validateRipeLength(versionVal, ripe); err != nil {
		return nil, err
	}
	if versionVal == Version4 && len(ripe) > 0 && ripe[0] == 0x00 {
		return nil, ErrV4LeadingZero
	}

	addr := &Address{Version: versionVal, Stream: streamVal}
	copy(addr.Ripe[RipeSize-len(ripe):], ripe)
	return addr, nil
}
