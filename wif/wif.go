/*
File Name:  wif.go
Copyright:  2026 Bitmessage Core Contributors
Author:     Bitmessage Core Contributors

Wallet import format: Base58Check over a 0x80-prefixed private key, using the
same double-SHA-256 checksum and Base58 alphabet as Bitcoin's WIF, per §4.12.
Bitmessage private keys are always treated as the uncompressed form (no 0x01
compression-flag suffix byte).
*/

package wif

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
)

// privateKeyVersion is the WIF version byte for mainnet private keys.
const privateKeyVersion = 0x80

// PrivateKeySize is the expected length of a raw secp256k1 private key.
const PrivateKeySize = 32

// Errors returned by Decode.
var (
	ErrInvalidChecksum = errors.New("wif: invalid checksum")
	ErrWrongVersion    = errors.New("wif: unexpected version byte")
	ErrWrongLength     = errors.New("wif: decoded key has wrong length")
)

// Encode renders a raw 32-byte private key in wallet import format.
func Encode(priv []byte) (string, error) {
	if len(priv) != PrivateKeySize {
		return "", fmt.Errorf("wif: %w: got %d bytes, want %d", ErrWrongLength, len(priv), PrivateKeySize)
	}
	return base58.CheckEncode(priv, privateKeyVersion), nil
}

// Decode parses a wallet-import-format string back into a raw private key.
func Decode(s string) ([]byte, error) {
	decoded, version, err := base58.CheckDecode(s)
	if err != nil {
		if err == base58.ErrChecksum {
			return nil, ErrInvalidChecksum
		}
		return nil, fmt.Errorf("wif: decode: %w", err)
	}
	if version != privateKeyVersion {
		return nil, fmt.Errorf("%w: got 0x%02x, want 0x%02x", ErrWrongVersion, version, privateKeyVersion)
	}
	if len(decoded) != PrivateKeySize {
		return nil, fmt.Errorf("wif: %w: got %d bytes, want %d", ErrWrongLength, len(decoded), PrivateKeySize)
	}
	return decoded, nil
}
