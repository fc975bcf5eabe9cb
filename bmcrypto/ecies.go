/*
File Name:  ecies.go
Copyright:  2026 Bitmessage Core Contributors
Author:     Bitmessage Core Contributors

ECIES envelope used by the object codec: IV(16) || ephemeralPub(65) ||
ciphertext || HMAC-SHA256(32). The shared secret is derived via ECDH on
secp256k1 and expanded with a single SHA-512 call, matching the scheme
PyBitmessage/bitmessage.js use: Ke = SHA512(sharedX)[0:32] (AES-256 key),
Km = SHA512(sharedX)[32:64] (HMAC key).
*/

package bmcrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"io"
	"math/big"

	"github.com/btcsuite/btcd/btcec"
)

var cryptoRandReader io.Reader = rand.Reader

const (
	ivSize  = 16
	macSize = 32
)

// ErrDecryptionFailed covers any MAC mismatch or malformed envelope.
var ErrDecryptionFailed = errors.New("bmcrypto: decryption failed")

func (btcFacade) Encrypt(pub []byte, plain []byte) ([]byte, error) {
	recipient, err := parsePublicKey(pub)
	if err != nil {
		return nil, err
	}

	ephemeral, err := btcec.NewPrivateKey(btcec.S256())
	if err != nil {
		return nil, err
	}
	ephemeralPub := ((*btcec.PublicKey)(&ephemeral.PublicKey)).SerializeUncompressed()

	ke, km := deriveKeys(sharedSecret(ephemeral, recipient))

	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(cryptoRandReader, iv); err != nil {
		return nil, err
	}

	ciphertext, err := aesCBCEncrypt(ke, iv, plain)
	if err != nil {
		return nil, err
	}

	envelope := make([]byte, 0, ivSize+PublicKeySize+len(ciphertext)+macSize)
	envelope = append(envelope, iv...)
	envelope = append(envelope, ephemeralPub...)
	envelope = append(envelope, ciphertext...)

	mac := hmac.New(sha256.New, km)
	mac.Write(envelope)
	envelope = mac.Sum(envelope)

	return envelope, nil
}

func (btcFacade) Decrypt(priv []byte, envelope []byte) ([]byte, error) {
	if len(priv) != PrivateKeySize {
		return nil, ErrInvalidPrivateKey
	}
	if len(envelope) < ivSize+PublicKeySize+macSize {
		return nil, ErrDecryptionFailed
	}

	iv := envelope[:ivSize]
	ephemeralPub := envelope[ivSize : ivSize+PublicKeySize]
	ciphertext := envelope[ivSize+PublicKeySize : len(envelope)-macSize]
	tag := envelope[len(envelope)-macSize:]

	ephemeral, err := parsePublicKey(ephemeralPub)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	key, _ := btcec.PrivKeyFromBytes(btcec.S256(), priv)
	ke, km := deriveKeys(sharedSecretFromPriv(key, ephemeral))

	mac := hmac.New(sha256.New, km)
	mac.Write(envelope[:len(envelope)-macSize])
	if !hmac.Equal(mac.Sum(nil), tag) {
		return nil, ErrDecryptionFailed
	}

	return aesCBCDecrypt(ke, iv, ciphertext)
}

// sharedSecret computes the ECDH X coordinate between an ephemeral private key and a recipient public key.
func sharedSecret(ephemeral *btcec.PrivateKey, recipient *btcec.PublicKey) []byte {
	x, _ := recipient.Curve.ScalarMult(recipient.X, recipient.Y, ephemeral.D.Bytes())
	return fillBytes(x, PrivateKeySize)
}

func sharedSecretFromPriv(priv *btcec.PrivateKey, ephemeralPub *btcec.PublicKey) []byte {
	x, _ := ephemeralPub.Curve.ScalarMult(ephemeralPub.X, ephemeralPub.Y, priv.D.Bytes())
	return fillBytes(x, PrivateKeySize)
}

// deriveKeys expands the raw ECDH secret into (AES key, HMAC key) via a single SHA-512 call.
func deriveKeys(secret []byte) (ke, km []byte) {
	full := sha512.Sum512(secret)
	ke = append([]byte(nil), full[:32]...)
	km = append([]byte(nil), full[32:]...)
	return ke, km
}

// fillBytes renders a big.Int into a fixed-width big-endian buffer.
func fillBytes(x *big.Int, size int) []byte {
	out := make([]byte, size)
	b := x.Bytes()
	copy(out[size-len(b):], b)
	return out
}

func aesCBCEncrypt(key, iv, plain []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	padded := pkcs7Pad(plain, aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
	return out, nil
}

func aesCBCDecrypt(key, iv, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, ErrDecryptionFailed
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ciphertext)
	return pkcs7Unpad(out)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrDecryptionFailed
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > len(data) || padLen > aes.BlockSize {
		return nil, ErrDecryptionFailed
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, ErrDecryptionFailed
		}
	}
	return data[:len(data)-padLen], nil
}
