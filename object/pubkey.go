/*
File Name:  pubkey.go
Copyright:  2026 Bitmessage Core Contributors
Author:     Bitmessage Core Contributors

pubkey object, versions 2 through 4. v2 carries bare key material; v3 adds
PoW parameters and a signature; v4 wraps the v3-shaped structure in an ECIES
envelope addressed by tag, so only the intended recipient can read it.

v2 is not signed. Signed region (v3): objectHeaderWithoutNonce(8..headerLength) plus every
payload field up to, but excluding, var_int(sigLen) and the signature bytes
themselves. v4 additionally includes the 32-byte tag ahead of that region,
since the tag sits outside the ciphertext on the wire.
*/

package object

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/bitchan/bitmessage/bmcrypto"
	"github.com/bitchan/bitmessage/wire"
)

const uncompressedPointSize = 65

var (
	ErrPubkeyTruncated  = errors.New("object: pubkey payload truncated")
	ErrSignatureInvalid = errors.New("object: signature invalid")
	ErrTagNotNeeded     = errors.New("object: tag not present in needed set")
	ErrDecryptionFailed = errors.New("object: decryption failed")
)

// Pubkey is the decoded payload of a pubkey object, independent of version.
type Pubkey struct {
	Version                 uint64
	Behavior                wire.PubkeyBitfield
	SignPublicKey           []byte // 65 bytes uncompressed
	EncPublicKey            []byte // 65 bytes uncompressed
	NonceTrialsPerByte      uint64 // present for version >= 3
	PayloadLengthExtraBytes uint64 // present for version >= 3
	Signature               []byte // nil for version 2
	Tag                      [32]byte // populated for version 4
}

func encodeKeyFields(behavior wire.PubkeyBitfield, signPub, encPub []byte) []byte {
	var buf bytes.Buffer
	buf.Write(behavior[:])
	buf.Write(signPub[1:]) // drop the leading 0x04 point-form marker
	buf.Write(encPub[1:])
	return buf.Bytes()
}

func validatePubkeyMaterial(signPub, encPub []byte) error {
	if len(signPub) != uncompressedPointSize || len(encPub) != uncompressedPointSize {
		return fmt.Errorf("object: public keys must be %d bytes uncompressed", uncompressedPointSize)
	}
	return nil
}

// EncodeV2 builds a v2 pubkey payload: behavior(4) ‖ signPub[1:] ‖ encPub[1:].
func EncodeV2(behavior wire.PubkeyBitfield, signPub, encPub []byte) ([]byte, error) {
	if err := validatePubkeyMaterial(signPub, encPub); err != nil {
		return nil, err
	}
	return encodeKeyFields(behavior, signPub, encPub), nil
}

// DecodeV2 parses a v2 pubkey payload.
func DecodeV2(payload []byte) (Pubkey, error) {
	if len(payload) < 4+64+64 {
		return Pubkey{}, ErrPubkeyTruncated
	}
	p := Pubkey{Version: 2}
	copy(p.Behavior[:], payload[:4])
	p.SignPublicKey = append([]byte{0x04}, payload[4:4+64]...)
	p.EncPublicKey = append([]byte{0x04}, payload[4+64:4+128]...)
	return p, nil
}

// EncodeV3 builds a v3 pubkey payload and signs it. headerPrefix is the
// object envelope bytes from expiresTime through stream, i.e. the result of
// EncodeWithoutNonce before the object-specific payload is appended.
func EncodeV3(headerPrefix []byte, behavior wire.PubkeyBitfield, signPub, encPub []byte, trials, extra uint64, signPriv []byte, facade bmcrypto.Facade) ([]byte, error) {
	if err := validatePubkeyMaterial(signPub, encPub); err != nil {
		return nil, err
	}

	unsigned := encodeKeyFields(behavior, signPub, encPub)
	unsigned = append(unsigned, wire.EncodeVarInt(trials)...)
	unsigned = append(unsigned, wire.EncodeVarInt(extra)...)

	toSign := append(append([]byte(nil), headerPrefix...), unsigned...)
	sig, err := facade.Sign(signPriv, toSign)
	if err != nil {
		return nil, fmt.Errorf("object: sign pubkey: %w", err)
	}

	out := append([]byte(nil), unsigned...)
	out = append(out, wire.EncodeVarInt(uint64(len(sig)))...)
	out = append(out, sig...)
	return out, nil
}

// decodeV3Fields parses the common v3-shaped structure (key fields, PoW
// params, signature) out of payload and verifies the signature against
// signedPrefix ‖ unsignedPortion using the embedded signing public key.
func decodeV3Fields(payload []byte, signedPrefix []byte, facade bmcrypto.Facade) (Pubkey, error) {
	if len(payload) < 4+128 {
		return Pubkey{}, ErrPubkeyTruncated
	}

	var p Pubkey
	copy(p.Behavior[:], payload[:4])
	p.SignPublicKey = append([]byte{0x04}, payload[4:4+64]...)
	p.EncPublicKey = append([]byte{0x04}, payload[4+64:4+128]...)

	rest := payload[4+128:]
	trials, err := wire.DecodeVarInt(rest)
	if err != nil {
		return Pubkey{}, fmt.Errorf("object: decode trials: %w", err)
	}
	trialsVal, err := trials.Value()
	if err != nil {
		return Pubkey{}, fmt.Errorf("object: decode trials: %w", err)
	}
	rest = rest[trials.Size():]

	extra, err := wire.DecodeVarInt(rest)
	if err != nil {
		return Pubkey{}, fmt.Errorf("object: decode extra: %w", err)
	}
	extraVal, err := extra.Value()
	if err != nil {
		return Pubkey{}, fmt.Errorf("object: decode extra: %w", err)
	}
	rest = rest[extra.Size():]

	unsignedLen := len(payload) - len(rest)
	unsigned := payload[:unsignedLen]

	sigLen, err := wire.DecodeVarInt(rest)
	if err != nil {
		return Pubkey{}, fmt.Errorf("object: decode sig length: %w", err)
	}
	sigLenVal, err := sigLen.Value()
	if err != nil {
		return Pubkey{}, fmt.Errorf("object: decode sig length: %w", err)
	}
	rest = rest[sigLen.Size():]
	if uint64(len(rest)) < sigLenVal {
		return Pubkey{}, ErrPubkeyTruncated
	}
	sig := rest[:sigLenVal]

	toVerify := append(append([]byte(nil), signedPrefix...), unsigned...)
	if err := facade.Verify(p.SignPublicKey, toVerify, sig); err != nil {
		return Pubkey{}, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}

	p.NonceTrialsPerByte = trialsVal
	p.PayloadLengthExtraBytes = extraVal
	p.Signature = append([]byte(nil), sig...)
	return p, nil
}

// DecodeV3 parses and verifies a v3 pubkey payload.
func DecodeV3(headerPrefix []byte, payload []byte, facade bmcrypto.Facade) (Pubkey, error) {
	p, err := decodeV3Fields(payload, headerPrefix, facade)
	if err != nil {
		return Pubkey{}, err
	}
	p.Version = 3
	return p, nil
}

// EncodeV4 builds the ECIES-wrapped v4 pubkey payload: tag(32) ‖
// ciphertext(v3-shaped plaintext). recipientPublicKey is the public
// counterpart of the recipient's derived pubkeyPrivateKey.
func EncodeV4(headerPrefix []byte, tag [32]byte, recipientPublicKey []byte, behavior wire.PubkeyBitfield, signPub, encPub []byte, trials, extra uint64, signPriv []byte, facade bmcrypto.Facade) ([]byte, error) {
	if err := validatePubkeyMaterial(signPub, encPub); err != nil {
		return nil, err
	}

	unsigned := encodeKeyFields(behavior, signPub, encPub)
	unsigned = append(unsigned, wire.EncodeVarInt(trials)...)
	unsigned = append(unsigned, wire.EncodeVarInt(extra)...)

	toSign := append(append([]byte(nil), headerPrefix...), tag[:]...)
	toSign = append(toSign, unsigned...)
	sig, err := facade.Sign(signPriv, toSign)
	if err != nil {
		return nil, fmt.Errorf("object: sign pubkey: %w", err)
	}

	plain := append([]byte(nil), unsigned...)
	plain = append(plain, wire.EncodeVarInt(uint64(len(sig)))...)
	plain = append(plain, sig...)

	ciphertext, err := facade.Encrypt(recipientPublicKey, plain)
	if err != nil {
		return nil, fmt.Errorf("object: encrypt pubkey: %w", err)
	}

	out := append([]byte(nil), tag[:]...)
	return append(out, ciphertext...), nil
}

// DecodeV4 parses a v4 pubkey. If the embedded tag is not present in needed,
// the object is not an error — it is simply unusable by this decoder and the
// caller should discard it (ErrTagNotNeeded signals exactly that).
func DecodeV4(headerPrefix []byte, payload []byte, needed NeededPubkeys, facade bmcrypto.Facade) (Pubkey, error) {
	if len(payload) < 32 {
		return Pubkey{}, ErrPubkeyTruncated
	}
	var tag [32]byte
	copy(tag[:], payload[:32])

	priv, ok := needed[tag]
	if !ok {
		return Pubkey{}, ErrTagNotNeeded
	}

	plain, err := facade.Decrypt(priv, payload[32:])
	if err != nil {
		return Pubkey{}, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	signedPrefix := append(append([]byte(nil), headerPrefix...), tag[:]...)
	p, err := decodeV3Fields(plain, signedPrefix, facade)
	if err != nil {
		return Pubkey{}, err
	}
	p.Version = 4
	p.Tag = tag
	return p, nil
}
