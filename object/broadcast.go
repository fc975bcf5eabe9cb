/*
File Name:  broadcast.go
Copyright:  2026 Bitmessage Core Contributors
Author:     Bitmessage Core Contributors

broadcast object, versions 4 and 5. Both are ECIES-encrypted to a key derived
from the addressee's identity rather than a key pair the sender chose — every
subscriber to that address can decrypt. v5 (addresses v4+) additionally
carries the addressee's tag ahead of the ciphertext so subscribers can filter
candidates without attempting decryption.

Signed and structured like msg, minus the destination ripe and ack fields.
*/

package object

import (
	"errors"
	"fmt"

	"github.com/bitchan/bitmessage/bmcrypto"
	"github.com/bitchan/bitmessage/wire"
)

// ErrBroadcastTruncated is returned when a broadcast payload is too short to
// contain its declared fields.
var ErrBroadcastTruncated = errors.New("object: broadcast payload truncated")

// Broadcast is the decoded plaintext of a broadcast object.
type Broadcast struct {
	SenderVersion           uint64
	SenderStream            uint64
	Behavior                wire.PubkeyBitfield
	SignPublicKey           []byte
	EncPublicKey            []byte
	NonceTrialsPerByte      uint64
	PayloadLengthExtraBytes uint64
	Encoding                Encoding
	Message                 []byte
	Signature               []byte
	Tag                     [32]byte // populated for v5
}

func encodeBroadcastPlaintext(b Broadcast) []byte {
	var buf []byte
	buf = append(buf, wire.EncodeVarInt(b.SenderVersion)...)
	buf = append(buf, wire.EncodeVarInt(b.SenderStream)...)
	buf = append(buf, encodeKeyFields(b.Behavior, b.SignPublicKey, b.EncPublicKey)...)
	if b.SenderVersion >= 3 {
		buf = append(buf, wire.EncodeVarInt(b.NonceTrialsPerByte)...)
		buf = append(buf, wire.EncodeVarInt(b.PayloadLengthExtraBytes)...)
	}
	buf = append(buf, wire.EncodeVarInt(uint64(b.Encoding))...)
	buf = append(buf, wire.EncodeVarInt(uint64(len(b.Message)))...)
	buf = append(buf, b.Message...)
	return buf
}

func signAndSeal(headerPrefix, unsigned, signPriv, encKey []byte, facade bmcrypto.Facade) ([]byte, error) {
	toSign := append(append([]byte(nil), headerPrefix...), unsigned...)
	sig, err := facade.Sign(signPriv, toSign)
	if err != nil {
		return nil, fmt.Errorf("object: sign broadcast: %w", err)
	}

	plain := append(append([]byte(nil), unsigned...), wire.EncodeVarInt(uint64(len(sig)))...)
	plain = append(plain, sig...)

	ciphertext, err := facade.Encrypt(encKey, plain)
	if err != nil {
		return nil, fmt.Errorf("object: encrypt broadcast: %w", err)
	}
	return ciphertext, nil
}

// EncodeBroadcastV4 builds a v4 broadcast payload (for addressee versions 2/3):
// plain ciphertext, no tag prefix. encPublicKey is the public counterpart of
// the addressee's broadcastPrivateKey.
func EncodeBroadcastV4(headerPrefix []byte, b Broadcast, encPublicKey, signPriv []byte, facade bmcrypto.Facade) ([]byte, error) {
	if err := validatePubkeyMaterial(b.SignPublicKey, b.EncPublicKey); err != nil {
		return nil, err
	}
	unsigned := encodeBroadcastPlaintext(b)
	return signAndSeal(headerPrefix, unsigned, signPriv, encPublicKey, facade)
}

// EncodeBroadcastV5 builds a v5 broadcast payload (for addressee version 4+):
// tag(32) ‖ ciphertext.
func EncodeBroadcastV5(headerPrefix []byte, tag [32]byte, b Broadcast, encPublicKey, signPriv []byte, facade bmcrypto.Facade) ([]byte, error) {
	if err := validatePubkeyMaterial(b.SignPublicKey, b.EncPublicKey); err != nil {
		return nil, err
	}
	unsigned := encodeBroadcastPlaintext(b)
	ciphertext, err := signAndSeal(headerPrefix, unsigned, signPriv, encPublicKey, facade)
	if err != nil {
		return nil, err
	}
	out := append([]byte(nil), tag[:]...)
	return append(out, ciphertext...), nil
}

func decodeBroadcastPlaintext(headerPrefix, plain []byte, facade bmcrypto.Facade) (Broadcast, error) {
	var b Broadcast
	rest := plain

	senderVersion, err := wire.DecodeVarInt(rest)
	if err != nil {
		return Broadcast{}, fmt.Errorf("object: decode sender version: %w", err)
	}
	b.SenderVersion, err = senderVersion.Value()
	if err != nil {
		return Broadcast{}, fmt.Errorf("object: decode sender version: %w", err)
	}
	rest = rest[senderVersion.Size():]

	senderStream, err := wire.DecodeVarInt(rest)
	if err != nil {
		return Broadcast{}, fmt.Errorf("object: decode sender stream: %w", err)
	}
	b.SenderStream, err = senderStream.Value()
	if err != nil {
		return Broadcast{}, fmt.Errorf("object: decode sender stream: %w", err)
	}
	rest = rest[senderStream.Size():]

	if len(rest) < 4+128 {
		return Broadcast{}, ErrBroadcastTruncated
	}
	copy(b.Behavior[:], rest[:4])
	b.SignPublicKey = append([]byte{0x04}, rest[4:4+64]...)
	b.EncPublicKey = append([]byte{0x04}, rest[4+64:4+128]...)
	rest = rest[4+128:]

	if b.SenderVersion >= 3 {
		trials, err := wire.DecodeVarInt(rest)
		if err != nil {
			return Broadcast{}, fmt.Errorf("object: decode trials: %w", err)
		}
		b.NonceTrialsPerByte, err = trials.Value()
		if err != nil {
			return Broadcast{}, fmt.Errorf("object: decode trials: %w", err)
		}
		rest = rest[trials.Size():]

		extra, err := wire.DecodeVarInt(rest)
		if err != nil {
			return Broadcast{}, fmt.Errorf("object: decode extra: %w", err)
		}
		b.PayloadLengthExtraBytes, err = extra.Value()
		if err != nil {
			return Broadcast{}, fmt.Errorf("object: decode extra: %w", err)
		}
		rest = rest[extra.Size():]
	}

	encoding, err := wire.DecodeVarInt(rest)
	if err != nil {
		return Broadcast{}, fmt.Errorf("object: decode encoding: %w", err)
	}
	encodingVal, err := encoding.Value()
	if err != nil {
		return Broadcast{}, fmt.Errorf("object: decode encoding: %w", err)
	}
	b.Encoding = Encoding(encodingVal)
	rest = rest[encoding.Size():]

	msgLen, err := wire.DecodeVarInt(rest)
	if err != nil {
		return Broadcast{}, fmt.Errorf("object: decode message length: %w", err)
	}
	msgLenVal, err := msgLen.Value()
	if err != nil {
		return Broadcast{}, fmt.Errorf("object: decode message length: %w", err)
	}
	rest = rest[msgLen.Size():]
	if uint64(len(rest)) < msgLenVal {
		return Broadcast{}, ErrBroadcastTruncated
	}
	b.Message = append([]byte(nil), rest[:msgLenVal]...)
	rest = rest[msgLenVal:]

	unsignedLen := len(plain) - len(rest)
	unsigned := plain[:unsignedLen]

	sigLen, err := wire.DecodeVarInt(rest)
	if err != nil {
		return Broadcast{}, fmt.Errorf("object: decode sig length: %w", err)
	}
	sigLenVal, err := sigLen.Value()
	if err != nil {
		return Broadcast{}, fmt.Errorf("object: decode sig length: %w", err)
	}
	rest = rest[sigLen.Size():]
	if uint64(len(rest)) < sigLenVal {
		return Broadcast{}, ErrBroadcastTruncated
	}
	sig := rest[:sigLenVal]

	toVerify := append(append([]byte(nil), headerPrefix...), unsigned...)
	if err := facade.Verify(b.SignPublicKey, toVerify, sig); err != nil {
		return Broadcast{}, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}
	b.Signature = append([]byte(nil), sig...)

	return b, nil
}

// DecodeBroadcastV4 decrypts and parses a v4 broadcast using the single
// private key that matches this subscription (there is no tag to filter by).
func DecodeBroadcastV4(headerPrefix, ciphertext, privateKey []byte, facade bmcrypto.Facade) (Broadcast, error) {
	plain, err := facade.Decrypt(privateKey, ciphertext)
	if err != nil {
		return Broadcast{}, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	return decodeBroadcastPlaintext(headerPrefix, plain, facade)
}

// DecodeBroadcastV5 looks up the embedded tag in subscriptions and, if
// present, decrypts and parses the broadcast. A tag miss is not an error —
// the caller should discard the object.
func DecodeBroadcastV5(headerPrefix, payload []byte, subscriptions Subscriptions, facade bmcrypto.Facade) (Broadcast, error) {
	if len(payload) < 32 {
		return Broadcast{}, ErrBroadcastTruncated
	}
	var tag [32]byte
	copy(tag[:], payload[:32])

	priv, ok := subscriptions[tag]
	if !ok {
		return Broadcast{}, ErrTagNotNeeded
	}

	plain, err := facade.Decrypt(priv, payload[32:])
	if err != nil {
		return Broadcast{}, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	b, err := decodeBroadcastPlaintext(headerPrefix, plain, facade)
	if err != nil {
		return Broadcast{}, err
	}
	b.Tag = tag
	return b, nil
}
