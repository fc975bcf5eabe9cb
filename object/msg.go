/*
File Name:  msg.go
Copyright:  2026 Bitmessage Core Contributors
Author:     Bitmessage Core Contributors

msg object: a private message, ECIES-encrypted to the recipient's encryption
public key. The plaintext carries the sender's identity so the recipient can
reply without a prior address exchange.
*/

package object

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bitchan/bitmessage/bmcrypto"
	"github.com/bitchan/bitmessage/wire"
)

// Encoding identifies how Message bytes are interpreted.
type Encoding uint64

// Defined encodings.
const (
	EncodingIgnore  Encoding = 0
	EncodingTrivial Encoding = 1
	EncodingSimple  Encoding = 2
)

// Errors specific to msg decoding.
var (
	ErrMsgTruncated        = errors.New("object: msg payload truncated")
	ErrDestinationMismatch = errors.New("object: decrypted msg ripe does not match identity")
	ErrNoMatchingIdentity  = errors.New("object: failed to decrypt with given identities")
)

// Msg is the decoded plaintext of a msg object.
type Msg struct {
	SenderVersion           uint64
	SenderStream            uint64
	Behavior                wire.PubkeyBitfield
	SignPublicKey           []byte
	EncPublicKey            []byte
	NonceTrialsPerByte      uint64 // present for SenderVersion >= 3
	PayloadLengthExtraBytes uint64
	DestinationRipe         [20]byte
	Encoding                Encoding
	Message                 []byte
	Ack                     []byte
	Signature               []byte
}

// Subject returns the SIMPLE-encoding subject, splitting on the literal
// "Subject:"..."\nBody:" markers. If the markers are absent the whole message
// is treated as body and the subject is empty.
func (m Msg) Subject() string {
	subject, _ := splitSimple(m.Message)
	return subject
}

// Body returns the SIMPLE-encoding body, or the whole message for TRIVIAL.
func (m Msg) Body() string {
	switch m.Encoding {
	case EncodingSimple:
		_, body := splitSimple(m.Message)
		return body
	default:
		return string(m.Message)
	}
}

func splitSimple(message []byte) (subject, body string) {
	const subjectPrefix = "Subject:"
	const bodyMarker = "\nBody:"

	s := string(message)
	if !strings.HasPrefix(s, subjectPrefix) {
		return "", s
	}
	rest := s[len(subjectPrefix):]
	idx := strings.Index(rest, bodyMarker)
	if idx < 0 {
		return "", s
	}
	return rest[:idx], rest[idx+len(bodyMarker):]
}

// EncodeSimple formats a SIMPLE-encoding message body from subject and body.
func EncodeSimple(subject, body string) []byte {
	return []byte("Subject:" + subject + "\nBody:" + body)
}

func encodeMsgPlaintext(m Msg) []byte {
	var buf []byte
	buf = append(buf, wire.EncodeVarInt(m.SenderVersion)...)
	buf = append(buf, wire.EncodeVarInt(m.SenderStream)...)
	buf = append(buf, encodeKeyFields(m.Behavior, m.SignPublicKey, m.EncPublicKey)...)
	if m.SenderVersion >= 3 {
		buf = append(buf, wire.EncodeVarInt(m.NonceTrialsPerByte)...)
		buf = append(buf, wire.EncodeVarInt(m.PayloadLengthExtraBytes)...)
	}
	buf = append(buf, m.DestinationRipe[:]...)
	buf = append(buf, wire.EncodeVarInt(uint64(m.Encoding))...)
	buf = append(buf, wire.EncodeVarInt(uint64(len(m.Message)))...)
	buf = append(buf, m.Message...)
	buf = append(buf, wire.EncodeVarInt(uint64(len(m.Ack)))...)
	buf = append(buf, m.Ack...)
	return buf
}

// EncodeMsg builds the ECIES-encrypted msg payload. headerPrefix is the
// object envelope bytes from expiresTime through stream. recipientEncPub is
// the recipient's 65-byte encryption public key.
func EncodeMsg(headerPrefix []byte, m Msg, recipientEncPub, signPriv []byte, facade bmcrypto.Facade) ([]byte, error) {
	if err := validatePubkeyMaterial(m.SignPublicKey, m.EncPublicKey); err != nil {
		return nil, err
	}

	unsigned := encodeMsgPlaintext(m)

	toSign := append(append([]byte(nil), headerPrefix...), unsigned...)
	sig, err := facade.Sign(signPriv, toSign)
	if err != nil {
		return nil, fmt.Errorf("object: sign msg: %w", err)
	}

	plain := append(append([]byte(nil), unsigned...), wire.EncodeVarInt(uint64(len(sig)))...)
	plain = append(plain, sig...)

	ciphertext, err := facade.Encrypt(recipientEncPub, plain)
	if err != nil {
		return nil, fmt.Errorf("object: encrypt msg: %w", err)
	}
	return ciphertext, nil
}

func decodeMsgPlaintext(headerPrefix, plain []byte, facade bmcrypto.Facade) (Msg, error) {
	var m Msg
	rest := plain

	senderVersion, err := wire.DecodeVarInt(rest)
	if err != nil {
		return Msg{}, fmt.Errorf("object: decode sender version: %w", err)
	}
	m.SenderVersion, err = senderVersion.Value()
	if err != nil {
		return Msg{}, fmt.Errorf("object: decode sender version: %w", err)
	}
	rest = rest[senderVersion.Size():]

	senderStream, err := wire.DecodeVarInt(rest)
	if err != nil {
		return Msg{}, fmt.Errorf("object: decode sender stream: %w", err)
	}
	m.SenderStream, err = senderStream.Value()
	if err != nil {
		return Msg{}, fmt.Errorf("object: decode sender stream: %w", err)
	}
	rest = rest[senderStream.Size():]

	if len(rest) < 4+128 {
		return Msg{}, ErrMsgTruncated
	}
	copy(m.Behavior[:], rest[:4])
	m.SignPublicKey = append([]byte{0x04}, rest[4:4+64]...)
	m.EncPublicKey = append([]byte{0x04}, rest[4+64:4+128]...)
	rest = rest[4+128:]

	if m.SenderVersion >= 3 {
		trials, err := wire.DecodeVarInt(rest)
		if err != nil {
			return Msg{}, fmt.Errorf("object: decode trials: %w", err)
		}
		m.NonceTrialsPerByte, err = trials.Value()
		if err != nil {
			return Msg{}, fmt.Errorf("object: decode trials: %w", err)
		}
		rest = rest[trials.Size():]

		extra, err := wire.DecodeVarInt(rest)
		if err != nil {
			return Msg{}, fmt.Errorf("object: decode extra: %w", err)
		}
		m.PayloadLengthExtraBytes, err = extra.Value()
		if err != nil {
			return Msg{}, fmt.Errorf("object: decode extra: %w", err)
		}
		rest = rest[extra.Size():]
	}

	if len(rest) < 20 {
		return Msg{}, ErrMsgTruncated
	}
	copy(m.DestinationRipe[:], rest[:20])
	rest = rest[20:]

	encoding, err := wire.DecodeVarInt(rest)
	if err != nil {
		return Msg{}, fmt.Errorf("object: decode encoding: %w", err)
	}
	encodingVal, err := encoding.Value()
	if err != nil {
		return Msg{}, fmt.Errorf("object: decode encoding: %w", err)
	}
	m.Encoding = Encoding(encodingVal)
	rest = rest[encoding.Size():]

	msgLen, err := wire.DecodeVarInt(rest)
	if err != nil {
		return Msg{}, fmt.Errorf("object: decode message length: %w", err)
	}
	msgLenVal, err := msgLen.Value()
	if err != nil {
		return Msg{}, fmt.Errorf("object: decode message length: %w", err)
	}
	rest = rest[msgLen.Size():]
	if uint64(len(rest)) < msgLenVal {
		return Msg{}, ErrMsgTruncated
	}
	m.Message = append([]byte(nil), rest[:msgLenVal]...)
	rest = rest[msgLenVal:]

	ackLen, err := wire.DecodeVarInt(rest)
	if err != nil {
		return Msg{}, fmt.Errorf("object: decode ack length: %w", err)
	}
	ackLenVal, err := ackLen.Value()
	if err != nil {
		return Msg{}, fmt.Errorf("object: decode ack length: %w", err)
	}
	rest = rest[ackLen.Size():]
	if uint64(len(rest)) < ackLenVal {
		return Msg{}, ErrMsgTruncated
	}
	m.Ack = append([]byte(nil), rest[:ackLenVal]...)
	rest = rest[ackLenVal:]

	unsignedLen := len(plain) - len(rest)
	unsigned := plain[:unsignedLen]

	sigLen, err := wire.DecodeVarInt(rest)
	if err != nil {
		return Msg{}, fmt.Errorf("object: decode sig length: %w", err)
	}
	sigLenVal, err := sigLen.Value()
	if err != nil {
		return Msg{}, fmt.Errorf("object: decode sig length: %w", err)
	}
	rest = rest[sigLen.Size():]
	if uint64(len(rest)) < sigLenVal {
		return Msg{}, ErrMsgTruncated
	}
	sig := rest[:sigLenVal]

	toVerify := append(append([]byte(nil), headerPrefix...), unsigned...)
	if err := facade.Verify(m.SignPublicKey, toVerify, sig); err != nil {
		return Msg{}, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}
	m.Signature = append([]byte(nil), sig...)

	return m, nil
}

// DecodeMsg trial-decrypts ciphertext with each private key in identities
// until one succeeds. The decrypted destination ripe must match the identity
// that opened it, else ErrDestinationMismatch; a decrypted plaintext that fails
// to parse or verify returns that error; if no identity's key decrypts the
// ciphertext at all, ErrNoMatchingIdentity.
func DecodeMsg(headerPrefix, ciphertext []byte, identities Identities, facade bmcrypto.Facade) (Msg, error) {
	for ripe, priv := range identities {
		plain, err := facade.Decrypt(priv, ciphertext)
		if err != nil {
			continue
		}
		m, err := decodeMsgPlaintext(headerPrefix, plain, facade)
		if err != nil {
			return Msg{}, err
		}
		if m.DestinationRipe != ripe {
			return Msg{}, ErrDestinationMismatch
		}
		return m, nil
	}
	return Msg{}, ErrNoMatchingIdentity
}
