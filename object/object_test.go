package object

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bitchan/bitmessage/address"
	"github.com/bitchan/bitmessage/bmcrypto"
	"github.com/bitchan/bitmessage/wire"
)

func TestHeaderEncodeDecodeRoundTrip(t *testing.T) {
	expires := uint64(time.Now().Add(time.Hour).Unix())
	withoutNonce, err := EncodeWithoutNonce(expires, TypeMsg, 1, 1, []byte("payload"))
	require.NoError(t, err)

	full := Encode(42, withoutNonce)

	h, objectPayload, err := Decode(full, DecodeOptions{SkipPow: true})
	require.NoError(t, err)
	require.Equal(t, uint64(42), h.Nonce)
	require.Equal(t, expires, h.ExpiresTime)
	require.Equal(t, uint32(TypeMsg), h.Type)
	require.Equal(t, uint64(1), h.Version)
	require.Equal(t, uint64(1), h.Stream)
	require.Equal(t, []byte("payload"), objectPayload)
}

func TestHeaderDecodeRejectsBadPow(t *testing.T) {
	expires := uint64(time.Now().Add(time.Hour).Unix())
	withoutNonce, err := EncodeWithoutNonce(expires, TypeMsg, 1, 1, []byte("payload"))
	require.NoError(t, err)

	full := Encode(0, withoutNonce) // nonce 0 essentially never satisfies a real target
	_, _, err = Decode(full, DecodeOptions{})
	require.ErrorIs(t, err, ErrPowInvalid)
}

func mustAddress(t *testing.T, passphrase string, version uint64) *address.Address {
	t.Helper()
	a, err := address.FromPassphrase(passphrase, 19, version, 1)
	require.NoError(t, err)
	return a
}

func TestGetpubkeyRoundTripV4(t *testing.T) {
	target := mustAddress(t, "getpubkey target", address.Version4)

	payload, err := EncodeGetpubkey(target)
	require.NoError(t, err)

	decoded, err := DecodeGetpubkey(address.Version4, payload)
	require.NoError(t, err)
	require.Equal(t, target.Tag(), decoded.Tag)
}

func TestGetpubkeyRoundTripV3(t *testing.T) {
	target := mustAddress(t, "getpubkey target v3", address.Version3)

	payload, err := EncodeGetpubkey(target)
	require.NoError(t, err)

	decoded, err := DecodeGetpubkey(address.Version3, payload)
	require.NoError(t, err)
	require.Equal(t, target.Ripe, decoded.Ripe)
}

func TestPubkeyV3EncodeDecodeRoundTrip(t *testing.T) {
	identity := mustAddress(t, "pubkey v3 identity", address.Version3)

	headerPrefix, err := EncodeWithoutNonce(uint64(time.Now().Add(time.Hour).Unix()), TypePubkey, 3, 1, nil)
	require.NoError(t, err)

	payload, err := EncodeV3(headerPrefix, wire.PubkeyBitfield{}, identity.SignPublicKey, identity.EncPublicKey, 1000, 1000, identity.SignPrivateKey, bmcrypto.Default)
	require.NoError(t, err)

	decoded, err := DecodeV3(headerPrefix, payload, bmcrypto.Default)
	require.NoError(t, err)
	require.Equal(t, identity.SignPublicKey, decoded.SignPublicKey)
	require.Equal(t, identity.EncPublicKey, decoded.EncPublicKey)
	require.Equal(t, uint64(1000), decoded.NonceTrialsPerByte)
}

func TestPubkeyV4EncodeDecodeRoundTrip(t *testing.T) {
	identity := mustAddress(t, "pubkey v4 identity", address.Version4)

	headerPrefix, err := EncodeWithoutNonce(uint64(time.Now().Add(time.Hour).Unix()), TypePubkey, 4, 1, nil)
	require.NoError(t, err)

	tag := identity.Tag()
	recipientPriv := identity.PubkeyPrivateKey()
	recipientPub, err := bmcrypto.Default.PublicFromPrivate(recipientPriv)
	require.NoError(t, err)

	payload, err := EncodeV4(headerPrefix, tag, recipientPub, wire.PubkeyBitfield{}, identity.SignPublicKey, identity.EncPublicKey, 1000, 1000, identity.SignPrivateKey, bmcrypto.Default)
	require.NoError(t, err)

	needed := NeededPubkeysFor(identity)
	decoded, err := DecodeV4(headerPrefix, payload, needed, bmcrypto.Default)
	require.NoError(t, err)
	require.Equal(t, identity.SignPublicKey, decoded.SignPublicKey)
	require.Equal(t, tag, decoded.Tag)
}

func TestPubkeyV4DecodeFailsWithoutMatchingTag(t *testing.T) {
	identity := mustAddress(t, "pubkey v4 identity 2", address.Version4)
	other := mustAddress(t, "pubkey v4 other identity", address.Version4)

	headerPrefix, err := EncodeWithoutNonce(uint64(time.Now().Add(time.Hour).Unix()), TypePubkey, 4, 1, nil)
	require.NoError(t, err)

	tag := identity.Tag()
	recipientPriv := identity.PubkeyPrivateKey()
	recipientPub, err := bmcrypto.Default.PublicFromPrivate(recipientPriv)
	require.NoError(t, err)

	payload, err := EncodeV4(headerPrefix, tag, recipientPub, wire.PubkeyBitfield{}, identity.SignPublicKey, identity.EncPublicKey, 1000, 1000, identity.SignPrivateKey, bmcrypto.Default)
	require.NoError(t, err)

	needed := NeededPubkeysFor(other)
	_, err = DecodeV4(headerPrefix, payload, needed, bmcrypto.Default)
	require.ErrorIs(t, err, ErrTagNotNeeded)
}

func TestMsgRoundTripSameIdentityDecrypts(t *testing.T) {
	sender := mustAddress(t, "msg sender", address.Version3)
	recipient := sender // from == to, per the spec's round-trip scenario

	headerPrefix, err := EncodeWithoutNonce(uint64(time.Now().Add(time.Hour).Unix()), TypeMsg, 3, 1, nil)
	require.NoError(t, err)

	plaintext := Msg{
		SenderVersion:           3,
		SenderStream:            1,
		SignPublicKey:           sender.SignPublicKey,
		EncPublicKey:            sender.EncPublicKey,
		NonceTrialsPerByte:      1000,
		PayloadLengthExtraBytes: 1000,
		DestinationRipe:         recipient.Ripe,
		Encoding:                EncodingSimple,
		Message:                 EncodeSimple("Тема", "Сообщение"),
	}

	ciphertext, err := EncodeMsg(headerPrefix, plaintext, recipient.EncPublicKey, sender.SignPrivateKey, bmcrypto.Default)
	require.NoError(t, err)

	identities := IdentitiesFor(recipient)
	decoded, err := DecodeMsg(headerPrefix, ciphertext, identities, bmcrypto.Default)
	require.NoError(t, err)
	require.Equal(t, "Тема", decoded.Subject())
	require.Equal(t, "Сообщение", decoded.Body())
}

func TestMsgDecodeFailsWithWrongIdentity(t *testing.T) {
	sender := mustAddress(t, "msg sender 2", address.Version3)
	wrongRecipient := mustAddress(t, "msg wrong recipient", address.Version3)

	headerPrefix, err := EncodeWithoutNonce(uint64(time.Now().Add(time.Hour).Unix()), TypeMsg, 3, 1, nil)
	require.NoError(t, err)

	plaintext := Msg{
		SenderVersion:   3,
		SenderStream:    1,
		SignPublicKey:   sender.SignPublicKey,
		EncPublicKey:    sender.EncPublicKey,
		DestinationRipe: sender.Ripe,
		Encoding:        EncodingTrivial,
		Message:         []byte("hello"),
	}

	ciphertext, err := EncodeMsg(headerPrefix, plaintext, sender.EncPublicKey, sender.SignPrivateKey, bmcrypto.Default)
	require.NoError(t, err)

	identities := IdentitiesFor(wrongRecipient)
	_, err = DecodeMsg(headerPrefix, ciphertext, identities, bmcrypto.Default)
	require.ErrorIs(t, err, ErrNoMatchingIdentity)
}

func TestBroadcastV5RoundTrip(t *testing.T) {
	addressee := mustAddress(t, "broadcast addressee", address.Version4)
	sender := mustAddress(t, "broadcast sender", address.Version3)

	headerPrefix, err := EncodeWithoutNonce(uint64(time.Now().Add(time.Hour).Unix()), TypeBroadcast, 5, 1, nil)
	require.NoError(t, err)

	tag := addressee.BroadcastTag()
	privKey := addressee.BroadcastPrivateKey()
	pubKey, err := bmcrypto.Default.PublicFromPrivate(privKey)
	require.NoError(t, err)

	plaintext := Broadcast{
		SenderVersion:           3,
		SenderStream:            1,
		SignPublicKey:           sender.SignPublicKey,
		EncPublicKey:            sender.EncPublicKey,
		NonceTrialsPerByte:      1000,
		PayloadLengthExtraBytes: 1000,
		Encoding:                EncodingTrivial,
		Message:                 []byte("announcement"),
	}

	payload, err := EncodeBroadcastV5(headerPrefix, tag, plaintext, pubKey, sender.SignPrivateKey, bmcrypto.Default)
	require.NoError(t, err)

	subs := SubscriptionsFor(addressee)
	decoded, err := DecodeBroadcastV5(headerPrefix, payload, subs, bmcrypto.Default)
	require.NoError(t, err)
	require.Equal(t, []byte("announcement"), decoded.Message)
	require.Equal(t, tag, decoded.Tag)
}

func TestBroadcastV5UnsubscribedTagIsNonFatal(t *testing.T) {
	addressee := mustAddress(t, "broadcast addressee 2", address.Version4)
	notSubscribed := mustAddress(t, "broadcast other addressee", address.Version4)
	sender := mustAddress(t, "broadcast sender 2", address.Version3)

	headerPrefix, err := EncodeWithoutNonce(uint64(time.Now().Add(time.Hour).Unix()), TypeBroadcast, 5, 1, nil)
	require.NoError(t, err)

	tag := addressee.BroadcastTag()
	privKey := addressee.BroadcastPrivateKey()
	pubKey, err := bmcrypto.Default.PublicFromPrivate(privKey)
	require.NoError(t, err)

	plaintext := Broadcast{
		SenderVersion: 3,
		SenderStream:  1,
		SignPublicKey: sender.SignPublicKey,
		EncPublicKey:  sender.EncPublicKey,
		Encoding:      EncodingTrivial,
		Message:       []byte("announcement"),
	}

	payload, err := EncodeBroadcastV5(headerPrefix, tag, plaintext, pubKey, sender.SignPrivateKey, bmcrypto.Default)
	require.NoError(t, err)

	subs := SubscriptionsFor(notSubscribed)
	_, err = DecodeBroadcastV5(headerPrefix, payload, subs, bmcrypto.Default)
	require.ErrorIs(t, err, ErrTagNotNeeded)
}
