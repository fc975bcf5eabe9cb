package address

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcutil/base58"
	"github.com/stretchr/testify/require"

	"github.com/bitchan/bitmessage/wif"
	"github.com/bitchan/bitmessage/wire"
)

func TestFromPassphraseDeterministicVector(t *testing.T) {
	addr, err := FromPassphrase("test", 19, Version4, 1)
	require.NoError(t, err)

	require.Equal(t, "00ac14944b00decea5628eb40d0ff4b0f9ee9eca", hex.EncodeToString(addr.Ripe[:]))

	encoded, err := addr.Encode()
	require.NoError(t, err)
	require.Equal(t, "BM-2cWFkyuXXFw6d393RGnin2RpSXj8wxtt6F", encoded)

	signWIF, err := wif.Encode(addr.SignPrivateKey)
	require.NoError(t, err)
	require.Equal(t, "5JY1CFeeyN4eyfL35guWAuUqu5VLmd7LojtkNP6wmt5msZxxZ57", signWIF)

	encWIF, err := wif.Encode(addr.EncPrivateKey)
	require.NoError(t, err)
	require.Equal(t, "5J1oDgZDicNhUgbfzBDQqi2m5jUPnDrfZinnTqEEEaLv63jVFTM", encWIF)
}

func TestTagVector(t *testing.T) {
	addr, err := Decode("BM-2cTux3PGRqHTEH6wyUP2sWeT4LrsGgy63z")
	require.NoError(t, err)
	require.Equal(t, uint64(Version4), addr.Version)

	tag := addr.Tag()
	require.Equal(t, "facf1e3e6c74916203b7f714ca100d4d60604f0917696d0f09330f82f52bed1a", hex.EncodeToString(tag[:]))
}

func TestPubkeyPrivateKeyVector(t *testing.T) {
	addr, err := Decode("BM-2cTux3PGRqHTEH6wyUP2sWeT4LrsGgy63z")
	require.NoError(t, err)

	key := addr.PubkeyPrivateKey()
	require.Equal(t, "15e516173769dc87d4a8e8ed90200362fa58c0228bb2b70b06f26c089a9823a4", hex.EncodeToString(key[:]))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	addr, err := FromRandom(19, Version4, 1)
	require.NoError(t, err)

	encoded, err := addr.Encode()
	require.NoError(t, err)

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, addr.Version, decoded.Version)
	require.Equal(t, addr.Stream, decoded.Stream)
	require.Equal(t, addr.Ripe, decoded.Ripe)
}

func TestDecodeTripsWhitespaceAndPrefix(t *testing.T) {
	addr, err := Decode("  BM-2cWFkyuXXFw6d393RGnin2RpSXj8wxtt6F  ")
	require.NoError(t, err)
	require.Equal(t, uint64(Version4), addr.Version)
}

func TestDecodeRejectsNonBase58Input(t *testing.T) {
	// Per §4.3 decode tolerates an optional "BM-" prefix, but the reference
	// codec treats stripping arbitrary non-"BM-" leading text as invalid base58
	// rather than guessing — malformed strings must fail, not silently parse.
	_, err := Decode("not-an-address-at-all")
	require.Error(t, err)
}

func TestDecodeRejectsBadChecksum(t *testing.T) {
	addr, err := FromRandom(19, Version4, 1)
	require.NoError(t, err)
	encoded, err := addr.Encode()
	require.NoError(t, err)

	tampered := []rune(encoded)
	// Flip a character deep in the base58 body so the checksum no longer matches.
	if tampered[len(tampered)-2] == 'a' {
		tampered[len(tampered)-2] = 'b'
	} else {
		tampered[len(tampered)-2] = 'a'
	}

	_, err = Decode(string(tampered))
	require.Error(t, err)
}

func TestVersion4RejectsLeadingZeroRipe(t *testing.T) {
	version := wire.EncodeVarInt(Version4)
	stream := wire.EncodeVarInt(1)
	ripe := append([]byte{0x00}, bytes.Repeat([]byte{0x01}, 7)...) // 8 bytes, leading zero

	var body bytes.Buffer
	body.Write(version)
	body.Write(stream)
	body.Write(ripe)

	sum := checksum(body.Bytes())
	full := append(body.Bytes(), sum...)

	_, err := Decode("BM-" + base58.Encode(full))
	require.ErrorIs(t, err, ErrV4LeadingZero)
}

func TestRipeLengthRulesByVersion(t *testing.T) {
	require.NoError(t, validateRipeLength(Version1, make([]byte, 20)))
	require.Error(t, validateRipeLength(Version1, make([]byte, 19)))

	require.NoError(t, validateRipeLength(Version2, make([]byte, 18)))
	require.NoError(t, validateRipeLength(Version3, make([]byte, 20)))
	require.Error(t, validateRipeLength(Version3, make([]byte, 17)))

	require.NoError(t, validateRipeLength(Version4, make([]byte, 4)))
	require.Error(t, validateRipeLength(Version4, make([]byte, 3)))
}

func TestFromPassphraseIsDeterministic(t *testing.T) {
	a, err := FromPassphrase("correct horse battery staple", 19, Version4, 1)
	require.NoError(t, err)
	b, err := FromPassphrase("correct horse battery staple", 19, Version4, 1)
	require.NoError(t, err)
	require.Equal(t, a.Ripe, b.Ripe)
	require.Equal(t, a.SignPrivateKey, b.SignPrivateKey)
	require.Equal(t, a.EncPrivateKey, b.EncPrivateKey)
}
