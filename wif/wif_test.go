package wif

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeVector(t *testing.T) {
	raw, err := hex.DecodeString("71c95d26c716a5e85e9af9efe26fb5f744dc98005a13d05d23ee92c77e038d9f")
	require.NoError(t, err)

	encoded, err := Encode(raw)
	require.NoError(t, err)
	require.Equal(t, "5JgQ79vTBusc61xYPtUEHYQ38AXKdDZgQ5rFp7Cbb4ZjXUKFZEV", encoded)

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, raw, decoded)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	raw := make([]byte, PrivateKeySize)
	for i := range raw {
		raw[i] = byte(i)
	}

	encoded, err := Encode(raw)
	require.NoError(t, err)

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, raw, decoded)
}

func TestEncodeRejectsWrongLength(t *testing.T) {
	_, err := Encode(make([]byte, 31))
	require.ErrorIs(t, err, ErrWrongLength)
}

func TestDecodeRejectsBadChecksum(t *testing.T) {
	raw := make([]byte, PrivateKeySize)
	encoded, err := Encode(raw)
	require.NoError(t, err)

	// Swap the last character for another base58 character so the string still
	// decodes but its checksum no longer matches.
	tampered := []byte(encoded)
	if tampered[len(tampered)-1] == 'a' {
		tampered[len(tampered)-1] = 'b'
	} else {
		tampered[len(tampered)-1] = 'a'
	}

	_, err = Decode(string(tampered))
	require.Error(t, err)
}

func TestDecodeRejectsWrongVersion(t *testing.T) {
	// A well-known Bitcoin mainnet address (version 0x00, not 0x80) should be
	// rejected as a private key.
	_, err := Decode("1BvBMSEYstWetqTFn5Au4m4GFg7xJaNVN2")
	require.Error(t, err)
}
