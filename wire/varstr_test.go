package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVarStrRoundTrip(t *testing.T) {
	cases := []string{"", "hello", "Тема", "Сообщение"}
	for _, s := range cases {
		encoded := EncodeVarStr(s)
		decoded, consumed, err := DecodeVarStr(encoded)
		require.NoError(t, err)
		require.Equal(t, s, decoded)
		require.Equal(t, len(encoded), consumed)
	}
}

func TestVarStrTruncated(t *testing.T) {
	encoded := EncodeVarStr("hello world")
	_, _, err := DecodeVarStr(encoded[:len(encoded)-3])
	require.ErrorIs(t, err, ErrVarStrTruncated)
}

func TestVarIntListRoundTrip(t *testing.T) {
	values := []uint64{1, 2, 3, 1 << 20}
	encoded := EncodeVarIntList(values)
	decoded, consumed, err := DecodeVarIntList(encoded)
	require.NoError(t, err)
	require.Equal(t, values, decoded)
	require.Equal(t, len(encoded), consumed)
}

func TestVarIntListEmpty(t *testing.T) {
	encoded := EncodeVarIntList(nil)
	decoded, consumed, err := DecodeVarIntList(encoded)
	require.NoError(t, err)
	require.Empty(t, decoded)
	require.Equal(t, 1, consumed)
}
