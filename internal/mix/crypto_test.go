package mix_test

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"math/bits"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ossyrian/mixvfs/internal/mix"
	"github.com/ossyrian/mixvfs/internal/mix/mixtest"
)

func TestID(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		padded string
	}{
		{name: "nine bytes", input: "rules.ini", padded: "RULES.INI\x01II"},
		{name: "four bytes", input: "abcd", padded: "ABCD"},
		{name: "one short", input: "abc", padded: "ABC\x03"},
		{name: "one over", input: "abcde", padded: "ABCDE\x01EE"},
		{name: "two over", input: "abcdef", padded: "ABCDEF\x02E"},
		{name: "empty", input: "", padded: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, crc32.ChecksumIEEE([]byte(tt.padded)), mix.ID(tt.input))
		})
	}
}

func TestID_CaseInsensitive(t *testing.T) {
	require.Equal(t, mix.ID("RA2.MIX"), mix.ID("ra2.mix"))
	require.Equal(t, mix.ID("Expand01.Mix"), mix.ID("EXPAND01.MIX"))
	require.NotEqual(t, mix.ID("ra2.mix"), mix.ID("ra2md.mix"))
}

func TestClassicID(t *testing.T) {
	abcd := binary.LittleEndian.Uint32([]byte("ABCD"))

	require.Equal(t, uint32(0), mix.ClassicID(""))
	require.Equal(t, abcd, mix.ClassicID("abcd"))
	require.Equal(t, bits.RotateLeft32(abcd, 1)+'E', mix.ClassicID("abcde"))
	require.Equal(t, mix.ClassicID("CONQUER.MIX"), mix.ClassicID("conquer.mix"))
}

func TestBlowfishKey(t *testing.T) {
	ks := mixtest.DefaultKeySource()

	key, err := mix.BlowfishKey(ks)
	require.NoError(t, err)
	require.Len(t, key, mix.BlowfishKeySize)

	again, err := mix.BlowfishKey(bytes.Clone(ks))
	require.NoError(t, err)
	require.Equal(t, key, again)

	other := bytes.Clone(ks)
	other[0] ^= 0x01
	otherKey, err := mix.BlowfishKey(other)
	require.NoError(t, err)
	require.NotEqual(t, key, otherKey)

	_, err = mix.BlowfishKey(ks[:40])
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid key source length")
}

func TestBlockRoundTrip(t *testing.T) {
	c, err := mix.NewIndexCipher(mixtest.DefaultKeySource())
	require.NoError(t, err)

	plain := []byte("0123456789abcdef0123456789abcdef")
	buf := bytes.Clone(plain)

	mix.EncryptBlocks(c, buf)
	require.NotEqual(t, plain, buf)

	mix.DecryptBlocks(c, buf)
	require.Equal(t, plain, buf)
}

func TestSealedIndexSize(t *testing.T) {
	tests := []struct {
		count int
		want  int
	}{
		{count: 0, want: 8},
		{count: 1, want: 24},
		{count: 2, want: 32},
		{count: 3, want: 48},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, mix.SealedIndexSize(tt.count), "count %d", tt.count)
	}
}
