package alphabet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	syms := Encode("GATTACA")
	assert.Equal(t, []Symbol{G, A, T, T, A, C, A}, syms)
	assert.Equal(t, "GATTACA", Decode(syms))

	assert.Equal(t, N, EncodeByte('R'))
	assert.Equal(t, "ANT", Decode(Encode("aRt")))
}

func TestParseStrict(t *testing.T) {
	syms, err := ParseStrict("ACGTN")
	require.NoError(t, err)
	assert.Equal(t, []Symbol{A, C, G, T, N}, syms)

	_, err = ParseStrict("ACXT")
	assert.Error(t, err)
}

func TestComplement(t *testing.T) {
	assert.Equal(t, T, A.Complement())
	assert.Equal(t, G, C.Complement())
	assert.Equal(t, N, N.Complement())
	assert.False(t, Symbol(7).Valid())

	assert.Equal(t, "TGTAATC", Decode(ReverseComplement(Encode("GATTACA"))))
	assert.Equal(t, "ANGT", Decode(ReverseComplement(Encode("ACNT"))))
	assert.Empty(t, ReverseComplement(nil))
}

func TestPackedUnpack(t *testing.T) {
	// 37 symbols spans three words
	src := Encode("ACGTTGCAACGTACGTGGGGCCCCAAAATTTTACGTA")
	p := Pack(src)
	require.Equal(t, len(src), p.Len)
	require.Len(t, p.Words, 3)
	for i, s := range src {
		assert.Equal(t, s, p.Unpack(i), "symbol %d", i)
	}
	assert.Equal(t, src, p.UnpackAll())
}

func TestPackGram(t *testing.T) {
	g, ok := PackGram(Encode("GAT"))
	require.True(t, ok)
	// G=2 at bits 0..1, A=0 at bits 2..3, T=3 at bits 4..5
	assert.Equal(t, uint64(2|0<<2|3<<4), g)
	assert.Equal(t, Encode("GAT"), UnpackGram(g, 3))

	_, ok = PackGram(Encode("GNT"))
	assert.False(t, ok)
}
