package refindex

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/fmsearch/pkg/alphabet"
)

func TestBuildGattaca(t *testing.T) {
	p, err := Build(alphabet.Encode("GATTACA"))
	require.NoError(t, err)

	// $, A$, ACA$, ATTACA$, CA$, GATTACA$, TACA$, TTACA$
	assert.Equal(t, []uint32{7, 6, 4, 1, 5, 0, 3, 2}, p.SA)
	assert.Equal(t, uint32(5), p.Primary)
	assert.Equal(t, "ACTGATA", alphabet.Decode(p.BWT.UnpackAll()))
	assert.Equal(t, [alphabet.Size + 1]uint32{0, 3, 4, 5, 7}, p.L2)
}

func TestBuildRejectsWildcards(t *testing.T) {
	_, err := Build(alphabet.Encode("ACNGT"))
	assert.Error(t, err)
}

func TestOccurrences(t *testing.T) {
	text := alphabet.Encode("ACACAC")
	assert.Equal(t, []uint32{0, 2, 4}, Occurrences(text, alphabet.Encode("AC")))
	assert.Empty(t, Occurrences(text, alphabet.Encode("GG")))
	assert.Empty(t, Occurrences(text, nil))
}

func TestMutateChangesOnlyBases(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	src := RandomText(rng, 500)
	mut := Mutate(rng, src, 1.0)
	require.Len(t, mut, len(src))
	for i := range src {
		assert.NotEqual(t, src[i], mut[i])
		assert.True(t, mut[i].Valid())
	}
}
