package qgram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/fmsearch/pkg/alphabet"
)

func TestExtractQueries(t *testing.T) {
	strs := [][]alphabet.Symbol{
		alphabet.Encode("GATTACA"),
		alphabet.Encode("ANGT"),
		alphabet.Encode("CC"),
	}
	qs, err := ExtractQueries(strs, 3, 2)
	require.NoError(t, err)

	want := []Query{
		{Gram: mustGram(t, "GAT"), String: 0, Pos: 0},
		{Gram: mustGram(t, "TTA"), String: 0, Pos: 2},
		{Gram: mustGram(t, "ACA"), String: 0, Pos: 4},
	}
	assert.Equal(t, want, qs)
}

func TestExtractQueriesValidates(t *testing.T) {
	_, err := ExtractQueries(nil, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidQ)
	_, err = ExtractQueries(nil, 4, 0)
	assert.Error(t, err)
}
