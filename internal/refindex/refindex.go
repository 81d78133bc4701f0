// Package refindex builds small FM-index inputs by brute force: a naive
// suffix sort, its BWT, the sentinel row and the cumulative counts. It is
// meant for tests and smoke runs over texts of a few thousand bases.
package refindex

import (
	"bytes"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/kittclouds/fmsearch/pkg/alphabet"
)

// Parts are the pieces an FM-index is assembled from.
type Parts struct {
	Text    []alphabet.Symbol
	SA      []uint32 // len(Text)+1 rows, SA[0] == len(Text)
	BWT     alphabet.Packed
	Primary uint32
	L2      [alphabet.Size + 1]uint32
}

// Build suffix-sorts text. Wildcards are rejected.
func Build(text []alphabet.Symbol) (*Parts, error) {
	raw := make([]byte, len(text))
	for i, s := range text {
		if !s.Valid() {
			return nil, fmt.Errorf("refindex: wildcard at %d", i)
		}
		raw[i] = byte(s)
	}

	n := len(text)
	sa := make([]uint32, n+1)
	for i := range sa {
		sa[i] = uint32(i)
	}
	// a proper prefix sorts first, which is the sentinel rule
	slices.SortFunc(sa, func(a, b uint32) int {
		return bytes.Compare(raw[a:], raw[b:])
	})

	p := &Parts{Text: text, SA: sa}
	bwt := make([]alphabet.Symbol, 0, n)
	for row, pos := range sa {
		if pos == 0 {
			p.Primary = uint32(row)
			continue
		}
		bwt = append(bwt, text[pos-1])
	}
	p.BWT = alphabet.Pack(bwt)

	var counts [alphabet.Size]uint32
	for _, s := range text {
		counts[s]++
	}
	for c := 0; c < alphabet.Size; c++ {
		p.L2[c+1] = p.L2[c] + counts[c]
	}
	return p, nil
}

// Occurrences lists every position of pattern in text, ascending.
func Occurrences(text, pattern []alphabet.Symbol) []uint32 {
	var out []uint32
	if len(pattern) == 0 || len(pattern) > len(text) {
		return out
	}
	for i := 0; i+len(pattern) <= len(text); i++ {
		if slices.Equal(text[i:i+len(pattern)], pattern) {
			out = append(out, uint32(i))
		}
	}
	return out
}

// RandomText draws n uniform bases from rng.
func RandomText(rng *rand.Rand, n int) []alphabet.Symbol {
	out := make([]alphabet.Symbol, n)
	for i := range out {
		out[i] = alphabet.Symbol(rng.IntN(alphabet.Size))
	}
	return out
}

// Mutate copies src, replacing each base with a different one with
// probability rate.
func Mutate(rng *rand.Rand, src []alphabet.Symbol, rate float64) []alphabet.Symbol {
	out := slices.Clone(src)
	for i := range out {
		if rng.Float64() < rate {
			out[i] = (out[i] + alphabet.Symbol(1+rng.IntN(alphabet.Size-1))) % alphabet.Size
		}
	}
	return out
}
