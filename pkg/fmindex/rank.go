package fmindex

import (
	"math/bits"

	"github.com/kittclouds/fmsearch/pkg/alphabet"
)

const (
	// blockWords is the number of packed words between occurrence samples.
	blockWords = 4
	// blockSymbols is the number of BWT symbols covered by one sample.
	blockSymbols = blockWords * alphabet.SymbolsPerWord

	lowBits = 0x55555555
)

// symbolPattern[c] is c replicated into every 2-bit lane of a word.
var symbolPattern = [alphabet.Size]uint32{0x00000000, 0x55555555, 0xAAAAAAAA, 0xFFFFFFFF}

// RankDictionary answers occurrence counts over a packed BWT. The BWT itself
// is borrowed; only the occurrence table (four counts every 64 symbols) is
// owned.
type RankDictionary struct {
	bwt alphabet.Packed
	// occ[4*b+c] counts symbol c in bwt[0, b*blockSymbols).
	occ []uint32
}

// NewRankDictionary samples occurrence counts over bwt.
func NewRankDictionary(bwt alphabet.Packed) *RankDictionary {
	nBlocks := bwt.Len/blockSymbols + 1
	occ := make([]uint32, nBlocks*alphabet.Size)

	var running [alphabet.Size]uint32
	for b := 0; b < nBlocks; b++ {
		copy(occ[b*alphabet.Size:], running[:])
		end := min((b+1)*blockSymbols, bwt.Len)
		for i := b * blockSymbols; i < end; i++ {
			running[bwt.Unpack(i)]++
		}
	}
	return &RankDictionary{bwt: bwt, occ: occ}
}

// Len returns the number of symbols in the BWT.
func (d *RankDictionary) Len() int { return d.bwt.Len }

// countInWord counts lanes equal to c among the first m symbols of w.
func countInWord(w uint32, c alphabet.Symbol, m int) uint32 {
	x := w ^ symbolPattern[c]
	hits := ^(x | x>>1) & lowBits
	if m < alphabet.SymbolsPerWord {
		hits &= uint32(1)<<(2*uint(m)) - 1
	}
	return uint32(bits.OnesCount32(hits))
}

// Rank returns the occurrences of c in bwt[0,k]. k must be in [0, Len()).
func (d *RankDictionary) Rank(k int, c alphabet.Symbol) uint32 {
	n := k + 1
	block := n / blockSymbols
	count := d.occ[block*alphabet.Size+int(c)]

	w := block * blockWords
	last := n / alphabet.SymbolsPerWord
	for ; w < last; w++ {
		count += countInWord(d.bwt.Words[w], c, alphabet.SymbolsPerWord)
	}
	if tail := n % alphabet.SymbolsPerWord; tail > 0 {
		count += countInWord(d.bwt.Words[w], c, tail)
	}
	return count
}

// Rank4 returns the occurrences of every symbol in bwt[0,k] with a single
// block lookup and a single pass over the tail words.
func (d *RankDictionary) Rank4(k int) [alphabet.Size]uint32 {
	n := k + 1
	block := n / blockSymbols

	var out [alphabet.Size]uint32
	copy(out[:], d.occ[block*alphabet.Size:block*alphabet.Size+alphabet.Size])

	w := block * blockWords
	last := n / alphabet.SymbolsPerWord
	for ; w < last; w++ {
		word := d.bwt.Words[w]
		for c := alphabet.A; c <= alphabet.T; c++ {
			out[c] += countInWord(word, c, alphabet.SymbolsPerWord)
		}
	}
	if tail := n % alphabet.SymbolsPerWord; tail > 0 {
		word := d.bwt.Words[w]
		for c := alphabet.A; c <= alphabet.T; c++ {
			out[c] += countInWord(word, c, tail)
		}
	}
	return out
}
