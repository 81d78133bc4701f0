package qgram

import (
	"fmt"
	"math/bits"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/kittclouds/fmsearch/pkg/alphabet"
)

// MaxGroupQ bounds q for the q-group index, which allocates one bit per
// possible q-gram.
const MaxGroupQ = 14

// QGroupIndex is a q-gram index addressed through a dense presence bitmap
// (Koester & Rahmann). Bit g of I is set iff q-gram g occurs. S holds the
// number of set bits before each word, SS the start of each present
// q-gram's occurrences in P.
type QGroupIndex struct {
	Q  int
	I  []uint32
	S  []uint32 // len(I)+1
	SS []uint32 // set bits + 1
	P  []uint32
}

// BuildQGroupIndex indexes every wildcard-free q-gram of text.
func BuildQGroupIndex(text []alphabet.Symbol, q int) (*QGroupIndex, error) {
	if q <= 0 || q > MaxGroupQ {
		return nil, fmt.Errorf("qgram: build group index: q=%d: %w", q, ErrInvalidQ)
	}
	grams := collectGrams(text, q)

	values := make([]uint32, len(grams))
	for i, gp := range grams {
		values[i] = uint32(gp.gram)
	}
	present := roaring.New()
	present.AddMany(values)

	nWords := (1<<(2*uint(q)) + 31) / 32
	idx := &QGroupIndex{
		Q:  q,
		I:  make([]uint32, nWords),
		S:  make([]uint32, nWords+1),
		SS: make([]uint32, 0, present.GetCardinality()+1),
		P:  make([]uint32, len(grams)),
	}

	// the dense form stops at the highest present q-gram; I stays zero past it
	for w, bits64 := range present.ToDense() {
		idx.I[2*w] = uint32(bits64)
		if 2*w+1 < nWords {
			idx.I[2*w+1] = uint32(bits64 >> 32)
		}
	}
	for w, word := range idx.I {
		idx.S[w+1] = idx.S[w] + uint32(bits.OnesCount32(word))
	}

	for i, gp := range grams {
		if i == 0 || gp.gram != grams[i-1].gram {
			idx.SS = append(idx.SS, uint32(i))
		}
		idx.P[i] = gp.pos
	}
	idx.SS = append(idx.SS, uint32(len(grams)))
	return idx, nil
}

func (idx *QGroupIndex) QLen() int { return idx.Q }

// Unique returns the number of distinct q-grams.
func (idx *QGroupIndex) Unique() int { return int(idx.S[len(idx.I)]) }

// Range ranks gram inside its bitmap word.
func (idx *QGroupIndex) Range(gram uint64) Range {
	i := gram / 32
	if i >= uint64(len(idx.I)) {
		return Range{}
	}
	j := uint32(gram % 32)
	word := idx.I[i]
	if word&(1<<j) == 0 {
		return Range{}
	}
	rank := uint32(bits.OnesCount32(word&(2<<j-1))) - 1
	k := idx.S[i] + rank
	return Range{Begin: idx.SS[k], End: idx.SS[k+1]}
}

func (idx *QGroupIndex) Locate(i uint32) uint32 { return idx.P[i] }
