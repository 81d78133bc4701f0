// Package qgram provides exact q-gram lookup over a DNA text: a compact
// sorted index over the distinct q-grams and a dense bitmap q-group index.
package qgram

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/kittclouds/fmsearch/pkg/alphabet"
)

// MaxQ is the longest q-gram that packs into a uint64.
const MaxQ = 64 / alphabet.BitsPerSymbol

var ErrInvalidQ = errors.New("invalid q-gram length")

// Range is a half-open range of occurrence ranks.
type Range struct {
	Begin, End uint32
}

// Len returns the number of occurrences in the range.
func (r Range) Len() uint32 { return r.End - r.Begin }

// Lookup is satisfied by both index flavours.
type Lookup interface {
	// Range returns the occurrences of gram, empty if it does not occur.
	Range(gram uint64) Range
	// Locate maps an occurrence rank to a text position.
	Locate(i uint32) uint32
	// QLen is the q-gram length the index was built with.
	QLen() int
}

// QGramIndex stores the distinct q-grams of a text in ascending order.
// Occurrences of QGrams[i] are Index[Slots[i]:Slots[i+1]].
type QGramIndex struct {
	Q      int
	QGrams []uint64 // strictly increasing
	Slots  []uint32 // len(QGrams)+1, Slots[0] == 0
	Index  []uint32 // text positions grouped by q-gram
}

type gramPos struct {
	gram uint64
	pos  uint32
}

// collectGrams returns every wildcard-free q-gram of text sorted by value,
// then position.
func collectGrams(text []alphabet.Symbol, q int) []gramPos {
	if len(text) < q {
		return nil
	}
	out := make([]gramPos, 0, len(text)-q+1)
	for i := 0; i+q <= len(text); i++ {
		if g, ok := alphabet.PackGram(text[i : i+q]); ok {
			out = append(out, gramPos{gram: g, pos: uint32(i)})
		}
	}
	slices.SortFunc(out, func(a, b gramPos) int {
		switch {
		case a.gram < b.gram:
			return -1
		case a.gram > b.gram:
			return 1
		}
		return int(a.pos) - int(b.pos)
	})
	return out
}

// BuildQGramIndex indexes every q-gram of text. Q-grams containing a
// wildcard are skipped.
func BuildQGramIndex(text []alphabet.Symbol, q int) (*QGramIndex, error) {
	if q <= 0 || q > MaxQ {
		return nil, fmt.Errorf("qgram: build index: q=%d: %w", q, ErrInvalidQ)
	}
	grams := collectGrams(text, q)

	idx := &QGramIndex{
		Q:      q,
		QGrams: make([]uint64, 0),
		Slots:  []uint32{0},
		Index:  make([]uint32, len(grams)),
	}
	for i, gp := range grams {
		if i == 0 || gp.gram != grams[i-1].gram {
			if i > 0 {
				idx.Slots = append(idx.Slots, uint32(i))
			}
			idx.QGrams = append(idx.QGrams, gp.gram)
		}
		idx.Index[i] = gp.pos
	}
	if len(grams) > 0 {
		idx.Slots = append(idx.Slots, uint32(len(grams)))
	}
	return idx, nil
}

// Unique returns the number of distinct q-grams.
func (idx *QGramIndex) Unique() int { return len(idx.QGrams) }

// Occurrences returns the total number of indexed q-gram occurrences.
func (idx *QGramIndex) Occurrences() int { return len(idx.Index) }

func (idx *QGramIndex) QLen() int { return idx.Q }

// Range binary-searches the distinct q-grams.
func (idx *QGramIndex) Range(gram uint64) Range {
	i := sort.Search(len(idx.QGrams), func(i int) bool { return idx.QGrams[i] >= gram })
	if i == len(idx.QGrams) || idx.QGrams[i] != gram {
		return Range{}
	}
	return Range{Begin: idx.Slots[i], End: idx.Slots[i+1]}
}

func (idx *QGramIndex) Locate(i uint32) uint32 { return idx.Index[i] }
