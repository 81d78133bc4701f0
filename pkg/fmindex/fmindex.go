// Package fmindex implements a storage-free FM-index over the DNA alphabet:
// backward search, inverse psi, sampled suffix array locate, and maximal
// exact match enumeration.
//
// The suffix array has Length()+1 rows. Row 0 is the sentinel suffix and
// Primary() is the row whose BWT symbol is the sentinel; the stored BWT
// omits that symbol.
package fmindex

import (
	"errors"
	"fmt"

	"github.com/kittclouds/fmsearch/pkg/alphabet"
)

var (
	ErrZeroInterval    = errors.New("sampling interval must be positive")
	ErrLengthMismatch  = errors.New("bwt length does not match index length")
	ErrCorruptSamples  = errors.New("corrupt suffix array sample file")
	ErrPrimaryOutRange = errors.New("primary row out of range")
	ErrNoSSA           = errors.New("index has no sampled suffix array")
)

// Range is an inclusive range of suffix array rows. It is empty when
// Hi < Lo.
type Range struct {
	Lo, Hi uint32
}

// EmptyRange is the canonical no-match value.
var EmptyRange = Range{Lo: 1, Hi: 0}

// Empty reports whether the range holds no rows.
func (r Range) Empty() bool { return r.Hi < r.Lo }

// Size returns the number of rows in the range.
func (r Range) Size() uint32 {
	if r.Hi < r.Lo {
		return 0
	}
	return r.Hi + 1 - r.Lo
}

// FMIndex is a value type. Copying it copies two slice headers, a pointer
// and a few integers, so it can be handed to any number of workers.
type FMIndex struct {
	length  uint32
	primary uint32
	l2      [alphabet.Size + 1]uint32
	dict    *RankDictionary
	ssa     SSA
}

// New assembles an index from a BWT (sentinel omitted), the sentinel row and
// the cumulative symbol counts. ssa may be nil if Locate is never called;
// callers that page hits check SampledSuffixArray for ErrNoSSA first.
func New(bwt alphabet.Packed, primary uint32, l2 [alphabet.Size + 1]uint32, ssa SSA) (FMIndex, error) {
	if uint32(bwt.Len) != l2[alphabet.Size] {
		return FMIndex{}, fmt.Errorf("fmindex: new: bwt has %d symbols, L2 totals %d: %w",
			bwt.Len, l2[alphabet.Size], ErrLengthMismatch)
	}
	if primary > uint32(bwt.Len) || (bwt.Len > 0 && primary == 0) {
		return FMIndex{}, fmt.Errorf("fmindex: new: primary %d: %w", primary, ErrPrimaryOutRange)
	}
	return FMIndex{
		length:  uint32(bwt.Len),
		primary: primary,
		l2:      l2,
		dict:    NewRankDictionary(bwt),
		ssa:     ssa,
	}, nil
}

// FromSamples builds an index from a BWT and a loaded sample file.
func FromSamples(bwt alphabet.Packed, s *Samples) (FMIndex, error) {
	if uint32(bwt.Len) != s.Length {
		return FMIndex{}, fmt.Errorf("fmindex: from samples: bwt %d vs samples %d: %w",
			bwt.Len, s.Length, ErrLengthMismatch)
	}
	ssa, err := s.SSA()
	if err != nil {
		return FMIndex{}, err
	}
	return New(bwt, s.Primary, s.L2Table(), ssa)
}

// WithSSA returns a copy of the index using ssa for position recovery.
func (f FMIndex) WithSSA(ssa SSA) FMIndex {
	f.ssa = ssa
	return f
}

func (f FMIndex) Length() uint32                { return f.length }
func (f FMIndex) Primary() uint32               { return f.primary }
func (f FMIndex) L2() [alphabet.Size + 1]uint32 { return f.l2 }
func (f FMIndex) Dictionary() *RankDictionary   { return f.dict }
func (f FMIndex) SampledSuffixArray() SSA       { return f.ssa }
func (f FMIndex) Full() Range                   { return Range{Lo: 0, Hi: f.length} }

// Rank counts c in the BWT rows [0,k], skipping the sentinel row. k == -1
// yields 0.
func (f FMIndex) Rank(k int64, c alphabet.Symbol) uint32 {
	if k < 0 {
		return 0
	}
	if k >= int64(f.primary) {
		k--
	}
	if k < 0 {
		return 0
	}
	return f.dict.Rank(int(k), c)
}

// Rank4 counts every symbol in the BWT rows [0,k].
func (f FMIndex) Rank4(k int64) [alphabet.Size]uint32 {
	if k < 0 {
		return [alphabet.Size]uint32{}
	}
	if k >= int64(f.primary) {
		k--
	}
	if k < 0 {
		return [alphabet.Size]uint32{}
	}
	return f.dict.Rank4(int(k))
}

// Extend prepends c to the match described by r.
func (f FMIndex) Extend(r Range, c alphabet.Symbol) Range {
	if !c.Valid() || r.Empty() {
		return EmptyRange
	}
	lo := f.l2[c] + f.Rank(int64(r.Lo)-1, c) + 1
	hi := f.l2[c] + f.Rank(int64(r.Hi), c)
	if hi < lo {
		return EmptyRange
	}
	return Range{Lo: lo, Hi: hi}
}

// Match runs backward search for pattern over the full index.
func (f FMIndex) Match(pattern []alphabet.Symbol) Range {
	return f.MatchFrom(pattern, f.Full())
}

// MatchFrom continues backward search from r, consuming pattern from its
// last symbol to its first.
func (f FMIndex) MatchFrom(pattern []alphabet.Symbol, r Range) Range {
	for i := len(pattern) - 1; i >= 0 && !r.Empty(); i-- {
		r = f.Extend(r, pattern[i])
	}
	return r
}

// MatchReverse searches pattern on an index built over the reversed text,
// consuming pattern front to back.
func (f FMIndex) MatchReverse(pattern []alphabet.Symbol) Range {
	r := f.Full()
	for i := 0; i < len(pattern) && !r.Empty(); i++ {
		r = f.Extend(r, pattern[i])
	}
	return r
}

// Count returns the number of occurrences of pattern.
func (f FMIndex) Count(pattern []alphabet.Symbol) uint32 {
	return f.Match(pattern).Size()
}

// InvPsi is the LF mapping: if row i holds suffix p, InvPsi(i) holds p-1.
// The primary row maps to row 0.
func (f FMIndex) InvPsi(i uint32) uint32 {
	if i == f.primary {
		return 0
	}
	k := i
	if i > f.primary {
		k--
	}
	c := f.dict.bwt.Unpack(int(k))
	return f.l2[c] + f.Rank(int64(i), c)
}

// SSAIterator is a partially resolved locate: the final position is the
// sample stored at Row plus Offset.
type SSAIterator struct {
	Row    uint32
	Offset uint32
}

// LocateSSAIterator walks inverse psi from row i until it reaches a sampled
// row, the primary row or row 0.
func (f FMIndex) LocateSSAIterator(i uint32) SSAIterator {
	var off uint32
	for i != f.primary && i != 0 && !f.ssa.Has(i) {
		i = f.InvPsi(i)
		off++
	}
	return SSAIterator{Row: i, Offset: off}
}

// LookupSSAIterator resolves it to a text position.
func (f FMIndex) LookupSSAIterator(it SSAIterator) uint32 {
	switch {
	case it.Row == f.primary:
		return it.Offset
	case it.Row == 0:
		return f.length + it.Offset
	}
	return f.ssa.Fetch(it.Row) + it.Offset
}

// Locate returns the text position of suffix array row i.
func (f FMIndex) Locate(i uint32) uint32 {
	return f.LookupSSAIterator(f.LocateSSAIterator(i))
}

// walkText visits every row with its text position, from the sentinel
// suffix down to position 0.
func (f FMIndex) walkText(visit func(row, pos uint32)) {
	row := uint32(0)
	for pos := f.length; ; pos-- {
		visit(row, pos)
		if pos == 0 {
			return
		}
		row = f.InvPsi(row)
	}
}
