package fmindex

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// SSA is a sampled suffix array. Rows that are not sampled are resolved by
// the FM-index through inverse-psi walks.
type SSA interface {
	// Has reports whether row i carries a stored sample.
	Has(i uint32) bool
	// Fetch returns the stored sample for row i. Has(i) must be true.
	Fetch(i uint32) uint32
	// Interval is the sampling interval K.
	Interval() uint32
}

// SSAByIndex stores the suffix array value of every row that is a multiple
// of K. This is the layout of the on-disk sample files.
type SSAByIndex struct {
	k       uint32
	samples []uint32 // samples[j] = SA[j*K]
}

// NewSSAByIndex wraps samples taken at rows 0, K, 2K, ...
func NewSSAByIndex(k uint32, samples []uint32) (*SSAByIndex, error) {
	if k == 0 {
		return nil, fmt.Errorf("fmindex: ssa by index: %w", ErrZeroInterval)
	}
	return &SSAByIndex{k: k, samples: samples}, nil
}

func (s *SSAByIndex) Has(i uint32) bool     { return i%s.k == 0 }
func (s *SSAByIndex) Fetch(i uint32) uint32 { return s.samples[i/s.k] }
func (s *SSAByIndex) Interval() uint32      { return s.k }

// Samples exposes the stored values, row 0 first.
func (s *SSAByIndex) Samples() []uint32 { return s.samples }

// SSAByValue stores the suffix array value of every row whose value is a
// multiple of K, so any row reaches a sample in at most K-1 steps. Sampled
// rows are kept in a roaring bitmap and its rank addresses the value slice.
type SSAByValue struct {
	k       uint32
	rows    *roaring.Bitmap
	samples []uint32 // ordered by row
}

func (s *SSAByValue) Has(i uint32) bool { return s.rows.Contains(i) }

func (s *SSAByValue) Fetch(i uint32) uint32 {
	return s.samples[s.rows.Rank(i)-1]
}

func (s *SSAByValue) Interval() uint32 { return s.k }

// Count returns the number of stored samples.
func (s *SSAByValue) Count() int { return len(s.samples) }

// BuildSSAByIndex samples fmi by walking inverse psi over the whole text,
// starting at row 0 (the sentinel suffix).
func BuildSSAByIndex(fmi FMIndex, k uint32) (*SSAByIndex, error) {
	if k == 0 {
		return nil, fmt.Errorf("fmindex: build ssa by index: %w", ErrZeroInterval)
	}
	samples := make([]uint32, (fmi.length+k)/k)
	fmi.walkText(func(row, pos uint32) {
		if row%k == 0 {
			samples[row/k] = pos
		}
	})
	return &SSAByIndex{k: k, samples: samples}, nil
}

// BuildSSAByValue samples every row whose text position is a multiple of k.
func BuildSSAByValue(fmi FMIndex, k uint32) (*SSAByValue, error) {
	if k == 0 {
		return nil, fmt.Errorf("fmindex: build ssa by value: %w", ErrZeroInterval)
	}
	values := make(map[uint32]uint32, fmi.length/k+1)
	rows := roaring.New()
	fmi.walkText(func(row, pos uint32) {
		if pos%k == 0 {
			rows.Add(row)
			values[row] = pos
		}
	})
	rows.RunOptimize()

	samples := make([]uint32, 0, len(values))
	it := rows.Iterator()
	for it.HasNext() {
		samples = append(samples, values[it.Next()])
	}
	return &SSAByValue{k: k, rows: rows, samples: samples}, nil
}
