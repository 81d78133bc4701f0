// Package backend supplies the execution primitives the filters are written
// against. Every filter algorithm is expressed with Map plus three global
// steps (Scan, Sort, RunLengthEncode), so swapping the backend swaps the
// execution model without touching the algorithm.
package backend

import "slices"

// Backend is the execution capability set.
type Backend interface {
	// Name identifies the backend in logs.
	Name() string
	// Map calls fn(i) for every i in [0,n). Calls may run concurrently and
	// in any order; fn must only write state owned by index i.
	Map(n int, fn func(i int))
	// Scan replaces values with their inclusive prefix sum.
	Scan(values []uint64)
	// Sort orders keys ascending in place.
	Sort(keys []uint64)
	// RunLengthEncode collapses runs of equal adjacent keys.
	RunLengthEncode(keys []uint64) (values []uint64, counts []uint32)
}

// Sequential runs every primitive as a plain loop on the calling goroutine.
type Sequential struct{}

// NewSequential returns the loop backend.
func NewSequential() Sequential { return Sequential{} }

func (Sequential) Name() string { return "sequential" }

func (Sequential) Map(n int, fn func(i int)) {
	for i := 0; i < n; i++ {
		fn(i)
	}
}

func (Sequential) Scan(values []uint64) {
	for i := 1; i < len(values); i++ {
		values[i] += values[i-1]
	}
}

func (Sequential) Sort(keys []uint64) { slices.Sort(keys) }

func (Sequential) RunLengthEncode(keys []uint64) ([]uint64, []uint32) {
	values := make([]uint64, 0)
	counts := make([]uint32, 0)
	for i, k := range keys {
		if i == 0 || k != keys[i-1] {
			values = append(values, k)
			counts = append(counts, 1)
			continue
		}
		counts[len(counts)-1]++
	}
	return values, counts
}
