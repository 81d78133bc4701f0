// Package filter drives batch seed search in two phases. Rank classifies
// every query against an index and assigns each hit a global number through
// a prefix sum; Locate then materialises any window of that numbering, so
// callers page through arbitrarily many hits with bounded memory.
package filter

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrInvalidWindow   = errors.New("invalid locate window")
	ErrInvalidInterval = errors.New("merge interval must be positive")
	ErrDiagonalRange   = errors.New("diagonal out of 32-bit range")
)

// slotOf maps global hit g to its owner through the inclusive prefix sum
// slots and returns the hit's offset inside the owner.
func slotOf(slots []uint64, g uint64) (int, uint64) {
	s := sort.Search(len(slots), func(i int) bool { return slots[i] > g })
	if s == 0 {
		return 0, g
	}
	return s, g - slots[s-1]
}

func checkWindow(begin, end, total uint64) error {
	if begin > end || end > total {
		return fmt.Errorf("filter: locate [%d,%d) of %d hits: %w", begin, end, total, ErrInvalidWindow)
	}
	return nil
}

// forEachWindow splits [0,total) into windows of at most size hits.
func forEachWindow(total, size uint64, fn func(begin, end uint64) error) error {
	if size == 0 {
		return fmt.Errorf("filter: window size 0: %w", ErrInvalidWindow)
	}
	for begin := uint64(0); begin < total; begin += size {
		if err := fn(begin, min(begin+size, total)); err != nil {
			return err
		}
	}
	return nil
}
