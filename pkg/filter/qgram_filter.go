package filter

import (
	"fmt"
	"math"
	"slices"
	"sync/atomic"

	"github.com/kittclouds/fmsearch/pkg/backend"
	"github.com/kittclouds/fmsearch/pkg/qgram"
)

// QGramHit is one occurrence of a query q-gram in the indexed text.
type QGramHit struct {
	TextPos  uint32
	String   uint32
	QueryPos uint32
}

// Diagonal is a merged cluster of hits from one query string.
type Diagonal struct {
	String uint32
	Diag   int64
	Count  uint32
}

// QGramFilter looks up query q-grams in a q-gram or q-group index. An
// instance keeps per-call scratch and must not be shared between
// goroutines.
type QGramFilter struct {
	b       backend.Backend
	index   qgram.Lookup
	queries []qgram.Query
	ranges  []qgram.Range
	slots   []uint64
}

func NewQGramFilter(b backend.Backend) *QGramFilter {
	return &QGramFilter{b: b}
}

// Rank looks up every query and returns the total number of hits.
func (f *QGramFilter) Rank(index qgram.Lookup, queries []qgram.Query) uint64 {
	f.index = index
	f.queries = queries
	f.ranges = slices.Grow(f.ranges[:0], len(queries))[:len(queries)]
	f.slots = slices.Grow(f.slots[:0], len(queries))[:len(queries)]

	f.b.Map(len(queries), func(i int) {
		r := index.Range(queries[i].Gram)
		f.ranges[i] = r
		f.slots[i] = uint64(r.Len())
	})
	f.b.Scan(f.slots)
	return f.Total()
}

// Total returns the hit count of the last Rank.
func (f *QGramFilter) Total() uint64 {
	if len(f.slots) == 0 {
		return 0
	}
	return f.slots[len(f.slots)-1]
}

// Slots returns the inclusive prefix sum of per-query hit counts.
func (f *QGramFilter) Slots() []uint64 { return f.slots }

// Locate appends hits [begin,end) of the last Rank to dst.
func (f *QGramFilter) Locate(begin, end uint64, dst []QGramHit) ([]QGramHit, error) {
	if err := checkWindow(begin, end, f.Total()); err != nil {
		return dst, err
	}
	n := int(end - begin)
	base := len(dst)
	dst = slices.Grow(dst, n)[:base+n]
	out := dst[base:]

	f.b.Map(n, func(k int) {
		slot, local := slotOf(f.slots, begin+uint64(k))
		q := f.queries[slot]
		out[k] = QGramHit{
			TextPos:  f.index.Locate(f.ranges[slot].Begin + uint32(local)),
			String:   q.String,
			QueryPos: q.Pos,
		}
	})
	return dst, nil
}

// Each pages through every hit in windows of size hits.
func (f *QGramFilter) Each(size uint64, fn func(hits []QGramHit) error) error {
	var buf []QGramHit
	return forEachWindow(f.Total(), size, func(begin, end uint64) error {
		var err error
		if buf, err = f.Locate(begin, end, buf[:0]); err != nil {
			return err
		}
		return fn(buf)
	})
}

// snapDiagonal rounds d to the nearest multiple of interval, ties upward.
func snapDiagonal(d, interval int64) int64 {
	r := d / interval * interval
	if r > d {
		r -= interval
	}
	if 2*(d-r) >= interval {
		r += interval
	}
	return r
}

func diagonalKey(str uint32, d int64) uint64 {
	return uint64(str)<<32 | uint64(uint32(int32(d))^0x80000000)
}

func decodeDiagonalKey(k uint64) (uint32, int64) {
	return uint32(k >> 32), int64(int32(uint32(k) ^ 0x80000000))
}

// Merge snaps each hit's diagonal (TextPos - QueryPos) to the nearest
// multiple of interval, then counts hits per (string, diagonal). Results
// are ordered by string, then diagonal.
func (f *QGramFilter) Merge(interval uint32, hits []QGramHit) ([]Diagonal, error) {
	if interval == 0 {
		return nil, fmt.Errorf("filter: merge: %w", ErrInvalidInterval)
	}
	keys := make([]uint64, len(hits))
	var overflow atomic.Bool
	f.b.Map(len(hits), func(i int) {
		h := hits[i]
		d := snapDiagonal(int64(h.TextPos)-int64(h.QueryPos), int64(interval))
		if d < math.MinInt32 || d > math.MaxInt32 {
			overflow.Store(true)
			return
		}
		keys[i] = diagonalKey(h.String, d)
	})
	if overflow.Load() {
		return nil, fmt.Errorf("filter: merge: %w", ErrDiagonalRange)
	}

	f.b.Sort(keys)
	values, counts := f.b.RunLengthEncode(keys)

	out := make([]Diagonal, len(values))
	f.b.Map(len(values), func(i int) {
		str, d := decodeDiagonalKey(values[i])
		out[i] = Diagonal{String: str, Diag: d, Count: counts[i]}
	})
	return out, nil
}
