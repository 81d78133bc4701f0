package filter

import (
	"fmt"
	"slices"

	"github.com/oarkflow/log"

	"github.com/kittclouds/fmsearch/pkg/alphabet"
	"github.com/kittclouds/fmsearch/pkg/backend"
	"github.com/kittclouds/fmsearch/pkg/fmindex"
)

// MEMHit is one reference occurrence of a MEM.
type MEMHit struct {
	RefPos uint32
	String uint32
	Begin  uint32 // span in the query string
	End    uint32
}

// Truncation records a query whose MEMs exceeded the per-query cap.
type Truncation struct {
	String    uint32
	Attempted int
	Stored    int
}

// MEMFilter enumerates the MEMs of every query string and locates their
// occurrences. Like QGramFilter it keeps private scratch per instance.
type MEMFilter struct {
	b       backend.Backend
	maxMEMs int

	fwd fmindex.FMIndex

	perQuery  [][]fmindex.MEM
	attempted []int

	mems   []fmindex.MEM
	owner  []uint32 // query of each MEM
	slots  []uint64 // inclusive prefix sum of MEM range sizes
	ssaIts []fmindex.SSAIterator

	truncated []Truncation
}

// NewMEMFilter keeps at most maxMEMs MEMs per query; non-positive means
// fmindex.DefaultMEMCapacity.
func NewMEMFilter(b backend.Backend, maxMEMs int) *MEMFilter {
	if maxMEMs <= 0 {
		maxMEMs = fmindex.DefaultMEMCapacity
	}
	return &MEMFilter{b: b, maxMEMs: maxMEMs}
}

// Rank finds the MEMs of every query (fwd indexes the reference, rev its
// reverse) and returns the total number of reference occurrences.
func (f *MEMFilter) Rank(fwd, rev fmindex.FMIndex, queries [][]alphabet.Symbol, minIntv uint32, minSpan int) uint64 {
	f.fwd = fwd
	n := len(queries)
	f.perQuery = slices.Grow(f.perQuery[:0], n)[:n]
	f.attempted = slices.Grow(f.attempted[:0], n)[:n]

	f.b.Map(n, func(i int) {
		sink := fmindex.NewMEMSink(f.maxMEMs)
		fmindex.AllMEMs(queries[i], fwd, rev, minIntv, minSpan, sink)
		f.perQuery[i] = sink.MEMs()
		f.attempted[i] = sink.Attempted()
	})

	// flatten per-query MEM lists through a scan over their lengths
	offsets := make([]uint64, n)
	f.b.Map(n, func(i int) { offsets[i] = uint64(len(f.perQuery[i])) })
	f.b.Scan(offsets)
	nMEMs := 0
	if n > 0 {
		nMEMs = int(offsets[n-1])
	}
	f.mems = slices.Grow(f.mems[:0], nMEMs)[:nMEMs]
	f.owner = slices.Grow(f.owner[:0], nMEMs)[:nMEMs]
	f.b.Map(n, func(i int) {
		start := int(offsets[i]) - len(f.perQuery[i])
		copy(f.mems[start:], f.perQuery[i])
		for j := range f.perQuery[i] {
			f.owner[start+j] = uint32(i)
		}
	})

	f.slots = slices.Grow(f.slots[:0], nMEMs)[:nMEMs]
	f.b.Map(nMEMs, func(i int) { f.slots[i] = uint64(f.mems[i].Range.Size()) })
	f.b.Scan(f.slots)

	f.truncated = f.truncated[:0]
	for i, a := range f.attempted {
		if stored := len(f.perQuery[i]); a > stored {
			f.truncated = append(f.truncated, Truncation{String: uint32(i), Attempted: a, Stored: stored})
		}
	}
	if len(f.truncated) > 0 {
		log.Warn().Int("queries", len(f.truncated)).Int("cap", f.maxMEMs).Msg("MEM cap reached, extra MEMs dropped")
	}
	return f.Total()
}

// Total returns the occurrence count of the last Rank.
func (f *MEMFilter) Total() uint64 {
	if len(f.slots) == 0 {
		return 0
	}
	return f.slots[len(f.slots)-1]
}

// MEMs returns every stored MEM of the last Rank, grouped by query.
func (f *MEMFilter) MEMs() []fmindex.MEM { return f.mems }

// QueryMEMs returns the stored MEMs of query i.
func (f *MEMFilter) QueryMEMs(i int) []fmindex.MEM { return f.perQuery[i] }

// Truncations lists the queries that hit the MEM cap in the last Rank.
func (f *MEMFilter) Truncations() []Truncation { return f.truncated }

// Capacity returns the per-query MEM cap.
func (f *MEMFilter) Capacity() int { return f.maxMEMs }

// Locate appends occurrences [begin,end) of the last Rank to dst. Rows are
// first walked to their sampled suffix array entry, then resolved.
func (f *MEMFilter) Locate(begin, end uint64, dst []MEMHit) ([]MEMHit, error) {
	if err := checkWindow(begin, end, f.Total()); err != nil {
		return dst, err
	}
	if end > begin && f.fwd.SampledSuffixArray() == nil {
		return dst, fmt.Errorf("filter: locate MEMs: %w", fmindex.ErrNoSSA)
	}
	n := int(end - begin)
	base := len(dst)
	dst = slices.Grow(dst, n)[:base+n]
	out := dst[base:]
	f.ssaIts = slices.Grow(f.ssaIts[:0], n)[:n]

	f.b.Map(n, func(k int) {
		slot, local := slotOf(f.slots, begin+uint64(k))
		m := f.mems[slot]
		f.ssaIts[k] = f.fwd.LocateSSAIterator(m.Range.Lo + uint32(local))
		out[k] = MEMHit{
			String: f.owner[slot],
			Begin:  uint32(m.Begin),
			End:    uint32(m.End),
		}
	})
	f.b.Map(n, func(k int) {
		out[k].RefPos = f.fwd.LookupSSAIterator(f.ssaIts[k])
	})
	return dst, nil
}

// Each pages through every occurrence in windows of size hits.
func (f *MEMFilter) Each(size uint64, fn func(hits []MEMHit) error) error {
	var buf []MEMHit
	return forEachWindow(f.Total(), size, func(begin, end uint64) error {
		var err error
		if buf, err = f.Locate(begin, end, buf[:0]); err != nil {
			return err
		}
		return fn(buf)
	})
}
