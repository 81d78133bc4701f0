package fmindex

import "github.com/kittclouds/fmsearch/pkg/alphabet"

// DefaultMEMCapacity bounds the MEMs kept per query unless configured.
const DefaultMEMCapacity = 1024

// MEM is a maximal exact match: the rows of the forward index matching
// pattern[Begin:End].
type MEM struct {
	Range Range
	Begin int
	End   int
}

// Span returns the matched pattern length.
func (m MEM) Span() int { return m.End - m.Begin }

// MEMHandler receives MEMs as they are found.
type MEMHandler interface {
	Push(m MEM)
}

// MEMSink is a bounded MEMHandler. MEMs past its capacity are counted but
// not stored.
type MEMSink struct {
	mems      []MEM
	capacity  int
	attempted int
}

// NewMEMSink returns a sink holding at most capacity MEMs.
func NewMEMSink(capacity int) *MEMSink {
	if capacity <= 0 {
		capacity = DefaultMEMCapacity
	}
	return &MEMSink{mems: make([]MEM, 0, min(capacity, 64)), capacity: capacity}
}

func (s *MEMSink) Push(m MEM) {
	s.attempted++
	if len(s.mems) < s.capacity {
		s.mems = append(s.mems, m)
	}
}

// MEMs returns the stored MEMs in discovery order.
func (s *MEMSink) MEMs() []MEM { return s.mems }

// Attempted counts every Push, stored or not.
func (s *MEMSink) Attempted() int { return s.attempted }

// Stored counts the MEMs kept.
func (s *MEMSink) Stored() int { return len(s.mems) }

// Truncated reports whether any MEM was dropped.
func (s *MEMSink) Truncated() bool { return s.attempted > len(s.mems) }

// Capacity returns the configured bound.
func (s *MEMSink) Capacity() int { return s.capacity }

// Reset empties the sink, keeping its storage.
func (s *MEMSink) Reset() {
	s.mems = s.mems[:0]
	s.attempted = 0
}

// FindMEMs reports every MEM of pattern that covers position x and returns
// the first position not covered by the right extension from x. fwd indexes
// the text, rev its reverse. Extension stops at wildcards and at ranges
// smaller than minIntv; MEMs shorter than minSpan are not reported.
func FindMEMs(pattern []alphabet.Symbol, x int, fwd, rev FMIndex, minIntv uint32, minSpan int, h MEMHandler) int {
	if minIntv == 0 {
		minIntv = 1
	}

	// right extension, counted on the reverse index
	nRanges := 0
	rr := rev.Full()
	for y := x; y < len(pattern); y++ {
		next := rev.Extend(rr, pattern[y])
		if next.Size() < minIntv {
			break
		}
		rr = next
		nRanges++
	}
	if nRanges == 0 {
		return x
	}

	// left extension from every right end, longest first
	leftmost := x + 1
	for r := x + nRanges - 1; r >= x; r-- {
		fr := fwd.Full()
		l := r
		for ; l >= 0; l-- {
			next := fwd.Extend(fr, pattern[l])
			if next.Size() < minIntv {
				break
			}
			fr = next
		}
		begin := l + 1
		if begin < leftmost {
			if r+1-begin >= minSpan {
				h.Push(MEM{Range: fr, Begin: begin, End: r + 1})
			}
			leftmost = begin
		}
	}
	return x + nRanges
}

// AllMEMs sweeps pattern left to right, calling FindMEMs on each position
// not yet covered.
func AllMEMs(pattern []alphabet.Symbol, fwd, rev FMIndex, minIntv uint32, minSpan int, h MEMHandler) {
	for x := 0; x < len(pattern); {
		y := FindMEMs(pattern, x, fwd, rev, minIntv, minSpan, h)
		x = max(y, x+1)
	}
}
