package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/fmsearch/internal/refindex"
	"github.com/kittclouds/fmsearch/pkg/alphabet"
	"github.com/kittclouds/fmsearch/pkg/backend"
	"github.com/kittclouds/fmsearch/pkg/fmindex"
)

func TestMEMFilterHitConservation(t *testing.T) {
	rng := newRNG(123)
	text := refindex.RandomText(rng, 3000)
	fwd, rev := buildPair(t, text, 8)
	reads := sampleReads(rng, text, 30, 80, 0.04)
	reads = append(reads, alphabet.Encode("NNNN"), nil)

	runForAllBackends(t, func(t *testing.T, b backend.Backend) {
		f := NewMEMFilter(b, 0)
		total := f.Rank(fwd, rev, reads, 1, 15)
		assert.Empty(t, f.Truncations())
		require.Positive(t, total)

		var sum uint64
		for _, m := range f.MEMs() {
			sum += uint64(m.Range.Size())
			assert.GreaterOrEqual(t, m.Span(), 15)
		}
		require.Equal(t, sum, total)
		assert.Empty(t, f.QueryMEMs(len(reads)-1))
		assert.Empty(t, f.QueryMEMs(len(reads)-2))

		hits, err := f.Locate(0, total, nil)
		require.NoError(t, err)
		require.Len(t, hits, int(total))
		for _, h := range hits {
			span := reads[h.String][h.Begin:h.End]
			require.LessOrEqual(t, int(h.RefPos)+len(span), len(text))
			require.Equal(t, span, text[h.RefPos:int(h.RefPos)+len(span)])
		}

		var paged []MEMHit
		require.NoError(t, f.Each(11, func(w []MEMHit) error {
			paged = append(paged, w...)
			return nil
		}))
		assert.Equal(t, hits, paged)
	})
}

func TestMEMFilterSourceRead(t *testing.T) {
	rng := newRNG(4)
	text := refindex.RandomText(rng, 2000)
	fwd, rev := buildPair(t, text, 4)

	// an unmutated read is one MEM located where it was cut
	read := text[700:760]
	f := NewMEMFilter(backend.NewSequential(), 0)
	total := f.Rank(fwd, rev, [][]alphabet.Symbol{read}, 1, 20)
	require.Len(t, f.MEMs(), 1)
	assert.Equal(t, 0, f.MEMs()[0].Begin)
	assert.Equal(t, 60, f.MEMs()[0].End)

	hits, err := f.Locate(0, total, nil)
	require.NoError(t, err)
	var found bool
	for _, h := range hits {
		found = found || h.RefPos == 700
	}
	assert.True(t, found)
}

func TestMEMFilterCap(t *testing.T) {
	// heavily mutated reads break into many short MEMs
	rng := newRNG(8)
	text := refindex.RandomText(rng, 1500)
	fwd, rev := buildPair(t, text, 16)
	reads := sampleReads(rng, text, 3, 200, 0.2)

	runForAllBackends(t, func(t *testing.T, b backend.Backend) {
		full := NewMEMFilter(b, 0)
		full.Rank(fwd, rev, reads, 1, 1)
		require.Empty(t, full.Truncations())

		capped := NewMEMFilter(b, 2)
		total := capped.Rank(fwd, rev, reads, 1, 1)
		require.Len(t, capped.Truncations(), len(reads))
		for _, tr := range capped.Truncations() {
			assert.Equal(t, 2, tr.Stored)
			assert.Equal(t, len(full.QueryMEMs(int(tr.String))), tr.Attempted)
			// the cap keeps the first MEMs found
			assert.Equal(t, full.QueryMEMs(int(tr.String))[:2], capped.QueryMEMs(int(tr.String)))
		}
		assert.Len(t, capped.MEMs(), 2*len(reads))

		var sum uint64
		for _, m := range capped.MEMs() {
			sum += uint64(m.Range.Size())
		}
		assert.Equal(t, sum, total)
	})
}

func TestMEMFilterBackendsAgree(t *testing.T) {
	rng := newRNG(31)
	text := refindex.RandomText(rng, 5000)
	fwd, rev := buildPair(t, text, 8)
	reads := sampleReads(rng, text, 200, 100, 0.05)

	seq := NewMEMFilter(backend.NewSequential(), 0)
	total := seq.Rank(fwd, rev, reads, 2, 10)
	want, err := seq.Locate(0, total, nil)
	require.NoError(t, err)

	par := NewMEMFilter(newParallel(t, 6), 0)
	require.Equal(t, total, par.Rank(fwd, rev, reads, 2, 10))
	got, err := par.Locate(0, total, nil)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, seq.MEMs(), par.MEMs())
}

func TestMEMFilterLocateNeedsSSA(t *testing.T) {
	text := alphabet.Encode("ACGTTGCAACGTTTGCA")
	located, rev := buildPair(t, text, 2)
	bare := located.WithSSA(nil)

	runForAllBackends(t, func(t *testing.T, b backend.Backend) {
		f := NewMEMFilter(b, 0)
		total := f.Rank(bare, rev, [][]alphabet.Symbol{alphabet.Encode("TTGCA")}, 1, 1)
		require.Positive(t, total)

		_, err := f.Locate(0, total, nil)
		assert.ErrorIs(t, err, fmindex.ErrNoSSA)
		assert.ErrorIs(t, f.Each(4, func([]MEMHit) error { return nil }), fmindex.ErrNoSSA)

		// an empty window never touches the samples
		hits, err := f.Locate(total, total, nil)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})
}

func TestMEMFilterInvalidWindow(t *testing.T) {
	fwd, rev := buildPair(t, alphabet.Encode("ACGTTGCAACGT"), 2)
	f := NewMEMFilter(backend.NewSequential(), 0)
	total := f.Rank(fwd, rev, [][]alphabet.Symbol{alphabet.Encode("TTGCA")}, 1, 1)

	_, err := f.Locate(0, total+1, nil)
	assert.ErrorIs(t, err, ErrInvalidWindow)
	assert.Equal(t, fmindex.DefaultMEMCapacity, f.Capacity())
}

func TestMEMFilterTruncationBackendsAgree(t *testing.T) {
	rng := newRNG(66)
	text := refindex.RandomText(rng, 4000)
	fwd, rev := buildPair(t, text, 4)
	reads := sampleReads(rng, text, 300, 120, 0.15)

	seq := NewMEMFilter(backend.NewSequential(), 3)
	total := seq.Rank(fwd, rev, reads, 1, 4)
	require.NotEmpty(t, seq.Truncations())
	want, err := seq.Locate(0, total, nil)
	require.NoError(t, err)

	par := NewMEMFilter(newParallel(t, 8), 3)
	require.Equal(t, total, par.Rank(fwd, rev, reads, 1, 4))
	assert.Equal(t, seq.Truncations(), par.Truncations())
	assert.Equal(t, seq.MEMs(), par.MEMs())
	for i := range reads {
		assert.Equal(t, seq.QueryMEMs(i), par.QueryMEMs(i), "read %d", i)
	}
	got, err := par.Locate(0, total, nil)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
