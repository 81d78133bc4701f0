// Command fmsmoke runs the seed search stack end to end over a random
// genome: index assembly, sample file round trips, q-gram and q-group
// filtering with diagonal merge, and MEM filtering.
package main

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hack-pad/hackpadfs/mem"
	osfs "github.com/hack-pad/hackpadfs/os"
	"github.com/oarkflow/log"

	"github.com/kittclouds/fmsearch/internal/config"
	"github.com/kittclouds/fmsearch/internal/refindex"
	"github.com/kittclouds/fmsearch/pkg/alphabet"
	"github.com/kittclouds/fmsearch/pkg/backend"
	"github.com/kittclouds/fmsearch/pkg/filter"
	"github.com/kittclouds/fmsearch/pkg/fmindex"
	"github.com/kittclouds/fmsearch/pkg/qgram"
)

func main() {
	configPath := flag.String("config", "", "JSON config file")
	genomeLen := flag.Int("genome", 20000, "random genome length")
	nReads := flag.Int("reads", 500, "number of reads")
	readLen := flag.Int("read-len", 100, "read length")
	parallel := flag.Bool("parallel", false, "use the parallel backend")
	seed := flag.Uint64("seed", 1, "random seed")
	pattern := flag.String("pattern", "GATTACA", "pattern to count and locate (ACGTN)")
	flag.Parse()

	host := osfs.NewFS()
	cfg := config.DefaultConfig()
	if *configPath != "" {
		path, err := hostPath(host, *configPath)
		if err != nil {
			fatal(err, "resolve config path")
		}
		if cfg, err = config.Load(host, path); err != nil {
			fatal(err, "load config")
		}
	}
	cfg = cfg.Merge(config.Config{Parallel: *parallel})
	if cfg.Q > qgram.MaxGroupQ {
		cfg.Q = qgram.MaxGroupQ
	}

	b, release, err := cfg.NewBackend()
	if err != nil {
		fatal(err, "start backend")
	}
	defer release()

	rng := rand.New(rand.NewPCG(*seed, *seed^0xfeed))
	genome := refindex.RandomText(rng, *genomeLen)
	// reads come from either strand; queries carry both orientations
	reads := make([][]alphabet.Symbol, *nReads)
	for i := range reads {
		start := rng.IntN(len(genome) - *readLen)
		reads[i] = refindex.Mutate(rng, genome[start:start+*readLen], 0.02)
		if rng.IntN(2) == 1 {
			reads[i] = alphabet.ReverseComplement(reads[i])
		}
	}
	queries := make([][]alphabet.Symbol, 0, 2*len(reads))
	queries = append(queries, reads...)
	for _, r := range reads {
		queries = append(queries, alphabet.ReverseComplement(r))
	}
	log.Info().Str("backend", b.Name()).Str("genome", humanize.Comma(int64(len(genome)))).
		Str("reads", humanize.Comma(int64(len(reads)))).Msg("generated input")

	fwd, rev, err := buildIndexes(cfg, host, genome)
	if err != nil {
		fatal(err, "build indexes")
	}
	fmt.Println("  ✓ FM-index pair assembled from sample files")

	if err := runPattern(fwd, genome, *pattern); err != nil {
		fatal(err, "pattern")
	}
	fmt.Println("  ✓ pattern occurrences located")

	if err := runQGram(cfg, b, genome, queries); err != nil {
		fatal(err, "q-gram filter")
	}
	fmt.Println("  ✓ q-gram and q-group filters agree")

	if err := runMEM(cfg, b, fwd, rev, genome, queries); err != nil {
		fatal(err, "MEM filter")
	}
	fmt.Println("  ✓ MEM filter hits verified")

	fmt.Println("\n✅ Smoke run passed")
}

func fatal(err error, stage string) {
	log.Error().Err(err).Str("stage", stage).Msg("smoke run failed")
	os.Exit(1)
}

// hostPath turns an OS path into a path on the host filesystem.
func hostPath(host *osfs.FS, p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return host.FromOSPath(abs)
}

// buildIndexes assembles the forward index through an in-memory sample file
// and the reverse index through one written to the host and mmapped back.
func buildIndexes(cfg config.Config, host *osfs.FS, genome []alphabet.Symbol) (fwd, rev fmindex.FMIndex, err error) {
	start := time.Now()
	fs, err := mem.NewFS()
	if err != nil {
		return fwd, rev, err
	}

	assemble := func(text []alphabet.Symbol) (alphabet.Packed, *fmindex.Samples, error) {
		parts, err := refindex.Build(text)
		if err != nil {
			return alphabet.Packed{}, nil, err
		}
		bare, err := fmindex.New(parts.BWT, parts.Primary, parts.L2, nil)
		if err != nil {
			return alphabet.Packed{}, nil, err
		}
		s, err := fmindex.SamplesFromIndex(bare, cfg.SampleInterval)
		return parts.BWT, s, err
	}

	bwt, samples, err := assemble(genome)
	if err != nil {
		return fwd, rev, err
	}
	if err := fmindex.WriteSamples(fs, "genome.sa", samples); err != nil {
		return fwd, rev, err
	}
	if samples, err = fmindex.ReadSamples(fs, "genome.sa"); err != nil {
		return fwd, rev, err
	}
	if fwd, err = fmindex.FromSamples(bwt, samples); err != nil {
		return fwd, rev, err
	}

	rbwt, rsamples, err := assemble(alphabet.Reverse(genome))
	if err != nil {
		return fwd, rev, err
	}
	dir, err := os.MkdirTemp("", "fmsmoke")
	if err != nil {
		return fwd, rev, err
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "genome.rsa")
	fsPath, err := hostPath(host, path)
	if err != nil {
		return fwd, rev, err
	}
	if err := fmindex.WriteSamples(host, fsPath, rsamples); err != nil {
		return fwd, rev, err
	}
	if rsamples, err = fmindex.MapSamples(path); err != nil {
		return fwd, rev, err
	}
	if rev, err = fmindex.FromSamples(rbwt, rsamples); err != nil {
		return fwd, rev, err
	}

	log.Info().Str("latency", time.Since(start).String()).Int("interval", int(fwd.SampledSuffixArray().Interval())).
		Str("samples", humanize.Bytes(uint64(4*len(samples.SA)))).Msg("indexes ready")
	return fwd, rev, nil
}

func runPattern(fwd fmindex.FMIndex, genome []alphabet.Symbol, pattern string) error {
	pat, err := alphabet.ParseStrict(pattern)
	if err != nil {
		return err
	}
	r := fwd.Match(pat)
	for row := r.Lo; !r.Empty() && row <= r.Hi; row++ {
		pos := int(fwd.Locate(row))
		if pos+len(pat) > len(genome) || alphabet.Decode(genome[pos:pos+len(pat)]) != alphabet.Decode(pat) {
			return fmt.Errorf("row %d located %s at %d", row, pattern, pos)
		}
	}
	log.Info().Str("pattern", pattern).Int("occurrences", int(r.Size())).Msg("pattern located")
	return nil
}

func runQGram(cfg config.Config, b backend.Backend, genome []alphabet.Symbol, strs [][]alphabet.Symbol) error {
	queries, err := qgram.ExtractQueries(strs, cfg.Q, cfg.QueryStep)
	if err != nil {
		return err
	}
	gramIdx, err := qgram.BuildQGramIndex(genome, cfg.Q)
	if err != nil {
		return err
	}
	groupIdx, err := qgram.BuildQGroupIndex(genome, cfg.Q)
	if err != nil {
		return err
	}

	top := 0
	for i := 1; i < gramIdx.Unique(); i++ {
		if gramIdx.Slots[i+1]-gramIdx.Slots[i] > gramIdx.Slots[top+1]-gramIdx.Slots[top] {
			top = i
		}
	}
	if gramIdx.Unique() > 0 {
		log.Info().Str("gram", alphabet.Decode(alphabet.UnpackGram(gramIdx.QGrams[top], cfg.Q))).
			Int("occurrences", int(gramIdx.Slots[top+1]-gramIdx.Slots[top])).Msg("most repeated q-gram")
	}

	var totals [2]uint64
	var merged [2]int
	for i, idx := range []qgram.Lookup{gramIdx, groupIdx} {
		start := time.Now()
		f := filter.NewQGramFilter(b)
		totals[i] = f.Rank(idx, queries)

		hits := make([]filter.QGramHit, 0, totals[i])
		err := f.Each(uint64(cfg.LocateWindow), func(w []filter.QGramHit) error {
			hits = append(hits, w...)
			return nil
		})
		if err != nil {
			return err
		}
		diags, err := f.Merge(cfg.MergeInterval, hits)
		if err != nil {
			return err
		}
		merged[i] = len(diags)
		log.Info().Int("q", cfg.Q).Str("queries", humanize.Comma(int64(len(queries)))).
			Str("hits", humanize.Comma(int64(totals[i]))).Int("diagonals", len(diags)).
			Str("latency", time.Since(start).String()).Msg("q-gram filter done")
	}
	if totals[0] != totals[1] || merged[0] != merged[1] {
		return fmt.Errorf("q-gram index found %d hits on %d diagonals, q-group index %d on %d",
			totals[0], merged[0], totals[1], merged[1])
	}
	return nil
}

func runMEM(cfg config.Config, b backend.Backend, fwd, rev fmindex.FMIndex, genome []alphabet.Symbol, strs [][]alphabet.Symbol) error {
	start := time.Now()
	f := filter.NewMEMFilter(b, cfg.MaxMEMsPerQuery)
	total := f.Rank(fwd, rev, strs, cfg.MinIntv, cfg.MinSpan)

	err := f.Each(uint64(cfg.LocateWindow), func(w []filter.MEMHit) error {
		for _, h := range w {
			span := strs[h.String][h.Begin:h.End]
			for j, s := range span {
				if genome[int(h.RefPos)+j] != s {
					return fmt.Errorf("MEM [%d,%d) of read %d mislocated at %d", h.Begin, h.End, h.String, h.RefPos)
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Info().Str("mems", humanize.Comma(int64(len(f.MEMs())))).Str("hits", humanize.Comma(int64(total))).
		Int("truncated", len(f.Truncations())).Str("latency", time.Since(start).String()).Msg("MEM filter done")
	return nil
}
