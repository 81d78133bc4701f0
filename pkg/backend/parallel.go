package backend

import (
	"fmt"
	"runtime"
	"slices"
	"sync"

	"github.com/oarkflow/gopool"
)

// minGrain is the smallest chunk the global steps (Scan, Sort,
// RunLengthEncode) hand to a worker. Inputs below it run inline.
const minGrain = 1024

// Parallel fans work out over a gopool worker pool. The pool is shared by
// all calls; each call waits only for its own tasks.
type Parallel struct {
	pool    *gopool.Pool[func(), struct{}, struct{}]
	workers int
}

// NewParallel starts a fixed pool of workers goroutines, of which at most
// active run at once. Non-positive values fall back to GOMAXPROCS and
// workers.
func NewParallel(workers, active int) (*Parallel, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if active <= 0 || active > workers {
		active = workers
	}
	pool, err := gopool.NewPoolSimple(workers, func(job gopool.Job[func()], _ int) error {
		job.Payload()
		return nil
	}, gopool.FixedWorkers(), gopool.MaxActiveWorkers(active), gopool.Name("fmsearch"))
	if err != nil {
		return nil, fmt.Errorf("backend: start pool: %w", err)
	}
	return &Parallel{pool: pool, workers: active}, nil
}

// Close drains and stops the worker pool.
func (p *Parallel) Close() { p.pool.StopAndWait() }

func (p *Parallel) Name() string { return "parallel" }

// Workers returns the number of workers that run at once.
func (p *Parallel) Workers() int { return p.workers }

// chunks splits [0,n) into min(4*workers, ceil(n/grain)) contiguous pieces
// of near-equal size.
func (p *Parallel) chunks(n, grain int) [][2]int {
	if n <= 0 {
		return nil
	}
	parts := min(4*p.workers, (n+grain-1)/grain)
	out := make([][2]int, parts)
	for c := range out {
		out[c] = [2]int{c * n / parts, (c + 1) * n / parts}
	}
	return out
}

// run executes fn once per chunk and waits for all of them.
func (p *Parallel) run(chunks [][2]int, fn func(c int, lo, hi int)) {
	if len(chunks) == 1 {
		fn(0, chunks[0][0], chunks[0][1])
		return
	}
	var wg sync.WaitGroup
	wg.Add(len(chunks))
	for c, ch := range chunks {
		p.pool.Submit(func() {
			defer wg.Done()
			fn(c, ch[0], ch[1])
		})
	}
	wg.Wait()
}

// Map splits by worker count alone: one item may be a whole MEM search or
// SSA walk, so even small batches spread over the pool.
func (p *Parallel) Map(n int, fn func(i int)) {
	p.run(p.chunks(n, 1), func(_ int, lo, hi int) {
		for i := lo; i < hi; i++ {
			fn(i)
		}
	})
}

// Scan is a blocked scan: each chunk scans locally, chunk totals are carried
// serially, then every chunk but the first adds its carry.
func (p *Parallel) Scan(values []uint64) {
	chunks := p.chunks(len(values), minGrain)
	if len(chunks) == 0 {
		return
	}
	p.run(chunks, func(_ int, lo, hi int) {
		for i := lo + 1; i < hi; i++ {
			values[i] += values[i-1]
		}
	})
	carry := make([]uint64, len(chunks))
	for c := 1; c < len(chunks); c++ {
		carry[c] = carry[c-1] + values[chunks[c-1][1]-1]
	}
	p.run(chunks, func(c int, lo, hi int) {
		if c == 0 {
			return
		}
		for i := lo; i < hi; i++ {
			values[i] += carry[c]
		}
	})
}

// Sort sorts chunks concurrently, then merges neighbouring runs pairwise
// until one run remains.
func (p *Parallel) Sort(keys []uint64) {
	runs := p.chunks(len(keys), minGrain)
	if len(runs) <= 1 {
		slices.Sort(keys)
		return
	}
	p.run(runs, func(_ int, lo, hi int) { slices.Sort(keys[lo:hi]) })

	src, dst := keys, make([]uint64, len(keys))
	for len(runs) > 1 {
		merged := make([][2]int, 0, (len(runs)+1)/2)
		for i := 0; i < len(runs); i += 2 {
			if i+1 < len(runs) {
				merged = append(merged, [2]int{runs[i][0], runs[i+1][1]})
			} else {
				merged = append(merged, runs[i])
			}
		}
		p.run(merged, func(c int, lo, hi int) {
			left := runs[2*c]
			if 2*c+1 >= len(runs) {
				copy(dst[lo:hi], src[lo:hi])
				return
			}
			mergeRuns(dst[lo:hi], src[left[0]:left[1]], src[left[1]:hi])
		})
		runs = merged
		src, dst = dst, src
	}
	if &src[0] != &keys[0] {
		copy(keys, src)
	}
}

func mergeRuns(dst, a, b []uint64) {
	i, j, k := 0, 0, 0
	for i < len(a) && j < len(b) {
		if b[j] < a[i] {
			dst[k] = b[j]
			j++
		} else {
			dst[k] = a[i]
			i++
		}
		k++
	}
	k += copy(dst[k:], a[i:])
	copy(dst[k:], b[j:])
}

// RunLengthEncode flags run heads, scans the flags into output slots and
// scatters heads and run lengths with Map.
func (p *Parallel) RunLengthEncode(keys []uint64) ([]uint64, []uint32) {
	n := len(keys)
	if n == 0 {
		return make([]uint64, 0), make([]uint32, 0)
	}
	slot := make([]uint64, n)
	p.Map(n, func(i int) {
		if i == 0 || keys[i] != keys[i-1] {
			slot[i] = 1
		}
	})
	p.Scan(slot)

	runs := int(slot[n-1])
	heads := make([]int, runs+1)
	heads[runs] = n
	values := make([]uint64, runs)
	p.Map(n, func(i int) {
		if i == 0 || keys[i] != keys[i-1] {
			r := slot[i] - 1
			heads[r] = i
			values[r] = keys[i]
		}
	})
	counts := make([]uint32, runs)
	p.Map(runs, func(r int) {
		counts[r] = uint32(heads[r+1] - heads[r])
	})
	return values, counts
}
