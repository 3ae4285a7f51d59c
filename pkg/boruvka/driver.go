// Package boruvka drives the Borůvka-emulation round loop over a bank of
// supernodes: repeated parallel cut-sampling followed by sequential
// union-find bookkeeping, until every component has run dry or the sketch
// budget is exhausted.
package boruvka

import (
	"context"
	"fmt"
	"math/bits"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/gilchrisn/streamcc/pkg/checkpoint"
	"github.com/gilchrisn/streamcc/pkg/dsu"
	"github.com/gilchrisn/streamcc/pkg/sketch"
	"github.com/gilchrisn/streamcc/pkg/supernode"
)

// ErrOutOfQueries is returned when the driver reaches LogN rounds without
// converging: every supernode's sketch bank is a fixed, exhaustible budget,
// and running out means the sampling failure probability was not beaten
// this time. Callers typically retry with a re-seeded graph.
var ErrOutOfQueries = fmt.Errorf("boruvka: exhausted sketch budget without convergence")

// Driver runs the round loop over a fixed slice of supernodes and a shared
// DSU, one per connected-components query.
type Driver struct {
	Supernodes []*supernode.Supernode
	DSU        *dsu.DSU
	LogN       int
}

// New builds a Driver for n vertices, sized to make LogN = ceil(log2(n))
// rounds available before ErrOutOfQueries.
func New(n int) *Driver {
	logN := 1
	if n > 1 {
		logN = bits.Len(uint(n - 1))
	}
	return &Driver{DSU: dsu.New(uint64(n)), LogN: logN}
}

type sampleResult struct {
	vertex uint64
	edge   supernode.Edge
	result sketch.SampleResult
}

// Run executes the round loop. If checkpointStrategy is non-nil, it is used
// to snapshot every vertex that will be sampled or merged in round 1
// (R0) before any mutation, so the caller can restore pre-query state
// afterward (continueAfter semantics live one layer up, in graphcc.Graph).
func (d *Driver) Run(ctx context.Context, checkpointStrategy checkpoint.Strategy) error {
	n := len(d.Supernodes)
	active := make([]uint64, n)
	for i := range active {
		active[i] = uint64(i)
	}

	if checkpointStrategy != nil {
		if err := checkpointStrategy.Backup(active, d.Supernodes); err != nil {
			return fmt.Errorf("boruvka: checkpoint backup: %w", err)
		}
	}

	toMerge := make([][]uint64, n)

	for round := 0; round < d.LogN; round++ {
		if err := ctx.Err(); err != nil {
			return d.abort(checkpointStrategy, err)
		}
		if len(active) == 0 {
			return nil
		}

		results, err := d.samplePhase(ctx, active)
		if err != nil {
			return d.abort(checkpointStrategy, err)
		}

		next, modified := d.mergePlanPhase(results, toMerge)

		if err := d.mergeApplyPhase(ctx, next, toMerge); err != nil {
			return d.abort(checkpointStrategy, err)
		}

		if !modified {
			return nil
		}
		active = next
	}
	return d.abort(checkpointStrategy, ErrOutOfQueries)
}

func (d *Driver) abort(strategy checkpoint.Strategy, cause error) error {
	if strategy != nil {
		if err := strategy.Restore(d.Supernodes); err != nil {
			return fmt.Errorf("%w (checkpoint restore also failed: %v)", cause, err)
		}
	}
	return cause
}

// samplePhase fans out one goroutine per active representative, bounded by
// GOMAXPROCS, joining before returning: an error returned by any goroutine
// fails the whole phase via errgroup. Panics are not recovered or turned
// into errors.
func (d *Driver) samplePhase(ctx context.Context, active []uint64) ([]sampleResult, error) {
	results := make([]sampleResult, len(active))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for idx, v := range active {
		idx, v := idx, v
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			edge, res := d.Supernodes[v].Sample()
			results[idx] = sampleResult{vertex: v, edge: edge, result: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// mergePlanPhase runs sequentially: it is pure union-find bookkeeping and
// isn't worth parallelizing, and the original's own boruvka_emulation does
// this step single-threaded too.
func (d *Driver) mergePlanPhase(results []sampleResult, toMerge [][]uint64) (next []uint64, modified bool) {
	seen := make(map[uint64]bool)
	for _, r := range results {
		switch r.result {
		case sketch.FAIL:
			if !seen[r.vertex] {
				next = append(next, r.vertex)
				seen[r.vertex] = true
			}
			modified = true
		case sketch.ZERO:
			// component complete; nothing to add to next
		case sketch.GOOD:
			a := d.DSU.Find(r.edge.U)
			b := d.DSU.Find(r.edge.V)
			if a == b {
				continue
			}
			root, merged := d.DSU.Union(a, b)
			if !merged {
				continue
			}
			absorbed := a
			if root == a {
				absorbed = b
			}
			toMerge[root] = append(toMerge[root], absorbed)
			toMerge[root] = append(toMerge[root], toMerge[absorbed]...)
			toMerge[absorbed] = nil
			modified = true
		}
	}

	// Drop any FAIL vertex whose toMerge has since been populated by a
	// merge into it (it will be resampled as the merged component's
	// representative instead of on its own), and unconditionally append
	// every root with pending merges: the FAIL list and the non-empty
	// toMerge roots are disjoint sets (a FAIL vertex with pending merges
	// was just filtered out above), so no further dedup is needed here —
	// a root that failed sampling this round but still gained an absorbed
	// vertex must be re-added so it gets resampled next round.
	filtered := next[:0]
	for _, v := range next {
		if len(toMerge[v]) == 0 {
			filtered = append(filtered, v)
		}
	}
	next = filtered
	for root, absorbed := range toMerge {
		if len(absorbed) == 0 {
			continue
		}
		next = append(next, uint64(root))
	}
	return next, modified
}

// mergeApplyPhase fans out one goroutine per root with pending absorptions,
// bucket-wise merging each absorbed supernode into its new root. The
// pre-round-1 backup already covers every vertex, so unlike the original's
// boruvka_emulation there is no separate first-round clone-on-write step
// here.
func (d *Driver) mergeApplyPhase(ctx context.Context, roots []uint64, toMerge [][]uint64) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, root := range roots {
		root := root
		absorbed := toMerge[root]
		if len(absorbed) == 0 {
			continue
		}
		toMerge[root] = nil
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for _, b := range absorbed {
				if err := d.Supernodes[root].Merge(d.Supernodes[b]); err != nil {
					return fmt.Errorf("boruvka: merge %d into %d: %w", b, root, err)
				}
			}
			return nil
		})
	}
	return g.Wait()
}
