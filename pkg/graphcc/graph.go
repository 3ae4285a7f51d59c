// Package graphcc ties the pairing codec, bucket sketches, supernodes, DSU
// and Borůvka driver together into a single streaming connected-components
// engine, and orchestrates ingest against a BatchSource/WorkerPool pair.
package graphcc

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/gilchrisn/streamcc/pkg/boruvka"
	"github.com/gilchrisn/streamcc/pkg/checkpoint"
	"github.com/gilchrisn/streamcc/pkg/dsu"
	"github.com/gilchrisn/streamcc/pkg/pairing"
	"github.com/gilchrisn/streamcc/pkg/sketch"
	"github.com/gilchrisn/streamcc/pkg/supernode"
)

// graphExists enforces the process-wide singleton: sketch parameter tables
// are derived once from n and delta and shared by every supernode, so a
// second live Graph would silently diverge from the first's coordinate
// space.
var graphExists atomic.Bool

// Graph is a fully dynamic streaming connected-components engine over n
// vertices.
type Graph struct {
	seed          uint64
	n             uint64
	logN          int
	failureFactor uint32

	params     *sketch.Params
	supernodes []*supernode.Supernode
	dsu        *dsu.DSU

	numUpdates   atomic.Uint64
	updateLocked atomic.Bool

	source BatchSource
	pool   WorkerPool
	ckpt   checkpoint.Strategy

	// queryMu serializes ConnectedComponents and WriteBinary against each
	// other: concurrent queries are disallowed.
	queryMu sync.Mutex

	log zerolog.Logger
}

// Options bundles the collaborators and tuning knobs a Graph is built
// with, mirroring config.Config's fields relevant to graph construction.
type Options struct {
	Seed          uint64
	FailureFactor uint32
	Source        BatchSource
	Pool          WorkerPool
	Checkpoint    checkpoint.Strategy
	Logger        zerolog.Logger
}

// NewGraph constructs a fresh Graph over n vertices with empty supernodes.
func NewGraph(n uint64, opts Options) (*Graph, error) {
	if !graphExists.CompareAndSwap(false, true) {
		return nil, ErrMultipleGraphs
	}
	g := buildGraph(n, opts)
	g.log.Info().Uint64("n", n).Uint64("seed", g.seed).Msg("graph constructed")
	return g, nil
}

// Close releases the process-wide singleton slot, letting a later NewGraph
// or LoadGraph succeed. Intended for test teardown and process shutdown.
func (g *Graph) Close() {
	graphExists.Store(false)
}

func buildGraph(n uint64, opts Options) *Graph {
	d := pairing.SketchLength(n)
	params := sketch.NewParamsWithD(n, d, opts.FailureFactor)
	logN := logBase2Ceil(n)

	failureFactor := opts.FailureFactor
	if failureFactor == 0 {
		failureFactor = 1
	}
	g := &Graph{
		seed:          opts.Seed,
		n:             n,
		logN:          logN,
		failureFactor: failureFactor,
		params:        params,
		dsu:           dsu.New(n),
		source:        opts.Source,
		pool:          opts.Pool,
		ckpt:          opts.Checkpoint,
		log:           opts.Logger,
	}
	// Every vertex's supernode is seeded from the same global seed: sketch i
	// of any two vertices must share a hash family for their bucket vectors
	// to be linearly compatible under coordinate-wise XOR (Merge relies
	// on this — see sketch.Sketch.Merge's seed check).
	g.supernodes = make([]*supernode.Supernode, n)
	for v := uint64(0); v < n; v++ {
		g.supernodes[v] = supernode.New(params, opts.Seed, logN)
	}
	return g
}

func logBase2Ceil(n uint64) int {
	logN := 0
	for (uint64(1) << uint(logN)) < n {
		logN++
	}
	if logN < 1 {
		logN = 1
	}
	return logN
}

// N returns the vertex count.
func (g *Graph) N() uint64 { return g.n }

// NumUpdates returns the number of individual edge occurrences applied so
// far (not deduplicated for cancellation).
func (g *Graph) NumUpdates() uint64 { return g.numUpdates.Load() }

// Locked reports whether ingest is currently barred.
func (g *Graph) Locked() bool { return g.updateLocked.Load() }

// Update routes a single edge event into the BatchSource, attributing it
// to both endpoints' per-source queues: each endpoint's cut sketch needs to
// see the edge, since either side may end up sampling across it.
func (g *Graph) Update(edge Edge, op EdgeOp) error {
	if g.updateLocked.Load() {
		return ErrUpdateLocked
	}
	return g.source.Insert(edge, op)
}

// BatchUpdate folds a batch of neighbor ids for src into a delta supernode
// using scratch as caller-provided scratch space, then applies it to
// src's live supernode. Called by a WorkerPool worker, once per drained
// batch, serialized per source vertex by the pool's own dispatch.
func (g *Graph) BatchUpdate(src uint64, dsts []uint64, scratch *supernode.Supernode) error {
	if g.updateLocked.Load() {
		return ErrUpdateLocked
	}
	if err := g.supernodes[src].GenerateDelta(src, dsts, scratch); err != nil {
		return fmt.Errorf("graphcc: generate delta for vertex %d: %w", src, err)
	}
	if err := g.supernodes[src].ApplyDelta(scratch); err != nil {
		return fmt.Errorf("graphcc: apply delta for vertex %d: %w", src, err)
	}
	g.numUpdates.Add(uint64(len(dsts)))
	return nil
}

// NewScratch returns a scratch supernode suitable for repeated BatchUpdate
// calls against src: its sketch bank is seeded from the same global seed as
// every live supernode, since ApplyDelta's bucket-wise merge requires
// matching seeds.
func (g *Graph) NewScratch(src uint64) *supernode.Supernode {
	return supernode.New(g.params, g.seed, g.logN)
}

// ConnectedComponents flushes the ingest path, pauses the worker pool, and
// runs the Borůvka round loop. If continueAfter is true, a checkpoint is
// taken before the round loop mutates supernode state, and query state is
// rewound (and ingest unlocked) once components are computed; otherwise
// the graph is left locked, matching the original's single-shot query
// design.
func (g *Graph) ConnectedComponents(ctx context.Context, continueAfter bool) ([][]uint64, error) {
	g.queryMu.Lock()
	defer g.queryMu.Unlock()

	if err := g.source.ForceFlush(ctx); err != nil {
		return nil, fmt.Errorf("graphcc: force flush: %w", err)
	}
	if g.pool != nil {
		if err := g.pool.Pause(ctx); err != nil {
			return nil, fmt.Errorf("graphcc: pause worker pool: %w", err)
		}
	}
	g.updateLocked.Store(true)

	drv := &boruvka.Driver{Supernodes: g.supernodes, DSU: g.dsu, LogN: g.logN}

	var strategy checkpoint.Strategy
	if continueAfter {
		strategy = g.ckpt
	}

	if err := drv.Run(ctx, strategy); err != nil {
		g.log.Error().Err(err).Msg("connected components query failed")
		return nil, err
	}

	components := g.collectComponents()

	if continueAfter {
		if strategy != nil {
			if err := strategy.Restore(g.supernodes); err != nil {
				return nil, fmt.Errorf("graphcc: restore checkpoint: %w", err)
			}
		}
		for _, sn := range g.supernodes {
			sn.ResetQueryState()
		}
		g.dsu.Reset()
		g.updateLocked.Store(false)
		if g.pool != nil {
			if err := g.pool.Resume(); err != nil {
				return nil, fmt.Errorf("graphcc: resume worker pool: %w", err)
			}
		}
	}

	g.log.Info().Int("components", len(components)).Bool("continue_after", continueAfter).Msg("connected components computed")
	return components, nil
}

func (g *Graph) collectComponents() [][]uint64 {
	byRoot := make(map[uint64][]uint64)
	for v := uint64(0); v < g.n; v++ {
		root := g.dsu.Find(v)
		byRoot[root] = append(byRoot[root], v)
	}
	out := make([][]uint64, 0, len(byRoot))
	for _, members := range byRoot {
		sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
		out = append(out, members)
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

// WriteBinary serializes the graph to w in the format LoadGraph expects. It
// flushes the ingest path and pauses the worker pool first, exactly as
// ConnectedComponents does, so the dump reflects every update accepted so
// far rather than whatever happened to be applied when the caller invoked
// it; the pool is resumed once the dump completes so the graph remains live.
func (g *Graph) WriteBinary(ctx context.Context, w io.Writer) error {
	g.queryMu.Lock()
	defer g.queryMu.Unlock()

	if err := g.source.ForceFlush(ctx); err != nil {
		return fmt.Errorf("graphcc: force flush: %w", err)
	}
	if g.pool != nil {
		if err := g.pool.Pause(ctx); err != nil {
			return fmt.Errorf("graphcc: pause worker pool: %w", err)
		}
		defer func() {
			if err := g.pool.Resume(); err != nil {
				g.log.Error().Err(err).Msg("failed to resume worker pool after binary dump")
			}
		}()
	}
	return writeGraph(w, g)
}
