// Package gutter provides an in-memory BatchSource: one buffered channel
// per source vertex, drained by a WorkerPool. Named after the disk-backed
// "gutter trees" real streaming graph systems use to batch updates before
// they touch a sketch; this standalone variant keeps everything in memory,
// which is the only buffering strategy this implementation carries (see
// the UseDiskBuffer non-goal in the configuration table).
package gutter

import (
	"context"
	"fmt"
	"sync"

	"github.com/gilchrisn/streamcc/pkg/graphcc"
)

type queuedItem struct {
	dst uint64
}

// StandaloneGutters is an in-memory graphcc.BatchSource and graphcc.Drainer:
// one buffered channel per source vertex, plus a WaitGroup tracking every
// item inserted but not yet applied, so ForceFlush can block until the
// pipeline is empty.
type StandaloneGutters struct {
	n       uint64
	queues  []chan queuedItem
	wg      sync.WaitGroup
	closeMu sync.Mutex
	closed  bool
}

// New returns a StandaloneGutters for n vertices, each with a channel
// buffered to queueSize.
func New(n uint64, queueSize int) *StandaloneGutters {
	if queueSize < 1 {
		queueSize = 1
	}
	g := &StandaloneGutters{n: n, queues: make([]chan queuedItem, n)}
	for i := range g.queues {
		g.queues[i] = make(chan queuedItem, queueSize)
	}
	return g
}

// Insert attributes edge to both endpoints' per-source queues: either
// endpoint's cut sketch may end up sampling across this edge, so both must
// see it. op is not distinguished here — an insert and a delete both
// enqueue the same coordinate toggle; see graphcc.EdgeOp for why that's
// correct.
func (g *StandaloneGutters) Insert(edge graphcc.Edge, op graphcc.EdgeOp) error {
	if edge.U >= g.n || edge.V >= g.n {
		return fmt.Errorf("gutter: vertex out of range: edge=%+v n=%d", edge, g.n)
	}
	if edge.U == edge.V {
		return fmt.Errorf("gutter: self-loop edge rejected: %+v", edge)
	}
	g.wg.Add(2)
	g.queues[edge.U] <- queuedItem{dst: edge.V}
	g.queues[edge.V] <- queuedItem{dst: edge.U}
	return nil
}

// ForceFlush blocks until every item inserted so far has been drained and
// applied (its Batch's Done called), or ctx is canceled first.
func (g *StandaloneGutters) ForceFlush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Drain returns a channel of single-item batches for every vertex v with
// v%numGroups==group, closing the returned channel once ctx is canceled.
func (g *StandaloneGutters) Drain(ctx context.Context, group, numGroups int) <-chan graphcc.Batch {
	out := make(chan graphcc.Batch)
	var wg sync.WaitGroup
	for v := uint64(group); v < g.n; v += uint64(numGroups) {
		v := v
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case item, ok := <-g.queues[v]:
					if !ok {
						return
					}
					batch := graphcc.Batch{Src: v, Dsts: []uint64{item.dst}, Done: g.wg.Done}
					select {
					case out <- batch:
					case <-ctx.Done():
						g.wg.Done()
						return
					}
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Close closes every per-vertex queue. Only safe once no further Insert
// calls will be made.
func (g *StandaloneGutters) Close() {
	g.closeMu.Lock()
	defer g.closeMu.Unlock()
	if g.closed {
		return
	}
	g.closed = true
	for _, q := range g.queues {
		close(q)
	}
}
