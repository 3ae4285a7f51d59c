// Package workerpool drains a graphcc.BatchSource and applies batches to a
// graphcc.Graph concurrently, one goroutine per partition group, pausable
// so a query can run against a quiescent graph.
package workerpool

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/gilchrisn/streamcc/pkg/graphcc"
	"github.com/gilchrisn/streamcc/pkg/supernode"
)

// Pool implements graphcc.WorkerPool over a graphcc.Drainer-capable
// BatchSource. Its source must implement graphcc.Drainer; Start returns an
// error otherwise, since there is no other supported way to pull batches.
type Pool struct {
	numGroups int
	log       zerolog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	pauseMu sync.RWMutex
	paused  bool
	// pauseGen is closed and replaced on each Resume; workers parked in
	// waitIfPaused wait on it to learn that the pause has ended.
	pauseGen chan struct{}
}

// New returns a Pool with numGroups worker goroutines. numGroups is clamped
// to at least 1.
func New(numGroups int, log zerolog.Logger) *Pool {
	if numGroups < 1 {
		numGroups = 1
	}
	return &Pool{numGroups: numGroups, log: log}
}

// NumGroups reports the worker goroutine count.
func (p *Pool) NumGroups() int { return p.numGroups }

// Start launches NumGroups() worker goroutines, each draining its partition
// of source and applying batches to graph via BatchUpdate. Start returns
// once workers are launched; it does not block for their lifetime.
func (p *Pool) Start(ctx context.Context, graph *graphcc.Graph, source graphcc.BatchSource, scratchSize int) error {
	drainer, ok := source.(graphcc.Drainer)
	if !ok {
		return fmt.Errorf("workerpool: source %T does not implement graphcc.Drainer", source)
	}

	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("workerpool: already started")
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true
	p.pauseGen = make(chan struct{})
	p.mu.Unlock()

	for group := 0; group < p.numGroups; group++ {
		group := group
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.runWorker(runCtx, group, graph, drainer, scratchSize)
		}()
	}
	return nil
}

func (p *Pool) runWorker(ctx context.Context, group int, graph *graphcc.Graph, drainer graphcc.Drainer, scratchSize int) {
	scratch := make(map[uint64]*supernode.Supernode, scratchSize)
	for {
		if ctx.Err() != nil {
			return
		}
		p.waitIfPaused(ctx)
		if ctx.Err() != nil {
			return
		}

		drainCtx, stop := context.WithCancel(ctx)
		batches := drainer.Drain(drainCtx, group, p.numGroups)

	drainLoop:
		for {
			select {
			case <-ctx.Done():
				stop()
				return
			case b, ok := <-batches:
				if !ok {
					break drainLoop
				}
				sn, found := scratch[b.Src]
				if !found {
					sn = graph.NewScratch(b.Src)
					scratch[b.Src] = sn
				}
				if err := graph.BatchUpdate(b.Src, b.Dsts, sn); err != nil {
					p.log.Error().Err(err).Uint64("src", b.Src).Msg("batch update failed")
				}
				b.Done()
			}
			if p.isPaused() {
				stop()
				break drainLoop
			}
		}
		stop()
	}
}

func (p *Pool) isPaused() bool {
	p.pauseMu.RLock()
	defer p.pauseMu.RUnlock()
	return p.paused
}

func (p *Pool) waitIfPaused(ctx context.Context) {
	for {
		p.pauseMu.RLock()
		paused := p.paused
		gen := p.pauseGen
		p.pauseMu.RUnlock()
		if !paused {
			return
		}
		select {
		case <-gen:
		case <-ctx.Done():
			return
		}
	}
}

// Pause blocks new batch dispatch until Resume is called. Any batch already
// pulled from the drainer is applied before the worker parks. Pause returns
// without waiting for workers to park: a worker that is waiting for a batch
// checks the pause flag only after it has applied the next batch it receives.
func (p *Pool) Pause(ctx context.Context) error {
	p.pauseMu.Lock()
	p.paused = true
	p.pauseMu.Unlock()
	return nil
}

// Resume releases workers parked by Pause.
func (p *Pool) Resume() error {
	p.pauseMu.Lock()
	p.paused = false
	old := p.pauseGen
	p.pauseGen = make(chan struct{})
	p.pauseMu.Unlock()
	close(old)
	return nil
}

// Stop cancels every worker goroutine and waits for them to exit.
func (p *Pool) Stop() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	cancel := p.cancel
	p.running = false
	p.mu.Unlock()

	cancel()
	p.wg.Wait()
	return nil
}
