package graphcc

import "context"

// Edge is an unordered vertex pair.
type Edge struct {
	U, V uint64
}

// EdgeOp names the caller's intent for a stream update. At the sketch
// layer both operations fold into the same coordinate toggle (see
// supernode.GenerateDelta): the distinction exists for API clarity and so
// BatchSource implementations can log or count inserts/deletes separately,
// not because the sketch treats them differently.
type EdgeOp int

const (
	Insert EdgeOp = iota
	Delete
)

func (op EdgeOp) String() string {
	if op == Delete {
		return "delete"
	}
	return "insert"
}

// BatchSource is the ingest-side collaborator a Graph is wired to: it
// receives individual edge events and groups them per source vertex,
// delivering batches to a WorkerPool for BatchUpdate.
type BatchSource interface {
	Insert(edge Edge, op EdgeOp) error
	ForceFlush(ctx context.Context) error
}

// WorkerPool drains a BatchSource and calls Graph.BatchUpdate, pausable so
// a query can run against a quiescent graph.
type WorkerPool interface {
	Start(ctx context.Context, graph *Graph, source BatchSource, scratchSize int) error
	Pause(ctx context.Context) error
	Resume() error
	Stop() error
	NumGroups() int
}

// Batch is one drained unit of ingest work: a source vertex and the
// destination ids accumulated for it since the last drain. Done must be
// called exactly once the batch has been applied (successfully or not),
// so the source's ForceFlush accounting stays accurate.
type Batch struct {
	Src  uint64
	Dsts []uint64
	Done func()
}

// Drainer is an optional capability a BatchSource implementation may offer
// so a WorkerPool can pull batches out of it directly, partitioned across
// worker groups. StandaloneGutters implements this; a BatchSource that
// doesn't is expected to be driven some other way by its paired WorkerPool.
type Drainer interface {
	Drain(ctx context.Context, group, numGroups int) <-chan Batch
}
