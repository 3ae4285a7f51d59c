package graphcc

import (
	"fmt"

	"github.com/gilchrisn/streamcc/pkg/boruvka"
	"github.com/gilchrisn/streamcc/pkg/pairing"
)

// ErrMultipleGraphs is returned by NewGraph/LoadGraph when a Graph already
// exists in this process: sketch parameter tables are derived once from n
// and delta and shared by every supernode, so only one Graph may be live.
var ErrMultipleGraphs = fmt.Errorf("graphcc: a Graph already exists in this process")

// ErrUpdateLocked is returned by Update/BatchUpdate when a query is in
// progress (or has completed without continueAfter) and ingest is barred
// until the lock clears.
var ErrUpdateLocked = fmt.Errorf("graphcc: graph is locked for querying")

// ErrInvalidPair is re-exported from pkg/pairing for callers that only
// import pkg/graphcc.
var ErrInvalidPair = pairing.ErrInvalidPair

// ErrOutOfQueries is re-exported from pkg/boruvka: Borůvka reached its
// round budget without converging. Callers typically retry the query
// against a re-seeded graph.
var ErrOutOfQueries = boruvka.ErrOutOfQueries
