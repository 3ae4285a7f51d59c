package boruvka

import (
	"context"
	"sort"
	"testing"

	"github.com/gilchrisn/streamcc/pkg/pairing"
	"github.com/gilchrisn/streamcc/pkg/sketch"
	"github.com/gilchrisn/streamcc/pkg/supernode"
)

const testGlobalSeed = uint64(1)

func buildDriver(t *testing.T, n int) (*Driver, *sketch.Params, int) {
	t.Helper()
	d := pairing.SketchLength(uint64(n))
	params := sketch.NewParamsWithD(uint64(n), d, 4)
	drv := New(n)
	logN := drv.LogN
	drv.Supernodes = make([]*supernode.Supernode, n)
	for i := 0; i < n; i++ {
		drv.Supernodes[i] = supernode.New(params, testGlobalSeed, logN)
	}
	return drv, params, logN
}

// insertEdge attributes the edge to both endpoints' cuts, as the ingest
// path does: each side samples independently, so both must see the edge.
func insertEdge(t *testing.T, drv *Driver, params *sketch.Params, logN int, u, v uint64) {
	t.Helper()
	scratchU := supernode.New(params, testGlobalSeed, logN)
	if err := drv.Supernodes[u].GenerateDelta(u, []uint64{v}, scratchU); err != nil {
		t.Fatalf("GenerateDelta(%d,%d): %v", u, v, err)
	}
	if err := drv.Supernodes[u].ApplyDelta(scratchU); err != nil {
		t.Fatalf("ApplyDelta at %d: %v", u, err)
	}

	scratchV := supernode.New(params, testGlobalSeed, logN)
	if err := drv.Supernodes[v].GenerateDelta(v, []uint64{u}, scratchV); err != nil {
		t.Fatalf("GenerateDelta(%d,%d): %v", v, u, err)
	}
	if err := drv.Supernodes[v].ApplyDelta(scratchV); err != nil {
		t.Fatalf("ApplyDelta at %d: %v", v, err)
	}
}

// deleteEdge folds a delete into the same coordinate a matching insert
// would have touched, canceling it if the insert is still live.
func deleteEdge(t *testing.T, drv *Driver, params *sketch.Params, logN int, u, v uint64) {
	insertEdge(t, drv, params, logN, u, v)
}

func components(drv *Driver, n int) [][]uint64 {
	byRoot := make(map[uint64][]uint64)
	for v := uint64(0); v < uint64(n); v++ {
		root := drv.DSU.Find(v)
		byRoot[root] = append(byRoot[root], v)
	}
	var out [][]uint64
	for _, members := range byRoot {
		sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
		out = append(out, members)
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

func TestScenarioPathConnectsAll(t *testing.T) {
	drv, params, logN := buildDriver(t, 4)
	insertEdge(t, drv, params, logN, 0, 1)
	insertEdge(t, drv, params, logN, 1, 2)
	insertEdge(t, drv, params, logN, 2, 3)

	if err := drv.Run(context.Background(), nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := components(drv, 4)
	if len(got) != 1 || len(got[0]) != 4 {
		t.Fatalf("components = %v, want a single component of 4", got)
	}
}

func TestScenarioTwoDisjointPairs(t *testing.T) {
	drv, params, logN := buildDriver(t, 4)
	insertEdge(t, drv, params, logN, 0, 1)
	insertEdge(t, drv, params, logN, 2, 3)

	if err := drv.Run(context.Background(), nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := components(drv, 4)
	want := [][]uint64{{0, 1}, {2, 3}}
	if !equalComponents(got, want) {
		t.Fatalf("components = %v, want %v", got, want)
	}
}

func TestScenarioDuplicateInsertCancels(t *testing.T) {
	drv, params, logN := buildDriver(t, 4)
	insertEdge(t, drv, params, logN, 0, 1)
	insertEdge(t, drv, params, logN, 0, 1)

	if err := drv.Run(context.Background(), nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := components(drv, 4)
	want := [][]uint64{{0}, {1}, {2}, {3}}
	if !equalComponents(got, want) {
		t.Fatalf("components = %v, want %v", got, want)
	}
}

func TestScenarioInsertThenDeleteCancels(t *testing.T) {
	drv, params, logN := buildDriver(t, 4)
	insertEdge(t, drv, params, logN, 0, 1)
	deleteEdge(t, drv, params, logN, 0, 1)

	if err := drv.Run(context.Background(), nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := components(drv, 4)
	want := [][]uint64{{0}, {1}, {2}, {3}}
	if !equalComponents(got, want) {
		t.Fatalf("components = %v, want %v", got, want)
	}
}

func TestRunTerminatesWithinLogNRounds(t *testing.T) {
	drv, params, logN := buildDriver(t, 8)
	for i := 0; i < 7; i++ {
		insertEdge(t, drv, params, logN, uint64(i), uint64(i+1))
	}
	err := drv.Run(context.Background(), nil)
	if err != nil && err != ErrOutOfQueries {
		t.Fatalf("Run returned unexpected error: %v", err)
	}
}

func equalComponents(got, want [][]uint64) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if len(got[i]) != len(want[i]) {
			return false
		}
		for j := range got[i] {
			if got[i][j] != want[i][j] {
				return false
			}
		}
	}
	return true
}
