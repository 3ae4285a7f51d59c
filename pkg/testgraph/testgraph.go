// Package testgraph builds small deterministic graphs for round-trip and
// end-to-end testing, using gonum's simple.UndirectedGraph the way the
// teacher's coordinates package builds its graphs for downstream analysis.
package testgraph

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/graph/simple"

	"github.com/gilchrisn/streamcc/pkg/graphcc"
)

// Graph is a plain edge list plus its vertex count, independent of any
// sketch machinery, so tests can compute ground-truth components with a
// simple BFS and compare against graphcc's answer.
type Graph struct {
	N     uint64
	Edges []graphcc.Edge
}

// MultiplesGraph connects every vertex v>=2 to each of its multiples 2v,
// 3v, ... below n; vertices 0 and 1 stay isolated, as does every prime
// greater than (n-1)/2. A small, deterministic, highly structured graph
// useful for exercising many small components collapsing as edges stream
// in.
func MultiplesGraph(n uint64) *Graph {
	g := &Graph{N: n}
	seen := make(map[[2]uint64]bool)
	add := func(u, v uint64) {
		if u == v {
			return
		}
		if u > v {
			u, v = v, u
		}
		key := [2]uint64{u, v}
		if seen[key] {
			return
		}
		seen[key] = true
		g.Edges = append(g.Edges, graphcc.Edge{U: u, V: v})
	}
	for v := uint64(2); v < n; v++ {
		for u := 2 * v; u < n; u += v {
			add(v, u)
		}
	}
	return g
}

// RandomSpanningGraph builds a random spanning tree over n vertices (so the
// graph is guaranteed connected), then adds extraEdges additional random
// edges. Deterministic for a given seed.
func RandomSpanningGraph(n uint64, extraEdges int, seed int64) *Graph {
	g := &Graph{N: n}
	if n == 0 {
		return g
	}
	rng := rand.New(rand.NewSource(seed))
	order := rng.Perm(int(n))

	seen := make(map[[2]uint64]bool)
	add := func(u, v uint64) {
		if u == v {
			return
		}
		if u > v {
			u, v = v, u
		}
		key := [2]uint64{u, v}
		if seen[key] {
			return
		}
		seen[key] = true
		g.Edges = append(g.Edges, graphcc.Edge{U: u, V: v})
	}

	for i := 1; i < len(order); i++ {
		parent := order[rng.Intn(i)]
		add(uint64(order[i]), uint64(parent))
	}

	for i := 0; i < extraEdges && n > 1; i++ {
		u := uint64(rng.Intn(int(n)))
		v := uint64(rng.Intn(int(n)))
		add(u, v)
	}
	return g
}

// ToGonum builds a simple.UndirectedGraph mirroring g's vertices and edges,
// for callers that want to run gonum's own topology analyses on it.
func (g *Graph) ToGonum() *simple.UndirectedGraph {
	gg := simple.NewUndirectedGraph()
	for v := uint64(0); v < g.N; v++ {
		gg.AddNode(simple.Node(int64(v)))
	}
	for _, e := range g.Edges {
		gg.SetEdge(gg.NewEdge(simple.Node(int64(e.U)), simple.Node(int64(e.V))))
	}
	return gg
}

// Components computes ground-truth connected components via BFS over the
// plain edge list, sorted for comparison against graphcc.Graph's output.
func (g *Graph) Components() [][]uint64 {
	adj := make(map[uint64][]uint64, g.N)
	for _, e := range g.Edges {
		adj[e.U] = append(adj[e.U], e.V)
		adj[e.V] = append(adj[e.V], e.U)
	}

	visited := make([]bool, g.N)
	var components [][]uint64
	for start := uint64(0); start < g.N; start++ {
		if visited[start] {
			continue
		}
		queue := []uint64{start}
		visited[start] = true
		var members []uint64
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			members = append(members, v)
			for _, nb := range adj[v] {
				if !visited[nb] {
					visited[nb] = true
					queue = append(queue, nb)
				}
			}
		}
		sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
		components = append(components, members)
	}
	sort.Slice(components, func(i, j int) bool { return components[i][0] < components[j][0] })
	return components
}
