// Package supernode implements the per-vertex (and, after merges, per-component)
// cut abstraction the Borůvka driver samples from: a bank of independent
// L0-sampling sketches with a cursor that only ever advances.
package supernode

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"

	"github.com/gilchrisn/streamcc/pkg/pairing"
	"github.com/gilchrisn/streamcc/pkg/sketch"
)

// ErrDimensionMismatch is returned when two supernodes don't share the same
// sketch bank shape and so can't be merged or deltad against each other.
var ErrDimensionMismatch = fmt.Errorf("supernode: sketch bank dimension mismatch")

// ErrNextIdxMismatch is returned by Merge when the two supernodes have
// consumed a different number of sketches: their cut state has diverged
// and a bucket-wise XOR would mix samples from different query rounds.
var ErrNextIdxMismatch = fmt.Errorf("supernode: NextIdx mismatch")

// Edge is an unordered vertex pair recovered from a sketch sample.
type Edge struct {
	U, V uint64
}

// Supernode is an ordered bank of independent sketches over the same
// coordinate space, plus a cursor recording how many have been consumed by
// Sample. Once a component owns a Supernode (by repeated Merge), sampling
// it yields an edge crossing the component's cut, if one still exists.
type Supernode struct {
	Sketches []*sketch.Sketch
	NextIdx  int
}

// New builds a Supernode with logN independent sketches over params, each
// seeded distinctly by index from globalSeed. Every vertex's Supernode must
// be built from the same globalSeed: sketch i of any two vertices needs to
// share a hash family for their bucket vectors to be linearly compatible
// under coordinate-wise XOR (see sketch.Sketch.Merge).
func New(params *sketch.Params, globalSeed uint64, logN int) *Supernode {
	sketches := make([]*sketch.Sketch, logN)
	for i := range sketches {
		sketches[i] = sketch.NewSketch(params, SeedFor(globalSeed, i))
	}
	return &Supernode{Sketches: sketches}
}

// SeedFor derives the seed for sketch index idx from the graph's global
// seed. Exported so callers reconstructing sketches outside of New (the
// binary deserialization path) can reproduce the same per-index seeds.
func SeedFor(globalSeed uint64, idx int) uint64 {
	h := fnv.New64a()
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:8], globalSeed)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(idx))
	_, _ = h.Write(buf[:])
	return h.Sum64()
}

// ApplyDelta bucket-wise merges delta into every one of this supernode's
// sketches, regardless of query cursor: ingest is independent of query
// state, since a component may be re-queried after further updates only
// once ResetQueryState has run.
func (s *Supernode) ApplyDelta(delta *Supernode) error {
	if len(delta.Sketches) != len(s.Sketches) {
		return ErrDimensionMismatch
	}
	for i, sk := range s.Sketches {
		if err := sk.Merge(delta.Sketches[i]); err != nil {
			return err
		}
	}
	return nil
}

// GenerateDelta fills scratch, whose sketch bank must already be seeded to
// match src's own (scratch is normally obtained by calling New with the
// graph's global seed), by toggling coordinate Encode(src, dst) for each dst. A dst
// occurring twice in the same dsts batch cancels via the same toggle Update
// itself performs — see sketch.Sketch.Update — so no separate per-batch
// fold is needed here: whether two occurrences of an edge event land in the
// same batch or different ones, applying both toggles cancels the
// coordinate, matching the mod-2 symmetric-difference semantics the
// sketches rely on (an insert immediately undone by a delete, or duplicated
// by a second insert, leaves no trace).
func (s *Supernode) GenerateDelta(src uint64, dsts []uint64, scratch *Supernode) error {
	if len(scratch.Sketches) != len(s.Sketches) {
		return ErrDimensionMismatch
	}
	for _, sk := range scratch.Sketches {
		sk.Reset()
	}
	for _, dst := range dsts {
		coord, err := pairing.Encode(src, dst)
		if err != nil {
			return err
		}
		for _, sk := range scratch.Sketches {
			sk.Update(coord)
		}
	}
	return nil
}

// Sample consumes the next sketch in the bank, advancing NextIdx, and
// reports the outcome.
func (s *Supernode) Sample() (Edge, sketch.SampleResult) {
	if s.NextIdx >= len(s.Sketches) {
		return Edge{}, sketch.FAIL
	}
	coord, res := s.Sketches[s.NextIdx].Sample()
	s.NextIdx++
	if res != sketch.GOOD {
		return Edge{}, res
	}
	u, v := pairing.Decode(coord)
	return Edge{U: u, V: v}, sketch.GOOD
}

// Exhausted reports whether every sketch in the bank has been consumed.
func (s *Supernode) Exhausted() bool {
	return s.NextIdx >= len(s.Sketches)
}

// Merge bucket-wise XORs other into s at every sketch index still unconsumed
// on both sides: once a component absorbs another via a Borůvka merge, its
// remaining, unsampled sketches must reflect the union of both cuts.
// Already-consumed sketches are left alone; both supernodes must have
// consumed the same number of sketches, or their query state has diverged
// and a merge would be meaningless.
func (s *Supernode) Merge(other *Supernode) error {
	if s.NextIdx != other.NextIdx {
		return ErrNextIdxMismatch
	}
	if len(s.Sketches) != len(other.Sketches) {
		return ErrDimensionMismatch
	}
	for i := s.NextIdx; i < len(s.Sketches); i++ {
		if err := s.Sketches[i].Merge(other.Sketches[i]); err != nil {
			return err
		}
	}
	return nil
}

// ResetQueryState rewinds the cursor so a fresh query round can resample
// from the beginning of the bank.
func (s *Supernode) ResetQueryState() {
	s.NextIdx = 0
}

// Clone returns a deep copy, used by the in-memory checkpoint strategy to
// snapshot component state before a Borůvka round mutates it.
func (s *Supernode) Clone() *Supernode {
	out := &Supernode{NextIdx: s.NextIdx, Sketches: make([]*sketch.Sketch, len(s.Sketches))}
	for i, sk := range s.Sketches {
		out.Sketches[i] = sk.Clone()
	}
	return out
}
