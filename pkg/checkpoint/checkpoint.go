// Package checkpoint implements the two strategies the Borůvka driver can
// use to preserve pre-query supernode state so ingest can resume after a
// query that must "continue after" its answer, without re-deriving the
// state that a query round mutates in place.
package checkpoint

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/gilchrisn/streamcc/pkg/sketch"
	"github.com/gilchrisn/streamcc/pkg/supernode"
)

// Strategy captures a set of supernodes before a Borůvka round mutates
// them, and restores them afterward. Backup is called once per query, for
// exactly the roots that will be sampled or merged in round 1; Restore is
// called once, after the query completes, for the same set.
type Strategy interface {
	// Backup snapshots supernodes[id] for every id in roots, before any
	// round-1 mutation.
	Backup(roots []uint64, supernodes []*supernode.Supernode) error
	// Restore writes the snapshotted state back into supernodes, for the
	// same roots passed to Backup.
	Restore(supernodes []*supernode.Supernode) error
}

// InMemory clones supernodes into a map keyed by vertex id. It is the cheaper
// strategy when the working set fits comfortably in memory alongside the
// live graph.
type InMemory struct {
	roots []uint64
	saved map[uint64]*supernode.Supernode
}

// NewInMemory returns an empty in-memory checkpoint strategy.
func NewInMemory() *InMemory {
	return &InMemory{saved: make(map[uint64]*supernode.Supernode)}
}

// Backup deep-clones supernodes[id] for every id in roots.
func (c *InMemory) Backup(roots []uint64, supernodes []*supernode.Supernode) error {
	c.roots = append([]uint64(nil), roots...)
	for _, id := range roots {
		c.saved[id] = supernodes[id].Clone()
	}
	return nil
}

// Restore swaps the cloned state back into supernodes for every id backed
// up.
func (c *InMemory) Restore(supernodes []*supernode.Supernode) error {
	for _, id := range c.roots {
		clone, ok := c.saved[id]
		if !ok {
			return fmt.Errorf("checkpoint: no backup recorded for vertex %d", id)
		}
		supernodes[id] = clone
	}
	c.saved = make(map[uint64]*supernode.Supernode)
	c.roots = nil
	return nil
}

// Disk writes supernode state to a backup file, trading memory for disk
// I/O: the on-disk layout matches the per-supernode encoding used by the
// graph's own checkpoint file, header-free since n and the sketch seed are
// already known to the caller.
type Disk struct {
	path   string
	params *sketch.Params
	seed   uint64
	roots  []uint64
}

// NewDisk returns a disk-backed checkpoint strategy writing to path. seed is
// the graph's global seed: sketches are not self-describing on disk (every
// sketch in a graph shares the same seed, derived per-index from it), so
// Restore needs it to rebuild sketches with matching hash families.
func NewDisk(path string, params *sketch.Params, seed uint64) *Disk {
	return &Disk{path: path, params: params, seed: seed}
}

// Backup writes supernodes[id] for every id in roots to the backup file, in
// the order given, so Restore can read them back symmetrically.
func (c *Disk) Backup(roots []uint64, supernodes []*supernode.Supernode) error {
	f, err := os.Create(c.path)
	if err != nil {
		return fmt.Errorf("checkpoint: create backup file: %w", err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	for _, id := range roots {
		if err := writeSupernode(w, supernodes[id]); err != nil {
			return fmt.Errorf("checkpoint: write vertex %d: %w", id, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("checkpoint: flush backup file: %w", err)
	}
	c.roots = append([]uint64(nil), roots...)
	return nil
}

// Restore reads the backup file back in the order Backup wrote it and
// installs each supernode into its slot.
func (c *Disk) Restore(supernodes []*supernode.Supernode) error {
	f, err := os.Open(c.path)
	if err != nil {
		return fmt.Errorf("checkpoint: open backup file: %w", err)
	}
	defer f.Close()
	defer os.Remove(c.path)
	r := bufio.NewReader(f)
	for _, id := range c.roots {
		sn, err := readSupernode(r, c.params, c.seed, len(supernodes[id].Sketches))
		if err != nil {
			return fmt.Errorf("checkpoint: read vertex %d: %w", id, err)
		}
		supernodes[id] = sn
	}
	c.roots = nil
	return nil
}

func writeSupernode(w *bufio.Writer, sn *supernode.Supernode) error {
	var buf [4]byte
	buf[0] = byte(sn.NextIdx)
	buf[1] = byte(sn.NextIdx >> 8)
	buf[2] = byte(sn.NextIdx >> 16)
	buf[3] = byte(sn.NextIdx >> 24)
	if _, err := w.Write(buf[:]); err != nil {
		return err
	}
	for _, sk := range sn.Sketches {
		if _, err := sk.WriteTo(w); err != nil {
			return err
		}
	}
	return nil
}

func readSupernode(r *bufio.Reader, params *sketch.Params, seed uint64, logN int) (*supernode.Supernode, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, err
	}
	nextIdx := int(buf[0]) | int(buf[1])<<8 | int(buf[2])<<16 | int(buf[3])<<24
	sketches := make([]*sketch.Sketch, logN)
	for i := 0; i < logN; i++ {
		sk, err := sketch.ReadSketch(r, params, supernode.SeedFor(seed, i))
		if err != nil {
			return nil, err
		}
		sketches[i] = sk
	}
	return &supernode.Supernode{Sketches: sketches, NextIdx: nextIdx}, nil
}
