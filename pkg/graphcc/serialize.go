package graphcc

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/gilchrisn/streamcc/pkg/dsu"
	"github.com/gilchrisn/streamcc/pkg/pairing"
	"github.com/gilchrisn/streamcc/pkg/sketch"
	"github.com/gilchrisn/streamcc/pkg/supernode"
)

// writeGraph serializes g as: uint64 seed, uint32 n, uint32 failureFactor,
// then for v in [0,n) the supernode: uint32 nextIdx, then each sketch's
// buckets packed as (uint64 id, uint64 chk) x cols x guesses. No
// framing or checksums: this is a scratch/checkpoint format, not a
// long-term archival one.
func writeGraph(w io.Writer, g *Graph) error {
	bw := bufio.NewWriter(w)
	var header [16]byte
	binary.LittleEndian.PutUint64(header[0:8], g.seed)
	binary.LittleEndian.PutUint32(header[8:12], uint32(g.n))
	binary.LittleEndian.PutUint32(header[12:16], g.failureFactor)
	if _, err := bw.Write(header[:]); err != nil {
		return fmt.Errorf("graphcc: write header: %w", err)
	}
	for _, sn := range g.supernodes {
		var idxBuf [4]byte
		binary.LittleEndian.PutUint32(idxBuf[:], uint32(sn.NextIdx))
		if _, err := bw.Write(idxBuf[:]); err != nil {
			return fmt.Errorf("graphcc: write supernode cursor: %w", err)
		}
		for _, sk := range sn.Sketches {
			if _, err := sk.WriteTo(bw); err != nil {
				return fmt.Errorf("graphcc: write sketch: %w", err)
			}
		}
	}
	return bw.Flush()
}

// LoadGraph reconstructs a Graph from a stream written by WriteBinary. Its
// BatchSource/WorkerPool/checkpoint collaborators come from opts, same as
// NewGraph; opts.Seed and opts.FailureFactor are ignored in favor of the
// values recorded in the file's header.
func LoadGraph(r io.Reader, opts Options) (*Graph, error) {
	if !graphExists.CompareAndSwap(false, true) {
		return nil, ErrMultipleGraphs
	}
	br := bufio.NewReader(r)
	var header [16]byte
	if _, err := io.ReadFull(br, header[:]); err != nil {
		graphExists.Store(false)
		return nil, fmt.Errorf("graphcc: read header: %w", err)
	}
	seed := binary.LittleEndian.Uint64(header[0:8])
	n := uint64(binary.LittleEndian.Uint32(header[8:12]))
	failureFactor := binary.LittleEndian.Uint32(header[12:16])

	d := pairing.SketchLength(n)
	params := sketch.NewParamsWithD(n, d, failureFactor)
	logN := logBase2Ceil(n)

	opts.Seed = seed
	opts.FailureFactor = failureFactor
	g := &Graph{
		seed:          seed,
		n:             n,
		logN:          logN,
		failureFactor: failureFactor,
		params:        params,
		source:        opts.Source,
		pool:          opts.Pool,
		ckpt:          opts.Checkpoint,
		log:           opts.Logger,
	}
	g.dsu = dsu.New(n)
	g.supernodes = make([]*supernode.Supernode, n)
	for v := uint64(0); v < n; v++ {
		var idxBuf [4]byte
		if _, err := io.ReadFull(br, idxBuf[:]); err != nil {
			graphExists.Store(false)
			return nil, fmt.Errorf("graphcc: read supernode cursor for vertex %d: %w", v, err)
		}
		nextIdx := int(binary.LittleEndian.Uint32(idxBuf[:]))
		sketches := make([]*sketch.Sketch, logN)
		for i := 0; i < logN; i++ {
			sk, err := sketch.ReadSketch(br, params, supernode.SeedFor(seed, i))
			if err != nil {
				graphExists.Store(false)
				return nil, fmt.Errorf("graphcc: read sketch %d for vertex %d: %w", i, v, err)
			}
			sketches[i] = sk
		}
		g.supernodes[v] = &supernode.Supernode{Sketches: sketches, NextIdx: nextIdx}
	}
	g.log.Info().Uint64("n", n).Uint64("seed", seed).Msg("graph loaded from binary")
	return g, nil
}
