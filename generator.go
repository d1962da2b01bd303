package synthgen

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/TheEntropyCollective/synthgen/internal/synthlog"
)

// Generator is the stateful streaming engine (spec §4.5, C5) plus the
// one-shot convenience (§4.6, C6). A Generator owns a Plan and a
// worker pool for its entire lifetime; Close releases both. A single
// Generator instance MUST NOT be used concurrently by multiple callers
// — there is no internal locking around offset (spec §5).
type Generator struct {
	cfg      GeneratorConfig
	plan     Plan
	pool     *workerPool
	topology Topology
	log      *synthlog.Logger

	offset uint64

	scratch sync.Pool // per-call BLOCK_SIZE scratch for tail handling

	stats PoolStats
}

// PoolStats are purely observational counters, never affecting byte
// content (mirrors the teacher's workers.PoolStats / Pool.Stats()).
type PoolStats struct {
	Workers      int
	BlocksFilled int64
	BytesWritten int64
}

// NewGenerator validates cfg and constructs a Generator: its Plan and
// worker pool are built here and live for the Generator's lifetime
// (spec §3 "Lifecycle"). Returns ErrInvalidConfig wrapped with the
// offending field on invalid input.
func NewGenerator(cfg GeneratorConfig) (*Generator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	log := synthlog.Default.WithComponent("synthgen")
	logCPUInfo(log)
	topo := newTopology(log)

	g := &Generator{
		cfg:      cfg,
		plan:     buildPlan(cfg),
		topology: topo,
		log:      log,
	}
	g.pool = newWorkerPool(cfg, topo, log)
	g.stats.Workers = g.pool.size()
	g.scratch.New = func() interface{} {
		buf := make([]byte, BlockSize)
		return &buf
	}
	return g, nil
}

// ChunkSize returns the effective chunk size: config.chunk_size or
// DefaultChunkSize, always a positive multiple of BlockSize.
func (g *Generator) ChunkSize() uint64 {
	if g.cfg.ChunkSize > 0 {
		return g.cfg.ChunkSize
	}
	return DefaultChunkSize
}

// TotalSize returns the configured total output size.
func (g *Generator) TotalSize() uint64 { return g.plan.TotalSize }

// Position returns the number of bytes emitted so far.
func (g *Generator) Position() uint64 { return g.offset }

// IsComplete reports whether the generator has emitted TotalSize bytes.
func (g *Generator) IsComplete() bool { return g.offset >= g.plan.TotalSize }

// Stats returns current pool/throughput counters.
func (g *Generator) Stats() PoolStats { return g.stats }

// Reset rewinds offset to zero; subsequent output repeats the original
// sequence (spec §8, "Reset law").
func (g *Generator) Reset() { g.offset = 0 }

// SetSeed replaces call entropy and rewinds offset to zero. After this
// call, output is as if from a freshly constructed generator with the
// new seed (spec §4.5).
func (g *Generator) SetSeed(seed int64) {
	g.cfg.Seed = &seed
	g.plan.CallEntropy = resolveCallEntropy(&seed)
	g.offset = 0
}

// FillChunk writes up to min(len(out), TotalSize()-Position()) bytes
// starting at the current offset, advances offset, and returns the
// number of bytes written. Returns 0 only when already complete
// (spec §4.5).
func (g *Generator) FillChunk(out []byte) int {
	remaining := g.plan.TotalSize - g.offset
	writeLen := uint64(len(out))
	if writeLen > remaining {
		writeLen = remaining
	}
	if writeLen == 0 {
		return 0
	}

	firstBlock := g.offset / BlockSize
	lastBlockExclusive := (g.offset + writeLen + BlockSize - 1) / BlockSize

	useParallel := lastBlockExclusive-firstBlock >= 2 &&
		writeLen >= ParallelThreshold &&
		g.pool.size() > 1

	chunkStart := g.offset

	if useParallel {
		g.fillParallel(out[:writeLen], chunkStart, firstBlock, lastBlockExclusive)
	} else {
		g.fillSerial(out[:writeLen], chunkStart, firstBlock, lastBlockExclusive)
	}

	g.offset += writeLen
	return int(writeLen)
}

// fillParallel implements spec §4.5's parallel path: out is partitioned
// into per-block slices dispatched to the worker pool; any slice that
// does not cover a full logical block is filled via a per-worker
// scratch buffer and copied.
func (g *Generator) fillParallel(out []byte, chunkStart, firstBlock, lastBlockExclusive uint64) {
	numBlocks := int(lastBlockExclusive - firstBlock)
	g.pool.forEach(numBlocks, func(k int) {
		blockIndex := firstBlock + uint64(k)
		g.fillOneBlock(out, chunkStart, blockIndex)
	})
	atomic.AddInt64(&g.stats.BlocksFilled, int64(numBlocks))
	atomic.AddInt64(&g.stats.BytesWritten, int64(len(out)))
}

// fillSerial is the same algorithm as fillParallel but runs on the
// calling goroutine, used for chunks below ParallelThreshold or single
// block counts to avoid pool-dispatch overhead (spec §4.5).
func (g *Generator) fillSerial(out []byte, chunkStart, firstBlock, lastBlockExclusive uint64) {
	for blockIndex := firstBlock; blockIndex < lastBlockExclusive; blockIndex++ {
		g.fillOneBlock(out, chunkStart, blockIndex)
	}
	atomic.AddInt64(&g.stats.BlocksFilled, int64(lastBlockExclusive-firstBlock))
	atomic.AddInt64(&g.stats.BytesWritten, int64(len(out)))
}

// fillOneBlock fills whatever portion of logical block blockIndex falls
// within out, where out's first byte is absolute output offset
// chunkStart. blockIndex's own absolute byte range is
// [blockIndex*BlockSize, (blockIndex+1)*BlockSize); a caller-supplied out
// need not align either edge of that range (spec: fill_chunk accepts any
// positive out.len()), so both a leading and a trailing partial overlap
// must be handled, not just a short final chunk.
func (g *Generator) fillOneBlock(out []byte, chunkStart, blockIndex uint64) {
	blockStart := blockIndex * BlockSize
	blockEnd := blockStart + BlockSize
	outStart := chunkStart
	outEnd := chunkStart + uint64(len(out))

	overlapStart := blockStart
	if outStart > overlapStart {
		overlapStart = outStart
	}
	overlapEnd := blockEnd
	if outEnd < overlapEnd {
		overlapEnd = outEnd
	}

	sliceStart := overlapStart - outStart
	sliceEnd := overlapEnd - outStart
	slice := out[sliceStart:sliceEnd]

	withinBlockOffset := overlapStart - blockStart
	withinBlockLen := overlapEnd - overlapStart

	uniqueIndex := g.plan.uniqueIndexOf(blockIndex)
	copyLen := int(g.plan.CopyLens[uniqueIndex])

	if withinBlockOffset == 0 && withinBlockLen == BlockSize {
		fillBlock(slice, uniqueIndex, copyLen, g.plan.CallEntropy)
		return
	}

	// Partial overlap (leading, trailing, or both): fill a full
	// BLOCK_SIZE scratch buffer (reference policy (a) from spec §9,
	// drawing the full keystream so the logical block stays
	// reproducible regardless of how callers slice it) and copy only
	// the requested sub-range into place.
	scratchPtr := g.scratch.Get().(*[]byte)
	scratch := *scratchPtr
	fillBlock(scratch, uniqueIndex, copyLen, g.plan.CallEntropy)
	copy(slice, scratch[withinBlockOffset:withinBlockOffset+withinBlockLen])
	g.scratch.Put(scratchPtr)
}

// Close releases the worker pool and any NUMA-bound scratch area owned
// by this generator. Idempotent.
func (g *Generator) Close() error {
	if g.pool != nil {
		g.pool.close()
	}
	return nil
}

// Fill is the One-Shot Driver (spec §4.6, C6): it constructs a
// Generator for totalSize bytes derived from cfg, fills buf (which
// must have length equal to cfg.TotalSize) in ChunkSize()-sized
// subslices, and destroys the generator before returning.
func Fill(cfg GeneratorConfig, buf []byte) error {
	if uint64(len(buf)) != cfg.TotalSize {
		return fmt.Errorf("%w: buf length %d does not match total_size %d", ErrInvalidConfig, len(buf), cfg.TotalSize)
	}

	g, err := NewGenerator(cfg)
	if err != nil {
		return err
	}
	defer g.Close()

	chunk := int(g.ChunkSize())
	for offset := 0; offset < len(buf); {
		end := offset + chunk
		if end > len(buf) {
			end = len(buf)
		}
		n := g.FillChunk(buf[offset:end])
		if n == 0 {
			break
		}
		offset += n
	}
	return nil
}
