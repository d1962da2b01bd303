package synthgen

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// Plan is the derived, immutable schedule that determines the output's
// structure for a given GeneratorConfig (spec §3). It is computed once
// at generator construction and lives for the generator's lifetime.
type Plan struct {
	TotalSize    uint64
	TotalBlocks  uint64
	UniqueBlocks uint64
	CopyLens     []int32
	CallEntropy  uint64
}

// buildPlan derives a Plan from a validated GeneratorConfig in
// O(UniqueBlocks) time and memory (spec §4.2).
func buildPlan(c GeneratorConfig) Plan {
	totalBlocks := (c.TotalSize + BlockSize - 1) / BlockSize
	if c.TotalSize == 0 {
		totalBlocks = 0
	}

	uniqueBlocks := roundHalfToEven(totalBlocks, c.DedupFactor)
	if uniqueBlocks < 1 {
		uniqueBlocks = 1
	}

	return Plan{
		TotalSize:    c.TotalSize,
		TotalBlocks:  totalBlocks,
		UniqueBlocks: uniqueBlocks,
		CopyLens:     buildCopyLens(uniqueBlocks, c.CompressFactor),
		CallEntropy:  resolveCallEntropy(c.Seed),
	}
}

// roundHalfToEven computes round(total/dedup) using banker's rounding, so
// the midpoint ties implied by spec §2 resolve deterministically rather
// than always rounding up.
func roundHalfToEven(total, dedup uint64) uint64 {
	if dedup == 0 {
		dedup = 1
	}
	q := total / dedup
	r := total % dedup
	twice := 2 * r
	switch {
	case twice < dedup:
		return q
	case twice > dedup:
		return q + 1
	default: // exact tie: round to even
		if q%2 == 0 {
			return q
		}
		return q + 1
	}
}

// buildCopyLens distributes the per-block back-reference budget evenly
// across unique blocks using Bresenham-style integer error accumulation
// (spec §4.2), so the sum is exact and no block is favored beyond +-1
// byte of the ideal share.
func buildCopyLens(uniqueBlocks, compressFactor uint64) []int32 {
	lens := make([]int32, uniqueBlocks)
	if compressFactor <= 1 {
		return lens // compress_factor = 1 => copy_len = 0 for every block
	}

	num := compressFactor - 1
	den := compressFactor
	floorLen := (num * BlockSize) / den
	rem := (num * BlockSize) % den

	var acc uint64
	for u := uint64(0); u < uniqueBlocks; u++ {
		l := floorLen
		acc += rem
		if acc >= den {
			l++
			acc -= den
		}
		lens[u] = int32(l)
	}
	return lens
}

// resolveCallEntropy returns seed verbatim when set, otherwise mixes a
// monotonic wall-clock source with an OS randomness source (spec §4.2,
// §9): the clock alone is unsafe across clock-synchronized cluster
// nodes generating simultaneously, the OS source alone is acceptable,
// XOR-ing both is robust and cheap.
func resolveCallEntropy(seed *int64) uint64 {
	if seed != nil {
		return uint64(*seed)
	}

	var osRandom uint64
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err == nil {
		osRandom = binary.LittleEndian.Uint64(buf[:])
	}

	clockEntropy := uint64(time.Now().UnixNano())
	return clockEntropy ^ osRandom
}

// uniqueIndexOf maps a block index to its unique index under the
// round-robin scheme (spec invariant 3): deterministic, no randomness.
func (p Plan) uniqueIndexOf(blockIndex uint64) uint64 {
	return blockIndex % p.UniqueBlocks
}

// blockByteLen returns the logical length of block blockIndex, truncating
// the final block to the remainder of TotalSize (spec invariant 4).
func (p Plan) blockByteLen(blockIndex uint64) int {
	start := blockIndex * BlockSize
	if start >= p.TotalSize {
		return 0
	}
	remaining := p.TotalSize - start
	if remaining >= BlockSize {
		return BlockSize
	}
	return int(remaining)
}
