package synthgen

import (
	"fmt"

	"github.com/pbnjay/memory"

	"github.com/TheEntropyCollective/synthgen/internal/synthlog"
)

// largeRegionThreshold is the size above which AllocateBuffers bypasses
// make([]byte, ...) and goes straight to the platform's page-level
// mapping primitive (spec §4.6): below it, the general-purpose
// allocator's overhead is negligible, so there's nothing to shortcut.
const largeRegionThreshold = BlockSize

// AllocationStats reports how a bulk pre-allocation call was actually
// satisfied: NUMABoundBytes is the portion that landed on the requested
// memory domain, FallbackBytes is the portion that didn't (either
// because the region was too small to route through the platform
// mapping primitive, or because NUMA binding was attempted and degraded
// to a fallback, which is logged as a warning — see AllocateLocal).
// Purely observational, never affects
// buffer content.
type AllocationStats struct {
	NUMABoundBytes int64
	FallbackBytes  int64
}

// AllocateBuffers is the bulk pre-allocation helper from spec §4.6: it
// returns count writable byte regions of size bytes each, with
// negligible per-region overhead when size is large enough that the
// platform mapping primitive is used directly. AllocateBuffers targets
// node 0; for the one-process-per-domain deployment pattern (spec §9),
// AllocateBuffersOnNode takes the node explicitly. Callers on platforms
// other than Linux get ordinary heap buffers.
//
// AllocateBuffers sanity-checks the request against total system memory
// before attempting the mapping, surfacing ErrAllocationFailure early
// rather than racing the kernel's OOM killer.
func AllocateBuffers(count, size int) ([][]byte, AllocationStats, error) {
	return allocateBuffersOnNode(count, size, nil)
}

// AllocateBuffersOnNode is AllocateBuffers bound to a specific NUMA
// node, for the one-process-per-domain deployment pattern.
func AllocateBuffersOnNode(node int, count, size int) ([][]byte, AllocationStats, error) {
	return allocateBuffersOnNode(count, size, &node)
}

func allocateBuffersOnNode(count, size int, node *int) ([][]byte, AllocationStats, error) {
	if count <= 0 || size <= 0 {
		return nil, AllocationStats{}, fmt.Errorf("%w: count and size must be positive", ErrAllocationFailure)
	}

	log := synthlog.Default.WithComponent("prealloc")
	requested := uint64(count) * uint64(size)
	if total := memory.TotalMemory(); total > 0 && requested > total {
		log.Errorf("%v: requested %d bytes exceeds total system memory %d bytes", ErrAllocationFailure, requested, total)
		return nil, AllocationStats{}, fmt.Errorf("%w: requested %d bytes exceeds total system memory %d bytes",
			ErrAllocationFailure, requested, total)
	}

	topo := newTopology(nil)
	nodeID := NodeID(0)
	if node != nil {
		nodeID = NodeID(*node)
	}

	var stats AllocationStats
	fallbackRegions := 0
	out := make([][]byte, count)
	for i := 0; i < count; i++ {
		if size < largeRegionThreshold {
			out[i] = make([]byte, size)
			stats.FallbackBytes += int64(size)
			continue
		}
		region, usedFallback, err := topo.AllocateLocal(nodeID, size)
		if err != nil {
			log.Errorf("%v: region %d of %d: %v", ErrAllocationFailure, i, count, err)
			return nil, stats, fmt.Errorf("%w: region %d of %d: %v", ErrAllocationFailure, i, count, err)
		}
		out[i] = region
		if usedFallback {
			stats.FallbackBytes += int64(size)
			fallbackRegions++
		} else {
			stats.NUMABoundBytes += int64(size)
		}
	}
	if fallbackRegions > 0 {
		log.Warnf("node %d: %d of %d regions not NUMA-bound, used fallback allocation", nodeID, fallbackRegions, count)
	}
	return out, stats, nil
}
