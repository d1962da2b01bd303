//go:build !linux

package synthgen

import (
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"

	"github.com/TheEntropyCollective/synthgen/internal/synthlog"
)

// fallbackTopology implements Topology for hosts without the Linux
// sysfs NUMA layout (spec §4.3: "the core NEVER special-cases
// num_nodes == 1"). It always reports one node.
type fallbackTopology struct {
	log      *synthlog.Logger
	allCPUs  []CPUID
	physical int
}

func newTopology(log *synthlog.Logger) Topology {
	if log == nil {
		log = synthlog.Default.WithComponent("topology")
	}

	n := runtime.NumCPU()
	all := make([]CPUID, n)
	for i := 0; i < n; i++ {
		all[i] = CPUID(i)
	}

	physical, err := cpu.Counts(false)
	if err != nil || physical <= 0 {
		physical = n
	}

	return &fallbackTopology{log: log, allCPUs: all, physical: physical}
}

func (t *fallbackTopology) NumNodes() int { return 1 }

func (t *fallbackTopology) CPUsOf(NodeID) []CPUID { return t.allCPUs }

func (t *fallbackTopology) Probe() TopologyProbe {
	return TopologyProbe{
		NumNodes:      1,
		CPUsPerNode:   []int{len(t.allCPUs)},
		TotalCPUs:     len(t.allCPUs),
		PhysicalCores: t.physical,
		Deployment:    "uma",
	}
}

func (t *fallbackTopology) PinCurrentThread(CPUID) bool {
	// Unsupported outside Linux; not an error, callers degrade to
	// unpinned execution.
	return false
}

func (t *fallbackTopology) AllocateLocal(_ NodeID, nbytes int) ([]byte, bool, error) {
	if nbytes <= 0 {
		return nil, false, fmt.Errorf("%w: nbytes must be positive", ErrAllocationFailure)
	}
	return make([]byte, nbytes), true, nil
}
