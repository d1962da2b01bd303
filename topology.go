package synthgen

// CPUID identifies a single logical CPU for pinning purposes.
type CPUID int

// NodeID identifies a NUMA memory domain.
type NodeID int

// Topology is the contract the rest of the core consumes (spec §4.3). The
// core never special-cases NumNodes() == 1: the worker pool makes
// pinning and first-touch no-ops when there is only one domain.
type Topology interface {
	// NumNodes returns the number of memory domains on the host. 1 on
	// a uniform-memory-access (UMA) system.
	NumNodes() int

	// CPUsOf returns the logical CPUs local to node. Implementations
	// return every CPU on the host when node is out of range or the
	// host has only one node.
	CPUsOf(node NodeID) []CPUID

	// AllocateLocal returns an owned byte region bound to node's
	// memory domain. May fall back to default allocation, returning a
	// fallback flag so the caller can log a warning rather than treat
	// the fallback as an error.
	AllocateLocal(node NodeID, nbytes int) (region []byte, usedFallback bool, err error)

	// PinCurrentThread pins the calling OS thread to cpu. Returns false
	// when the platform doesn't support pinning; this is not an error,
	// callers degrade to unpinned execution.
	PinCurrentThread(cpu CPUID) (ok bool)

	// Probe summarizes the topology for the read-only query exposed by
	// ProbeTopology (spec §6).
	Probe() TopologyProbe
}

// TopologyProbe is the read-only summary exposed by ProbeTopology.
type TopologyProbe struct {
	NumNodes      int
	CPUsPerNode   []int
	TotalCPUs     int
	PhysicalCores int
	Deployment    string // "uma" or "numa"
}

// ProbeTopology returns a read-only topology summary, independent of
// constructing a Generator (spec §6 "Topology probe"). Topology
// discovery failures degrade to a single-node summary rather than
// returning an error, matching the ErrTopologyUnavailable recovery
// policy in spec §7.
func ProbeTopology() TopologyProbe {
	return newTopology(nil).Probe()
}
