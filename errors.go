package synthgen

import "errors"

// Error kinds surfaced by synthgen (spec §7). All three are sentinel
// errors checked with errors.Is; construction-time failures wrap
// ErrInvalidConfig with the offending field, allocation failures wrap
// ErrAllocationFailure with the requested size.
var (
	// ErrInvalidConfig is returned from NewGenerator when a
	// GeneratorConfig field is out of range. Fatal for construction.
	ErrInvalidConfig = errors.New("synthgen: invalid config")

	// ErrAllocationFailure is returned from AllocateBuffers and from
	// NUMA-local allocation when the requested region could not be
	// satisfied. Fatal only for that call; the generator itself is
	// unaffected.
	ErrAllocationFailure = errors.New("synthgen: allocation failure")

	// ErrTopologyUnavailable is never returned to callers: it is
	// recovered internally and logged as a warning, with the engine
	// falling back to treating the host as a single NUMA node.
	ErrTopologyUnavailable = errors.New("synthgen: topology unavailable")
)
