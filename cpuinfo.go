package synthgen

import (
	"sync"

	"github.com/klauspost/cpuid/v2"

	"github.com/TheEntropyCollective/synthgen/internal/synthlog"
)

var cpuInfoOnce sync.Once

// logCPUInfo records the host's CPU brand and relevant SIMD feature
// flags once per process. This never influences block content — the
// PRNG and back-reference pass are pure Go with no feature-dependent
// code paths — but it explains throughput variance between benchmark
// hosts in the logs, the way an operator diagnosing "why is this node
// slower" would want. The entry is logged at Info level, so it is
// written only by a logger whose level is Info or lower; the
// synthlog.Default logger used by NewGenerator is at Warn and drops it.
func logCPUInfo(log *synthlog.Logger) {
	cpuInfoOnce.Do(func() {
		log.WithField("brand", cpuid.CPU.BrandName).
			WithField("physical_cores", cpuid.CPU.PhysicalCores).
			WithField("logical_cores", cpuid.CPU.LogicalCores).
			WithField("avx2", cpuid.CPU.Supports(cpuid.AVX2)).
			WithField("avx512", cpuid.CPU.Supports(cpuid.AVX512F)).
			Info("cpu features detected")
	})
}
