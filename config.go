package synthgen

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// NUMAMode controls whether the generator attempts topology-aware worker
// pinning and NUMA-local allocation.
type NUMAMode int

const (
	// NUMAAuto pins workers round-robin across all memory domains when
	// no explicit node is requested (the single-process "spread" mode).
	NUMAAuto NUMAMode = iota
	// NUMAForced behaves like NUMAAuto but never silently degrades to
	// unpinned workers when topology discovery partially fails; callers
	// get ErrTopologyUnavailable surfaced as a warning either way, this
	// only changes intent documentation for operators reading configs.
	NUMAForced
	// NUMADisabled leaves all workers unpinned and all allocation
	// untouched by NUMA binding, regardless of host topology.
	NUMADisabled
)

func (m NUMAMode) String() string {
	switch m {
	case NUMAAuto:
		return "auto"
	case NUMAForced:
		return "forced"
	case NUMADisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// GeneratorConfig is the immutable configuration consumed once to build a
// Generator (spec §6). Build one with NewGeneratorConfig and Option
// functions, not by struct literal, so defaults and validation stay in
// one place.
type GeneratorConfig struct {
	TotalSize      uint64
	DedupFactor    uint64
	CompressFactor uint64
	NUMAMode       NUMAMode
	NUMANode       *int
	MaxThreads     *int
	ChunkSize      uint64
	Seed           *int64
}

// Option mutates a GeneratorConfig under construction.
type Option func(*GeneratorConfig)

// WithDedupFactor sets the average block-level duplication factor. 1 (the
// default) means every block is unique.
func WithDedupFactor(factor uint64) Option {
	return func(c *GeneratorConfig) { c.DedupFactor = factor }
}

// WithCompressFactor sets the target generic-compressor ratio. 1 (the
// default) means the output is essentially incompressible.
func WithCompressFactor(factor uint64) Option {
	return func(c *GeneratorConfig) { c.CompressFactor = factor }
}

// WithNUMAMode selects Auto, Forced, or Disabled topology-aware behavior.
func WithNUMAMode(mode NUMAMode) Option {
	return func(c *GeneratorConfig) { c.NUMAMode = mode }
}

// WithNUMANode binds the generator to one memory domain. Intended for the
// one-process-per-domain deployment pattern (spec §9).
func WithNUMANode(node int) Option {
	return func(c *GeneratorConfig) { c.NUMANode = &node }
}

// WithMaxThreads caps the worker pool size. Defaults to hardware
// concurrency (adjusted for cgroup CPU quota, see pool.go).
func WithMaxThreads(n int) Option {
	return func(c *GeneratorConfig) { c.MaxThreads = &n }
}

// WithChunkSize sets the effective chunk size hint returned by
// Generator.ChunkSize. Must be a positive multiple of BlockSize.
func WithChunkSize(size uint64) Option {
	return func(c *GeneratorConfig) { c.ChunkSize = size }
}

// WithSeed pins call entropy so output is bit-reproducible across runs,
// hosts, and worker counts.
func WithSeed(seed int64) Option {
	return func(c *GeneratorConfig) { c.Seed = &seed }
}

// NewGeneratorConfig builds a GeneratorConfig for totalSize bytes with
// defaults (DedupFactor=1, CompressFactor=1, NUMAMode=Auto,
// ChunkSize=DefaultChunkSize, Seed=none), then applies opts in order.
func NewGeneratorConfig(totalSize uint64, opts ...Option) GeneratorConfig {
	c := GeneratorConfig{
		TotalSize:      totalSize,
		DedupFactor:    1,
		CompressFactor: 1,
		NUMAMode:       NUMAAuto,
		ChunkSize:      DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// validate checks the invariants spec §7 assigns to InvalidConfig. It
// does not mutate c; callers normalize separately.
func (c GeneratorConfig) validate() error {
	if c.DedupFactor == 0 {
		return fmt.Errorf("%w: dedup_factor must be positive", ErrInvalidConfig)
	}
	if c.CompressFactor == 0 {
		return fmt.Errorf("%w: compress_factor must be positive", ErrInvalidConfig)
	}
	if c.ChunkSize == 0 || c.ChunkSize%BlockSize != 0 {
		return fmt.Errorf("%w: chunk_size must be a positive multiple of %d", ErrInvalidConfig, BlockSize)
	}
	if c.MaxThreads != nil && *c.MaxThreads <= 0 {
		return fmt.Errorf("%w: max_threads must be positive", ErrInvalidConfig)
	}
	return nil
}

// ApplyEnvOverrides mirrors the teacher's environment-variable override
// mechanism (pkg/common/config): it lets deployment tooling adjust
// performance knobs without rebuilding the caller's option list.
// MaxThreads, ChunkSize, and NUMAMode never affect output bytes, so
// overriding them cannot break reproducibility. SYNTHGEN_SEED is the
// exception: it replaces the seed and therefore changes the output.
// NUMANode has no environment override.
//
//   SYNTHGEN_MAX_THREADS  int
//   SYNTHGEN_CHUNK_SIZE   uint64 (bytes)
//   SYNTHGEN_NUMA_MODE    "auto" | "forced" | "disabled"
//   SYNTHGEN_SEED         int64
func ApplyEnvOverrides(c *GeneratorConfig) error {
	if v, ok := os.LookupEnv("SYNTHGEN_SEED"); ok {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("synthgen: SYNTHGEN_SEED: %w", err)
		}
		c.Seed = &seed
	}
	if v, ok := os.LookupEnv("SYNTHGEN_MAX_THREADS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("synthgen: SYNTHGEN_MAX_THREADS: %w", err)
		}
		c.MaxThreads = &n
	}
	if v, ok := os.LookupEnv("SYNTHGEN_CHUNK_SIZE"); ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("synthgen: SYNTHGEN_CHUNK_SIZE: %w", err)
		}
		c.ChunkSize = n
	}
	if v, ok := os.LookupEnv("SYNTHGEN_NUMA_MODE"); ok {
		switch strings.ToLower(v) {
		case "auto":
			c.NUMAMode = NUMAAuto
		case "forced":
			c.NUMAMode = NUMAForced
		case "disabled":
			c.NUMAMode = NUMADisabled
		default:
			return fmt.Errorf("synthgen: SYNTHGEN_NUMA_MODE: unknown mode %q", v)
		}
	}
	return nil
}
