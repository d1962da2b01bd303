package synthgen

import (
	"testing"

	"github.com/klauspost/compress/s2"
	"github.com/stretchr/testify/require"
)

// Testable property 6, checked with s2: for K>1 the compressed size must
// fall within [0.76, 1.25] x total_size/compress_factor, and for K=1 the
// compressed size must stay at least 0.90 x total_size.
func TestCompressionLawIncompressible(t *testing.T) {
	const totalSize = 8 * BlockSize
	cfg := NewGeneratorConfig(totalSize, WithCompressFactor(1), WithSeed(123))
	out := fillAll(t, cfg, int(DefaultChunkSize))

	compressed := s2.Encode(nil, out)
	ratio := float64(len(compressed)) / float64(len(out))
	require.GreaterOrEqualf(t, ratio, 0.90, "compress_factor=1 output compressed too well: ratio=%.3f", ratio)
}

func TestCompressionLawTargetRatio(t *testing.T) {
	const totalSize = 64 * BlockSize
	const K = 4
	cfg := NewGeneratorConfig(totalSize, WithCompressFactor(K), WithSeed(321))
	out := fillAll(t, cfg, int(DefaultChunkSize))

	compressed := s2.Encode(nil, out)

	ideal := float64(len(out)) / float64(K)
	lo := ideal * 0.76 // generous band: s2 is weaker than a tuned LZ77, still bounded
	hi := ideal * 1.25
	got := float64(len(compressed))

	require.GreaterOrEqualf(t, got, lo, "compressed size %d below expected band [%.0f,%.0f]", len(compressed), lo, hi)
	require.LessOrEqualf(t, got, hi, "compressed size %d above expected band [%.0f,%.0f]", len(compressed), lo, hi)
}
