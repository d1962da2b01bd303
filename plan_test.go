package synthgen

import "testing"

func TestRoundHalfToEven(t *testing.T) {
	cases := []struct {
		total, dedup uint64
		want         uint64
	}{
		{24, 2, 12},
		{10, 4, 2}, // 2.5 -> 2 (round to even)
		{9, 2, 4},  // 4.5 -> 4 (round to even)
		{11, 2, 6}, // 5.5 -> 6 (round to even)
		{100, 1, 100},
	}
	for _, c := range cases {
		got := roundHalfToEven(c.total, c.dedup)
		if got != c.want {
			t.Errorf("roundHalfToEven(%d,%d) = %d, want %d", c.total, c.dedup, got, c.want)
		}
	}
}

func TestBuildCopyLensSumMatchesFormula(t *testing.T) {
	const uniqueBlocks = 37
	for _, compressFactor := range []uint64{1, 2, 3, 5, 7, 1000} {
		lens := buildCopyLens(uniqueBlocks, compressFactor)
		if len(lens) != uniqueBlocks {
			t.Fatalf("len(lens) = %d, want %d", len(lens), uniqueBlocks)
		}

		var sum int64
		for _, l := range lens {
			if l < 0 || int(l) > BlockSize {
				t.Fatalf("copy_len out of range: %d", l)
			}
			sum += int64(l)
		}

		want := int64(((compressFactor - 1) * BlockSize * uniqueBlocks) / compressFactor)
		if compressFactor == 1 {
			want = 0
		}
		if sum != want {
			t.Errorf("compressFactor=%d: sum(copy_lens) = %d, want %d", compressFactor, sum, want)
		}
	}
}

func TestBuildPlanUniqueBlocksAtLeastOne(t *testing.T) {
	cfg := NewGeneratorConfig(0)
	p := buildPlan(cfg)
	if p.UniqueBlocks < 1 {
		t.Fatalf("UniqueBlocks = %d, want >= 1", p.UniqueBlocks)
	}
	if p.TotalBlocks != 0 {
		t.Fatalf("TotalBlocks = %d, want 0 for zero total_size", p.TotalBlocks)
	}
}

func TestUniqueIndexOfRoundRobin(t *testing.T) {
	cfg := NewGeneratorConfig(24*BlockSize, WithDedupFactor(2))
	p := buildPlan(cfg)
	if p.UniqueBlocks != 12 {
		t.Fatalf("UniqueBlocks = %d, want 12", p.UniqueBlocks)
	}
	for i := uint64(0); i < 24; i++ {
		want := i % 12
		if got := p.uniqueIndexOf(i); got != want {
			t.Errorf("uniqueIndexOf(%d) = %d, want %d", i, got, want)
		}
	}
}

func TestBlockByteLenTruncatesFinalBlock(t *testing.T) {
	cfg := NewGeneratorConfig(BlockSize + 100)
	p := buildPlan(cfg)
	if got := p.blockByteLen(0); got != BlockSize {
		t.Errorf("blockByteLen(0) = %d, want %d", got, BlockSize)
	}
	if got := p.blockByteLen(1); got != 100 {
		t.Errorf("blockByteLen(1) = %d, want 100", got)
	}
	if got := p.blockByteLen(2); got != 0 {
		t.Errorf("blockByteLen(2) = %d, want 0", got)
	}
}

func TestResolveCallEntropySeeded(t *testing.T) {
	seed := int64(12345)
	got := resolveCallEntropy(&seed)
	if got != uint64(seed) {
		t.Fatalf("resolveCallEntropy(seeded) = %d, want %d", got, seed)
	}
}

func TestResolveCallEntropyUnseededVaries(t *testing.T) {
	a := resolveCallEntropy(nil)
	b := resolveCallEntropy(nil)
	if a == b {
		t.Fatal("two unseeded calls produced identical call entropy (overwhelmingly unlikely)")
	}
}
