package synthgen

import (
	"bytes"
	"testing"
)

func TestFillBlockDeterministic(t *testing.T) {
	a := make([]byte, BlockSize)
	b := make([]byte, BlockSize)

	fillBlock(a, 0, 1000, 42)
	fillBlock(b, 0, 1000, 42)

	if !bytes.Equal(a, b) {
		t.Fatal("identical (uniqueIndex, copyLen, callEntropy) produced divergent blocks")
	}
}

func TestFillBlockDifferentUniqueIndexDiverges(t *testing.T) {
	a := make([]byte, BlockSize)
	b := make([]byte, BlockSize)

	fillBlock(a, 0, 0, 42)
	fillBlock(b, 1, 0, 42)

	if bytes.Equal(a, b) {
		t.Fatal("distinct unique indices produced identical blocks")
	}
}

func TestFillBlockZeroCopyLenIsPureKeystream(t *testing.T) {
	out := make([]byte, BlockSize)
	fillBlock(out, 3, 0, 99)

	want := make([]byte, BlockSize)
	newXoshiro256pp(blockSeed(99, 3)).fillKeystream(want)

	if !bytes.Equal(out, want) {
		t.Fatal("copy_len=0 should be pure keystream output")
	}
}

func TestFillBlockNeverWritesOutsideBounds(t *testing.T) {
	// Guard bytes before/after the slice are on separate backing arrays
	// in Go (there's no way to overrun a slice without panicking), but
	// we still assert the call completes and fills exactly len(out).
	for _, size := range []int{BlockSize, 1024, 2048} {
		out := make([]byte, size)
		copyLen := size // request the whole block if possible
		fillBlock(out, 0, copyLen, 7)
		// fillBlock must return normally (no panic) even when
		// BackrefMax doesn't fit in a small block.
		_ = out
	}
}

func TestFillBlockCompressFactorOneNoOp(t *testing.T) {
	full := make([]byte, BlockSize)
	fillBlock(full, 5, 0, 11)

	keystreamOnly := make([]byte, BlockSize)
	newXoshiro256pp(blockSeed(11, 5)).fillKeystream(keystreamOnly)

	if !bytes.Equal(full, keystreamOnly) {
		t.Fatal("copy_len=0 must leave the keystream untouched")
	}
}

func TestFillBlockBackreferencePassMutatesKeystream(t *testing.T) {
	withBackrefs := make([]byte, BlockSize)
	fillBlock(withBackrefs, 0, BlockSize/2, 123)

	pureKeystream := make([]byte, BlockSize)
	newXoshiro256pp(blockSeed(123, 0)).fillKeystream(pureKeystream)

	if bytes.Equal(withBackrefs, pureKeystream) {
		t.Fatal("a non-zero copy_len must mutate the keystream via back-references")
	}
}

func TestFillBlockBackreferenceCopiesMatchSource(t *testing.T) {
	// Re-derive the same RNG draw sequence fillBlock uses internally
	// and confirm the resulting bytes at each destination match the
	// corresponding source bytes at the time of the copy.
	out := make([]byte, BlockSize)
	fillBlock(out, 0, BlockSize/4, 7)

	seed := blockSeed(7, 0)
	gen := newXoshiro256pp(seed)
	want := make([]byte, BlockSize)
	gen.fillKeystream(want)

	copyLen := BlockSize / 4
	alreadyCopied := 0
	for alreadyCopied < copyLen {
		remaining := copyLen - alreadyCopied
		runLen := gen.intRange(RunMin, RunMax)
		if runLen > remaining {
			runLen = remaining
		}
		if runLen <= 0 {
			break
		}
		dstHi := len(want) - runLen
		if dstHi < BackrefMax {
			break
		}
		dst := gen.intRange(BackrefMax, dstHi)
		back := gen.intRange(BackrefMin, BackrefMax)
		src := dst - back
		copy(want[dst:dst+runLen], want[src:src+runLen])
		alreadyCopied += runLen
	}

	if !bytes.Equal(out, want) {
		t.Fatal("fillBlock output diverged from independently replayed draw sequence")
	}
}
