package synthgen

// blockSeed computes the per-unique-block seed from call entropy and
// unique index (spec §4.1 step 1). seedMultiplier is odd so distinct
// unique indices decorrelate even when callEntropy is zero.
func blockSeed(callEntropy uint64, uniqueIndex uint64) uint64 {
	return callEntropy ^ (uniqueIndex * seedMultiplier)
}

// fillBlock writes exactly len(out) bytes that, concatenated with every
// other block produced from the same callEntropy, yield output whose
// generic-compressor ratio approximates 1/compressFactor and whose dedup
// ratio approximates dedupFactor (spec §4.1).
//
// fillBlock cannot fail: argument validation is the Plan Builder's
// responsibility. Two calls with identical (uniqueIndex, callEntropy,
// copyLen, len(out)) always produce byte-identical output, regardless of
// which goroutine or host runs them — the generator holds no state
// outside this call's stack frame.
func fillBlock(out []byte, uniqueIndex uint64, copyLen int, callEntropy uint64) {
	seed := blockSeed(callEntropy, uniqueIndex)
	gen := newXoshiro256pp(seed)

	// Keystream fill: the high-entropy baseline that makes
	// compress_factor = 1 essentially incompressible.
	gen.fillKeystream(out)

	if copyLen <= 0 {
		return
	}
	if copyLen > len(out) {
		copyLen = len(out)
	}

	// Back-reference pass, drawing run_len/dst/back from the SAME
	// generator stream that produced the keystream (spec §4.1 step 4):
	// reordering these draws relative to the keystream would change
	// every block's content.
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

		// dst must leave room for a full run and for a source at
		// dst-back to stay in-bounds, so dst is drawn from
		// [BackrefMax, len(out)-runLen].
		dstHi := len(out) - runLen
		if dstHi < BackrefMax {
			// Block too small relative to BackrefMax/runLen to place
			// another back-reference; stop early rather than corrupt
			// bounds. Only reachable with a pathologically small out.
			break
		}
		dst := gen.intRange(BackrefMax, dstHi)
		back := gen.intRange(BackrefMin, BackrefMax)

		src := dst - back
		copy(out[dst:dst+runLen], out[src:src+runLen])

		alreadyCopied += runLen
	}
}
