package synthgen

import "math/bits"

// xoshiro256pp is a xoshiro256++ generator: four 64-bit words of state, a
// strong statistical profile, and no cryptographic pretensions — exactly
// the class spec §4.1 calls for. The jump function from the reference
// design isn't needed here: every block gets its own independently
// seeded generator, so there is no single long stream to jump within.
type xoshiro256pp struct {
	s [4]uint64
}

// newXoshiro256pp seeds a generator from a single 64-bit value using
// splitmix64 to fill the four words of state. A xoshiro generator seeded
// directly from a small or all-zero value produces weak early output;
// splitmix64 pre-mixing is the standard remedy and keeps seeding O(1).
func newXoshiro256pp(seed uint64) *xoshiro256pp {
	var sm splitmix64
	sm.state = seed

	g := &xoshiro256pp{}
	for i := range g.s {
		g.s[i] = sm.next()
	}
	return g
}

// splitmix64 is the standard companion generator used to expand a single
// 64-bit seed into xoshiro256's 256 bits of initial state.
type splitmix64 struct {
	state uint64
}

func (s *splitmix64) next() uint64 {
	s.state += 0x9E3779B97F4A7C15
	z := s.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// next returns the next 64-bit output and advances the generator state.
func (g *xoshiro256pp) next() uint64 {
	s := &g.s
	result := bits.RotateLeft64(s[0]+s[3], 23) + s[0]

	t := s[1] << 17

	s[2] ^= s[0]
	s[3] ^= s[1]
	s[1] ^= s[2]
	s[0] ^= s[3]

	s[2] ^= t

	s[3] = bits.RotateLeft64(s[3], 45)

	return result
}

// fillKeystream writes len(out) bytes of keystream into out, one 64-bit
// draw at a time, truncating the final draw if out's length isn't a
// multiple of 8.
func (g *xoshiro256pp) fillKeystream(out []byte) {
	n := len(out)
	i := 0
	for ; i+8 <= n; i += 8 {
		v := g.next()
		out[i] = byte(v)
		out[i+1] = byte(v >> 8)
		out[i+2] = byte(v >> 16)
		out[i+3] = byte(v >> 24)
		out[i+4] = byte(v >> 32)
		out[i+5] = byte(v >> 40)
		out[i+6] = byte(v >> 48)
		out[i+7] = byte(v >> 56)
	}
	if i < n {
		v := g.next()
		for ; i < n; i++ {
			out[i] = byte(v)
			v >>= 8
		}
	}
}

// uintn draws a uniform value in [0, n) from the generator. Used for the
// back-reference pass's run_len/dst/back draws. A plain modulo
// reduction without rejection is acceptable here: the spec doesn't require
// unbiased sampling, only reproducibility, and the bias introduced by a
// plain modulo is negligible at these ranges (n <= BlockSize).
func (g *xoshiro256pp) uintn(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	return g.next() % n
}

// intRange draws a uniform value in [lo, hi] inclusive.
func (g *xoshiro256pp) intRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	span := uint64(hi-lo) + 1
	return lo + int(g.uintn(span))
}
