package mfcc

import (
	"math"
	"math/bits"
)

// fftPlan holds the bit-reversal and twiddle tables for one transform size.
// A plan is read-only after construction and may be shared.
type fftPlan struct {
	n       int
	rev     []int
	twiddle []complex128 // exp(-2πik/n) for k in [0, n/2)
}

// newFFTPlan builds tables for an n-point transform. n must be a power of 2.
func newFFTPlan(n int) *fftPlan {
	p := &fftPlan{
		n:       n,
		rev:     make([]int, n),
		twiddle: make([]complex128, n/2),
	}
	shift := 64 - bits.TrailingZeros(uint(n))
	for i := range p.rev {
		if n > 1 {
			p.rev[i] = int(bits.Reverse64(uint64(i)) >> shift)
		}
	}
	for k := range p.twiddle {
		s, c := math.Sincos(-2 * math.Pi * float64(k) / float64(n))
		p.twiddle[k] = complex(c, s)
	}
	return p
}

// transform runs an in-place iterative radix-2 FFT over x. len(x) must be p.n.
func (p *fftPlan) transform(x []complex128) {
	for i, j := range p.rev {
		if i < j {
			x[i], x[j] = x[j], x[i]
		}
	}
	for size := 2; size <= p.n; size <<= 1 {
		half := size >> 1
		step := p.n / size
		for start := 0; start < p.n; start += size {
			for k := 0; k < half; k++ {
				u, v := start+k, start+k+half
				t := p.twiddle[k*step] * x[v]
				x[v] = x[u] - t
				x[u] += t
			}
		}
	}
}

// isPow2 reports whether n is a positive power of two.
func isPow2(n int) bool {
	return n > 0 && n&(n-1) == 0
}
