// Package entropy provides the random sources that drive stochastic decisions:
// leader adoption draws, random walks, hazard spread, and admission order.
// A run is reproducible from its seed; seed 0 draws one from crypto/rand.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand"
)

// Source is the uniform/Gaussian random-number source consumed by the
// simulation. *math/rand.Rand satisfies it.
type Source interface {
	Float64() float64     // Uniform in [0, 1)
	Intn(n int) int       // Uniform in [0, n)
	NormFloat64() float64 // Standard normal
}

// New returns a seeded source. Seed 0 is replaced with a crypto-random seed;
// the seed actually used is returned so it can be recorded with the run.
func New(seed int64) (Source, int64) {
	if seed == 0 {
		seed = CryptoSeed()
	}
	return mrand.New(mrand.NewSource(seed)), seed
}

// Pick returns a uniformly random index into a collection of length n, or -1
// when n is zero.
func Pick(src Source, n int) int {
	if n <= 0 {
		return -1
	}
	return src.Intn(n)
}

// Sample draws k distinct indices from [0, n) by repeated index draws over
// the shrinking candidate set. k larger than n returns every index.
func Sample(src Source, n, k int) []int {
	if k > n {
		k = n
	}
	pool := make([]int, n)
	for i := range pool {
		pool[i] = i
	}
	out := make([]int, 0, k)
	for len(out) < k {
		j := src.Intn(len(pool))
		out = append(out, pool[j])
		pool[j] = pool[len(pool)-1]
		pool = pool[:len(pool)-1]
	}
	return out
}

// CryptoSeed returns a positive seed from crypto/rand.
func CryptoSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// This should never happen but return a fixed seed as a safe default.
		return 1
	}
	seed := int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
	if seed == 0 {
		seed = 1
	}
	return seed
}

// Fixed is a deterministic Source that replays scripted values, cycling when
// exhausted. Empty scripts yield zeros. It is used by scenario tests and by
// replay tooling that needs exact draws.
type Fixed struct {
	Floats []float64
	Ints   []int
	Norms  []float64

	fi, ii, ni int
}

// Float64 returns the next scripted uniform value.
func (f *Fixed) Float64() float64 {
	if len(f.Floats) == 0 {
		return 0
	}
	v := f.Floats[f.fi%len(f.Floats)]
	f.fi++
	return v
}

// Intn returns the next scripted integer reduced modulo n.
func (f *Fixed) Intn(n int) int {
	if n <= 0 {
		panic("entropy: Intn called with non-positive n")
	}
	if len(f.Ints) == 0 {
		return 0
	}
	v := f.Ints[f.ii%len(f.Ints)]
	f.ii++
	if v < 0 {
		v = -v
	}
	return v % n
}

// NormFloat64 returns the next scripted normal deviate.
func (f *Fixed) NormFloat64() float64 {
	if len(f.Norms) == 0 {
		return 0
	}
	v := f.Norms[f.ni%len(f.Norms)]
	f.ni++
	return v
}
