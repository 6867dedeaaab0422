package statistics

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand/v2"
)

// Source is the minimal generator interface consumed by PRNG.
// *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	Float64() float64
	IntN(n int) int
}

// PRNG is an explicitly constructed, seeded generator. Values are consumed
// sequentially through Next; it is not safe for concurrent use.
type PRNG struct {
	src  Source
	seed int64
}

// streamIncrement is the fixed PCG stream selector. Changing it changes
// every seeded sequence.
const streamIncrement = 0x9e3779b97f4a7c15

// New returns a PRNG seeded with seed. Equal seeds yield equal sequences.
func New(seed int64) *PRNG {
	return &PRNG{
		src:  rand.New(rand.NewPCG(uint64(seed), streamIncrement)),
		seed: seed,
	}
}

// NewStream derives an independent generator for a named stream, e.g.
// ("perturb", id). The derived seed depends only on its inputs.
func NewStream(seed int64, name string, keys ...string) *PRNG {
	return New(DeriveSeed(seed, name, keys...))
}

// DeriveSeed hashes a base seed and stream labels into a new seed.
func DeriveSeed(seed int64, name string, keys ...string) int64 {
	h := fnv.New64a()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(seed))
	h.Write(buf[:])       //nolint:errcheck
	h.Write([]byte(name)) //nolint:errcheck
	for _, k := range keys {
		h.Write([]byte{0}) //nolint:errcheck
		h.Write([]byte(k)) //nolint:errcheck
	}
	return int64(h.Sum64() & 0x7fffffffffffffff)
}

// FromSource wraps an arbitrary source, typically a fixed sequence in tests.
func FromSource(src Source) *PRNG {
	return &PRNG{src: src, seed: -1}
}

// Seed returns the seed the generator was built from, or -1 for wrapped sources.
func (p *PRNG) Seed() int64 {
	return p.seed
}

// Next returns the next value in [0, 1).
func (p *PRNG) Next() float64 {
	return p.src.Float64()
}

// Intn returns the next integer in [0, n). It panics if n <= 0.
func (p *PRNG) Intn(n int) int {
	return p.src.IntN(n)
}

// Uniform returns the next value in [lo, hi).
func (p *PRNG) Uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*p.Next()
}

// Shuffle permutes n elements in place using Fisher-Yates.
func (p *PRNG) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := p.Intn(i + 1)
		swap(i, j)
	}
}

// Derangement returns a permutation of [0, n) with no fixed points when n >= 2
// (Sattolo's algorithm, which always yields a single n-cycle).
func (p *PRNG) Derangement(n int) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := p.Intn(i)
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm
}

// Sequence is a Source that replays fixed values in order, wrapping around.
type Sequence struct {
	values []float64
	pos    int
}

// NewSequence returns a PRNG that replays values. Values must lie in [0, 1).
func NewSequence(values ...float64) *PRNG {
	return FromSource(&Sequence{values: values})
}

// Float64 returns the next value of the sequence.
func (s *Sequence) Float64() float64 {
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.pos%len(s.values)]
	s.pos++
	return v
}

// IntN maps the next value onto [0, n).
func (s *Sequence) IntN(n int) int {
	i := int(s.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}
