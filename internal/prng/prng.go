// Package prng provides the deterministic number stream used to synthesise
// review corpora.
//
// The generator is a sine recurrence: weak statistically and unsuitable for
// anything security sensitive, but reproducible across runtimes, which is
// what lets a re-analysed URL come back with the identical result.
package prng

import (
	"math"
	"unicode/utf16"
)

// Seed hashes s into a non-negative seed. It folds UTF-16 code units with
// h = h*31 + c in 32-bit signed arithmetic and returns |h|, so the result
// lies in [0, 2^31].
func Seed(s string) int64 {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = h<<5 - h + int32(c)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return v
}

// Generator is a stateful stream of floats in [0, 1).
// It is not safe for concurrent use; each analysis owns its own.
type Generator struct {
	x float64
}

// New returns a generator positioned at the start of the stream for seed.
func New(seed int64) *Generator {
	return &Generator{x: float64(Sin(float64(seed)) * 10000)}
}

// NewFromString is New(Seed(s)).
func NewFromString(s string) *Generator {
	return New(Seed(s))
}

// Float64 returns the next value in [0, 1).
func (g *Generator) Float64() float64 {
	g.x = float64(Sin(g.x) * 10000)
	return g.x - math.Floor(g.x)
}

// Intn returns floor(Float64() * n), consuming exactly one draw.
func (g *Generator) Intn(n int) int {
	return int(math.Floor(g.Float64() * float64(n)))
}
