// Package rng abstracts the random source used by loot, quest selection and
// message picking so tests can supply a seeded generator.
package rng

import "math/rand/v2"

// Source is satisfied by *rand.Rand from math/rand/v2.
type Source interface {
	Float64() float64
	IntN(n int) int
	Shuffle(n int, swap func(i, j int))
}

// global delegates to the top-level math/rand/v2 functions, which are safe
// for concurrent use.
type global struct{}

func (global) Float64() float64 { return rand.Float64() }
func (global) IntN(n int) int { return rand.IntN(n) }
func (global) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }

// Global returns a concurrency-safe Source backed by the runtime generator.
func Global() Source {
	return global{}
}

// Seeded returns a deterministic Source. It is not safe for concurrent use.
func Seeded(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Pick returns a uniformly chosen element of items. items must be non-empty.
func Pick[T any](src Source, items []T) T {
	return items[src.IntN(len(items))]
}
