// Package testutil provides testing utilities for ConceptX.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded thread-safe random source, point generators and a
// recall helper for approximate indexes.
//
//	rng := testutil.NewRNG(seed)
//	points := rng.UniformVectors(1000, 16)
//	points, truth := rng.Blobs([][]float64{{0, 0}, {50, 50}}, 100, 0.5)
package testutil
