// Package distance provides vector distance calculations over float64 vectors.
//
// # Supported Metrics
//
//   - MetricL2: Euclidean distance (default)
//   - MetricSquaredL2: Squared Euclidean distance (monotone with L2, cheaper)
//   - MetricCosine: Cosine distance (1 - cosine similarity)
//
// # Usage
//
//	d := distance.L2(a, b)
//	fn, _ := distance.Provider(distance.MetricSquaredL2)
//	m := distance.Mean(points)
package distance
