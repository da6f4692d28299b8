// Package leader implements the first clustering stage: greedy leader
// ("clique") clustering of a point store under a distance threshold τ.
//
// A clique is led by the first point that is not yet part of another clique
// and keeps an incrementally maintained centroid. Two builders exist:
//
//   - BuildFast asks a nearest neighbour index for everything within τ of the
//     leader, growing the query size adaptively, and absorbs every point that
//     is not consumed yet.
//   - BuildExact scans the existing cliques in creation order and lets a point
//     join the first clique whose centroid is closer than τ.
//
// EstimateThreshold derives τ from the data when none is given, and Expand
// maps stage-two cluster ids of cliques back onto every member point.
package leader
