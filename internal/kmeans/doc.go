// Package kmeans implements Lloyd's k-means with k-means++ seeding.
//
// It serves as an alternative second-stage clusterer over clique centroids
// and as the direct k-means baseline over all points.
package kmeans
