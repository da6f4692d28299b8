// Package vectorstore holds the immutable, labelled point set that the
// clustering passes read from.
//
// Point i is identified by its position in the store. The store never copies
// or mutates the caller's vectors; callers must not modify them afterwards.
package vectorstore

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

var (
	// ErrEmpty is returned when a store would contain no points.
	ErrEmpty = errors.New("empty point set")

	// ErrWrongDimension is returned when a vector doesn't match the store dimension.
	ErrWrongDimension = errors.New("wrong vector dimension")

	// ErrLabelCount is returned when the number of labels differs from the number of points.
	ErrLabelCount = errors.New("label count does not match point count")

	// ErrInvalidRatio is returned for a sample ratio outside (0, 1].
	ErrInvalidRatio = errors.New("sample ratio must be in (0, 1]")
)

// Store is an immutable sequence of points with one label each.
type Store struct {
	dim    int
	points [][]float64
	labels []string
}

// New creates a store over points and labels.
// A nil labels slice labels every point with its index.
func New(points [][]float64, labels []string) (*Store, error) {
	if len(points) == 0 {
		return nil, ErrEmpty
	}

	if labels == nil {
		labels = make([]string, len(points))
		for i := range labels {
			labels[i] = strconv.Itoa(i)
		}
	}

	if len(labels) != len(points) {
		return nil, fmt.Errorf("%w: %d labels for %d points", ErrLabelCount, len(labels), len(points))
	}

	dim := len(points[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: point 0 has dimension 0", ErrWrongDimension)
	}

	for i, p := range points {
		if len(p) != dim {
			return nil, fmt.Errorf("%w: point %d has dimension %d, want %d", ErrWrongDimension, i, len(p), dim)
		}
	}

	return &Store{dim: dim, points: points, labels: labels}, nil
}

// Len returns the number of points.
func (s *Store) Len() int { return len(s.points) }

// Dimension returns the dimension shared by all points.
func (s *Store) Dimension() int { return s.dim }

// Point returns point i. The returned slice must not be modified.
func (s *Store) Point(i int) []float64 { return s.points[i] }

// Label returns the label of point i.
func (s *Store) Label(i int) string { return s.labels[i] }

// Points returns all points in store order.
func (s *Store) Points() [][]float64 { return s.points }

// Labels returns all labels in store order.
func (s *Store) Labels() []string { return s.labels }

// Prefix returns a store holding the first floor(Len()*ratio) points.
// A ratio of exactly 1 returns the receiver.
func (s *Store) Prefix(ratio float64) (*Store, error) {
	if math.IsNaN(ratio) || ratio <= 0 || ratio > 1 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidRatio, ratio)
	}

	if ratio == 1 {
		return s, nil
	}

	n := int(math.Floor(float64(len(s.points)) * ratio))
	if n == 0 {
		return nil, fmt.Errorf("%w: ratio %v keeps no points", ErrEmpty, ratio)
	}

	return &Store{dim: s.dim, points: s.points[:n], labels: s.labels[:n]}, nil
}
