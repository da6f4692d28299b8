// Package index provides the nearest neighbour index abstraction used by the
// leader clustering passes.
//
// Every index addresses points by their position in the point store and
// reports Euclidean distances in ascending order, ties broken by ID.
package index

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrOutOfRange is returned when a query references an unknown point.
	ErrOutOfRange = errors.New("point id out of range")

	// ErrEmptyIndex is returned when an index holds no points.
	ErrEmptyIndex = errors.New("index is empty")

	// ErrUnknownType is returned for an unsupported index type.
	ErrUnknownType = errors.New("unknown index type")
)

// ErrDimensionMismatch is a named error type for dimension mismatch
type ErrDimensionMismatch struct {
	Expected int // Expected dimensions
	Actual   int // Actual dimensions
}

// Error returns the error message for dimension mismatch
func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Neighbor is a query result.
type Neighbor struct {
	// ID is the position of the neighbour in the point store.
	ID int

	// Distance is the Euclidean distance between the query and the neighbour.
	Distance float64
}

// Index answers k-nearest-neighbour queries over a fixed point set.
type Index interface {
	// Name returns a short identifier of the implementation.
	Name() string

	// Len returns the number of indexed points.
	Len() int

	// Dimension returns the dimension of the indexed points.
	Dimension() int

	// Query returns up to k neighbours of point id, nearest first.
	// The point itself is normally the first result.
	Query(id, k int) ([]Neighbor, error)

	// Search returns up to k neighbours of q, nearest first.
	Search(q []float64, k int) ([]Neighbor, error)
}

// Type identifies an index implementation in persisted blobs and configuration.
type Type uint8

const (
	TypeFlat Type = 1
	TypeHNSW Type = 2
)

// String returns a string representation of the Type.
func (t Type) String() string {
	switch t {
	case TypeFlat:
		return "flat"
	case TypeHNSW:
		return "hnsw"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// ParseType parses "flat" or "hnsw".
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "flat":
		return TypeFlat, nil
	case "hnsw", "":
		return TypeHNSW, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
}

// SortNeighbors orders neighbours by ascending distance, then by ID.
func SortNeighbors(ns []Neighbor) {
	sort.Slice(ns, func(i, j int) bool {
		if ns[i].Distance == ns[j].Distance {
			return ns[i].ID < ns[j].ID
		}
		return ns[i].Distance < ns[j].Distance
	})
}
