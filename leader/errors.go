package leader

import "errors"

var (
	// ErrInsufficientData is returned when fewer than two points are available for estimating τ.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrMissingThreshold is returned when the exact pass is invoked without τ.
	ErrMissingThreshold = errors.New("missing threshold")

	// ErrLabelCountMismatch is returned when the number of clique labels differs from the number of cliques.
	ErrLabelCountMismatch = errors.New("label count mismatch")

	// ErrIndexTooSmall is returned when the index holds fewer points than the store.
	ErrIndexTooSmall = errors.New("index holds fewer points than the store")

	// ErrInvalidPartition is returned when cliques do not cover every point exactly once.
	ErrInvalidPartition = errors.New("invalid partition")
)
