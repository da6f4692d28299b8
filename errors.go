package conceptx

import (
	"errors"
	"fmt"

	"github.com/arushisharma17/ConceptX/agglomerative"
	"github.com/arushisharma17/ConceptX/index"
	"github.com/arushisharma17/ConceptX/internal/kmeans"
	"github.com/arushisharma17/ConceptX/leader"
	"github.com/arushisharma17/ConceptX/persistence"
	"github.com/arushisharma17/ConceptX/vectorstore"
)

var (
	// ErrInsufficientData is returned when there are too few points to work with.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrMissingThreshold is returned when the exact pass runs without τ.
	ErrMissingThreshold = errors.New("missing threshold")

	// ErrIndexUnavailable is returned when an existing index cannot be loaded
	// or does not match the point store.
	ErrIndexUnavailable = errors.New("index unavailable")

	// ErrLabelCountMismatch is returned when a label count differs from the
	// number of points or cliques it describes.
	ErrLabelCountMismatch = errors.New("label count mismatch")

	// ErrInvalidK is returned when k is not in [1, number of items].
	ErrInvalidK = errors.New("invalid k")

	// ErrInvalidConfig is returned for an invalid configuration value.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ErrDimensionMismatch indicates a vector/index dimensionality mismatch.
//
// The wrapped cause, if any, is reachable through errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// translateError maps package errors onto the sentinels above.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var dm *index.ErrDimensionMismatch
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}

	switch {
	case errors.Is(err, leader.ErrInsufficientData), errors.Is(err, vectorstore.ErrEmpty):
		return fmt.Errorf("%w: %w", ErrInsufficientData, err)
	case errors.Is(err, leader.ErrMissingThreshold):
		return fmt.Errorf("%w: %w", ErrMissingThreshold, err)
	case errors.Is(err, leader.ErrLabelCountMismatch), errors.Is(err, vectorstore.ErrLabelCount):
		return fmt.Errorf("%w: %w", ErrLabelCountMismatch, err)
	case errors.Is(err, leader.ErrIndexTooSmall):
		return fmt.Errorf("%w: %w", ErrIndexUnavailable, err)
	case errors.Is(err, agglomerative.ErrInvalidK), errors.Is(err, kmeans.ErrInvalidK):
		return fmt.Errorf("%w: %w", ErrInvalidK, err)
	case errors.Is(err, vectorstore.ErrInvalidRatio),
		errors.Is(err, index.ErrUnknownType),
		errors.Is(err, persistence.ErrUnknownCompression):
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	case errors.Is(err, persistence.ErrInvalidMagic),
		errors.Is(err, persistence.ErrInvalidVersion),
		errors.Is(err, persistence.ErrInvalidIndex),
		errors.Is(err, persistence.ErrTruncated),
		persistence.IsChecksumMismatch(err):
		return fmt.Errorf("%w: %w", ErrIndexUnavailable, err)
	}

	return err
}
