package features

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned when a configuration fails validation.
	ErrInvalidConfig = errors.New("invalid extractor configuration")
	// ErrShapeMismatch is returned when two feature matrices cannot be combined.
	ErrShapeMismatch = errors.New("feature matrix shape mismatch")
	// ErrInvalidScale is returned for negative, infinite or NaN scaling factors.
	ErrInvalidScale = errors.New("invalid energy scaling factor")
	// ErrDuplicateExtractor is returned when a name is registered twice.
	ErrDuplicateExtractor = errors.New("extractor already registered")
	// ErrExtractorNotFound is returned when looking up an unregistered name.
	ErrExtractorNotFound = errors.New("extractor not found")
	// ErrNameMismatch is returned when a constructor builds an extractor
	// whose Name differs from the name it was registered under.
	ErrNameMismatch = errors.New("extractor name does not match registration")
)

// ShapeError reports the two shapes that could not be combined.
type ShapeError struct {
	Op    string
	RowsA int
	ColsA int
	RowsB int
	ColsB int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: %v: (%d, %d) vs (%d, %d)", e.Op, ErrShapeMismatch, e.RowsA, e.ColsA, e.RowsB, e.ColsB)
}

func (e *ShapeError) Unwrap() error {
	return ErrShapeMismatch
}

func invalidConfig(field string, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidConfig, field, fmt.Sprintf(format, args...))
}
