package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Input shape errors
	ErrMissingColumn = errors.New("missing column")

	// Analysis errors
	ErrDegenerateInput           = errors.New("degenerate input")
	ErrUnsupportedVariationCount = errors.New("unsupported variation count")

	// Configuration errors
	ErrInvalidConfidence = errors.New("confidence level must be in (0, 1)")
)

// Error constructors with context
func NewMissingColumnError(column string) error {
	return fmt.Errorf("%w: %q not present in input rows", ErrMissingColumn, column)
}

func NewDegenerateInputError(category string, reason string) error {
	return fmt.Errorf("%w for category %q: %s", ErrDegenerateInput, category, reason)
}

func NewUnsupportedVariationCountError(category string, got int) error {
	return fmt.Errorf("%w for category %q: pairwise comparison requires exactly 2 variations, got %d", ErrUnsupportedVariationCount, category, got)
}

// Error checking helpers
func IsMissingColumnError(err error) bool {
	return errors.Is(err, ErrMissingColumn)
}

func IsAnalysisError(err error) bool {
	return errors.Is(err, ErrDegenerateInput) ||
		errors.Is(err, ErrUnsupportedVariationCount)
}
