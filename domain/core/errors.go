package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound        = errors.New("resource not found")
	ErrDatasetNotFound = fmt.Errorf("%w: dataset", ErrNotFound)
	ErrRecordNotFound  = fmt.Errorf("%w: record", ErrNotFound)
	ErrSessionNotFound = fmt.Errorf("%w: session", ErrNotFound)

	// Intake errors
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrMissingColumn     = errors.New("required column missing")
	ErrEmptyFile         = errors.New("file contains no data rows")
	ErrFileTooLarge      = errors.New("file exceeds upload size limit")

	// Structure errors
	ErrInvalidSMILES    = errors.New("invalid SMILES string")
	ErrStructureParse   = errors.New("structure parse failed")
	ErrDepictionFailed  = errors.New("depiction failed")
	ErrNoCoordinates    = errors.New("structure has no 2D coordinates")
	ErrMoleculeTooLarge = errors.New("molecule exceeds atom limit")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewMissingColumnError(column string) error {
	return fmt.Errorf("%w: no %s column found", ErrMissingColumn, column)
}

func NewUnsupportedFormatError(ext string, supported []string) error {
	return fmt.Errorf("%w: %q (supported: %v)", ErrUnsupportedFormat, ext, supported)
}

func NewStructureParseError(line int, err error) error {
	return fmt.Errorf("%w at record line %d: %v", ErrStructureParse, line, err)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsIntakeError(err error) bool {
	return errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrMissingColumn) ||
		errors.Is(err, ErrEmptyFile) ||
		errors.Is(err, ErrFileTooLarge)
}

func IsStructureError(err error) bool {
	return errors.Is(err, ErrInvalidSMILES) ||
		errors.Is(err, ErrStructureParse) ||
		errors.Is(err, ErrDepictionFailed)
}
