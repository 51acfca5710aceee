package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	DatasetID ID
	SessionID ID
)

// String conversions for domain IDs
func (id DatasetID) String() string { return ID(id).String() }
func (id SessionID) String() string { return ID(id).String() }

// NewDatasetID creates a new unique dataset identifier
func NewDatasetID() DatasetID { return DatasetID(NewID()) }

// NewSessionID creates a new unique session identifier
func NewSessionID() SessionID { return SessionID(NewID()) }

// ParseDatasetID parses a string into DatasetID
func ParseDatasetID(s string) (DatasetID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("dataset ID cannot be empty")
	}
	return DatasetID(s), nil
}

// ParseSessionID parses a string into SessionID, validating the UUID form
// since session IDs round-trip through browser cookies.
func ParseSessionID(s string) (SessionID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("session ID cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("invalid session ID: %w", err)
	}
	return SessionID(s), nil
}
