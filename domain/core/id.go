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
	// Use UUID v7 for time-ordered, sortable IDs
	// Falls back to v4 if v7 is not available (for compatibility)
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
	// DocumentID identifies one generated output document.
	DocumentID ID
	// BundleID is the customer code naming a bundle directory (e.g. "JF").
	BundleID ID
	// TraceID tags every log line and audit row of one generation run.
	TraceID ID
	// ColumnID is the stable join key of a column definition; it is the only
	// way regions refer to columns, never a raw index.
	ColumnID ID
)

// String conversions for domain IDs
func (id DocumentID) String() string { return ID(id).String() }
func (id BundleID) String() string   { return ID(id).String() }
func (id TraceID) String() string    { return ID(id).String() }
func (id ColumnID) String() string   { return ID(id).String() }

// NewTraceID creates a short run identifier for log correlation
func NewTraceID() TraceID {
	return TraceID("run-" + strings.SplitN(NewID().String(), "-", 2)[0])
}

// ParseDocumentID parses a string into DocumentID
func ParseDocumentID(s string) (DocumentID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("document ID cannot be empty")
	}
	return DocumentID(s), nil
}

// ParseBundleID parses a string into BundleID
func ParseBundleID(s string) (BundleID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("bundle ID cannot be empty")
	}
	return BundleID(s), nil
}

// ParseColumnID parses a string into ColumnID
func ParseColumnID(s string) (ColumnID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("column ID cannot be empty")
	}
	return ColumnID(s), nil
}
