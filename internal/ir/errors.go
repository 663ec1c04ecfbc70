package ir

import (
	"errors"
	"fmt"
)

// Sentinel errors matched by the typed errors' Is methods.
var (
	// ErrStructural is matched by every *StructuralError.
	ErrStructural = errors.New("structural error")

	// ErrReferential is matched by every *ReferentialError.
	ErrReferential = errors.New("referential error")
)

// Reason categorizes a structural error.
type Reason string

const (
	// ReasonMissing indicates a required section or field is absent.
	ReasonMissing Reason = "missing"

	// ReasonEmpty indicates a required identifier is present but empty.
	ReasonEmpty Reason = "empty"

	// ReasonMultiple indicates a singular element was given more than once.
	ReasonMultiple Reason = "multiple"

	// ReasonInvalid indicates a value outside its allowed set.
	ReasonInvalid Reason = "invalid"

	// ReasonConflict indicates one local id registered under two identities.
	ReasonConflict Reason = "conflict"

	// ReasonMalformed indicates the source could not be parsed at all.
	ReasonMalformed Reason = "malformed"
)

// StructuralError reports a document that violates the schema contract.
// It is fatal and never retried.
type StructuralError struct {
	// Path is the dotted document path, e.g. "OriginTrailExport.DataProvider".
	Path string

	// Reason identifies the violation.
	Reason Reason

	// Detail is optional human-readable context.
	Detail string
}

func (e *StructuralError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("structural error at %s: %s (%s)", e.Path, e.Reason, e.Detail)
	}
	return fmt.Sprintf("structural error at %s: %s", e.Path, e.Reason)
}

func (e *StructuralError) Is(target error) bool {
	return target == ErrStructural
}

// ReferentialError reports a foreign identifier that resolves neither in the
// current run nor in the store.
type ReferentialError struct {
	Kind     Kind
	ID       string // Identifier as written in the document
	URI      URI    // Canonical form that was probed
	Referrer string // Referencing context, e.g. "transaction T1 (BusinessLocationId)"
}

func (e *ReferentialError) Error() string {
	return fmt.Sprintf("%s with id %s referenced by %s is not provided in the document nor found in the store",
		e.Kind, e.ID, e.Referrer)
}

func (e *ReferentialError) Is(target error) bool {
	return target == ErrReferential
}

// NewMissing creates a StructuralError for an absent required element.
func NewMissing(path string) *StructuralError {
	return &StructuralError{Path: path, Reason: ReasonMissing}
}

// NewEmpty creates a StructuralError for an empty identifier.
func NewEmpty(path string) *StructuralError {
	return &StructuralError{Path: path, Reason: ReasonEmpty}
}

// NewMultiple creates a StructuralError for a repeated singular element.
func NewMultiple(path string) *StructuralError {
	return &StructuralError{Path: path, Reason: ReasonMultiple}
}

// NewInvalid creates a StructuralError for a value outside its allowed set.
func NewInvalid(path, detail string) *StructuralError {
	return &StructuralError{Path: path, Reason: ReasonInvalid, Detail: detail}
}

// IsStructural returns true if err is or wraps a StructuralError.
func IsStructural(err error) bool {
	return errors.Is(err, ErrStructural)
}

// IsReferential returns true if err is or wraps a ReferentialError.
func IsReferential(err error) bool {
	return errors.Is(err, ErrReferential)
}
