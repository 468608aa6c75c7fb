package editor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gobim/ecschema"
	"github.com/gobim/ecschema/validation"
)

// Status classifies editing failures. Callers branch on status codes,
// never on message text.
type Status string

const (
	// StatusSchemaNotFound indicates the addressed schema is not loaded.
	StatusSchemaNotFound Status = "SchemaNotFound"
	// StatusItemNotFound indicates the addressed item is absent.
	StatusItemNotFound Status = "SchemaItemNotFound"
	// StatusPropertyNotFound indicates the addressed property is absent.
	StatusPropertyNotFound Status = "PropertyNotFound"
	// StatusDuplicateItem indicates an item name collision.
	StatusDuplicateItem Status = "DuplicateItem"
	// StatusDuplicateProperty indicates a property name collision among
	// a class's own declared properties.
	StatusDuplicateProperty Status = "DuplicateProperty"
	// StatusInvalidType indicates a referenced item has the wrong
	// variant or a property type is outside the allowed set.
	StatusInvalidType Status = "InvalidType"
	// StatusInvalidBaseClass indicates a structurally incompatible base
	// class assignment.
	StatusInvalidBaseClass Status = "InvalidBaseClass"
	// StatusRuleViolation indicates a custom attribute failed
	// validation; the error carries the full diagnostic list.
	StatusRuleViolation Status = "RuleViolation"
	// StatusHasDependents indicates a delete was refused because
	// derived classes or referencing properties exist.
	StatusHasDependents Status = "HasDependents"
	// StatusInvalidName indicates a malformed item or property name.
	StatusInvalidName Status = "InvalidName"
)

// Identity names the schema element an operation failed on.
type Identity interface {
	// String renders the identity for messages.
	String() string
}

// SchemaID identifies a schema.
type SchemaID struct {
	Key ecschema.SchemaKey
}

// String renders the identity.
func (id SchemaID) String() string { return "schema " + id.Key.String() }

// ItemID identifies a schema item.
type ItemID struct {
	Key ecschema.ItemKey
}

// String renders the identity.
func (id ItemID) String() string { return "item " + id.Key.FullName() }

// ClassID identifies a class.
type ClassID struct {
	Key ecschema.ItemKey
}

// String renders the identity.
func (id ClassID) String() string { return "class " + id.Key.FullName() }

// PropertyID identifies a property on a class.
type PropertyID struct {
	Class ecschema.ItemKey
	Name  string
}

// String renders the identity.
func (id PropertyID) String() string {
	return "property " + id.Class.FullName() + "." + id.Name
}

// CustomAttributeID identifies a custom attribute application.
type CustomAttributeID struct {
	Container string
	ClassName string
}

// String renders the identity.
func (id CustomAttributeID) String() string {
	return "custom attribute " + id.ClassName + " on " + id.Container
}

// EditingError is the single structured error type every class and
// property mutation failure is wrapped into: a status code, the
// identity of the offending element, the original cause, and for rule
// violations the full diagnostic list.
type EditingError struct {
	Status      Status
	Identity    Identity
	Cause       error
	Diagnostics []validation.Diagnostic
}

// Error renders the status, identity, and cause.
func (e *EditingError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s]", e.Status)
	if e.Identity != nil {
		fmt.Fprintf(&b, " %s", e.Identity)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	if len(e.Diagnostics) > 0 {
		fmt.Fprintf(&b, ": %d rule violation(s)", len(e.Diagnostics))
		for _, d := range e.Diagnostics {
			fmt.Fprintf(&b, "; %s", d)
		}
	}
	return b.String()
}

// Unwrap exposes the original cause.
func (e *EditingError) Unwrap() error { return e.Cause }

// AsEditingError extracts the structured editing error from err.
func AsEditingError(err error) (*EditingError, bool) {
	var editErr *EditingError
	if errors.As(err, &editErr) {
		return editErr, true
	}
	return nil, false
}

func newError(status Status, identity Identity, cause error) *EditingError {
	return &EditingError{Status: status, Identity: identity, Cause: cause}
}

func statusForCause(err error, fallback Status) Status {
	switch {
	case errors.Is(err, ecschema.ErrSchemaNotFound):
		return StatusSchemaNotFound
	case errors.Is(err, ecschema.ErrItemNotFound):
		return StatusItemNotFound
	case errors.Is(err, ecschema.ErrPropertyNotFound):
		return StatusPropertyNotFound
	case errors.Is(err, ecschema.ErrDuplicateItem):
		return StatusDuplicateItem
	case errors.Is(err, ecschema.ErrDuplicateProperty):
		return StatusDuplicateProperty
	case errors.Is(err, ecschema.ErrInvalidName):
		return StatusInvalidName
	default:
		return fallback
	}
}
