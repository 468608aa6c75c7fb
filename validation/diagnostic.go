// Package validation runs pluggable structural rules against custom
// attribute applications and reports violations as coded diagnostics.
package validation

import (
	"fmt"
	"strings"
)

// Severity grades a diagnostic.
type Severity uint8

const (
	SeverityError Severity = iota
	SeverityWarning
)

// String returns the severity name.
func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Diagnostic describes one structural rule violation. Code is stable
// across releases so downstream tooling can filter by rule.
type Diagnostic struct {
	Code     string
	Severity Severity
	// Subject names the container or item the rule fired on.
	Subject string
	Message string
	// Args carries the raw message arguments for callers that format
	// their own messages.
	Args []any
}

// String renders the diagnostic for display.
func (d Diagnostic) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", d.Code, d.Message)
	if d.Subject != "" {
		fmt.Fprintf(&b, " on %s", d.Subject)
	}
	return b.String()
}

// Diagnostic codes for the built-in custom attribute rules.
const (
	// CodeAttributeClassUnresolved fires when the applied class cannot
	// be located in the container's schema or its references.
	CodeAttributeClassUnresolved = "CA-001"
	// CodeAttributeClassWrongType fires when the applied class resolves
	// to an item that is not a custom attribute class.
	CodeAttributeClassWrongType = "CA-002"
	// CodeAttributeNotApplicable fires when the applied class does not
	// permit the container's kind.
	CodeAttributeNotApplicable = "CA-003"
	// CodeAttributeBadValue fires when an attribute property value does
	// not fit the declared shape, e.g. a strict enumeration.
	CodeAttributeBadValue = "CA-004"
)
