// Package diff compares two schema graphs field by field and produces
// a typed, ordered change list: one add, modify, or remove record per
// schema item or nested field delta. Modify records carry stable
// diagnostic codes downstream tooling filters on.
package diff

import (
	"encoding/json"
	"fmt"
	"iter"

	"github.com/gobim/ecschema"
	"github.com/gobim/ecschema/validation"
)

// ChangeType classifies a change record.
type ChangeType string

const (
	ChangeAdd    ChangeType = "add"
	ChangeModify ChangeType = "modify"
	ChangeRemove ChangeType = "remove"
)

// Record is one typed change. For adds the Difference payload holds the
// full serialized item; for modifies a partial payload holding exactly
// the changed fields with their source-side values; removes carry no
// payload.
type Record struct {
	Change     ChangeType `json:"changeType"`
	SchemaType string     `json:"schemaType"`
	ItemName   string     `json:"itemName"`
	// Path names the changed field or nested member for modifies, e.g.
	// "label", "properties.Diameter.typeName", "source.multiplicity".
	Path string `json:"path,omitempty"`
	// Code is the stable diagnostic code for modifies.
	Code string `json:"code,omitempty"`
	// SourceValue and TargetValue render both sides of a field delta
	// for presentation.
	SourceValue string `json:"sourceValue,omitempty"`
	TargetValue string `json:"targetValue,omitempty"`
	// Difference is the payload applied by the merge engine.
	Difference *ecschema.ItemProps `json:"difference,omitempty"`
}

// Changes is the comparison result for one schema pairing: an ordered
// record list plus the keys of the compared schemas. Produced fresh per
// comparison and consumed once by the merge engine.
type Changes struct {
	Source  ecschema.SchemaKey `json:"sourceSchema"`
	Target  ecschema.SchemaKey `json:"targetSchema"`
	Records []Record           `json:"changes"`
}

// IsEmpty reports whether the comparison found no differences.
func (c *Changes) IsEmpty() bool { return len(c.Records) == 0 }

// ForItem yields the records concerning the named item.
func (c *Changes) ForItem(name string) iter.Seq[Record] {
	return func(yield func(Record) bool) {
		for _, r := range c.Records {
			if equalNames(r.ItemName, name) {
				if !yield(r) {
					return
				}
			}
		}
	}
}

// Diagnostics derives the diagnostic view of the change list: one coded
// diagnostic per modify record.
func (c *Changes) Diagnostics() []validation.Diagnostic {
	var out []validation.Diagnostic
	for _, r := range c.Records {
		if r.Change != ChangeModify || r.Code == "" {
			continue
		}
		subject := r.ItemName
		if r.Path != "" {
			subject += "." + r.Path
		}
		out = append(out, validation.Diagnostic{
			Code:     r.Code,
			Severity: validation.SeverityWarning,
			Subject:  subject,
			Message:  fmt.Sprintf("%s changed: %s -> %s", r.Path, r.SourceValue, r.TargetValue),
			Args:     []any{r.SourceValue, r.TargetValue},
		})
	}
	return out
}

// MarshalJSON renders the change list for CI tooling.
func (c *Changes) MarshalJSON() ([]byte, error) {
	type alias Changes
	return json.Marshal((*alias)(c))
}

// UnmarshalJSON parses a change list, e.g. a hand-constructed one for
// testing a merge.
func (c *Changes) UnmarshalJSON(data []byte) error {
	type alias Changes
	return json.Unmarshal(data, (*alias)(c))
}

// Reporter receives comparison results. The engines never format or
// display diagnostics themselves.
type Reporter interface {
	Report(changes *Changes) error
}
