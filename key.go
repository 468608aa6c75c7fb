package ecschema

import (
	"fmt"
	"strings"
)

// SchemaMatchType controls how two schema keys are compared.
type SchemaMatchType uint8

const (
	// MatchIdentical requires the same name and the exact version triple.
	MatchIdentical SchemaMatchType = iota
	// MatchExact is an alias for the exact version triple comparison.
	MatchExact
	// MatchLatestWriteCompatible accepts an equal read.write pair with a
	// minor version at least as new as requested.
	MatchLatestWriteCompatible
	// MatchLatestReadCompatible accepts an equal read version with a
	// write.minor pair at least as new as requested.
	MatchLatestReadCompatible
	// MatchLatest ignores the version entirely.
	MatchLatest
)

// SchemaKey identifies a schema by name and version. Name comparison is
// case-insensitive throughout.
type SchemaKey struct {
	Name    string
	Version Version
}

// NewSchemaKey creates a schema key.
func NewSchemaKey(name string, read, write, minor int) SchemaKey {
	return SchemaKey{Name: name, Version: Version{Read: read, Write: write, Minor: minor}}
}

// String returns the "Name.RR.WW.mm" form.
func (k SchemaKey) String() string {
	return fmt.Sprintf("%s.%s", k.Name, k.Version)
}

func sameName(a, b string) bool {
	return strings.EqualFold(a, b)
}

// Matches reports whether other satisfies k under the given match type.
func (k SchemaKey) Matches(other SchemaKey, match SchemaMatchType) bool {
	if !sameName(k.Name, other.Name) {
		return false
	}
	switch match {
	case MatchIdentical, MatchExact:
		return k.Version == other.Version
	case MatchLatestWriteCompatible:
		return k.Version.Read == other.Version.Read &&
			k.Version.Write == other.Version.Write &&
			other.Version.Minor >= k.Version.Minor
	case MatchLatestReadCompatible:
		if k.Version.Read != other.Version.Read {
			return false
		}
		if other.Version.Write != k.Version.Write {
			return other.Version.Write > k.Version.Write
		}
		return other.Version.Minor >= k.Version.Minor
	case MatchLatest:
		return true
	default:
		return false
	}
}

// ItemKey addresses a schema item globally: an item name plus the key
// of the owning schema.
type ItemKey struct {
	Name   string
	Schema SchemaKey
}

// NewItemKey creates an item key.
func NewItemKey(name string, schema SchemaKey) ItemKey {
	return ItemKey{Name: name, Schema: schema}
}

// FullName returns "SchemaName.ItemName".
func (k ItemKey) FullName() string {
	return k.Schema.Name + "." + k.Name
}

// String returns the full name.
func (k ItemKey) String() string {
	return k.FullName()
}

// Matches reports whether other addresses the same item: the item name
// is compared case-insensitively, the schema key exactly by name and
// version.
func (k ItemKey) Matches(other ItemKey) bool {
	return sameName(k.Name, other.Name) &&
		sameName(k.Schema.Name, other.Schema.Name) &&
		k.Schema.Version == other.Schema.Version
}

// SplitFullName splits "SchemaName.ItemName" into its two parts. The
// item part may itself never contain a dot, so the first dot is the
// separator.
func SplitFullName(fullName string) (schemaName, itemName string, ok bool) {
	i := strings.IndexByte(fullName, '.')
	if i <= 0 || i == len(fullName)-1 {
		return "", "", false
	}
	return fullName[:i], fullName[i+1:], true
}
