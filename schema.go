package ecschema

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/gobim/ecschema/internal/nameord"
)

// Sentinel errors for graph lookups and mutations. Operation layers
// wrap these with identity context and branch on them via errors.Is.
var (
	// ErrSchemaNotFound indicates a schema key could not be resolved.
	ErrSchemaNotFound = errors.New("schema not found")
	// ErrItemNotFound indicates an item is absent from its schema.
	ErrItemNotFound = errors.New("schema item not found")
	// ErrDuplicateItem indicates an item name collision within a schema.
	ErrDuplicateItem = errors.New("duplicate schema item")
	// ErrInvalidName indicates a name that is not a valid identifier.
	ErrInvalidName = errors.New("invalid name")
)

// Schema is a named, versioned, ordered collection of items plus the
// set of schema keys it references. Items are added and removed only
// through schema methods so the case-insensitive name-uniqueness
// invariant holds at all times.
type Schema struct {
	key         SchemaKey
	alias       string
	label       string
	description string
	context     *SchemaContext
	items       *nameord.Map[Item]
	references  []SchemaKey
	customAttrs *CustomAttributeSet
}

// NewSchema creates a schema and registers it in ctx.
func NewSchema(ctx *SchemaContext, key SchemaKey, alias string) (*Schema, error) {
	if key.Name == "" || !isValidName(key.Name) {
		return nil, fmt.Errorf("schema name %q: %w", key.Name, ErrInvalidName)
	}
	s := &Schema{
		key:         key,
		alias:       alias,
		items:       nameord.New[Item](),
		customAttrs: newCustomAttributeSet(),
	}
	if ctx != nil {
		if err := ctx.AddSchema(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Key returns the schema key.
func (s *Schema) Key() SchemaKey { return s.key }

// Name returns the schema name.
func (s *Schema) Name() string { return s.key.Name }

// Alias returns the short prefix used in qualified names.
func (s *Schema) Alias() string { return s.alias }

// Label returns the display label.
func (s *Schema) Label() string { return s.label }

// SetLabel sets the display label.
func (s *Schema) SetLabel(l string) { s.label = l }

// Description returns the description.
func (s *Schema) Description() string { return s.description }

// SetDescription sets the description.
func (s *Schema) SetDescription(d string) { s.description = d }

// Context returns the shared context the schema is registered in, nil
// for detached schemas.
func (s *Schema) Context() *SchemaContext { return s.context }

// Item returns the item stored under name, ignoring case.
func (s *Schema) Item(name string) (Item, bool) {
	return s.items.Get(name)
}

// Items yields items in insertion order.
func (s *Schema) Items() iter.Seq[Item] {
	return s.items.Values()
}

// ItemCount returns the number of items.
func (s *Schema) ItemCount() int { return s.items.Len() }

// DeleteItem removes the item stored under name and reports whether it
// existed. Dependent checks are the caller's concern.
func (s *Schema) DeleteItem(name string) bool {
	return s.items.Delete(name)
}

// References returns the keys of schemas this schema depends on.
func (s *Schema) References() []SchemaKey {
	return s.references
}

// HasReference reports whether a schema of the given name is already
// referenced.
func (s *Schema) HasReference(name string) bool {
	for _, ref := range s.references {
		if sameName(ref.Name, name) {
			return true
		}
	}
	return false
}

// AddReference records a dependency on another schema. Adding an
// already-referenced schema name is a no-op.
func (s *Schema) AddReference(key SchemaKey) bool {
	if sameName(key.Name, s.key.Name) || s.HasReference(key.Name) {
		return false
	}
	s.references = append(s.references, key)
	return true
}

// LookupItem resolves an item key against this schema or, for foreign
// keys, through the shared context.
func (s *Schema) LookupItem(ctx context.Context, key ItemKey) (Item, error) {
	if sameName(key.Schema.Name, s.key.Name) {
		item, ok := s.Item(key.Name)
		if !ok {
			return nil, fmt.Errorf("item %s in schema %s: %w", key.Name, s.key.Name, ErrItemNotFound)
		}
		return item, nil
	}
	if s.context == nil {
		return nil, fmt.Errorf("schema %s has no context to resolve %s: %w", s.key.Name, key, ErrSchemaNotFound)
	}
	return s.context.GetItem(ctx, key)
}

// CustomAttributes returns the schema's own attribute set. Schemas are
// custom attribute containers like classes and properties.
func (s *Schema) CustomAttributes() *CustomAttributeSet { return s.customAttrs }

// ContainerType implements CustomAttributeContainer.
func (s *Schema) ContainerType() ContainerType { return ContainerSchema }

// ContainerSchema implements CustomAttributeContainer.
func (s *Schema) ContainerSchema() *Schema { return s }

// ContainerName implements CustomAttributeContainer.
func (s *Schema) ContainerName() string { return s.key.Name }

func (s *Schema) addItem(item Item, base *itemBase) error {
	if !isValidName(base.name) {
		return fmt.Errorf("item name %q: %w", base.name, ErrInvalidName)
	}
	if !s.items.Add(base.name, item) {
		return fmt.Errorf("item %s in schema %s: %w", base.name, s.key.Name, ErrDuplicateItem)
	}
	base.schema = s
	return nil
}

func isValidName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
