package ecschema

// Item is any named member of a schema. Concrete variants live in this
// package; the set is closed over the ItemType tags.
type Item interface {
	// Name returns the item name, unique within the owning schema under
	// case-insensitive comparison.
	Name() string
	// Key returns the item's global address.
	Key() ItemKey
	// Type returns the variant tag.
	Type() ItemType
	// Schema returns the owning schema.
	Schema() *Schema
	// Label returns the display label, empty when unset.
	Label() string
	// SetLabel sets the display label.
	SetLabel(string)
	// Description returns the description, empty when unset.
	Description() string
	// SetDescription sets the description.
	SetDescription(string)

	sealed()
}

// itemBase carries the attributes shared by every item variant.
type itemBase struct {
	name        string
	label       string
	description string
	schema      *Schema
	itemType    ItemType
}

func (b *itemBase) Name() string            { return b.name }
func (b *itemBase) Type() ItemType          { return b.itemType }
func (b *itemBase) Schema() *Schema         { return b.schema }
func (b *itemBase) Label() string           { return b.label }
func (b *itemBase) SetLabel(l string)       { b.label = l }
func (b *itemBase) Description() string     { return b.description }
func (b *itemBase) SetDescription(d string) { b.description = d }
func (b *itemBase) sealed()                 {}

// Key returns the item's global address.
func (b *itemBase) Key() ItemKey {
	return ItemKey{Name: b.name, Schema: b.schema.Key()}
}

// FullName returns "SchemaName.ItemName".
func (b *itemBase) FullName() string {
	return b.Key().FullName()
}

// SameItem reports whether a and b address the same item, by key match
// rather than pointer identity.
func SameItem(a, b Item) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Key().Matches(b.Key())
}
