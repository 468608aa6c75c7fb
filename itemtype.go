package ecschema

// ItemType tags a schema item variant. The set is closed; the diff and
// merge engines switch exhaustively over it.
type ItemType uint8

const (
	ItemEntityClass ItemType = iota + 1
	ItemStructClass
	ItemMixin
	ItemRelationshipClass
	ItemCustomAttributeClass
	ItemEnumeration
	ItemUnit
	ItemPhenomenon
	ItemUnitSystem
	ItemFormat
	ItemConstant
	ItemKindOfQuantity
	ItemPropertyCategory
)

var itemTypeNames = map[ItemType]string{
	ItemEntityClass:          "EntityClass",
	ItemStructClass:          "StructClass",
	ItemMixin:                "Mixin",
	ItemRelationshipClass:    "RelationshipClass",
	ItemCustomAttributeClass: "CustomAttributeClass",
	ItemEnumeration:          "Enumeration",
	ItemUnit:                 "Unit",
	ItemPhenomenon:           "Phenomenon",
	ItemUnitSystem:           "UnitSystem",
	ItemFormat:               "Format",
	ItemConstant:             "Constant",
	ItemKindOfQuantity:       "KindOfQuantity",
	ItemPropertyCategory:     "PropertyCategory",
}

// String returns the canonical item type name.
func (t ItemType) String() string {
	if name, ok := itemTypeNames[t]; ok {
		return name
	}
	return "Unknown"
}

// ParseItemType maps a canonical item type name back to its tag.
func ParseItemType(name string) (ItemType, bool) {
	for t, n := range itemTypeNames {
		if n == name {
			return t, true
		}
	}
	return 0, false
}

// IsClass reports whether the tag denotes a class-like variant.
func (t ItemType) IsClass() bool {
	switch t {
	case ItemEntityClass, ItemStructClass, ItemMixin, ItemRelationshipClass, ItemCustomAttributeClass:
		return true
	default:
		return false
	}
}
