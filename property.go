package ecschema

import "fmt"

// PrimitiveType enumerates the primitive property value types.
type PrimitiveType uint8

const (
	PrimitiveBinary PrimitiveType = iota + 1
	PrimitiveBoolean
	PrimitiveDateTime
	PrimitiveDouble
	PrimitiveInteger
	PrimitiveLong
	PrimitivePoint2d
	PrimitivePoint3d
	PrimitiveString
)

var primitiveNames = map[PrimitiveType]string{
	PrimitiveBinary:   "binary",
	PrimitiveBoolean:  "boolean",
	PrimitiveDateTime: "dateTime",
	PrimitiveDouble:   "double",
	PrimitiveInteger:  "int",
	PrimitiveLong:     "long",
	PrimitivePoint2d:  "point2d",
	PrimitivePoint3d:  "point3d",
	PrimitiveString:   "string",
}

// String returns the canonical primitive type name.
func (t PrimitiveType) String() string {
	if name, ok := primitiveNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParsePrimitiveType maps a canonical primitive type name back to its
// value.
func ParsePrimitiveType(name string) (PrimitiveType, bool) {
	for t, n := range primitiveNames {
		if n == name {
			return t, true
		}
	}
	return 0, false
}

// PropertyKind tags a property variant. The set is closed.
type PropertyKind uint8

const (
	PropertyPrimitive PropertyKind = iota + 1
	PropertyPrimitiveArray
	PropertyEnumeration
	PropertyEnumerationArray
	PropertyStruct
	PropertyStructArray
	PropertyNavigation
)

var propertyKindNames = map[PropertyKind]string{
	PropertyPrimitive:        "PrimitiveProperty",
	PropertyPrimitiveArray:   "PrimitiveArrayProperty",
	PropertyEnumeration:      "EnumerationProperty",
	PropertyEnumerationArray: "EnumerationArrayProperty",
	PropertyStruct:           "StructProperty",
	PropertyStructArray:      "StructArrayProperty",
	PropertyNavigation:       "NavigationProperty",
}

// String returns the canonical property kind name.
func (k PropertyKind) String() string {
	if name, ok := propertyKindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// ParsePropertyKind maps a canonical property kind name back to its
// value.
func ParsePropertyKind(name string) (PropertyKind, bool) {
	for k, n := range propertyKindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// IsArray reports whether the kind carries occurrence bounds.
func (k PropertyKind) IsArray() bool {
	return k == PropertyPrimitiveArray || k == PropertyEnumerationArray || k == PropertyStructArray
}

// UnboundedOccurs is the maxOccurs value for unbounded arrays.
const UnboundedOccurs = int(^uint32(0) >> 1)

// Property is a typed member of a class. The kind tag selects which of
// the type fields is meaningful: primitive type for primitive kinds,
// the enumeration reference for enumeration kinds, the struct reference
// for struct kinds, and the relationship reference plus direction for
// navigation properties.
type Property struct {
	name        string
	label       string
	description string
	class       Class
	kind        PropertyKind

	primitive    PrimitiveType
	enumeration  *ItemRef
	structType   *ItemRef
	relationship *ItemRef
	direction    RelationshipDirection

	isReadOnly bool
	priority   int
	category   *ItemRef
	koq        *ItemRef

	minOccurs int
	maxOccurs int

	attrs *CustomAttributeSet
}

// Name returns the property name, unique among the owning class's own
// declared properties under case-insensitive comparison.
func (p *Property) Name() string { return p.name }

// Class returns the owning class.
func (p *Property) Class() Class { return p.class }

// Kind returns the variant tag.
func (p *Property) Kind() PropertyKind { return p.kind }

// Label returns the display label.
func (p *Property) Label() string { return p.label }

// SetLabel sets the display label.
func (p *Property) SetLabel(l string) { p.label = l }

// Description returns the description.
func (p *Property) Description() string { return p.description }

// SetDescription sets the description.
func (p *Property) SetDescription(d string) { p.description = d }

// IsReadOnly reports whether the property is read-only.
func (p *Property) IsReadOnly() bool { return p.isReadOnly }

// SetIsReadOnly sets the read-only flag.
func (p *Property) SetIsReadOnly(v bool) { p.isReadOnly = v }

// Priority returns the presentation priority.
func (p *Property) Priority() int { return p.priority }

// SetPriority sets the presentation priority.
func (p *Property) SetPriority(v int) { p.priority = v }

// Primitive returns the primitive type for primitive kinds.
func (p *Property) Primitive() PrimitiveType { return p.primitive }

// Enumeration returns the enumeration reference for enumeration kinds.
func (p *Property) Enumeration() *ItemRef { return p.enumeration }

// Struct returns the struct class reference for struct kinds.
func (p *Property) Struct() *ItemRef { return p.structType }

// Relationship returns the relationship reference for navigation
// properties.
func (p *Property) Relationship() *ItemRef { return p.relationship }

// Direction returns the navigation direction.
func (p *Property) Direction() RelationshipDirection { return p.direction }

// SetDirection sets the traversal direction of a navigation property.
// It has no effect on other kinds.
func (p *Property) SetDirection(d RelationshipDirection) {
	if p.kind == PropertyNavigation {
		p.direction = d
	}
}

// Category returns the property category reference, nil when unset.
func (p *Property) Category() *ItemRef { return p.category }

// SetCategory sets the property category reference.
func (p *Property) SetCategory(ref *ItemRef) { p.category = ref }

// KindOfQuantity returns the kind-of-quantity reference, nil when
// unset.
func (p *Property) KindOfQuantity() *ItemRef { return p.koq }

// SetKindOfQuantity sets the kind-of-quantity reference.
func (p *Property) SetKindOfQuantity(ref *ItemRef) { p.koq = ref }

// MinOccurs returns the lower occurrence bound for array kinds.
func (p *Property) MinOccurs() int { return p.minOccurs }

// MaxOccurs returns the upper occurrence bound for array kinds.
func (p *Property) MaxOccurs() int { return p.maxOccurs }

// SetOccurs sets the occurrence bounds for array kinds.
func (p *Property) SetOccurs(minOccurs, maxOccurs int) {
	p.minOccurs = minOccurs
	p.maxOccurs = maxOccurs
}

// CustomAttributes returns the property's attribute set.
func (p *Property) CustomAttributes() *CustomAttributeSet { return p.attrs }

// ContainerType implements CustomAttributeContainer.
func (p *Property) ContainerType() ContainerType { return ContainerProperty }

// ContainerSchema implements CustomAttributeContainer.
func (p *Property) ContainerSchema() *Schema {
	if p.class == nil {
		return nil
	}
	return p.class.Schema()
}

// ContainerName implements CustomAttributeContainer.
func (p *Property) ContainerName() string {
	if p.class == nil {
		return p.name
	}
	return p.class.classCore().FullName() + "." + p.name
}

// TypeFullName returns the property's type name: the primitive name for
// primitive kinds, the referenced item's schema-qualified full name
// otherwise.
func (p *Property) TypeFullName() (string, error) {
	switch p.kind {
	case PropertyPrimitive, PropertyPrimitiveArray:
		return p.primitive.String(), nil
	case PropertyEnumeration, PropertyEnumerationArray:
		return p.enumeration.FullName(), nil
	case PropertyStruct, PropertyStructArray:
		return p.structType.FullName(), nil
	case PropertyNavigation:
		return p.relationship.FullName(), nil
	default:
		return "", fmt.Errorf("property %s: unknown kind", p.name)
	}
}

func newProperty(name string, kind PropertyKind) *Property {
	p := &Property{
		name:  name,
		kind:  kind,
		attrs: newCustomAttributeSet(),
	}
	if kind.IsArray() {
		p.minOccurs = 0
		p.maxOccurs = UnboundedOccurs
	}
	return p
}

// NewPrimitiveProperty declares an own primitive property on the class.
func (c *classBase) NewPrimitiveProperty(name string, t PrimitiveType) (*Property, error) {
	p := newProperty(name, PropertyPrimitive)
	p.primitive = t
	if err := c.addProperty(p); err != nil {
		return nil, err
	}
	return p, nil
}

// NewPrimitiveArrayProperty declares an own primitive array property.
func (c *classBase) NewPrimitiveArrayProperty(name string, t PrimitiveType) (*Property, error) {
	p := newProperty(name, PropertyPrimitiveArray)
	p.primitive = t
	if err := c.addProperty(p); err != nil {
		return nil, err
	}
	return p, nil
}

// NewEnumerationProperty declares an own enumeration property.
func (c *classBase) NewEnumerationProperty(name string, enumeration ItemKey) (*Property, error) {
	p := newProperty(name, PropertyEnumeration)
	p.enumeration = NewItemRef(c.schema, enumeration)
	if err := c.addProperty(p); err != nil {
		return nil, err
	}
	return p, nil
}

// NewEnumerationArrayProperty declares an own enumeration array
// property.
func (c *classBase) NewEnumerationArrayProperty(name string, enumeration ItemKey) (*Property, error) {
	p := newProperty(name, PropertyEnumerationArray)
	p.enumeration = NewItemRef(c.schema, enumeration)
	if err := c.addProperty(p); err != nil {
		return nil, err
	}
	return p, nil
}

// NewStructProperty declares an own struct property.
func (c *classBase) NewStructProperty(name string, structClass ItemKey) (*Property, error) {
	p := newProperty(name, PropertyStruct)
	p.structType = NewItemRef(c.schema, structClass)
	if err := c.addProperty(p); err != nil {
		return nil, err
	}
	return p, nil
}

// NewStructArrayProperty declares an own struct array property.
func (c *classBase) NewStructArrayProperty(name string, structClass ItemKey) (*Property, error) {
	p := newProperty(name, PropertyStructArray)
	p.structType = NewItemRef(c.schema, structClass)
	if err := c.addProperty(p); err != nil {
		return nil, err
	}
	return p, nil
}

// NewNavigationProperty declares an own navigation property. Struct and
// custom attribute classes cannot carry navigation properties.
func (c *classBase) NewNavigationProperty(name string, relationship ItemKey, direction RelationshipDirection) (*Property, error) {
	if c.itemType == ItemStructClass || c.itemType == ItemCustomAttributeClass {
		return nil, fmt.Errorf("class %s: %s cannot have navigation properties", c.FullName(), c.itemType)
	}
	p := newProperty(name, PropertyNavigation)
	p.relationship = NewItemRef(c.schema, relationship)
	p.direction = direction
	if err := c.addProperty(p); err != nil {
		return nil, err
	}
	return p, nil
}
