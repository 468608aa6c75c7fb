package ecschema

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/gobim/ecschema/internal/nameord"
)

// ErrPropertyNotFound indicates a property lookup failed on a class and
// its base chain.
var ErrPropertyNotFound = errors.New("property not found")

// ErrDuplicateProperty indicates a property name collision among a
// class's own declared properties.
var ErrDuplicateProperty = errors.New("duplicate property")

// ClassModifier constrains how a class participates in derivation.
type ClassModifier uint8

const (
	ModifierNone ClassModifier = iota
	ModifierAbstract
	ModifierSealed
)

var modifierNames = [...]string{"None", "Abstract", "Sealed"}

// String returns the canonical modifier name.
func (m ClassModifier) String() string {
	if int(m) < len(modifierNames) {
		return modifierNames[m]
	}
	return "None"
}

// ParseClassModifier maps a canonical modifier name back to its value.
func ParseClassModifier(name string) (ClassModifier, bool) {
	for i, n := range modifierNames {
		if n == name {
			return ClassModifier(i), true
		}
	}
	return ModifierNone, false
}

// Class is the common surface of the class-like item variants: entity,
// struct, mixin, relationship, and custom attribute classes.
type Class interface {
	Item
	CustomAttributeContainer
	// FullName returns "SchemaName.ClassName".
	FullName() string
	// Modifier returns the class modifier.
	Modifier() ClassModifier
	// SetModifier sets the class modifier.
	SetModifier(ClassModifier)
	// Base returns the lazy base class reference, nil when the class has
	// no base.
	Base() *ItemRef
	// SetBase replaces the base class reference. Structural policy
	// (compatibility, cycles) is enforced by the editor, not here.
	SetBase(*ItemRef)
	// Property returns the class's own property of the given name.
	Property(name string) (*Property, bool)
	// Properties yields the class's own properties in insertion order.
	Properties() iter.Seq[*Property]
	// PropertyCount returns the number of own properties.
	PropertyCount() int
	// FindProperty resolves name against the class's own properties and
	// then the base chain.
	FindProperty(ctx context.Context, name string) (*Property, error)
	// AllProperties returns the effective property set: own properties
	// followed by inherited ones not shadowed by name.
	AllProperties(ctx context.Context) ([]*Property, error)
	// Is reports whether the class is other or derives from it,
	// traversing the base chain (and applied mixins for entities).
	Is(ctx context.Context, other Item) (bool, error)
	// NewPrimitiveProperty declares an own primitive property.
	NewPrimitiveProperty(name string, t PrimitiveType) (*Property, error)
	// NewPrimitiveArrayProperty declares an own primitive array
	// property.
	NewPrimitiveArrayProperty(name string, t PrimitiveType) (*Property, error)
	// NewEnumerationProperty declares an own enumeration property.
	NewEnumerationProperty(name string, enumeration ItemKey) (*Property, error)
	// NewEnumerationArrayProperty declares an own enumeration array
	// property.
	NewEnumerationArrayProperty(name string, enumeration ItemKey) (*Property, error)
	// NewStructProperty declares an own struct property.
	NewStructProperty(name string, structClass ItemKey) (*Property, error)
	// NewStructArrayProperty declares an own struct array property.
	NewStructArrayProperty(name string, structClass ItemKey) (*Property, error)
	// NewNavigationProperty declares an own navigation property.
	NewNavigationProperty(name string, relationship ItemKey, direction RelationshipDirection) (*Property, error)
	// DeleteProperty removes the class's own property of the given
	// name.
	DeleteProperty(name string) bool

	classCore() *classBase
}

// classBase carries the state shared by every class variant.
type classBase struct {
	itemBase
	self       Class
	modifier   ClassModifier
	base       *ItemRef
	properties *nameord.Map[*Property]
	attrs      *CustomAttributeSet
}

func (c *classBase) init(self Class, itemType ItemType, name string) {
	c.self = self
	c.itemType = itemType
	c.name = name
	c.properties = nameord.New[*Property]()
	c.attrs = newCustomAttributeSet()
}

func (c *classBase) classCore() *classBase { return c }

func (c *classBase) Modifier() ClassModifier               { return c.modifier }
func (c *classBase) SetModifier(m ClassModifier)           { c.modifier = m }
func (c *classBase) Base() *ItemRef                        { return c.base }
func (c *classBase) SetBase(ref *ItemRef)                  { c.base = ref }
func (c *classBase) CustomAttributes() *CustomAttributeSet { return c.attrs }
func (c *classBase) ContainerSchema() *Schema              { return c.schema }
func (c *classBase) ContainerName() string                 { return c.FullName() }

// ContainerType returns the container kind bit for the concrete class
// variant.
func (c *classBase) ContainerType() ContainerType {
	switch c.itemType {
	case ItemEntityClass:
		return ContainerEntityClass
	case ItemStructClass:
		return ContainerStructClass
	case ItemMixin:
		return ContainerMixin
	case ItemRelationshipClass:
		return ContainerRelationshipClass
	case ItemCustomAttributeClass:
		return ContainerCustomAttributeClass
	default:
		return 0
	}
}

func (c *classBase) Property(name string) (*Property, bool) {
	return c.properties.Get(name)
}

func (c *classBase) Properties() iter.Seq[*Property] {
	return c.properties.Values()
}

func (c *classBase) PropertyCount() int { return c.properties.Len() }

// FindProperty resolves name against own properties first, then walks
// the base chain.
func (c *classBase) FindProperty(ctx context.Context, name string) (*Property, error) {
	if p, ok := c.properties.Get(name); ok {
		return p, nil
	}
	base, err := c.resolveBase(ctx)
	if err != nil {
		return nil, err
	}
	if base == nil {
		return nil, fmt.Errorf("property %s on class %s: %w", name, c.FullName(), ErrPropertyNotFound)
	}
	return base.FindProperty(ctx, name)
}

// AllProperties returns own properties followed by inherited properties
// whose names are not shadowed.
func (c *classBase) AllProperties(ctx context.Context) ([]*Property, error) {
	seen := nameord.New[struct{}]()
	var out []*Property
	var walk func(cls Class) error
	walk = func(cls Class) error {
		for p := range cls.Properties() {
			if seen.Add(p.Name(), struct{}{}) {
				out = append(out, p)
			}
		}
		base, err := cls.classCore().resolveBase(ctx)
		if err != nil {
			return err
		}
		if base == nil {
			return nil
		}
		return walk(base)
	}
	if err := walk(c.self); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *classBase) resolveBase(ctx context.Context) (Class, error) {
	if c.base == nil {
		return nil, nil
	}
	return ResolveAs[Class](ctx, c.base)
}

// Is reports whether the class is other or transitively derives from
// it. Identity is by key match. Entity classes additionally satisfy Is
// for applied mixins.
func (c *classBase) Is(ctx context.Context, other Item) (bool, error) {
	if other == nil {
		return false, nil
	}
	visited := make(map[string]bool)
	return c.isWithin(ctx, c.self, other.Key(), visited)
}

func (c *classBase) isWithin(ctx context.Context, cls Class, target ItemKey, visited map[string]bool) (bool, error) {
	key := cls.Key()
	if key.Matches(target) {
		return true, nil
	}
	full := key.FullName()
	if visited[full] {
		return false, nil
	}
	visited[full] = true

	if entity, ok := cls.(*EntityClass); ok {
		for _, mixinRef := range entity.Mixins() {
			mixin, err := ResolveAs[Class](ctx, mixinRef)
			if err != nil {
				return false, err
			}
			ok, err := c.isWithin(ctx, mixin, target, visited)
			if err != nil || ok {
				return ok, err
			}
		}
	}

	base, err := cls.classCore().resolveBase(ctx)
	if err != nil {
		return false, err
	}
	if base == nil {
		return false, nil
	}
	return c.isWithin(ctx, base, target, visited)
}

func (c *classBase) addProperty(p *Property) error {
	// Only the class's own declared properties participate in the
	// duplicate check; a new property may shadow an inherited one of the
	// same name.
	if !c.properties.Add(p.name, p) {
		return fmt.Errorf("property %s on class %s: %w", p.name, c.FullName(), ErrDuplicateProperty)
	}
	p.class = c.self
	return nil
}

// DeleteProperty removes the class's own property of the given name.
func (c *classBase) DeleteProperty(name string) bool {
	return c.properties.Delete(name)
}
