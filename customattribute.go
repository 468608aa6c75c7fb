package ecschema

import (
	"iter"

	"github.com/gobim/ecschema/internal/nameord"
)

// ContainerType is a bitmask describing which kinds of containers a
// custom attribute class may be applied to.
type ContainerType uint32

const (
	ContainerSchema ContainerType = 1 << iota
	ContainerEntityClass
	ContainerStructClass
	ContainerMixin
	ContainerRelationshipClass
	ContainerCustomAttributeClass
	ContainerProperty
	ContainerRelationshipConstraint
)

// ContainerAnyClass covers every class-like container.
const ContainerAnyClass = ContainerEntityClass | ContainerStructClass | ContainerMixin |
	ContainerRelationshipClass | ContainerCustomAttributeClass

// ContainerAny covers every container kind.
const ContainerAny = ContainerAnyClass | ContainerSchema | ContainerProperty | ContainerRelationshipConstraint

// Includes reports whether mask permits kind.
func (t ContainerType) Includes(kind ContainerType) bool {
	return t&kind != 0
}

// CustomAttribute is an instance of a custom attribute class applied to
// a container: the applied class's full name plus a property bag.
type CustomAttribute struct {
	ClassName  string
	Properties map[string]any
}

// CustomAttributeSet holds the attributes applied to one container,
// keyed by applied class full name in insertion order. Re-adding under
// the same class name replaces the existing instance.
type CustomAttributeSet struct {
	attrs *nameord.Map[CustomAttribute]
}

func newCustomAttributeSet() *CustomAttributeSet {
	return &CustomAttributeSet{attrs: nameord.New[CustomAttribute]()}
}

// Len returns the number of applied attributes.
func (s *CustomAttributeSet) Len() int {
	if s == nil {
		return 0
	}
	return s.attrs.Len()
}

// Add applies an attribute, replacing any instance of the same class.
func (s *CustomAttributeSet) Add(attr CustomAttribute) (replaced bool) {
	return s.attrs.Put(attr.ClassName, attr)
}

// Remove detaches the attribute applied under className.
func (s *CustomAttributeSet) Remove(className string) bool {
	return s.attrs.Delete(className)
}

// Get returns the attribute applied under className.
func (s *CustomAttributeSet) Get(className string) (CustomAttribute, bool) {
	if s == nil {
		return CustomAttribute{}, false
	}
	return s.attrs.Get(className)
}

// Has reports whether an attribute of className is applied.
func (s *CustomAttributeSet) Has(className string) bool {
	return s != nil && s.attrs.Has(className)
}

// All yields applied attributes in insertion order.
func (s *CustomAttributeSet) All() iter.Seq[CustomAttribute] {
	return func(yield func(CustomAttribute) bool) {
		if s == nil {
			return
		}
		for attr := range s.attrs.Values() {
			if !yield(attr) {
				return
			}
		}
	}
}

// CustomAttributeContainer is anything custom attributes can be applied
// to: schemas, classes, properties, and relationship constraints.
type CustomAttributeContainer interface {
	// CustomAttributes returns the container's attribute set.
	CustomAttributes() *CustomAttributeSet
	// ContainerType returns the container's kind bit.
	ContainerType() ContainerType
	// ContainerSchema returns the schema the container belongs to.
	ContainerSchema() *Schema
	// ContainerName names the container for diagnostics.
	ContainerName() string
}
