package ecschema

import (
	"context"
	"fmt"
)

// EntityClass is a concrete or abstract domain class. Entities may
// additionally have mixins applied.
type EntityClass struct {
	classBase
	mixins []*ItemRef
}

// NewEntityClass creates an entity class in the schema.
func (s *Schema) NewEntityClass(name string) (*EntityClass, error) {
	c := &EntityClass{}
	c.init(c, ItemEntityClass, name)
	if err := s.addItem(c, &c.itemBase); err != nil {
		return nil, err
	}
	return c, nil
}

// Mixins returns the lazy references to applied mixins.
func (e *EntityClass) Mixins() []*ItemRef { return e.mixins }

// AddMixin applies a mixin to the entity. Applying an already-applied
// mixin is a no-op.
func (e *EntityClass) AddMixin(key ItemKey) {
	for _, ref := range e.mixins {
		if ref.Key().Matches(key) {
			return
		}
	}
	e.mixins = append(e.mixins, NewItemRef(e.schema, key))
}

// RemoveMixin drops the mixin reference matching the key. It reports
// whether a reference was removed.
func (e *EntityClass) RemoveMixin(key ItemKey) bool {
	for i, ref := range e.mixins {
		if ref.Key().Matches(key) {
			e.mixins = append(e.mixins[:i], e.mixins[i+1:]...)
			return true
		}
	}
	return false
}

// StructClass is a class whose instances are embedded values rather
// than standalone elements.
type StructClass struct {
	classBase
}

// NewStructClass creates a struct class in the schema.
func (s *Schema) NewStructClass(name string) (*StructClass, error) {
	c := &StructClass{}
	c.init(c, ItemStructClass, name)
	if err := s.addItem(c, &c.itemBase); err != nil {
		return nil, err
	}
	return c, nil
}

// CustomAttributeClass declares the shape of a custom attribute and the
// container kinds it may be applied to.
type CustomAttributeClass struct {
	classBase
	appliesTo ContainerType
}

// NewCustomAttributeClass creates a custom attribute class in the
// schema.
func (s *Schema) NewCustomAttributeClass(name string, appliesTo ContainerType) (*CustomAttributeClass, error) {
	c := &CustomAttributeClass{appliesTo: appliesTo}
	c.init(c, ItemCustomAttributeClass, name)
	if err := s.addItem(c, &c.itemBase); err != nil {
		return nil, err
	}
	return c, nil
}

// AppliesTo returns the permitted container kinds.
func (c *CustomAttributeClass) AppliesTo() ContainerType { return c.appliesTo }

// SetAppliesTo replaces the permitted container kinds.
func (c *CustomAttributeClass) SetAppliesTo(t ContainerType) { c.appliesTo = t }

// Mixin augments entity classes without being their base class. The
// appliesTo reference names the entity class (or base of the entities)
// the mixin may be applied to.
type Mixin struct {
	classBase
	appliesTo *ItemRef
}

// NewMixin creates a mixin in the schema applying to the given entity
// class.
func (s *Schema) NewMixin(name string, appliesTo ItemKey) (*Mixin, error) {
	m := &Mixin{}
	m.init(m, ItemMixin, name)
	if err := s.addItem(m, &m.itemBase); err != nil {
		return nil, err
	}
	m.appliesTo = NewItemRef(s, appliesTo)
	return m, nil
}

// AppliesTo returns the lazy reference to the target entity class.
func (m *Mixin) AppliesTo() *ItemRef { return m.appliesTo }

// SetAppliesTo replaces the applies-to reference.
func (m *Mixin) SetAppliesTo(key ItemKey) {
	m.appliesTo = NewItemRef(m.schema, key)
}

// ResolveAppliesTo resolves the applies-to target.
func (m *Mixin) ResolveAppliesTo(ctx context.Context) (*EntityClass, error) {
	if m.appliesTo == nil {
		return nil, fmt.Errorf("mixin %s has no applies-to target", m.FullName())
	}
	return ResolveAs[*EntityClass](ctx, m.appliesTo)
}
