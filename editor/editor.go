// Package editor mutates schema graphs with structural validation:
// item and property creation, base class changes, custom attribute
// application with rollback, and dependent-aware deletion. Every
// failure carries a status code and the identity of the offending
// element.
package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gobim/ecschema"
	"github.com/gobim/ecschema/internal/cycles"
	"github.com/gobim/ecschema/internal/xiter"
	"github.com/gobim/ecschema/validation"
)

// Editor applies validated mutations to schemas loaded in one shared
// context. Mutations to the same schema must not run concurrently;
// reads of published items are safe.
type Editor struct {
	context *ecschema.SchemaContext
	rules   *validation.RuleSet
}

// New creates an editor over ctx using the built-in custom attribute
// rule set.
func New(schemas *ecschema.SchemaContext) *Editor {
	return NewWithRules(schemas, validation.NewRuleSet())
}

// NewWithRules creates an editor with a caller-supplied rule set.
func NewWithRules(schemas *ecschema.SchemaContext, rules *validation.RuleSet) *Editor {
	return &Editor{context: schemas, rules: rules}
}

// Context returns the shared schema context.
func (e *Editor) Context() *ecschema.SchemaContext { return e.context }

func (e *Editor) schema(ctx context.Context, key ecschema.SchemaKey) (*ecschema.Schema, error) {
	s, err := e.context.GetSchema(ctx, key)
	if err != nil {
		return nil, newError(StatusSchemaNotFound, SchemaID{Key: key}, err)
	}
	return s, nil
}

func (e *Editor) class(ctx context.Context, key ecschema.ItemKey) (ecschema.Class, error) {
	item, err := e.context.GetItem(ctx, key)
	if err != nil {
		return nil, newError(statusForCause(err, StatusItemNotFound), ClassID{Key: key}, err)
	}
	cls, ok := item.(ecschema.Class)
	if !ok {
		return nil, newError(StatusInvalidType, ClassID{Key: key},
			fmt.Errorf("%s is a %s, not a class", key.FullName(), item.Type()))
	}
	return cls, nil
}

// CreateClass creates an entity, struct, or custom attribute class in
// the schema, optionally deriving from baseClass. The base is stored as
// a lazily resolved reference, so later mutations of the base remain
// visible through it.
func (e *Editor) CreateClass(ctx context.Context, schemaKey ecschema.SchemaKey, itemType ecschema.ItemType, name string, baseClass *ecschema.ItemKey) (ecschema.ItemKey, error) {
	s, err := e.schema(ctx, schemaKey)
	if err != nil {
		return ecschema.ItemKey{}, err
	}
	var cls ecschema.Class
	switch itemType {
	case ecschema.ItemEntityClass:
		cls, err = s.NewEntityClass(name)
	case ecschema.ItemStructClass:
		cls, err = s.NewStructClass(name)
	case ecschema.ItemCustomAttributeClass:
		cls, err = s.NewCustomAttributeClass(name, ecschema.ContainerAny)
	default:
		return ecschema.ItemKey{}, newError(StatusInvalidType, SchemaID{Key: schemaKey},
			fmt.Errorf("CreateClass does not handle %s", itemType))
	}
	if err != nil {
		return ecschema.ItemKey{}, newError(statusForCause(err, StatusDuplicateItem),
			ClassID{Key: ecschema.NewItemKey(name, schemaKey)}, err)
	}
	if baseClass != nil {
		if err := e.SetBaseClass(ctx, cls.Key(), baseClass); err != nil {
			s.DeleteItem(name)
			return ecschema.ItemKey{}, err
		}
	}
	return cls.Key(), nil
}

// CreateMixin creates a mixin applying to the given entity class.
func (e *Editor) CreateMixin(ctx context.Context, schemaKey ecschema.SchemaKey, name string, appliesTo ecschema.ItemKey) (ecschema.ItemKey, error) {
	s, err := e.schema(ctx, schemaKey)
	if err != nil {
		return ecschema.ItemKey{}, err
	}
	target, err := e.context.GetItem(ctx, appliesTo)
	if err != nil {
		return ecschema.ItemKey{}, newError(statusForCause(err, StatusItemNotFound), ItemID{Key: appliesTo}, err)
	}
	if _, ok := target.(*ecschema.EntityClass); !ok {
		return ecschema.ItemKey{}, newError(StatusInvalidType, ItemID{Key: appliesTo},
			fmt.Errorf("mixin applies-to target %s is a %s, not an entity class", appliesTo.FullName(), target.Type()))
	}
	m, err := s.NewMixin(name, appliesTo)
	if err != nil {
		return ecschema.ItemKey{}, newError(statusForCause(err, StatusDuplicateItem),
			ClassID{Key: ecschema.NewItemKey(name, schemaKey)}, err)
	}
	return m.Key(), nil
}

// CreateRelationship creates a relationship class with default
// constraints on both ends.
func (e *Editor) CreateRelationship(ctx context.Context, schemaKey ecschema.SchemaKey, name string, strength ecschema.RelationshipStrength, direction ecschema.RelationshipDirection) (ecschema.ItemKey, error) {
	s, err := e.schema(ctx, schemaKey)
	if err != nil {
		return ecschema.ItemKey{}, err
	}
	r, err := s.NewRelationshipClass(name, strength, direction)
	if err != nil {
		return ecschema.ItemKey{}, newError(statusForCause(err, StatusDuplicateItem),
			ClassID{Key: ecschema.NewItemKey(name, schemaKey)}, err)
	}
	return r.Key(), nil
}

// CreateEnumeration creates an enumeration backed by the int or string
// primitive type.
func (e *Editor) CreateEnumeration(ctx context.Context, schemaKey ecschema.SchemaKey, name string, backing ecschema.PrimitiveType) (ecschema.ItemKey, error) {
	s, err := e.schema(ctx, schemaKey)
	if err != nil {
		return ecschema.ItemKey{}, err
	}
	enum, err := s.NewEnumeration(name, backing)
	if err != nil {
		return ecschema.ItemKey{}, newError(statusForCause(err, StatusInvalidType),
			ItemID{Key: ecschema.NewItemKey(name, schemaKey)}, err)
	}
	return enum.Key(), nil
}

// CreatePhenomenon creates a phenomenon.
func (e *Editor) CreatePhenomenon(ctx context.Context, schemaKey ecschema.SchemaKey, name, definition string) (ecschema.ItemKey, error) {
	s, err := e.schema(ctx, schemaKey)
	if err != nil {
		return ecschema.ItemKey{}, err
	}
	p, err := s.NewPhenomenon(name, definition)
	if err != nil {
		return ecschema.ItemKey{}, newError(statusForCause(err, StatusDuplicateItem),
			ItemID{Key: ecschema.NewItemKey(name, schemaKey)}, err)
	}
	return p.Key(), nil
}

// CreateUnitSystem creates a unit system.
func (e *Editor) CreateUnitSystem(ctx context.Context, schemaKey ecschema.SchemaKey, name string) (ecschema.ItemKey, error) {
	s, err := e.schema(ctx, schemaKey)
	if err != nil {
		return ecschema.ItemKey{}, err
	}
	u, err := s.NewUnitSystem(name)
	if err != nil {
		return ecschema.ItemKey{}, newError(statusForCause(err, StatusDuplicateItem),
			ItemID{Key: ecschema.NewItemKey(name, schemaKey)}, err)
	}
	return u.Key(), nil
}

// CreateUnit creates a unit; its phenomenon and unit system must
// resolve.
func (e *Editor) CreateUnit(ctx context.Context, schemaKey ecschema.SchemaKey, name string, phenomenon, unitSystem ecschema.ItemKey, definition string) (ecschema.ItemKey, error) {
	s, err := e.schema(ctx, schemaKey)
	if err != nil {
		return ecschema.ItemKey{}, err
	}
	if err := e.expectItemType(ctx, phenomenon, ecschema.ItemPhenomenon); err != nil {
		return ecschema.ItemKey{}, err
	}
	if err := e.expectItemType(ctx, unitSystem, ecschema.ItemUnitSystem); err != nil {
		return ecschema.ItemKey{}, err
	}
	u, err := s.NewUnit(name, phenomenon, unitSystem, definition)
	if err != nil {
		return ecschema.ItemKey{}, newError(statusForCause(err, StatusDuplicateItem),
			ItemID{Key: ecschema.NewItemKey(name, schemaKey)}, err)
	}
	return u.Key(), nil
}

// CreateConstant creates a constant; its phenomenon must resolve.
func (e *Editor) CreateConstant(ctx context.Context, schemaKey ecschema.SchemaKey, name string, phenomenon ecschema.ItemKey, definition string, numerator, denominator float64) (ecschema.ItemKey, error) {
	s, err := e.schema(ctx, schemaKey)
	if err != nil {
		return ecschema.ItemKey{}, err
	}
	if err := e.expectItemType(ctx, phenomenon, ecschema.ItemPhenomenon); err != nil {
		return ecschema.ItemKey{}, err
	}
	c, err := s.NewConstant(name, phenomenon, definition)
	if err != nil {
		return ecschema.ItemKey{}, newError(statusForCause(err, StatusDuplicateItem),
			ItemID{Key: ecschema.NewItemKey(name, schemaKey)}, err)
	}
	c.SetNumerator(numerator)
	c.SetDenominator(denominator)
	return c.Key(), nil
}

func (e *Editor) expectItemType(ctx context.Context, key ecschema.ItemKey, want ecschema.ItemType) error {
	item, err := e.context.GetItem(ctx, key)
	if err != nil {
		return newError(statusForCause(err, StatusItemNotFound), ItemID{Key: key}, err)
	}
	if item.Type() != want {
		return newError(StatusInvalidType, ItemID{Key: key},
			fmt.Errorf("%s is a %s, want %s", key.FullName(), item.Type(), want))
	}
	return nil
}

// SetBaseClass replaces itemKey's base class; a nil baseClass clears
// it. When the class already has a base, the new base must itself be or
// derive from the current base. Assignments that would create a
// derivation cycle are rejected.
func (e *Editor) SetBaseClass(ctx context.Context, itemKey ecschema.ItemKey, baseClass *ecschema.ItemKey) error {
	cls, err := e.class(ctx, itemKey)
	if err != nil {
		return err
	}
	if baseClass == nil {
		cls.SetBase(nil)
		return nil
	}
	newBase, err := e.class(ctx, *baseClass)
	if err != nil {
		return err
	}
	if newBase.Type() != cls.Type() {
		return newError(StatusInvalidType, ClassID{Key: itemKey},
			fmt.Errorf("base class %s is a %s, want %s", baseClass.FullName(), newBase.Type(), cls.Type()))
	}
	if cls.Base() != nil {
		oldBase, err := ecschema.ResolveAs[ecschema.Class](ctx, cls.Base())
		if err != nil {
			return newError(statusForCause(err, StatusItemNotFound), ClassID{Key: itemKey}, err)
		}
		compatible, err := newBase.Is(ctx, oldBase)
		if err != nil {
			return newError(statusForCause(err, StatusItemNotFound), ClassID{Key: *baseClass}, err)
		}
		if !compatible {
			return newError(StatusInvalidBaseClass, ClassID{Key: itemKey},
				fmt.Errorf("base class %s must derive from the current base class %s",
					baseClass.FullName(), cls.Base().FullName()))
		}
	}
	if err := e.checkNoCycle(ctx, cls, newBase); err != nil {
		return err
	}
	cls.SetBase(ecschema.NewItemRef(cls.Schema(), *baseClass))
	return nil
}

func (e *Editor) checkNoCycle(ctx context.Context, cls, newBase ecschema.Class) error {
	self := foldName(cls.Key().FullName())
	err := cycles.Detect([]string{self}, func(full string) ([]string, error) {
		if full == self {
			return []string{foldName(newBase.Key().FullName())}, nil
		}
		schemaName, itemName, ok := ecschema.SplitFullName(full)
		if !ok {
			return nil, nil
		}
		item, err := e.context.GetItem(ctx, ecschema.NewItemKey(itemName, ecschema.SchemaKey{Name: schemaName}))
		if err != nil {
			return nil, err
		}
		node, ok := item.(ecschema.Class)
		if !ok || node.Base() == nil {
			return nil, nil
		}
		return []string{foldName(node.Base().FullName())}, nil
	})
	var cycleErr cycles.Error[string]
	switch {
	case err == nil:
		return nil
	case errors.As(err, &cycleErr):
		return newError(StatusInvalidBaseClass, ClassID{Key: cls.Key()},
			fmt.Errorf("base class %s would create a derivation cycle", newBase.Key().FullName()))
	default:
		// A base chain member that fails to resolve is a resolution
		// problem, not a cycle.
		return newError(statusForCause(err, StatusInvalidBaseClass), ClassID{Key: cls.Key()}, err)
	}
}

// AddCustomAttribute applies attr to the container, runs the rule set,
// and rolls the application back when any diagnostic is produced. After
// a failed call the container's attribute set is exactly as before.
func (e *Editor) AddCustomAttribute(ctx context.Context, container ecschema.CustomAttributeContainer, attr ecschema.CustomAttribute) error {
	previous, hadPrevious := container.CustomAttributes().Get(attr.ClassName)
	container.CustomAttributes().Add(attr)

	diagnostics := xiter.Collect(e.rules.Validate(ctx, container, attr))
	if len(diagnostics) == 0 {
		return nil
	}
	if hadPrevious {
		container.CustomAttributes().Add(previous)
	} else {
		container.CustomAttributes().Remove(attr.ClassName)
	}
	return &EditingError{
		Status:      StatusRuleViolation,
		Identity:    CustomAttributeID{Container: container.ContainerName(), ClassName: attr.ClassName},
		Diagnostics: diagnostics,
	}
}

// AddCustomAttributeToClass resolves classKey and applies attr to it.
func (e *Editor) AddCustomAttributeToClass(ctx context.Context, classKey ecschema.ItemKey, attr ecschema.CustomAttribute) error {
	cls, err := e.class(ctx, classKey)
	if err != nil {
		return err
	}
	return e.AddCustomAttribute(ctx, cls, attr)
}

// Delete removes the item from its schema. A missing schema or item is
// a no-op, not an error.
func (e *Editor) Delete(ctx context.Context, itemKey ecschema.ItemKey) error {
	s, ok := e.context.SchemaByName(itemKey.Schema.Name)
	if !ok {
		return nil
	}
	s.DeleteItem(itemKey.Name)
	return nil
}

// DeleteClass removes a class after checking for dependents: derived
// classes anywhere in the context and properties referencing the class.
func (e *Editor) DeleteClass(ctx context.Context, classKey ecschema.ItemKey) error {
	s, ok := e.context.SchemaByName(classKey.Schema.Name)
	if !ok {
		return nil
	}
	item, ok := s.Item(classKey.Name)
	if !ok {
		return nil
	}
	cls, isClass := item.(ecschema.Class)
	if !isClass {
		return newError(StatusInvalidType, ItemID{Key: classKey},
			fmt.Errorf("%s is a %s, not a class", classKey.FullName(), item.Type()))
	}
	derived, err := e.FindDerivedClasses(ctx, cls)
	if err != nil {
		return err
	}
	if len(derived) > 0 {
		return newError(StatusHasDependents, ClassID{Key: classKey},
			fmt.Errorf("%d derived class(es) exist, e.g. %s", len(derived), derived[0].Key().FullName()))
	}
	if ref, ok := e.findReferencingProperty(cls.Key()); ok {
		return newError(StatusHasDependents, ClassID{Key: classKey},
			fmt.Errorf("property %s references the class", ref))
	}
	s.DeleteItem(classKey.Name)
	return nil
}

// FindDerivedClasses returns every class in the context deriving from
// cls. Identity is by key match, so cls itself is excluded even across
// separately loaded instances.
func (e *Editor) FindDerivedClasses(ctx context.Context, cls ecschema.Class) ([]ecschema.Class, error) {
	var derived []ecschema.Class
	for s := range e.context.Schemas() {
		for item := range s.Items() {
			candidate, ok := item.(ecschema.Class)
			if !ok || ecschema.SameItem(candidate, cls) {
				continue
			}
			is, err := candidate.Is(ctx, cls)
			if err != nil {
				return nil, newError(statusForCause(err, StatusItemNotFound), ClassID{Key: candidate.Key()}, err)
			}
			if is {
				derived = append(derived, candidate)
			}
		}
	}
	return derived, nil
}

func (e *Editor) findReferencingProperty(classKey ecschema.ItemKey) (string, bool) {
	for s := range e.context.Schemas() {
		for item := range s.Items() {
			cls, ok := item.(ecschema.Class)
			if !ok {
				continue
			}
			for p := range cls.Properties() {
				for _, ref := range []*ecschema.ItemRef{p.Struct(), p.Enumeration(), p.Relationship()} {
					if ref != nil && ref.Key().Matches(classKey) {
						return p.ContainerName(), true
					}
				}
			}
		}
	}
	return "", false
}

func foldName(name string) string {
	return strings.ToLower(name)
}
