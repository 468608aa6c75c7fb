package editor

import (
	"context"
	"fmt"

	"github.com/gobim/ecschema"
)

// CreatePrimitiveProperty declares a primitive property on the class.
// Only the class's own declared properties participate in the duplicate
// check; an inherited property of the same name is shadowed, not
// rejected.
func (e *Editor) CreatePrimitiveProperty(ctx context.Context, classKey ecschema.ItemKey, name string, t ecschema.PrimitiveType) (*ecschema.Property, error) {
	cls, err := e.class(ctx, classKey)
	if err != nil {
		return nil, err
	}
	p, err := cls.NewPrimitiveProperty(name, t)
	if err != nil {
		return nil, e.wrapPropertyError(classKey, name, err)
	}
	return p, nil
}

// CreatePrimitiveArrayProperty declares a primitive array property.
func (e *Editor) CreatePrimitiveArrayProperty(ctx context.Context, classKey ecschema.ItemKey, name string, t ecschema.PrimitiveType) (*ecschema.Property, error) {
	cls, err := e.class(ctx, classKey)
	if err != nil {
		return nil, err
	}
	p, err := cls.NewPrimitiveArrayProperty(name, t)
	if err != nil {
		return nil, e.wrapPropertyError(classKey, name, err)
	}
	return p, nil
}

// CreateEnumerationProperty declares a property typed by an
// enumeration, which must resolve to an Enumeration item.
func (e *Editor) CreateEnumerationProperty(ctx context.Context, classKey ecschema.ItemKey, name string, enumeration ecschema.ItemKey) (*ecschema.Property, error) {
	return e.createEnumerationProperty(ctx, classKey, name, enumeration, false)
}

// CreateEnumerationArrayProperty declares an enumeration array
// property.
func (e *Editor) CreateEnumerationArrayProperty(ctx context.Context, classKey ecschema.ItemKey, name string, enumeration ecschema.ItemKey) (*ecschema.Property, error) {
	return e.createEnumerationProperty(ctx, classKey, name, enumeration, true)
}

func (e *Editor) createEnumerationProperty(ctx context.Context, classKey ecschema.ItemKey, name string, enumeration ecschema.ItemKey, array bool) (*ecschema.Property, error) {
	cls, err := e.class(ctx, classKey)
	if err != nil {
		return nil, err
	}
	if err := e.expectItemType(ctx, enumeration, ecschema.ItemEnumeration); err != nil {
		return nil, err
	}
	var p *ecschema.Property
	if array {
		p, err = cls.NewEnumerationArrayProperty(name, enumeration)
	} else {
		p, err = cls.NewEnumerationProperty(name, enumeration)
	}
	if err != nil {
		return nil, e.wrapPropertyError(classKey, name, err)
	}
	return p, nil
}

// CreateStructProperty declares a property typed by a struct class,
// which must resolve to a StructClass item.
func (e *Editor) CreateStructProperty(ctx context.Context, classKey ecschema.ItemKey, name string, structClass ecschema.ItemKey) (*ecschema.Property, error) {
	return e.createStructProperty(ctx, classKey, name, structClass, false)
}

// CreateStructArrayProperty declares a struct array property.
func (e *Editor) CreateStructArrayProperty(ctx context.Context, classKey ecschema.ItemKey, name string, structClass ecschema.ItemKey) (*ecschema.Property, error) {
	return e.createStructProperty(ctx, classKey, name, structClass, true)
}

func (e *Editor) createStructProperty(ctx context.Context, classKey ecschema.ItemKey, name string, structClass ecschema.ItemKey, array bool) (*ecschema.Property, error) {
	cls, err := e.class(ctx, classKey)
	if err != nil {
		return nil, err
	}
	if err := e.expectItemType(ctx, structClass, ecschema.ItemStructClass); err != nil {
		return nil, err
	}
	var p *ecschema.Property
	if array {
		p, err = cls.NewStructArrayProperty(name, structClass)
	} else {
		p, err = cls.NewStructProperty(name, structClass)
	}
	if err != nil {
		return nil, e.wrapPropertyError(classKey, name, err)
	}
	return p, nil
}

// CreateNavigationProperty declares a navigation property over a
// relationship class.
func (e *Editor) CreateNavigationProperty(ctx context.Context, classKey ecschema.ItemKey, name string, relationship ecschema.ItemKey, direction ecschema.RelationshipDirection) (*ecschema.Property, error) {
	cls, err := e.class(ctx, classKey)
	if err != nil {
		return nil, err
	}
	if err := e.expectItemType(ctx, relationship, ecschema.ItemRelationshipClass); err != nil {
		return nil, err
	}
	p, err := cls.NewNavigationProperty(name, relationship, direction)
	if err != nil {
		return nil, e.wrapPropertyError(classKey, name, err)
	}
	return p, nil
}

// createPropertyTypes is the type set the CreateProperty convenience
// accepts.
var createPropertyTypes = map[ecschema.PrimitiveType]bool{
	ecschema.PrimitiveDouble:   true,
	ecschema.PrimitiveString:   true,
	ecschema.PrimitiveDateTime: true,
	ecschema.PrimitiveInteger:  true,
}

// CreateProperty is a convenience restricted to the double, string,
// dateTime, and int primitive types. The property name is the given
// name prefixed with "prefix_". Type and prefix violations are plain
// errors, not editing errors.
func (e *Editor) CreateProperty(ctx context.Context, classKey ecschema.ItemKey, name string, t ecschema.PrimitiveType, prefix string) (*ecschema.Property, error) {
	if !createPropertyTypes[t] {
		return nil, fmt.Errorf("property type %s is not supported by CreateProperty", t)
	}
	if prefix == "" {
		return nil, fmt.Errorf("prefix must not be empty")
	}
	return e.CreatePrimitiveProperty(ctx, classKey, prefix+"_"+name, t)
}

// DeleteProperty removes the class's own property of the given name. A
// missing property is a no-op.
func (e *Editor) DeleteProperty(ctx context.Context, classKey ecschema.ItemKey, name string) error {
	cls, err := e.class(ctx, classKey)
	if err != nil {
		return err
	}
	cls.DeleteProperty(name)
	return nil
}

func (e *Editor) wrapPropertyError(classKey ecschema.ItemKey, name string, err error) error {
	return newError(statusForCause(err, StatusInvalidType), PropertyID{Class: classKey, Name: name}, err)
}

// AddEnumerator appends an enumerator to an enumeration.
func (e *Editor) AddEnumerator(ctx context.Context, enumKey ecschema.ItemKey, enumerator ecschema.Enumerator) error {
	item, err := e.context.GetItem(ctx, enumKey)
	if err != nil {
		return newError(statusForCause(err, StatusItemNotFound), ItemID{Key: enumKey}, err)
	}
	enum, ok := item.(*ecschema.Enumeration)
	if !ok {
		return newError(StatusInvalidType, ItemID{Key: enumKey},
			fmt.Errorf("%s is a %s, not an enumeration", enumKey.FullName(), item.Type()))
	}
	if err := enum.AddEnumerator(enumerator); err != nil {
		return newError(statusForCause(err, StatusInvalidType), ItemID{Key: enumKey}, err)
	}
	return nil
}

// AddConstraintClass appends a constraint class to one end of a
// relationship. When the end has an abstract constraint, the class must
// derive from it.
func (e *Editor) AddConstraintClass(ctx context.Context, relationshipKey ecschema.ItemKey, source bool, classKey ecschema.ItemKey) error {
	item, err := e.context.GetItem(ctx, relationshipKey)
	if err != nil {
		return newError(statusForCause(err, StatusItemNotFound), ItemID{Key: relationshipKey}, err)
	}
	rel, ok := item.(*ecschema.RelationshipClass)
	if !ok {
		return newError(StatusInvalidType, ItemID{Key: relationshipKey},
			fmt.Errorf("%s is a %s, not a relationship class", relationshipKey.FullName(), item.Type()))
	}
	cls, err := e.class(ctx, classKey)
	if err != nil {
		return err
	}
	constraint := rel.Target()
	if source {
		constraint = rel.Source()
	}
	if abstract := constraint.AbstractConstraint(); abstract != nil {
		abstractClass, err := ecschema.ResolveAs[ecschema.Class](ctx, abstract)
		if err != nil {
			return newError(statusForCause(err, StatusItemNotFound), ItemID{Key: abstract.Key()}, err)
		}
		ok, err := cls.Is(ctx, abstractClass)
		if err != nil {
			return newError(statusForCause(err, StatusItemNotFound), ClassID{Key: classKey}, err)
		}
		if !ok {
			return newError(StatusInvalidBaseClass, ClassID{Key: classKey},
				fmt.Errorf("constraint class %s must derive from the abstract constraint %s",
					classKey.FullName(), abstract.FullName()))
		}
	}
	constraint.AddConstraintClass(classKey)
	return nil
}
