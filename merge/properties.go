package merge

import (
	"fmt"
	"strings"

	"github.com/gobim/ecschema"
)

// addProperty constructs a property on the class from its serialized
// form, rewriting source-qualified type names onto the target.
func (s *session) addProperty(cls ecschema.Class, pp ecschema.PropertyProps) (*ecschema.Property, error) {
	kind, ok := ecschema.ParsePropertyKind(pp.Kind)
	if !ok {
		return nil, fmt.Errorf("%s.%s: unknown property kind %q", cls.FullName(), pp.Name, pp.Kind)
	}

	var (
		prop *ecschema.Property
		err  error
	)
	switch kind {
	case ecschema.PropertyPrimitive, ecschema.PropertyPrimitiveArray:
		primitive, ok := ecschema.ParsePrimitiveType(pp.TypeName)
		if !ok {
			return nil, fmt.Errorf("%s.%s: unknown primitive type %q", cls.FullName(), pp.Name, pp.TypeName)
		}
		if kind == ecschema.PropertyPrimitive {
			prop, err = cls.NewPrimitiveProperty(pp.Name, primitive)
		} else {
			prop, err = cls.NewPrimitiveArrayProperty(pp.Name, primitive)
		}
	case ecschema.PropertyEnumeration, ecschema.PropertyEnumerationArray:
		var key ecschema.ItemKey
		key, err = s.resolveKey(pp.TypeName)
		if err != nil {
			return nil, err
		}
		if kind == ecschema.PropertyEnumeration {
			prop, err = cls.NewEnumerationProperty(pp.Name, key)
		} else {
			prop, err = cls.NewEnumerationArrayProperty(pp.Name, key)
		}
	case ecschema.PropertyStruct, ecschema.PropertyStructArray:
		var key ecschema.ItemKey
		key, err = s.resolveKey(pp.TypeName)
		if err != nil {
			return nil, err
		}
		if kind == ecschema.PropertyStruct {
			prop, err = cls.NewStructProperty(pp.Name, key)
		} else {
			prop, err = cls.NewStructArrayProperty(pp.Name, key)
		}
	case ecschema.PropertyNavigation:
		var key ecschema.ItemKey
		key, err = s.resolveKey(pp.TypeName)
		if err != nil {
			return nil, err
		}
		direction := ecschema.DirectionForward
		if pp.Direction != nil {
			parsed, ok := ecschema.ParseRelationshipDirection(*pp.Direction)
			if !ok {
				return nil, fmt.Errorf("%s.%s: unknown direction %q", cls.FullName(), pp.Name, *pp.Direction)
			}
			direction = parsed
		}
		prop, err = cls.NewNavigationProperty(pp.Name, key, direction)
	default:
		return nil, fmt.Errorf("%s.%s: unknown property kind %q", cls.FullName(), pp.Name, pp.Kind)
	}
	if err != nil {
		return nil, err
	}
	if err := s.applyPropertyFields(prop, pp); err != nil {
		return nil, err
	}
	return prop, nil
}

// applyPropertyProps merges a partial property payload into an
// existing property. A type name delta rebuilds the property, since a
// property's type is fixed at construction; the other declared fields
// carry over.
func (s *session) applyPropertyProps(cls ecschema.Class, prop *ecschema.Property, pp ecschema.PropertyProps) error {
	if pp.TypeName != "" {
		current, err := prop.TypeFullName()
		if err != nil {
			return err
		}
		if !equalTypeNames(s.rewriteName(pp.TypeName), current) {
			return s.rebuildProperty(cls, prop, pp)
		}
	}
	return s.applyPropertyFields(prop, pp)
}

func (s *session) rebuildProperty(cls ecschema.Class, prop *ecschema.Property, pp ecschema.PropertyProps) error {
	retained, err := ecschema.PropertyPropsOf(prop)
	if err != nil {
		return err
	}
	mergePropertyFields(&retained, pp)
	retained.TypeName = pp.TypeName
	cls.DeleteProperty(prop.Name())
	if _, err := s.addProperty(cls, retained); err != nil {
		return fmt.Errorf("rebuild %s.%s: %w", cls.FullName(), prop.Name(), err)
	}
	return nil
}

func (s *session) applyPropertyFields(prop *ecschema.Property, pp ecschema.PropertyProps) error {
	if pp.Label != nil {
		prop.SetLabel(*pp.Label)
	}
	if pp.Description != nil {
		prop.SetDescription(*pp.Description)
	}
	if pp.IsReadOnly != nil {
		prop.SetIsReadOnly(*pp.IsReadOnly)
	}
	if pp.Priority != nil {
		prop.SetPriority(*pp.Priority)
	}
	if pp.MinOccurs != nil || pp.MaxOccurs != nil {
		minOccurs, maxOccurs := prop.MinOccurs(), prop.MaxOccurs()
		if pp.MinOccurs != nil {
			minOccurs = *pp.MinOccurs
		}
		if pp.MaxOccurs != nil {
			maxOccurs = *pp.MaxOccurs
		}
		prop.SetOccurs(minOccurs, maxOccurs)
	}
	if pp.Direction != nil {
		parsed, ok := ecschema.ParseRelationshipDirection(*pp.Direction)
		if !ok {
			return fmt.Errorf("property %s: unknown direction %q", prop.Name(), *pp.Direction)
		}
		prop.SetDirection(parsed)
	}
	if pp.Category != nil {
		key, err := s.resolveKey(*pp.Category)
		if err != nil {
			return err
		}
		prop.SetCategory(ecschema.NewItemRef(s.target, key))
	}
	if pp.KindOfQuantity != nil {
		key, err := s.resolveKey(*pp.KindOfQuantity)
		if err != nil {
			return err
		}
		prop.SetKindOfQuantity(ecschema.NewItemRef(s.target, key))
	}
	return nil
}

func mergePropertyFields(dst *ecschema.PropertyProps, src ecschema.PropertyProps) {
	if src.Label != nil {
		dst.Label = src.Label
	}
	if src.Description != nil {
		dst.Description = src.Description
	}
	if src.IsReadOnly != nil {
		dst.IsReadOnly = src.IsReadOnly
	}
	if src.Priority != nil {
		dst.Priority = src.Priority
	}
	if src.MinOccurs != nil {
		dst.MinOccurs = src.MinOccurs
	}
	if src.MaxOccurs != nil {
		dst.MaxOccurs = src.MaxOccurs
	}
	if src.Direction != nil {
		dst.Direction = src.Direction
	}
	if src.Category != nil {
		dst.Category = src.Category
	}
	if src.KindOfQuantity != nil {
		dst.KindOfQuantity = src.KindOfQuantity
	}
}

func equalTypeNames(a, b string) bool { return strings.EqualFold(a, b) }
