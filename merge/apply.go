package merge

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gobim/ecschema"
	"github.com/gobim/ecschema/diff"
)

func (s *session) applyAdd(ctx context.Context, r diff.Record) error {
	if r.Difference == nil {
		return fmt.Errorf("add record without a payload")
	}
	if r.Path != "" {
		item, ok := s.target.Item(r.ItemName)
		if !ok {
			return fmt.Errorf("%s: %w", r.ItemName, ecschema.ErrItemNotFound)
		}
		cls, ok := item.(ecschema.Class)
		if !ok {
			return fmt.Errorf("%s is not a class", r.ItemName)
		}
		if len(r.Difference.Properties) == 0 {
			return fmt.Errorf("property add record without a property payload")
		}
		_, err := s.addProperty(cls, r.Difference.Properties[0])
		return err
	}

	itemType, ok := ecschema.ParseItemType(r.SchemaType)
	if !ok {
		return fmt.Errorf("unknown schema item type %q", r.SchemaType)
	}
	item, err := s.createItem(itemType, r.ItemName, r.Difference)
	if err != nil {
		return err
	}
	return s.applyItemProps(ctx, item, r.Difference, true)
}

func (s *session) applyModify(ctx context.Context, r diff.Record) error {
	if r.Difference == nil {
		return fmt.Errorf("modify record without a payload")
	}
	item, ok := s.target.Item(r.ItemName)
	if !ok {
		return fmt.Errorf("%s: %w", r.ItemName, ecschema.ErrItemNotFound)
	}
	return s.applyItemProps(ctx, item, r.Difference, false)
}

// createItem constructs a bare item of the variant, pulling the fields
// the constructors require out of the payload. Optional fields apply
// afterwards through applyItemProps.
func (s *session) createItem(itemType ecschema.ItemType, name string, props *ecschema.ItemProps) (ecschema.Item, error) {
	switch itemType {
	case ecschema.ItemEntityClass:
		return s.target.NewEntityClass(name)
	case ecschema.ItemStructClass:
		return s.target.NewStructClass(name)
	case ecschema.ItemMixin:
		if props.AppliesTo == nil {
			return nil, fmt.Errorf("mixin %s: missing appliesTo", name)
		}
		key, err := s.resolveKey(*props.AppliesTo)
		if err != nil {
			return nil, err
		}
		return s.target.NewMixin(name, key)
	case ecschema.ItemCustomAttributeClass:
		mask := ecschema.ContainerAny
		if props.AppliesTo != nil {
			var err error
			mask, err = ecschema.ParseContainerType(*props.AppliesTo)
			if err != nil {
				return nil, fmt.Errorf("custom attribute class %s: %w", name, err)
			}
		}
		return s.target.NewCustomAttributeClass(name, mask)
	case ecschema.ItemRelationshipClass:
		strength := ecschema.StrengthReferencing
		if props.Strength != nil {
			parsed, ok := ecschema.ParseRelationshipStrength(*props.Strength)
			if !ok {
				return nil, fmt.Errorf("relationship %s: unknown strength %q", name, *props.Strength)
			}
			strength = parsed
		}
		direction := ecschema.DirectionForward
		if props.StrengthDirection != nil {
			parsed, ok := ecschema.ParseRelationshipDirection(*props.StrengthDirection)
			if !ok {
				return nil, fmt.Errorf("relationship %s: unknown direction %q", name, *props.StrengthDirection)
			}
			direction = parsed
		}
		return s.target.NewRelationshipClass(name, strength, direction)
	case ecschema.ItemEnumeration:
		backing := ecschema.PrimitiveInteger
		if props.Type != nil {
			parsed, ok := ecschema.ParsePrimitiveType(*props.Type)
			if !ok {
				return nil, fmt.Errorf("enumeration %s: unknown backing type %q", name, *props.Type)
			}
			backing = parsed
		}
		return s.target.NewEnumeration(name, backing)
	case ecschema.ItemPhenomenon:
		return s.target.NewPhenomenon(name, strOr(props.Definition))
	case ecschema.ItemUnitSystem:
		return s.target.NewUnitSystem(name)
	case ecschema.ItemUnit:
		if props.Phenomenon == nil || props.UnitSystem == nil {
			return nil, fmt.Errorf("unit %s: missing phenomenon or unitSystem", name)
		}
		phenomenon, err := s.resolveKey(*props.Phenomenon)
		if err != nil {
			return nil, err
		}
		system, err := s.resolveKey(*props.UnitSystem)
		if err != nil {
			return nil, err
		}
		return s.target.NewUnit(name, phenomenon, system, strOr(props.Definition))
	case ecschema.ItemConstant:
		if props.Phenomenon == nil {
			return nil, fmt.Errorf("constant %s: missing phenomenon", name)
		}
		phenomenon, err := s.resolveKey(*props.Phenomenon)
		if err != nil {
			return nil, err
		}
		return s.target.NewConstant(name, phenomenon, strOr(props.Definition))
	case ecschema.ItemFormat:
		precision := 0
		if props.Precision != nil {
			precision = *props.Precision
		}
		return s.target.NewFormat(name, strOr(props.FormatType), precision)
	case ecschema.ItemKindOfQuantity:
		if props.PersistenceUnit == nil {
			return nil, fmt.Errorf("kind of quantity %s: missing persistenceUnit", name)
		}
		unit, err := s.resolveKey(*props.PersistenceUnit)
		if err != nil {
			return nil, err
		}
		relativeError := 0.0
		if props.RelativeError != nil {
			relativeError = *props.RelativeError
		}
		return s.target.NewKindOfQuantity(name, unit, relativeError)
	case ecschema.ItemPropertyCategory:
		priority := 0
		if props.Priority != nil {
			priority = *props.Priority
		}
		return s.target.NewPropertyCategory(name, priority)
	default:
		return nil, fmt.Errorf("unknown schema item type %v", itemType)
	}
}

// applyItemProps applies every field present in the payload onto the
// item. isNew distinguishes construction from modification; constant
// value fields conflict only on modification.
func (s *session) applyItemProps(ctx context.Context, item ecschema.Item, props *ecschema.ItemProps, isNew bool) error {
	if props.Label != nil {
		item.SetLabel(*props.Label)
	}
	if props.Description != nil {
		item.SetDescription(*props.Description)
	}

	switch it := item.(type) {
	case *ecschema.EntityClass:
		for _, full := range props.Mixins {
			key, err := s.resolveKey(full)
			if err != nil {
				return err
			}
			it.AddMixin(key)
		}
		return s.applyClassProps(it, props)
	case *ecschema.StructClass:
		return s.applyClassProps(it, props)
	case *ecschema.Mixin:
		if !isNew && props.AppliesTo != nil {
			key, err := s.resolveKey(*props.AppliesTo)
			if err != nil {
				return err
			}
			it.SetAppliesTo(key)
		}
		return s.applyClassProps(it, props)
	case *ecschema.CustomAttributeClass:
		if !isNew && props.AppliesTo != nil {
			mask, err := ecschema.ParseContainerType(*props.AppliesTo)
			if err != nil {
				return err
			}
			it.SetAppliesTo(mask)
		}
		return s.applyClassProps(it, props)
	case *ecschema.RelationshipClass:
		if !isNew {
			if props.Strength != nil {
				parsed, ok := ecschema.ParseRelationshipStrength(*props.Strength)
				if !ok {
					return fmt.Errorf("unknown strength %q", *props.Strength)
				}
				it.SetStrength(parsed)
			}
			if props.StrengthDirection != nil {
				parsed, ok := ecschema.ParseRelationshipDirection(*props.StrengthDirection)
				if !ok {
					return fmt.Errorf("unknown direction %q", *props.StrengthDirection)
				}
				it.SetStrengthDirection(parsed)
			}
		}
		if props.Source != nil {
			if err := s.applyConstraintProps(it.Source(), props.Source); err != nil {
				return err
			}
		}
		if props.Target != nil {
			if err := s.applyConstraintProps(it.Target(), props.Target); err != nil {
				return err
			}
		}
		return s.applyClassProps(it, props)
	case *ecschema.Enumeration:
		if props.IsStrict != nil {
			it.SetIsStrict(*props.IsStrict)
		}
		for _, en := range props.Enumerators {
			if err := it.PutEnumerator(ecschema.Enumerator{Name: en.Name, Value: en.Value, Label: en.Label}); err != nil {
				return err
			}
		}
		return nil
	case *ecschema.Phenomenon:
		if props.Definition != nil {
			it.SetDefinition(*props.Definition)
		}
		return nil
	case *ecschema.UnitSystem:
		return nil
	case *ecschema.Unit:
		return s.applyUnitProps(it, props, isNew)
	case *ecschema.Constant:
		return s.applyConstantProps(it, props, isNew)
	case *ecschema.Format:
		if !isNew {
			if props.FormatType != nil {
				it.SetFormatType(*props.FormatType)
			}
			if props.Precision != nil {
				it.SetPrecision(*props.Precision)
			}
		}
		return nil
	case *ecschema.KindOfQuantity:
		if !isNew {
			if props.PersistenceUnit != nil {
				key, err := s.resolveKey(*props.PersistenceUnit)
				if err != nil {
					return err
				}
				it.SetPersistenceUnit(key)
			}
			if props.RelativeError != nil {
				it.SetRelativeError(*props.RelativeError)
			}
		}
		return nil
	case *ecschema.PropertyCategory:
		if !isNew && props.Priority != nil {
			it.SetPriority(*props.Priority)
		}
		return nil
	default:
		return fmt.Errorf("unknown schema item variant %T", item)
	}
}

func (s *session) applyClassProps(cls ecschema.Class, props *ecschema.ItemProps) error {
	if props.Modifier != nil {
		parsed, ok := ecschema.ParseClassModifier(*props.Modifier)
		if !ok {
			return fmt.Errorf("%s: unknown modifier %q", cls.FullName(), *props.Modifier)
		}
		cls.SetModifier(parsed)
	}
	if props.BaseClass != nil {
		if *props.BaseClass == "" {
			cls.SetBase(nil)
		} else {
			key, err := s.resolveKey(*props.BaseClass)
			if err != nil {
				return err
			}
			cls.SetBase(ecschema.NewItemRef(s.target, key))
		}
	}
	for _, pp := range props.Properties {
		existing, ok := cls.Property(pp.Name)
		if !ok {
			if _, err := s.addProperty(cls, pp); err != nil {
				return err
			}
			continue
		}
		if err := s.applyPropertyProps(cls, existing, pp); err != nil {
			return err
		}
	}
	return s.applyAttributeProps(cls, props.CustomAttributes)
}

func (s *session) applyConstraintProps(rc *ecschema.RelationshipConstraint, props *ecschema.ConstraintProps) error {
	if props.Multiplicity != nil {
		m, err := ecschema.ParseMultiplicity(*props.Multiplicity)
		if err != nil {
			return err
		}
		rc.SetMultiplicity(m)
	}
	if props.Polymorphic != nil {
		rc.SetPolymorphic(*props.Polymorphic)
	}
	if props.RoleLabel != nil {
		rc.SetRoleLabel(*props.RoleLabel)
	}
	if props.AbstractConstraint != nil {
		key, err := s.resolveKey(*props.AbstractConstraint)
		if err != nil {
			return err
		}
		rc.SetAbstractConstraint(key)
	}
	for _, full := range props.ConstraintClasses {
		key, err := s.resolveKey(full)
		if err != nil {
			return err
		}
		rc.AddConstraintClass(key)
	}
	return nil
}

func (s *session) applyUnitProps(u *ecschema.Unit, props *ecschema.ItemProps, isNew bool) error {
	if !isNew && props.Definition != nil {
		u.SetDefinition(*props.Definition)
	}
	if props.Numerator != nil {
		u.SetNumerator(*props.Numerator)
	}
	if props.Denominator != nil {
		u.SetDenominator(*props.Denominator)
	}
	if props.Offset != nil {
		u.SetOffset(*props.Offset)
	}
	return nil
}

// applyConstantProps treats definition, numerator, and denominator as
// immutable once the constant exists: an incoming delta on any of them
// is a hard conflict, never a silent pick of either side. Phenomenon
// changes apply normally.
func (s *session) applyConstantProps(c *ecschema.Constant, props *ecschema.ItemProps, isNew bool) error {
	if isNew {
		if props.Numerator != nil {
			c.SetNumerator(*props.Numerator)
		}
		if props.Denominator != nil {
			c.SetDenominator(*props.Denominator)
		}
		return nil
	}
	if props.Definition != nil && *props.Definition != c.Definition() {
		return &ConflictError{Kind: "constant", Field: "definition", SourceValue: *props.Definition, TargetValue: c.Definition()}
	}
	if props.Numerator != nil && *props.Numerator != c.Numerator() {
		return &ConflictError{Kind: "constant", Field: "numerator",
			SourceValue: formatFloat(*props.Numerator), TargetValue: formatFloat(c.Numerator())}
	}
	if props.Denominator != nil && *props.Denominator != c.Denominator() {
		return &ConflictError{Kind: "constant", Field: "denominator",
			SourceValue: formatFloat(*props.Denominator), TargetValue: formatFloat(c.Denominator())}
	}
	if props.Phenomenon != nil {
		key, err := s.resolveKey(*props.Phenomenon)
		if err != nil {
			return err
		}
		c.SetPhenomenon(key)
	}
	return nil
}

// applyAttributeProps applies attribute instances to the containers that
// can carry them: classes, properties, schemas, and relationship
// constraints. The other item variants have no attribute storage.
func (s *session) applyAttributeProps(container ecschema.CustomAttributeContainer, attrs []ecschema.CustomAttributeProps) error {
	for _, a := range attrs {
		container.CustomAttributes().Add(ecschema.CustomAttribute{
			ClassName:  s.rewriteName(a.ClassName),
			Properties: a.Properties,
		})
	}
	return nil
}

func strOr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
