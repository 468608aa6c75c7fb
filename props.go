package ecschema

import (
	"fmt"
	"strings"
)

// ItemProps is the serialized form of a schema item used as the
// difference payload of change records and as the construction input
// when merging additions. Pointer fields distinguish "absent" from zero
// values so modify payloads can carry partial updates.
type ItemProps struct {
	SchemaItemType    string                 `json:"schemaItemType,omitempty"`
	Label             *string                `json:"label,omitempty"`
	Description       *string                `json:"description,omitempty"`
	Modifier          *string                `json:"modifier,omitempty"`
	BaseClass         *string                `json:"baseClass,omitempty"`
	Mixins            []string               `json:"mixins,omitempty"`
	AppliesTo         *string                `json:"appliesTo,omitempty"`
	Strength          *string                `json:"strength,omitempty"`
	StrengthDirection *string                `json:"strengthDirection,omitempty"`
	Source            *ConstraintProps       `json:"source,omitempty"`
	Target            *ConstraintProps       `json:"target,omitempty"`
	Type              *string                `json:"type,omitempty"`
	IsStrict          *bool                  `json:"isStrict,omitempty"`
	Enumerators       []EnumeratorProps      `json:"enumerators,omitempty"`
	Phenomenon        *string                `json:"phenomenon,omitempty"`
	Definition        *string                `json:"definition,omitempty"`
	Numerator         *float64               `json:"numerator,omitempty"`
	Denominator       *float64               `json:"denominator,omitempty"`
	Offset            *float64               `json:"offset,omitempty"`
	UnitSystem        *string                `json:"unitSystem,omitempty"`
	FormatType        *string                `json:"formatType,omitempty"`
	Precision         *int                   `json:"precision,omitempty"`
	PersistenceUnit   *string                `json:"persistenceUnit,omitempty"`
	RelativeError     *float64               `json:"relativeError,omitempty"`
	Priority          *int                   `json:"priority,omitempty"`
	Properties        []PropertyProps        `json:"properties,omitempty"`
	CustomAttributes  []CustomAttributeProps `json:"customAttributes,omitempty"`
}

// PropertyProps is the serialized form of a property.
type PropertyProps struct {
	Name           string  `json:"name"`
	Kind           string  `json:"kind"`
	TypeName       string  `json:"typeName,omitempty"`
	Direction      *string `json:"direction,omitempty"`
	Label          *string `json:"label,omitempty"`
	Description    *string `json:"description,omitempty"`
	IsReadOnly     *bool   `json:"isReadOnly,omitempty"`
	Priority       *int    `json:"priority,omitempty"`
	MinOccurs      *int    `json:"minOccurs,omitempty"`
	MaxOccurs      *int    `json:"maxOccurs,omitempty"`
	Category       *string `json:"category,omitempty"`
	KindOfQuantity *string `json:"kindOfQuantity,omitempty"`
}

// ConstraintProps is the serialized form of one relationship end.
type ConstraintProps struct {
	Multiplicity       *string  `json:"multiplicity,omitempty"`
	Polymorphic        *bool    `json:"polymorphic,omitempty"`
	RoleLabel          *string  `json:"roleLabel,omitempty"`
	AbstractConstraint *string  `json:"abstractConstraint,omitempty"`
	ConstraintClasses  []string `json:"constraintClasses,omitempty"`
}

// EnumeratorProps is the serialized form of an enumerator.
type EnumeratorProps struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
	Label string `json:"label,omitempty"`
}

// CustomAttributeProps is the serialized form of an applied custom
// attribute.
type CustomAttributeProps struct {
	ClassName  string         `json:"className"`
	Properties map[string]any `json:"properties,omitempty"`
}

func ptr[T any](v T) *T { return &v }

func optStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func refName(r *ItemRef) *string {
	if r == nil {
		return nil
	}
	name := r.FullName()
	return &name
}

// ContainerTypeString renders a container mask as a comma-separated
// list of kind names.
func ContainerTypeString(t ContainerType) string {
	if t == ContainerAny {
		return "Any"
	}
	names := []struct {
		bit  ContainerType
		name string
	}{
		{ContainerSchema, "Schema"},
		{ContainerEntityClass, "EntityClass"},
		{ContainerStructClass, "StructClass"},
		{ContainerMixin, "Mixin"},
		{ContainerRelationshipClass, "RelationshipClass"},
		{ContainerCustomAttributeClass, "CustomAttributeClass"},
		{ContainerProperty, "Property"},
		{ContainerRelationshipConstraint, "RelationshipConstraint"},
	}
	var parts []string
	for _, n := range names {
		if t.Includes(n.bit) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, ", ")
}

// ParseContainerType parses the comma-separated container mask form.
func ParseContainerType(s string) (ContainerType, error) {
	var mask ContainerType
	for part := range strings.SplitSeq(s, ",") {
		switch strings.TrimSpace(part) {
		case "":
		case "Any":
			mask |= ContainerAny
		case "AnyClass":
			mask |= ContainerAnyClass
		case "Schema":
			mask |= ContainerSchema
		case "EntityClass":
			mask |= ContainerEntityClass
		case "StructClass":
			mask |= ContainerStructClass
		case "Mixin":
			mask |= ContainerMixin
		case "RelationshipClass":
			mask |= ContainerRelationshipClass
		case "CustomAttributeClass":
			mask |= ContainerCustomAttributeClass
		case "Property":
			mask |= ContainerProperty
		case "RelationshipConstraint":
			mask |= ContainerRelationshipConstraint
		default:
			return 0, fmt.Errorf("container type %q: unknown kind", strings.TrimSpace(part))
		}
	}
	return mask, nil
}

// PropsOf serializes an item into its props payload. References are
// rendered as schema-qualified full names.
func PropsOf(item Item) (ItemProps, error) {
	props := ItemProps{
		SchemaItemType: item.Type().String(),
		Label:          optStr(item.Label()),
		Description:    optStr(item.Description()),
	}

	if cls, ok := item.(Class); ok {
		props.Modifier = ptr(cls.Modifier().String())
		if cls.Base() != nil {
			props.BaseClass = refName(cls.Base())
		}
		for p := range cls.Properties() {
			pp, err := PropertyPropsOf(p)
			if err != nil {
				return ItemProps{}, err
			}
			props.Properties = append(props.Properties, pp)
		}
		props.CustomAttributes = customAttributePropsOf(cls.CustomAttributes())
	}

	switch it := item.(type) {
	case *EntityClass:
		for _, ref := range it.Mixins() {
			props.Mixins = append(props.Mixins, ref.FullName())
		}
	case *Mixin:
		props.AppliesTo = refName(it.AppliesTo())
	case *CustomAttributeClass:
		props.AppliesTo = ptr(ContainerTypeString(it.AppliesTo()))
	case *RelationshipClass:
		props.Strength = ptr(it.Strength().String())
		props.StrengthDirection = ptr(it.StrengthDirection().String())
		props.Source = constraintPropsOf(it.Source())
		props.Target = constraintPropsOf(it.Target())
	case *Enumeration:
		props.Type = ptr(it.Backing().String())
		props.IsStrict = ptr(it.IsStrict())
		for _, en := range it.Enumerators() {
			props.Enumerators = append(props.Enumerators, EnumeratorProps{
				Name:  en.Name,
				Value: en.Value,
				Label: en.Label,
			})
		}
	case *Phenomenon:
		props.Definition = optStr(it.Definition())
	case *Unit:
		props.Phenomenon = refName(it.Phenomenon())
		props.UnitSystem = refName(it.UnitSystem())
		props.Definition = optStr(it.Definition())
		props.Numerator = ptr(it.Numerator())
		props.Denominator = ptr(it.Denominator())
		props.Offset = ptr(it.Offset())
	case *Constant:
		props.Phenomenon = refName(it.Phenomenon())
		props.Definition = ptr(it.Definition())
		props.Numerator = ptr(it.Numerator())
		props.Denominator = ptr(it.Denominator())
	case *Format:
		props.FormatType = optStr(it.FormatType())
		props.Precision = ptr(it.Precision())
	case *KindOfQuantity:
		props.PersistenceUnit = refName(it.PersistenceUnit())
		props.RelativeError = ptr(it.RelativeError())
	case *PropertyCategory:
		props.Priority = ptr(it.Priority())
	}
	return props, nil
}

// PropertyPropsOf captures a single property as its serialized form.
func PropertyPropsOf(p *Property) (PropertyProps, error) {
	typeName, err := p.TypeFullName()
	if err != nil {
		return PropertyProps{}, err
	}
	props := PropertyProps{
		Name:        p.Name(),
		Kind:        p.Kind().String(),
		TypeName:    typeName,
		Label:       optStr(p.Label()),
		Description: optStr(p.Description()),
	}
	if p.IsReadOnly() {
		props.IsReadOnly = ptr(true)
	}
	if p.Priority() != 0 {
		props.Priority = ptr(p.Priority())
	}
	if p.Kind().IsArray() {
		props.MinOccurs = ptr(p.MinOccurs())
		props.MaxOccurs = ptr(p.MaxOccurs())
	}
	if p.Kind() == PropertyNavigation {
		props.Direction = ptr(p.Direction().String())
	}
	if p.Category() != nil {
		props.Category = refName(p.Category())
	}
	if p.KindOfQuantity() != nil {
		props.KindOfQuantity = refName(p.KindOfQuantity())
	}
	return props, nil
}

func constraintPropsOf(rc *RelationshipConstraint) *ConstraintProps {
	props := &ConstraintProps{
		Multiplicity: ptr(rc.Multiplicity().String()),
		Polymorphic:  ptr(rc.Polymorphic()),
		RoleLabel:    optStr(rc.RoleLabel()),
	}
	if rc.AbstractConstraint() != nil {
		props.AbstractConstraint = refName(rc.AbstractConstraint())
	}
	for _, ref := range rc.ConstraintClasses() {
		props.ConstraintClasses = append(props.ConstraintClasses, ref.FullName())
	}
	return props
}

func customAttributePropsOf(set *CustomAttributeSet) []CustomAttributeProps {
	if set.Len() == 0 {
		return nil
	}
	var out []CustomAttributeProps
	for attr := range set.All() {
		out = append(out, CustomAttributeProps{
			ClassName:  attr.ClassName,
			Properties: attr.Properties,
		})
	}
	return out
}
