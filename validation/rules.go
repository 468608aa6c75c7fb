package validation

import (
	"context"
	"fmt"
	"iter"

	"github.com/gobim/ecschema"
	"github.com/gobim/ecschema/internal/xiter"
)

// Rule inspects a newly applied custom attribute and yields
// diagnostics for structural violations. The sequence is finite and
// single-pass; rules resolve references lazily while being iterated.
type Rule func(ctx context.Context, container ecschema.CustomAttributeContainer, attr ecschema.CustomAttribute) iter.Seq[Diagnostic]

// RuleSet runs rules in registration order over one attribute
// application.
type RuleSet struct {
	rules []Rule
}

// NewRuleSet creates a rule set holding the built-in structural rules.
func NewRuleSet() *RuleSet {
	return &RuleSet{rules: []Rule{
		AttributeClassRule,
		AttributeValuesRule,
	}}
}

// NewEmptyRuleSet creates a rule set with no rules.
func NewEmptyRuleSet() *RuleSet {
	return &RuleSet{}
}

// Add appends a rule.
func (rs *RuleSet) Add(rule Rule) {
	rs.rules = append(rs.rules, rule)
}

// Validate yields the diagnostics of every rule in order. Zero yielded
// diagnostics means the application is valid.
func (rs *RuleSet) Validate(ctx context.Context, container ecschema.CustomAttributeContainer, attr ecschema.CustomAttribute) iter.Seq[Diagnostic] {
	return func(yield func(Diagnostic) bool) {
		for _, rule := range rs.rules {
			for d := range rule(ctx, container, attr) {
				if !yield(d) {
					return
				}
			}
		}
	}
}

func resolveAttributeClass(ctx context.Context, container ecschema.CustomAttributeContainer, attr ecschema.CustomAttribute) (*ecschema.CustomAttributeClass, *Diagnostic) {
	schemaName, itemName, ok := ecschema.SplitFullName(attr.ClassName)
	if !ok {
		return nil, &Diagnostic{
			Code:    CodeAttributeClassUnresolved,
			Subject: container.ContainerName(),
			Message: fmt.Sprintf("custom attribute class name %q is not schema-qualified", attr.ClassName),
			Args:    []any{attr.ClassName},
		}
	}
	schema := container.ContainerSchema()
	if schema == nil {
		return nil, &Diagnostic{
			Code:    CodeAttributeClassUnresolved,
			Subject: container.ContainerName(),
			Message: "container has no schema",
		}
	}
	key := ecschema.NewItemKey(itemName, ecschema.SchemaKey{Name: schemaName})
	item, err := schema.LookupItem(ctx, key)
	if err != nil {
		return nil, &Diagnostic{
			Code:    CodeAttributeClassUnresolved,
			Subject: container.ContainerName(),
			Message: fmt.Sprintf("custom attribute class %s could not be resolved: %v", attr.ClassName, err),
			Args:    []any{attr.ClassName},
		}
	}
	caClass, ok := item.(*ecschema.CustomAttributeClass)
	if !ok {
		return nil, &Diagnostic{
			Code:    CodeAttributeClassWrongType,
			Subject: container.ContainerName(),
			Message: fmt.Sprintf("%s is a %s, not a custom attribute class", attr.ClassName, item.Type()),
			Args:    []any{attr.ClassName, item.Type().String()},
		}
	}
	return caClass, nil
}

// AttributeClassRule checks that the applied class resolves, is a
// custom attribute class, and permits the container's kind.
func AttributeClassRule(ctx context.Context, container ecschema.CustomAttributeContainer, attr ecschema.CustomAttribute) iter.Seq[Diagnostic] {
	return func(yield func(Diagnostic) bool) {
		caClass, diag := resolveAttributeClass(ctx, container, attr)
		if diag != nil {
			yield(*diag)
			return
		}
		if !caClass.AppliesTo().Includes(container.ContainerType()) {
			yield(Diagnostic{
				Code:    CodeAttributeNotApplicable,
				Subject: container.ContainerName(),
				Message: fmt.Sprintf("custom attribute %s does not apply to this container kind", attr.ClassName),
				Args:    []any{attr.ClassName},
			})
		}
	}
}

// AttributeValuesRule checks attribute property values against the
// attribute class's declared properties: unknown property names are
// violations, as are strict-enumeration values outside the enumerator
// set.
func AttributeValuesRule(ctx context.Context, container ecschema.CustomAttributeContainer, attr ecschema.CustomAttribute) iter.Seq[Diagnostic] {
	return func(yield func(Diagnostic) bool) {
		caClass, diag := resolveAttributeClass(ctx, container, attr)
		if diag != nil {
			// AttributeClassRule reports resolution failures.
			return
		}
		for name := range xiter.SortedKeys(attr.Properties) {
			value := attr.Properties[name]
			decl, err := caClass.FindProperty(ctx, name)
			if err != nil {
				if !yield(Diagnostic{
					Code:    CodeAttributeBadValue,
					Subject: container.ContainerName(),
					Message: fmt.Sprintf("custom attribute %s has no property %q", attr.ClassName, name),
					Args:    []any{attr.ClassName, name},
				}) {
					return
				}
				continue
			}
			if decl.Kind() != ecschema.PropertyEnumeration {
				continue
			}
			enum, err := ecschema.ResolveAs[*ecschema.Enumeration](ctx, decl.Enumeration())
			if err != nil {
				if !yield(Diagnostic{
					Code:    CodeAttributeBadValue,
					Subject: container.ContainerName(),
					Message: fmt.Sprintf("property %q of %s: %v", name, attr.ClassName, err),
					Args:    []any{attr.ClassName, name},
				}) {
					return
				}
				continue
			}
			if enum.IsStrict() && !enum.HasValue(value) {
				if !yield(Diagnostic{
					Code:    CodeAttributeBadValue,
					Subject: container.ContainerName(),
					Message: fmt.Sprintf("value %v of property %q is not an enumerator of %s", value, name, enum.Key().FullName()),
					Args:    []any{attr.ClassName, name, value},
				}) {
					return
				}
			}
		}
	}
}
