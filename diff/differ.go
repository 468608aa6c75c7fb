package diff

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gobim/ecschema"
)

func equalNames(a, b string) bool { return strings.EqualFold(a, b) }

// Compare walks the source and target schema graphs and returns the
// typed change list describing how target differs from source. Items
// are matched by case-insensitive name; within an item, scalar fields
// are compared before composite ones. Cross-item record order follows
// the source schema's item order and is not otherwise contractual.
func Compare(ctx context.Context, source, target *ecschema.Schema) (*Changes, error) {
	d := &differ{
		source:  source,
		target:  target,
		changes: &Changes{Source: source.Key(), Target: target.Key()},
	}
	for item := range source.Items() {
		targetItem, ok := target.Item(item.Name())
		if !ok {
			if err := d.addItem(item); err != nil {
				return nil, err
			}
			continue
		}
		if targetItem.Type() != item.Type() {
			// Same name, different variant: replace wholesale.
			d.removeItem(targetItem)
			if err := d.addItem(item); err != nil {
				return nil, err
			}
			continue
		}
		if err := d.compareItem(ctx, item, targetItem); err != nil {
			return nil, err
		}
	}
	for item := range target.Items() {
		if _, ok := source.Item(item.Name()); !ok {
			d.removeItem(item)
		}
	}
	return d.changes, nil
}

type differ struct {
	source  *ecschema.Schema
	target  *ecschema.Schema
	changes *Changes
}

func (d *differ) addItem(item ecschema.Item) error {
	props, err := ecschema.PropsOf(item)
	if err != nil {
		return fmt.Errorf("serialize %s: %w", item.Key().FullName(), err)
	}
	d.changes.Records = append(d.changes.Records, Record{
		Change:     ChangeAdd,
		SchemaType: item.Type().String(),
		ItemName:   item.Name(),
		Difference: &props,
	})
	return nil
}

func (d *differ) removeItem(item ecschema.Item) {
	d.changes.Records = append(d.changes.Records, Record{
		Change:     ChangeRemove,
		SchemaType: item.Type().String(),
		ItemName:   item.Name(),
	})
}

func (d *differ) record(r Record) {
	d.changes.Records = append(d.changes.Records, r)
}

func (d *differ) modify(item ecschema.Item, path, code, sourceVal, targetVal string, difference *ecschema.ItemProps) {
	d.record(Record{
		Change:      ChangeModify,
		SchemaType:  item.Type().String(),
		ItemName:    item.Name(),
		Path:        path,
		Code:        code,
		SourceValue: sourceVal,
		TargetValue: targetVal,
		Difference:  difference,
	})
}

// rewriteQualifier maps full names qualified with the source schema's
// own name onto the target schema, so a copy of an item compared across
// the two schemas is not flagged merely for living in the other schema.
// Mixin applies-to targets deliberately skip this.
func (d *differ) rewriteQualifier(fullName string) string {
	schemaName, itemName, ok := ecschema.SplitFullName(fullName)
	if ok && equalNames(schemaName, d.source.Name()) {
		return d.target.Name() + "." + itemName
	}
	return fullName
}

func (d *differ) compareItem(ctx context.Context, source, target ecschema.Item) error {
	if source.Label() != target.Label() {
		d.modify(source, "label", CodeLabelChanged, source.Label(), target.Label(),
			&ecschema.ItemProps{Label: strPtr(source.Label())})
	}
	if source.Description() != target.Description() {
		d.modify(source, "description", CodeDescriptionChanged, source.Description(), target.Description(),
			&ecschema.ItemProps{Description: strPtr(source.Description())})
	}

	switch src := source.(type) {
	case *ecschema.EntityClass:
		tgt := target.(*ecschema.EntityClass)
		d.compareClassScalars(src, tgt)
		d.compareMixinSets(src, tgt)
		if err := d.compareClassComposites(src, tgt); err != nil {
			return err
		}
	case *ecschema.StructClass:
		tgt := target.(*ecschema.StructClass)
		d.compareClassScalars(src, tgt)
		if err := d.compareClassComposites(src, tgt); err != nil {
			return err
		}
	case *ecschema.Mixin:
		tgt := target.(*ecschema.Mixin)
		d.compareClassScalars(src, tgt)
		d.compareMixinAppliesTo(src, tgt)
		if err := d.compareClassComposites(src, tgt); err != nil {
			return err
		}
	case *ecschema.CustomAttributeClass:
		tgt := target.(*ecschema.CustomAttributeClass)
		d.compareClassScalars(src, tgt)
		if src.AppliesTo() != tgt.AppliesTo() {
			srcMask := ecschema.ContainerTypeString(src.AppliesTo())
			tgtMask := ecschema.ContainerTypeString(tgt.AppliesTo())
			d.modify(src, "appliesTo", CodeAppliesToMaskChanged, srcMask, tgtMask,
				&ecschema.ItemProps{AppliesTo: strPtr(srcMask)})
		}
		if err := d.compareClassComposites(src, tgt); err != nil {
			return err
		}
	case *ecschema.RelationshipClass:
		tgt := target.(*ecschema.RelationshipClass)
		d.compareClassScalars(src, tgt)
		d.compareRelationshipScalars(src, tgt)
		if err := d.compareClassComposites(src, tgt); err != nil {
			return err
		}
		d.compareConstraint(src, src.Source(), tgt.Source(), "source")
		d.compareConstraint(src, src.Target(), tgt.Target(), "target")
	case *ecschema.Enumeration:
		tgt := target.(*ecschema.Enumeration)
		d.compareEnumerations(src, tgt)
	case *ecschema.Phenomenon:
		tgt := target.(*ecschema.Phenomenon)
		if src.Definition() != tgt.Definition() {
			d.modify(src, "definition", CodePhenomenonChanged, src.Definition(), tgt.Definition(),
				&ecschema.ItemProps{Definition: strPtr(src.Definition())})
		}
	case *ecschema.UnitSystem:
		// Name, label, and description only.
	case *ecschema.Unit:
		d.compareUnits(src, target.(*ecschema.Unit))
	case *ecschema.Constant:
		d.compareConstants(src, target.(*ecschema.Constant))
	case *ecschema.Format:
		tgt := target.(*ecschema.Format)
		if src.FormatType() != tgt.FormatType() {
			d.modify(src, "formatType", CodeFormatChanged, src.FormatType(), tgt.FormatType(),
				&ecschema.ItemProps{FormatType: strPtr(src.FormatType())})
		}
		if src.Precision() != tgt.Precision() {
			d.modify(src, "precision", CodeFormatChanged, strconv.Itoa(src.Precision()), strconv.Itoa(tgt.Precision()),
				&ecschema.ItemProps{Precision: intPtr(src.Precision())})
		}
	case *ecschema.KindOfQuantity:
		tgt := target.(*ecschema.KindOfQuantity)
		srcUnit := refFullName(src.PersistenceUnit())
		tgtUnit := refFullName(tgt.PersistenceUnit())
		if !equalNames(d.rewriteQualifier(srcUnit), tgtUnit) {
			d.modify(src, "persistenceUnit", CodeKindOfQuantityChanged, srcUnit, tgtUnit,
				&ecschema.ItemProps{PersistenceUnit: strPtr(srcUnit)})
		}
		if src.RelativeError() != tgt.RelativeError() {
			d.modify(src, "relativeError", CodeKindOfQuantityChanged,
				formatFloat(src.RelativeError()), formatFloat(tgt.RelativeError()),
				&ecschema.ItemProps{RelativeError: floatPtr(src.RelativeError())})
		}
	case *ecschema.PropertyCategory:
		tgt := target.(*ecschema.PropertyCategory)
		if src.Priority() != tgt.Priority() {
			d.modify(src, "priority", CodePriorityChanged, strconv.Itoa(src.Priority()), strconv.Itoa(tgt.Priority()),
				&ecschema.ItemProps{Priority: intPtr(src.Priority())})
		}
	}
	return nil
}

func (d *differ) compareClassScalars(source, target ecschema.Class) {
	if source.Modifier() != target.Modifier() {
		d.modify(source, "modifier", CodeModifierChanged,
			source.Modifier().String(), target.Modifier().String(),
			&ecschema.ItemProps{Modifier: strPtr(source.Modifier().String())})
	}
	srcBase := refFullName(source.Base())
	tgtBase := refFullName(target.Base())
	if !equalNames(d.rewriteQualifier(srcBase), tgtBase) {
		d.modify(source, "baseClass", CodeBaseClassChanged, srcBase, tgtBase,
			&ecschema.ItemProps{BaseClass: strPtr(srcBase)})
	}
}

func (d *differ) compareRelationshipScalars(source, target *ecschema.RelationshipClass) {
	if source.Strength() != target.Strength() {
		d.modify(source, "strength", CodeStrengthChanged,
			source.Strength().String(), target.Strength().String(),
			&ecschema.ItemProps{Strength: strPtr(source.Strength().String())})
	}
	if source.StrengthDirection() != target.StrengthDirection() {
		d.modify(source, "strengthDirection", CodeStrengthDirectionChanged,
			source.StrengthDirection().String(), target.StrengthDirection().String(),
			&ecschema.ItemProps{StrengthDirection: strPtr(source.StrengthDirection().String())})
	}
}

// compareMixinAppliesTo compares the applies-to targets by full name.
// Targets with the same item name in different schemas are a delta; no
// renamed-item detection is attempted.
func (d *differ) compareMixinAppliesTo(source, target *ecschema.Mixin) {
	srcTarget := refFullName(source.AppliesTo())
	tgtTarget := refFullName(target.AppliesTo())
	if !equalNames(srcTarget, tgtTarget) {
		d.modify(source, "appliesTo", CodeMixinAppliesToChanged, srcTarget, tgtTarget,
			&ecschema.ItemProps{AppliesTo: strPtr(srcTarget)})
	}
}

func (d *differ) compareMixinSets(source, target *ecschema.EntityClass) {
	var added []string
	for _, ref := range source.Mixins() {
		if !hasRefNamed(target.Mixins(), d.rewriteQualifier(ref.FullName())) {
			added = append(added, ref.FullName())
		}
	}
	if len(added) > 0 {
		d.modify(source, "mixins", CodeMixinsChanged, strings.Join(added, ", "), "",
			&ecschema.ItemProps{Mixins: added})
	}
	for _, ref := range target.Mixins() {
		if !hasRewrittenRefNamed(source.Mixins(), ref.FullName(), d) {
			d.record(Record{
				Change:     ChangeRemove,
				SchemaType: source.Type().String(),
				ItemName:   source.Name(),
				Path:       "mixins." + ref.FullName(),
			})
		}
	}
}

func (d *differ) compareClassComposites(source, target ecschema.Class) error {
	if err := d.compareProperties(source, target); err != nil {
		return err
	}
	d.compareCustomAttributes(source, source.CustomAttributes(), target.CustomAttributes(), "")
	return nil
}

func (d *differ) compareCustomAttributes(item ecschema.Item, source, target *ecschema.CustomAttributeSet, pathPrefix string) {
	for attr := range source.All() {
		existing, ok := target.Get(d.rewriteQualifier(attr.ClassName))
		if !ok {
			d.modify(item, pathPrefix+"customAttributes."+attr.ClassName, CodeCustomAttributesChanged,
				attr.ClassName, "",
				&ecschema.ItemProps{CustomAttributes: []ecschema.CustomAttributeProps{{
					ClassName:  attr.ClassName,
					Properties: attr.Properties,
				}}})
			continue
		}
		if !equalPropertyBags(attr.Properties, existing.Properties) {
			d.modify(item, pathPrefix+"customAttributes."+attr.ClassName, CodeCustomAttributesChanged,
				fmt.Sprintf("%v", attr.Properties), fmt.Sprintf("%v", existing.Properties),
				&ecschema.ItemProps{CustomAttributes: []ecschema.CustomAttributeProps{{
					ClassName:  attr.ClassName,
					Properties: attr.Properties,
				}}})
		}
	}
	for attr := range target.All() {
		if !d.hasRewrittenAttr(source, attr.ClassName) {
			d.record(Record{
				Change:     ChangeRemove,
				SchemaType: item.Type().String(),
				ItemName:   item.Name(),
				Path:       pathPrefix + "customAttributes." + attr.ClassName,
			})
		}
	}
}

func (d *differ) hasRewrittenAttr(set *ecschema.CustomAttributeSet, className string) bool {
	for attr := range set.All() {
		if equalNames(d.rewriteQualifier(attr.ClassName), className) {
			return true
		}
	}
	return false
}

func (d *differ) compareConstraint(rel *ecschema.RelationshipClass, source, target *ecschema.RelationshipConstraint, end string) {
	if source.Multiplicity() != target.Multiplicity() {
		d.modify(rel, end+".multiplicity", CodeConstraintChanged,
			source.Multiplicity().String(), target.Multiplicity().String(),
			constraintDelta(end, &ecschema.ConstraintProps{Multiplicity: strPtr(source.Multiplicity().String())}))
	}
	if source.Polymorphic() != target.Polymorphic() {
		d.modify(rel, end+".polymorphic", CodeConstraintChanged,
			strconv.FormatBool(source.Polymorphic()), strconv.FormatBool(target.Polymorphic()),
			constraintDelta(end, &ecschema.ConstraintProps{Polymorphic: boolPtr(source.Polymorphic())}))
	}
	if source.RoleLabel() != target.RoleLabel() {
		d.modify(rel, end+".roleLabel", CodeConstraintChanged,
			source.RoleLabel(), target.RoleLabel(),
			constraintDelta(end, &ecschema.ConstraintProps{RoleLabel: strPtr(source.RoleLabel())}))
	}
	srcAbstract := refFullName(source.AbstractConstraint())
	tgtAbstract := refFullName(target.AbstractConstraint())
	if !equalNames(d.rewriteQualifier(srcAbstract), tgtAbstract) {
		d.modify(rel, end+".abstractConstraint", CodeConstraintChanged, srcAbstract, tgtAbstract,
			constraintDelta(end, &ecschema.ConstraintProps{AbstractConstraint: strPtr(srcAbstract)}))
	}

	// Constraint classes compare as a set by full name, not by
	// position.
	var added []string
	for _, ref := range source.ConstraintClasses() {
		if !hasRefNamed(target.ConstraintClasses(), d.rewriteQualifier(ref.FullName())) {
			added = append(added, ref.FullName())
		}
	}
	if len(added) > 0 {
		d.modify(rel, end+".constraintClasses", CodeConstraintChanged, strings.Join(added, ", "), "",
			constraintDelta(end, &ecschema.ConstraintProps{ConstraintClasses: added}))
	}
	for _, ref := range target.ConstraintClasses() {
		if !hasRewrittenRefNamed(source.ConstraintClasses(), ref.FullName(), d) {
			d.record(Record{
				Change:     ChangeRemove,
				SchemaType: rel.Type().String(),
				ItemName:   rel.Name(),
				Path:       end + ".constraintClasses." + ref.FullName(),
			})
		}
	}
}

func (d *differ) compareEnumerations(source, target *ecschema.Enumeration) {
	if source.Backing() != target.Backing() {
		d.modify(source, "type", CodeEnumerationChanged,
			source.Backing().String(), target.Backing().String(),
			&ecschema.ItemProps{Type: strPtr(source.Backing().String())})
	}
	if source.IsStrict() != target.IsStrict() {
		d.modify(source, "isStrict", CodeEnumerationChanged,
			strconv.FormatBool(source.IsStrict()), strconv.FormatBool(target.IsStrict()),
			&ecschema.ItemProps{IsStrict: boolPtr(source.IsStrict())})
	}
	for _, en := range source.Enumerators() {
		existing, ok := target.Enumerator(en.Name)
		if !ok {
			d.modify(source, "enumerators."+en.Name, CodeEnumerationChanged,
				fmt.Sprintf("%v", en.Value), "",
				&ecschema.ItemProps{Enumerators: []ecschema.EnumeratorProps{{
					Name: en.Name, Value: en.Value, Label: en.Label,
				}}})
			continue
		}
		if !enumeratorEqual(en, existing) {
			d.modify(source, "enumerators."+en.Name, CodeEnumerationChanged,
				fmt.Sprintf("%v", en.Value), fmt.Sprintf("%v", existing.Value),
				&ecschema.ItemProps{Enumerators: []ecschema.EnumeratorProps{{
					Name: en.Name, Value: en.Value, Label: en.Label,
				}}})
		}
	}
	for _, en := range target.Enumerators() {
		if _, ok := source.Enumerator(en.Name); !ok {
			d.record(Record{
				Change:     ChangeRemove,
				SchemaType: source.Type().String(),
				ItemName:   source.Name(),
				Path:       "enumerators." + en.Name,
			})
		}
	}
}

func (d *differ) compareUnits(source, target *ecschema.Unit) {
	if source.Definition() != target.Definition() {
		d.modify(source, "definition", CodeUnitChanged, source.Definition(), target.Definition(),
			&ecschema.ItemProps{Definition: strPtr(source.Definition())})
	}
	if source.Numerator() != target.Numerator() {
		d.modify(source, "numerator", CodeUnitChanged,
			formatFloat(source.Numerator()), formatFloat(target.Numerator()),
			&ecschema.ItemProps{Numerator: floatPtr(source.Numerator())})
	}
	if source.Denominator() != target.Denominator() {
		d.modify(source, "denominator", CodeUnitChanged,
			formatFloat(source.Denominator()), formatFloat(target.Denominator()),
			&ecschema.ItemProps{Denominator: floatPtr(source.Denominator())})
	}
	if source.Offset() != target.Offset() {
		d.modify(source, "offset", CodeUnitChanged,
			formatFloat(source.Offset()), formatFloat(target.Offset()),
			&ecschema.ItemProps{Offset: floatPtr(source.Offset())})
	}
	srcPhen := refFullName(source.Phenomenon())
	tgtPhen := refFullName(target.Phenomenon())
	if !equalNames(d.rewriteQualifier(srcPhen), tgtPhen) {
		d.modify(source, "phenomenon", CodeUnitChanged, srcPhen, tgtPhen,
			&ecschema.ItemProps{Phenomenon: strPtr(srcPhen)})
	}
	srcSystem := refFullName(source.UnitSystem())
	tgtSystem := refFullName(target.UnitSystem())
	if !equalNames(d.rewriteQualifier(srcSystem), tgtSystem) {
		d.modify(source, "unitSystem", CodeUnitChanged, srcSystem, tgtSystem,
			&ecschema.ItemProps{UnitSystem: strPtr(srcSystem)})
	}
}

// compareConstants records constant field deltas. The merge engine, not
// the differ, decides that definition, numerator, and denominator
// deltas are hard conflicts.
func (d *differ) compareConstants(source, target *ecschema.Constant) {
	if source.Definition() != target.Definition() {
		d.modify(source, "definition", CodeConstantChanged, source.Definition(), target.Definition(),
			&ecschema.ItemProps{Definition: strPtr(source.Definition())})
	}
	if source.Numerator() != target.Numerator() {
		d.modify(source, "numerator", CodeConstantChanged,
			formatFloat(source.Numerator()), formatFloat(target.Numerator()),
			&ecschema.ItemProps{Numerator: floatPtr(source.Numerator())})
	}
	if source.Denominator() != target.Denominator() {
		d.modify(source, "denominator", CodeConstantChanged,
			formatFloat(source.Denominator()), formatFloat(target.Denominator()),
			&ecschema.ItemProps{Denominator: floatPtr(source.Denominator())})
	}
	srcPhen := refFullName(source.Phenomenon())
	tgtPhen := refFullName(target.Phenomenon())
	if !equalNames(d.rewriteQualifier(srcPhen), tgtPhen) {
		d.modify(source, "phenomenon", CodeConstantChanged, srcPhen, tgtPhen,
			&ecschema.ItemProps{Phenomenon: strPtr(srcPhen)})
	}
}

func constraintDelta(end string, props *ecschema.ConstraintProps) *ecschema.ItemProps {
	if end == "source" {
		return &ecschema.ItemProps{Source: props}
	}
	return &ecschema.ItemProps{Target: props}
}

func refFullName(ref *ecschema.ItemRef) string {
	if ref == nil {
		return ""
	}
	return ref.FullName()
}

func hasRefNamed(refs []*ecschema.ItemRef, fullName string) bool {
	for _, ref := range refs {
		if equalNames(ref.FullName(), fullName) {
			return true
		}
	}
	return false
}

func hasRewrittenRefNamed(refs []*ecschema.ItemRef, fullName string, d *differ) bool {
	for _, ref := range refs {
		if equalNames(d.rewriteQualifier(ref.FullName()), fullName) {
			return true
		}
	}
	return false
}

func equalPropertyBags(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || fmt.Sprintf("%v", av) != fmt.Sprintf("%v", bv) {
			return false
		}
	}
	return true
}

func enumeratorEqual(a, b ecschema.Enumerator) bool {
	return fmt.Sprintf("%v", a.Value) == fmt.Sprintf("%v", b.Value) && a.Label == b.Label
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func strPtr(s string) *string     { return &s }
func intPtr(v int) *int           { return &v }
func boolPtr(v bool) *bool        { return &v }
func floatPtr(v float64) *float64 { return &v }
