package diff

import (
	"fmt"
	"strconv"

	"github.com/gobim/ecschema"
)

// compareProperties diffs the classes' own declared properties by
// case-insensitive name. Inherited properties are the base class's to
// report; diffing them here would duplicate every delta down the
// hierarchy.
func (d *differ) compareProperties(source, target ecschema.Class) error {
	for prop := range source.Properties() {
		existing, ok := target.Property(prop.Name())
		if !ok {
			if err := d.addProperty(source, prop); err != nil {
				return err
			}
			continue
		}
		if prop.Kind() != existing.Kind() {
			// A kind change is a different property wearing the
			// same name: replace it rather than patch fields.
			d.removeProperty(target, existing)
			if err := d.addProperty(source, prop); err != nil {
				return err
			}
			continue
		}
		if err := d.compareProperty(source, prop, existing); err != nil {
			return err
		}
	}
	for prop := range target.Properties() {
		if _, ok := source.Property(prop.Name()); !ok {
			d.removeProperty(target, prop)
		}
	}
	return nil
}

func (d *differ) addProperty(class ecschema.Class, prop *ecschema.Property) error {
	props, err := ecschema.PropertyPropsOf(prop)
	if err != nil {
		return fmt.Errorf("serialize %s.%s: %w", class.FullName(), prop.Name(), err)
	}
	d.record(Record{
		Change:     ChangeAdd,
		SchemaType: class.Type().String(),
		ItemName:   class.Name(),
		Path:       "properties." + prop.Name(),
		Difference: &ecschema.ItemProps{Properties: []ecschema.PropertyProps{props}},
	})
	return nil
}

func (d *differ) removeProperty(class ecschema.Class, prop *ecschema.Property) {
	d.record(Record{
		Change:     ChangeRemove,
		SchemaType: class.Type().String(),
		ItemName:   class.Name(),
		Path:       "properties." + prop.Name(),
	})
}

func (d *differ) compareProperty(class ecschema.Class, source, target *ecschema.Property) error {
	path := "properties." + source.Name() + "."
	delta := func(pp ecschema.PropertyProps) *ecschema.ItemProps {
		pp.Name = source.Name()
		pp.Kind = source.Kind().String()
		return &ecschema.ItemProps{Properties: []ecschema.PropertyProps{pp}}
	}

	srcType, err := source.TypeFullName()
	if err != nil {
		return fmt.Errorf("serialize %s.%s: %w", class.FullName(), source.Name(), err)
	}
	tgtType, err := target.TypeFullName()
	if err != nil {
		return fmt.Errorf("serialize %s.%s: %w", class.FullName(), target.Name(), err)
	}
	if !equalNames(d.rewriteQualifier(srcType), tgtType) {
		d.modify(class, path+"typeName", CodePropertyChanged, srcType, tgtType,
			delta(ecschema.PropertyProps{TypeName: srcType}))
	}
	if source.Label() != target.Label() {
		d.modify(class, path+"label", CodePropertyChanged, source.Label(), target.Label(),
			delta(ecschema.PropertyProps{Label: strPtr(source.Label())}))
	}
	if source.Description() != target.Description() {
		d.modify(class, path+"description", CodePropertyChanged, source.Description(), target.Description(),
			delta(ecschema.PropertyProps{Description: strPtr(source.Description())}))
	}
	if source.IsReadOnly() != target.IsReadOnly() {
		d.modify(class, path+"isReadOnly", CodePropertyChanged,
			strconv.FormatBool(source.IsReadOnly()), strconv.FormatBool(target.IsReadOnly()),
			delta(ecschema.PropertyProps{IsReadOnly: boolPtr(source.IsReadOnly())}))
	}
	if source.Priority() != target.Priority() {
		d.modify(class, path+"priority", CodePropertyChanged,
			strconv.Itoa(source.Priority()), strconv.Itoa(target.Priority()),
			delta(ecschema.PropertyProps{Priority: intPtr(source.Priority())}))
	}
	if source.Kind().IsArray() {
		if source.MinOccurs() != target.MinOccurs() {
			d.modify(class, path+"minOccurs", CodePropertyChanged,
				strconv.Itoa(source.MinOccurs()), strconv.Itoa(target.MinOccurs()),
				delta(ecschema.PropertyProps{MinOccurs: intPtr(source.MinOccurs())}))
		}
		if source.MaxOccurs() != target.MaxOccurs() {
			d.modify(class, path+"maxOccurs", CodePropertyChanged,
				formatOccurs(source.MaxOccurs()), formatOccurs(target.MaxOccurs()),
				delta(ecschema.PropertyProps{MaxOccurs: intPtr(source.MaxOccurs())}))
		}
	}
	if source.Kind() == ecschema.PropertyNavigation && source.Direction() != target.Direction() {
		d.modify(class, path+"direction", CodePropertyChanged,
			source.Direction().String(), target.Direction().String(),
			delta(ecschema.PropertyProps{Direction: strPtr(source.Direction().String())}))
	}
	srcCategory := refFullName(source.Category())
	tgtCategory := refFullName(target.Category())
	if !equalNames(d.rewriteQualifier(srcCategory), tgtCategory) {
		d.modify(class, path+"category", CodePropertyChanged, srcCategory, tgtCategory,
			delta(ecschema.PropertyProps{Category: strPtr(srcCategory)}))
	}
	srcKoq := refFullName(source.KindOfQuantity())
	tgtKoq := refFullName(target.KindOfQuantity())
	if !equalNames(d.rewriteQualifier(srcKoq), tgtKoq) {
		d.modify(class, path+"kindOfQuantity", CodePropertyChanged, srcKoq, tgtKoq,
			delta(ecschema.PropertyProps{KindOfQuantity: strPtr(srcKoq)}))
	}
	d.compareCustomAttributes(class, source.CustomAttributes(), target.CustomAttributes(), path)
	return nil
}

func formatOccurs(v int) string {
	if v == ecschema.UnboundedOccurs {
		return "unbounded"
	}
	return strconv.Itoa(v)
}
