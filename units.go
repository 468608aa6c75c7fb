package ecschema

import "context"

// Phenomenon names a measurable physical quantity kind, defined as an
// expression over other phenomena.
type Phenomenon struct {
	itemBase
	definition string
}

// NewPhenomenon creates a phenomenon in the schema.
func (s *Schema) NewPhenomenon(name, definition string) (*Phenomenon, error) {
	p := &Phenomenon{definition: definition}
	p.itemType = ItemPhenomenon
	p.name = name
	if err := s.addItem(p, &p.itemBase); err != nil {
		return nil, err
	}
	return p, nil
}

// Definition returns the phenomenon's defining expression.
func (p *Phenomenon) Definition() string { return p.definition }

// SetDefinition sets the defining expression.
func (p *Phenomenon) SetDefinition(d string) { p.definition = d }

// UnitSystem groups units, e.g. SI or imperial.
type UnitSystem struct {
	itemBase
}

// NewUnitSystem creates a unit system in the schema.
func (s *Schema) NewUnitSystem(name string) (*UnitSystem, error) {
	u := &UnitSystem{}
	u.itemType = ItemUnitSystem
	u.name = name
	if err := s.addItem(u, &u.itemBase); err != nil {
		return nil, err
	}
	return u, nil
}

// Unit measures a phenomenon within a unit system, defined by an
// expression and a numerator/denominator/offset conversion.
type Unit struct {
	itemBase
	phenomenon  *ItemRef
	unitSystem  *ItemRef
	definition  string
	numerator   float64
	denominator float64
	offset      float64
}

// NewUnit creates a unit in the schema for the given phenomenon and
// unit system.
func (s *Schema) NewUnit(name string, phenomenon, unitSystem ItemKey, definition string) (*Unit, error) {
	u := &Unit{definition: definition, numerator: 1, denominator: 1}
	u.itemType = ItemUnit
	u.name = name
	if err := s.addItem(u, &u.itemBase); err != nil {
		return nil, err
	}
	u.phenomenon = NewItemRef(s, phenomenon)
	u.unitSystem = NewItemRef(s, unitSystem)
	return u, nil
}

// Phenomenon returns the measured phenomenon reference.
func (u *Unit) Phenomenon() *ItemRef { return u.phenomenon }

// UnitSystem returns the unit system reference.
func (u *Unit) UnitSystem() *ItemRef { return u.unitSystem }

// Definition returns the unit's defining expression.
func (u *Unit) Definition() string { return u.definition }

// SetDefinition sets the defining expression.
func (u *Unit) SetDefinition(d string) { u.definition = d }

// Numerator returns the conversion numerator.
func (u *Unit) Numerator() float64 { return u.numerator }

// SetNumerator sets the conversion numerator.
func (u *Unit) SetNumerator(v float64) { u.numerator = v }

// Denominator returns the conversion denominator.
func (u *Unit) Denominator() float64 { return u.denominator }

// SetDenominator sets the conversion denominator.
func (u *Unit) SetDenominator(v float64) { u.denominator = v }

// Offset returns the conversion offset.
func (u *Unit) Offset() float64 { return u.offset }

// SetOffset sets the conversion offset.
func (u *Unit) SetOffset(v float64) { u.offset = v }

// Constant is a dimensionless or phenomenon-bound numeric constant.
// Its definition, numerator, and denominator are treated as immutable
// once merged: the merge engine raises a hard conflict instead of
// overwriting them.
type Constant struct {
	itemBase
	phenomenon  *ItemRef
	definition  string
	numerator   float64
	denominator float64
}

// NewConstant creates a constant in the schema. Numerator and
// denominator default to 1.
func (s *Schema) NewConstant(name string, phenomenon ItemKey, definition string) (*Constant, error) {
	c := &Constant{definition: definition, numerator: 1, denominator: 1}
	c.itemType = ItemConstant
	c.name = name
	if err := s.addItem(c, &c.itemBase); err != nil {
		return nil, err
	}
	c.phenomenon = NewItemRef(s, phenomenon)
	return c, nil
}

// Phenomenon returns the phenomenon reference.
func (c *Constant) Phenomenon() *ItemRef { return c.phenomenon }

// SetPhenomenon replaces the phenomenon reference.
func (c *Constant) SetPhenomenon(key ItemKey) {
	c.phenomenon = NewItemRef(c.schema, key)
}

// ResolvePhenomenon resolves the phenomenon reference.
func (c *Constant) ResolvePhenomenon(ctx context.Context) (*Phenomenon, error) {
	return ResolveAs[*Phenomenon](ctx, c.phenomenon)
}

// Definition returns the constant's defining expression.
func (c *Constant) Definition() string { return c.definition }

// SetDefinition sets the defining expression.
func (c *Constant) SetDefinition(d string) { c.definition = d }

// Numerator returns the constant's numerator.
func (c *Constant) Numerator() float64 { return c.numerator }

// SetNumerator sets the constant's numerator.
func (c *Constant) SetNumerator(v float64) { c.numerator = v }

// Denominator returns the constant's denominator.
func (c *Constant) Denominator() float64 { return c.denominator }

// SetDenominator sets the constant's denominator.
func (c *Constant) SetDenominator(v float64) { c.denominator = v }

// Format describes how quantity values render.
type Format struct {
	itemBase
	formatType string
	precision  int
}

// NewFormat creates a format in the schema.
func (s *Schema) NewFormat(name, formatType string, precision int) (*Format, error) {
	f := &Format{formatType: formatType, precision: precision}
	f.itemType = ItemFormat
	f.name = name
	if err := s.addItem(f, &f.itemBase); err != nil {
		return nil, err
	}
	return f, nil
}

// FormatType returns the format type tag, e.g. "Decimal".
func (f *Format) FormatType() string { return f.formatType }

// SetFormatType sets the format type tag.
func (f *Format) SetFormatType(t string) { f.formatType = t }

// Precision returns the display precision.
func (f *Format) Precision() int { return f.precision }

// SetPrecision sets the display precision.
func (f *Format) SetPrecision(p int) { f.precision = p }

// KindOfQuantity ties properties to a persistence unit and measurement
// error.
type KindOfQuantity struct {
	itemBase
	persistenceUnit *ItemRef
	relativeError   float64
}

// NewKindOfQuantity creates a kind of quantity in the schema.
func (s *Schema) NewKindOfQuantity(name string, persistenceUnit ItemKey, relativeError float64) (*KindOfQuantity, error) {
	k := &KindOfQuantity{relativeError: relativeError}
	k.itemType = ItemKindOfQuantity
	k.name = name
	if err := s.addItem(k, &k.itemBase); err != nil {
		return nil, err
	}
	k.persistenceUnit = NewItemRef(s, persistenceUnit)
	return k, nil
}

// PersistenceUnit returns the persistence unit reference.
func (k *KindOfQuantity) PersistenceUnit() *ItemRef { return k.persistenceUnit }

// SetPersistenceUnit replaces the persistence unit reference.
func (k *KindOfQuantity) SetPersistenceUnit(key ItemKey) {
	k.persistenceUnit = NewItemRef(k.schema, key)
}

// RelativeError returns the measurement error bound.
func (k *KindOfQuantity) RelativeError() float64 { return k.relativeError }

// SetRelativeError sets the measurement error bound.
func (k *KindOfQuantity) SetRelativeError(v float64) { k.relativeError = v }

// PropertyCategory groups properties for presentation priority.
type PropertyCategory struct {
	itemBase
	priority int
}

// NewPropertyCategory creates a property category in the schema.
func (s *Schema) NewPropertyCategory(name string, priority int) (*PropertyCategory, error) {
	p := &PropertyCategory{priority: priority}
	p.itemType = ItemPropertyCategory
	p.name = name
	if err := s.addItem(p, &p.itemBase); err != nil {
		return nil, err
	}
	return p, nil
}

// Priority returns the category priority.
func (p *PropertyCategory) Priority() int { return p.priority }

// SetPriority sets the category priority.
func (p *PropertyCategory) SetPriority(v int) { p.priority = v }
