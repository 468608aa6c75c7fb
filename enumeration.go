package ecschema

import "fmt"

// Enumerator is one named value of an enumeration. Value holds an int
// or a string matching the enumeration's backing type.
type Enumerator struct {
	Name  string
	Value any
	Label string
}

// Enumeration is a closed set of named primitive values backed by
// either the integer or the string primitive type.
type Enumeration struct {
	itemBase
	backing     PrimitiveType
	isStrict    bool
	enumerators []Enumerator
}

// NewEnumeration creates an enumeration in the schema. Only integer and
// string backing types are valid.
func (s *Schema) NewEnumeration(name string, backing PrimitiveType) (*Enumeration, error) {
	if backing != PrimitiveInteger && backing != PrimitiveString {
		return nil, fmt.Errorf("enumeration %s: backing type must be int or string, got %s", name, backing)
	}
	e := &Enumeration{backing: backing, isStrict: true}
	e.itemType = ItemEnumeration
	e.name = name
	if err := s.addItem(e, &e.itemBase); err != nil {
		return nil, err
	}
	return e, nil
}

// Backing returns the backing primitive type.
func (e *Enumeration) Backing() PrimitiveType { return e.backing }

// IsStrict reports whether values outside the enumerator set are
// rejected.
func (e *Enumeration) IsStrict() bool { return e.isStrict }

// SetIsStrict sets the strictness flag.
func (e *Enumeration) SetIsStrict(v bool) { e.isStrict = v }

// Enumerators returns the ordered enumerator list.
func (e *Enumeration) Enumerators() []Enumerator { return e.enumerators }

// Enumerator returns the enumerator of the given name, ignoring case.
func (e *Enumeration) Enumerator(name string) (Enumerator, bool) {
	for _, en := range e.enumerators {
		if sameName(en.Name, name) {
			return en, true
		}
	}
	return Enumerator{}, false
}

// HasValue reports whether some enumerator carries the value.
func (e *Enumeration) HasValue(value any) bool {
	for _, en := range e.enumerators {
		if enumeratorValueEqual(en.Value, value) {
			return true
		}
	}
	return false
}

// AddEnumerator appends an enumerator. Duplicate names and duplicate
// values are rejected, and the value must match the backing type.
func (e *Enumeration) AddEnumerator(en Enumerator) error {
	if !isValidName(en.Name) {
		return fmt.Errorf("enumerator name %q: %w", en.Name, ErrInvalidName)
	}
	if !e.valueMatchesBacking(en.Value) {
		return fmt.Errorf("enumerator %s: value %v does not match backing type %s", en.Name, en.Value, e.backing)
	}
	if _, exists := e.Enumerator(en.Name); exists {
		return fmt.Errorf("enumerator %s on %s: %w", en.Name, e.FullName(), ErrDuplicateItem)
	}
	if e.HasValue(en.Value) {
		return fmt.Errorf("enumerator %s on %s: duplicate value %v", en.Name, e.FullName(), en.Value)
	}
	e.enumerators = append(e.enumerators, en)
	return nil
}

// PutEnumerator adds the enumerator, or replaces the one sharing its
// name. The replacement value must still be unique among the others.
func (e *Enumeration) PutEnumerator(en Enumerator) error {
	if !isValidName(en.Name) {
		return fmt.Errorf("enumerator name %q: %w", en.Name, ErrInvalidName)
	}
	if !e.valueMatchesBacking(en.Value) {
		return fmt.Errorf("enumerator %s: value %v does not match backing type %s", en.Name, en.Value, e.backing)
	}
	for i, existing := range e.enumerators {
		if sameName(existing.Name, en.Name) {
			for _, other := range e.enumerators {
				if !sameName(other.Name, en.Name) && enumeratorValueEqual(other.Value, en.Value) {
					return fmt.Errorf("enumerator %s on %s: duplicate value %v", en.Name, e.FullName(), en.Value)
				}
			}
			e.enumerators[i] = en
			return nil
		}
	}
	return e.AddEnumerator(en)
}

// RemoveEnumerator drops the named enumerator, ignoring case. It
// reports whether one was removed.
func (e *Enumeration) RemoveEnumerator(name string) bool {
	for i, en := range e.enumerators {
		if sameName(en.Name, name) {
			e.enumerators = append(e.enumerators[:i], e.enumerators[i+1:]...)
			return true
		}
	}
	return false
}

func (e *Enumeration) valueMatchesBacking(value any) bool {
	switch value.(type) {
	case int, int32, int64:
		return e.backing == PrimitiveInteger
	case float64:
		// JSON decodes integer enumerator values as float64.
		_, ok := enumeratorInt(value)
		return ok && e.backing == PrimitiveInteger
	case string:
		return e.backing == PrimitiveString
	default:
		return false
	}
}

func enumeratorValueEqual(a, b any) bool {
	ai, aok := enumeratorInt(a)
	bi, bok := enumeratorInt(b)
	if aok && bok {
		return ai == bi
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	return aok && bok && as == bs
}

func enumeratorInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		// JSON round-trips integer values as float64.
		if n == float64(int64(n)) {
			return int64(n), true
		}
		return 0, false
	default:
		return 0, false
	}
}
