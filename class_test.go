package ecschema

import (
	"context"
	"errors"
	"testing"
)

func TestClassIsWalksBaseChainAndMixins(t *testing.T) {
	sc := NewSchemaContext()
	s, err := NewSchema(sc, NewSchemaKey("Training", 1, 0, 0), "tr")
	if err != nil {
		t.Fatalf("NewSchema() error: %v", err)
	}
	element, err := s.NewEntityClass("Element")
	if err != nil {
		t.Fatalf("NewEntityClass(Element) error: %v", err)
	}
	physical, err := s.NewEntityClass("PhysicalElement")
	if err != nil {
		t.Fatalf("NewEntityClass(PhysicalElement) error: %v", err)
	}
	physical.SetBase(BoundItemRef(element))
	marker, err := s.NewMixin("IMarker", element.Key())
	if err != nil {
		t.Fatalf("NewMixin() error: %v", err)
	}
	physical.AddMixin(marker.Key())

	ctx := context.Background()
	tests := []struct {
		name  string
		other Item
		want  bool
	}{
		{name: "self", other: physical, want: true},
		{name: "base", other: element, want: true},
		{name: "mixin", other: marker, want: true},
		{name: "unrelated", other: mustEntity(t, s, "Unrelated"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := physical.Is(ctx, tt.other)
			if err != nil {
				t.Fatalf("Is(%s) error: %v", tt.other.Name(), err)
			}
			if got != tt.want {
				t.Fatalf("Is(%s) = %v, want %v", tt.other.Name(), got, tt.want)
			}
		})
	}
}

func mustEntity(t *testing.T, s *Schema, name string) *EntityClass {
	t.Helper()
	c, err := s.NewEntityClass(name)
	if err != nil {
		t.Fatalf("NewEntityClass(%s) error: %v", name, err)
	}
	return c
}

func TestDuplicatePropertyRejectedBothDirections(t *testing.T) {
	sc := NewSchemaContext()
	s, err := NewSchema(sc, NewSchemaKey("Training", 1, 0, 0), "tr")
	if err != nil {
		t.Fatalf("NewSchema() error: %v", err)
	}
	c := mustEntity(t, s, "Pipe")
	if _, err := c.NewPrimitiveProperty("Diameter", PrimitiveDouble); err != nil {
		t.Fatalf("NewPrimitiveProperty() error: %v", err)
	}
	if _, err := c.NewPrimitiveProperty("diameter", PrimitiveString); !errors.Is(err, ErrDuplicateProperty) {
		t.Fatalf("NewPrimitiveProperty(diameter) error = %v, want ErrDuplicateProperty", err)
	}
	if _, err := c.NewStructProperty("DIAMETER", NewItemKey("Specs", s.Key())); !errors.Is(err, ErrDuplicateProperty) {
		t.Fatalf("NewStructProperty(DIAMETER) error = %v, want ErrDuplicateProperty", err)
	}
}

func TestOwnPropertyMayShadowInherited(t *testing.T) {
	sc := NewSchemaContext()
	s, err := NewSchema(sc, NewSchemaKey("Training", 1, 0, 0), "tr")
	if err != nil {
		t.Fatalf("NewSchema() error: %v", err)
	}
	base := mustEntity(t, s, "Element")
	if _, err := base.NewPrimitiveProperty("Code", PrimitiveString); err != nil {
		t.Fatalf("NewPrimitiveProperty(base Code) error: %v", err)
	}
	derived := mustEntity(t, s, "PhysicalElement")
	derived.SetBase(BoundItemRef(base))
	if _, err := derived.NewPrimitiveProperty("Code", PrimitiveInteger); err != nil {
		t.Fatalf("NewPrimitiveProperty(shadowing Code) error: %v", err)
	}

	ctx := context.Background()
	found, err := derived.FindProperty(ctx, "code")
	if err != nil {
		t.Fatalf("FindProperty() error: %v", err)
	}
	if found.Primitive() != PrimitiveInteger {
		t.Fatalf("FindProperty() resolved %s, want the shadowing declaration", found.Primitive())
	}
	all, err := derived.AllProperties(ctx)
	if err != nil {
		t.Fatalf("AllProperties() error: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("AllProperties() returned %d properties, want 1 (shadowed name collapses)", len(all))
	}
}

func TestFindPropertyWalksBaseChain(t *testing.T) {
	sc := NewSchemaContext()
	s, err := NewSchema(sc, NewSchemaKey("Training", 1, 0, 0), "tr")
	if err != nil {
		t.Fatalf("NewSchema() error: %v", err)
	}
	base := mustEntity(t, s, "Element")
	if _, err := base.NewPrimitiveProperty("Code", PrimitiveString); err != nil {
		t.Fatalf("NewPrimitiveProperty() error: %v", err)
	}
	derived := mustEntity(t, s, "PhysicalElement")
	derived.SetBase(BoundItemRef(base))

	ctx := context.Background()
	if _, err := derived.FindProperty(ctx, "Code"); err != nil {
		t.Fatalf("FindProperty(Code) error: %v", err)
	}
	if _, err := derived.FindProperty(ctx, "Nope"); !errors.Is(err, ErrPropertyNotFound) {
		t.Fatalf("FindProperty(Nope) error = %v, want ErrPropertyNotFound", err)
	}
}

func TestNavigationPropertyRejectedOnStructAndCustomAttributeClasses(t *testing.T) {
	sc := NewSchemaContext()
	s, err := NewSchema(sc, NewSchemaKey("Training", 1, 0, 0), "tr")
	if err != nil {
		t.Fatalf("NewSchema() error: %v", err)
	}
	rel, err := s.NewRelationshipClass("Owns", StrengthReferencing, DirectionForward)
	if err != nil {
		t.Fatalf("NewRelationshipClass() error: %v", err)
	}
	st, err := s.NewStructClass("Specs")
	if err != nil {
		t.Fatalf("NewStructClass() error: %v", err)
	}
	if _, err := st.NewNavigationProperty("Owner", rel.Key(), DirectionForward); err == nil {
		t.Fatal("NewNavigationProperty() on struct class succeeded, want error")
	}
	ca, err := s.NewCustomAttributeClass("Hidden", ContainerAny)
	if err != nil {
		t.Fatalf("NewCustomAttributeClass() error: %v", err)
	}
	if _, err := ca.NewNavigationProperty("Owner", rel.Key(), DirectionForward); err == nil {
		t.Fatal("NewNavigationProperty() on custom attribute class succeeded, want error")
	}
}

func TestParseClassModifier(t *testing.T) {
	tests := []struct {
		input string
		want  ClassModifier
		ok    bool
	}{
		{input: "None", want: ModifierNone, ok: true},
		{input: "Abstract", want: ModifierAbstract, ok: true},
		{input: "Sealed", want: ModifierSealed, ok: true},
		{input: "Virtual", ok: false},
	}
	for _, tt := range tests {
		got, ok := ParseClassModifier(tt.input)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Fatalf("ParseClassModifier(%q) = (%v, %v), want (%v, %v)", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}
