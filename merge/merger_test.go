package merge

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gobim/ecschema"
	"github.com/gobim/ecschema/diff"
)

func newTarget(t *testing.T, sc *ecschema.SchemaContext, name string) *ecschema.Schema {
	t.Helper()
	s, err := ecschema.NewSchema(sc, ecschema.NewSchemaKey(name, 1, 0, 0), strings.ToLower(name[:1]))
	if err != nil {
		t.Fatalf("NewSchema(%s) error: %v", name, err)
	}
	return s
}

// buildSourceSchema assembles a schema touching most item variants so a
// diff against an empty schema produces one add record per item.
func buildSourceSchema(t *testing.T, sc *ecschema.SchemaContext) *ecschema.Schema {
	t.Helper()
	s := newTarget(t, sc, "Piping")

	base, err := s.NewEntityClass("Component")
	if err != nil {
		t.Fatalf("NewEntityClass(Component) error: %v", err)
	}
	specs, err := s.NewStructClass("Specs")
	if err != nil {
		t.Fatalf("NewStructClass(Specs) error: %v", err)
	}
	status, err := s.NewEnumeration("Status", ecschema.PrimitiveInteger)
	if err != nil {
		t.Fatalf("NewEnumeration(Status) error: %v", err)
	}
	status.SetIsStrict(false)
	if err := status.AddEnumerator(ecschema.Enumerator{Name: "Open", Value: 1}); err != nil {
		t.Fatalf("AddEnumerator(Open) error: %v", err)
	}
	if err := status.AddEnumerator(ecschema.Enumerator{Name: "Closed", Value: 2}); err != nil {
		t.Fatalf("AddEnumerator(Closed) error: %v", err)
	}

	pipe, err := s.NewEntityClass("Pipe")
	if err != nil {
		t.Fatalf("NewEntityClass(Pipe) error: %v", err)
	}
	pipe.SetBase(ecschema.NewItemRef(s, base.Key()))
	pipe.SetLabel("Pipe Segment")
	diameter, err := pipe.NewPrimitiveProperty("Diameter", ecschema.PrimitiveDouble)
	if err != nil {
		t.Fatalf("NewPrimitiveProperty(Diameter) error: %v", err)
	}
	diameter.SetIsReadOnly(true)
	diameter.SetPriority(2)
	if _, err := pipe.NewStructProperty("Spec", specs.Key()); err != nil {
		t.Fatalf("NewStructProperty(Spec) error: %v", err)
	}
	if _, err := pipe.NewEnumerationProperty("State", status.Key()); err != nil {
		t.Fatalf("NewEnumerationProperty(State) error: %v", err)
	}

	phen, err := s.NewPhenomenon("Length", "LENGTH(1)")
	if err != nil {
		t.Fatalf("NewPhenomenon(Length) error: %v", err)
	}
	system, err := s.NewUnitSystem("Metric")
	if err != nil {
		t.Fatalf("NewUnitSystem(Metric) error: %v", err)
	}
	if _, err := s.NewUnit("M", phen.Key(), system.Key(), "M"); err != nil {
		t.Fatalf("NewUnit(M) error: %v", err)
	}
	pi, err := s.NewConstant("Pi", phen.Key(), "ONE")
	if err != nil {
		t.Fatalf("NewConstant(Pi) error: %v", err)
	}
	pi.SetNumerator(3.14)

	owns, err := s.NewRelationshipClass("Owns", ecschema.StrengthHolding, ecschema.DirectionForward)
	if err != nil {
		t.Fatalf("NewRelationshipClass(Owns) error: %v", err)
	}
	owns.Source().AddConstraintClass(pipe.Key())
	owns.Source().SetRoleLabel("owns")
	owns.Target().AddConstraintClass(base.Key())
	return s
}

func TestMergeRoundTrip(t *testing.T) {
	sc := ecschema.NewSchemaContext()
	source := buildSourceSchema(t, sc)
	target := newTarget(t, sc, "Design")
	ctx := context.Background()

	changes, err := diff.Compare(ctx, source, target)
	if err != nil {
		t.Fatalf("Compare() error: %v", err)
	}
	if err := New(sc).Merge(ctx, target, changes); err != nil {
		t.Fatalf("Merge() error: %v", err)
	}

	after, err := diff.Compare(ctx, source, target)
	if err != nil {
		t.Fatalf("Compare() after merge error: %v", err)
	}
	if !after.IsEmpty() {
		t.Fatalf("after merge Records = %+v, want none", after.Records)
	}

	// References the changes carried as Piping.* must land on Design.*.
	pipe, ok := target.Item("Pipe")
	if !ok {
		t.Fatalf("Item(Pipe) missing after merge")
	}
	cls := pipe.(*ecschema.EntityClass)
	if cls.Base() == nil || cls.Base().FullName() != "Design.Component" {
		t.Fatalf("Pipe base = %v, want Design.Component", cls.Base())
	}
	spec, ok := cls.Property("Spec")
	if !ok {
		t.Fatalf("Property(Spec) missing after merge")
	}
	typeName, err := spec.TypeFullName()
	if err != nil {
		t.Fatalf("TypeFullName() error: %v", err)
	}
	if typeName != "Design.Specs" {
		t.Fatalf("Spec type = %q, want Design.Specs", typeName)
	}
}

func TestMergeConvergesOnMixinsAndCustomAttributes(t *testing.T) {
	sc := ecschema.NewSchemaContext()
	source := newTarget(t, sc, "Piping")
	component, _ := source.NewEntityClass("Component")
	mixin, err := source.NewMixin("ITagged", component.Key())
	if err != nil {
		t.Fatalf("NewMixin() error: %v", err)
	}
	if _, err := source.NewCustomAttributeClass("Hidden", ecschema.ContainerAnyClass); err != nil {
		t.Fatalf("NewCustomAttributeClass() error: %v", err)
	}
	pipe, _ := source.NewEntityClass("Pipe")
	pipe.AddMixin(mixin.Key())
	pipe.CustomAttributes().Add(ecschema.CustomAttribute{
		ClassName:  "Piping.Hidden",
		Properties: map[string]any{"Reason": "legacy"},
	})

	target := newTarget(t, sc, "Design")
	ctx := context.Background()
	changes, err := diff.Compare(ctx, source, target)
	if err != nil {
		t.Fatalf("Compare() error: %v", err)
	}
	if err := New(sc).Merge(ctx, target, changes); err != nil {
		t.Fatalf("Merge() error: %v", err)
	}

	// The merged membership and attribute are target-qualified; the only
	// residual delta is the mixin's applies-to target, which compares by
	// raw full name.
	again, err := diff.Compare(ctx, source, target)
	if err != nil {
		t.Fatalf("Compare() after merge error: %v", err)
	}
	if len(again.Records) != 1 || again.Records[0].Code != diff.CodeMixinAppliesToChanged {
		t.Fatalf("second compare Records = %+v, want only the appliesTo delta", again.Records)
	}
	for r := range again.ForItem("Pipe") {
		t.Fatalf("unexpected record %+v for the merged entity", r)
	}

	// Replaying the residue must not strip the merged members.
	if err := New(sc).Merge(ctx, target, again); err != nil {
		t.Fatalf("Merge() of residue error: %v", err)
	}
	merged, _ := target.Item("Pipe")
	cls := merged.(*ecschema.EntityClass)
	if len(cls.Mixins()) != 1 || cls.Mixins()[0].FullName() != "Design.ITagged" {
		t.Fatalf("Mixins() = %v, want exactly Design.ITagged", cls.Mixins())
	}
	if !cls.CustomAttributes().Has("Design.Hidden") {
		t.Fatalf("custom attributes = %d entries without Design.Hidden, want it present", cls.CustomAttributes().Len())
	}
}

func TestMergeConstantConflict(t *testing.T) {
	sc := ecschema.NewSchemaContext()
	source := newTarget(t, sc, "Piping")
	target := newTarget(t, sc, "Design")
	sPhen, _ := source.NewPhenomenon("Length", "LENGTH(1)")
	tPhen, _ := target.NewPhenomenon("Length", "LENGTH(1)")
	sConst, _ := source.NewConstant("Pi", sPhen.Key(), "ONE")
	tConst, _ := target.NewConstant("Pi", tPhen.Key(), "ONE")
	sConst.SetDenominator(5.1)
	tConst.SetDenominator(4.2)

	ctx := context.Background()
	changes, err := diff.Compare(ctx, source, target)
	if err != nil {
		t.Fatalf("Compare() error: %v", err)
	}
	err = New(sc).Merge(ctx, target, changes)
	if err == nil {
		t.Fatalf("Merge() = nil, want a constant conflict")
	}
	if got, want := err.Error(), "Failed to merged, constant denominator conflict: 5.1 -> 4.2"; got != want {
		t.Fatalf("Merge() error = %q, want %q", got, want)
	}
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("Merge() error = %v, want a *ConflictError in the chain", err)
	}
	if conflict.Kind != "constant" || conflict.Field != "denominator" {
		t.Fatalf("conflict = %+v, want constant/denominator", conflict)
	}
	// The target keeps its own value.
	if tConst.Denominator() != 4.2 {
		t.Fatalf("target denominator = %v, want 4.2 untouched", tConst.Denominator())
	}
}

func TestMergeConstantEqualValueIsNoOp(t *testing.T) {
	sc := ecschema.NewSchemaContext()
	target := newTarget(t, sc, "Design")
	phen, _ := target.NewPhenomenon("Length", "LENGTH(1)")
	pi, _ := target.NewConstant("Pi", phen.Key(), "ONE")
	pi.SetNumerator(3.14)

	if _, err := target.NewPhenomenon("Angle", "ANGLE(1)"); err != nil {
		t.Fatalf("NewPhenomenon(Angle) error: %v", err)
	}

	// An equal numerator is not a conflict, and the phenomenon change
	// riding the same record still applies.
	num := 3.14
	angle := "Design.Angle"
	changes := &diff.Changes{
		Source: ecschema.NewSchemaKey("Piping", 1, 0, 0),
		Target: target.Key(),
		Records: []diff.Record{{
			Change:     diff.ChangeModify,
			SchemaType: "Constant",
			ItemName:   "Pi",
			Difference: &ecschema.ItemProps{Numerator: &num, Phenomenon: &angle},
		}},
	}
	if err := New(sc).Merge(context.Background(), target, changes); err != nil {
		t.Fatalf("Merge() error = %v, want nil for an equal value", err)
	}
	if got := pi.Phenomenon().FullName(); got != "Design.Angle" {
		t.Fatalf("phenomenon = %q, want Design.Angle applied", got)
	}
}

func TestMergeNotAtomic(t *testing.T) {
	sc := ecschema.NewSchemaContext()
	target := newTarget(t, sc, "Design")
	changes := &diff.Changes{
		Source: ecschema.NewSchemaKey("Piping", 1, 0, 0),
		Target: target.Key(),
		Records: []diff.Record{
			{
				Change:     diff.ChangeAdd,
				SchemaType: "EntityClass",
				ItemName:   "Widget",
				Difference: &ecschema.ItemProps{},
			},
			{
				Change:     diff.ChangeModify,
				SchemaType: "EntityClass",
				ItemName:   "Ghost",
				Difference: &ecschema.ItemProps{},
			},
		},
	}
	err := New(sc).Merge(context.Background(), target, changes)
	if !errors.Is(err, ecschema.ErrItemNotFound) {
		t.Fatalf("Merge() error = %v, want ErrItemNotFound", err)
	}
	if _, ok := target.Item("Widget"); !ok {
		t.Fatalf("Item(Widget) missing, want records before the failure applied")
	}
}

func TestMergeAddOrderIndependence(t *testing.T) {
	sc := ecschema.NewSchemaContext()
	target := newTarget(t, sc, "Design")
	// The class referencing Piping.Specs arrives before the struct it
	// references; the rewrite must still land on Design.Specs.
	changes := &diff.Changes{
		Source: ecschema.NewSchemaKey("Piping", 1, 0, 0),
		Target: target.Key(),
		Records: []diff.Record{
			{
				Change:     diff.ChangeAdd,
				SchemaType: "EntityClass",
				ItemName:   "Pipe",
				Difference: &ecschema.ItemProps{
					Properties: []ecschema.PropertyProps{{
						Name:     "Spec",
						Kind:     "StructProperty",
						TypeName: "Piping.Specs",
					}},
				},
			},
			{
				Change:     diff.ChangeAdd,
				SchemaType: "StructClass",
				ItemName:   "Specs",
				Difference: &ecschema.ItemProps{},
			},
		},
	}
	if err := New(sc).Merge(context.Background(), target, changes); err != nil {
		t.Fatalf("Merge() error: %v", err)
	}
	pipe, _ := target.Item("Pipe")
	prop, ok := pipe.(*ecschema.EntityClass).Property("Spec")
	if !ok {
		t.Fatalf("Property(Spec) missing after merge")
	}
	typeName, err := prop.TypeFullName()
	if err != nil {
		t.Fatalf("TypeFullName() error: %v", err)
	}
	if typeName != "Design.Specs" {
		t.Fatalf("Spec type = %q, want Design.Specs", typeName)
	}
}

func TestMergeStructChainOrderPermutations(t *testing.T) {
	// outer -> middle -> allocation: every permutation of the three add
	// records must produce the same rewritten graph.
	structAdd := func(name, propName, typeName string) diff.Record {
		r := diff.Record{
			Change:     diff.ChangeAdd,
			SchemaType: "StructClass",
			ItemName:   name,
			Difference: &ecschema.ItemProps{},
		}
		if propName != "" {
			r.Difference.Properties = []ecschema.PropertyProps{{
				Name:     propName,
				Kind:     "StructProperty",
				TypeName: typeName,
			}}
		}
		return r
	}
	records := []diff.Record{
		structAdd("allocation", "", ""),
		structAdd("middle", "Alloc", "Piping.allocation"),
		structAdd("outer", "Mid", "Piping.middle"),
	}
	perms := [][3]int{
		{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
	}
	for _, perm := range perms {
		sc := ecschema.NewSchemaContext()
		target := newTarget(t, sc, "Design")
		changes := &diff.Changes{
			Source:  ecschema.NewSchemaKey("Piping", 1, 0, 0),
			Target:  target.Key(),
			Records: []diff.Record{records[perm[0]], records[perm[1]], records[perm[2]]},
		}
		if err := New(sc).Merge(context.Background(), target, changes); err != nil {
			t.Fatalf("Merge() order %v error: %v", perm, err)
		}
		for _, check := range []struct{ class, prop, want string }{
			{"middle", "Alloc", "Design.allocation"},
			{"outer", "Mid", "Design.middle"},
		} {
			item, ok := target.Item(check.class)
			if !ok {
				t.Fatalf("order %v: Item(%s) missing", perm, check.class)
			}
			prop, ok := item.(*ecschema.StructClass).Property(check.prop)
			if !ok {
				t.Fatalf("order %v: Property(%s) missing on %s", perm, check.prop, check.class)
			}
			typeName, err := prop.TypeFullName()
			if err != nil {
				t.Fatalf("order %v: TypeFullName() error: %v", perm, err)
			}
			if typeName != check.want {
				t.Fatalf("order %v: %s.%s type = %q, want %q", perm, check.class, check.prop, typeName, check.want)
			}
		}
	}
}

func TestMergeInjectsSchemaReference(t *testing.T) {
	sc := ecschema.NewSchemaContext()
	core := newTarget(t, sc, "CoreUnits")
	if _, err := core.NewPhenomenon("LENGTH", "LENGTH(1)"); err != nil {
		t.Fatalf("NewPhenomenon() error: %v", err)
	}
	target := newTarget(t, sc, "Design")

	phen := "CoreUnits.LENGTH"
	def := "ONE"
	changes := &diff.Changes{
		Source: ecschema.NewSchemaKey("Piping", 1, 0, 0),
		Target: target.Key(),
		Records: []diff.Record{{
			Change:     diff.ChangeAdd,
			SchemaType: "Constant",
			ItemName:   "Pi",
			Difference: &ecschema.ItemProps{Phenomenon: &phen, Definition: &def},
		}},
	}
	if err := New(sc).Merge(context.Background(), target, changes); err != nil {
		t.Fatalf("Merge() error: %v", err)
	}
	if !target.HasReference("CoreUnits") {
		t.Fatalf("HasReference(CoreUnits) = false, want the reference injected")
	}

	missing := "Nowhere.LENGTH"
	changes.Records[0].ItemName = "Tau"
	changes.Records[0].Difference = &ecschema.ItemProps{Phenomenon: &missing, Definition: &def}
	err := New(sc).Merge(context.Background(), target, changes)
	if !errors.Is(err, ecschema.ErrSchemaNotFound) {
		t.Fatalf("Merge() error = %v, want ErrSchemaNotFound", err)
	}
}

func TestMergeRemovePaths(t *testing.T) {
	sc := ecschema.NewSchemaContext()
	target := newTarget(t, sc, "Design")
	base, _ := target.NewEntityClass("Component")
	pipe, _ := target.NewEntityClass("Pipe")
	if _, err := pipe.NewPrimitiveProperty("Diameter", ecschema.PrimitiveDouble); err != nil {
		t.Fatalf("NewPrimitiveProperty() error: %v", err)
	}
	mixin, _ := target.NewMixin("ITagged", base.Key())
	pipe.AddMixin(mixin.Key())
	status, _ := target.NewEnumeration("Status", ecschema.PrimitiveInteger)
	if err := status.AddEnumerator(ecschema.Enumerator{Name: "Open", Value: 1}); err != nil {
		t.Fatalf("AddEnumerator() error: %v", err)
	}
	owns, _ := target.NewRelationshipClass("Owns", ecschema.StrengthReferencing, ecschema.DirectionForward)
	owns.Source().AddConstraintClass(pipe.Key())
	if _, err := target.NewStructClass("Obsolete"); err != nil {
		t.Fatalf("NewStructClass() error: %v", err)
	}

	changes := &diff.Changes{
		Source: ecschema.NewSchemaKey("Piping", 1, 0, 0),
		Target: target.Key(),
		Records: []diff.Record{
			{Change: diff.ChangeRemove, SchemaType: "EntityClass", ItemName: "Pipe", Path: "properties.Diameter"},
			{Change: diff.ChangeRemove, SchemaType: "EntityClass", ItemName: "Pipe", Path: "mixins.Design.ITagged"},
			{Change: diff.ChangeRemove, SchemaType: "Enumeration", ItemName: "Status", Path: "enumerators.Open"},
			{Change: diff.ChangeRemove, SchemaType: "RelationshipClass", ItemName: "Owns", Path: "source.constraintClasses.Design.Pipe"},
			{Change: diff.ChangeRemove, SchemaType: "StructClass", ItemName: "Obsolete"},
		},
	}
	if err := New(sc).Merge(context.Background(), target, changes); err != nil {
		t.Fatalf("Merge() error: %v", err)
	}
	if _, ok := pipe.Property("Diameter"); ok {
		t.Fatalf("Property(Diameter) still present after remove")
	}
	if len(pipe.Mixins()) != 0 {
		t.Fatalf("Mixins() = %v, want empty", pipe.Mixins())
	}
	if _, ok := status.Enumerator("Open"); ok {
		t.Fatalf("Enumerator(Open) still present after remove")
	}
	if len(owns.Source().ConstraintClasses()) != 0 {
		t.Fatalf("ConstraintClasses() = %v, want empty", owns.Source().ConstraintClasses())
	}
	if _, ok := target.Item("Obsolete"); ok {
		t.Fatalf("Item(Obsolete) still present after remove")
	}
}

func TestMergePropertyTypeChangeRebuilds(t *testing.T) {
	sc := ecschema.NewSchemaContext()
	target := newTarget(t, sc, "Design")
	pipe, _ := target.NewEntityClass("Pipe")
	prop, err := pipe.NewPrimitiveProperty("Diameter", ecschema.PrimitiveDouble)
	if err != nil {
		t.Fatalf("NewPrimitiveProperty() error: %v", err)
	}
	prop.SetLabel("Bore")
	prop.SetIsReadOnly(true)

	changes := &diff.Changes{
		Source: ecschema.NewSchemaKey("Piping", 1, 0, 0),
		Target: target.Key(),
		Records: []diff.Record{{
			Change:     diff.ChangeModify,
			SchemaType: "EntityClass",
			ItemName:   "Pipe",
			Difference: &ecschema.ItemProps{
				Properties: []ecschema.PropertyProps{{
					Name:     "Diameter",
					Kind:     "PrimitiveProperty",
					TypeName: "string",
				}},
			},
		}},
	}
	if err := New(sc).Merge(context.Background(), target, changes); err != nil {
		t.Fatalf("Merge() error: %v", err)
	}
	rebuilt, ok := pipe.Property("Diameter")
	if !ok {
		t.Fatalf("Property(Diameter) missing after rebuild")
	}
	typeName, err := rebuilt.TypeFullName()
	if err != nil {
		t.Fatalf("TypeFullName() error: %v", err)
	}
	if typeName != "string" {
		t.Fatalf("type = %q, want string", typeName)
	}
	if rebuilt.Label() != "Bore" || !rebuilt.IsReadOnly() {
		t.Fatalf("label/isReadOnly = %q/%v, want carried over from the old declaration", rebuilt.Label(), rebuilt.IsReadOnly())
	}
}

func TestMergeUnitFamilyModifies(t *testing.T) {
	sc := ecschema.NewSchemaContext()
	source := newTarget(t, sc, "Piping")
	target := newTarget(t, sc, "Design")

	build := func(s *ecschema.Schema, precision int, relErr float64, priority int) *ecschema.KindOfQuantity {
		phen, err := s.NewPhenomenon("Length", "LENGTH(1)")
		if err != nil {
			t.Fatalf("NewPhenomenon() error: %v", err)
		}
		system, err := s.NewUnitSystem("Metric")
		if err != nil {
			t.Fatalf("NewUnitSystem() error: %v", err)
		}
		m, err := s.NewUnit("M", phen.Key(), system.Key(), "M")
		if err != nil {
			t.Fatalf("NewUnit() error: %v", err)
		}
		if _, err := s.NewFormat("Fixed", "decimal", precision); err != nil {
			t.Fatalf("NewFormat() error: %v", err)
		}
		koq, err := s.NewKindOfQuantity("Bore", m.Key(), relErr)
		if err != nil {
			t.Fatalf("NewKindOfQuantity() error: %v", err)
		}
		if _, err := s.NewPropertyCategory("Main", priority); err != nil {
			t.Fatalf("NewPropertyCategory() error: %v", err)
		}
		return koq
	}
	build(source, 4, 0.01, 3)
	tKoq := build(target, 2, 0.5, 1)

	ctx := context.Background()
	changes, err := diff.Compare(ctx, source, target)
	if err != nil {
		t.Fatalf("Compare() error: %v", err)
	}
	if err := New(sc).Merge(ctx, target, changes); err != nil {
		t.Fatalf("Merge() error: %v", err)
	}

	format, ok := target.Item("Fixed")
	if !ok {
		t.Fatalf("Item(Fixed) missing")
	}
	if got := format.(*ecschema.Format).Precision(); got != 4 {
		t.Fatalf("precision = %d, want 4", got)
	}
	if got := tKoq.RelativeError(); got != 0.01 {
		t.Fatalf("relativeError = %v, want 0.01", got)
	}
	category, ok := target.Item("Main")
	if !ok {
		t.Fatalf("Item(Main) missing")
	}
	if got := category.(*ecschema.PropertyCategory).Priority(); got != 3 {
		t.Fatalf("priority = %d, want 3", got)
	}
}
