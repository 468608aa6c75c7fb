package diff

import (
	"context"
	"testing"

	"github.com/gobim/ecschema"
)

func newSchemaPair(t *testing.T) (*ecschema.Schema, *ecschema.Schema) {
	t.Helper()
	sc := ecschema.NewSchemaContext()
	source, err := ecschema.NewSchema(sc, ecschema.NewSchemaKey("SchemaA", 1, 0, 0), "a")
	if err != nil {
		t.Fatalf("NewSchema(SchemaA) error: %v", err)
	}
	target, err := ecschema.NewSchema(sc, ecschema.NewSchemaKey("SchemaB", 1, 0, 0), "b")
	if err != nil {
		t.Fatalf("NewSchema(SchemaB) error: %v", err)
	}
	return source, target
}

func mustCompare(t *testing.T, source, target *ecschema.Schema) *Changes {
	t.Helper()
	changes, err := Compare(context.Background(), source, target)
	if err != nil {
		t.Fatalf("Compare() error: %v", err)
	}
	return changes
}

func recordsWithCode(c *Changes, code string) []Record {
	var out []Record
	for _, r := range c.Records {
		if r.Code == code {
			out = append(out, r)
		}
	}
	return out
}

func TestCompareEmitsAddForSourceOnlyItem(t *testing.T) {
	source, target := newSchemaPair(t)
	cls, err := source.NewEntityClass("Pipe")
	if err != nil {
		t.Fatalf("NewEntityClass() error: %v", err)
	}
	if _, err := cls.NewPrimitiveProperty("Diameter", ecschema.PrimitiveDouble); err != nil {
		t.Fatalf("NewPrimitiveProperty() error: %v", err)
	}

	changes := mustCompare(t, source, target)
	if len(changes.Records) != 1 {
		t.Fatalf("Records length = %d, want 1: %v", len(changes.Records), changes.Records)
	}
	r := changes.Records[0]
	if r.Change != ChangeAdd || r.ItemName != "Pipe" || r.SchemaType != "EntityClass" {
		t.Fatalf("Record = %+v, want an EntityClass add for Pipe", r)
	}
	if r.Difference == nil || len(r.Difference.Properties) != 1 {
		t.Fatalf("Difference = %+v, want the full payload including properties", r.Difference)
	}
}

func TestCompareEmitsRemoveForTargetOnlyItem(t *testing.T) {
	source, target := newSchemaPair(t)
	if _, err := target.NewEntityClass("Legacy"); err != nil {
		t.Fatalf("NewEntityClass() error: %v", err)
	}
	changes := mustCompare(t, source, target)
	if len(changes.Records) != 1 || changes.Records[0].Change != ChangeRemove {
		t.Fatalf("Records = %+v, want one remove", changes.Records)
	}
}

func TestCompareMatchesItemsCaseInsensitively(t *testing.T) {
	source, target := newSchemaPair(t)
	if _, err := source.NewEntityClass("Pipe"); err != nil {
		t.Fatalf("NewEntityClass() error: %v", err)
	}
	if _, err := target.NewEntityClass("PIPE"); err != nil {
		t.Fatalf("NewEntityClass() error: %v", err)
	}
	changes := mustCompare(t, source, target)
	if !changes.IsEmpty() {
		t.Fatalf("Records = %+v, want none for case-only name difference", changes.Records)
	}
}

func TestCompareScalarFieldDeltas(t *testing.T) {
	source, target := newSchemaPair(t)
	sc, _ := source.NewEntityClass("Pipe")
	tc, _ := target.NewEntityClass("Pipe")
	sc.SetLabel("Pipe")
	tc.SetLabel("Tube")
	sc.SetModifier(ecschema.ModifierAbstract)

	changes := mustCompare(t, source, target)
	if got := recordsWithCode(changes, CodeLabelChanged); len(got) != 1 {
		t.Fatalf("label records = %d, want 1", len(got))
	}
	modifierRecords := recordsWithCode(changes, CodeModifierChanged)
	if len(modifierRecords) != 1 {
		t.Fatalf("modifier records = %d, want 1", len(modifierRecords))
	}
	r := modifierRecords[0]
	if r.SourceValue != "Abstract" || r.TargetValue != "None" {
		t.Fatalf("modifier record = %+v, want Abstract -> None", r)
	}
	if r.Difference == nil || r.Difference.Modifier == nil || *r.Difference.Modifier != "Abstract" {
		t.Fatalf("Difference = %+v, want the source modifier", r.Difference)
	}
}

func TestCompareEmitsScalarsBeforeComposites(t *testing.T) {
	source, target := newSchemaPair(t)
	sc, _ := source.NewEntityClass("Pipe")
	tc, _ := target.NewEntityClass("Pipe")
	sc.SetLabel("Pipe")
	if _, err := sc.NewPrimitiveProperty("Diameter", ecschema.PrimitiveDouble); err != nil {
		t.Fatalf("NewPrimitiveProperty() error: %v", err)
	}
	_ = tc

	changes := mustCompare(t, source, target)
	if len(changes.Records) != 2 {
		t.Fatalf("Records length = %d, want 2", len(changes.Records))
	}
	if changes.Records[0].Path != "label" {
		t.Fatalf("Records[0].Path = %q, want the scalar delta first", changes.Records[0].Path)
	}
	if changes.Records[1].Path != "properties.Diameter" {
		t.Fatalf("Records[1].Path = %q, want the property add second", changes.Records[1].Path)
	}
}

func TestMixinAppliesToComparedByFullName(t *testing.T) {
	source, target := newSchemaPair(t)
	sourceClass, _ := source.NewEntityClass("testClass")
	targetClass, _ := target.NewEntityClass("testClass")
	if _, err := source.NewMixin("IMarker", sourceClass.Key()); err != nil {
		t.Fatalf("NewMixin(source) error: %v", err)
	}
	if _, err := target.NewMixin("IMarker", targetClass.Key()); err != nil {
		t.Fatalf("NewMixin(target) error: %v", err)
	}

	// SchemaA.testClass vs SchemaB.testClass: conceptually the same
	// class, but the full names differ, so the delta is flagged.
	changes := mustCompare(t, source, target)
	got := recordsWithCode(changes, CodeMixinAppliesToChanged)
	if len(got) != 1 {
		t.Fatalf("appliesTo records = %d, want exactly 1", len(got))
	}
	if got[0].SourceValue != "SchemaA.testClass" || got[0].TargetValue != "SchemaB.testClass" {
		t.Fatalf("record = %+v, want the two full names", got[0])
	}
}

func TestMixinAppliesToIdenticalFullNamesYieldNothing(t *testing.T) {
	sc := ecschema.NewSchemaContext()
	shared, err := ecschema.NewSchema(sc, ecschema.NewSchemaKey("Shared", 1, 0, 0), "sh")
	if err != nil {
		t.Fatalf("NewSchema(Shared) error: %v", err)
	}
	sharedClass, _ := shared.NewEntityClass("testClass")

	source, target := newSchemaPair(t)
	if _, err := source.NewMixin("IMarker", sharedClass.Key()); err != nil {
		t.Fatalf("NewMixin(source) error: %v", err)
	}
	if _, err := target.NewMixin("IMarker", sharedClass.Key()); err != nil {
		t.Fatalf("NewMixin(target) error: %v", err)
	}
	changes := mustCompare(t, source, target)
	if got := recordsWithCode(changes, CodeMixinAppliesToChanged); len(got) != 0 {
		t.Fatalf("appliesTo records = %d, want 0 for identical full names", len(got))
	}
}

func TestComparePropertyTypeNameRewritesSchemaQualifier(t *testing.T) {
	source, target := newSchemaPair(t)
	sourceStruct, _ := source.NewStructClass("Specs")
	targetStruct, _ := target.NewStructClass("Specs")
	sourceClass, _ := source.NewEntityClass("Pipe")
	targetClass, _ := target.NewEntityClass("Pipe")
	if _, err := sourceClass.NewStructProperty("Spec", sourceStruct.Key()); err != nil {
		t.Fatalf("NewStructProperty(source) error: %v", err)
	}
	if _, err := targetClass.NewStructProperty("Spec", targetStruct.Key()); err != nil {
		t.Fatalf("NewStructProperty(target) error: %v", err)
	}

	// SchemaA.Specs rewrites to SchemaB.Specs before comparison, so
	// the copies do not register a type delta.
	changes := mustCompare(t, source, target)
	for r := range changes.ForItem("Pipe") {
		t.Fatalf("unexpected record %+v for equivalent struct properties", r)
	}
}

func TestCompareMixinMembershipRewritesQualifier(t *testing.T) {
	source, target := newSchemaPair(t)
	sourceClass, _ := source.NewEntityClass("Pipe")
	targetClass, _ := target.NewEntityClass("Pipe")
	sourceMixin, _ := source.NewMixin("ITagged", sourceClass.Key())
	targetMixin, _ := target.NewMixin("ITagged", targetClass.Key())
	sourceClass.AddMixin(sourceMixin.Key())
	targetClass.AddMixin(targetMixin.Key())

	// SchemaA.ITagged rewrites onto SchemaB.ITagged, so the membership
	// registers neither an addition nor a removal.
	changes := mustCompare(t, source, target)
	for r := range changes.ForItem("Pipe") {
		t.Fatalf("unexpected record %+v for equivalent mixin memberships", r)
	}
}

func TestCompareCustomAttributesRewriteQualifier(t *testing.T) {
	source, target := newSchemaPair(t)
	sourceClass, _ := source.NewEntityClass("Pipe")
	targetClass, _ := target.NewEntityClass("Pipe")
	sourceClass.CustomAttributes().Add(ecschema.CustomAttribute{
		ClassName:  "SchemaA.Hidden",
		Properties: map[string]any{"Reason": "legacy"},
	})
	targetClass.CustomAttributes().Add(ecschema.CustomAttribute{
		ClassName:  "SchemaB.Hidden",
		Properties: map[string]any{"Reason": "legacy"},
	})
	changes := mustCompare(t, source, target)
	if !changes.IsEmpty() {
		t.Fatalf("Records = %+v, want none for equivalent attributes", changes.Records)
	}

	// A genuine property-bag delta on the rewritten pairing is still one
	// modify, not an add/remove pair.
	sourceClass.CustomAttributes().Add(ecschema.CustomAttribute{
		ClassName:  "SchemaA.Hidden",
		Properties: map[string]any{"Reason": "obsolete"},
	})
	changes = mustCompare(t, source, target)
	if len(changes.Records) != 1 || changes.Records[0].Code != CodeCustomAttributesChanged {
		t.Fatalf("Records = %+v, want one %s modify", changes.Records, CodeCustomAttributesChanged)
	}
	if changes.Records[0].Change != ChangeModify {
		t.Fatalf("Record = %+v, want a modify", changes.Records[0])
	}
}

func TestComparePropertyDeltas(t *testing.T) {
	source, target := newSchemaPair(t)
	sc, _ := source.NewEntityClass("Pipe")
	tc, _ := target.NewEntityClass("Pipe")

	sp, _ := sc.NewPrimitiveProperty("Diameter", ecschema.PrimitiveDouble)
	tp, _ := tc.NewPrimitiveProperty("Diameter", ecschema.PrimitiveDouble)
	sp.SetIsReadOnly(true)
	sp.SetPriority(3)
	_ = tp

	if _, err := sc.NewPrimitiveProperty("Length", ecschema.PrimitiveDouble); err != nil {
		t.Fatalf("NewPrimitiveProperty() error: %v", err)
	}
	if _, err := tc.NewPrimitiveProperty("Weight", ecschema.PrimitiveDouble); err != nil {
		t.Fatalf("NewPrimitiveProperty() error: %v", err)
	}

	changes := mustCompare(t, source, target)
	var adds, removes, modifies int
	for _, r := range changes.Records {
		switch r.Change {
		case ChangeAdd:
			adds++
			if r.Path != "properties.Length" {
				t.Fatalf("add path = %q, want properties.Length", r.Path)
			}
		case ChangeRemove:
			removes++
			if r.Path != "properties.Weight" {
				t.Fatalf("remove path = %q, want properties.Weight", r.Path)
			}
		case ChangeModify:
			modifies++
			if r.Code != CodePropertyChanged {
				t.Fatalf("modify code = %q, want %q", r.Code, CodePropertyChanged)
			}
		}
	}
	if adds != 1 || removes != 1 || modifies != 2 {
		t.Fatalf("adds/removes/modifies = %d/%d/%d, want 1/1/2", adds, removes, modifies)
	}
}

func TestComparePropertyKindChangeReplacesProperty(t *testing.T) {
	source, target := newSchemaPair(t)
	sc, _ := source.NewEntityClass("Pipe")
	tc, _ := target.NewEntityClass("Pipe")
	if _, err := sc.NewPrimitiveArrayProperty("Diameter", ecschema.PrimitiveDouble); err != nil {
		t.Fatalf("NewPrimitiveArrayProperty() error: %v", err)
	}
	if _, err := tc.NewPrimitiveProperty("Diameter", ecschema.PrimitiveDouble); err != nil {
		t.Fatalf("NewPrimitiveProperty() error: %v", err)
	}
	changes := mustCompare(t, source, target)
	if len(changes.Records) != 2 {
		t.Fatalf("Records length = %d, want remove+add pair", len(changes.Records))
	}
	if changes.Records[0].Change != ChangeRemove || changes.Records[1].Change != ChangeAdd {
		t.Fatalf("Records = %+v, want remove then add", changes.Records)
	}
}

func TestCompareRelationshipConstraints(t *testing.T) {
	source, target := newSchemaPair(t)
	sourceOwner, _ := source.NewEntityClass("Owner")
	sourceExtra, _ := source.NewEntityClass("Extra")
	targetOwner, _ := target.NewEntityClass("Owner")

	srel, _ := source.NewRelationshipClass("Owns", ecschema.StrengthHolding, ecschema.DirectionForward)
	trel, _ := target.NewRelationshipClass("Owns", ecschema.StrengthReferencing, ecschema.DirectionForward)
	srel.Source().AddConstraintClass(sourceOwner.Key())
	srel.Source().AddConstraintClass(sourceExtra.Key())
	trel.Source().AddConstraintClass(targetOwner.Key())
	srel.Target().SetRoleLabel("owned by")

	changes := mustCompare(t, source, target)
	if got := recordsWithCode(changes, CodeStrengthChanged); len(got) != 1 {
		t.Fatalf("strength records = %d, want 1", len(got))
	}
	constraintRecords := recordsWithCode(changes, CodeConstraintChanged)
	var paths []string
	for _, r := range constraintRecords {
		paths = append(paths, r.Path)
	}
	wantPaths := map[string]bool{"source.constraintClasses": false, "target.roleLabel": false}
	for _, p := range paths {
		if _, ok := wantPaths[p]; ok {
			wantPaths[p] = true
		}
	}
	for p, seen := range wantPaths {
		if !seen {
			t.Fatalf("missing constraint record for path %q in %v", p, paths)
		}
	}
	// Owner rewrites onto the target; only Extra is genuinely new.
	for _, r := range constraintRecords {
		if r.Path == "source.constraintClasses" && r.SourceValue != "SchemaA.Extra" {
			t.Fatalf("constraint classes delta = %q, want only SchemaA.Extra", r.SourceValue)
		}
	}
}

func TestCompareConstantsRecordsAllFieldDeltas(t *testing.T) {
	source, target := newSchemaPair(t)
	sPhen, _ := source.NewPhenomenon("Length", "LENGTH(1)")
	tPhen, _ := target.NewPhenomenon("Length", "LENGTH(1)")
	sConst, _ := source.NewConstant("Pi", sPhen.Key(), "ONE")
	tConst, _ := target.NewConstant("Pi", tPhen.Key(), "ONE")
	sConst.SetNumerator(5.5)
	tConst.SetNumerator(4.5)
	sConst.SetDenominator(5.1)
	tConst.SetDenominator(4.2)

	changes := mustCompare(t, source, target)
	got := recordsWithCode(changes, CodeConstantChanged)
	if len(got) != 2 {
		t.Fatalf("constant records = %d, want 2: %v", len(got), got)
	}
	if got[0].Path != "numerator" || got[0].SourceValue != "5.5" || got[0].TargetValue != "4.5" {
		t.Fatalf("numerator record = %+v, want 5.5 -> 4.5", got[0])
	}
	if got[1].Path != "denominator" || got[1].SourceValue != "5.1" || got[1].TargetValue != "4.2" {
		t.Fatalf("denominator record = %+v, want 5.1 -> 4.2", got[1])
	}
}

func TestCompareEnumerationDeltas(t *testing.T) {
	source, target := newSchemaPair(t)
	se, _ := source.NewEnumeration("Status", ecschema.PrimitiveInteger)
	te, _ := target.NewEnumeration("Status", ecschema.PrimitiveInteger)
	se.SetIsStrict(false)
	if err := se.AddEnumerator(ecschema.Enumerator{Name: "Open", Value: 1}); err != nil {
		t.Fatalf("AddEnumerator() error: %v", err)
	}
	if err := te.AddEnumerator(ecschema.Enumerator{Name: "Closed", Value: 2}); err != nil {
		t.Fatalf("AddEnumerator() error: %v", err)
	}

	changes := mustCompare(t, source, target)
	got := recordsWithCode(changes, CodeEnumerationChanged)
	if len(got) != 2 {
		t.Fatalf("enumeration records = %d, want 2 (isStrict + enumerator add): %v", len(got), got)
	}
	var removes int
	for _, r := range changes.Records {
		if r.Change == ChangeRemove && r.Path == "enumerators.Closed" {
			removes++
		}
	}
	if removes != 1 {
		t.Fatalf("enumerator removes = %d, want 1", removes)
	}
}

func TestCompareSameNameDifferentVariant(t *testing.T) {
	source, target := newSchemaPair(t)
	if _, err := source.NewEntityClass("Thing"); err != nil {
		t.Fatalf("NewEntityClass() error: %v", err)
	}
	if _, err := target.NewStructClass("Thing"); err != nil {
		t.Fatalf("NewStructClass() error: %v", err)
	}
	changes := mustCompare(t, source, target)
	if len(changes.Records) != 2 {
		t.Fatalf("Records length = %d, want remove+add", len(changes.Records))
	}
	if changes.Records[0].Change != ChangeRemove || changes.Records[0].SchemaType != "StructClass" {
		t.Fatalf("Records[0] = %+v, want the struct class removed", changes.Records[0])
	}
	if changes.Records[1].Change != ChangeAdd || changes.Records[1].SchemaType != "EntityClass" {
		t.Fatalf("Records[1] = %+v, want the entity class added", changes.Records[1])
	}
}
