package diff

// Stable diagnostic codes for modify records. Downstream tooling
// filters on these, so existing codes never change meaning.
const (
	// CodeLabelChanged flags a display label delta.
	CodeLabelChanged = "SC-100"
	// CodeDescriptionChanged flags a description delta.
	CodeDescriptionChanged = "SC-101"
	// CodeModifierChanged flags a class modifier delta.
	CodeModifierChanged = "SC-102"
	// CodeBaseClassChanged flags a base class delta.
	CodeBaseClassChanged = "SC-103"
	// CodeStrengthChanged flags a relationship strength delta.
	CodeStrengthChanged = "SC-104"
	// CodeStrengthDirectionChanged flags a strength direction delta.
	CodeStrengthDirectionChanged = "SC-105"
	// CodeMixinsChanged flags a delta in an entity's applied mixins.
	CodeMixinsChanged = "SC-108"
	// CodeMixinAppliesToChanged flags a mixin applies-to delta. Targets
	// are compared by full name, never by object identity, so mixins
	// applying to same-named classes of different schemas are flagged.
	CodeMixinAppliesToChanged = "SC-109"
	// CodePropertyChanged flags a property add, remove, or field delta.
	CodePropertyChanged = "SC-110"
	// CodeConstantChanged flags a constant field delta. Whether the
	// delta is a hard conflict is decided at merge time.
	CodeConstantChanged = "SC-111"
	// CodeConstraintChanged flags a relationship constraint delta.
	CodeConstraintChanged = "SC-112"
	// CodeUnitChanged flags a unit field delta.
	CodeUnitChanged = "SC-113"
	// CodeAppliesToMaskChanged flags a custom attribute class container
	// mask delta.
	CodeAppliesToMaskChanged = "SC-114"
	// CodeFormatChanged flags a format field delta.
	CodeFormatChanged = "SC-115"
	// CodeKindOfQuantityChanged flags a kind-of-quantity field delta.
	CodeKindOfQuantityChanged = "SC-116"
	// CodePriorityChanged flags a property category priority delta.
	CodePriorityChanged = "SC-117"
	// CodePhenomenonChanged flags a phenomenon definition delta.
	CodePhenomenonChanged = "SC-118"
	// CodeCustomAttributesChanged flags an applied custom attribute
	// delta.
	CodeCustomAttributesChanged = "SC-119"
	// CodeEnumerationChanged flags an enumeration backing, strictness,
	// or enumerator delta.
	CodeEnumerationChanged = "SC-120"
)
