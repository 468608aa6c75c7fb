package ecschema

import (
	"fmt"
	"strconv"
	"strings"
)

// RelationshipStrength describes the ownership semantics of a
// relationship.
type RelationshipStrength uint8

const (
	StrengthReferencing RelationshipStrength = iota
	StrengthHolding
	StrengthEmbedding
)

var strengthNames = [...]string{"Referencing", "Holding", "Embedding"}

// String returns the canonical strength name.
func (s RelationshipStrength) String() string {
	if int(s) < len(strengthNames) {
		return strengthNames[s]
	}
	return "Referencing"
}

// ParseRelationshipStrength maps a canonical strength name back to its
// value.
func ParseRelationshipStrength(name string) (RelationshipStrength, bool) {
	for i, n := range strengthNames {
		if n == name {
			return RelationshipStrength(i), true
		}
	}
	return StrengthReferencing, false
}

// RelationshipDirection orients a relationship or navigation property.
type RelationshipDirection uint8

const (
	DirectionForward RelationshipDirection = iota
	DirectionBackward
)

// String returns the canonical direction name.
func (d RelationshipDirection) String() string {
	if d == DirectionBackward {
		return "Backward"
	}
	return "Forward"
}

// ParseRelationshipDirection maps a canonical direction name back to
// its value.
func ParseRelationshipDirection(name string) (RelationshipDirection, bool) {
	switch name {
	case "Forward":
		return DirectionForward, true
	case "Backward":
		return DirectionBackward, true
	default:
		return DirectionForward, false
	}
}

// Multiplicity bounds one relationship end. Upper of UnboundedOccurs
// means unbounded.
type Multiplicity struct {
	Lower int
	Upper int
}

// String returns the "(lower..upper)" form with "*" for unbounded.
func (m Multiplicity) String() string {
	upper := "*"
	if m.Upper != UnboundedOccurs {
		upper = strconv.Itoa(m.Upper)
	}
	return fmt.Sprintf("(%d..%s)", m.Lower, upper)
}

// ParseMultiplicity parses the "(lower..upper)" form.
func ParseMultiplicity(s string) (Multiplicity, error) {
	body := strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	lower, upper, ok := strings.Cut(body, "..")
	if !ok {
		return Multiplicity{}, fmt.Errorf("multiplicity %q: want (lower..upper)", s)
	}
	lo, err := strconv.Atoi(lower)
	if err != nil || lo < 0 {
		return Multiplicity{}, fmt.Errorf("multiplicity %q: invalid lower bound", s)
	}
	if upper == "*" {
		return Multiplicity{Lower: lo, Upper: UnboundedOccurs}, nil
	}
	hi, err := strconv.Atoi(upper)
	if err != nil || hi < lo {
		return Multiplicity{}, fmt.Errorf("multiplicity %q: invalid upper bound", s)
	}
	return Multiplicity{Lower: lo, Upper: hi}, nil
}

// RelationshipConstraint describes one end of a relationship: which
// classes may participate and how many instances.
type RelationshipConstraint struct {
	relationship *RelationshipClass
	isSource     bool

	multiplicity       Multiplicity
	polymorphic        bool
	roleLabel          string
	abstractConstraint *ItemRef
	constraintClasses  []*ItemRef

	attrs *CustomAttributeSet
}

// Relationship returns the owning relationship class.
func (rc *RelationshipConstraint) Relationship() *RelationshipClass { return rc.relationship }

// IsSource reports whether this is the source end.
func (rc *RelationshipConstraint) IsSource() bool { return rc.isSource }

// Multiplicity returns the end's multiplicity.
func (rc *RelationshipConstraint) Multiplicity() Multiplicity { return rc.multiplicity }

// SetMultiplicity sets the end's multiplicity.
func (rc *RelationshipConstraint) SetMultiplicity(m Multiplicity) { rc.multiplicity = m }

// Polymorphic reports whether derived classes of the constraint classes
// may participate.
func (rc *RelationshipConstraint) Polymorphic() bool { return rc.polymorphic }

// SetPolymorphic sets the polymorphic flag.
func (rc *RelationshipConstraint) SetPolymorphic(v bool) { rc.polymorphic = v }

// RoleLabel returns the role label shown for this end.
func (rc *RelationshipConstraint) RoleLabel() string { return rc.roleLabel }

// SetRoleLabel sets the role label.
func (rc *RelationshipConstraint) SetRoleLabel(l string) { rc.roleLabel = l }

// AbstractConstraint returns the common base all constraint classes
// must derive from, nil when unset.
func (rc *RelationshipConstraint) AbstractConstraint() *ItemRef { return rc.abstractConstraint }

// SetAbstractConstraint replaces the abstract constraint reference.
func (rc *RelationshipConstraint) SetAbstractConstraint(key ItemKey) {
	rc.abstractConstraint = NewItemRef(rc.relationship.schema, key)
}

// ClearAbstractConstraint removes the abstract constraint reference.
func (rc *RelationshipConstraint) ClearAbstractConstraint() { rc.abstractConstraint = nil }

// ConstraintClasses returns the ordered concrete constraint class
// references.
func (rc *RelationshipConstraint) ConstraintClasses() []*ItemRef { return rc.constraintClasses }

// AddConstraintClass appends a constraint class reference, ignoring
// keys already present.
func (rc *RelationshipConstraint) AddConstraintClass(key ItemKey) bool {
	for _, ref := range rc.constraintClasses {
		if ref.Key().Matches(key) {
			return false
		}
	}
	rc.constraintClasses = append(rc.constraintClasses, NewItemRef(rc.relationship.schema, key))
	return true
}

// RemoveConstraintClass removes the constraint class reference matching
// key.
func (rc *RelationshipConstraint) RemoveConstraintClass(key ItemKey) bool {
	for i, ref := range rc.constraintClasses {
		if ref.Key().Matches(key) {
			rc.constraintClasses = append(rc.constraintClasses[:i], rc.constraintClasses[i+1:]...)
			return true
		}
	}
	return false
}

// CustomAttributes returns the constraint's attribute set.
func (rc *RelationshipConstraint) CustomAttributes() *CustomAttributeSet { return rc.attrs }

// ContainerType implements CustomAttributeContainer.
func (rc *RelationshipConstraint) ContainerType() ContainerType { return ContainerRelationshipConstraint }

// ContainerSchema implements CustomAttributeContainer.
func (rc *RelationshipConstraint) ContainerSchema() *Schema { return rc.relationship.schema }

// ContainerName implements CustomAttributeContainer.
func (rc *RelationshipConstraint) ContainerName() string {
	end := "Target"
	if rc.isSource {
		end = "Source"
	}
	return rc.relationship.FullName() + ":" + end
}

// RelationshipClass relates entity classes with strength semantics and
// one constraint per end.
type RelationshipClass struct {
	classBase
	strength  RelationshipStrength
	direction RelationshipDirection
	source    *RelationshipConstraint
	target    *RelationshipConstraint
}

// NewRelationshipClass creates a relationship class in the schema with
// default (0..*), polymorphic constraints on both ends.
func (s *Schema) NewRelationshipClass(name string, strength RelationshipStrength, direction RelationshipDirection) (*RelationshipClass, error) {
	r := &RelationshipClass{strength: strength, direction: direction}
	r.init(r, ItemRelationshipClass, name)
	if err := s.addItem(r, &r.itemBase); err != nil {
		return nil, err
	}
	r.source = newRelationshipConstraint(r, true)
	r.target = newRelationshipConstraint(r, false)
	return r, nil
}

func newRelationshipConstraint(r *RelationshipClass, isSource bool) *RelationshipConstraint {
	return &RelationshipConstraint{
		relationship: r,
		isSource:     isSource,
		multiplicity: Multiplicity{Lower: 0, Upper: UnboundedOccurs},
		polymorphic:  true,
		attrs:        newCustomAttributeSet(),
	}
}

// Strength returns the relationship strength.
func (r *RelationshipClass) Strength() RelationshipStrength { return r.strength }

// SetStrength sets the relationship strength.
func (r *RelationshipClass) SetStrength(s RelationshipStrength) { r.strength = s }

// StrengthDirection returns the strength direction.
func (r *RelationshipClass) StrengthDirection() RelationshipDirection { return r.direction }

// SetStrengthDirection sets the strength direction.
func (r *RelationshipClass) SetStrengthDirection(d RelationshipDirection) { r.direction = d }

// Source returns the source end constraint.
func (r *RelationshipClass) Source() *RelationshipConstraint { return r.source }

// Target returns the target end constraint.
func (r *RelationshipClass) Target() *RelationshipConstraint { return r.target }
