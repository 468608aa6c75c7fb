// Package merge replays a change list produced by the diff package
// onto a target schema. Records apply strictly in the order supplied;
// a failing record aborts the merge with the records before it already
// applied.
package merge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gobim/ecschema"
	"github.com/gobim/ecschema/diff"
)

// ConflictError reports a field whose incoming and current values
// cannot be reconciled automatically.
type ConflictError struct {
	Kind        string
	Field       string
	SourceValue string
	TargetValue string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s conflict: %s -> %s", e.Kind, e.Field, e.SourceValue, e.TargetValue)
}

// Merger applies change lists onto schemas registered in a shared
// context. It serializes nothing itself: the caller must not mutate
// the target schema concurrently.
type Merger struct {
	context *ecschema.SchemaContext
}

// New returns a merger resolving cross-schema references through the
// given context.
func New(ctx *ecschema.SchemaContext) *Merger {
	return &Merger{context: ctx}
}

// Merge applies the change records to the target schema in order.
// Application is not atomic: records preceding a failing one stay
// applied.
func (m *Merger) Merge(ctx context.Context, target *ecschema.Schema, changes *diff.Changes) error {
	if err := m.merge(ctx, target, changes); err != nil {
		// The error prefix is part of the published contract;
		// downstream tooling matches on it.
		return fmt.Errorf("Failed to merged, %w", err)
	}
	return nil
}

func (m *Merger) merge(ctx context.Context, target *ecschema.Schema, changes *diff.Changes) error {
	s := &session{
		merger:     m,
		target:     target,
		sourceName: changes.Source.Name,
		pending:    map[string]bool{},
	}
	// Collect the names this change set introduces so that
	// source-qualified references between added items rewrite onto the
	// target regardless of the order the adds arrive in.
	for _, r := range changes.Records {
		if r.Change == diff.ChangeAdd && r.Path == "" {
			s.pending[strings.ToLower(r.ItemName)] = true
		}
	}
	for i, r := range changes.Records {
		if err := s.apply(ctx, r); err != nil {
			// Conflicts surface bare: their rendered form directly
			// after the merge prefix is also contractual.
			var conflict *ConflictError
			if errors.As(err, &conflict) {
				return err
			}
			return fmt.Errorf("record %d (%s %s): %w", i, r.Change, r.ItemName, err)
		}
	}
	return nil
}

type session struct {
	merger     *Merger
	target     *ecschema.Schema
	sourceName string
	pending    map[string]bool
}

func (s *session) apply(ctx context.Context, r diff.Record) error {
	switch r.Change {
	case diff.ChangeAdd:
		return s.applyAdd(ctx, r)
	case diff.ChangeModify:
		return s.applyModify(ctx, r)
	case diff.ChangeRemove:
		return s.applyRemove(r)
	default:
		return fmt.Errorf("unknown change type %q", r.Change)
	}
}

// rewriteName maps a full name qualified with the source schema onto
// the target schema when the target already holds, or this change set
// is adding, an item of that name.
func (s *session) rewriteName(fullName string) string {
	schemaName, itemName, ok := ecschema.SplitFullName(fullName)
	if !ok || !strings.EqualFold(schemaName, s.sourceName) {
		return fullName
	}
	if _, exists := s.target.Item(itemName); exists || s.pending[strings.ToLower(itemName)] {
		return s.target.Name() + "." + itemName
	}
	return fullName
}

// resolveKey turns a possibly schema-qualified name from a change
// payload into an item key, adding a schema reference to the target
// when the name points outside it.
func (s *session) resolveKey(fullName string) (ecschema.ItemKey, error) {
	fullName = s.rewriteName(fullName)
	schemaName, itemName, ok := ecschema.SplitFullName(fullName)
	if !ok {
		return ecschema.NewItemKey(fullName, s.target.Key()), nil
	}
	if strings.EqualFold(schemaName, s.target.Name()) {
		return ecschema.NewItemKey(itemName, s.target.Key()), nil
	}
	referenced, found := s.merger.context.SchemaByName(schemaName)
	if !found {
		return ecschema.ItemKey{}, fmt.Errorf("resolve %s: schema %s: %w", fullName, schemaName, ecschema.ErrSchemaNotFound)
	}
	if !s.target.HasReference(schemaName) {
		s.target.AddReference(referenced.Key())
	}
	return ecschema.NewItemKey(itemName, referenced.Key()), nil
}

func (s *session) applyRemove(r diff.Record) error {
	if r.Path == "" {
		s.target.DeleteItem(r.ItemName)
		return nil
	}

	item, ok := s.target.Item(r.ItemName)
	if !ok {
		return fmt.Errorf("%s: %w", r.ItemName, ecschema.ErrItemNotFound)
	}

	head, rest, _ := strings.Cut(r.Path, ".")
	switch head {
	case "properties":
		cls, ok := item.(ecschema.Class)
		if !ok {
			return fmt.Errorf("%s is not a class", r.ItemName)
		}
		name, sub, nested := strings.Cut(rest, ".")
		if !nested {
			cls.DeleteProperty(name)
			return nil
		}
		prop, ok := cls.Property(name)
		if !ok {
			return fmt.Errorf("%s.%s: %w", r.ItemName, name, ecschema.ErrPropertyNotFound)
		}
		return removeAttribute(prop.CustomAttributes(), sub)
	case "customAttributes":
		container, ok := item.(ecschema.CustomAttributeContainer)
		if !ok {
			return fmt.Errorf("%s cannot carry custom attributes", r.ItemName)
		}
		container.CustomAttributes().Remove(rest)
		return nil
	case "mixins":
		entity, ok := item.(*ecschema.EntityClass)
		if !ok {
			return fmt.Errorf("%s is not an entity class", r.ItemName)
		}
		key, err := s.resolveKey(rest)
		if err != nil {
			return err
		}
		entity.RemoveMixin(key)
		return nil
	case "enumerators":
		enum, ok := item.(*ecschema.Enumeration)
		if !ok {
			return fmt.Errorf("%s is not an enumeration", r.ItemName)
		}
		enum.RemoveEnumerator(rest)
		return nil
	case "source", "target":
		rel, ok := item.(*ecschema.RelationshipClass)
		if !ok {
			return fmt.Errorf("%s is not a relationship class", r.ItemName)
		}
		constraint := rel.Source()
		if head == "target" {
			constraint = rel.Target()
		}
		sub, full, nested := strings.Cut(rest, ".")
		if !nested || sub != "constraintClasses" {
			return fmt.Errorf("unsupported remove path %q", r.Path)
		}
		key, err := s.resolveKey(full)
		if err != nil {
			return err
		}
		constraint.RemoveConstraintClass(key)
		return nil
	default:
		return fmt.Errorf("unsupported remove path %q", r.Path)
	}
}

func removeAttribute(set *ecschema.CustomAttributeSet, path string) error {
	head, rest, ok := strings.Cut(path, ".")
	if !ok || head != "customAttributes" {
		return fmt.Errorf("unsupported remove path %q", path)
	}
	set.Remove(rest)
	return nil
}
