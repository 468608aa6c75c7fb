package ecschema

import (
	"context"
	"fmt"
)

// ItemRef is a lazy reference to a schema item: a key plus a resolver
// through the owning schema's context. References are stored as keys,
// never as direct pointers, so forward references and items from
// schemas loaded later resolve correctly at use time.
type ItemRef struct {
	key   ItemKey
	owner *Schema
	item  Item
}

// NewItemRef creates a reference resolved through owner's context.
func NewItemRef(owner *Schema, key ItemKey) *ItemRef {
	return &ItemRef{key: key, owner: owner}
}

// BoundItemRef creates a reference already bound to item. Resolve
// returns the bound item without a context lookup.
func BoundItemRef(item Item) *ItemRef {
	return &ItemRef{key: item.Key(), owner: item.Schema(), item: item}
}

// Key returns the referenced item key.
func (r *ItemRef) Key() ItemKey {
	return r.key
}

// FullName returns the referenced item's full name.
func (r *ItemRef) FullName() string {
	return r.key.FullName()
}

// Resolve locates the referenced item. Same-schema references resolve
// directly; cross-schema references go through the shared context and
// may suspend while the target schema loads.
func (r *ItemRef) Resolve(ctx context.Context) (Item, error) {
	if r.item != nil {
		return r.item, nil
	}
	if r.owner != nil && sameName(r.key.Schema.Name, r.owner.Name()) {
		if item, ok := r.owner.Item(r.key.Name); ok {
			return item, nil
		}
		return nil, fmt.Errorf("item %s not found in schema %s", r.key.Name, r.owner.Name())
	}
	if r.owner == nil || r.owner.Context() == nil {
		return nil, fmt.Errorf("item %s: no context to resolve through", r.key)
	}
	return r.owner.Context().GetItem(ctx, r.key)
}

// ResolveAs resolves the reference and asserts the concrete variant.
func ResolveAs[T Item](ctx context.Context, r *ItemRef) (T, error) {
	var zero T
	if r == nil {
		return zero, fmt.Errorf("nil item reference")
	}
	item, err := r.Resolve(ctx)
	if err != nil {
		return zero, err
	}
	typed, ok := item.(T)
	if !ok {
		return zero, fmt.Errorf("item %s is a %s, not a %T", r.key, item.Type(), zero)
	}
	return typed, nil
}
