package ecschema

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"sync"
)

// SchemaLocater loads schema graphs on demand. Implementations parse or
// otherwise materialize a schema for a key; the graph model never
// re-implements parsing. A locater that cannot supply the key returns
// (nil, nil) so the context can try the next one.
type SchemaLocater interface {
	LocateSchema(ctx context.Context, key SchemaKey, match SchemaMatchType) (*Schema, error)
}

// SchemaContext is the shared registry resolving schema keys to loaded
// schema graphs. It holds at most one loaded schema per key, memoizes
// loads, and deduplicates concurrent loads of the same key. Contexts
// are created per logical session and reference-counted when shared.
type SchemaContext struct {
	mu       sync.Mutex
	locaters []SchemaLocater
	entries  map[string]*contextEntry
	refs     int
	disposed bool
}

type contextEntry struct {
	done   chan struct{}
	schema *Schema
	err    error
}

// NewSchemaContext creates an empty context with a reference count of
// one.
func NewSchemaContext() *SchemaContext {
	return &SchemaContext{
		entries: make(map[string]*contextEntry),
		refs:    1,
	}
}

func contextKey(key SchemaKey) string {
	return strings.ToLower(key.String())
}

// AddLocater registers a schema source. Locaters are consulted in
// registration order.
func (c *SchemaContext) AddLocater(l SchemaLocater) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.locaters = append(c.locaters, l)
}

// AddSchema registers an already-built schema under its key.
func (c *SchemaContext) AddSchema(s *Schema) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return fmt.Errorf("schema context is disposed")
	}
	key := contextKey(s.Key())
	if _, exists := c.entries[key]; exists {
		return fmt.Errorf("schema %s already loaded in context", s.Key())
	}
	done := make(chan struct{})
	close(done)
	c.entries[key] = &contextEntry{done: done, schema: s}
	s.context = c
	return nil
}

// GetSchema returns the schema loaded under key, loading it through the
// registered locaters on first use. Loads are memoized per key;
// concurrent callers for the same key share one load.
func (c *SchemaContext) GetSchema(ctx context.Context, key SchemaKey) (*Schema, error) {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil, fmt.Errorf("schema context is disposed")
	}
	ck := contextKey(key)
	if entry, ok := c.entries[ck]; ok {
		c.mu.Unlock()
		return entry.wait(ctx)
	}
	entry := &contextEntry{done: make(chan struct{})}
	c.entries[ck] = entry
	locaters := c.locaters
	c.mu.Unlock()

	entry.schema, entry.err = c.locate(ctx, locaters, key)
	if entry.err != nil {
		c.mu.Lock()
		delete(c.entries, ck)
		c.mu.Unlock()
	} else {
		entry.schema.context = c
	}
	close(entry.done)
	return entry.schema, entry.err
}

func (c *SchemaContext) locate(ctx context.Context, locaters []SchemaLocater, key SchemaKey) (*Schema, error) {
	for _, l := range locaters {
		s, err := l.LocateSchema(ctx, key, MatchLatestReadCompatible)
		if err != nil {
			return nil, fmt.Errorf("locate schema %s: %w", key, err)
		}
		if s != nil {
			return s, nil
		}
	}
	return nil, fmt.Errorf("schema %s: %w", key, ErrSchemaNotFound)
}

func (e *contextEntry) wait(ctx context.Context) (*Schema, error) {
	select {
	case <-e.done:
		return e.schema, e.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SchemaByName returns the loaded schema with the given name, ignoring
// version. When several versions are loaded the highest wins.
func (c *SchemaContext) SchemaByName(name string) (*Schema, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var best *Schema
	for _, entry := range c.entries {
		select {
		case <-entry.done:
		default:
			continue
		}
		s := entry.schema
		if s == nil || !sameName(s.Name(), name) {
			continue
		}
		if best == nil || s.Key().Version.Compare(best.Key().Version) > 0 {
			best = s
		}
	}
	return best, best != nil
}

// Schemas yields every loaded schema.
func (c *SchemaContext) Schemas() iter.Seq[*Schema] {
	c.mu.Lock()
	loaded := make([]*Schema, 0, len(c.entries))
	for _, entry := range c.entries {
		select {
		case <-entry.done:
			if entry.schema != nil {
				loaded = append(loaded, entry.schema)
			}
		default:
		}
	}
	c.mu.Unlock()
	return func(yield func(*Schema) bool) {
		for _, s := range loaded {
			if !yield(s) {
				return
			}
		}
	}
}

// GetItem resolves an item key: the owning schema is located first,
// then the item looked up by case-insensitive name.
func (c *SchemaContext) GetItem(ctx context.Context, key ItemKey) (Item, error) {
	s, ok := c.SchemaByName(key.Schema.Name)
	if !ok {
		var err error
		s, err = c.GetSchema(ctx, key.Schema)
		if err != nil {
			return nil, err
		}
	}
	item, ok := s.Item(key.Name)
	if !ok {
		return nil, fmt.Errorf("item %s: %w", key, ErrItemNotFound)
	}
	return item, nil
}

// Retain increments the reference count for a new consuming session.
func (c *SchemaContext) Retain() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refs++
}

// Release decrements the reference count, disposing the context when it
// reaches zero. Release reports whether the context was disposed.
func (c *SchemaContext) Release() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.refs > 0 {
		c.refs--
	}
	if c.refs == 0 && !c.disposed {
		c.disposeLocked()
		return true
	}
	return false
}

// Dispose tears the context down regardless of the reference count.
func (c *SchemaContext) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disposeLocked()
}

func (c *SchemaContext) disposeLocked() {
	c.disposed = true
	c.refs = 0
	c.entries = make(map[string]*contextEntry)
	c.locaters = nil
}
