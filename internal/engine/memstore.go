package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/celerix-dev/circadian-store/pkg/schema"
)

// collection holds one log collection in memory.
// Stored records are private copies and never mutated in place.
type collection struct {
	nextID  int64
	records map[int64]schema.Record
	index   dateIndex
}

func newCollection() *collection {
	return &collection{records: make(map[int64]schema.Record)}
}

// clone copies the maps and index; records are shared since they are immutable.
func (c *collection) clone() *collection {
	return &collection{
		nextID:  c.nextID,
		records: maps.Clone(c.records),
		index:   slices.Clone(c.index),
	}
}

func (c *collection) put(rec schema.Record) {
	meta := rec.Meta()
	if old, ok := c.records[meta.ID]; ok {
		c.index = c.index.remove(indexKey{date: old.Meta().Date, id: meta.ID})
	}
	c.records[meta.ID] = rec
	c.index = c.index.insert(indexKey{date: meta.Date, id: meta.ID})
	if meta.ID > c.nextID {
		c.nextID = meta.ID
	}
}

func (c *collection) remove(id int64) bool {
	old, ok := c.records[id]
	if !ok {
		return false
	}
	delete(c.records, id)
	c.index = c.index.remove(indexKey{date: old.Meta().Date, id: id})
	return true
}

func (c *collection) state() *CollectionState {
	ids := slices.Sorted(maps.Keys(c.records))
	cs := &CollectionState{NextID: c.nextID, Records: make([]schema.Record, 0, len(ids))}
	for _, id := range ids {
		cs.Records = append(cs.Records, c.records[id])
	}
	return cs
}

// MemStore is the embedded record store.
// With a Persistence attached, every write reaches disk before it becomes visible.
type MemStore struct {
	mu        sync.RWMutex
	logs      map[schema.Collection]*collection
	settings  map[string]json.RawMessage
	persister *Persistence
	opts      options
}

// NewMemStore initializes a store.
// It accepts existing data (from LoadAll) and a persister; both may be nil.
func NewMemStore(initial *State, p *Persistence, opts ...Option) *MemStore {
	m := &MemStore{
		logs:      make(map[schema.Collection]*collection, len(schema.LogCollections)),
		settings:  make(map[string]json.RawMessage),
		persister: p,
		opts:      buildOptions(opts),
	}
	for _, c := range schema.LogCollections {
		m.logs[c] = newCollection()
	}
	if initial == nil {
		return m
	}
	for c, cs := range initial.Collections {
		col, ok := m.logs[c]
		if !ok || cs == nil {
			continue
		}
		for _, rec := range cs.Records {
			col.put(rec.Clone())
		}
		col.nextID = max(col.nextID, cs.NextID)
	}
	maps.Copy(m.settings, initial.Settings)
	return m
}

// OpenMemStore loads dir and returns a write-through store backed by it.
func OpenMemStore(dir string, opts ...Option) (*MemStore, error) {
	p, err := NewPersistence(dir)
	if err != nil {
		return nil, err
	}
	state, err := p.LoadAll()
	if err != nil {
		return nil, err
	}
	return NewMemStore(state, p, opts...), nil
}

// --- Interface Implementation ---

func (m *MemStore) Insert(ctx context.Context, rec schema.Record) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	stored, err := prepare(rec, m.opts.now())
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c := stored.Collection()
	next := m.logs[c].clone()
	stored.Meta().ID = next.nextID + 1
	next.put(stored)
	if err := m.commit(c, next); err != nil {
		return 0, err
	}
	return stored.Meta().ID, nil
}

func (m *MemStore) Replace(ctx context.Context, rec schema.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stored, err := prepare(rec, m.opts.now())
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c := stored.Collection()
	next := m.logs[c].clone()
	if stored.Meta().ID == 0 {
		stored.Meta().ID = next.nextID + 1
	}
	next.put(stored)
	return m.commit(c, next)
}

func (m *MemStore) Delete(ctx context.Context, c schema.Collection, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkCollection(c); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.logs[c].records[id]; !ok {
		return nil
	}
	next := m.logs[c].clone()
	next.remove(id)
	return m.commit(c, next)
}

func (m *MemStore) FetchAll(ctx context.Context, c schema.Collection) ([]schema.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkCollection(c); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	col := m.logs[c]
	ids := slices.Sorted(maps.Keys(col.records))
	out := make([]schema.Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, col.records[id].Clone())
	}
	return out, nil
}

func (m *MemStore) FetchByDate(ctx context.Context, c schema.Collection, date string) ([]schema.Record, error) {
	return m.FetchByDateRange(ctx, c, date, date)
}

func (m *MemStore) FetchByDateRange(ctx context.Context, c schema.Collection, start, end string) ([]schema.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkCollection(c); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	col := m.logs[c]
	keys := col.index.between(start, end)
	out := make([]schema.Record, 0, len(keys))
	for _, k := range keys {
		out = append(out, col.records[k.id].Clone())
	}
	return out, nil
}

func (m *MemStore) Clear(ctx context.Context, c schema.Collection) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkCollection(c); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	next := newCollection()
	next.nextID = m.logs[c].nextID
	return m.commit(c, next)
}

// ClearAll empties every log collection, one at a time. Settings are kept.
func (m *MemStore) ClearAll(ctx context.Context) error {
	for _, c := range schema.LogCollections {
		if err := m.Clear(ctx, c); err != nil {
			return fmt.Errorf("clear %s: %w", c, err)
		}
	}
	return nil
}

func (m *MemStore) GetSetting(ctx context.Context, key string) (json.RawMessage, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	val, ok := m.settings[key]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(val), true, nil
}

func (m *MemStore) PutSetting(ctx context.Context, key string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode setting %q: %w", key, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	next := maps.Clone(m.settings)
	next[key] = raw
	if m.persister != nil {
		if err := m.persister.SaveSettings(next); err != nil {
			return err
		}
	}
	m.settings = next
	return nil
}

func (m *MemStore) ListSettings(ctx context.Context) (map[string]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]json.RawMessage, len(m.settings))
	for k, v := range m.settings {
		out[k] = slices.Clone(v)
	}
	return out, nil
}

// Close is a no-op; every write has already reached disk.
func (m *MemStore) Close() error {
	return nil
}

// commit persists next and swaps it in. It MUST be called while holding m.mu.Lock.
func (m *MemStore) commit(c schema.Collection, next *collection) error {
	if m.persister != nil {
		if err := m.persister.SaveCollection(c, next.state()); err != nil {
			return err
		}
	}
	m.logs[c] = next
	return nil
}
