// Package sdk is the consumer-facing surface of the Circadian store.
// Presentation code (the HTTP API, the CLI) depends on these interfaces only.
package sdk

import (
	"context"
	"encoding/json"

	"github.com/celerix-dev/circadian-store/internal/engine"
	"github.com/celerix-dev/circadian-store/pkg/schema"
)

var (
	// ErrStorage is returned when the storage medium is unavailable, full or corrupt.
	ErrStorage = engine.ErrStorage
	// ErrUnknownCollection is returned for collection names outside the log collections.
	ErrUnknownCollection = engine.ErrUnknownCollection
	// ErrInvalidRecord is returned when a record fails validation.
	ErrInvalidRecord = schema.ErrInvalidRecord
)

// --- Functional Interfaces (Interface Segregation) ---

// RecordReader defines the read operations on log collections.
type RecordReader interface {
	FetchAll(ctx context.Context, c schema.Collection) ([]schema.Record, error)
	FetchByDate(ctx context.Context, c schema.Collection, date string) ([]schema.Record, error)
	FetchByDateRange(ctx context.Context, c schema.Collection, start, end string) ([]schema.Record, error)
}

// RecordWriter defines the write and delete operations on log collections.
type RecordWriter interface {
	Insert(ctx context.Context, rec schema.Record) (int64, error)
	Replace(ctx context.Context, rec schema.Record) error
	Delete(ctx context.Context, c schema.Collection, id int64) error
}

// Clearer empties log collections in bulk.
type Clearer interface {
	Clear(ctx context.Context, c schema.Collection) error
	ClearAll(ctx context.Context) error
}

// SettingsStore reads and writes the flat settings map.
type SettingsStore interface {
	GetSetting(ctx context.Context, key string) (json.RawMessage, bool, error)
	PutSetting(ctx context.Context, key string, value any) error
	ListSettings(ctx context.Context) (map[string]json.RawMessage, error)
}

// --- Composite Interfaces ---

// RecordStore is the primary interface for interacting with the data store.
// It combines all functional interfaces for a complete storage experience.
type RecordStore interface {
	RecordReader
	RecordWriter
	Clearer
	SettingsStore
	Close() error
}

var (
	_ RecordStore = (*engine.MemStore)(nil)
	_ RecordStore = (*engine.SQLiteStore)(nil)
	_ RecordStore = engine.Store(nil)
)
