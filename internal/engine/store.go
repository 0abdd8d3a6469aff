// Package engine implements the record stores behind Circadian.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/celerix-dev/circadian-store/pkg/schema"
)

var (
	// ErrStorage is returned when the storage medium is unavailable, full or corrupt.
	ErrStorage = errors.New("storage fault")
	// ErrUnknownCollection is returned for collection names outside the log collections.
	ErrUnknownCollection = errors.New("unknown collection")
)

// Store is the contract shared by every record store backend.
// Operations are atomic per record; nothing spans collections.
type Store interface {
	Insert(ctx context.Context, rec schema.Record) (int64, error)
	Replace(ctx context.Context, rec schema.Record) error
	Delete(ctx context.Context, c schema.Collection, id int64) error

	FetchAll(ctx context.Context, c schema.Collection) ([]schema.Record, error)
	FetchByDate(ctx context.Context, c schema.Collection, date string) ([]schema.Record, error)
	FetchByDateRange(ctx context.Context, c schema.Collection, start, end string) ([]schema.Record, error)

	Clear(ctx context.Context, c schema.Collection) error
	ClearAll(ctx context.Context) error

	GetSetting(ctx context.Context, key string) (json.RawMessage, bool, error)
	PutSetting(ctx context.Context, key string, value any) error
	ListSettings(ctx context.Context) (map[string]json.RawMessage, error)

	Close() error
}

// Option configures a store backend.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock sets the clock used to fill missing dates and timestamps.
// The clock's location decides what "today" is.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// prepare copies rec and fills the date and timestamp defaults before validating it.
func prepare(rec schema.Record, now time.Time) (schema.Record, error) {
	if rec == nil {
		return nil, schema.ErrInvalidRecord
	}
	if !rec.Collection().Valid() {
		return nil, ErrUnknownCollection
	}
	stored := rec.Clone()
	meta := stored.Meta()
	if meta.Date == "" {
		meta.Date = schema.FormatDate(now)
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = now.UTC()
	}
	if err := stored.Validate(); err != nil {
		return nil, err
	}
	return stored, nil
}

func checkCollection(c schema.Collection) error {
	if !c.Valid() {
		return ErrUnknownCollection
	}
	return nil
}
