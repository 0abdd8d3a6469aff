package metrics

import (
	"context"
	"encoding/json"

	"github.com/celerix-dev/circadian-store/pkg/schema"
	"github.com/celerix-dev/circadian-store/pkg/sdk"
)

// Store decorates a RecordStore with per-operation counters.
type Store struct {
	sdk.RecordStore
	m *Metrics
}

// InstrumentStore wraps s so that every operation is counted on m.
func InstrumentStore(s sdk.RecordStore, m *Metrics) *Store {
	return &Store{RecordStore: s, m: m}
}

func (s *Store) Insert(ctx context.Context, rec schema.Record) (int64, error) {
	id, err := s.RecordStore.Insert(ctx, rec)
	s.m.observeStore(string(rec.Collection()), "insert", err)
	return id, err
}

func (s *Store) Replace(ctx context.Context, rec schema.Record) error {
	err := s.RecordStore.Replace(ctx, rec)
	s.m.observeStore(string(rec.Collection()), "replace", err)
	return err
}

func (s *Store) Delete(ctx context.Context, c schema.Collection, id int64) error {
	err := s.RecordStore.Delete(ctx, c, id)
	s.m.observeStore(string(c), "delete", err)
	return err
}

func (s *Store) FetchAll(ctx context.Context, c schema.Collection) ([]schema.Record, error) {
	recs, err := s.RecordStore.FetchAll(ctx, c)
	s.m.observeStore(string(c), "fetch_all", err)
	return recs, err
}

func (s *Store) FetchByDate(ctx context.Context, c schema.Collection, date string) ([]schema.Record, error) {
	recs, err := s.RecordStore.FetchByDate(ctx, c, date)
	s.m.observeStore(string(c), "fetch_date", err)
	return recs, err
}

func (s *Store) FetchByDateRange(ctx context.Context, c schema.Collection, start, end string) ([]schema.Record, error) {
	recs, err := s.RecordStore.FetchByDateRange(ctx, c, start, end)
	s.m.observeStore(string(c), "fetch_range", err)
	return recs, err
}

func (s *Store) Clear(ctx context.Context, c schema.Collection) error {
	err := s.RecordStore.Clear(ctx, c)
	s.m.observeStore(string(c), "clear", err)
	return err
}

func (s *Store) ClearAll(ctx context.Context) error {
	err := s.RecordStore.ClearAll(ctx)
	s.m.observeStore("all", "clear", err)
	return err
}

func (s *Store) GetSetting(ctx context.Context, key string) (json.RawMessage, bool, error) {
	raw, ok, err := s.RecordStore.GetSetting(ctx, key)
	s.m.observeStore(string(schema.Settings), "get", err)
	return raw, ok, err
}

func (s *Store) PutSetting(ctx context.Context, key string, value any) error {
	err := s.RecordStore.PutSetting(ctx, key, value)
	s.m.observeStore(string(schema.Settings), "put", err)
	return err
}
