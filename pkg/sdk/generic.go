package sdk

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/celerix-dev/circadian-store/pkg/schema"
)

// --- Generics Support ---

// As narrows a fetched sequence to one record variant, e.g. As[*schema.SleepLog].
// Records of other variants are skipped.
func As[T schema.Record](recs []schema.Record) []T {
	out := make([]T, 0, len(recs))
	for _, r := range recs {
		if v, ok := r.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

// FetchRange reads a date range of one collection as typed records.
func FetchRange[T schema.Record](ctx context.Context, s RecordReader, c schema.Collection, start, end string) ([]T, error) {
	recs, err := s.FetchByDateRange(ctx, c, start, end)
	if err != nil {
		return nil, err
	}
	return As[T](recs), nil
}

// FetchDate reads one date of one collection as typed records.
func FetchDate[T schema.Record](ctx context.Context, s RecordReader, c schema.Collection, date string) ([]T, error) {
	recs, err := s.FetchByDate(ctx, c, date)
	if err != nil {
		return nil, err
	}
	return As[T](recs), nil
}

// GetSetting retrieves a type-safe setting using Go generics.
// It handles JSON unmarshaling into the target type automatically.
func GetSetting[T any](ctx context.Context, s SettingsStore, key string) (T, bool, error) {
	var target T
	raw, ok, err := s.GetSetting(ctx, key)
	if err != nil || !ok {
		return target, ok, err
	}
	if err := json.Unmarshal(raw, &target); err != nil {
		return target, true, fmt.Errorf("decode setting %q: %w", key, err)
	}
	return target, true, nil
}

// PutSetting stores a type-safe setting using Go generics.
func PutSetting[T any](ctx context.Context, s SettingsStore, key string, val T) error {
	return s.PutSetting(ctx, key, val)
}
