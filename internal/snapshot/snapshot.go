// Package snapshot exports the whole log as one portable JSON document and
// imports such documents back into a store.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/celerix-dev/circadian-store/internal/engine"
	"github.com/celerix-dev/circadian-store/pkg/schema"
	"github.com/celerix-dev/circadian-store/pkg/sdk"
)

// CurrentVersion is the snapshot format written by Export.
const CurrentVersion = 1

var (
	// ErrParse is returned when a document is not a well-formed snapshot.
	ErrParse = errors.New("malformed snapshot")
	// ErrUnsupportedVersion is returned for snapshots newer than CurrentVersion.
	ErrUnsupportedVersion = errors.New("unsupported snapshot version")
)

// PartialImportError reports an import that stopped part way. The first
// Inserted records of the snapshot are in the store.
type PartialImportError struct {
	Inserted int
	Total    int
	Err      error
}

func (e *PartialImportError) Error() string {
	return fmt.Sprintf("import stopped after %d of %d records: %v", e.Inserted, e.Total, e.Err)
}

func (e *PartialImportError) Unwrap() error { return e.Err }

// Snapshot is the exported form of every log collection. Settings are not part of it.
type Snapshot struct {
	ExportDate time.Time `json:"exportDate"`
	Version    int       `json:"version"`
	Data       Data      `json:"data"`
}

// Data holds one array per log collection.
type Data struct {
	Sleep       []*schema.SleepLog      `json:"sleep"`
	Supplements []*schema.SupplementLog `json:"supplements"`
	Exercise    []*schema.ExerciseLog   `json:"exercise"`
	Health      []*schema.HealthLog     `json:"health"`
	Notes       []*schema.Note          `json:"notes"`
}

// Records flattens the snapshot in import order: sleep, supplements,
// exercise, health, notes.
func (s *Snapshot) Records() []schema.Record {
	out := make([]schema.Record, 0, s.Len())
	for _, r := range s.Data.Sleep {
		out = append(out, r)
	}
	for _, r := range s.Data.Supplements {
		out = append(out, r)
	}
	for _, r := range s.Data.Exercise {
		out = append(out, r)
	}
	for _, r := range s.Data.Health {
		out = append(out, r)
	}
	for _, r := range s.Data.Notes {
		out = append(out, r)
	}
	return out
}

// Len counts the records across all collections.
func (s *Snapshot) Len() int {
	d := s.Data
	return len(d.Sleep) + len(d.Supplements) + len(d.Exercise) + len(d.Health) + len(d.Notes)
}

// Export reads every log collection from src.
func Export(ctx context.Context, src sdk.RecordReader) (Snapshot, error) {
	snap := Snapshot{ExportDate: time.Now().UTC(), Version: CurrentVersion}

	var err error
	if snap.Data.Sleep, err = fetch[*schema.SleepLog](ctx, src, schema.Sleep); err != nil {
		return Snapshot{}, err
	}
	if snap.Data.Supplements, err = fetch[*schema.SupplementLog](ctx, src, schema.Supplements); err != nil {
		return Snapshot{}, err
	}
	if snap.Data.Exercise, err = fetch[*schema.ExerciseLog](ctx, src, schema.Exercise); err != nil {
		return Snapshot{}, err
	}
	if snap.Data.Health, err = fetch[*schema.HealthLog](ctx, src, schema.Health); err != nil {
		return Snapshot{}, err
	}
	if snap.Data.Notes, err = fetch[*schema.Note](ctx, src, schema.Notes); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func fetch[T schema.Record](ctx context.Context, src sdk.RecordReader, c schema.Collection) ([]T, error) {
	recs, err := src.FetchAll(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", c, err)
	}
	return sdk.As[T](recs), nil
}

// Import inserts every record of snap into dst as a new record. Stored ids
// are discarded and dst assigns fresh ones; dates and timestamps are kept.
// Existing data is not cleared. On failure the records inserted so far stay
// and the error is a *PartialImportError.
func Import(ctx context.Context, dst sdk.RecordWriter, snap Snapshot) (int, error) {
	recs := snap.Records()
	for i, r := range recs {
		rec := r.Clone()
		rec.Meta().ID = 0
		if _, err := dst.Insert(ctx, rec); err != nil {
			return i, &PartialImportError{Inserted: i, Total: len(recs), Err: err}
		}
	}
	return len(recs), nil
}

// WriteFile stores snap at path, replacing any previous file atomically.
func WriteFile(path string, snap Snapshot) error {
	if err := engine.WriteFileAtomic(path, snap); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// DefaultFileName is the conventional export file name for a date.
func DefaultFileName(t time.Time) string {
	return "circadian-" + schema.FormatDate(t) + ".json"
}
