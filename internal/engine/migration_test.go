package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/celerix-dev/circadian-store/pkg/schema"
)

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	src := NewMemStore(nil, nil)
	keep, _ := src.Insert(ctx, sleepOn("2024-01-01", 7))
	gone, _ := src.Insert(ctx, sleepOn("2024-01-02", 7))
	_ = src.Delete(ctx, schema.Sleep, gone)
	_, _ = src.Insert(ctx, &schema.Note{Entry: schema.Entry{Date: "2024-01-02"}, Text: "moved"})
	_ = src.PutSetting(ctx, "exercise_target", 4)

	dst, err := NewSQLiteStore(filepath.Join(t.TempDir(), "circadian.db"))
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = dst.Close() })

	n, err := Migrate(ctx, src, dst)
	if err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 records copied, got %d", n)
	}

	// Running again converges on the same ids instead of duplicating.
	if _, err := Migrate(ctx, src, dst); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}
	sleep, _ := dst.FetchAll(ctx, schema.Sleep)
	if got := ids(sleep); len(got) != 1 || got[0] != keep {
		t.Errorf("Expected sleep ids [%d], got %v", keep, got)
	}
	notes, _ := dst.FetchAll(ctx, schema.Notes)
	if len(notes) != 1 || notes[0].(*schema.Note).Text != "moved" {
		t.Errorf("Expected migrated note, got %v", notes)
	}

	val, ok, _ := dst.GetSetting(ctx, "exercise_target")
	if !ok || string(val) != "4" {
		t.Errorf("Expected migrated setting, got %s", val)
	}
}
