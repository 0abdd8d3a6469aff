package engine

import (
	"context"
	"fmt"

	"github.com/celerix-dev/circadian-store/pkg/schema"
)

// Migrate takes data from a source store and pushes it to a destination store.
// Record ids are preserved, so running it twice converges instead of duplicating.
// This works for:
// - JSON files -> SQLite (the "Upgrade")
// - SQLite -> JSON files (the "Backup/Offline")
func Migrate(ctx context.Context, src, dst Store) (int, error) {
	copied := 0
	for _, c := range schema.LogCollections {
		records, err := src.FetchAll(ctx, c)
		if err != nil {
			return copied, fmt.Errorf("failed to list %s: %w", c, err)
		}
		for _, rec := range records {
			if err := dst.Replace(ctx, rec); err != nil {
				return copied, fmt.Errorf("failed to copy %s/%d: %w", c, rec.Meta().ID, err)
			}
			copied++
		}
	}

	settings, err := src.ListSettings(ctx)
	if err != nil {
		return copied, fmt.Errorf("failed to list settings: %w", err)
	}
	for key, val := range settings {
		if err := dst.PutSetting(ctx, key, val); err != nil {
			return copied, fmt.Errorf("failed to set %q in destination: %w", key, err)
		}
	}
	return copied, nil
}
