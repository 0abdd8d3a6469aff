package sdk

import (
	"fmt"

	"github.com/celerix-dev/circadian-store/internal/engine"
)

// Backend selects the storage medium behind a RecordStore.
type Backend string

const (
	// BackendJSON keeps one JSON file per collection in a data directory.
	BackendJSON Backend = "json"
	// BackendSQLite keeps every collection in a single SQLite database file.
	BackendSQLite Backend = "sqlite"
)

// Open initializes the store for the given backend.
// It returns the Interface, so the app doesn't care which medium is underneath.
// location is a directory for BackendJSON and a database file for BackendSQLite.
func Open(backend Backend, location string, opts ...engine.Option) (RecordStore, error) {
	switch backend {
	case BackendSQLite:
		s, err := engine.NewSQLiteStore(location, opts...)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendJSON, "":
		s, err := engine.OpenMemStore(location, opts...)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}
