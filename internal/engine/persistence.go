package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/celerix-dev/circadian-store/pkg/schema"
)

// State is the full contents of a MemStore as loaded from disk.
type State struct {
	Collections map[schema.Collection]*CollectionState
	Settings    map[string]json.RawMessage
}

// CollectionState is one log collection plus its key generator.
type CollectionState struct {
	NextID  int64
	Records []schema.Record
}

// collectionFile is the on-disk layout of <collection>.json.
type collectionFile struct {
	NextID  int64             `json:"next_id"`
	Records []json.RawMessage `json:"records"`
}

// Persistence handles the disk I/O for the MemStore
type Persistence struct {
	DataDir string
	mu      sync.Mutex // Protects concurrent writes to the filesystem
}

// NewPersistence initializes a persistence handler.
func NewPersistence(dir string) (*Persistence, error) {
	// Ensure the data directory exists
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create data dir: %w", ErrStorage, err)
	}
	return &Persistence{DataDir: dir}, nil
}

// SaveCollection writes one collection file atomically.
func (p *Persistence) SaveCollection(c schema.Collection, state *CollectionState) error {
	file := collectionFile{NextID: state.NextID, Records: make([]json.RawMessage, 0, len(state.Records))}
	for _, rec := range state.Records {
		raw, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("%w: encode %s record: %w", ErrStorage, c, err)
		}
		file.Records = append(file.Records, raw)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := WriteFileAtomic(p.path(string(c)), file); err != nil {
		return fmt.Errorf("%w: save %s: %w", ErrStorage, c, err)
	}
	return nil
}

// SaveSettings writes the settings file atomically.
func (p *Persistence) SaveSettings(settings map[string]json.RawMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := WriteFileAtomic(p.path(string(schema.Settings)), settings); err != nil {
		return fmt.Errorf("%w: save settings: %w", ErrStorage, err)
	}
	return nil
}

// LoadAll reads every collection file found in the data directory.
// Missing files load as empty collections; unreadable ones are a storage fault.
func (p *Persistence) LoadAll() (*State, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	state := &State{
		Collections: make(map[schema.Collection]*CollectionState, len(schema.LogCollections)),
		Settings:    make(map[string]json.RawMessage),
	}

	for _, c := range schema.LogCollections {
		content, err := os.ReadFile(p.path(string(c)))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", ErrStorage, c, err)
		}

		var file collectionFile
		if err := json.Unmarshal(content, &file); err != nil {
			return nil, fmt.Errorf("%w: corrupt %s file: %w", ErrStorage, c, err)
		}
		cs := &CollectionState{NextID: file.NextID, Records: make([]schema.Record, 0, len(file.Records))}
		for _, raw := range file.Records {
			rec := c.New()
			if err := json.Unmarshal(raw, rec); err != nil {
				return nil, fmt.Errorf("%w: corrupt %s record: %w", ErrStorage, c, err)
			}
			cs.Records = append(cs.Records, rec)
		}
		state.Collections[c] = cs
	}

	content, err := os.ReadFile(p.path(string(schema.Settings)))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("%w: read settings: %w", ErrStorage, err)
	default:
		if err := json.Unmarshal(content, &state.Settings); err != nil {
			return nil, fmt.Errorf("%w: corrupt settings file: %w", ErrStorage, err)
		}
	}
	return state, nil
}

func (p *Persistence) path(name string) string {
	return filepath.Join(p.DataDir, name+".json")
}

// WriteFileAtomic encodes v as indented JSON and swaps it into place.
// A crash leaves either the old file or the new one, never a torn write.
func WriteFileAtomic(path string, v any) error {
	bytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, bytes, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return err
	}
	return nil
}
