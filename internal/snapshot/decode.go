package snapshot

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/celerix-dev/circadian-store/pkg/schema"
)

type document struct {
	ExportDate time.Time                  `json:"exportDate"`
	Version    int                        `json:"version"`
	Data       map[string]json.RawMessage `json:"data"`
}

// Decode parses and checks a snapshot document without touching any store.
// Malformed JSON, unknown collections and invalid records yield ErrParse;
// a version above CurrentVersion yields ErrUnsupportedVersion. A missing
// version is read as CurrentVersion.
func Decode(r io.Reader) (Snapshot, error) {
	var doc document
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if doc.Data == nil {
		return Snapshot{}, fmt.Errorf("%w: missing data", ErrParse)
	}
	if doc.Version == 0 {
		doc.Version = CurrentVersion
	}
	if doc.Version < 0 || doc.Version > CurrentVersion {
		return Snapshot{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}

	snap := Snapshot{ExportDate: doc.ExportDate, Version: doc.Version}
	for name, raw := range doc.Data {
		c, err := schema.ParseCollection(name)
		if err != nil {
			return Snapshot{}, fmt.Errorf("%w: %v", ErrParse, err)
		}
		switch c {
		case schema.Sleep:
			err = decodeList(raw, c, &snap.Data.Sleep)
		case schema.Supplements:
			err = decodeList(raw, c, &snap.Data.Supplements)
		case schema.Exercise:
			err = decodeList(raw, c, &snap.Data.Exercise)
		case schema.Health:
			err = decodeList(raw, c, &snap.Data.Health)
		case schema.Notes:
			err = decodeList(raw, c, &snap.Data.Notes)
		}
		if err != nil {
			return Snapshot{}, err
		}
	}
	return snap, nil
}

func decodeList[T any, P interface {
	*T
	schema.Record
}](raw json.RawMessage, c schema.Collection, dst *[]P) error {
	var list []P
	if err := json.Unmarshal(raw, &list); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrParse, c, err)
	}
	for i, rec := range list {
		if rec == nil {
			return fmt.Errorf("%w: %s[%d] is null", ErrParse, c, i)
		}
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("%w: %s[%d]: %v", ErrParse, c, i, err)
		}
	}
	*dst = list
	return nil
}

// ReadFile decodes the snapshot stored at path.
func ReadFile(path string) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, err
	}
	defer f.Close()
	return Decode(f)
}
