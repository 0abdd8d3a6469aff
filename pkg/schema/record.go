// Package schema defines the log records kept by the Circadian store.
package schema

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRecord is returned when a record fails validation.
var ErrInvalidRecord = errors.New("invalid record")

// Collection names a group of same-shaped records.
type Collection string

const (
	Sleep       Collection = "sleep"
	Supplements Collection = "supplements"
	Exercise    Collection = "exercise"
	Health      Collection = "health"
	Notes       Collection = "notes"
)

// Settings is the reserved collection holding the key/value settings map.
// It is not a log collection and is never cleared by ClearAll.
const Settings Collection = "settings"

// LogCollections lists every log collection in export order.
var LogCollections = []Collection{Sleep, Supplements, Exercise, Health, Notes}

// ParseCollection resolves a collection name, rejecting settings and unknown names.
func ParseCollection(name string) (Collection, error) {
	c := Collection(name)
	if !c.Valid() {
		return "", fmt.Errorf("unknown collection %q", name)
	}
	return c, nil
}

// Valid reports whether c is one of the log collections.
func (c Collection) Valid() bool {
	for _, known := range LogCollections {
		if c == known {
			return true
		}
	}
	return false
}

// New returns an empty record of the variant stored in c, or nil for unknown collections.
func (c Collection) New() Record {
	switch c {
	case Sleep:
		return &SleepLog{}
	case Supplements:
		return &SupplementLog{}
	case Exercise:
		return &ExerciseLog{}
	case Health:
		return &HealthLog{}
	case Notes:
		return &Note{}
	}
	return nil
}

// Entry carries the attributes shared by every log record.
type Entry struct {
	ID        int64     `json:"id,omitempty"`
	Date      string    `json:"date"`
	Timestamp time.Time `json:"timestamp"`
}

// Meta gives stores access to the shared attributes of a record.
func (e *Entry) Meta() *Entry { return e }

func (e *Entry) validate() error {
	if !ValidDate(e.Date) {
		return invalid("date %q is not YYYY-MM-DD", e.Date)
	}
	if e.ID < 0 {
		return invalid("id must not be negative")
	}
	return nil
}

// Record is implemented by every log variant.
type Record interface {
	// Collection names the collection the record belongs to.
	Collection() Collection
	// Meta returns a pointer to the record's id, date and timestamp.
	Meta() *Entry
	// Validate checks field ranges and formats.
	Validate() error
	// Clone returns a deep copy.
	Clone() Record
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRecord, fmt.Sprintf(format, args...))
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
