// Package stats derives rolling-window statistics from the record store.
//
// A window of N days is the inclusive calendar range [today-N, today], where
// today is the engine clock's date in the engine's location. The functions
// deliberately differ in how they report an empty window: SleepStats and
// HealthTrends report "no data" (ok=false), while SupplementAdherence and
// ExerciseStats report zeros.
package stats

import (
	"encoding/json"
	"math"
	"strconv"
	"time"

	"github.com/celerix-dev/circadian-store/pkg/schema"
	"github.com/celerix-dev/circadian-store/pkg/sdk"
)

// DefaultWindow is the number of trailing days used when none is given.
const DefaultWindow = 7

// Source is what the engine reads from.
type Source interface {
	sdk.RecordReader
	sdk.SettingsStore
}

// Engine computes statistics over a Source.
type Engine struct {
	store Source
	now   func() time.Time
	loc   *time.Location
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock that decides "today".
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLocation sets the timezone in which calendar dates are computed.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// New builds an Engine reading from store.
func New(store Source, opts ...Option) *Engine {
	e := &Engine{store: store, now: time.Now, loc: time.Local}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Today returns the engine's current calendar date.
func (e *Engine) Today() string {
	return schema.FormatDate(e.now().In(e.loc))
}

// Window returns the inclusive date bounds of a trailing window of days.
// Negative values fall back to DefaultWindow.
func (e *Engine) Window(days int) (start, end string) {
	if days < 0 {
		days = DefaultWindow
	}
	today := e.now().In(e.loc)
	return schema.FormatDate(today.AddDate(0, 0, -days)), schema.FormatDate(today)
}

// Decimal is a value rounded to one decimal place. It renders as "8.0".
type Decimal float64

// Round1 rounds v to one decimal place.
func Round1(v float64) Decimal {
	return Decimal(math.Round(v*10) / 10)
}

func (d Decimal) String() string {
	return strconv.FormatFloat(float64(d), 'f', 1, 64)
}

// MarshalJSON encodes the value as a fixed one-decimal string.
func (d Decimal) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts both the string form and a bare number.
func (d *Decimal) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*d = Decimal(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*d = Decimal(v)
	return nil
}

// mean averages values; it is 0 for an empty input.
func mean(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}
