package schema

// SleepLog records one sleep period.
type SleepLog struct {
	Entry
	BedTime       string `json:"bedTime"`
	WakeTime      string `json:"wakeTime"`
	Duration      int    `json:"duration"` // minutes
	Quality       int    `json:"quality"`  // 1-10
	Interruptions int    `json:"interruptions"`
	Notes         string `json:"notes"`
}

func (s *SleepLog) Collection() Collection { return Sleep }

func (s *SleepLog) Validate() error {
	if err := s.Entry.validate(); err != nil {
		return err
	}
	if !ValidClock(s.BedTime) {
		return invalid("bedTime %q is not HH:MM", s.BedTime)
	}
	if !ValidClock(s.WakeTime) {
		return invalid("wakeTime %q is not HH:MM", s.WakeTime)
	}
	if s.Duration < 0 {
		return invalid("duration must not be negative")
	}
	if err := checkScale("quality", s.Quality); err != nil {
		return err
	}
	if s.Interruptions < 0 {
		return invalid("interruptions must not be negative")
	}
	return nil
}

func (s *SleepLog) Clone() Record {
	c := *s
	return &c
}

// SupplementLog records one intake of one or more supplements.
type SupplementLog struct {
	Entry
	Supplements []string `json:"supplements"`
	Time        string   `json:"time"`
	Taken       bool     `json:"taken"`
	Notes       string   `json:"notes"`
}

func (s *SupplementLog) Collection() Collection { return Supplements }

func (s *SupplementLog) Validate() error {
	if err := s.Entry.validate(); err != nil {
		return err
	}
	if s.Time != "" && !ValidClock(s.Time) {
		return invalid("time %q is not HH:MM", s.Time)
	}
	return nil
}

func (s *SupplementLog) Clone() Record {
	c := *s
	c.Supplements = cloneStrings(s.Supplements)
	return &c
}

// ExerciseType classifies an exercise session.
type ExerciseType string

const (
	Cardio      ExerciseType = "cardio"
	Strength    ExerciseType = "strength"
	Flexibility ExerciseType = "flexibility"
	Mixed       ExerciseType = "mixed"
)

// Intensity grades the effort of an exercise session.
type Intensity string

const (
	Low    Intensity = "low"
	Medium Intensity = "medium"
	High   Intensity = "high"
)

// ExerciseLog records one exercise session.
type ExerciseLog struct {
	Entry
	Type      ExerciseType `json:"type"`
	Duration  int          `json:"duration"` // minutes
	Intensity Intensity    `json:"intensity"`
	Notes     string       `json:"notes"`
}

func (e *ExerciseLog) Collection() Collection { return Exercise }

func (e *ExerciseLog) Validate() error {
	if err := e.Entry.validate(); err != nil {
		return err
	}
	switch e.Type {
	case Cardio, Strength, Flexibility, Mixed:
	default:
		return invalid("unknown exercise type %q", e.Type)
	}
	switch e.Intensity {
	case Low, Medium, High:
	default:
		return invalid("unknown intensity %q", e.Intensity)
	}
	if e.Duration < 0 {
		return invalid("duration must not be negative")
	}
	return nil
}

func (e *ExerciseLog) Clone() Record {
	c := *e
	return &c
}

// BloodPressure is a systolic/diastolic reading in mmHg.
type BloodPressure struct {
	Systolic  int `json:"systolic"`
	Diastolic int `json:"diastolic"`
}

// HealthLog records the day's health metrics. Nil fields were not measured.
type HealthLog struct {
	Entry
	Weight        *float64       `json:"weight"` // kg
	BloodPressure *BloodPressure `json:"bloodPressure"`
	HeartRate     *int           `json:"heartRate"`
	Mood          *int           `json:"mood"`
	Energy        *int           `json:"energy"`
	Stress        *int           `json:"stress"`
	Symptoms      []string       `json:"symptoms"`
	Notes         string         `json:"notes"`
}

func (h *HealthLog) Collection() Collection { return Health }

func (h *HealthLog) Validate() error {
	if err := h.Entry.validate(); err != nil {
		return err
	}
	if h.Weight != nil && *h.Weight <= 0 {
		return invalid("weight must be positive")
	}
	if bp := h.BloodPressure; bp != nil && (bp.Systolic <= 0 || bp.Diastolic <= 0) {
		return invalid("blood pressure must be positive")
	}
	if h.HeartRate != nil && *h.HeartRate <= 0 {
		return invalid("heart rate must be positive")
	}
	for name, v := range map[string]*int{"mood": h.Mood, "energy": h.Energy, "stress": h.Stress} {
		if v == nil {
			continue
		}
		if err := checkScale(name, *v); err != nil {
			return err
		}
	}
	return nil
}

func (h *HealthLog) Clone() Record {
	c := *h
	if h.Weight != nil {
		w := *h.Weight
		c.Weight = &w
	}
	if h.BloodPressure != nil {
		bp := *h.BloodPressure
		c.BloodPressure = &bp
	}
	c.HeartRate = cloneInt(h.HeartRate)
	c.Mood = cloneInt(h.Mood)
	c.Energy = cloneInt(h.Energy)
	c.Stress = cloneInt(h.Stress)
	c.Symptoms = cloneStrings(h.Symptoms)
	return &c
}

// Note is a free-form journal entry.
type Note struct {
	Entry
	Text string `json:"text"`
}

func (n *Note) Collection() Collection { return Notes }

func (n *Note) Validate() error {
	return n.Entry.validate()
}

func (n *Note) Clone() Record {
	c := *n
	return &c
}

// Int returns a pointer to v, for filling optional HealthLog fields.
func Int(v int) *int { return &v }

// Float returns a pointer to v, for filling optional HealthLog fields.
func Float(v float64) *float64 { return &v }

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func checkScale(name string, v int) error {
	if v < 1 || v > 10 {
		return invalid("%s must be between 1 and 10, got %d", name, v)
	}
	return nil
}
