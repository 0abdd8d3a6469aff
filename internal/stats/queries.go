package stats

import (
	"context"
	"fmt"
	"math"

	"github.com/celerix-dev/circadian-store/pkg/schema"
	"github.com/celerix-dev/circadian-store/pkg/sdk"
)

// SleepStats summarizes sleep logs in a window.
type SleepStats struct {
	AvgDuration int                `json:"avgDuration"` // minutes
	AvgQuality  Decimal            `json:"avgQuality"`
	TotalLogs   int                `json:"totalLogs"`
	Logs        []*schema.SleepLog `json:"logs"`
}

// SleepStats averages duration and quality over the window.
// ok is false when the window holds no sleep logs.
func (e *Engine) SleepStats(ctx context.Context, days int) (SleepStats, bool, error) {
	start, end := e.Window(days)
	logs, err := sdk.FetchRange[*schema.SleepLog](ctx, e.store, schema.Sleep, start, end)
	if err != nil {
		return SleepStats{}, false, fmt.Errorf("sleep stats: %w", err)
	}
	if len(logs) == 0 {
		return SleepStats{}, false, nil
	}

	durations := make([]int, 0, len(logs))
	qualities := make([]int, 0, len(logs))
	for _, l := range logs {
		durations = append(durations, l.Duration)
		qualities = append(qualities, l.Quality)
	}
	return SleepStats{
		AvgDuration: int(math.Round(mean(durations))),
		AvgQuality:  Round1(mean(qualities)),
		TotalLogs:   len(logs),
		Logs:        logs,
	}, true, nil
}

// SupplementAdherence is the rounded percentage of supplement entries marked
// taken. An empty window yields 0.
func (e *Engine) SupplementAdherence(ctx context.Context, days int) (int, error) {
	start, end := e.Window(days)
	logs, err := sdk.FetchRange[*schema.SupplementLog](ctx, e.store, schema.Supplements, start, end)
	if err != nil {
		return 0, fmt.Errorf("supplement adherence: %w", err)
	}
	if len(logs) == 0 {
		return 0, nil
	}
	taken := 0
	for _, l := range logs {
		if l.Taken {
			taken++
		}
	}
	return int(math.Round(float64(taken) / float64(len(logs)) * 100)), nil
}

// ExerciseStats summarizes exercise sessions in a window.
type ExerciseStats struct {
	DaysExercised int                   `json:"daysExercised"`
	TotalMinutes  int                   `json:"totalMinutes"`
	TotalSessions int                   `json:"totalSessions"`
	Logs          []*schema.ExerciseLog `json:"logs"`
}

// ExerciseStats counts distinct exercise days, minutes and sessions.
// An empty window yields zeros.
func (e *Engine) ExerciseStats(ctx context.Context, days int) (ExerciseStats, error) {
	start, end := e.Window(days)
	logs, err := sdk.FetchRange[*schema.ExerciseLog](ctx, e.store, schema.Exercise, start, end)
	if err != nil {
		return ExerciseStats{}, fmt.Errorf("exercise stats: %w", err)
	}

	dates := make(map[string]struct{}, len(logs))
	total := 0
	for _, l := range logs {
		dates[l.Date] = struct{}{}
		total += l.Duration
	}
	return ExerciseStats{
		DaysExercised: len(dates),
		TotalMinutes:  total,
		TotalSessions: len(logs),
		Logs:          logs,
	}, nil
}

// HealthTrends averages the subjective scores in a window.
type HealthTrends struct {
	AvgMood   Decimal             `json:"avgMood"`
	AvgEnergy Decimal             `json:"avgEnergy"`
	AvgStress Decimal             `json:"avgStress"`
	Logs      []*schema.HealthLog `json:"logs"`
}

// HealthTrends averages mood, energy and stress, each over the entries where
// that field is present; a field with no values averages to 0.
// ok is false only when the window holds no health logs at all.
func (e *Engine) HealthTrends(ctx context.Context, days int) (HealthTrends, bool, error) {
	start, end := e.Window(days)
	logs, err := sdk.FetchRange[*schema.HealthLog](ctx, e.store, schema.Health, start, end)
	if err != nil {
		return HealthTrends{}, false, fmt.Errorf("health trends: %w", err)
	}
	if len(logs) == 0 {
		return HealthTrends{}, false, nil
	}

	var mood, energy, stress []int
	for _, l := range logs {
		if l.Mood != nil {
			mood = append(mood, *l.Mood)
		}
		if l.Energy != nil {
			energy = append(energy, *l.Energy)
		}
		if l.Stress != nil {
			stress = append(stress, *l.Stress)
		}
	}
	return HealthTrends{
		AvgMood:   Round1(mean(mood)),
		AvgEnergy: Round1(mean(energy)),
		AvgStress: Round1(mean(stress)),
		Logs:      logs,
	}, true, nil
}

// DailyMetrics is everything logged on one date.
type DailyMetrics struct {
	Date        string                  `json:"date"`
	Sleep       *schema.SleepLog        `json:"sleep"`
	Supplements []*schema.SupplementLog `json:"supplements"`
	Exercise    []*schema.ExerciseLog   `json:"exercise"`
	Health      *schema.HealthLog       `json:"health"`
}

// DailyMetrics gathers one date's records. Sleep and health take the first
// matching entry; an empty date means today.
func (e *Engine) DailyMetrics(ctx context.Context, date string) (DailyMetrics, error) {
	if date == "" {
		date = e.Today()
	}
	out := DailyMetrics{Date: date}

	sleep, err := sdk.FetchDate[*schema.SleepLog](ctx, e.store, schema.Sleep, date)
	if err != nil {
		return out, fmt.Errorf("daily metrics: %w", err)
	}
	if out.Supplements, err = sdk.FetchDate[*schema.SupplementLog](ctx, e.store, schema.Supplements, date); err != nil {
		return out, fmt.Errorf("daily metrics: %w", err)
	}
	if out.Exercise, err = sdk.FetchDate[*schema.ExerciseLog](ctx, e.store, schema.Exercise, date); err != nil {
		return out, fmt.Errorf("daily metrics: %w", err)
	}
	health, err := sdk.FetchDate[*schema.HealthLog](ctx, e.store, schema.Health, date)
	if err != nil {
		return out, fmt.Errorf("daily metrics: %w", err)
	}

	if len(sleep) > 0 {
		out.Sleep = sleep[0]
	}
	if len(health) > 0 {
		out.Health = health[0]
	}
	return out, nil
}
