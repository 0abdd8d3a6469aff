package stats

import (
	"context"
	"fmt"

	"github.com/celerix-dev/circadian-store/pkg/schema"
	"github.com/celerix-dev/circadian-store/pkg/sdk"
)

const (
	// ExerciseTargetSetting holds the weekly exercise-day goal.
	ExerciseTargetSetting = "exercise_target"
	// DefaultExerciseTarget is used while ExerciseTargetSetting is unset.
	DefaultExerciseTarget = 5
)

// Dashboard is the summary card set: the four window statistics plus the
// figures derived from them.
type Dashboard struct {
	Days                int           `json:"days"`
	Sleep               *SleepStats   `json:"sleep"`
	AvgSleepHours       *Decimal      `json:"avgSleepHours"`
	SupplementAdherence int           `json:"supplementAdherence"`
	Exercise            ExerciseStats `json:"exercise"`
	ExerciseTarget      int           `json:"exerciseTarget"`
	Health              *HealthTrends `json:"health"`
	HealthScore         *Decimal      `json:"healthScore"`
}

// Dashboard computes every summary for a window. Sections with no data are nil.
func (e *Engine) Dashboard(ctx context.Context, days int) (Dashboard, error) {
	if days < 0 {
		days = DefaultWindow
	}
	d := Dashboard{Days: days}

	sleep, ok, err := e.SleepStats(ctx, days)
	if err != nil {
		return d, err
	}
	if ok {
		d.Sleep = &sleep
		hours := Round1(float64(sleep.AvgDuration) / 60)
		d.AvgSleepHours = &hours
	}

	if d.SupplementAdherence, err = e.SupplementAdherence(ctx, days); err != nil {
		return d, err
	}
	if d.Exercise, err = e.ExerciseStats(ctx, days); err != nil {
		return d, err
	}

	target, found, err := sdk.GetSetting[int](ctx, e.store, ExerciseTargetSetting)
	if err != nil {
		return d, fmt.Errorf("dashboard: %w", err)
	}
	if !found || target <= 0 {
		target = DefaultExerciseTarget
	}
	d.ExerciseTarget = target

	health, ok, err := e.HealthTrends(ctx, days)
	if err != nil {
		return d, err
	}
	if ok {
		d.Health = &health
		score := Round1((float64(health.AvgMood) + float64(health.AvgEnergy)) / 2)
		d.HealthScore = &score
	}
	return d, nil
}

// TrendPoint is one calendar day of the sleep chart.
type TrendPoint struct {
	Date    string  `json:"date"`
	Hours   Decimal `json:"hours"`
	Quality Decimal `json:"quality"`
	Logged  bool    `json:"logged"`
}

// SleepTrend returns one point per day of the window, oldest first.
// Days with several logs sum their durations and average their quality.
func (e *Engine) SleepTrend(ctx context.Context, days int) ([]TrendPoint, error) {
	start, end := e.Window(days)
	logs, err := sdk.FetchRange[*schema.SleepLog](ctx, e.store, schema.Sleep, start, end)
	if err != nil {
		return nil, fmt.Errorf("sleep trend: %w", err)
	}

	minutes := make(map[string]int)
	qualities := make(map[string][]int)
	for _, l := range logs {
		minutes[l.Date] += l.Duration
		qualities[l.Date] = append(qualities[l.Date], l.Quality)
	}

	var points []TrendPoint
	for date := start; date <= end; {
		q, logged := qualities[date]
		points = append(points, TrendPoint{
			Date:    date,
			Hours:   Round1(float64(minutes[date]) / 60),
			Quality: Round1(mean(q)),
			Logged:  logged,
		})
		if date, err = schema.AddDays(date, 1); err != nil {
			return nil, err
		}
	}
	return points, nil
}
