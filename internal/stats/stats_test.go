package stats

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celerix-dev/circadian-store/internal/engine"
	"github.com/celerix-dev/circadian-store/pkg/schema"
)

func clockAt(date string) func() time.Time {
	t, err := time.Parse(schema.DateLayout, date)
	if err != nil {
		panic(err)
	}
	t = t.Add(10 * time.Hour)
	return func() time.Time { return t }
}

func newEngine(t *testing.T, today string) (*Engine, *engine.MemStore) {
	t.Helper()
	store := engine.NewMemStore(nil, nil, engine.WithClock(clockAt(today)))
	return New(store, WithClock(clockAt(today)), WithLocation(time.UTC)), store
}

func insert(t *testing.T, s *engine.MemStore, recs ...schema.Record) {
	t.Helper()
	for _, r := range recs {
		_, err := s.Insert(context.Background(), r)
		require.NoError(t, err)
	}
}

func sleepLog(date string, duration, quality int) *schema.SleepLog {
	return &schema.SleepLog{
		Entry:    schema.Entry{Date: date},
		BedTime:  "23:00",
		WakeTime: "07:00",
		Duration: duration,
		Quality:  quality,
	}
}

func TestWindow(t *testing.T) {
	e, _ := newEngine(t, "2024-03-01")

	start, end := e.Window(7)
	assert.Equal(t, "2024-02-23", start)
	assert.Equal(t, "2024-03-01", end)

	start, end = e.Window(0)
	assert.Equal(t, "2024-03-01", start)
	assert.Equal(t, "2024-03-01", end)

	start, _ = e.Window(-3)
	assert.Equal(t, "2024-02-23", start, "negative windows fall back to the default")
}

func TestWindowUsesLocation(t *testing.T) {
	// 02:00 UTC on Jan 2 is still Jan 1 in New York.
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	now := time.Date(2024, 1, 2, 2, 0, 0, 0, time.UTC)
	e := New(engine.NewMemStore(nil, nil), WithClock(func() time.Time { return now }), WithLocation(loc))
	assert.Equal(t, "2024-01-01", e.Today())
}

func TestSleepStats(t *testing.T) {
	t.Run("single log", func(t *testing.T) {
		e, s := newEngine(t, "2024-01-01")
		insert(t, s, sleepLog("2024-01-01", 480, 8))

		st, ok, err := e.SleepStats(context.Background(), 1)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 480, st.AvgDuration)
		assert.Equal(t, "8.0", st.AvgQuality.String())
		assert.Equal(t, 1, st.TotalLogs)
		assert.Len(t, st.Logs, 1)
	})

	t.Run("averages and rounding", func(t *testing.T) {
		e, s := newEngine(t, "2024-01-10")
		insert(t, s,
			sleepLog("2024-01-08", 400, 7),
			sleepLog("2024-01-09", 455, 8),
			sleepLog("2024-01-10", 460, 8),
			sleepLog("2023-12-01", 100, 1), // outside the window
		)

		st, ok, err := e.SleepStats(context.Background(), 7)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 438, st.AvgDuration) // 1315/3 = 438.33
		assert.Equal(t, "7.7", st.AvgQuality.String())
		assert.Equal(t, 3, st.TotalLogs)
	})

	t.Run("empty window is no data", func(t *testing.T) {
		e, _ := newEngine(t, "2024-01-01")
		_, ok, err := e.SleepStats(context.Background(), 7)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestSupplementAdherence(t *testing.T) {
	ctx := context.Background()

	t.Run("empty window is zero", func(t *testing.T) {
		e, _ := newEngine(t, "2024-01-01")
		pct, err := e.SupplementAdherence(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, 0, pct)
	})

	t.Run("half taken", func(t *testing.T) {
		e, s := newEngine(t, "2024-01-01")
		insert(t, s,
			&schema.SupplementLog{Entry: schema.Entry{Date: "2024-01-01"}, Supplements: []string{"Melatonina 1-3mg"}, Taken: true},
			&schema.SupplementLog{Entry: schema.Entry{Date: "2024-01-01"}, Taken: false},
		)
		pct, err := e.SupplementAdherence(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 50, pct)
	})

	t.Run("rounds to nearest percent", func(t *testing.T) {
		e, s := newEngine(t, "2024-01-03")
		insert(t, s,
			&schema.SupplementLog{Entry: schema.Entry{Date: "2024-01-01"}, Taken: true},
			&schema.SupplementLog{Entry: schema.Entry{Date: "2024-01-02"}, Taken: true},
			&schema.SupplementLog{Entry: schema.Entry{Date: "2024-01-03"}, Taken: false},
		)
		pct, err := e.SupplementAdherence(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, 67, pct)
	})
}

func TestExerciseStats(t *testing.T) {
	ctx := context.Background()

	e, s := newEngine(t, "2024-01-07")
	empty, err := e.ExerciseStats(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.DaysExercised)
	assert.Equal(t, 0, empty.TotalMinutes)
	assert.Equal(t, 0, empty.TotalSessions)

	insert(t, s,
		&schema.ExerciseLog{Entry: schema.Entry{Date: "2024-01-02"}, Type: schema.Cardio, Duration: 30, Intensity: schema.Medium},
		&schema.ExerciseLog{Entry: schema.Entry{Date: "2024-01-02"}, Type: schema.Strength, Duration: 20, Intensity: schema.High},
		&schema.ExerciseLog{Entry: schema.Entry{Date: "2024-01-05"}, Type: schema.Flexibility, Duration: 15, Intensity: schema.Low},
	)
	st, err := e.ExerciseStats(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, st.DaysExercised)
	assert.Equal(t, 65, st.TotalMinutes)
	assert.Equal(t, 3, st.TotalSessions)
}

func TestHealthTrends(t *testing.T) {
	ctx := context.Background()

	t.Run("empty window is no data", func(t *testing.T) {
		e, _ := newEngine(t, "2024-01-07")
		_, ok, err := e.HealthTrends(ctx, 7)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("per-field presence", func(t *testing.T) {
		e, s := newEngine(t, "2024-01-07")
		insert(t, s,
			&schema.HealthLog{Entry: schema.Entry{Date: "2024-01-05"}, Mood: schema.Int(6), Energy: schema.Int(5)},
			&schema.HealthLog{Entry: schema.Entry{Date: "2024-01-06"}, Energy: schema.Int(8)},
			&schema.HealthLog{Entry: schema.Entry{Date: "2024-01-07"}, Mood: schema.Int(9), Energy: schema.Int(6)},
		)
		tr, ok, err := e.HealthTrends(ctx, 7)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "7.5", tr.AvgMood.String())   // (6+9)/2, the energy-only log is skipped
		assert.Equal(t, "6.3", tr.AvgEnergy.String()) // 19/3
		assert.Equal(t, "0.0", tr.AvgStress.String()) // no contributors
		assert.Len(t, tr.Logs, 3)
	})
}

func TestDailyMetrics(t *testing.T) {
	ctx := context.Background()
	e, s := newEngine(t, "2024-01-02")
	insert(t, s,
		sleepLog("2024-01-02", 420, 6),
		sleepLog("2024-01-02", 60, 3), // a nap; the first entry wins
		&schema.HealthLog{Entry: schema.Entry{Date: "2024-01-02"}, Mood: schema.Int(7)},
		&schema.SupplementLog{Entry: schema.Entry{Date: "2024-01-02"}, Taken: true},
		&schema.SupplementLog{Entry: schema.Entry{Date: "2024-01-02"}, Taken: true},
		&schema.ExerciseLog{Entry: schema.Entry{Date: "2024-01-01"}, Type: schema.Cardio, Duration: 30, Intensity: schema.Low},
	)

	dm, err := e.DailyMetrics(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02", dm.Date)
	require.NotNil(t, dm.Sleep)
	assert.Equal(t, 420, dm.Sleep.Duration)
	require.NotNil(t, dm.Health)
	assert.Equal(t, 7, *dm.Health.Mood)
	assert.Len(t, dm.Supplements, 2)
	assert.Empty(t, dm.Exercise)

	other, err := e.DailyMetrics(ctx, "2023-06-01")
	require.NoError(t, err)
	assert.Nil(t, other.Sleep)
	assert.Nil(t, other.Health)
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	e, s := newEngine(t, "2024-01-07")

	empty, err := e.Dashboard(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, empty.Sleep)
	assert.Nil(t, empty.Health)
	assert.Nil(t, empty.HealthScore)
	assert.Equal(t, DefaultExerciseTarget, empty.ExerciseTarget)

	insert(t, s,
		sleepLog("2024-01-06", 450, 8),
		&schema.HealthLog{Entry: schema.Entry{Date: "2024-01-06"}, Mood: schema.Int(7), Energy: schema.Int(8)},
	)
	require.NoError(t, s.PutSetting(ctx, ExerciseTargetSetting, 3))

	d, err := e.Dashboard(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, d.AvgSleepHours)
	assert.Equal(t, "7.5", d.AvgSleepHours.String())
	require.NotNil(t, d.HealthScore)
	assert.Equal(t, "7.5", d.HealthScore.String())
	assert.Equal(t, 3, d.ExerciseTarget)
}

func TestSleepTrend(t *testing.T) {
	ctx := context.Background()
	e, s := newEngine(t, "2024-01-03")
	insert(t, s,
		sleepLog("2024-01-01", 420, 6),
		sleepLog("2024-01-03", 450, 8),
		sleepLog("2024-01-03", 30, 4),
	)

	points, err := e.SleepTrend(ctx, 2)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, TrendPoint{Date: "2024-01-01", Hours: 7, Quality: 6, Logged: true}, points[0])
	assert.Equal(t, TrendPoint{Date: "2024-01-02"}, points[1])
	assert.Equal(t, TrendPoint{Date: "2024-01-03", Hours: 8, Quality: 6, Logged: true}, points[2])
}

func TestDecimalJSON(t *testing.T) {
	raw, err := json.Marshal(struct {
		V Decimal `json:"v"`
	}{Round1(8)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":"8.0"}`, string(raw))

	var back Decimal
	require.NoError(t, json.Unmarshal([]byte(`"6.3"`), &back))
	assert.Equal(t, Decimal(6.3), back)
	require.NoError(t, json.Unmarshal([]byte(`4.5`), &back))
	assert.Equal(t, Decimal(4.5), back)
}
