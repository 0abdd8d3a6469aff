package main

import (
	"fmt"
	"strings"

	"github.com/celerix-dev/circadian-store/pkg/schema"
	"github.com/spf13/cobra"
)

func (a *app) logCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Record a new entry",
	}
	cmd.AddCommand(a.logSleepCmd(), a.logSupplementCmd(), a.logExerciseCmd(), a.logHealthCmd(), a.logNoteCmd())
	return cmd
}

// insert stores rec and prints its new id.
func (a *app) insert(cmd *cobra.Command, rec schema.Record) error {
	if err := a.open(); err != nil {
		return err
	}
	id, err := a.store.Insert(cmd.Context(), rec)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged %s #%d\n", rec.Collection(), id)
	return nil
}

func (a *app) logSleepCmd() *cobra.Command {
	var rec schema.SleepLog
	cmd := &cobra.Command{
		Use:   "sleep",
		Short: "Log a night of sleep",
		Example: `  circadian log sleep --bed 23:15 --wake 07:00 --quality 8
  circadian log sleep --date 2024-01-01 --bed 01:00 --wake 08:30 --quality 6 --interruptions 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("duration") {
				minutes, err := schema.SleepDuration(rec.BedTime, rec.WakeTime)
				if err != nil {
					return err
				}
				rec.Duration = minutes
			}
			return a.insert(cmd, &rec)
		},
	}
	f := cmd.Flags()
	f.StringVar(&rec.Date, "date", "", "Date of the night (YYYY-MM-DD, default today)")
	f.StringVar(&rec.BedTime, "bed", "", "Bed time (HH:MM)")
	f.StringVar(&rec.WakeTime, "wake", "", "Wake time (HH:MM)")
	f.IntVar(&rec.Duration, "duration", 0, "Minutes slept (default computed from --bed and --wake)")
	f.IntVar(&rec.Quality, "quality", 0, "Sleep quality 1-10")
	f.IntVar(&rec.Interruptions, "interruptions", 0, "Number of times woken")
	f.StringVar(&rec.Notes, "notes", "", "Free-form notes")
	_ = cmd.MarkFlagRequired("bed")
	_ = cmd.MarkFlagRequired("wake")
	_ = cmd.MarkFlagRequired("quality")
	return cmd
}

func (a *app) logSupplementCmd() *cobra.Command {
	var rec schema.SupplementLog
	cmd := &cobra.Command{
		Use:     "supplement NAME...",
		Aliases: []string{"supplements"},
		Short:   "Log a supplement intake",
		Example: `  circadian log supplement "Magnesio 200-400mg" --time 21:30
  circadian log supplement "Melatonina 1-3mg" --taken=false`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec.Supplements = args
			return a.insert(cmd, &rec)
		},
	}
	f := cmd.Flags()
	f.StringVar(&rec.Date, "date", "", "Date (YYYY-MM-DD, default today)")
	f.StringVar(&rec.Time, "time", "", "Intake time (HH:MM)")
	f.BoolVar(&rec.Taken, "taken", true, "Whether the supplements were actually taken")
	f.StringVar(&rec.Notes, "notes", "", "Free-form notes")
	return cmd
}

func (a *app) logExerciseCmd() *cobra.Command {
	var (
		rec       schema.ExerciseLog
		kind      string
		intensity string
	)
	cmd := &cobra.Command{
		Use:     "exercise",
		Short:   "Log an exercise session",
		Example: `  circadian log exercise --type cardio --duration 30 --intensity medium`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rec.Type = schema.ExerciseType(strings.ToLower(kind))
			rec.Intensity = schema.Intensity(strings.ToLower(intensity))
			return a.insert(cmd, &rec)
		},
	}
	f := cmd.Flags()
	f.StringVar(&rec.Date, "date", "", "Date (YYYY-MM-DD, default today)")
	f.StringVar(&kind, "type", "", "cardio, strength, flexibility or mixed")
	f.IntVar(&rec.Duration, "duration", 0, "Minutes of exercise")
	f.StringVar(&intensity, "intensity", string(schema.Medium), "low, medium or high")
	f.StringVar(&rec.Notes, "notes", "", "Free-form notes")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("duration")
	return cmd
}

func (a *app) logHealthCmd() *cobra.Command {
	var (
		rec                             schema.HealthLog
		weight                          float64
		systolic, diastolic             int
		heartRate, mood, energy, stress int
	)
	cmd := &cobra.Command{
		Use:     "health",
		Short:   "Log health metrics; only the given flags are recorded",
		Example: `  circadian log health --mood 7 --energy 6 --stress 3 --weight 71.4`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			if f.Changed("weight") {
				rec.Weight = schema.Float(weight)
			}
			if f.Changed("systolic") || f.Changed("diastolic") {
				rec.BloodPressure = &schema.BloodPressure{Systolic: systolic, Diastolic: diastolic}
			}
			for name, dst := range map[string]**int{
				"heart-rate": &rec.HeartRate,
				"mood":       &rec.Mood,
				"energy":     &rec.Energy,
				"stress":     &rec.Stress,
			} {
				if f.Changed(name) {
					v, _ := f.GetInt(name)
					*dst = schema.Int(v)
				}
			}
			return a.insert(cmd, &rec)
		},
	}
	f := cmd.Flags()
	f.StringVar(&rec.Date, "date", "", "Date (YYYY-MM-DD, default today)")
	f.Float64Var(&weight, "weight", 0, "Body weight in kg")
	f.IntVar(&systolic, "systolic", 0, "Systolic blood pressure (mmHg)")
	f.IntVar(&diastolic, "diastolic", 0, "Diastolic blood pressure (mmHg)")
	f.IntVar(&heartRate, "heart-rate", 0, "Resting heart rate (bpm)")
	f.IntVar(&mood, "mood", 0, "Mood 1-10")
	f.IntVar(&energy, "energy", 0, "Energy 1-10")
	f.IntVar(&stress, "stress", 0, "Stress 1-10")
	f.StringSliceVar(&rec.Symptoms, "symptom", nil, "Symptom (repeatable)")
	f.StringVar(&rec.Notes, "notes", "", "Free-form notes")
	return cmd
}

func (a *app) logNoteCmd() *cobra.Command {
	var rec schema.Note
	cmd := &cobra.Command{
		Use:   "note TEXT...",
		Short: "Log a free-form note",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec.Text = strings.Join(args, " ")
			return a.insert(cmd, &rec)
		},
	}
	cmd.Flags().StringVar(&rec.Date, "date", "", "Date (YYYY-MM-DD, default today)")
	return cmd
}
