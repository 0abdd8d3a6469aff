package main

import (
	"fmt"
	"strconv"

	"github.com/celerix-dev/circadian-store/internal/stats"
	"github.com/celerix-dev/circadian-store/pkg/schema"
	"github.com/spf13/cobra"
)

func (a *app) listCmd() *cobra.Command {
	var date, from, to string
	cmd := &cobra.Command{
		Use:   "list COLLECTION",
		Short: "List records of one collection (sleep, supplements, exercise, health, notes)",
		Example: `  circadian list sleep
  circadian list health --from 2024-01-01 --to 2024-01-31`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			col, err := schema.ParseCollection(args[0])
			if err != nil {
				return err
			}
			if err := a.open(); err != nil {
				return err
			}

			var recs []schema.Record
			switch {
			case date != "":
				recs, err = a.store.FetchByDate(cmd.Context(), col, date)
			case from != "" || to != "":
				if from == "" || to == "" {
					return fmt.Errorf("--from and --to must be given together")
				}
				recs, err = a.store.FetchByDateRange(cmd.Context(), col, from, to)
			default:
				recs, err = a.store.FetchAll(cmd.Context(), col)
			}
			if err != nil {
				return err
			}
			if recs == nil {
				recs = []schema.Record{}
			}
			return a.printJSON(recs)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Only records on this date")
	cmd.Flags().StringVar(&from, "from", "", "First date of an inclusive range")
	cmd.Flags().StringVar(&to, "to", "", "Last date of an inclusive range")
	return cmd
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete COLLECTION ID",
		Short: "Delete one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			col, err := schema.ParseCollection(args[0])
			if err != nil {
				return err
			}
			id, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q", args[1])
			}
			if err := a.open(); err != nil {
				return err
			}
			if err := a.store.Delete(cmd.Context(), col, id); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "OK")
			return nil
		},
	}
}

func (a *app) statsCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:       "stats [sleep|supplements|exercise|health|trend]",
		Short:     "Summarize the trailing window of days",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"sleep", "supplements", "exercise", "health", "trend"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			n := a.window(cmd, days)
			kind := "all"
			if len(args) == 1 {
				kind = args[0]
			}
			ctx := cmd.Context()

			switch kind {
			case "sleep":
				st, ok, err := a.stats.SleepStats(ctx, n)
				if err != nil {
					return err
				}
				if !ok {
					return a.printJSON(nil)
				}
				return a.printJSON(st)
			case "supplements":
				pct, err := a.stats.SupplementAdherence(ctx, n)
				if err != nil {
					return err
				}
				return a.printJSON(map[string]int{"adherence": pct})
			case "exercise":
				st, err := a.stats.ExerciseStats(ctx, n)
				if err != nil {
					return err
				}
				return a.printJSON(st)
			case "health":
				tr, ok, err := a.stats.HealthTrends(ctx, n)
				if err != nil {
					return err
				}
				if !ok {
					return a.printJSON(nil)
				}
				return a.printJSON(tr)
			case "trend":
				points, err := a.stats.SleepTrend(ctx, n)
				if err != nil {
					return err
				}
				return a.printJSON(points)
			case "all":
				d, err := a.stats.Dashboard(ctx, n)
				if err != nil {
					return err
				}
				return a.printSummary(d)
			default:
				return fmt.Errorf("unknown statistic %q", kind)
			}
		},
	}
	cmd.Flags().IntVarP(&days, "days", "d", stats.DefaultWindow, "Trailing window in days")
	return cmd
}

func (a *app) dailyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daily [DATE]",
		Short: "Show everything logged on one date (default today)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var date string
			if len(args) == 1 {
				date = args[0]
				if !schema.ValidDate(date) {
					return fmt.Errorf("date %q is not YYYY-MM-DD", date)
				}
			}
			if err := a.open(); err != nil {
				return err
			}
			dm, err := a.stats.DailyMetrics(cmd.Context(), date)
			if err != nil {
				return err
			}
			return a.printJSON(dm)
		},
	}
}

func (a *app) dashboardCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Print every window statistic as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			d, err := a.stats.Dashboard(cmd.Context(), a.window(cmd, days))
			if err != nil {
				return err
			}
			return a.printJSON(d)
		},
	}
	cmd.Flags().IntVarP(&days, "days", "d", stats.DefaultWindow, "Trailing window in days")
	return cmd
}

// printSummary renders the dashboard cards as plain text.
func (a *app) printSummary(d stats.Dashboard) error {
	fmt.Fprintf(a.out, "Last %d days\n", d.Days)
	if d.Sleep != nil {
		fmt.Fprintf(a.out, "  Sleep:       %sh avg, quality %s/10 (%d logs)\n", d.AvgSleepHours, d.Sleep.AvgQuality, d.Sleep.TotalLogs)
	} else {
		fmt.Fprintln(a.out, "  Sleep:       no data")
	}
	fmt.Fprintf(a.out, "  Supplements: %d%% adherence\n", d.SupplementAdherence)
	fmt.Fprintf(a.out, "  Exercise:    %d/%d days, %d min in %d sessions\n",
		d.Exercise.DaysExercised, d.ExerciseTarget, d.Exercise.TotalMinutes, d.Exercise.TotalSessions)
	if d.Health != nil {
		fmt.Fprintf(a.out, "  Health:      score %s (mood %s, energy %s, stress %s)\n",
			d.HealthScore, d.Health.AvgMood, d.Health.AvgEnergy, d.Health.AvgStress)
	} else {
		fmt.Fprintln(a.out, "  Health:      no data")
	}
	return nil
}
