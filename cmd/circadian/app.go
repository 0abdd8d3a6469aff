package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/celerix-dev/circadian-store/internal/config"
	"github.com/celerix-dev/circadian-store/internal/engine"
	"github.com/celerix-dev/circadian-store/internal/stats"
	"github.com/celerix-dev/circadian-store/pkg/sdk"
	"github.com/spf13/cobra"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "circadian"
)

// app carries the state shared by every subcommand.
type app struct {
	out io.Writer

	configPath string
	logLevel   string
	backend    string
	location   string

	cfg    *config.Config
	logger *slog.Logger
	store  sdk.RecordStore
	stats  *stats.Engine
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Personal sleep and health log",
		Long: `Circadian keeps a local log of sleep, supplements, exercise, health
metrics and notes, and summarizes them over rolling windows of days.

Records live in a local JSON data directory or a SQLite file, selected by
configuration (~/.config/circadian/config.yaml, circadian.yaml, CIRCADIAN_*).`,
		SilenceUsage: true,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}
	cmd.SetOut(out)

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file path (YAML); skips the user and project files")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&a.backend, "backend", "", "Store backend (json, sqlite)")
	cmd.PersistentFlags().StringVar(&a.location, "data", "", "Data directory (json) or database file (sqlite)")

	cmd.AddCommand(
		a.logCmd(),
		a.listCmd(),
		a.deleteCmd(),
		a.statsCmd(),
		a.dailyCmd(),
		a.dashboardCmd(),
		a.exportCmd(),
		a.importCmd(),
		a.clearCmd(),
		a.settingCmd(),
		a.migrateCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(a.out, "%s version %s (build: %s)\n", appName, Version, BuildTime)
			},
		},
	)
	return cmd
}

// loadConfig resolves configuration once, applying command-line overrides last.
func (a *app) loadConfig() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	loader := config.NewLoader(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = loader.LoadFile(a.configPath)
	} else {
		cfg, err = loader.Load()
	}
	if err != nil {
		return nil, err
	}

	cfg.Merge(&config.Config{Log: config.LogConfig{Level: a.logLevel}})
	if a.backend != "" {
		cfg.Store.Backend = a.backend
	}
	if a.location != "" {
		if cfg.Store.Backend == "sqlite" {
			cfg.Store.SQLitePath = a.location
		} else {
			cfg.Store.DataDir = a.location
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a.cfg = cfg
	a.logger = cfg.NewLogger(os.Stderr)
	return cfg, nil
}

// open opens the configured store and the aggregation engine over it.
func (a *app) open() error {
	if a.store != nil {
		return nil
	}
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	clock, err := cfg.Clock()
	if err != nil {
		return err
	}
	loc, _ := cfg.Location()

	store, err := sdk.Open(sdk.Backend(cfg.Store.Backend), cfg.StoreLocation(), engine.WithClock(clock))
	if err != nil {
		return fmt.Errorf("open %s store at %s: %w", cfg.Store.Backend, cfg.StoreLocation(), err)
	}
	a.logger.Debug("Store opened", slog.String("backend", cfg.Store.Backend), slog.String("location", cfg.StoreLocation()))
	a.store = store
	a.stats = stats.New(store, stats.WithClock(clock), stats.WithLocation(loc))
	return nil
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

// window returns days when the flag was given, else the configured default.
func (a *app) window(cmd *cobra.Command, days int) int {
	if cmd.Flags().Changed("days") {
		return days
	}
	return a.cfg.Stats.Window
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
