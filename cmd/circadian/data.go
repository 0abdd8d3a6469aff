package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/celerix-dev/circadian-store/internal/engine"
	"github.com/celerix-dev/circadian-store/internal/snapshot"
	"github.com/celerix-dev/circadian-store/pkg/schema"
	"github.com/celerix-dev/circadian-store/pkg/sdk"
	"github.com/spf13/cobra"
)

func (a *app) exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every record to a JSON snapshot",
		Long: `Export writes all log collections to a portable JSON snapshot.
Settings are not exported. Use --out - to write to standard output.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			snap, err := snapshot.Export(cmd.Context(), a.store)
			if err != nil {
				return err
			}
			if out == "-" {
				return a.printJSON(snap)
			}
			if out == "" {
				out = snapshot.DefaultFileName(time.Now())
			}
			if err := snapshot.WriteFile(out, snap); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Exported %d records to %s\n", snap.Len(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default circadian-YYYY-MM-DD.json)")
	return cmd
}

func (a *app) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Add every record of a snapshot as new records",
		Long: `Import reads a snapshot written by export and inserts each record as a
new entry with a fresh id. Existing records are kept. The file is checked in
full before anything is written.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := snapshot.ReadFile(args[0])
			if err != nil {
				return err
			}
			if err := a.open(); err != nil {
				return err
			}
			n, err := snapshot.Import(cmd.Context(), a.store, snap)
			if err != nil {
				var partial *snapshot.PartialImportError
				if errors.As(err, &partial) {
					a.logger.Error("Import stopped", slog.Int("imported", partial.Inserted), slog.Int("total", partial.Total))
				}
				return err
			}
			fmt.Fprintf(a.out, "Imported %d records\n", n)
			return nil
		},
	}
}

func (a *app) clearCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear [COLLECTION]",
		Short: "Delete every record of one collection, or of all collections",
		Long: `Clear removes records in bulk. Without a collection it empties every log
collection and requires --yes. Settings are never cleared.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !yes {
				return fmt.Errorf("refusing to clear all collections without --yes")
			}
			var col schema.Collection
			if len(args) == 1 {
				c, err := schema.ParseCollection(args[0])
				if err != nil {
					return err
				}
				col = c
			}
			if err := a.open(); err != nil {
				return err
			}
			if col == "" {
				if err := a.store.ClearAll(cmd.Context()); err != nil {
					return err
				}
			} else if err := a.store.Clear(cmd.Context(), col); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "OK")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm clearing every collection")
	return cmd
}

func (a *app) settingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setting",
		Short: "Read or write a setting",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "get KEY",
			Short: "Print a setting's JSON value",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.open(); err != nil {
					return err
				}
				val, ok, err := a.store.GetSetting(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("setting %q not found", args[0])
				}
				fmt.Fprintln(a.out, string(val))
				return nil
			},
		},
		&cobra.Command{
			Use:     "set KEY VALUE",
			Short:   "Store a setting; VALUE is parsed as JSON, else kept as a string",
			Example: `  circadian setting set exercise_target 4`,
			Args:    cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				var val any
				if err := json.Unmarshal([]byte(args[1]), &val); err != nil {
					// If not valid JSON, treat as string
					val = args[1]
				}
				if err := a.open(); err != nil {
					return err
				}
				if err := sdk.PutSetting(cmd.Context(), a.store, args[0], val); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "OK")
				return nil
			},
		},
	)
	return cmd
}

func (a *app) migrateCmd() *cobra.Command {
	var toBackend, to string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy every record and setting into another backend",
		Long: `Migrate copies the configured store into a second store, keeping record
ids. Records with the same id in the target are overwritten.`,
		Example: `  circadian migrate --to-backend sqlite --to ./data/circadian.db`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			dst, err := sdk.Open(sdk.Backend(toBackend), to)
			if err != nil {
				return err
			}
			defer dst.Close()

			n, err := engine.Migrate(cmd.Context(), a.store, dst)
			if err != nil {
				return err
			}
			a.logger.Info("Migration complete", slog.String("backend", toBackend), slog.String("location", to), slog.Int("records", n))
			fmt.Fprintf(a.out, "Migrated %d records to %s\n", n, to)
			return nil
		},
	}
	cmd.Flags().StringVar(&toBackend, "to-backend", string(sdk.BackendSQLite), "Target backend (json, sqlite)")
	cmd.Flags().StringVar(&to, "to", "", "Target data directory or database file")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

