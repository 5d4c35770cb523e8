package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/svcref/svcref/internal/monitor"
)

// newMonitorCommand creates the 'monitor' command group.
func newMonitorCommand() *cobra.Command {
	var (
		schemaDir  string
		sampleSize int
	)

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Detect schema drift in the remote catalog",
		Long: `Monitor the remote catalog for structural changes.

The monitor samples service documents, records which fields appear at each
level of the payload, and diffs that structure against a stored baseline.
The catalog's shape is not contractually guaranteed; drift found here means
new or removed fields upstream.`,
	}

	cmd.PersistentFlags().StringVar(&schemaDir, "schema-dir", "", "Directory for schema snapshots (default from config)")
	cmd.PersistentFlags().IntVar(&sampleSize, "sample-size", 0, "Number of services to sample (default from config)")

	cmd.AddCommand(newMonitorBaselineCommand(&schemaDir, &sampleSize))
	cmd.AddCommand(newMonitorCheckCommand(&schemaDir, &sampleSize))

	return cmd
}

// newMonitor builds the monitor from config plus flag overrides.
func newMonitor(app *app, schemaDir string, sampleSize int) *monitor.Monitor {
	dir := app.cfg.Monitor.SchemaDir
	if schemaDir != "" {
		dir = schemaDir
	}
	size := app.cfg.Monitor.SampleSize
	if sampleSize > 0 {
		size = sampleSize
	}
	return monitor.New(app.fetcher, dir, size, app.logger)
}

// newMonitorBaselineCommand creates the 'monitor baseline' command.
func newMonitorBaselineCommand(schemaDir *string, sampleSize *int) *cobra.Command {
	return &cobra.Command{
		Use:   "baseline",
		Short: "Snapshot the catalog structure as the new baseline",
		Example: `  # Record the current structure
  svcref monitor baseline --sample-size 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}

			m := newMonitor(app, *schemaDir, *sampleSize)
			schema, err := m.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			if err := m.SaveBaseline(schema); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Baseline created: %d services analyzed, hash %s\n",
				len(schema.AnalyzedServices), schema.Hash)
			return nil
		},
	}
}

// newMonitorCheckCommand creates the 'monitor check' command.
func newMonitorCheckCommand(schemaDir *string, sampleSize *int) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Diff the current catalog structure against the baseline",
		Long: `Diff the current catalog structure against the stored baseline.

Exits non-zero when drift is detected, so the command can gate CI. With no
baseline stored, the current snapshot becomes the baseline.`,
		Example: `  # Plain-text drift report
  svcref monitor check

  # Machine-readable result
  svcref monitor check --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}

			m := newMonitor(app, *schemaDir, *sampleSize)
			result, err := m.Check(cmd.Context())
			if err != nil {
				return err
			}

			if app.cfg.Output.Format == "json" {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				if err := encoder.Encode(result); err != nil {
					return err
				}
			} else if result.Status == "baseline_created" {
				fmt.Fprintln(cmd.OutOrStdout(), "No baseline found; baseline created.")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), monitor.FormatReport(result.Changes))
			}

			if result.Changes.HasChanges {
				return fmt.Errorf("schema drift detected")
			}
			return nil
		},
	}
}
