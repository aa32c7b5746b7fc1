package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/wovenlabs/gossamer/config"
	"github.com/wovenlabs/gossamer/report"
	"github.com/wovenlabs/gossamer/storage"
)

// NewReportCmd creates the report command.
func NewReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render a Markdown activity report from the visit store",
		Long: `Report connects to the configured visit store and renders the same
Markdown activity report the /api/v1/report endpoint serves: known
bots, their variant assignments, recent requests and trap hits.

Examples:
  # Last 24 hours to stdout
  gossamerctl report

  # Last week, written to a file
  gossamerctl report --window 168h --output weekly.md`,
		RunE: runReportCmd,
	}

	cmd.Flags().DurationP("window", "w", 24*time.Hour,
		"Recent-activity window")
	cmd.Flags().IntP("limit", "l", 50,
		"Maximum visits listed in the activity table")
	cmd.Flags().StringP("output", "o", "",
		"Write the report to a file instead of stdout")

	return cmd
}

// runReportCmd executes the report command.
func runReportCmd(cmd *cobra.Command, _ []string) error {
	setupLogger(cmd)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	window, err := cmd.Flags().GetDuration("window")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	db, err := storage.Open(cfg.Store)
	if err != nil {
		return fmt.Errorf("open visit store: %w", err)
	}
	defer db.Close()

	out := cmd.OutOrStdout()
	if output != "" {
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	opts := report.Options{Window: window, Limit: limit}
	if err := report.Generate(cmd.Context(), db, opts, out); err != nil {
		return fmt.Errorf("generate report: %w", err)
	}

	if output != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", output)
	}
	return nil
}
