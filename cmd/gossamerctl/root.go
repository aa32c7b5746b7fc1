package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for gossamerctl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gossamerctl",
		Short: "Operate a Gossamer honeypot deployment",
		Long: `gossamerctl is the operator CLI for Gossamer, the scraper honeypot.

It reads the same environment (.env included) as the server, so the
corpus file, persona catalog and visit store resolve identically.
Commands that only touch the corpus work without any store configured.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewPreviewCmd())
	cmd.AddCommand(NewValidateCmd())
	cmd.AddCommand(NewReportCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogger routes slog to stderr so command output stays pipeable.
func setupLogger(cmd *cobra.Command) {
	verbose, err := cmd.Root().PersistentFlags().GetBool("verbose")
	if err != nil {
		verbose = false
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
