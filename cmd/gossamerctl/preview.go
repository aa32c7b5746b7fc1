package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/wovenlabs/gossamer/config"
	"github.com/wovenlabs/gossamer/corpus"
	"github.com/wovenlabs/gossamer/forge"
	"github.com/wovenlabs/gossamer/persona"
)

// NewPreviewCmd creates the preview command.
func NewPreviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Weave one decoy variant and print it",
		Long: `Preview renders a decoy variant exactly as a bot holding that
assignment would receive it, without starting the server.

Examples:
  # Weave variant 3 with a random persona seed
  gossamerctl preview --variant 3

  # Reproduce the exact page a logged visit recorded
  gossamerctl preview --variant 7 --seed 1882304451

  # Inspect the markdown rendition of a different corpus file
  gossamerctl preview -c drafts/master.html -n 1 -f markdown`,
		RunE: runPreviewCmd,
	}

	cmd.Flags().StringP("corpus", "c", "",
		"Master corpus file (default: GOSSAMER_CORPUS)")
	cmd.Flags().IntP("variant", "n", 1,
		"Variant number to weave, 1-based")
	cmd.Flags().Int64P("seed", "s", 0,
		"Persona seed (0 picks a random seed)")
	cmd.Flags().StringP("format", "f", forge.FormatHTML,
		"Output format: html, markdown or text")
	cmd.Flags().StringP("output", "o", "",
		"Write the page to a file instead of stdout")

	return cmd
}

// runPreviewCmd executes the preview command.
func runPreviewCmd(cmd *cobra.Command, _ []string) error {
	setupLogger(cmd)

	f, _, err := buildForge(cmd)
	if err != nil {
		return err
	}

	variant, err := cmd.Flags().GetInt("variant")
	if err != nil {
		return err
	}
	seed, err := cmd.Flags().GetInt64("seed")
	if err != nil {
		return err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}

	page, err := f.Weave(variant, seed, format)
	if err != nil {
		return fmt.Errorf("weave variant %d: %w", variant, err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "variant=%d seed=%d persona=%s hash=%016x\n",
		page.Variant, page.Seed, page.Persona, page.Hash)

	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	if output != "" {
		if err := os.WriteFile(output, []byte(page.Content), 0600); err != nil {
			return fmt.Errorf("write output file: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", output)
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), page.Content)
	return nil
}

// buildForge loads the corpus and persona catalog the same way the
// server does, honoring a --corpus flag override when present.
func buildForge(cmd *cobra.Command) (*forge.Forge, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("configuration error: %w", err)
	}

	if path, err := cmd.Flags().GetString("corpus"); err == nil && path != "" {
		cfg.Decoy.CorpusPath = path
	}

	crp, err := corpus.Load(cfg.Decoy.CorpusPath, cfg.Decoy.CorpusSelector)
	if err != nil {
		return nil, nil, fmt.Errorf("load corpus %s: %w", cfg.Decoy.CorpusPath, err)
	}

	catalog, err := persona.LoadCatalog(cfg.Persona.CatalogPath)
	if err != nil {
		return nil, nil, err
	}

	return forge.New(crp, catalog, cfg.Decoy.Groups, cfg.Decoy.PerGroup), cfg, nil
}
