package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/company-extractor/internal/pipeline"
)

const defaultForestPath = "forest.json"

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Capture the console output and embedded JSON of live pages",
	Long: `Open each URL in headless Chrome (or fetch it over HTTP with --static), record
every console.log argument and embedded JSON payload, and save them as a forest file.`,
	RunE: runCapture,
}

func init() {
	captureCmd.Flags().StringSlice("url", nil, "Page URL to capture (repeatable)")
	captureCmd.Flags().String("forest", defaultForestPath, "Path to write the forest file")
	addCaptureFlags(captureCmd)

	rootCmd.AddCommand(captureCmd)
}

// addCaptureFlags registers the browser settings shared by capture and run.
func addCaptureFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("static", false, "Fetch pages over HTTP without running scripts")
	cmd.Flags().Bool("headless", true, "Run Chrome without a window")
	cmd.Flags().Duration("timeout", 0, "Time limit per page (default 60s)")
	cmd.Flags().Duration("settle", 0, "How long to keep listening once the page is ready (default 3s)")
	cmd.Flags().Int("concurrency", 0, "Pages captured in parallel, 0 for no limit (default 2)")
}

func runCapture(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(cfg.URLs) == 0 {
		return fmt.Errorf("at least one --url is required")
	}
	out := cfg.Forest
	if out == "" {
		out = defaultForestPath
	}

	fmt.Printf("Capturing %d page(s)...\n", len(cfg.URLs))
	file, err := pipeline.CaptureForest(cmd.Context(), cfg.URLs, out, captureOptions(cfg))
	if err != nil {
		return err
	}

	for _, src := range file.Sources {
		fmt.Printf("  %s (%s): %d entries\n", src.URL, src.Mode, src.Entries)
	}
	fmt.Printf("Saved %d forest entries to %s\n", len(file.Forest), out)
	return nil
}
