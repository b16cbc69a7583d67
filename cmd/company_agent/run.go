package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/company-extractor/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline from pages (or a forest file) to sector files",
	Long: `Capture the given pages (or load a saved forest), locate and normalize the
company records, write the companies extract and split it by sector. With a
database URL the run, its companies and its sector memberships are stored too.`,
	RunE: runRun,
}

var runSaveForest string

func init() {
	runCmd.Flags().StringSlice("url", nil, "Page URL to capture (repeatable)")
	runCmd.Flags().String("forest", "", "Load this forest file instead of capturing")
	runCmd.Flags().StringVar(&runSaveForest, "save-forest", "", "Also save the captured forest to this path")
	runCmd.Flags().StringP("out", "o", "companies.csv", "Path to write the companies CSV")
	runCmd.Flags().String("json", "", "Optional path to also write companies as JSON")
	runCmd.Flags().String("out-dir", "by_sector", "Directory for the sector files")
	runCmd.Flags().String("prefix", "sector_", "File name prefix of the sector files")
	runCmd.Flags().String("database-url", "", "PostgreSQL URL for storing the run (or DATABASE_URL)")
	addCaptureFlags(runCmd)

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.RequireSource(); err != nil {
		return err
	}

	res, err := pipeline.RunPipeline(cmd.Context(), pipeline.RunOptions{
		URLs:          cfg.URLs,
		ForestPath:    cfg.Forest,
		ForestOut:     runSaveForest,
		CompaniesPath: cfg.Companies,
		JSONPath:      cfg.JSONOutput,
		SectorDir:     cfg.SectorDir,
		SectorPrefix:  cfg.SectorPrefix,
		Capture:       captureOptions(cfg),
		DatabaseURL:   cfg.DatabaseURL,
		Verbose:       verbose || cfg.Verbose,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	fmt.Printf("\nDone: %d companies, %d sector files in %s\n", len(res.Companies), len(res.Files), cfg.SectorDir)
	if res.RunID != uuid.Nil {
		fmt.Printf("Run ID: %s\n", res.RunID)
	}
	return nil
}
