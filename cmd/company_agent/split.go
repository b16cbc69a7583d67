package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/company-extractor/internal/observability"
	"github.com/jonathan/company-extractor/internal/pipeline"
)

var splitCmd = &cobra.Command{
	Use:   "split",
	Short: "Split a companies extract into one CSV per sector",
	Long: `Read the raw payload of every row of a companies CSV, split its sector field on
';' and ',' and write each company into the file of every sector it lists.`,
	RunE: runSplit,
}

func init() {
	splitCmd.Flags().StringP("in", "i", "companies.csv", "Path to the companies CSV")
	splitCmd.Flags().String("out-dir", "by_sector", "Directory for the sector files")
	splitCmd.Flags().String("prefix", "sector_", "File name prefix of the sector files")

	rootCmd.AddCommand(splitCmd)
}

func runSplit(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	split, err := pipeline.SplitSectors(pipeline.SplitOptions{
		CompaniesPath: cfg.Companies,
		SectorDir:     cfg.SectorDir,
		SectorPrefix:  cfg.SectorPrefix,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	if verbose || cfg.Verbose {
		printer := observability.NewPrinter(os.Stdout)
		printer.PrintPartitionStats(split.Stats, split.Buckets.Len())
		printer.PrintSectorFiles(split.Files)
	}

	fmt.Printf("Wrote %d sector files to %s\n", len(split.Files), cfg.SectorDir)
	return nil
}
