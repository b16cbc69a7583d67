package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/company-extractor/internal/capture"
	"github.com/jonathan/company-extractor/internal/locate"
	"github.com/jonathan/company-extractor/internal/observability"
	"github.com/jonathan/company-extractor/internal/pipeline"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Locate the company list in a forest file and write the companies extract",
	Long: `Search a captured forest for the list of company records, normalize each record
onto the name/sector/website/description schema and write the sorted companies CSV.`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().String("forest", "", "Path to the forest file (required)")
	extractCmd.Flags().StringP("out", "o", "companies.csv", "Path to write the companies CSV")
	extractCmd.Flags().String("json", "", "Optional path to also write companies as JSON")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Forest == "" {
		return fmt.Errorf("--forest is required")
	}

	file, err := capture.ReadForest(cfg.Forest)
	if err != nil {
		return err
	}

	extracted, err := pipeline.ExtractCompanies(file.Forest, pipeline.ExtractOptions{
		CompaniesPath: cfg.Companies,
		JSONPath:      cfg.JSONOutput,
		Logger:        logger,
	})
	if err != nil {
		var notFound *locate.NotFoundError
		if errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "No list of company records was found in %s.\n", cfg.Forest)
			fmt.Fprintf(os.Stderr, "Re-capture with a longer --settle delay or inspect the forest file.\n")
		}
		return err
	}

	if verbose || cfg.Verbose {
		printer := observability.NewPrinter(os.Stdout)
		printer.PrintLocateResult(extracted.Located, len(file.Forest))
		printer.PrintCompanies(extracted.Companies)
	}

	fmt.Printf("Wrote %d companies to %s (%s match)\n", len(extracted.Companies), cfg.Companies, extracted.Located.Stage)
	if cfg.JSONOutput != "" {
		fmt.Printf("Wrote %s\n", cfg.JSONOutput)
	}
	return nil
}
