// Package main provides the company_agent CLI: capture pages, extract the
// company list they carry and split it into per-sector CSV files.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/company-extractor/internal/capture"
	"github.com/jonathan/company-extractor/internal/config"
	"github.com/jonathan/company-extractor/internal/logging"
)

var (
	configPath string
	verbose    bool
	logger     *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "company_agent",
	Short: "Company list extractor",
	Long: `company_agent captures the values a directory page logs to the console,
finds the list of company records among them, writes a normalized companies
extract and splits it into one CSV per business sector.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		var err error
		logger, err = logging.New(verbose)
		return err
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a config file (JSON, YAML or TOML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print detailed debug information")
}

// loadConfig layers the config file, COMPANY_AGENT_* env vars and the flags
// the user set on cmd, then validates the result.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// captureOptions maps the capture settings of cfg onto capture.Options.
func captureOptions(cfg *config.Config) *capture.Options {
	opts := capture.DefaultOptions()
	if cfg.Timeout > 0 {
		opts.Timeout = cfg.Timeout
	}
	if cfg.SettleDelay > 0 {
		opts.SettleDelay = cfg.SettleDelay
	}
	// Load fills the default, so 0 here was asked for and lifts the limit
	opts.Concurrency = cfg.Concurrency
	opts.Headless = cfg.Headless
	opts.Static = cfg.Static
	opts.Logger = logger
	return opts
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
