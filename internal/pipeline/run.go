// Package pipeline provides the high-level orchestration of the extraction:
// capture, record location, normalization, the stage-1 extract and the
// per-sector split.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/company-extractor/internal/capture"
	"github.com/jonathan/company-extractor/internal/db"
	"github.com/jonathan/company-extractor/internal/extract"
	"github.com/jonathan/company-extractor/internal/locate"
	"github.com/jonathan/company-extractor/internal/logging"
	"github.com/jonathan/company-extractor/internal/normalize"
	"github.com/jonathan/company-extractor/internal/observability"
	"github.com/jonathan/company-extractor/internal/partition"
	"github.com/jonathan/company-extractor/internal/pipeline/steps"
	"github.com/jonathan/company-extractor/internal/schemas"
	"github.com/jonathan/company-extractor/internal/types"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step     string `json:"step"`
	Category string `json:"category"`
	Message  string `json:"message"`
	RunID    string `json:"run_id,omitempty"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// RunOptions holds configuration for running the pipeline
type RunOptions struct {
	URLs          []string // Pages to capture; exclusive with ForestPath
	ForestPath    string   // Previously captured forest to load
	ForestOut     string   // Where to save a fresh capture, if anywhere
	CompaniesPath string   // Stage-1 extract
	JSONPath      string   // Optional companies.json export
	SectorDir     string
	SectorPrefix  string
	Capture       *capture.Options
	DatabaseURL   string
	Verbose       bool
	Logger        *zap.Logger
	Out           io.Writer // Progress output; defaults to os.Stdout
	OnProgress    ProgressCallback
}

// Result summarizes a completed run.
type Result struct {
	RunID      uuid.UUID // uuid.Nil when nothing was persisted
	ForestSize int
	Located    *locate.Result
	Companies  []types.CanonicalCompany // sorted
	Stats      partition.Stats
	Files      []extract.SectorFile
}

const totalSteps = 8

// emitProgress calls the progress callback if configured
func emitProgress(opts *RunOptions, step, message string, content any) {
	if opts.OnProgress != nil {
		opts.OnProgress(ProgressEvent{
			Step:     step,
			Category: steps.StepRegistry[step].Category,
			Message:  message,
			Content:  content,
		})
	}
}

func (o *RunOptions) out() io.Writer {
	if o.Out == nil {
		return os.Stdout
	}
	return o.Out
}

func (o *RunOptions) stepf(n int, format string, args ...any) {
	_, _ = fmt.Fprintf(o.out(), "Step %d/%d: %s\n", n, totalSteps, fmt.Sprintf(format, args...))
}

// RunPipeline runs every step from forest acquisition to the sector files.
// Nothing is written when no record list can be located.
func RunPipeline(ctx context.Context, opts RunOptions) (*Result, error) {
	logger := logging.OrNop(opts.Logger)
	printer := observability.NewPrinter(opts.out())
	tracker := steps.NewTracker()
	res := &Result{}

	// Step 1: capture pages or load a saved forest
	if err := tracker.Start(steps.StepAcquireForest); err != nil {
		return nil, err
	}
	var (
		forest  []types.Value
		sources []types.CaptureSource
	)
	if len(opts.URLs) > 0 {
		opts.stepf(1, "Capturing %d page(s)...", len(opts.URLs))
		file, err := CaptureForest(ctx, opts.URLs, opts.ForestOut, opts.captureOptions(logger))
		if err != nil {
			return nil, err
		}
		forest, sources = file.Forest, file.Sources
	} else {
		opts.stepf(1, "Loading forest from %s...", opts.ForestPath)
		file, err := capture.ReadForest(opts.ForestPath)
		if err != nil {
			return nil, fmt.Errorf("forest load failed: %w", err)
		}
		forest, sources = file.Forest, file.Sources
	}
	res.ForestSize = len(forest)
	tracker.Complete(steps.StepAcquireForest)
	emitProgress(&opts, steps.StepAcquireForest, fmt.Sprintf("Acquired %d forest entries", len(forest)), sources)

	// Steps 2-4: locate, normalize, write the stage-1 extract
	extracted, err := ExtractCompanies(forest, ExtractOptions{
		CompaniesPath: opts.CompaniesPath,
		JSONPath:      opts.JSONPath,
		Logger:        logger,
		tracker:       tracker,
		stepf:         opts.stepf,
		emit:          func(step, msg string, content any) { emitProgress(&opts, step, msg, content) },
	})
	if err != nil {
		return nil, err
	}
	res.Located = extracted.Located
	res.Companies = extracted.Companies
	if opts.Verbose {
		printer.PrintLocateResult(extracted.Located, len(forest))
		printer.PrintCompanies(extracted.Companies)
	}

	// Steps 5-7: re-read the extract, partition and write the sector files
	split, err := SplitSectors(SplitOptions{
		CompaniesPath: opts.CompaniesPath,
		SectorDir:     opts.SectorDir,
		SectorPrefix:  opts.SectorPrefix,
		Logger:        logger,
		tracker:       tracker,
		stepf:         opts.stepf,
		emit:          func(step, msg string, content any) { emitProgress(&opts, step, msg, content) },
	})
	if err != nil {
		return nil, err
	}
	res.Stats = split.Stats
	res.Files = split.Files
	if opts.Verbose {
		printer.PrintPartitionStats(split.Stats, split.Buckets.Len())
		printer.PrintSectorFiles(split.Files)
	}

	// Step 8: optional persistence; failures only warn
	if opts.DatabaseURL == "" {
		opts.stepf(8, "No database configured, skipping persistence")
		return res, nil
	}
	if err := tracker.Start(steps.StepPersist); err != nil {
		return nil, err
	}
	opts.stepf(8, "Persisting run to database...")
	runID, err := persist(ctx, opts.DatabaseURL, sourceURLs(sources), extracted, split.Buckets)
	if err != nil {
		_, _ = fmt.Fprintf(opts.out(), "Warning: Failed to persist run: %v\n", err)
		_, _ = fmt.Fprintf(opts.out(), "Continuing without database persistence...\n")
		logger.Warn("persistence failed", zap.Error(err))
		return res, nil
	}
	res.RunID = runID
	tracker.Complete(steps.StepPersist)
	emitProgress(&opts, steps.StepPersist, fmt.Sprintf("Persisted run %s", runID), nil)

	return res, nil
}

func (o *RunOptions) captureOptions(logger *zap.Logger) *capture.Options {
	opts := capture.DefaultOptions()
	if o.Capture != nil {
		c := *o.Capture
		opts = &c
	}
	if opts.Logger == nil {
		opts.Logger = logger
	}
	return opts
}

// CaptureForest captures every URL and, when out is set, saves the forest and
// checks the file against the captured forest schema.
func CaptureForest(ctx context.Context, urls []string, out string, opts *capture.Options) (*capture.ForestFile, error) {
	forest, sources, err := capture.All(ctx, urls, opts)
	if err != nil {
		return nil, fmt.Errorf("capture failed: %w", err)
	}
	if out != "" {
		if err := capture.WriteForest(out, forest, sources); err != nil {
			return nil, err
		}
		if err := schemas.ValidateForestFile(out); err != nil {
			return nil, fmt.Errorf("forest file %s failed validation: %w", out, err)
		}
	}
	return &capture.ForestFile{Sources: sources, Forest: forest}, nil
}

// ExtractOptions configures ExtractCompanies.
type ExtractOptions struct {
	CompaniesPath string
	JSONPath      string
	Logger        *zap.Logger

	tracker *steps.Tracker
	stepf   func(n int, format string, args ...any)
	emit    func(step, msg string, content any)
}

// Extraction is the output of ExtractCompanies.
type Extraction struct {
	Located   *locate.Result
	Companies []types.CanonicalCompany // sorted by (sector, name)
}

// ExtractCompanies locates the record list in forest, normalizes it and writes
// the stage-1 extract, plus the JSON export when JSONPath is set. A
// *locate.NotFoundError is returned before anything is written.
func ExtractCompanies(forest []types.Value, opts ExtractOptions) (*Extraction, error) {
	logger := logging.OrNop(opts.Logger)
	if opts.tracker == nil {
		opts.tracker = steps.NewTracker()
		opts.tracker.Complete(steps.StepAcquireForest)
	}
	if opts.stepf == nil {
		opts.stepf = func(int, string, ...any) {}
	}
	if opts.emit == nil {
		opts.emit = func(string, string, any) {}
	}
	if opts.CompaniesPath == "" {
		return nil, fmt.Errorf("companies output path is required")
	}

	if err := opts.tracker.Start(steps.StepLocate); err != nil {
		return nil, err
	}
	opts.stepf(2, "Locating record list in %d forest entries...", len(forest))
	located, err := locate.New(logger).Locate(forest)
	if err != nil {
		return nil, err
	}
	opts.tracker.Complete(steps.StepLocate)
	opts.emit(steps.StepLocate, fmt.Sprintf("Located %d records (%s)", len(located.Records), located.Stage), located.Stage)

	if err := opts.tracker.Start(steps.StepNormalize); err != nil {
		return nil, err
	}
	opts.stepf(3, "Normalizing %d records...", len(located.Records))
	companies := extract.SortCompanies(normalize.AllWithLogger(located.Records, logger))
	opts.tracker.Complete(steps.StepNormalize)
	opts.emit(steps.StepNormalize, fmt.Sprintf("Normalized %d companies", len(companies)), nil)

	if err := opts.tracker.Start(steps.StepWriteExtract); err != nil {
		return nil, err
	}
	opts.stepf(4, "Writing companies extract to %s...", opts.CompaniesPath)
	if err := extract.WriteCompaniesFile(opts.CompaniesPath, companies); err != nil {
		return nil, err
	}
	opts.tracker.Complete(steps.StepWriteExtract)
	opts.emit(steps.StepWriteExtract, fmt.Sprintf("Wrote %s", opts.CompaniesPath), nil)

	if opts.JSONPath != "" {
		if err := opts.tracker.Start(steps.StepExportJSON); err != nil {
			return nil, err
		}
		if err := extract.WriteCompaniesJSON(opts.JSONPath, companies); err != nil {
			return nil, err
		}
		if err := schemas.ValidateCompaniesFile(opts.JSONPath); err != nil {
			return nil, fmt.Errorf("companies export %s failed validation: %w", opts.JSONPath, err)
		}
		opts.tracker.Complete(steps.StepExportJSON)
		opts.emit(steps.StepExportJSON, fmt.Sprintf("Wrote %s", opts.JSONPath), nil)
	}

	logger.Info("extract written",
		zap.String("stage", string(located.Stage)),
		zap.Int("companies", len(companies)),
		zap.String("path", opts.CompaniesPath))

	return &Extraction{Located: located, Companies: companies}, nil
}

// SplitOptions configures SplitSectors.
type SplitOptions struct {
	CompaniesPath string
	SectorDir     string
	SectorPrefix  string
	Logger        *zap.Logger

	tracker *steps.Tracker
	stepf   func(n int, format string, args ...any)
	emit    func(step, msg string, content any)
}

// Split is the output of SplitSectors.
type Split struct {
	Buckets *partition.Buckets
	Stats   partition.Stats
	Files   []extract.SectorFile
}

// SplitSectors reads a stage-1 extract back, partitions its raw payloads by
// sector and writes one file per bucket.
func SplitSectors(opts SplitOptions) (*Split, error) {
	logger := logging.OrNop(opts.Logger)
	if opts.tracker == nil {
		// Standalone splits start from an extract written by an earlier run
		opts.tracker = steps.NewTracker()
		opts.tracker.Complete(steps.StepWriteExtract)
	}
	if opts.stepf == nil {
		opts.stepf = func(int, string, ...any) {}
	}
	if opts.emit == nil {
		opts.emit = func(string, string, any) {}
	}
	if opts.SectorDir == "" {
		return nil, fmt.Errorf("sector output directory is required")
	}
	if opts.SectorPrefix == "" {
		opts.SectorPrefix = extract.DefaultSectorPrefix
	}

	if err := opts.tracker.Start(steps.StepReingest); err != nil {
		return nil, err
	}
	opts.stepf(5, "Reading companies extract %s...", opts.CompaniesPath)
	rows, err := extract.ReadCompaniesFile(opts.CompaniesPath)
	if err != nil {
		return nil, err
	}
	opts.tracker.Complete(steps.StepReingest)
	opts.emit(steps.StepReingest, fmt.Sprintf("Read %d rows", len(rows)), nil)

	if err := opts.tracker.Start(steps.StepPartition); err != nil {
		return nil, err
	}
	opts.stepf(6, "Partitioning %d rows by sector...", len(rows))
	buckets, stats := partition.New(logger).PartitionRows(extract.PartitionRows(rows))
	opts.tracker.Complete(steps.StepPartition)
	opts.emit(steps.StepPartition, fmt.Sprintf("Built %d sector buckets", buckets.Len()), stats)

	if err := opts.tracker.Start(steps.StepWriteSectors); err != nil {
		return nil, err
	}
	opts.stepf(7, "Writing %d sector files to %s...", buckets.Len(), opts.SectorDir)
	files, err := extract.WriteSectors(opts.SectorDir, opts.SectorPrefix, buckets)
	if err != nil {
		return nil, err
	}
	opts.tracker.Complete(steps.StepWriteSectors)
	opts.emit(steps.StepWriteSectors, fmt.Sprintf("Wrote %d sector files", len(files)), files)

	return &Split{Buckets: buckets, Stats: stats, Files: files}, nil
}

// persist stores the run, its companies and its sector memberships.
func persist(ctx context.Context, databaseURL string, sources []string, extracted *Extraction, buckets *partition.Buckets) (uuid.UUID, error) {
	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return uuid.Nil, err
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		return uuid.Nil, err
	}

	runID, err := database.CreateRun(ctx, sources)
	if err != nil {
		return uuid.Nil, err
	}

	stage := string(extracted.Located.Stage)
	if err := database.SaveCompanies(ctx, runID, extracted.Companies); err != nil {
		_ = database.CompleteRun(ctx, runID, db.RunStatusFailed, stage, 0)
		return uuid.Nil, err
	}
	if err := database.SaveSectorMemberships(ctx, runID, buckets); err != nil {
		_ = database.CompleteRun(ctx, runID, db.RunStatusFailed, stage, len(extracted.Companies))
		return uuid.Nil, err
	}
	if err := database.CompleteRun(ctx, runID, db.RunStatusCompleted, stage, len(extracted.Companies)); err != nil {
		return uuid.Nil, err
	}
	return runID, nil
}

func sourceURLs(sources []types.CaptureSource) []string {
	urls := make([]string, 0, len(sources))
	for _, s := range sources {
		urls = append(urls, s.URL)
	}
	return urls
}
