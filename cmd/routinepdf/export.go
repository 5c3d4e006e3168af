package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	routinepdf "github.com/alnah/go-routinepdf"
	"github.com/alnah/go-routinepdf/internal/config"
	"github.com/alnah/go-routinepdf/internal/fileutil"
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// Sentinel errors for export operations.
var (
	ErrNoInput       = errors.New("no input specified")
	ErrReadRoutine   = errors.New("failed to read routine file")
	ErrWriteOutput   = errors.New("failed to write output file")
	ErrOutputDir     = errors.New("failed to create output directory")
	ErrExporterInit  = errors.New("failed to acquire exporter")
	ErrExportsFailed = errors.New("some exports failed")
)

// CLIExporter is the part of the exporter used by the batch.
type CLIExporter interface {
	Export(ctx context.Context, f routinepdf.Format, in routinepdf.ExportInput) (*routinepdf.ExportResult, error)
}

// Compile-time interface implementation check.
var _ CLIExporter = (*routinepdf.Exporter)(nil)

// Pool abstracts exporter pool operations for testability.
type Pool interface {
	Acquire(ctx context.Context) (*routinepdf.Exporter, error)
	Release(*routinepdf.Exporter)
	Size() int
}

var _ Pool = (*routinepdf.ExporterPool)(nil)

// exportJob is one routine file rendered to one format.
type exportJob struct {
	InputPath string
	Format    routinepdf.Format
}

// ExportOutcome holds the result of a single export job.
type ExportOutcome struct {
	InputPath  string
	Format     routinepdf.Format
	OutputPath string
	Pages      int
	Err        error
	Duration   time.Duration
}

// exportParams are shared by every job of a batch.
type exportParams struct {
	outputDir string
	theme     *routinepdf.Theme
	page      *routinepdf.PageSettings
	mode      routinepdf.ImageMode
	meta      routinepdf.Meta
}

// runExport handles the export command.
func runExport(ctx context.Context, args []string, env *Environment) error {
	flags, inputs, err := parseExportFlags(args)
	if err != nil {
		return err
	}
	if err := validateWorkers(flags.workers); err != nil {
		return err
	}

	cfg, envCfg, err := loadConfig(flags.common.config, env)
	if err != nil {
		return err
	}
	mergeExportFlags(flags, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	if len(inputs) == 0 {
		printExportUsage(env.Stderr)
		return ErrNoInput
	}

	formats, err := parseFormatList(flags.formats)
	if err != nil {
		return err
	}

	timeout, err := resolveTimeout(flags.timeout, envCfg.Timeout, cfg)
	if err != nil {
		return err
	}

	logger := newLogger(env.Stderr, flags.common.quiet, flags.common.verbose)

	params, err := buildExportParams(cfg, flags, env)
	if err != nil {
		return err
	}

	opts, err := exporterOptions(cfg, timeout, env, logger)
	if err != nil {
		return err
	}

	workers := flags.workers
	if workers == 0 {
		workers = envCfg.Workers
	}
	poolSize := min(routinepdf.ResolvePoolSize(workers), len(inputs))
	logger.Debug("exporter pool", "size", poolSize)

	pool := routinepdf.NewExporterPool(poolSize, opts...)
	defer func() { _ = pool.Close() }()

	jobs := make([]exportJob, 0, len(inputs)*len(formats))
	for _, in := range inputs {
		for _, f := range formats {
			jobs = append(jobs, exportJob{InputPath: in, Format: f})
		}
	}

	results := exportBatch(ctx, pool, jobs, params)
	failed := printResultsWithWriter(results, flags.common.quiet, flags.common.verbose, env)
	if failed == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d of %d: %w", ErrExportsFailed, failed, len(results), firstError(results))
}

// mergeExportFlags applies explicitly set flags on top of cfg.
func mergeExportFlags(f *exportFlags, cfg *config.Config) {
	if f.theme != "" {
		cfg.Export.Theme = f.theme
	}
	if f.decoration != "" {
		cfg.Export.Decoration = f.decoration
	}
	if f.mode != "" {
		cfg.Image.Mode = f.mode
	}
	if f.groupSize > 0 {
		cfg.Export.GroupSize = f.groupSize
	}
	if f.assetPath != "" {
		cfg.Assets.BasePath = f.assetPath
	}
	if f.phone != "" {
		cfg.Contact.Phone = f.phone
	}
	if f.output != "" {
		cfg.Output.DefaultDir = f.output
	}
	if f.page.size != "" {
		cfg.Page.Size = f.page.size
	}
	if f.page.orientation != "" {
		cfg.Page.Orientation = f.page.orientation
	}
	if f.page.marginSet {
		cfg.Page.Margin = f.page.margin
	}
}

// parseFormatList parses "pdf", "pdf,jpg" or "all". Duplicates are dropped.
func parseFormatList(s string) ([]routinepdf.Format, error) {
	if strings.EqualFold(strings.TrimSpace(s), "all") {
		return routinepdf.Formats, nil
	}

	var formats []routinepdf.Format
	seen := make(map[routinepdf.Format]bool)
	for part := range strings.SplitSeq(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		f, err := routinepdf.ParseFormat(part)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}
	if len(formats) == 0 {
		return nil, fmt.Errorf("%w: %q", routinepdf.ErrInvalidFormat, s)
	}
	return formats, nil
}

// buildExportParams resolves the theme, page, mode and footer once per batch.
func buildExportParams(cfg *config.Config, f *exportFlags, env *Environment) (*exportParams, error) {
	catalog, err := routinepdf.NewThemeCatalog(cfg.Assets.BasePath)
	if err != nil {
		return nil, err
	}
	theme, err := loadTheme(catalog, cfg.Export.Theme)
	if err != nil {
		return nil, err
	}

	page := &routinepdf.PageSettings{
		Size:        cfg.Page.Size,
		Orientation: cfg.Page.Orientation,
		Margin:      cfg.Page.Margin,
	}
	if err := page.Validate(); err != nil {
		return nil, err
	}

	mode, err := routinepdf.ParseImageMode(cfg.Image.Mode)
	if err != nil {
		return nil, err
	}

	meta, err := exportMeta(cfg, env.Now())
	if err != nil {
		return nil, err
	}

	return &exportParams{
		outputDir: cfg.Output.DefaultDir,
		theme:     &theme,
		page:      page,
		mode:      mode,
		meta:      meta,
	}, nil
}

// exportBatch runs jobs concurrently, one worker per pool slot.
func exportBatch(ctx context.Context, pool Pool, jobs []exportJob, params *exportParams) []ExportOutcome {
	if len(jobs) == 0 {
		return nil
	}

	concurrency := min(pool.Size(), len(jobs))
	results := make([]ExportOutcome, len(jobs))
	var wg sync.WaitGroup
	queue := make(chan int, len(jobs))

	for range concurrency {
		wg.Go(func() {
			exp, err := pool.Acquire(ctx)
			if err != nil {
				// Mark the jobs this worker would have taken as failed.
				for idx := range queue {
					results[idx] = ExportOutcome{
						InputPath: jobs[idx].InputPath,
						Format:    jobs[idx].Format,
						Err:       fmt.Errorf("%w: %w", ErrExporterInit, err),
					}
				}
				return
			}
			defer pool.Release(exp)

			for idx := range queue {
				if ctx.Err() != nil {
					results[idx] = ExportOutcome{
						InputPath: jobs[idx].InputPath,
						Format:    jobs[idx].Format,
						Err:       ctx.Err(),
					}
					continue
				}
				results[idx] = exportFile(ctx, exp, jobs[idx], params)
			}
		})
	}

	for i := range jobs {
		queue <- i
	}
	close(queue)

	wg.Wait()
	return results
}

// exportFile reads one routine file, exports it and writes the result.
func exportFile(ctx context.Context, exp CLIExporter, job exportJob, params *exportParams) ExportOutcome {
	start := time.Now()
	result := ExportOutcome{InputPath: job.InputPath, Format: job.Format}
	done := func(err error) ExportOutcome {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	data, err := os.ReadFile(job.InputPath) // #nosec G304 -- user-provided path
	if err != nil {
		return done(fmt.Errorf("%w: %w", ErrReadRoutine, err))
	}
	routine, err := routinepdf.DecodeRoutine(data)
	if err != nil {
		return done(err)
	}

	res, err := exp.Export(ctx, job.Format, routinepdf.ExportInput{
		Routine: routine,
		Theme:   params.theme,
		Page:    params.page,
		Mode:    params.mode,
		Meta:    params.meta,
	})
	if err != nil {
		return done(err)
	}

	if params.outputDir != "" {
		if err := os.MkdirAll(params.outputDir, dirPermissions); err != nil {
			return done(fmt.Errorf("%w: %w", ErrOutputDir, err))
		}
	}

	result.OutputPath = filepath.Join(params.outputDir, res.FileName)
	result.Pages = res.Pages
	if err := fileutil.WriteFileAtomic(result.OutputPath, res.Data, filePermissions); err != nil {
		return done(fmt.Errorf("%w: %w", ErrWriteOutput, err))
	}

	return done(nil)
}

// firstError returns the first failure, which decides the exit code.
func firstError(results []ExportOutcome) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}

// ResultSummary holds the count of succeeded and failed exports.
type ResultSummary struct {
	Succeeded int
	Failed    int
}

// countResults tallies succeeded and failed exports.
func countResults(results []ExportOutcome) ResultSummary {
	var summary ResultSummary
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}
	return summary
}

// printResultsWithWriter outputs export results and returns the failure count.
func printResultsWithWriter(results []ExportOutcome, quiet, verbose bool, env *Environment) int {
	summary := countResults(results)

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(env.Stderr, "FAILED %s (%s): %v%s\n", r.InputPath, r.Format, r.Err, hintFor(r.Err))
			continue
		}

		if quiet {
			continue
		}

		if verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%d pages, %v)\n", r.InputPath, r.OutputPath, r.Pages, r.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(env.Stdout, "Created %s\n", r.OutputPath)
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", summary.Succeeded, summary.Failed)
	}

	return summary.Failed
}
