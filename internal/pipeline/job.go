package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"healthetl/internal/config"
	"healthetl/internal/crawler"
	"healthetl/internal/dataset"
	"healthetl/internal/logger"
	"healthetl/internal/metrics"
	"healthetl/internal/models"
	"healthetl/internal/validator"
)

// ErrUnknownDataset is returned for a dataset name with no job.
var ErrUnknownDataset = errors.New("unknown dataset")

// Result summarizes one finished dataset job.
type Result struct {
	Stats    *Stats
	Dataset  string
	Files    []string
	Duration time.Duration
}

// Runner runs dataset jobs: fetch, read, process, write, validate.
type Runner struct {
	cfg     *config.Config
	client  *crawler.Client
	writer  *dataset.Writer
	sqlite  *dataset.SQLiteSink
	metrics *metrics.Metrics
	log     *logger.Logger
	run     Run
}

// Option configures a Runner.
type Option func(*Runner)

// WithClient swaps the fetch client.
func WithClient(c *crawler.Client) Option {
	return func(r *Runner) { r.client = c }
}

// WithSQLite mirrors every written table into s.
func WithSQLite(s *dataset.SQLiteSink) Option {
	return func(r *Runner) { r.sqlite = s }
}

// WithMetrics records job statistics into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithRun stamps records with run instead of a fresh one.
func WithRun(run Run) Option {
	return func(r *Runner) { r.run = run }
}

// NewRunner creates a runner for cfg.
func NewRunner(cfg *config.Config, log *logger.Logger, opts ...Option) *Runner {
	r := &Runner{
		cfg:    cfg,
		log:    log,
		run:    NewRun(),
		writer: dataset.NewWriter(cfg.Output.BasePath, cfg.Output.CreateBackup),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.client == nil {
		r.client = crawler.NewClientWithDeps(crawler.NewScraperWithConfig(&cfg.Retry, 0), log)
	}

	return r
}

// RunInfo returns the run stamped on processed records.
func (r *Runner) RunInfo() Run {
	return r.run
}

// Run executes the job of one dataset.
func (r *Runner) Run(ctx context.Context, name string) (*Result, error) {
	start := time.Now()
	log := r.log.With("dataset", name, "run_id", r.run.ID)
	log.Info("starting job")

	var (
		res *Result
		err error
	)

	switch name {
	case config.DatasetFDA:
		res, err = r.runFDA(ctx, log)
	case config.DatasetGRAS:
		res, err = r.runGRAS(ctx, log)
	case config.DatasetCDC:
		res, err = r.runCDC(ctx, log)
	case config.DatasetWHO:
		res, err = r.runWHO(ctx, log)
	case config.DatasetFSIS:
		res, err = r.runFSIS(ctx, log)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDataset, name)
	}

	if r.metrics != nil {
		r.metrics.ObserveJob(name, start)
	}

	if err != nil {
		if r.metrics != nil {
			r.metrics.IncrementFailure(name)
		}

		log.Error("job failed", "error", err)

		return nil, fmt.Errorf("%s job: %w", name, err)
	}

	res.Dataset = name
	res.Duration = time.Since(start)
	res.Stats.Log(log)

	if r.metrics != nil {
		r.metrics.ObserveDataset(res.Stats.Counts())
	}

	log.Info("job complete", "records", res.Stats.Total, "files", strings.Join(res.Files, ","),
		"duration", res.Duration.Round(time.Millisecond))

	return res, nil
}

// RunAll runs the named jobs concurrently. A failing job does not stop the
// others; results of the successful jobs are returned in input order along
// with the joined errors.
func (r *Runner) RunAll(ctx context.Context, names []string) ([]*Result, error) {
	results := make([]*Result, len(names))
	errs := make([]error, len(names))

	var g errgroup.Group

	for i, name := range names {
		g.Go(func() error {
			results[i], errs[i] = r.Run(ctx, name)

			return nil
		})
	}

	_ = g.Wait()

	done := make([]*Result, 0, len(names))
	for _, res := range results {
		if res != nil {
			done = append(done, res)
		}
	}

	return done, errors.Join(errs...)
}

func (r *Runner) runFDA(ctx context.Context, log *logger.Logger) (*Result, error) {
	src := &r.cfg.Sources.FDA

	opts, err := r.cfg.ExtractionOptions(src.Profile)
	if err != nil {
		return nil, err
	}

	proc, err := NewSubstanceProcessor(opts, src.YearColumns, r.run.Provenance(SourceFDASubstances))
	if err != nil {
		return nil, err
	}

	read, err := r.readCSV(ctx, config.DatasetFDA, src, true, log)
	if err != nil {
		return nil, err
	}

	rows, stats, err := ProcessBatch[models.Substance](ctx, config.DatasetFDA, read.Records,
		r.cfg.Processing.Workers, r.cfg.Processing.ChunkSize, proc.Process)
	if err != nil {
		return nil, err
	}

	stats.Skipped = read.Skipped
	res := &Result{Stats: stats}

	minYear, maxYear := proc.Bounds()
	table := models.NewTable("fda_substances", proc.Columns(), rows)

	path, err := r.emit(ctx, table, src.Output, validator.SubstanceContract(minYear, maxYear, proc.yearColumns), log)
	if err != nil {
		return nil, err
	}

	res.Files = append(res.Files, path)

	summary := SummarizeYears(ApprovalYears(rows), src.SummaryFrom, src.SummaryTo)
	summaryTable := models.NewTable("fda_approvals_by_year", models.YearSummaryColumns, summary)

	path, err = r.emit(ctx, summaryTable, config.ApprovalsByYearFile, validator.YearSummaryContract(), log)
	if err != nil {
		return nil, err
	}

	res.Files = append(res.Files, path)

	return res, nil
}

func (r *Runner) runGRAS(ctx context.Context, log *logger.Logger) (*Result, error) {
	src := &r.cfg.Sources.GRAS

	opts, err := r.cfg.ExtractionOptions(src.Profile)
	if err != nil {
		return nil, err
	}

	proc, err := NewNoticeProcessor(opts, src.NoticeFallback, r.run.Provenance(SourceGRASNotices))
	if err != nil {
		return nil, err
	}

	read, err := r.readCSV(ctx, config.DatasetGRAS, src, true, log)
	if err != nil {
		return nil, err
	}

	rows, stats, err := ProcessBatch[models.Notice](ctx, config.DatasetGRAS, read.Records,
		r.cfg.Processing.Workers, r.cfg.Processing.ChunkSize, proc.Process)
	if err != nil {
		return nil, err
	}

	stats.Skipped = read.Skipped

	minYear, maxYear := proc.Bounds()
	table := models.NewTable("gras_notices", models.NoticeColumns, rows)

	path, err := r.emit(ctx, table, src.Output, validator.NoticeContract(minYear, maxYear), log)
	if err != nil {
		return nil, err
	}

	return &Result{Stats: stats, Files: []string{path}}, nil
}

func (r *Runner) runCDC(ctx context.Context, log *logger.Logger) (*Result, error) {
	src := &r.cfg.Sources.CDC

	var (
		records []models.RawRecord
		skipped int
		err     error
	)

	if src.IsLocalFile() {
		records, skipped, err = r.readRecords(ctx, config.DatasetCDC, src, log)
	} else {
		scraper := r.client.Scraper().WithRateLimit(src.GetRateLimit())
		records, err = crawler.NewSocrataClient(scraper, src.URL, src.PageSize, log).FetchAll(ctx)
	}

	if err != nil {
		return nil, err
	}

	proc := NewCDCProcessor(r.run.Provenance(SourceCDC))

	rows, stats, err := ProcessBatch[models.CDCObservation](ctx, config.DatasetCDC, records,
		r.cfg.Processing.Workers, r.cfg.Processing.ChunkSize, proc.Process)
	if err != nil {
		return nil, err
	}

	stats.Skipped = skipped
	table := models.NewTable("cdc_obesity", models.CDCColumns, rows)

	path, err := r.emit(ctx, table, src.Output, validator.CDCContract(), log)
	if err != nil {
		return nil, err
	}

	return &Result{Stats: stats, Files: []string{path}}, nil
}

func (r *Runner) runWHO(ctx context.Context, log *logger.Logger) (*Result, error) {
	src := &r.cfg.Sources.WHO

	read, err := r.readCSV(ctx, config.DatasetWHO, src, false, log)
	if err != nil {
		return nil, err
	}

	proc := NewWHOProcessor(r.run.Provenance(SourceWHO))

	rows, stats, err := ProcessBatch[models.WHOObservation](ctx, config.DatasetWHO, read.Records,
		r.cfg.Processing.Workers, r.cfg.Processing.ChunkSize, proc.Process)
	if err != nil {
		return nil, err
	}

	stats.Skipped = read.Skipped
	table := models.NewTable("who_obesity", models.WHOColumns, rows)

	path, err := r.emit(ctx, table, src.Output, validator.WHOContract(), log)
	if err != nil {
		return nil, err
	}

	return &Result{Stats: stats, Files: []string{path}}, nil
}

func (r *Runner) runFSIS(ctx context.Context, log *logger.Logger) (*Result, error) {
	src := &r.cfg.Sources.FSIS

	var (
		records []models.RawRecord
		skipped int
		err     error
	)

	if src.IsLocalFile() {
		records, skipped, err = r.readRecords(ctx, config.DatasetFSIS, src, log)
	} else {
		scraper := r.client.Scraper().WithRateLimit(src.GetRateLimit())
		client := crawler.NewFSISClient(scraper, src.URL, src.PageSize, log)
		records, err = client.FetchActiveAndClosed(ctx, crawler.RecallFilterFromMap(src.Filters))
	}

	if err != nil {
		return nil, err
	}

	records, filtered := FilterLanguage(records, src.Language)
	proc := NewRecallProcessor(r.run.Provenance(SourceFSIS))

	rows, stats, err := ProcessBatch[models.Recall](ctx, config.DatasetFSIS, records,
		r.cfg.Processing.Workers, r.cfg.Processing.ChunkSize, proc.Process)
	if err != nil {
		return nil, err
	}

	stats.Skipped = skipped
	stats.Filtered = filtered
	table := models.NewTable("fsis_recalls", models.RecallColumns, rows)

	path, err := r.emit(ctx, table, src.Output, validator.RecallContract(), log)
	if err != nil {
		return nil, err
	}

	return &Result{Stats: stats, Files: []string{path}}, nil
}

// readCSV fetches a CSV export and parses it with the source's options.
func (r *Runner) readCSV(
	ctx context.Context,
	name string,
	src *config.SourceConfig,
	normalizeHeaders bool,
	log *logger.Logger,
) (*dataset.ReadResult, error) {
	raw, err := r.client.FetchSource(ctx, name, src)
	if err != nil {
		return nil, err
	}

	read, err := dataset.ReadCSV(raw, dataset.ReadOptions{
		Encodings:        src.Encodings,
		SkipRows:         src.SkipRows,
		NormalizeHeaders: normalizeHeaders,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src.GetSource(), err)
	}

	log.Info("read source", "source", src.GetSource(), "encoding", read.Encoding,
		"records", len(read.Records), "skipped", read.Skipped)

	return read, nil
}

// readRecords loads a local snapshot of an API dataset: a JSON array when
// the file ends in .json, otherwise CSV.
func (r *Runner) readRecords(
	ctx context.Context,
	name string,
	src *config.SourceConfig,
	log *logger.Logger,
) ([]models.RawRecord, int, error) {
	if strings.EqualFold(filepath.Ext(src.File), ".json") {
		raw, err := r.client.FetchSource(ctx, name, src)
		if err != nil {
			return nil, 0, err
		}

		records, err := crawler.DecodeRecords(raw)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", src.File, err)
		}

		return records, 0, nil
	}

	read, err := r.readCSV(ctx, name, src, true, log)
	if err != nil {
		return nil, 0, err
	}

	return read.Records, read.Skipped, nil
}

// emit writes table, validates the file it wrote against contract and
// mirrors it into SQLite when configured.
func (r *Runner) emit(
	ctx context.Context,
	table models.Table,
	file string,
	contract validator.Contract,
	log *logger.Logger,
) (string, error) {
	path, err := r.writer.WriteTable(table, file)
	if err != nil {
		return "", err
	}

	written, err := dataset.ReadTable(path, table.Name)
	if err != nil {
		return "", err
	}

	result := contract.Validate(written)
	for _, w := range result.Warnings {
		log.Warn("output validation", "file", path, "warning", w)
	}

	if err := result.Err(); err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}

	log.Info("wrote table", "path", path, "rows", len(table.Rows), "validation", result.String())

	if r.sqlite != nil {
		if err := r.sqlite.WriteTable(ctx, table); err != nil {
			return "", err
		}
	}

	return path, nil
}
