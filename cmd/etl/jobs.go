package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"healthetl/internal/config"
	"healthetl/internal/dataset"
	"healthetl/internal/logger"
	"healthetl/internal/metrics"
	"healthetl/internal/pipeline"
	"healthetl/internal/report"
)

var datasetDescriptions = map[string]string{
	config.DatasetFDA:  "Clean the FDA food substances inventory",
	config.DatasetGRAS: "Clean the FDA GRAS notices inventory",
	config.DatasetCDC:  "Fetch and clean CDC adult obesity prevalence",
	config.DatasetWHO:  "Clean WHO adult obesity statistics",
	config.DatasetFSIS: "Fetch and clean FSIS recall records",
}

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Run every dataset job concurrently, then verify",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runJobs(cmd.Context(), config.Datasets, true)
	},
}

func init() {
	for _, name := range config.Datasets {
		rootCmd.AddCommand(&cobra.Command{
			Use:   name,
			Short: datasetDescriptions[name],
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runJobs(cmd.Context(), []string{name}, false)
			},
		})
	}

	rootCmd.AddCommand(allCmd)
}

// runJobs runs the named dataset jobs with the configured sinks. With verify
// set, the verification report is produced even when some jobs failed.
func runJobs(ctx context.Context, names []string, verify bool) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	m := metrics.New()
	opts := []pipeline.Option{pipeline.WithMetrics(m)}

	if cfg.Output.SQLitePath != "" {
		sink, err := dataset.OpenSQLite(cfg.Output.SQLitePath)
		if err != nil {
			return err
		}

		defer func() {
			if err := sink.Close(); err != nil {
				log.Warn("failed to close sqlite sink", "error", err)
			}
		}()

		opts = append(opts, pipeline.WithSQLite(sink))
	}

	runner := pipeline.NewRunner(cfg, log, opts...)

	results, jobErr := runner.RunAll(ctx, names)
	for _, res := range results {
		fmt.Printf("%-5s %6d records  %4d skipped  %4d filtered  %v\n",
			res.Dataset, res.Stats.Total, res.Stats.Skipped, res.Stats.Filtered, res.Duration.Round(time.Millisecond))
	}

	if cfg.Output.MetricsPath != "" {
		if err := m.WriteTextfile(cfg.Output.MetricsPath); err != nil {
			jobErr = errors.Join(jobErr, err)
		}
	}

	if !verify {
		return jobErr
	}

	return errors.Join(jobErr, runVerify(cfg, log, runner.RunInfo().ID))
}

func runVerify(cfg *config.Config, log *logger.Logger, runID string) error {
	v := report.NewVerifier(cfg, log, report.WithVersion(version), report.WithRunID(runID))

	res, err := v.Run()
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "report: %s\nresults: %s\n", cfg.Verification.ReportPath, cfg.Verification.ResultsPath)

	if !res.Complete() {
		log.Warn("report signed as unvalidated", "missing", res.Missing)
	}

	return nil
}
