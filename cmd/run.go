package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"sync"
	"syscall"

	"logocluster/internal/config"
	"logocluster/internal/fingerprint"
	"logocluster/internal/locator"
	"logocluster/internal/pipeline"
	"logocluster/internal/sink"
	"logocluster/internal/source"
	"logocluster/pkg/controller"
	"logocluster/pkg/domain"
	"logocluster/pkg/logger"
	"logocluster/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// progressObserver renders one progress bar per pipeline stage.
type progressObserver struct {
	mu   sync.Mutex
	bars map[string]*progressbar.ProgressBar
}

func newProgressObserver() *progressObserver {
	return &progressObserver{bars: make(map[string]*progressbar.ProgressBar)}
}

func (o *progressObserver) StageStarted(stage string, total int) {
	if total == 0 {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.bars[stage] = progressbar.Default(int64(total), stage)
}

func (o *progressObserver) DomainDone(stage string) {
	o.mu.Lock()
	bar := o.bars[stage]
	o.mu.Unlock()
	if bar != nil {
		_ = bar.Add(1)
	}
}

func (o *progressObserver) StageFinished(stage string) {
	o.mu.Lock()
	bar := o.bars[stage]
	delete(o.bars, stage)
	o.mu.Unlock()
	if bar != nil {
		_ = bar.Finish()
	}
}

// startDebugServer serves metrics and pprof until ctx is done.
func startDebugServer(ctx context.Context, cfg *config.Config, reg *prometheus.Registry) {
	srv := controller.NewServer(controller.Options{
		Addr:        cfg.Metrics.Addr,
		MetricsPath: cfg.Metrics.Path,
		Gatherer:    reg,
	})
	go func() {
		if err := controller.Serve(ctx, srv, cfg.GracefulShutdownTimeout); err != nil {
			logger.Error(ctx, "debug server failed", zap.Error(err))
		}
	}()
}

// applyRunFlags lets explicitly set flags override the configuration.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.Input.Path, _ = flags.GetString("input")
	}
	if flags.Changed("column") {
		cfg.Input.Column, _ = flags.GetString("column")
	}
	if flags.Changed("sheet") {
		cfg.Input.Sheet, _ = flags.GetString("sheet")
	}
	if flags.Changed("output") {
		cfg.Output.Path, _ = flags.GetString("output")
	}
	if flags.Changed("report") {
		cfg.Output.Report, _ = flags.GetString("report")
	}
	if flags.Changed("limit") {
		cfg.Pipeline.DomainLimit, _ = flags.GetInt("limit")
	}
	if flags.Changed("concurrency") {
		cfg.Pipeline.Concurrency, _ = flags.GetInt("concurrency")
	}
	if flags.Changed("fingerprint-concurrency") {
		cfg.Pipeline.FingerprintConcurrency, _ = flags.GetInt("fingerprint-concurrency")
	}
	if flags.Changed("algorithm") {
		cfg.Fingerprint.Algorithm, _ = flags.GetString("algorithm")
	}
	if flags.Changed("threshold") {
		cfg.Fingerprint.Threshold, _ = flags.GetInt("threshold")
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr, _ = flags.GetString("metrics-addr")
	}
	if flags.Changed("persist") {
		cfg.Database.Enabled, _ = flags.GetBool("persist")
	}
}

// printSummary writes the console summary of a run.
func printSummary(w io.Writer, report *domain.Report, output string) {
	_, _ = fmt.Fprintf(w, "\n--- PERFORMANCE METRICS ---\n")
	_, _ = fmt.Fprintf(w, "Success Rate: %.2f%%\n", report.SuccessRate()*100)
	_, _ = fmt.Fprintf(w, "Logos Hashed: %d\n", report.Fingerprinted)
	_, _ = fmt.Fprintf(w, "Clusters: %d\n", len(report.Clusters))
	_, _ = fmt.Fprintf(w, "Results: %s\n", output)
}

// runCommand constructs the 'run' subcommand that locates, fingerprints and
// clusters the logos of the input domains.
func runCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Clusters the input domains by logo similarity",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			applyRunFlags(cmd, cfg)

			domains, err := source.Load(ctx, source.NewOptions(cfg))
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			mp, err := metrics.NewMeterProvider(reg)
			if err != nil {
				return err
			}
			defer func() {
				_ = mp.Shutdown(context.WithoutCancel(ctx))
			}()
			pipelineMetrics, err := metrics.NewPipeline(mp)
			if err != nil {
				return err
			}
			if cfg.Metrics.Addr != "" {
				startDebugServer(ctx, cfg, reg)
			}

			client, err := newFetcher(cfg)
			if err != nil {
				return err
			}
			hasher, engine, err := newHasher(cfg)
			if err != nil {
				return err
			}

			deps := pipeline.Deps{
				Locator:       locator.New(client),
				Fingerprinter: fingerprint.New(client, hasher, fingerprint.NewOptions(cfg)),
				Engine:        engine,
				Metrics:       pipelineMetrics,
			}
			if cfg.Database.Enabled {
				strg, closeStrg, err := getPostgres(ctx, cfg)
				if err != nil {
					return err
				}
				defer closeStrg()
				deps.Storage = strg
			}
			if noProgress, _ := cmd.Flags().GetBool("no-progress"); !noProgress {
				deps.Observer = newProgressObserver()
			}

			p, err := pipeline.New(deps, pipeline.NewOptions(cfg))
			if err != nil {
				return err
			}

			report, runErr := p.Run(ctx, domains)
			if report == nil {
				return runErr
			}

			err = sink.WriteFile(cfg.Output.Path, func(w io.Writer) error {
				return sink.WriteClusters(w, report.Clusters)
			})
			if err != nil {
				return errors.Join(runErr, err)
			}
			if cfg.Output.Report != "" {
				err = sink.WriteFile(cfg.Output.Report, func(w io.Writer) error {
					return sink.WriteReport(w, report)
				})
				if err != nil {
					return errors.Join(runErr, err)
				}
			}

			printSummary(cmd.OutOrStdout(), report, cfg.Output.Path)

			return runErr
		},
	}

	flags := cmd.Flags()
	flags.StringP("input", "i", "", "domain list (.txt, .csv, .xlsx or - for stdin)")
	flags.String("column", "", "domain column of CSV and XLSX inputs")
	flags.String("sheet", "", "XLSX sheet name")
	flags.StringP("output", "o", "", "clusters JSON output path")
	flags.String("report", "", "optional per-domain report JSON path")
	flags.IntP("limit", "n", 0, "process only the first N domains")
	flags.Int("concurrency", 0, "max in-flight page lookups")
	flags.Int("fingerprint-concurrency", 0, "max in-flight image downloads")
	flags.String("algorithm", "", fmt.Sprintf("hash algorithm %v", fingerprint.Algorithms()))
	flags.Int("threshold", -1, "max Hamming distance for a match, negative for the algorithm default")
	flags.String("metrics-addr", "", "debug server address, empty to disable")
	flags.Bool("persist", false, "store the run in postgres")
	flags.Bool("no-progress", false, "disable progress bars")

	return cmd
}
