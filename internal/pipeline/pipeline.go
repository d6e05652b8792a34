// Package pipeline runs the locate, fingerprint and cluster stages over a
// list of domains. A failure for one domain only removes that domain from the
// clustering universe; the run itself fails only on cancellation, wiring
// errors and persistence errors.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"logocluster/internal/cluster"
	"logocluster/internal/config"
	"logocluster/internal/fingerprint"
	"logocluster/internal/locator"
	"logocluster/pkg/domain"
	"logocluster/pkg/logger"
	"logocluster/pkg/metrics"
	"logocluster/pkg/serrors"
	"logocluster/pkg/storage"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Stage names used in outcomes, logs and metrics.
const (
	StageLocate      = "locate"
	StageFingerprint = "fingerprint"
)

// Observer is notified as domains move through the stages. Implementations
// must be safe for concurrent use.
type Observer interface {
	StageStarted(stage string, total int)
	DomainDone(stage string)
	StageFinished(stage string)
}

// Options configures a Pipeline.
type Options struct {
	// Concurrency bounds in-flight locator calls. Default 32.
	Concurrency int
	// FingerprintConcurrency bounds in-flight fingerprinter calls. Default 8.
	FingerprintConcurrency int
	// PersistTimeout bounds storing a finished run. Persistence outlives the
	// cancellation of the run context for at most this long. Default 10s.
	PersistTimeout time.Duration
}

// NewOptions maps the pipeline section of cfg.
func NewOptions(cfg *config.Config) Options {
	return Options{
		Concurrency:            cfg.Pipeline.Concurrency,
		FingerprintConcurrency: cfg.Pipeline.FingerprintConcurrency,
		PersistTimeout:         cfg.GracefulShutdownTimeout,
	}
}

func (o Options) withDefaults() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = 32
	}
	if o.FingerprintConcurrency <= 0 {
		o.FingerprintConcurrency = 8
	}
	if o.PersistTimeout <= 0 {
		o.PersistTimeout = 10 * time.Second
	}

	return o
}

// Deps are the collaborators of a Pipeline. Metrics, Storage and Observer are optional.
type Deps struct {
	Locator       locator.Locator
	Fingerprinter fingerprint.Fingerprinter
	Engine        *cluster.Engine
	Metrics       *metrics.Pipeline
	Storage       storage.Storage
	Observer      Observer
}

// Pipeline orchestrates one or more runs. It holds no per-run state.
type Pipeline struct {
	deps Deps
	opts Options
}

// New validates deps and returns a Pipeline.
func New(deps Deps, opts Options) (*Pipeline, error) {
	if deps.Locator == nil || deps.Fingerprinter == nil || deps.Engine == nil {
		return nil, serrors.With(serrors.ErrPrecondition, "locator, fingerprinter and engine are required")
	}
	if deps.Metrics == nil {
		m, err := metrics.NewPipeline(nil)
		if err != nil {
			return nil, err
		}
		deps.Metrics = m
	}
	if deps.Observer == nil {
		deps.Observer = nopObserver{}
	}

	return &Pipeline{deps: deps, opts: opts.withDefaults()}, nil
}

// Run processes domains and returns the report. Duplicate domains are
// processed once, at their first position.
func (p *Pipeline) Run(ctx context.Context, domains []string) (*domain.Report, error) {
	report := &domain.Report{
		ID:        domain.NewRunID(),
		StartedAt: time.Now().UTC(),
		Algorithm: p.deps.Fingerprinter.Algorithm(),
		Threshold: p.deps.Engine.Threshold(),
	}
	ctx = logger.WithFields(ctx, zap.Stringer("run", report.ID))

	outcomes := make([]domain.Outcome, 0, len(domains))
	seen := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		outcomes = append(outcomes, domain.Outcome{Domain: d, Cluster: -1})
	}
	report.Domains = len(outcomes)
	logger.Info(ctx, "run started",
		zap.Int("domains", report.Domains),
		zap.String("algorithm", string(report.Algorithm)),
		zap.Int("threshold", report.Threshold))

	all := make([]int, len(outcomes))
	for i := range all {
		all[i] = i
	}
	if err := p.stage(ctx, StageLocate, p.opts.Concurrency, all, outcomes, p.locate); err != nil {
		return nil, err
	}

	located := make([]int, 0, len(outcomes))
	for i := range outcomes {
		if outcomes[i].LogoURL != "" {
			located = append(located, i)
		}
	}
	report.Located = len(located)

	if err := p.stage(ctx, StageFingerprint, p.opts.FingerprintConcurrency, located, outcomes, p.fingerprint); err != nil {
		return nil, err
	}

	fps := domain.NewFingerprintMap()
	for _, o := range outcomes {
		if o.Fingerprint != nil {
			fps.Set(o.Domain, *o.Fingerprint)
		}
	}
	report.Fingerprinted = fps.Len()

	if fps.Len() > 0 {
		clusters, stats, err := p.deps.Engine.Cluster(ctx, fps)
		if err != nil {
			return nil, fmt.Errorf("could not cluster fingerprints: %w", err)
		}
		report.Clusters = clusters

		index := make(map[string]int, fps.Len())
		for ci, c := range clusters {
			for _, d := range c {
				index[d] = ci
			}
		}
		for i := range outcomes {
			if ci, ok := index[outcomes[i].Domain]; ok {
				outcomes[i].Cluster = ci
			}
		}
		logger.Debug(ctx, "clustering done", zap.Int("matches", stats.Matches), zap.Int("merges", stats.Merges))
	} else {
		logger.Warn(ctx, "no domain was fingerprinted, skipping clustering")
	}

	report.Outcomes = outcomes
	report.Duration = time.Since(report.StartedAt)
	p.deps.Metrics.RunFinished(ctx, report.SuccessRate(), len(report.Clusters))

	logger.Info(ctx, "run finished",
		zap.Int("located", report.Located),
		zap.Int("fingerprinted", report.Fingerprinted),
		zap.Int("clusters", len(report.Clusters)),
		zap.Float64("successRate", report.SuccessRate()),
		zap.Duration("duration", report.Duration))

	if p.deps.Storage != nil {
		if err := p.persist(ctx, report); err != nil {
			return report, err
		}
	}

	return report, nil
}

type stepFunc func(ctx context.Context, o *domain.Outcome) error

// stage runs step for the outcomes at idx through a pool of at most limit
// goroutines. Each goroutine writes only to its own outcome slot.
func (p *Pipeline) stage(ctx context.Context, name string, limit int, idx []int, outcomes []domain.Outcome, step stepFunc) error {
	p.deps.Observer.StageStarted(name, len(idx))
	defer p.deps.Observer.StageFinished(name)

	var g errgroup.Group
	g.SetLimit(limit)
	for _, i := range idx {
		if ctx.Err() != nil {
			break
		}
		o := &outcomes[i]
		g.Go(func() error {
			defer p.deps.Observer.DomainDone(name)

			dctx := logger.WithFields(ctx, zap.String("domain", o.Domain), zap.String("stage", name))
			start := time.Now()
			err := step(dctx, o)
			elapsed := time.Since(start)
			if err == nil {
				p.deps.Metrics.Done(dctx, name, metrics.OutcomeOK, "", elapsed)

				return nil
			}

			o.Stage = name
			o.Failure = failureKind(err)
			p.deps.Metrics.Done(dctx, name, metrics.OutcomeFailed, o.Failure, elapsed)
			logger.Debug(dctx, "domain skipped", zap.String("failure", o.Failure), zap.Error(err))

			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s stage interrupted: %w", name, err)
	}

	return nil
}

func (p *Pipeline) locate(ctx context.Context, o *domain.Outcome) error {
	u, err := p.deps.Locator.Locate(ctx, o.Domain)
	if err != nil {
		return err
	}
	o.LogoURL = u

	return nil
}

func (p *Pipeline) fingerprint(ctx context.Context, o *domain.Outcome) error {
	fp, err := p.deps.Fingerprinter.Fingerprint(logger.WithFields(ctx, zap.String("url", o.LogoURL)), o.LogoURL)
	if err != nil {
		return err
	}
	o.Fingerprint = &fp

	return nil
}

func (p *Pipeline) persist(ctx context.Context, report *domain.Report) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.opts.PersistTimeout)
	defer cancel()

	err := p.deps.Storage.WithTx(ctx, func(tx storage.AllStorage) error {
		if err := tx.StoreRun(ctx, report); err != nil {
			return err
		}

		return tx.StoreOutcomes(ctx, report.ID, report.Outcomes...)
	})
	if err != nil {
		return fmt.Errorf("could not persist run %s: %w", report.ID, err)
	}
	logger.Info(ctx, "run persisted")

	return nil
}

func failureKind(err error) string {
	if k := serrors.KindOf(err); k != nil {
		return k.Error()
	}

	return serrors.ErrInternal.Error()
}

type nopObserver struct{}

func (nopObserver) StageStarted(string, int) {}
func (nopObserver) DomainDone(string)        {}
func (nopObserver) StageFinished(string)     {}
