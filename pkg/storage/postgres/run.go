package postgres

import (
	"context"
	"fmt"

	"logocluster/pkg/domain"
	"logocluster/pkg/serrors"
	"logocluster/pkg/storage"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
)

const (
	runsTable       = "runs"
	runDomainsTable = "run_domains"

	// outcomeBatchSize bounds the rows of one INSERT statement.
	outcomeBatchSize = 1000
)

func (p *PgSQL) StoreRun(ctx context.Context, report *domain.Report) error {
	var row PgRun
	row.FromDomain(report)

	if _, err := p.Builder.Insert(runsTable).Rows(row).Executor().ExecContext(ctx); err != nil {
		return fmt.Errorf("could not store run into pg: %w", err)
	}

	return nil
}

func (p *PgSQL) StoreOutcomes(ctx context.Context, id domain.RunID, outcomes ...domain.Outcome) error {
	for start := 0; start < len(outcomes); start += outcomeBatchSize {
		end := min(start+outcomeBatchSize, len(outcomes))

		rows := make([]PgRunDomain, 0, end-start)
		for i := start; i < end; i++ {
			var row PgRunDomain
			row.FromDomain(id, i, outcomes[i])
			rows = append(rows, row)
		}

		if _, err := p.Builder.Insert(runDomainsTable).Rows(rows).Executor().ExecContext(ctx); err != nil {
			return fmt.Errorf("could not store run outcomes into pg: %w", err)
		}
	}

	return nil
}

// Run loads a run and its outcomes. Clusters are rebuilt from the stored
// cluster indexes, members ordered by input position.
func (p *PgSQL) Run(ctx context.Context, id domain.RunID) (*domain.Report, error) {
	var run PgRun
	found, err := p.Builder.From(runsTable).
		Where(goqu.I("id").Eq(uuid.UUID(id))).
		Executor().ScanStructContext(ctx, &run)
	if err != nil {
		return nil, fmt.Errorf("could not fetch run from pg: %w", err)
	}
	if !found {
		return nil, serrors.With(serrors.ErrNotFound, "run %s not found", id)
	}

	var rows []PgRunDomain
	if err := p.Builder.From(runDomainsTable).
		Where(goqu.I("run_id").Eq(uuid.UUID(id))).
		Order(goqu.I("position").Asc()).
		Executor().ScanStructsContext(ctx, &rows); err != nil {
		return nil, fmt.Errorf("could not fetch run outcomes from pg: %w", err)
	}

	report := run.ToDomain()
	report.Outcomes = make([]domain.Outcome, 0, len(rows))
	report.Clusters = make([]domain.Cluster, run.Clusters)
	for _, row := range rows {
		o, err := row.ToDomain()
		if err != nil {
			return nil, err
		}
		if o.Cluster >= 0 && o.Cluster < len(report.Clusters) {
			report.Clusters[o.Cluster] = append(report.Clusters[o.Cluster], o.Domain)
		}
		report.Outcomes = append(report.Outcomes, o)
	}

	return report, nil
}

// Runs returns the latest runs ordered by start time, newest first.
func (p *PgSQL) Runs(ctx context.Context, limit uint) ([]storage.RunSummary, error) {
	var rows []PgRun
	if err := p.Builder.From(runsTable).
		Order(goqu.I("started_at").Desc(), goqu.I("id").Desc()).
		Limit(limit).
		Executor().ScanStructsContext(ctx, &rows); err != nil {
		return nil, fmt.Errorf("could not fetch runs from pg: %w", err)
	}

	out := make([]storage.RunSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToSummary())
	}

	return out, nil
}
