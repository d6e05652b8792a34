package storage

import (
	"context"
	"time"

	"logocluster/pkg/domain"
)

// RunSummary is the header of a stored run.
type RunSummary struct {
	ID            domain.RunID
	StartedAt     time.Time
	Duration      time.Duration
	Algorithm     domain.Algorithm
	Threshold     int
	Domains       int
	Fingerprinted int
	Clusters      int
}

// RunStorage persists pipeline runs and their per-domain outcomes.
type RunStorage interface {
	// StoreRun inserts the run header of report. Outcomes are stored separately.
	StoreRun(ctx context.Context, report *domain.Report) error
	// StoreOutcomes inserts the per-domain outcomes of a stored run.
	StoreOutcomes(ctx context.Context, id domain.RunID, outcomes ...domain.Outcome) error
	// Run loads a run with its outcomes and rebuilds its clusters. It returns
	// serrors.ErrNotFound when no such run exists.
	Run(ctx context.Context, id domain.RunID) (*domain.Report, error)
	// Runs lists the most recent runs, newest first.
	Runs(ctx context.Context, limit uint) ([]RunSummary, error)
}
