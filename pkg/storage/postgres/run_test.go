package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"logocluster/pkg/domain"
	"logocluster/pkg/serrors"

	"github.com/stretchr/testify/require"
)

func TestPgSQL_StoreAndLoadRun(t *testing.T) {
	pg, cleanup := setupTestDB(t)
	t.Cleanup(cleanup)

	ctx := context.Background()
	fpA := domain.Fingerprint{Algorithm: "phash", Hash: 0xdeadbeef00000001}
	fpB := domain.Fingerprint{Algorithm: "phash", Hash: 0xffffffffffffffff}
	fpC := domain.Fingerprint{Algorithm: "phash", Hash: 0xdeadbeef00000003}

	report := newReport()
	report.Domains = 4
	report.Located = 3
	report.Fingerprinted = 3
	report.Clusters = []domain.Cluster{{"a.com", "c.com"}, {"b.com"}}
	report.Outcomes = []domain.Outcome{
		{Domain: "a.com", LogoURL: "https://a.com/logo.png", Fingerprint: &fpA, Cluster: 0},
		{Domain: "b.com", LogoURL: "https://b.com/logo.png", Fingerprint: &fpB, Cluster: 1},
		{Domain: "x.com", Stage: "locate", Failure: "TIMEOUT", Cluster: -1},
		{Domain: "c.com", LogoURL: "https://c.com/l.png", Fingerprint: &fpC, Cluster: 0},
	}

	require.NoError(t, pg.StoreRun(ctx, report))
	require.NoError(t, pg.StoreOutcomes(ctx, report.ID, report.Outcomes...))

	got, err := pg.Run(ctx, report.ID)
	require.NoError(t, err)
	require.Equal(t, report.ID, got.ID)
	require.True(t, report.StartedAt.Equal(got.StartedAt))
	require.Equal(t, report.Duration, got.Duration)
	require.Equal(t, report.Algorithm, got.Algorithm)
	require.Equal(t, report.Threshold, got.Threshold)
	require.Equal(t, 4, got.Domains)
	require.Equal(t, 3, got.Located)
	require.Equal(t, 3, got.Fingerprinted)
	require.Equal(t, report.Clusters, got.Clusters)
	require.Equal(t, report.Outcomes, got.Outcomes)
	require.InDelta(t, 0.75, got.SuccessRate(), 1e-9)
}

func TestPgSQL_Run_NotFound(t *testing.T) {
	pg, cleanup := setupTestDB(t)
	t.Cleanup(cleanup)

	_, err := pg.Run(context.Background(), domain.NewRunID())
	require.ErrorIs(t, err, serrors.ErrNotFound)
}

func TestPgSQL_StoreOutcomes_Batches(t *testing.T) {
	pg, cleanup := setupTestDB(t)
	t.Cleanup(cleanup)

	ctx := context.Background()
	report := newReport()
	report.Domains = 2500
	require.NoError(t, pg.StoreRun(ctx, report))

	outcomes := make([]domain.Outcome, report.Domains)
	for i := range outcomes {
		outcomes[i] = domain.Outcome{Domain: fmt.Sprintf("d%04d.com", i), Stage: "locate", Failure: "NO_CANDIDATE", Cluster: -1}
	}
	require.NoError(t, pg.StoreOutcomes(ctx, report.ID, outcomes...))

	got, err := pg.Run(ctx, report.ID)
	require.NoError(t, err)
	require.Len(t, got.Outcomes, 2500)
	require.Equal(t, "d2499.com", got.Outcomes[2499].Domain)
	require.Empty(t, got.Clusters)
}

func TestPgSQL_Runs_NewestFirst(t *testing.T) {
	pg, cleanup := setupTestDB(t)
	t.Cleanup(cleanup)

	ctx := context.Background()
	older := newReport()
	older.StartedAt = older.StartedAt.Add(-time.Hour)
	older.Clusters = []domain.Cluster{{"a.com"}, {"b.com"}}
	newer := newReport()

	require.NoError(t, pg.StoreRun(ctx, older))
	require.NoError(t, pg.StoreRun(ctx, newer))

	runs, err := pg.Runs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, newer.ID, runs[0].ID)
	require.Equal(t, older.ID, runs[1].ID)
	require.Equal(t, 2, runs[1].Clusters)

	runs, err = pg.Runs(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
}
