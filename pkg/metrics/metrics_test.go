package metrics_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"logocluster/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func family(t *testing.T, reg *prometheus.Registry, prefix string) *dto.MetricFamily {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if strings.HasPrefix(f.GetName(), prefix) {
			return f
		}
	}
	t.Fatalf("metric family %s not found", prefix)

	return nil
}

func TestPipeline_RecordsToPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	mp, err := metrics.NewMeterProvider(reg)
	require.NoError(t, err)
	defer func() { _ = mp.Shutdown(context.Background()) }()

	p, err := metrics.NewPipeline(mp)
	require.NoError(t, err)

	ctx := context.Background()
	p.Done(ctx, "locate", metrics.OutcomeOK, "", 20*time.Millisecond)
	p.Done(ctx, "locate", metrics.OutcomeFailed, "TIMEOUT", 10*time.Second)
	p.Done(ctx, "fingerprint", metrics.OutcomeOK, "", 5*time.Millisecond)
	p.RunFinished(ctx, 0.5, 3)

	domains := family(t, reg, "logocluster_domains")
	require.Equal(t, dto.MetricType_COUNTER, domains.GetType())
	var total float64
	for _, m := range domains.GetMetric() {
		total += m.GetCounter().GetValue()
	}
	require.InDelta(t, 3, total, 0)

	duration := family(t, reg, "logocluster_stage_duration")
	require.Equal(t, dto.MetricType_HISTOGRAM, duration.GetType())
	require.Len(t, duration.GetMetric(), 2)

	success := family(t, reg, "logocluster_success_rate")
	require.InDelta(t, 0.5, success.GetMetric()[0].GetGauge().GetValue(), 1e-9)

	clusters := family(t, reg, "logocluster_clusters")
	require.InDelta(t, 3, clusters.GetMetric()[0].GetGauge().GetValue(), 0)
}

func TestNewPipeline_NilProviderIsNoop(t *testing.T) {
	p, err := metrics.NewPipeline(nil)
	require.NoError(t, err)

	p.Done(context.Background(), "locate", metrics.OutcomeOK, "", time.Millisecond)
	p.RunFinished(context.Background(), 1, 1)
}
