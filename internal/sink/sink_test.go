package sink_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"logocluster/internal/sink"
	"logocluster/pkg/domain"

	"github.com/stretchr/testify/require"
)

func TestWriteClusters(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sink.WriteClusters(&buf, []domain.Cluster{{"a.com", "b.com"}, {"c.com"}}))
	require.Equal(t, `[
    [
        "a.com",
        "b.com"
    ],
    [
        "c.com"
    ]
]
`, buf.String())

	buf.Reset()
	require.NoError(t, sink.WriteClusters(&buf, nil))
	require.Equal(t, "[]\n", buf.String())
}

func TestWriteReport(t *testing.T) {
	fp := domain.Fingerprint{Algorithm: "phash", Hash: 42}
	report := &domain.Report{
		ID:            domain.NewRunID(),
		Algorithm:     "phash",
		Threshold:     8,
		Domains:       2,
		Located:       1,
		Fingerprinted: 1,
		Clusters:      []domain.Cluster{{"a.com"}},
		Outcomes: []domain.Outcome{
			{Domain: "a.com", LogoURL: "https://a.com/logo.png?a=1&b=2", Fingerprint: &fp, Cluster: 0},
			{Domain: "b.com", Stage: "locate", Failure: "TIMEOUT", Cluster: -1},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, sink.WriteReport(&buf, report))
	require.Contains(t, buf.String(), `"https://a.com/logo.png?a=1&b=2"`)

	var decoded struct {
		ID          string           `json:"id"`
		SuccessRate float64          `json:"successRate"`
		Clusters    [][]string       `json:"clusters"`
		Outcomes    []domain.Outcome `json:"outcomes"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, report.ID.String(), decoded.ID)
	require.InDelta(t, 0.5, decoded.SuccessRate, 1e-9)
	require.Equal(t, [][]string{{"a.com"}}, decoded.Clusters)
	require.Equal(t, report.Outcomes, decoded.Outcomes)
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "results.json")

	require.NoError(t, sink.WriteFile(path, func(w io.Writer) error {
		return sink.WriteClusters(w, []domain.Cluster{{"a.com"}})
	}))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.JSONEq(t, `[["a.com"]]`, string(b))

	boom := errors.New("boom")
	require.ErrorIs(t, sink.WriteFile(path, func(io.Writer) error { return boom }), boom)

	// the previous content survives a failed write and no temp file is left behind
	b, err = os.ReadFile(path)
	require.NoError(t, err)
	require.JSONEq(t, `[["a.com"]]`, string(b))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
