package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"logocluster/internal/config"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)

	require.Equal(t, "development", cfg.Environment)
	require.Equal(t, 10*time.Second, cfg.HTTP.Timeout)
	require.False(t, cfg.HTTP.InsecureSkipVerify)
	require.EqualValues(t, 8<<20, cfg.HTTP.MaxBodyBytes)
	require.Equal(t, 32, cfg.Pipeline.Concurrency)
	require.Equal(t, 8, cfg.Pipeline.FingerprintConcurrency)
	require.Equal(t, "phash", cfg.Fingerprint.Algorithm)
	require.Equal(t, -1, cfg.Fingerprint.Threshold)
	require.Equal(t, "domain", cfg.Input.Column)
	require.Equal(t, "results.json", cfg.Output.Path)
	require.Equal(t, "/metrics", cfg.Metrics.Path)
	require.Empty(t, cfg.Metrics.Addr)
	require.False(t, cfg.Database.Enabled)
	require.Equal(t, 10*time.Second, cfg.GracefulShutdownTimeout)
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
environment: production
logLevel: warn
http:
  timeout: 3s
  insecureSkipVerify: true
pipeline:
  concurrency: 4
  domainLimit: 300
fingerprint:
  algorithm: dhash
input:
  path: logos.xlsx
  sheet: Domains
`), 0o600))

	t.Setenv("FINGERPRINT_THRESHOLD", "12")
	t.Setenv("OUTPUT_PATH", "/tmp/out.json")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	require.Equal(t, "production", cfg.Environment)
	require.Equal(t, "warn", cfg.LogLevel)
	require.Equal(t, 3*time.Second, cfg.HTTP.Timeout)
	require.True(t, cfg.HTTP.InsecureSkipVerify)
	require.Equal(t, 4, cfg.Pipeline.Concurrency)
	require.Equal(t, 8, cfg.Pipeline.FingerprintConcurrency)
	require.Equal(t, 300, cfg.Pipeline.DomainLimit)
	require.Equal(t, "dhash", cfg.Fingerprint.Algorithm)
	require.Equal(t, 12, cfg.Fingerprint.Threshold)
	require.Equal(t, "logos.xlsx", cfg.Input.Path)
	require.Equal(t, "Domains", cfg.Input.Sheet)
	require.Equal(t, "/tmp/out.json", cfg.Output.Path)
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("http: [not, a, map"), 0o600))

	_, err := config.Load(path)
	require.Error(t, err)
}
