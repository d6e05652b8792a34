package main

import (
	"bytes"
	"testing"

	"logocluster/internal/config"
	"logocluster/pkg/domain"

	"github.com/stretchr/testify/require"
)

func TestApplyRunFlags_OnlyChangedFlagsOverride(t *testing.T) {
	cfg := &config.Config{}
	cfg.Input.Path = "domains.txt"
	cfg.Pipeline.Concurrency = 32
	cfg.Fingerprint.Algorithm = "phash"

	cmd := runCommand(cfg)
	require.NoError(t, cmd.ParseFlags([]string{"-i", "logos.csv", "--threshold", "5", "-n", "300"}))
	applyRunFlags(cmd, cfg)

	require.Equal(t, "logos.csv", cfg.Input.Path)
	require.Equal(t, 5, cfg.Fingerprint.Threshold)
	require.Equal(t, 300, cfg.Pipeline.DomainLimit)
	require.Equal(t, 32, cfg.Pipeline.Concurrency)
	require.Equal(t, "phash", cfg.Fingerprint.Algorithm)
}

func TestNewHasher_DefaultThreshold(t *testing.T) {
	cfg := &config.Config{}
	cfg.Fingerprint.Algorithm = "dhash"
	cfg.Fingerprint.Threshold = -1

	h, engine, err := newHasher(cfg)
	require.NoError(t, err)
	require.Equal(t, 10, h.Threshold())
	require.Equal(t, h.Threshold(), engine.Threshold())

	cfg.Fingerprint.Threshold = 3
	_, engine, err = newHasher(cfg)
	require.NoError(t, err)
	require.Equal(t, 3, engine.Threshold())

	cfg.Fingerprint.Threshold = 0
	_, engine, err = newHasher(cfg)
	require.NoError(t, err)
	require.Equal(t, 0, engine.Threshold(), "zero asks for exact matches only")

	cfg.Fingerprint.Algorithm = "nope"
	_, _, err = newHasher(cfg)
	require.Error(t, err)
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, &domain.Report{
		Domains:       3,
		Fingerprinted: 2,
		Clusters:      []domain.Cluster{{"a.com", "b.com"}},
	}, "results.json")

	require.Contains(t, buf.String(), "Success Rate: 66.67%")
	require.Contains(t, buf.String(), "Logos Hashed: 2")
	require.Contains(t, buf.String(), "Clusters: 1")
}

func TestProgressObserver_IgnoresEmptyStages(t *testing.T) {
	o := newProgressObserver()
	o.StageStarted("locate", 0)
	o.DomainDone("locate")
	o.StageFinished("locate")
	require.Empty(t, o.bars)
}
