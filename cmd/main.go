// Package main provides the logocluster CLI. It wires the subcommands (run,
// inspect, migrate, runs), loads configuration and initializes logging.
package main

import (
	"context"
	"fmt"
	"os"

	"logocluster/internal/cluster"
	"logocluster/internal/config"
	"logocluster/internal/fingerprint"
	"logocluster/pkg/domain"
	"logocluster/pkg/fetcher"
	"logocluster/pkg/logger"
	"logocluster/pkg/storage/postgres"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// getPostgres creates a PostgreSQL client using configuration values and returns it
// along with a cleanup function to close the connection pool.
func getPostgres(ctx context.Context, cfg *config.Config) (*postgres.PgSQL, func(), error) {
	pgsql, err := postgres.New(ctx, postgres.Options{
		Username:           cfg.Database.Username,
		Password:           cfg.Database.Password,
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		Database:           cfg.Database.DatabaseName,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime:    cfg.Database.ConnMaxIdleTime,
		MaxOpenConnections: cfg.Database.MaxOpenConnections,
		MaxIdleConnections: cfg.Database.MaxIdleConnections,
		SslMode:            cfg.Database.SslMode,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("could not create postgres storage: %w", err)
	}

	return pgsql, func() {
		logger.Info(ctx, "closing postgres client...")
		if err = pgsql.Close(); err != nil {
			logger.Warn(ctx, "could not close postgres connection", zap.Error(err))
		}
	}, nil
}

// newFetcher builds the outbound HTTP client shared by the locator and the fingerprinter.
func newFetcher(cfg *config.Config) (*fetcher.Client, error) {
	return fetcher.New(fetcher.Options{
		Timeout:             cfg.HTTP.Timeout,
		UserAgent:           cfg.HTTP.UserAgent,
		Accept:              cfg.HTTP.Accept,
		AcceptLanguage:      cfg.HTTP.AcceptLanguage,
		InsecureSkipVerify:  cfg.HTTP.InsecureSkipVerify,
		MaxBodyBytes:        cfg.HTTP.MaxBodyBytes,
		MaxRedirects:        cfg.HTTP.MaxRedirects,
		RequestsPerSecond:   cfg.HTTP.RequestsPerSecond,
		MaxIdleConnsPerHost: cfg.HTTP.MaxIdleConnsPerHost,
	})
}

// newHasher returns the configured hasher and the clustering engine for its
// threshold. A negative threshold selects the algorithm default.
func newHasher(cfg *config.Config) (fingerprint.Hasher, *cluster.Engine, error) {
	hasher, err := fingerprint.NewHasher(domain.Algorithm(cfg.Fingerprint.Algorithm))
	if err != nil {
		return nil, nil, err
	}

	threshold := cfg.Fingerprint.Threshold
	if threshold < 0 {
		threshold = hasher.Threshold()
	}
	engine, err := cluster.New(threshold)
	if err != nil {
		return nil, nil, err
	}

	return hasher, engine, nil
}

// main sets up the root Cobra command, loads configuration and logging, and
// registers subcommands before executing the CLI.
func main() {
	cfg := &config.Config{}
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "logocluster",
		Short:        "Groups websites by the visual similarity of their logos",
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			*cfg = *loaded

			return logger.Setup(cfg.Environment, cfg.LogLevel)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yml", "Config File Path")

	ctx := context.Background()

	defer func() {
		if p := recover(); p != nil {
			logger.Error(ctx, "captured panic, exiting...", zap.Any("panic", p))
			logger.Sync(ctx)

			panic(p)
		}
	}()

	rootCmd.AddCommand(
		runCommand(cfg),
		inspectCommand(cfg),
		migrateCommand(cfg),
		runsCommand(cfg),
	)

	err := rootCmd.Execute()
	logger.Sync(ctx)
	if err != nil {
		os.Exit(1) //nolint: gocritic
	}
}
