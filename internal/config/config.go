// Package config loads the logocluster configuration from a YAML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config represents the application configuration structure.
type Config struct {
	// Environment selects the logger flavour (development, production)
	Environment string `env:"ENVIRONMENT" env-default:"development" yaml:"environment"`
	// LogLevel overrides the environment's default log level when set
	LogLevel string `env:"LOG_LEVEL" yaml:"logLevel"`

	// HTTP configures the outbound client shared by page and image requests
	HTTP struct {
		// Timeout bounds every request including the body read
		Timeout time.Duration `env:"HTTP_TIMEOUT" env-default:"10s" yaml:"timeout"`
		// UserAgent sent with every request, empty for the built-in browser string
		UserAgent string `env:"HTTP_USER_AGENT" yaml:"userAgent"`
		// Accept sent with page requests
		Accept string `env:"HTTP_ACCEPT" yaml:"accept"`
		// AcceptLanguage sent with every request
		AcceptLanguage string `env:"HTTP_ACCEPT_LANGUAGE" yaml:"acceptLanguage"`
		// InsecureSkipVerify turns off TLS certificate verification
		InsecureSkipVerify bool `env:"HTTP_INSECURE_SKIP_VERIFY" env-default:"false" yaml:"insecureSkipVerify"`
		// MaxBodyBytes caps page and image bodies
		MaxBodyBytes int64 `env:"HTTP_MAX_BODY_BYTES" env-default:"8388608" yaml:"maxBodyBytes"`
		// MaxRedirects caps redirect chains
		MaxRedirects int `env:"HTTP_MAX_REDIRECTS" env-default:"10" yaml:"maxRedirects"`
		// RequestsPerSecond limits request starts, 0 is unlimited
		RequestsPerSecond float64 `env:"HTTP_REQUESTS_PER_SECOND" env-default:"0" yaml:"requestsPerSecond"`
		// MaxIdleConnsPerHost sizes the idle connection pool per host
		MaxIdleConnsPerHost int `env:"HTTP_MAX_IDLE_CONNS_PER_HOST" env-default:"4" yaml:"maxIdleConnsPerHost"`
	} `yaml:"http"`

	Pipeline struct {
		// Concurrency bounds in-flight page lookups
		Concurrency int `env:"PIPELINE_CONCURRENCY" env-default:"32" yaml:"concurrency"`
		// FingerprintConcurrency bounds in-flight image downloads
		FingerprintConcurrency int `env:"PIPELINE_FINGERPRINT_CONCURRENCY" env-default:"8" yaml:"fingerprintConcurrency"` //nolint: lll
		// DomainLimit keeps only the first N domains of the input, 0 keeps all
		DomainLimit int `env:"PIPELINE_DOMAIN_LIMIT" env-default:"0" yaml:"domainLimit"`
	} `yaml:"pipeline"`

	Fingerprint struct {
		// Algorithm is one of phash, phash-lanczos, dhash, ahash
		Algorithm string `env:"FINGERPRINT_ALGORITHM" env-default:"phash" yaml:"algorithm"`
		// Threshold is the max Hamming distance for a match, negative uses the algorithm default
		Threshold int `env:"FINGERPRINT_THRESHOLD" env-default:"-1" yaml:"threshold"`
		// MaxPixels rejects images larger than this before decoding
		MaxPixels int `env:"FINGERPRINT_MAX_PIXELS" env-default:"40000000" yaml:"maxPixels"`
	} `yaml:"fingerprint"`

	Input struct {
		// Path of the domain list (.txt, .csv, .xlsx), "-" for stdin
		Path string `env:"INPUT_PATH" env-default:"domains.txt" yaml:"path"`
		// Column holding domains in CSV and XLSX inputs
		Column string `env:"INPUT_COLUMN" env-default:"domain" yaml:"column"`
		// Sheet of XLSX inputs, empty for the first one
		Sheet string `env:"INPUT_SHEET" yaml:"sheet"`
	} `yaml:"input"`

	Output struct {
		// Path of the clusters JSON file
		Path string `env:"OUTPUT_PATH" env-default:"results.json" yaml:"path"`
		// Report is the optional per-domain report path
		Report string `env:"OUTPUT_REPORT" yaml:"report"`
	} `yaml:"output"`

	Metrics struct {
		// Addr of the debug server, empty disables it
		Addr string `env:"METRICS_ADDR" yaml:"addr"`
		// Path where metrics are exposed
		Path string `env:"METRICS_PATH" env-default:"/metrics" yaml:"path"`
	} `yaml:"metrics"`

	// Database contains all database connection related configurations
	Database struct {
		// Enabled turns on run persistence
		Enabled bool `env:"DATABASE_ENABLED" env-default:"false" yaml:"enabled"`
		// Username for database authentication
		Username string `env:"DATABASE_USERNAME" env-default:"myuser" yaml:"username"`
		// Password for database authentication
		Password string `env:"DATABASE_PASSWORD" env-default:"mypassword" yaml:"password"`
		// Host is the database server hostname or IP address
		Host string `env:"DATABASE_HOST" env-default:"localhost" yaml:"host"`
		// Port is the database server port number
		Port int `env:"DATABASE_PORT" env-default:"5432" yaml:"port"`
		// SslMode defines the SSL mode for the database connection
		SslMode string `env:"DATABASE_SSL_MODE" env-default:"disable" yaml:"sslMode"`
		// DatabaseName is the name of the database to connect to
		DatabaseName string `env:"DATABASE_NAME" env-default:"logocluster" yaml:"name"`
		// MaxOpenConnections limits the number of open connections to the database
		MaxOpenConnections int `env:"DATABASE_MAX_OPEN_CONNECTIONS" env-default:"10" yaml:"maxOpenConnections"`
		// MaxIdleConnections limits the number of connections in the idle connection pool
		MaxIdleConnections int `env:"DATABASE_MAX_IDLE_CONNECTIONS" env-default:"8" yaml:"maxIdleConnections"`
		// ConnMaxLifetime is the maximum amount of time a connection may be reused
		ConnMaxLifetime time.Duration `env:"DATABASE_CONNECTION_MAX_LIFETIME" env-default:"3m" yaml:"connMaxLifetime"`
		// ConnMaxIdleTime is the maximum amount of time a connection may be idle
		ConnMaxIdleTime time.Duration `env:"DATABASE_CONNECTION_MAX_IDLE_TIME" env-default:"3m" yaml:"connMaxIdleTime"`
	} `yaml:"database"`

	// GracefulShutdownTimeout bounds the debug server shutdown and storing a finished run
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_TIMEOUT" env-default:"10s" yaml:"gracefulShutdownTimeout"` //nolint: lll
}

// Load reads the yaml config file at configPath and applies environment
// overrides. A missing file is not an error: defaults and environment apply.
func Load(configPath string) (*Config, error) {
	var cfg Config

	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("could not read config from environment: %w", err)
		}

		return &cfg, nil
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}

	return &cfg, nil
}
