package postgres

import (
	"database/sql"
	"fmt"
	"time"

	"logocluster/pkg/domain"
	"logocluster/pkg/storage"

	"github.com/google/uuid"
)

type PgRun struct {
	ID        uuid.UUID `db:"id"`
	StartedAt time.Time `db:"started_at"`
	// Duration in milliseconds.
	DurationMs int64 `db:"duration_ms"`

	Algorithm string `db:"algorithm"`
	Threshold int    `db:"threshold"`

	Domains       int `db:"domains"`
	Located       int `db:"located"`
	Fingerprinted int `db:"fingerprinted"`
	Clusters      int `db:"clusters"`

	CreatedAt time.Time `db:"created_at" goqu:"skipinsert"`
}

func (p *PgRun) ToDomain() *domain.Report {
	return &domain.Report{
		ID:            domain.RunID(p.ID),
		StartedAt:     p.StartedAt,
		Duration:      time.Duration(p.DurationMs) * time.Millisecond,
		Algorithm:     domain.Algorithm(p.Algorithm),
		Threshold:     p.Threshold,
		Domains:       p.Domains,
		Located:       p.Located,
		Fingerprinted: p.Fingerprinted,
	}
}

func (p *PgRun) ToSummary() storage.RunSummary {
	return storage.RunSummary{
		ID:            domain.RunID(p.ID),
		StartedAt:     p.StartedAt,
		Duration:      time.Duration(p.DurationMs) * time.Millisecond,
		Algorithm:     domain.Algorithm(p.Algorithm),
		Threshold:     p.Threshold,
		Domains:       p.Domains,
		Fingerprinted: p.Fingerprinted,
		Clusters:      p.Clusters,
	}
}

func (p *PgRun) FromDomain(report *domain.Report) {
	*p = PgRun{
		ID:            uuid.UUID(report.ID),
		StartedAt:     report.StartedAt,
		DurationMs:    report.Duration.Milliseconds(),
		Algorithm:     string(report.Algorithm),
		Threshold:     report.Threshold,
		Domains:       report.Domains,
		Located:       report.Located,
		Fingerprinted: report.Fingerprinted,
		Clusters:      len(report.Clusters),
	}
}

type PgRunDomain struct {
	RunID    uuid.UUID `db:"run_id"`
	Position int       `db:"position"`
	Domain   string    `db:"domain"`

	LogoURL     sql.NullString `db:"logo_url"`
	Fingerprint sql.NullString `db:"fingerprint"`
	Stage       sql.NullString `db:"stage"`
	Failure     sql.NullString `db:"failure"`
	Cluster     int            `db:"cluster"`
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (p *PgRunDomain) ToDomain() (domain.Outcome, error) {
	out := domain.Outcome{
		Domain:  p.Domain,
		LogoURL: p.LogoURL.String,
		Stage:   p.Stage.String,
		Failure: p.Failure.String,
		Cluster: p.Cluster,
	}
	if p.Fingerprint.Valid {
		fp, err := domain.ParseFingerprint(p.Fingerprint.String)
		if err != nil {
			return domain.Outcome{}, fmt.Errorf("could not parse stored fingerprint of %s: %w", p.Domain, err)
		}
		out.Fingerprint = &fp
	}

	return out, nil
}

func (p *PgRunDomain) FromDomain(id domain.RunID, position int, o domain.Outcome) {
	*p = PgRunDomain{
		RunID:    uuid.UUID(id),
		Position: position,
		Domain:   o.Domain,
		LogoURL:  nullString(o.LogoURL),
		Stage:    nullString(o.Stage),
		Failure:  nullString(o.Failure),
		Cluster:  o.Cluster,
	}
	if o.Fingerprint != nil {
		p.Fingerprint = nullString(o.Fingerprint.String())
	}
}
