package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunID uniquely identifies one pipeline run.
type RunID uuid.UUID

// String returns the canonical UUID form.
func (id RunID) String() string { return uuid.UUID(id).String() }

// MarshalText encodes the ID in canonical UUID form.
func (id RunID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

// NewRunID returns a random RunID.
func NewRunID() RunID { return RunID(uuid.New()) }

// Cluster is a set of domains whose logos are connected by a chain of
// fingerprint distances within the threshold.
type Cluster []string

// Outcome records what happened to a single input domain.
type Outcome struct {
	// Domain is the input domain.
	Domain string `json:"domain"`
	// LogoURL is the candidate URL found by the locator, empty if none.
	LogoURL string `json:"logoUrl,omitempty"`
	// Fingerprint is set when the image was fetched and hashed.
	Fingerprint *Fingerprint `json:"fingerprint,omitempty"`
	// Stage is the stage that failed, empty on success.
	Stage string `json:"stage,omitempty"`
	// Failure is the semantic kind of the failure, empty on success.
	Failure string `json:"failure,omitempty"`
	// Cluster is the index into Report.Clusters, -1 when not fingerprinted.
	Cluster int `json:"cluster"`
}

// Report is the result of a pipeline run.
type Report struct {
	ID        RunID         `json:"id"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`

	Algorithm Algorithm `json:"algorithm"`
	Threshold int       `json:"threshold"`

	// Domains is the number of input domains processed.
	Domains int `json:"domains"`
	// Located is the number of domains with a candidate logo URL.
	Located int `json:"located"`
	// Fingerprinted is the number of domains in the clustering universe.
	Fingerprinted int `json:"fingerprinted"`

	Clusters []Cluster `json:"clusters"`
	Outcomes []Outcome `json:"outcomes"`
}

// SuccessRate is the fraction of input domains that produced a fingerprint.
func (r *Report) SuccessRate() float64 {
	if r.Domains == 0 {
		return 0
	}

	return float64(r.Fingerprinted) / float64(r.Domains)
}
