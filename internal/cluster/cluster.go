// Package cluster groups fingerprinted domains with single-linkage clustering
// over a disjoint-set forest: every pair within the distance threshold is
// unioned, so domains connected through a chain of close pairs share a
// cluster even when their own distance exceeds the threshold.
package cluster

import (
	"context"
	"fmt"

	"logocluster/pkg/domain"
	"logocluster/pkg/logger"
	"logocluster/pkg/serrors"

	"go.uber.org/zap"
)

// Engine clusters a fingerprint map. The zero value is not usable; build it
// with New so the threshold is explicit.
type Engine struct {
	threshold int
}

// Stats describes the work done by one Cluster call.
type Stats struct {
	// Pairs is the number of unordered pairs compared.
	Pairs int
	// Matches is the number of pairs within the threshold.
	Matches int
	// Merges is the number of matches that joined two distinct sets.
	Merges int
}

// New returns an engine that unions pairs whose distance is at most threshold.
// The threshold must suit the algorithm that produced the fingerprints.
func New(threshold int) (*Engine, error) {
	if threshold < 0 || threshold > domain.FingerprintBits {
		return nil, serrors.With(serrors.ErrPrecondition,
			"threshold %d is outside [0, %d]", threshold, domain.FingerprintBits)
	}

	return &Engine{threshold: threshold}, nil
}

// Threshold returns the configured distance threshold.
func (e *Engine) Threshold() int { return e.threshold }

// Cluster partitions the keys of fps. Clusters are ordered by the position of
// their first member in fps, and members keep fps order. An empty map or a
// map that mixes algorithms is a precondition failure.
func (e *Engine) Cluster(ctx context.Context, fps *domain.FingerprintMap) ([]domain.Cluster, Stats, error) {
	if fps.Len() == 0 {
		return nil, Stats{}, serrors.With(serrors.ErrPrecondition, "cannot cluster an empty fingerprint map")
	}

	items := fps.Domains()
	hashes := make([]domain.Fingerprint, len(items))
	forest := NewForest(len(items))
	for i, d := range items {
		hashes[i], _ = fps.Get(d)
		forest.Add(d)
	}

	var stats Stats
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			stats.Pairs++
			dist, err := hashes[i].Distance(hashes[j])
			if err != nil {
				return nil, Stats{}, fmt.Errorf("could not compare %s and %s: %w", items[i], items[j], err)
			}
			if dist > e.threshold {
				continue
			}

			stats.Matches++
			merged, err := forest.Union(items[i], items[j])
			if err != nil {
				return nil, Stats{}, err
			}
			if merged {
				stats.Merges++
			}
		}
	}

	index := make(map[string]int, forest.Sets())
	clusters := make([]domain.Cluster, 0, forest.Sets())
	for _, d := range items {
		root, err := forest.Find(d)
		if err != nil {
			return nil, Stats{}, err
		}
		idx, ok := index[root]
		if !ok {
			idx = len(clusters)
			index[root] = idx
			clusters = append(clusters, nil)
		}
		clusters[idx] = append(clusters[idx], d)
	}

	logger.Debug(ctx, "clustered fingerprints",
		zap.Int("domains", len(items)),
		zap.Int("clusters", len(clusters)),
		zap.Int("pairs", stats.Pairs),
		zap.Int("matches", stats.Matches),
		zap.Int("merges", stats.Merges))

	return clusters, stats, nil
}
