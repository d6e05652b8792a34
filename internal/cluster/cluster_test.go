package cluster_test

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"logocluster/internal/cluster"
	"logocluster/pkg/domain"
	"logocluster/pkg/logger"
	"logocluster/pkg/serrors"

	"github.com/stretchr/testify/require"
)

const threshold = 8

func TestMain(m *testing.M) {
	_ = logger.Setup(logger.DevelopmentEnvironment)
	m.Run()
}

func fp(h uint64) domain.Fingerprint {
	return domain.Fingerprint{Algorithm: "phash", Hash: h}
}

func newEngine(t *testing.T) *cluster.Engine {
	t.Helper()

	e, err := cluster.New(threshold)
	require.NoError(t, err)

	return e
}

func buildMap(entries ...any) *domain.FingerprintMap {
	m := domain.NewFingerprintMap()
	for i := 0; i < len(entries); i += 2 {
		m.Set(entries[i].(string), fp(entries[i+1].(uint64)))
	}

	return m
}

func TestNew_RejectsOutOfRangeThreshold(t *testing.T) {
	_, err := cluster.New(-1)
	require.ErrorIs(t, err, serrors.ErrPrecondition)

	_, err = cluster.New(65)
	require.ErrorIs(t, err, serrors.ErrPrecondition)

	e, err := cluster.New(0)
	require.NoError(t, err)
	require.Equal(t, 0, e.Threshold())
}

func TestCluster_EmptyMapIsPreconditionFailure(t *testing.T) {
	_, _, err := newEngine(t).Cluster(context.Background(), domain.NewFingerprintMap())
	require.ErrorIs(t, err, serrors.ErrPrecondition)
}

func TestCluster_MixedAlgorithmsIsPreconditionFailure(t *testing.T) {
	m := domain.NewFingerprintMap()
	m.Set("a.com", domain.Fingerprint{Algorithm: "phash", Hash: 1})
	m.Set("b.com", domain.Fingerprint{Algorithm: "dhash", Hash: 1})

	_, _, err := newEngine(t).Cluster(context.Background(), m)
	require.ErrorIs(t, err, serrors.ErrPrecondition)
}

func TestCluster_SingleDomain(t *testing.T) {
	clusters, stats, err := newEngine(t).Cluster(context.Background(), buildMap("a.com", uint64(42)))
	require.NoError(t, err)
	require.Equal(t, []domain.Cluster{{"a.com"}}, clusters)
	require.Equal(t, cluster.Stats{}, stats)
}

func TestCluster_DirectThreshold(t *testing.T) {
	m := buildMap(
		"a.com", uint64(0),
		"b.com", uint64(0xff),      // distance 8 from a: boundary is inclusive
		"c.com", ^uint64(0),        // far from everything
		"d.com", uint64(0x1ff)<<32, // distance 9 from a, 17 from b
	)

	clusters, stats, err := newEngine(t).Cluster(context.Background(), m)
	require.NoError(t, err)
	require.Equal(t, []domain.Cluster{{"a.com", "b.com"}, {"c.com"}, {"d.com"}}, clusters)
	require.Equal(t, 6, stats.Pairs)
	require.Equal(t, 1, stats.Matches)
	require.Equal(t, 1, stats.Merges)
}

func TestCluster_TransitiveChain(t *testing.T) {
	// A-B = 6, B-C = 6, A-C = 12 > threshold
	a := uint64(0)
	b := uint64(0x3f)
	c := uint64(0xfff)

	for _, order := range [][]string{{"a", "b", "c"}, {"a", "c", "b"}, {"c", "a", "b"}} {
		t.Run(fmt.Sprint(order), func(t *testing.T) {
			hashes := map[string]uint64{"a": a, "b": b, "c": c}
			m := domain.NewFingerprintMap()
			for _, k := range order {
				m.Set(k, fp(hashes[k]))
			}

			ab, _ := fp(a).Distance(fp(b))
			bc, _ := fp(b).Distance(fp(c))
			ac, _ := fp(a).Distance(fp(c))
			require.LessOrEqual(t, ab, threshold)
			require.LessOrEqual(t, bc, threshold)
			require.Greater(t, ac, threshold)

			clusters, stats, err := newEngine(t).Cluster(context.Background(), m)
			require.NoError(t, err)
			require.Len(t, clusters, 1)
			require.ElementsMatch(t, order, clusters[0])
			require.Equal(t, domain.Cluster(order), clusters[0], "members keep first-seen order")
			require.Equal(t, 2, stats.Matches)
		})
	}
}

func TestCluster_FirstSeenOrder(t *testing.T) {
	m := buildMap(
		"z.com", uint64(0xffff_0000_0000_0000),
		"y.com", uint64(0),
		"x.com", uint64(0xffff_0000_0000_0001),
		"w.com", uint64(1),
	)

	clusters, _, err := newEngine(t).Cluster(context.Background(), m)
	require.NoError(t, err)
	require.Equal(t, []domain.Cluster{{"z.com", "x.com"}, {"y.com", "w.com"}}, clusters)
}

func TestCluster_RandomizedProperties(t *testing.T) {
	rnd := rand.New(rand.NewSource(7)) //nolint: gosec

	for round := 0; round < 20; round++ {
		// a few seeds with noisy variants so that both merges and singletons occur
		m := domain.NewFingerprintMap()
		for i := 0; i < 40; i++ {
			base := uint64(rnd.Intn(4)) * 0x5555_5555_5555_5555
			noise := uint64(0)
			for b := 0; b < rnd.Intn(6); b++ {
				noise |= 1 << uint(rnd.Intn(64))
			}
			if rnd.Intn(5) == 0 {
				base = rnd.Uint64()
			}
			m.Set(fmt.Sprintf("d%02d.com", i), fp(base^noise))
		}

		clusters, _, err := newEngine(t).Cluster(context.Background(), m)
		require.NoError(t, err)

		// partition: every key in exactly one cluster, nothing else
		owner := map[string]int{}
		for ci, c := range clusters {
			require.NotEmpty(t, c)
			for _, d := range c {
				_, dup := owner[d]
				require.False(t, dup, "%s appears twice", d)
				owner[d] = ci
			}
		}
		require.ElementsMatch(t, m.Domains(), keys(owner))

		// direct threshold: close pairs always share a cluster
		items := m.Domains()
		for i := range items {
			for j := i + 1; j < len(items); j++ {
				a, _ := m.Get(items[i])
				b, _ := m.Get(items[j])
				d, err := a.Distance(b)
				require.NoError(t, err)
				if d <= threshold {
					require.Equal(t, owner[items[i]], owner[items[j]], "%s and %s at distance %d", items[i], items[j], d)
				}
			}
		}
	}
}

func keys(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}

	return out
}
