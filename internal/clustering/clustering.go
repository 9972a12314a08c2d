package clustering

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/lehigh-university-libraries/fieldprofile/internal/fingerprint"
)

// DefaultThreshold links only near-identical patterns.
const DefaultThreshold = 0.97

// ThresholdOutOfRangeError is returned for a similarity threshold outside (0, 1].
type ThresholdOutOfRangeError struct {
	Threshold float64
}

func (e *ThresholdOutOfRangeError) Error() string {
	return fmt.Sprintf("similarity threshold %v is outside (0, 1]", e.Threshold)
}

// ValidateThreshold checks that threshold lies in (0, 1].
func ValidateThreshold(threshold float64) error {
	if math.IsNaN(threshold) || threshold <= 0 || threshold > 1 {
		return &ThresholdOutOfRangeError{Threshold: threshold}
	}
	return nil
}

// Cluster partitions fingerprints into connected components of the graph that
// links two fingerprints when their similarity is at least threshold.
//
// Duplicate input values are collapsed onto their first occurrence. Clusters
// are returned ordered by their earliest member, and members keep input order,
// so the same input always yields the same partition in the same order.
func Cluster(fps []fingerprint.Fingerprint, threshold float64) ([][]fingerprint.Fingerprint, error) {
	if err := ValidateThreshold(threshold); err != nil {
		return nil, err
	}

	distinct := dedupe(fps)
	if len(distinct) == 0 {
		return [][]fingerprint.Fingerprint{}, nil
	}

	sets := newDisjointSet(len(distinct))
	edges := 0
	for i := 0; i < len(distinct); i++ {
		for j := i + 1; j < len(distinct); j++ {
			similarity, err := fingerprint.Similarity(distinct[i], distinct[j])
			if err != nil {
				return nil, err
			}
			if similarity >= threshold {
				sets.union(i, j)
				edges++
			}
		}
	}

	slot := make(map[int]int)
	var clusters [][]fingerprint.Fingerprint
	for i, fp := range distinct {
		root := sets.find(i)
		idx, ok := slot[root]
		if !ok {
			idx = len(clusters)
			slot[root] = idx
			clusters = append(clusters, nil)
		}
		clusters[idx] = append(clusters[idx], fp)
	}

	slog.Debug("Clustered fingerprints",
		"distinct", len(distinct),
		"edges", edges,
		"clusters", len(clusters),
		"threshold", threshold)

	return clusters, nil
}

func dedupe(fps []fingerprint.Fingerprint) []fingerprint.Fingerprint {
	seen := make(map[fingerprint.Fingerprint]bool, len(fps))
	distinct := make([]fingerprint.Fingerprint, 0, len(fps))
	for _, fp := range fps {
		if seen[fp] {
			continue
		}
		seen[fp] = true
		distinct = append(distinct, fp)
	}
	return distinct
}

// disjointSet is a union-find over slice positions.
type disjointSet struct {
	parent []int
	rank   []int
}

func newDisjointSet(n int) *disjointSet {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &disjointSet{
		parent: parent,
		rank:   make([]int, n),
	}
}

func (d *disjointSet) find(x int) int {
	for d.parent[x] != x {
		d.parent[x] = d.parent[d.parent[x]]
		x = d.parent[x]
	}
	return x
}

func (d *disjointSet) union(a, b int) {
	ra, rb := d.find(a), d.find(b)
	if ra == rb {
		return
	}
	switch {
	case d.rank[ra] < d.rank[rb]:
		d.parent[ra] = rb
	case d.rank[ra] > d.rank[rb]:
		d.parent[rb] = ra
	default:
		d.parent[rb] = ra
		d.rank[ra]++
	}
}
