package profile

import (
	"sort"

	"github.com/lehigh-university-libraries/fieldprofile/internal/fieldindex"
	"github.com/lehigh-university-libraries/fieldprofile/internal/pattern"
)

// Report is the ranked cluster report of one run.
type Report struct {
	Threshold  float64
	Fields     fieldindex.Index
	Clusters   []Cluster
	Rejected   []RowError
	Superseded int
}

// Cluster is a group of mutually similar patterns with its aggregate weight.
type Cluster struct {
	// Rank is the 0-based position by descending aggregate weight.
	Rank    int
	Members []*pattern.Record
	Weight  float64
	Count   int
	// Present and Missing list the fields every member populates and the
	// fields no member populates.
	Present []string
	Missing []string
}

func newCluster(members []*pattern.Record, index fieldindex.Index) Cluster {
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].Weight > members[j].Weight
	})

	c := Cluster{Members: members}
	for _, m := range members {
		c.Weight += m.Weight
		c.Count += m.Count
	}
	c.Present, c.Missing = archetype(members, index)
	return c
}

// archetype collects the index fields that are set in all members and unset
// in all members.
func archetype(members []*pattern.Record, index fieldindex.Index) ([]string, []string) {
	if len(members) == 0 {
		return []string{}, []string{}
	}

	present := members[0].Fingerprint.Fields(index)
	missing := members[0].Fingerprint.Missing(index)
	for _, m := range members[1:] {
		present = intersect(present, m.Fingerprint.Fields(index))
		missing = intersect(missing, m.Fingerprint.Missing(index))
	}
	return present, missing
}

// intersect keeps the names of a that also appear in b, in a's order.
func intersect(a, b []string) []string {
	keep := make(map[string]bool, len(b))
	for _, name := range b {
		keep[name] = true
	}
	out := []string{}
	for _, name := range a {
		if keep[name] {
			out = append(out, name)
		}
	}
	return out
}

// TotalWeight returns the sum of all cluster weights.
func (r *Report) TotalWeight() float64 {
	total := 0.0
	for _, c := range r.Clusters {
		total += c.Weight
	}
	return total
}

// Patterns returns the number of distinct patterns across all clusters.
func (r *Report) Patterns() int {
	n := 0
	for _, c := range r.Clusters {
		n += len(c.Members)
	}
	return n
}

// Top returns at most n clusters from the head of the ranking.
func (r *Report) Top(n int) []Cluster {
	if n < 0 || n > len(r.Clusters) {
		return r.Clusters
	}
	return r.Clusters[:n]
}
