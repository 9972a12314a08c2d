package profile

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/lehigh-university-libraries/fieldprofile/internal/clustering"
	"github.com/lehigh-university-libraries/fieldprofile/internal/fieldindex"
	"github.com/lehigh-university-libraries/fieldprofile/internal/fingerprint"
	"github.com/lehigh-university-libraries/fieldprofile/internal/pattern"
)

// Reader turns the aggregated pattern rows of one corpus into a ranked
// cluster report. A Reader holds state for a single corpus; build a new one
// per run.
type Reader struct {
	index    fieldindex.Index
	encoder  *fingerprint.Encoder
	records  []*pattern.Record
	rejected []RowError
}

// RowError records a profile row that was rejected and excluded from
// clustering.
type RowError struct {
	LineNumber int
	Line       string
	Err        error
}

// Message returns the rejection reason.
func (r RowError) Message() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// NewReader parses every profile line against the canonical index. Blank
// lines are skipped; malformed rows are kept aside and reported by Rejected.
func NewReader(index fieldindex.Index, lines []string) *Reader {
	r := &Reader{
		index:   index,
		encoder: fingerprint.NewEncoder(index),
	}

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		record, err := pattern.ParseRow(line, r.encoder)
		if err != nil {
			slog.Warn("Rejected profile row", "line", i+1, "error", err)
			r.rejected = append(r.rejected, RowError{LineNumber: i + 1, Line: line, Err: err})
			continue
		}
		r.records = append(r.records, record)
	}

	slog.Debug("Parsed profile rows",
		"fields", len(index),
		"accepted", len(r.records),
		"rejected", len(r.rejected))

	return r
}

// Records returns the accepted pattern records in input order.
func (r *Reader) Records() []*pattern.Record {
	return r.records
}

// Rejected returns the rows that could not be parsed.
func (r *Reader) Rejected() []RowError {
	return r.rejected
}

// Fingerprints returns one fingerprint per accepted row, in input order,
// without clustering.
func (r *Reader) Fingerprints() []fingerprint.Fingerprint {
	fps := make([]fingerprint.Fingerprint, 0, len(r.records))
	for _, record := range r.records {
		fps = append(fps, record.Fingerprint)
	}
	return fps
}

// Cluster groups the accepted rows by fingerprint similarity and ranks the
// clusters by aggregate weight.
//
// When several rows share a fingerprint the last one observed wins the
// lookup; the earlier rows are counted in Report.Superseded and logged.
func (r *Reader) Cluster(threshold float64) (*Report, error) {
	if err := clustering.ValidateThreshold(threshold); err != nil {
		return nil, err
	}

	lookup := make(map[fingerprint.Fingerprint]*pattern.Record, len(r.records))
	superseded := 0
	for _, record := range r.records {
		if previous, ok := lookup[record.Fingerprint]; ok {
			superseded++
			slog.Warn("Duplicate fingerprint, keeping later row",
				"fingerprint", record.Fingerprint,
				"dropped", previous.Line,
				"kept", record.Line)
		}
		lookup[record.Fingerprint] = record
	}

	groups, err := clustering.Cluster(r.Fingerprints(), threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to cluster fingerprints: %w", err)
	}

	clusters := make([]Cluster, 0, len(groups))
	for _, group := range groups {
		members := make([]*pattern.Record, 0, len(group))
		for _, fp := range group {
			members = append(members, lookup[fp])
		}
		clusters = append(clusters, newCluster(members, r.index))
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		return clusters[i].Weight > clusters[j].Weight
	})
	for i := range clusters {
		clusters[i].Rank = i
	}

	slog.Info("Built clusters",
		"rows", len(r.records),
		"distinct", len(lookup),
		"clusters", len(clusters),
		"rejected", len(r.rejected),
		"threshold", threshold)

	return &Report{
		Threshold:  threshold,
		Fields:     r.index,
		Clusters:   clusters,
		Rejected:   r.rejected,
		Superseded: superseded,
	}, nil
}
