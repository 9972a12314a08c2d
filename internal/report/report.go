package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/fieldprofile/internal/profile"
	"gopkg.in/yaml.v3"
)

// Formats lists the supported output formats.
var Formats = []string{"csv", "text", "json", "yaml", "xlsx"}

// Metadata describes the run that produced a report.
type Metadata struct {
	RunID        string
	GeneratedAt  time.Time
	FieldsFile   string
	ProfilesFile string
	Narrative    string
}

// Document is the serialized form of a report for JSON and YAML output.
type Document struct {
	Config   DocumentConfig    `json:"config" yaml:"config"`
	Summary  DocumentSummary   `json:"summary" yaml:"summary"`
	Clusters []DocumentCluster `json:"clusters" yaml:"clusters"`
	Rejected []DocumentReject  `json:"rejected" yaml:"rejected"`
}

// DocumentConfig holds the inputs of the run
type DocumentConfig struct {
	RunID        string   `json:"run_id" yaml:"run_id"`
	GeneratedAt  string   `json:"generated_at" yaml:"generated_at"`
	FieldsFile   string   `json:"fields_file" yaml:"fields_file"`
	ProfilesFile string   `json:"profiles_file" yaml:"profiles_file"`
	Threshold    float64  `json:"threshold" yaml:"threshold"`
	Fields       []string `json:"fields" yaml:"fields"`
}

// DocumentSummary holds run level totals
type DocumentSummary struct {
	Clusters    int     `json:"clusters" yaml:"clusters"`
	Patterns    int     `json:"patterns" yaml:"patterns"`
	TotalWeight float64 `json:"total_weight" yaml:"total_weight"`
	Rejected    int     `json:"rejected" yaml:"rejected"`
	Superseded  int     `json:"superseded" yaml:"superseded"`
	Narrative   string  `json:"narrative,omitempty" yaml:"narrative,omitempty"`
}

// DocumentCluster is one ranked cluster
type DocumentCluster struct {
	Rank    int              `json:"rank" yaml:"rank"`
	Weight  float64          `json:"weight" yaml:"weight"`
	Count   int              `json:"count" yaml:"count"`
	Present []string         `json:"present" yaml:"present"`
	Missing []string         `json:"missing" yaml:"missing"`
	Members []DocumentMember `json:"members" yaml:"members"`
}

// DocumentMember is one pattern inside a cluster
type DocumentMember struct {
	Fingerprint string   `json:"fingerprint" yaml:"fingerprint"`
	Fields      []string `json:"fields" yaml:"fields"`
	Length      int      `json:"length" yaml:"length"`
	Count       int      `json:"count" yaml:"count"`
	Weight      float64  `json:"weight" yaml:"weight"`
}

// DocumentReject is a profile row excluded from clustering
type DocumentReject struct {
	Line  int    `json:"line" yaml:"line"`
	Row   string `json:"row" yaml:"row"`
	Error string `json:"error" yaml:"error"`
}

// Write renders rep to w in the requested format.
func Write(w io.Writer, format string, rep *profile.Report, meta Metadata) error {
	switch strings.ToLower(format) {
	case "csv":
		return WriteCSV(w, rep)
	case "text":
		return WriteText(w, rep, meta)
	case "json":
		return WriteJSON(w, rep, meta)
	case "yaml":
		return WriteYAML(w, rep, meta)
	case "xlsx":
		return WriteXLSX(w, rep, meta)
	default:
		return fmt.Errorf("unsupported format: %s (supported: %s)", format, strings.Join(Formats, ", "))
	}
}

// WriteCSV emits one `rank,<row>` line per cluster member, clusters by
// descending aggregate weight and members by descending weight.
func WriteCSV(w io.Writer, rep *profile.Report) error {
	for _, cluster := range rep.Clusters {
		for _, member := range cluster.Members {
			if _, err := fmt.Fprintf(w, "%d,%s\n", cluster.Rank, member.AsCSV()); err != nil {
				return fmt.Errorf("failed to write cluster row: %w", err)
			}
		}
	}
	return nil
}

// NewDocument converts a report into its serializable form.
func NewDocument(rep *profile.Report, meta Metadata) Document {
	doc := Document{
		Config: DocumentConfig{
			RunID:        meta.RunID,
			FieldsFile:   meta.FieldsFile,
			ProfilesFile: meta.ProfilesFile,
			Threshold:    rep.Threshold,
			Fields:       append([]string{}, rep.Fields...),
		},
		Summary: DocumentSummary{
			Clusters:    len(rep.Clusters),
			Patterns:    rep.Patterns(),
			TotalWeight: rep.TotalWeight(),
			Rejected:    len(rep.Rejected),
			Superseded:  rep.Superseded,
			Narrative:   meta.Narrative,
		},
		Clusters: make([]DocumentCluster, 0, len(rep.Clusters)),
		Rejected: make([]DocumentReject, 0, len(rep.Rejected)),
	}
	if !meta.GeneratedAt.IsZero() {
		doc.Config.GeneratedAt = meta.GeneratedAt.Format(time.RFC3339)
	}

	for _, c := range rep.Clusters {
		dc := DocumentCluster{
			Rank:    c.Rank,
			Weight:  c.Weight,
			Count:   c.Count,
			Present: c.Present,
			Missing: c.Missing,
			Members: make([]DocumentMember, 0, len(c.Members)),
		}
		for _, m := range c.Members {
			dc.Members = append(dc.Members, DocumentMember{
				Fingerprint: m.Fingerprint.String(),
				Fields:      m.Fields,
				Length:      m.Length,
				Count:       m.Count,
				Weight:      m.Weight,
			})
		}
		doc.Clusters = append(doc.Clusters, dc)
	}

	for _, r := range rep.Rejected {
		doc.Rejected = append(doc.Rejected, DocumentReject{
			Line:  r.LineNumber,
			Row:   r.Line,
			Error: r.Message(),
		})
	}

	return doc
}

// WriteJSON writes the report as indented JSON
func WriteJSON(w io.Writer, rep *profile.Report, meta Metadata) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(NewDocument(rep, meta)); err != nil {
		return fmt.Errorf("failed to encode report to JSON: %w", err)
	}
	return nil
}

// WriteYAML writes the report as YAML
func WriteYAML(w io.Writer, rep *profile.Report, meta Metadata) error {
	doc := NewDocument(rep, meta)
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write YAML: %w", err)
	}
	return nil
}

// WriteText writes a human-readable summary of the ranked clusters.
func WriteText(w io.Writer, rep *profile.Report, meta Metadata) error {
	separator := strings.Repeat("=", 70)
	dash := strings.Repeat("-", 70)

	var b strings.Builder
	fmt.Fprintln(&b, separator)
	fmt.Fprintln(&b, "FIELD PATTERN CLUSTERS")
	fmt.Fprintln(&b, separator)
	if meta.RunID != "" {
		fmt.Fprintf(&b, "Run:        %s\n", meta.RunID)
	}
	if !meta.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "Generated:  %s\n", meta.GeneratedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(&b, "Threshold:  %.2f\n", rep.Threshold)
	fmt.Fprintf(&b, "Fields:     %d\n", len(rep.Fields))
	fmt.Fprintf(&b, "Patterns:   %d\n", rep.Patterns())
	fmt.Fprintf(&b, "Clusters:   %d\n", len(rep.Clusters))
	fmt.Fprintf(&b, "Rejected:   %d\n", len(rep.Rejected))
	if rep.Superseded > 0 {
		fmt.Fprintf(&b, "Superseded: %d (duplicate fingerprints, later row kept)\n", rep.Superseded)
	}

	if meta.Narrative != "" {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "SUMMARY")
		fmt.Fprintln(&b, dash)
		fmt.Fprintln(&b, strings.TrimSpace(meta.Narrative))
	}

	for _, c := range rep.Clusters {
		fmt.Fprintln(&b)
		fmt.Fprintf(&b, "CLUSTER %d: %.2f%% of records (%d records, %d patterns)\n",
			c.Rank, c.Weight, c.Count, len(c.Members))
		fmt.Fprintln(&b, dash)
		fmt.Fprintf(&b, "  Always present: %s\n", listOrNone(c.Present))
		fmt.Fprintf(&b, "  Always missing: %s\n", listOrNone(c.Missing))
		for _, m := range c.Members {
			fmt.Fprintf(&b, "    %s  %6.2f%%  %6d  %s\n", m.Fingerprint, m.Weight, m.Count, strings.Join(m.Fields, ";"))
		}
	}

	if len(rep.Rejected) > 0 {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "REJECTED ROWS")
		fmt.Fprintln(&b, dash)
		rejected := append([]profile.RowError{}, rep.Rejected...)
		sort.SliceStable(rejected, func(i, j int) bool {
			return rejected[i].LineNumber < rejected[j].LineNumber
		})
		for _, r := range rejected {
			fmt.Fprintf(&b, "  line %d: %s\n", r.LineNumber, r.Message())
		}
	}
	fmt.Fprintln(&b, separator)

	_, err := io.WriteString(w, b.String())
	return err
}

func listOrNone(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}
