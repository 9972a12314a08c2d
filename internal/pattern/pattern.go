package pattern

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/fieldprofile/internal/fingerprint"
)

// FieldSeparator joins several field names inside one CSV column.
const FieldSeparator = ";"

// trailerColumns is the number of numeric columns after the field tokens:
// length, count and percent.
const trailerColumns = 3

// Record is one aggregated pattern row: the fields it populates, its
// fingerprint, and how much of the corpus shows that exact pattern.
type Record struct {
	Fields      []string
	Fingerprint fingerprint.Fingerprint
	Length      int
	Count       int
	Weight      float64
	Line        string
}

// RowShapeError is returned for a profile row that cannot be tokenized or
// whose trailer is not length,count,percent.
type RowShapeError struct {
	Line   string
	Reason string
	Err    error
}

func (e *RowShapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid profile row %q: %s: %v", e.Line, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid profile row %q: %s", e.Line, e.Reason)
}

func (e *RowShapeError) Unwrap() error {
	return e.Err
}

// ParseRow parses a profile row of the form
// `<field tokens...>,<length>,<count>,<percent>` and encodes its fields.
func ParseRow(line string, enc *fingerprint.Encoder) (*Record, error) {
	line = strings.TrimRight(line, "\r\n")

	columns, err := tokenize(line)
	if err != nil {
		return nil, &RowShapeError{Line: line, Reason: "cannot tokenize", Err: err}
	}
	if len(columns) < trailerColumns+1 {
		return nil, &RowShapeError{
			Line:   line,
			Reason: fmt.Sprintf("expected at least %d columns, got %d", trailerColumns+1, len(columns)),
		}
	}

	split := len(columns) - trailerColumns
	trailer := columns[split:]

	length, err := strconv.Atoi(strings.TrimSpace(trailer[0]))
	if err != nil || length < 0 {
		return nil, &RowShapeError{Line: line, Reason: "length is not a non-negative integer", Err: err}
	}
	count, err := strconv.Atoi(strings.TrimSpace(trailer[1]))
	if err != nil || count < 0 {
		return nil, &RowShapeError{Line: line, Reason: "count is not a non-negative integer", Err: err}
	}
	weight, err := strconv.ParseFloat(strings.TrimSpace(trailer[2]), 64)
	if err != nil || weight < 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
		return nil, &RowShapeError{Line: line, Reason: "percent is not a finite non-negative number", Err: err}
	}

	fields := splitFields(columns[:split])

	return &Record{
		Fields:      fields,
		Fingerprint: enc.Encode(fields),
		Length:      length,
		Count:       count,
		Weight:      weight,
		Line:        line,
	}, nil
}

// AsCSV renders the record the way it is re-emitted in cluster output.
func (r *Record) AsCSV() string {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	// csv.Writer only fails on the underlying writer, which is a bytes.Buffer
	_ = writer.Write([]string{
		strings.Join(r.Fields, FieldSeparator),
		strconv.Itoa(r.Length),
		strconv.Itoa(r.Count),
		strconv.FormatFloat(r.Weight, 'f', -1, 64),
	})
	writer.Flush()
	return strings.TrimRight(buf.String(), "\n")
}

func tokenize(line string) ([]string, error) {
	reader := csv.NewReader(strings.NewReader(line))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	columns, err := reader.Read()
	if err != nil {
		return nil, err
	}
	// A quoted newline would hide a second record in the same line.
	if _, err := reader.Read(); err == nil {
		return nil, fmt.Errorf("line holds more than one record")
	}
	return columns, nil
}

func splitFields(columns []string) []string {
	fields := []string{}
	for _, column := range columns {
		for _, name := range strings.Split(column, FieldSeparator) {
			name = strings.TrimSpace(name)
			if name != "" {
				fields = append(fields, name)
			}
		}
	}
	return fields
}
