package source

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// ProfileRow is one aggregated pattern row as stored in a Parquet table.
type ProfileRow struct {
	Fields  string  `parquet:"fields"` // field names joined with ';'
	Length  int64   `parquet:"length"`
	Count   int64   `parquet:"count"`
	Percent float64 `parquet:"percent"`
}

// Line renders the row as a profile line.
func (r ProfileRow) Line() string {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	_ = writer.Write([]string{
		r.Fields,
		strconv.FormatInt(r.Length, 10),
		strconv.FormatInt(r.Count, 10),
		strconv.FormatFloat(r.Percent, 'f', -1, 64),
	})
	writer.Flush()
	return strings.TrimRight(buf.String(), "\n")
}

// Loader reads aggregated profile rows from a file
type Loader struct {
	path string
}

// NewLoader creates a new profile loader
func NewLoader(path string) *Loader {
	return &Loader{
		path: path,
	}
}

// Load returns the profile rows as lines, in file order. Parquet tables are
// rendered to the same line layout as plain CSV profiles.
func (l *Loader) Load() ([]string, error) {
	ext := strings.ToLower(filepath.Ext(l.path))

	switch ext {
	case ".parquet":
		return l.loadParquet()
	case ".csv", ".txt", "":
		return l.loadLines()
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .csv, .txt, .parquet)", ext)
	}
}

// loadLines reads a plain profile file line by line
func (l *Loader) loadLines() ([]string, error) {
	slog.Debug("Opening profile file", "path", l.path)

	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile file: %w", err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)

	// Patterns over large schemas produce long rows
	const maxCapacity = 10 * 1024 * 1024
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, maxCapacity)

	for scanner.Scan() {
		lines = append(lines, scanner.Text())

		if len(lines)%10000 == 0 {
			slog.Debug("Reading profiles", "lines_read", len(lines))
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading profile file: %w", err)
	}

	slog.Debug("Finished reading profile file", "total_lines", len(lines))

	return lines, nil
}

// loadParquet reads ProfileRow records from a Parquet file
func (l *Loader) loadParquet() ([]string, error) {
	slog.Debug("Opening Parquet file", "path", l.path)

	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet file opened", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[ProfileRow](pf)
	defer reader.Close()

	var lines []string
	rows := make([]ProfileRow, 128)

	for {
		n, err := reader.Read(rows)
		for _, row := range rows[:n] {
			lines = append(lines, row.Line())
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}

	slog.Debug("Finished reading Parquet file", "total_rows", len(lines))

	return lines, nil
}

// WriteParquet stores profile rows as a Parquet table.
func WriteParquet(path string, rows []ProfileRow) error {
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("failed to write parquet file: %w", err)
	}
	return nil
}
