package fieldindex

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
)

// headerPattern matches `<prefix>,"name=count,name=count,..."`.
var headerPattern = regexp.MustCompile(`^[^,]+,"(.*)"$`)

// Index is the ordered, deduplicated list of field names that maps
// fingerprint bit positions to field names for one run.
type Index []string

// MalformedHeaderError is returned when a field count line does not have the
// expected quoted name=count shape.
type MalformedHeaderError struct {
	Line   string
	Reason string
}

func (e *MalformedHeaderError) Error() string {
	return fmt.Sprintf("malformed field header %q: %s", truncate(e.Line, 60), e.Reason)
}

// ParseHeader parses a field count line into the canonical field order.
// Counts are discarded; a name seen twice keeps its first position.
func ParseHeader(line string) (Index, error) {
	line = strings.TrimRight(line, "\r\n")
	matches := headerPattern.FindStringSubmatch(line)
	if matches == nil {
		return nil, &MalformedHeaderError{Line: line, Reason: `expected prefix,"name=count,..."`}
	}

	payload := matches[1]
	if strings.TrimSpace(payload) == "" {
		return nil, &MalformedHeaderError{Line: line, Reason: "no field names in quoted segment"}
	}

	var index Index
	seen := make(map[string]bool)
	for _, fieldWithCount := range strings.Split(payload, ",") {
		name, _, _ := strings.Cut(fieldWithCount, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, &MalformedHeaderError{Line: line, Reason: "empty field name"}
		}
		if seen[name] {
			slog.Debug("Duplicate field in header", "field", name)
			continue
		}
		seen[name] = true
		index = append(index, name)
	}

	return index, nil
}

// ReadHeader reads the first line of a field list file and parses it.
func ReadHeader(path string) (Index, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open field list: %w", err)
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return nil, &MalformedHeaderError{Line: "", Reason: "field list file is empty"}
	}

	return ParseHeader(line)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
