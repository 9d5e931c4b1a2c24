package transcript

import (
	"strconv"
	"strings"

	"github.com/campus-connect/campus-bot/internal/domain/grades"
)

// ParseRows turns converted transcript text into normalized score rows.
// The converter emits one table row per line with tab-separated columns:
// subject code, subject name, internal score, external score; any later
// columns are ignored. Lines with fewer than four columns are skipped, and
// non-numeric scores default to zero - a ragged row never aborts ingestion.
func ParseRows(text string) []grades.ScoreRow {
	var rows []grades.ScoreRow

	lines := strings.Split(text, "\n")
	header := headerIndex(lines)

	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		// First non-empty line is the column header
		if i == header {
			continue
		}

		fields := splitColumns(line)
		if len(fields) < 4 {
			continue
		}

		rows = append(rows, grades.ScoreRow{
			SubjectCode: strings.TrimSpace(fields[0]),
			SubjectName: strings.TrimSpace(fields[1]),
			Internal:    parseScore(fields[2]),
			External:    parseScore(fields[3]),
		})
	}

	return rows
}

// headerIndex returns the index of the first non-empty line.
func headerIndex(lines []string) int {
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			return i
		}
	}
	return -1
}

// splitColumns splits a table line into columns: tab-separated when tabs are
// present, otherwise runs of two or more spaces.
func splitColumns(line string) []string {
	if strings.Contains(line, "\t") {
		return strings.Split(line, "\t")
	}

	var fields []string
	for _, f := range strings.Split(line, "  ") {
		f = strings.TrimSpace(f)
		if f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

// parseScore converts a score cell to an integer, defaulting to zero on
// anything non-numeric. Fractional values are truncated.
func parseScore(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}
