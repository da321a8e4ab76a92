package timeseries

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Date layouts accepted by the CSV reader, tried in order.
var csvDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
}

// ReadCSV loads a two-column series from a CSV file. The first column
// must be a date or datetime, the second the value. A header row is
// detected and used as the series name unless name is non-empty. Rows
// whose value is empty or a placeholder ("." is what FRED emits for
// missing observations) are dropped.
func ReadCSV(path string, name string) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv: %w", err)
	}
	defer f.Close()

	return ParseCSV(f, name)
}

// ParseCSV reads a two-column series from an open reader, with the same
// conventions as ReadCSV.
func ParseCSV(r io.Reader, name string) (*Series, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv contains no rows")
	}

	// Header row: first cell does not parse as a date
	rows := records
	if _, err := parseDate(records[0][0]); err != nil {
		if name == "" {
			name = strings.TrimSpace(records[0][1])
		}
		rows = records[1:]
	}
	if name == "" {
		name = "value"
	}

	points := make([]Point, 0, len(rows))
	for i, rec := range rows {
		raw := strings.TrimSpace(rec[1])
		if raw == "" || raw == "." {
			continue
		}

		ts, err := parseDate(rec[0])
		if err != nil {
			return nil, fmt.Errorf("csv row %d: %w", i+1, err)
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("csv row %d: invalid value %q", i+1, raw)
		}

		points = append(points, Point{Time: ts, Value: value})
	}

	return New(name, points)
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range csvDateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", raw)
}
