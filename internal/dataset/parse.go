// Package dataset ingests historical temperature CSVs and derives the seasonal
// statistics, filters, rolling means and exports shown on the dashboard.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/season"
)

var (
	// ErrMissingColumn is returned when the header lacks one of the required columns.
	ErrMissingColumn = errors.New("missing required column")
	// ErrEmptyDataset is returned when the file has a header but no rows.
	ErrEmptyDataset = errors.New("dataset has no rows")
	// ErrInvalidRow is returned when a row cannot be parsed.
	ErrInvalidRow = errors.New("invalid row")
)

// RequiredColumns are the columns every uploaded dataset must carry.
var RequiredColumns = []string{"city", "timestamp", "temperature", "season"}

var timestampLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	"2006/01/02",
}

// ParseCSV reads observations from r. Columns are matched by header name in any
// order; extra columns are ignored. Line numbers in errors are 1-based and count the header.
func ParseCSV(r io.Reader) ([]models.Observation, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDataset
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var rows []models.Observation
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if isBlank(rec) {
			continue
		}
		obs, err := parseRecord(rec, idx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, obs)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyDataset
	}
	return rows, nil
}

func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	for _, c := range RequiredColumns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}
	return idx, nil
}

func parseRecord(rec []string, idx map[string]int) (models.Observation, error) {
	field := func(name string) string {
		i := idx[name]
		if i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	city := field("city")
	if city == "" {
		return models.Observation{}, fmt.Errorf("%w: empty city", ErrInvalidRow)
	}
	ts, err := ParseTimestamp(field("timestamp"))
	if err != nil {
		return models.Observation{}, fmt.Errorf("%w: %v", ErrInvalidRow, err)
	}
	temp, err := strconv.ParseFloat(field("temperature"), 64)
	if err != nil || math.IsNaN(temp) || math.IsInf(temp, 0) {
		return models.Observation{}, fmt.Errorf("%w: temperature %q", ErrInvalidRow, field("temperature"))
	}
	s, err := season.Parse(field("season"))
	if err != nil {
		return models.Observation{}, fmt.Errorf("%w: season %q", ErrInvalidRow, field("season"))
	}
	return models.Observation{City: city, Timestamp: ts, Temperature: temp, Season: string(s)}, nil
}

// ParseTimestamp accepts dates and date-times in the common ISO-like layouts.
// Values without a zone are taken as UTC; an explicit offset is kept so the
// calendar day stays the one written in the file.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("timestamp %q: unrecognized format", s)
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
