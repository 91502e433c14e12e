package dataset

import (
	"strings"
	"time"

	"github.com/kjstillabower/weather-dashboard/internal/models"
)

// FilterOptions selects the rows shown in the filtered table and charts.
// From and To are compared at day granularity; a zero value leaves that side open.
type FilterOptions struct {
	Cities      []string
	CurrentCity string
	From        time.Time
	To          time.Time
}

// Filter keeps rows whose city is selected (the current city always counts as
// selected) and whose timestamp falls on a day within [From, To].
func Filter(rows []models.EnrichedObservation, opts FilterOptions) []models.EnrichedObservation {
	allowed := make(map[string]struct{}, len(opts.Cities)+1)
	for _, c := range opts.Cities {
		if c = strings.TrimSpace(c); c != "" {
			allowed[c] = struct{}{}
		}
	}
	if c := strings.TrimSpace(opts.CurrentCity); c != "" {
		allowed[c] = struct{}{}
	}

	var from, until time.Time
	if !opts.From.IsZero() {
		from = truncateDay(opts.From)
	}
	if !opts.To.IsZero() {
		until = truncateDay(opts.To).AddDate(0, 0, 1)
	}

	out := make([]models.EnrichedObservation, 0, len(rows))
	for _, r := range rows {
		if _, ok := allowed[r.City]; !ok {
			continue
		}
		d := truncateDay(r.Timestamp)
		if !from.IsZero() && d.Before(from) {
			continue
		}
		if !until.IsZero() && !d.Before(until) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Cities returns distinct city names in first-appearance order.
func Cities(rows []models.EnrichedObservation) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range rows {
		if _, ok := seen[r.City]; ok {
			continue
		}
		seen[r.City] = struct{}{}
		out = append(out, r.City)
	}
	return out
}

// DateBounds returns the first and last calendar day covered by rows.
func DateBounds(rows []models.EnrichedObservation) (first, last time.Time, ok bool) {
	for i, r := range rows {
		if i == 0 || r.Timestamp.Before(first) {
			first = r.Timestamp
		}
		if i == 0 || r.Timestamp.After(last) {
			last = r.Timestamp
		}
	}
	if len(rows) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return truncateDay(first), truncateDay(last), true
}

// truncateDay returns the wall-clock calendar day of t as UTC midnight.
func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
