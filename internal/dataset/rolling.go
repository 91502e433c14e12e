package dataset

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/kjstillabower/weather-dashboard/internal/models"
)

// DefaultWindow is the rolling-mean window in samples (one sample per day in typical datasets).
const DefaultWindow = 30

// RollingMean computes a centered fixed-size rolling mean of temperature per
// city over chronologically ordered rows. The window for index i spans
// [i-window/2, i+(window-1)/2]; points whose window runs off either end are
// returned with Valid=false and a NaN value.
func RollingMean(rows []models.EnrichedObservation, window int) []models.RollingPoint {
	if window <= 0 {
		window = DefaultWindow
	}
	byCity := make(map[string][]models.EnrichedObservation)
	for _, r := range rows {
		byCity[r.City] = append(byCity[r.City], r)
	}

	offset := (window - 1) / 2
	var out []models.RollingPoint
	for _, city := range Cities(rows) {
		series := byCity[city]
		sort.SliceStable(series, func(i, j int) bool { return series[i].Timestamp.Before(series[j].Timestamp) })
		temps := make([]float64, len(series))
		for i, r := range series {
			temps[i] = r.Temperature
		}
		for i, r := range series {
			end := i + 1 + offset
			start := end - window
			p := models.RollingPoint{City: city, Timestamp: r.Timestamp, DayOfYear: r.DayOfYear, Value: math.NaN()}
			if start >= 0 && end <= len(temps) {
				p.Value = floats.Sum(temps[start:end]) / float64(window)
				p.Valid = true
			}
			out = append(out, p)
		}
	}
	return out
}

// ProfilePoint is the mean rolling value of one city on one day of the year,
// averaged across years.
type ProfilePoint struct {
	City      string  `json:"city"`
	DayOfYear int     `json:"dayOfYear"`
	Value     float64 `json:"value"`
}

// RollingProfile collapses valid rolling points onto day of year so multi-year
// datasets draw as a single seasonal curve per city.
func RollingProfile(points []models.RollingPoint) []ProfilePoint {
	type acc struct {
		sum float64
		n   int
	}
	var cities []string
	seen := make(map[string]map[int]*acc)
	for _, p := range points {
		if !p.Valid {
			continue
		}
		days, ok := seen[p.City]
		if !ok {
			days = make(map[int]*acc)
			seen[p.City] = days
			cities = append(cities, p.City)
		}
		a, ok := days[p.DayOfYear]
		if !ok {
			a = &acc{}
			days[p.DayOfYear] = a
		}
		a.sum += p.Value
		a.n++
	}

	var out []ProfilePoint
	for _, city := range cities {
		days := seen[city]
		keys := make([]int, 0, len(days))
		for d := range days {
			keys = append(keys, d)
		}
		sort.Ints(keys)
		for _, d := range keys {
			a := days[d]
			out = append(out, ProfilePoint{City: city, DayOfYear: d, Value: a.sum / float64(a.n)})
		}
	}
	return out
}
