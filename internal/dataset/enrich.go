package dataset

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/season"
)

// Sigma is the number of standard deviations on each side of the mean that
// bounds the normal range (roughly a 95% interval).
const Sigma = 2.0

type groupKey struct {
	city   string
	season string
}

type groupStats struct {
	mean  float64
	std   float64
	count int
}

func (g groupStats) bounds() (lo, hi float64) {
	return g.mean - Sigma*g.std, g.mean + Sigma*g.std
}

// computeGroups returns mean and sample standard deviation (n-1 denominator)
// of temperature per (city, season). Groups of one row have NaN std.
func computeGroups(rows []models.Observation) map[groupKey]groupStats {
	temps := make(map[groupKey][]float64)
	for _, r := range rows {
		k := groupKey{r.City, r.Season}
		temps[k] = append(temps[k], r.Temperature)
	}
	out := make(map[groupKey]groupStats, len(temps))
	for k, xs := range temps {
		g := groupStats{count: len(xs)}
		if len(xs) < 2 {
			g.mean = stat.Mean(xs, nil)
			g.std = math.NaN()
		} else {
			g.mean, g.std = stat.MeanStdDev(xs, nil)
		}
		out[k] = g
	}
	return out
}

// Enrich attaches the (city, season) normal range to every row and flags
// temperatures outside it. Rows are returned ordered by city, then timestamp.
func Enrich(rows []models.Observation) []models.EnrichedObservation {
	groups := computeGroups(rows)
	out := make([]models.EnrichedObservation, 0, len(rows))
	for _, r := range rows {
		g := groups[groupKey{r.City, r.Season}]
		lo, hi := g.bounds()
		out = append(out, models.EnrichedObservation{
			Observation: r,
			Year:        r.Timestamp.Year(),
			DayOfYear:   r.Timestamp.YearDay(),
			Mean:        g.mean,
			Std:         g.std,
			Top95:       hi,
			Bot95:       lo,
			// NaN bounds compare false, so single-row groups are never outliers.
			IsOutlier: r.Temperature > hi || r.Temperature < lo,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].City != out[j].City {
			return out[i].City < out[j].City
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// SeasonSummary returns per (city, season) mean and std for the given rows.
// Cities keep first-appearance order and seasons follow season.Order.
func SeasonSummary(rows []models.EnrichedObservation) []models.SeasonStat {
	obs := make([]models.Observation, len(rows))
	for i, r := range rows {
		obs[i] = r.Observation
	}
	groups := computeGroups(obs)

	var out []models.SeasonStat
	for _, city := range Cities(rows) {
		for _, s := range season.Order {
			g, ok := groups[groupKey{city, string(s)}]
			if !ok {
				continue
			}
			out = append(out, models.SeasonStat{City: city, Season: string(s), Mean: g.mean, Std: g.std, Count: g.count})
		}
	}
	return out
}

// OutlierCount returns the number of flagged rows.
func OutlierCount(rows []models.EnrichedObservation) int {
	n := 0
	for _, r := range rows {
		if r.IsOutlier {
			n++
		}
	}
	return n
}
