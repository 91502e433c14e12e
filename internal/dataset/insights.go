package dataset

import (
	"fmt"
	"math"

	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/season"
)

// Assessments of the current temperature against the normal range.
const (
	AssessmentLow    = "incredibly low"
	AssessmentHigh   = "incredibly high"
	AssessmentNormal = "within normal range"
)

// Insights computes the normal range of city in the given season over rows and,
// when current is non-nil, classifies it. A non-empty warning is returned
// instead of an insight when rows cannot support the comparison.
func Insights(rows []models.EnrichedObservation, city string, s season.Season, current *float64) (*models.Insight, string) {
	hasSeason := false
	obs := make([]models.Observation, 0, len(rows))
	for _, r := range rows {
		if r.Season == string(s) {
			hasSeason = true
		}
		obs = append(obs, r.Observation)
	}
	if !hasSeason {
		return nil, fmt.Sprintf("Not enough data about current season. Please, select a wider interval that includes %s months", s)
	}

	g, ok := computeGroups(obs)[groupKey{city, string(s)}]
	if !ok {
		if city == "" {
			return nil, "Enter a city to compare its current temperature with the seasonal normal range"
		}
		return nil, fmt.Sprintf("No %s data for %s in the selected range", s, city)
	}

	lo, hi := g.bounds()
	in := &models.Insight{City: city, Season: string(s), MinNormal: lo, MaxNormal: hi}
	if current != nil {
		v := *current
		in.Current = &v
		in.Assessment = Assess(v, lo, hi)
	}
	return in, ""
}

// Assess classifies temp against [lo, hi]. NaN bounds never classify as outside.
func Assess(temp, lo, hi float64) string {
	switch {
	case !math.IsNaN(lo) && temp < lo:
		return AssessmentLow
	case !math.IsNaN(hi) && temp > hi:
		return AssessmentHigh
	default:
		return AssessmentNormal
	}
}
