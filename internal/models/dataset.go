package models

import "time"

// Observation is one row of an uploaded temperature dataset.
type Observation struct {
	City        string    `json:"city"`
	Timestamp   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature"`
	Season      string    `json:"season"`
}

// EnrichedObservation is an Observation merged with the normal range of its (city, season) group.
// Std, Top95 and Bot95 are NaN when the group has a single row.
type EnrichedObservation struct {
	Observation
	Year      int     `json:"year"`
	DayOfYear int     `json:"dayOfYear"`
	Mean      float64 `json:"mean"`
	Std       float64 `json:"std"`
	Top95     float64 `json:"top95"`
	Bot95     float64 `json:"bot95"`
	IsOutlier bool    `json:"isOutlier"`
}

// RollingPoint is a centered rolling-mean value. Valid is false until the window is full.
type RollingPoint struct {
	City      string    `json:"city"`
	Timestamp time.Time `json:"timestamp"`
	DayOfYear int       `json:"dayOfYear"`
	Value     float64   `json:"value"`
	Valid     bool      `json:"valid"`
}

// SeasonStat is the mean and sample standard deviation of one (city, season) group.
type SeasonStat struct {
	City   string  `json:"city"`
	Season string  `json:"season"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Count  int     `json:"count"`
}

// Insight compares the current temperature against the seasonal normal range of a city.
type Insight struct {
	City       string   `json:"city"`
	Season     string   `json:"season"`
	MinNormal  float64  `json:"minNormal"`
	MaxNormal  float64  `json:"maxNormal"`
	Current    *float64 `json:"current,omitempty"`
	Assessment string   `json:"assessment,omitempty"`
}
