package models

import (
	"encoding/json"
	"math"
)

// finite returns nil for NaN and ±Inf so they encode as JSON null.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func (e EnrichedObservation) MarshalJSON() ([]byte, error) {
	type alias EnrichedObservation
	return json.Marshal(struct {
		alias
		Mean  *float64 `json:"mean"`
		Std   *float64 `json:"std"`
		Top95 *float64 `json:"top95"`
		Bot95 *float64 `json:"bot95"`
	}{alias(e), finite(e.Mean), finite(e.Std), finite(e.Top95), finite(e.Bot95)})
}

func (p RollingPoint) MarshalJSON() ([]byte, error) {
	type alias RollingPoint
	return json.Marshal(struct {
		alias
		Value *float64 `json:"value"`
	}{alias(p), finite(p.Value)})
}

func (s SeasonStat) MarshalJSON() ([]byte, error) {
	type alias SeasonStat
	return json.Marshal(struct {
		alias
		Mean *float64 `json:"mean"`
		Std  *float64 `json:"std"`
	}{alias(s), finite(s.Mean), finite(s.Std)})
}

func (in Insight) MarshalJSON() ([]byte, error) {
	type alias Insight
	return json.Marshal(struct {
		alias
		MinNormal *float64 `json:"minNormal"`
		MaxNormal *float64 `json:"maxNormal"`
	}{alias(in), finite(in.MinNormal), finite(in.MaxNormal)})
}
