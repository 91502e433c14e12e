package dashboard

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/kjstillabower/weather-dashboard/internal/dataset"
	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/season"
	"github.com/kjstillabower/weather-dashboard/internal/session"
	"github.com/kjstillabower/weather-dashboard/internal/validation"
)

// TodayLayout renders the banner date as dd.mm.yyyy.
const TodayLayout = "02.01.2006"

// View is the complete dashboard state for one request.
type View struct {
	Today  string        `json:"today"`
	Season season.Season `json:"season"`

	TokenPassed    bool                `json:"tokenPassed"`
	CityName       string              `json:"cityName,omitempty"`
	WeatherChecked bool                `json:"weatherChecked"`
	Weather        *models.WeatherData `json:"weather,omitempty"`

	DatasetName string `json:"datasetName,omitempty"`
	HasDataset  bool   `json:"hasDataset"`

	CityOptions []string  `json:"cityOptions,omitempty"`
	Selected    []string  `json:"selected,omitempty"`
	MinDate     time.Time `json:"minDate,omitempty"`
	MaxDate     time.Time `json:"maxDate,omitempty"`
	From        time.Time `json:"from,omitempty"`
	To          time.Time `json:"to,omitempty"`

	Raw      []models.EnrichedObservation `json:"raw,omitempty"`
	Filtered []models.EnrichedObservation `json:"filtered,omitempty"`
	Rolling  []models.RollingPoint        `json:"rolling,omitempty"`
	Profile  []dataset.ProfilePoint       `json:"profile,omitempty"`
	Seasons  []models.SeasonStat          `json:"seasons,omitempty"`
	Outliers int                          `json:"outliers"`

	Insight *models.Insight `json:"insight,omitempty"`
	Warning string          `json:"warning,omitempty"`

	ShowScatter bool `json:"showScatter"`
	ShowRolling bool `json:"showRolling"`
}

// Build derives the dashboard view from session state and a validated filter.
// The dataset is only shown once the token has passed. Zero filter dates
// default to the dataset's first and last day.
func Build(s *session.Session, f validation.Filter, now time.Time, window int) *View {
	if window <= 0 {
		window = dataset.DefaultWindow
	}
	current := season.Of(now)
	v := &View{
		Today:  now.Format(TodayLayout),
		Season: current,
	}
	if s == nil {
		return v
	}

	v.TokenPassed = s.TokenPassed
	v.CityName = s.CityName
	v.WeatherChecked = s.WeatherChecked && s.Weather != nil
	if v.WeatherChecked {
		w := *s.Weather
		v.Weather = &w
	}
	if !s.TokenPassed {
		return v
	}
	v.DatasetName = s.DatasetName
	v.HasDataset = s.HasDataset()
	if !v.HasDataset {
		return v
	}

	v.Raw = dataset.Enrich(s.Observations)
	v.CityOptions = dataset.Cities(v.Raw)
	v.Selected = f.Cities
	v.MinDate, v.MaxDate, _ = dataset.DateBounds(v.Raw)
	v.From, v.To = f.From, f.To
	if v.From.IsZero() {
		v.From = v.MinDate
	}
	if v.To.IsZero() {
		v.To = v.MaxDate
	}

	v.Filtered = dataset.Filter(v.Raw, dataset.FilterOptions{
		Cities:      f.Cities,
		CurrentCity: s.CityName,
		From:        v.From,
		To:          v.To,
	})
	v.Outliers = dataset.OutlierCount(v.Filtered)
	v.ShowScatter = len(v.Filtered) > 0
	v.ShowRolling = len(v.Filtered) >= window
	if !v.ShowScatter {
		return v
	}

	v.Rolling = dataset.RollingMean(v.Filtered, window)
	v.Profile = dataset.RollingProfile(v.Rolling)
	v.Seasons = dataset.SeasonSummary(v.Filtered)

	var temp *float64
	if v.Weather != nil {
		t := v.Weather.Temperature
		temp = &t
	}
	v.Insight, v.Warning = dataset.Insights(v.Filtered, s.CityName, current, temp)
	return v
}

// Capitalize upper-cases the first letter and lower-cases the rest, as used
// for weather descriptions.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r, n := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[n:])
}
