package dashboard

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjstillabower/weather-dashboard/internal/dataset"
	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/season"
	"github.com/kjstillabower/weather-dashboard/internal/session"
	"github.com/kjstillabower/weather-dashboard/internal/validation"
)

func sampleSession(t *testing.T) *session.Session {
	t.Helper()
	rows, err := dataset.ParseCSV(strings.NewReader(sampleCSV()))
	require.NoError(t, err)
	return &session.Session{
		TokenPassed:    true,
		CityName:       "Moscow",
		WeatherChecked: true,
		Weather:        &models.WeatherData{City: "Moscow", Temperature: -8},
		DatasetName:    "temperature_data.csv",
		Observations:   rows,
	}
}

var january = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

func TestBuild_NoSession(t *testing.T) {
	v := Build(nil, validation.Filter{}, january, 0)
	assert.Equal(t, "15.01.2024", v.Today)
	assert.Equal(t, season.Winter, v.Season)
	assert.False(t, v.HasDataset)
	assert.Nil(t, v.Insight)
}

func TestBuild_WithoutDataset(t *testing.T) {
	s := &session.Session{TokenPassed: true, CityName: "Moscow", WeatherChecked: true, Weather: &models.WeatherData{City: "Moscow"}}
	v := Build(s, validation.Filter{}, january, 0)
	assert.True(t, v.TokenPassed)
	assert.True(t, v.WeatherChecked)
	require.NotNil(t, v.Weather)
	assert.False(t, v.HasDataset)
	assert.False(t, v.ShowScatter)
	assert.Empty(t, v.Raw)
}

// TestBuild_DefaultsAndCurrentCity verifies that empty filter dates default to
// the dataset bounds and the looked-up city is always included.
func TestBuild_DefaultsAndCurrentCity(t *testing.T) {
	v := Build(sampleSession(t), validation.Filter{}, january, 0)

	assert.Equal(t, []string{"Berlin", "Moscow"}, v.CityOptions)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), v.MinDate)
	assert.Equal(t, time.Date(2020, 2, 9, 0, 0, 0, 0, time.UTC), v.MaxDate)
	assert.Equal(t, v.MinDate, v.From)
	assert.Equal(t, v.MaxDate, v.To)
	assert.Len(t, v.Raw, 43)
	assert.Len(t, v.Filtered, 40)
	for _, r := range v.Filtered {
		assert.Equal(t, "Moscow", r.City)
	}
	assert.True(t, v.ShowScatter)
	assert.True(t, v.ShowRolling)
	assert.Len(t, v.Rolling, 40)
	assert.NotEmpty(t, v.Profile)
	require.Len(t, v.Seasons, 1)
	assert.Equal(t, "winter", v.Seasons[0].Season)

	require.NotNil(t, v.Insight)
	assert.Empty(t, v.Warning)
	assert.Equal(t, dataset.AssessmentNormal, v.Insight.Assessment)
}

func TestBuild_SelectionAndRange(t *testing.T) {
	f := validation.Filter{
		Cities: []string{"Berlin"},
		From:   time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		To:     time.Date(2020, 1, 10, 0, 0, 0, 0, time.UTC),
	}
	v := Build(sampleSession(t), f, january, 0)

	assert.Len(t, v.Filtered, 13, "10 Moscow days plus 3 Berlin days")
	assert.True(t, v.ShowScatter)
	assert.False(t, v.ShowRolling, "fewer than 30 filtered rows")
	assert.Len(t, v.Seasons, 2)
}

func TestBuild_EmptyFilterHidesCharts(t *testing.T) {
	s := sampleSession(t)
	s.CityName = ""
	s.ClearWeather()

	v := Build(s, validation.Filter{}, january, 0)
	assert.Empty(t, v.Filtered)
	assert.False(t, v.ShowScatter)
	assert.False(t, v.ShowRolling)
	assert.Nil(t, v.Insight)
	assert.Empty(t, v.Warning)
}

func TestBuild_SeasonMissingWarns(t *testing.T) {
	july := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	v := Build(sampleSession(t), validation.Filter{}, july, 0)

	assert.Equal(t, season.Summer, v.Season)
	assert.Nil(t, v.Insight)
	assert.Equal(t, "Not enough data about current season. Please, select a wider interval that includes summer months", v.Warning)
}

func TestBuild_DatasetHiddenWithoutToken(t *testing.T) {
	s := sampleSession(t)
	s.TokenPassed = false

	v := Build(s, validation.Filter{Cities: []string{"Moscow"}}, january, 0)
	assert.False(t, v.HasDataset)
	assert.Empty(t, v.DatasetName)
	assert.Empty(t, v.Raw)
	assert.Empty(t, v.Filtered)
	assert.False(t, v.ShowScatter)
	assert.Nil(t, v.Insight)
}

func TestBuild_WindowOverride(t *testing.T) {
	v := Build(sampleSession(t), validation.Filter{}, january, 50)
	assert.False(t, v.ShowRolling)
}

func TestCapitalize(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"light snow", "Light snow"},
		{"OVERCAST CLOUDS", "Overcast clouds"},
		{"ясно", "Ясно"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Capitalize(tt.in), "Capitalize(%q)", tt.in)
	}
}
