package dataset

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjstillabower/weather-dashboard/internal/models"
)

func TestParseCSV(t *testing.T) {
	in := "city,timestamp,temperature,season\n" +
		"Moscow,2010-01-01,-10.5,winter\n" +
		"Berlin,2010-06-01 12:30:00,21,Summer\n" +
		"\n" +
		"Cairo,2010-10-01T00:00:00Z,30.25,autumn\n"

	rows, err := ParseCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Moscow", rows[0].City)
	assert.Equal(t, time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC), rows[0].Timestamp)
	assert.Equal(t, -10.5, rows[0].Temperature)
	assert.Equal(t, "winter", rows[0].Season)

	assert.Equal(t, time.Date(2010, 6, 1, 12, 30, 0, 0, time.UTC), rows[1].Timestamp)
	assert.Equal(t, "summer", rows[1].Season, "season is normalized to lower case")
	assert.Equal(t, 30.25, rows[2].Temperature)
}

func TestParseCSV_ColumnOrderAndExtras(t *testing.T) {
	in := "\ufeffseason,temperature,station,city,timestamp\n" +
		"spring,12,X1,Paris,2015-04-02\n"

	rows, err := ParseCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Paris", rows[0].City)
	assert.Equal(t, 12.0, rows[0].Temperature)
	assert.Equal(t, "spring", rows[0].Season)
}

func TestParseCSV_Errors(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr error
		wantMsg string
	}{
		{"empty file", "", ErrEmptyDataset, ""},
		{"header only", "city,timestamp,temperature,season\n", ErrEmptyDataset, ""},
		{"missing column", "city,timestamp,temperature\nMoscow,2010-01-01,1\n", ErrMissingColumn, "season"},
		{"bad temperature", "city,timestamp,temperature,season\nMoscow,2010-01-01,1,winter\nMoscow,2010-01-02,warm,winter\n", ErrInvalidRow, "line 3"},
		{"short row", "city,timestamp,temperature,season\nMoscow,2010-01-01,1\n", ErrInvalidRow, "line 2"},
		{"bad timestamp", "city,timestamp,temperature,season\nMoscow,yesterday,1,winter\n", ErrInvalidRow, "line 2"},
		{"bad season", "city,timestamp,temperature,season\nMoscow,2010-01-01,1,monsoon\n", ErrInvalidRow, "monsoon"},
		{"empty city", "city,timestamp,temperature,season\n,2010-01-01,1,winter\n", ErrInvalidRow, "empty city"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(tt.in))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	for _, in := range []string{"2020-02-29", "2020-02-29 08:00:00", "2020-02-29T08:00:00", "2020-02-29T08:00:00+03:00", "2020/02/29"} {
		ts, err := ParseTimestamp(in)
		require.NoError(t, err, in)
		assert.Equal(t, 2020, ts.Year(), in)
		assert.Equal(t, 60, ts.YearDay(), in)
	}
	_, err := ParseTimestamp("29.02.2020")
	assert.Error(t, err)

	ts, err := ParseTimestamp("2020-02-29")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, ts.Location())
}

func TestParseTimestamp_OffsetKeepsWallClockDay(t *testing.T) {
	ts, err := ParseTimestamp("2020-01-01T00:30:00+03:00")
	require.NoError(t, err)
	assert.Equal(t, 2020, ts.Year())
	assert.Equal(t, 1, ts.YearDay())

	rows := Enrich([]models.Observation{obs("Moscow", ts, -5, "winter")})
	assert.Equal(t, 2020, rows[0].Year)
	assert.Equal(t, 1, rows[0].DayOfYear)

	first, last, ok := DateBounds(rows)
	require.True(t, ok)
	assert.Equal(t, day(2020, 1, 1), first)
	assert.Equal(t, day(2020, 1, 1), last)

	got := Filter(rows, FilterOptions{Cities: []string{"Moscow"}, From: day(2020, 1, 1), To: day(2020, 1, 1)})
	assert.Len(t, got, 1)
	assert.Empty(t, Filter(rows, FilterOptions{Cities: []string{"Moscow"}, To: day(2019, 12, 31)}))
}
