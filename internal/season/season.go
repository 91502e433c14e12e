// Package season maps calendar months to meteorological seasons.
package season

import (
	"errors"
	"strings"
	"time"
)

// Season is a meteorological season name as it appears in datasets.
type Season string

const (
	Spring Season = "spring"
	Summer Season = "summer"
	Autumn Season = "autumn"
	Winter Season = "winter"
)

// ErrUnknownSeason is returned by Parse for names outside the four seasons.
var ErrUnknownSeason = errors.New("unknown season")

// Order is the display order used for seasonal summaries.
var Order = []Season{Spring, Summer, Autumn, Winter}

// FromMonth returns the season for a month: Dec-Feb winter, Mar-May spring,
// Jun-Aug summer, Sep-Nov autumn.
func FromMonth(m time.Month) Season {
	switch m {
	case time.December, time.January, time.February:
		return Winter
	case time.March, time.April, time.May:
		return Spring
	case time.June, time.July, time.August:
		return Summer
	default:
		return Autumn
	}
}

// Of returns the season t falls in.
func Of(t time.Time) Season {
	return FromMonth(t.Month())
}

// Parse normalizes a season name. "fall" is accepted as autumn.
func Parse(s string) (Season, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "spring":
		return Spring, nil
	case "summer":
		return Summer, nil
	case "autumn", "fall":
		return Autumn, nil
	case "winter":
		return Winter, nil
	}
	return "", ErrUnknownSeason
}

// Index returns the position of s in Order, or -1.
func Index(s Season) int {
	for i, o := range Order {
		if o == s {
			return i
		}
	}
	return -1
}

func (s Season) String() string { return string(s) }
