package season

import (
	"errors"
	"testing"
	"time"
)

func TestFromMonth(t *testing.T) {
	tests := []struct {
		month time.Month
		want  Season
	}{
		{time.January, Winter},
		{time.February, Winter},
		{time.March, Spring},
		{time.May, Spring},
		{time.June, Summer},
		{time.August, Summer},
		{time.September, Autumn},
		{time.November, Autumn},
		{time.December, Winter},
	}
	for _, tt := range tests {
		if got := FromMonth(tt.month); got != tt.want {
			t.Errorf("FromMonth(%v) = %q, want %q", tt.month, got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Season
		wantErr error
	}{
		{"winter", Winter, nil},
		{" Summer ", Summer, nil},
		{"AUTUMN", Autumn, nil},
		{"fall", Autumn, nil},
		{"monsoon", "", ErrUnknownSeason},
		{"", "", ErrUnknownSeason},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("Parse(%q) error = %v, want %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIndex(t *testing.T) {
	if got := Index(Spring); got != 0 {
		t.Errorf("Index(Spring) = %d, want 0", got)
	}
	if got := Index(Winter); got != 3 {
		t.Errorf("Index(Winter) = %d, want 3", got)
	}
	if got := Index(Season("x")); got != -1 {
		t.Errorf("Index(x) = %d, want -1", got)
	}
}
