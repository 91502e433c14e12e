package validation

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidateCity_Empty(t *testing.T) {
	for _, in := range []string{"", "   ", "\t"} {
		_, err := ValidateCity(in)
		if !errors.Is(err, ErrCityEmpty) {
			t.Errorf("ValidateCity(%q) error = %v, want ErrCityEmpty", in, err)
		}
	}
}

func TestValidateCity_TooLong(t *testing.T) {
	_, err := ValidateCity(strings.Repeat("a", MaxCityLen+1))
	if !errors.Is(err, ErrCityTooLong) {
		t.Errorf("error = %v, want ErrCityTooLong", err)
	}
	if _, err := ValidateCity(strings.Repeat("ж", MaxCityLen)); err != nil {
		t.Errorf("100 runes should be accepted, got %v", err)
	}
}

func TestValidateCity_InvalidChars(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"slash", "sea/ttle"},
		{"question", "sea?ttle"},
		{"hash", "sea#ttle"},
		{"control", "sea\x00ttle"},
		{"percent", "sea%ttle"},
		{"ampersand", "sea&ttle"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateCity(tc.input)
			if !errors.Is(err, ErrCityInvalidChars) {
				t.Errorf("error = %v, want ErrCityInvalidChars", err)
			}
		})
	}
}

func TestValidateCity_Valid(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Moscow", "Moscow"},
		{"New York", "New York"},
		{"London,uk", "London,uk"},
		{"Rio de Janeiro", "Rio de Janeiro"},
		{"Saint-Petersburg", "Saint-Petersburg"},
		{"St. John's", "St. John's"},
		{"  Berlin  ", "Berlin"},
		{"Zürich", "Zürich"},
		{"Москва", "Москва"},
	}
	for _, tc := range tests {
		got, err := ValidateCity(tc.input)
		if err != nil {
			t.Errorf("ValidateCity(%q) error = %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ValidateCity(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestValidateToken(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"valid", "0123456789abcdef0123456789abcdef", "0123456789abcdef0123456789abcdef", nil},
		{"trimmed", "  abc123  ", "abc123", nil},
		{"empty", "", "", ErrTokenEmpty},
		{"whitespace only", "   ", "", ErrTokenEmpty},
		{"inner space", "abc 123", "", ErrTokenInvalid},
		{"too long", strings.Repeat("a", MaxTokenLen+1), "", ErrTokenTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateToken(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ValidateToken() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateFilter_Valid(t *testing.T) {
	f, err := ValidateFilter(FilterQuery{
		Cities: []string{" Moscow ", "", "Berlin"},
		From:   "2020-01-01",
		To:     "2020-12-31",
	})
	if err != nil {
		t.Fatalf("ValidateFilter() error = %v", err)
	}
	if len(f.Cities) != 2 || f.Cities[0] != "Moscow" || f.Cities[1] != "Berlin" {
		t.Errorf("Cities = %v, want [Moscow Berlin]", f.Cities)
	}
	if !f.From.Equal(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("From = %v", f.From)
	}
	if !f.To.Equal(time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("To = %v", f.To)
	}
}

func TestValidateFilter_EmptyIsUnbounded(t *testing.T) {
	f, err := ValidateFilter(FilterQuery{})
	if err != nil {
		t.Fatalf("ValidateFilter() error = %v", err)
	}
	if !f.From.IsZero() || !f.To.IsZero() || len(f.Cities) != 0 {
		t.Errorf("ValidateFilter() = %+v, want zero filter", f)
	}
}

func TestValidateFilter_Invalid(t *testing.T) {
	many := make([]string, MaxFilterLen+1)
	for i := range many {
		many[i] = "City"
	}
	tests := []struct {
		name    string
		q       FilterQuery
		wantMsg string
	}{
		{"bad from", FilterQuery{From: "01.02.2020"}, "from must be a date"},
		{"bad to", FilterQuery{To: "2020-13-01"}, "to must be a date"},
		{"reversed", FilterQuery{From: "2021-01-01", To: "2020-01-01"}, "from must not be after to"},
		{"too many cities", FilterQuery{Cities: many}, "at most 50 cities"},
		{"long city", FilterQuery{Cities: []string{strings.Repeat("a", MaxCityLen+1)}}, "at most 100 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateFilter(tt.q)
			if !errors.Is(err, ErrInvalidFilter) {
				t.Fatalf("error = %v, want ErrInvalidFilter", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %q, want substring %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestValidateUpload(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		size     int64
		max      int64
		wantErr  error
	}{
		{"ok", "temperature_data.csv", 1024, 1 << 20, nil},
		{"upper ext", "DATA.CSV", 10, 100, nil},
		{"no limit", "data.csv", 1 << 30, 0, nil},
		{"wrong ext", "data.xlsx", 10, 100, ErrUploadExtension},
		{"no ext", "data", 10, 100, ErrUploadExtension},
		{"empty", "data.csv", 0, 100, ErrUploadEmpty},
		{"too large", "data.csv", 101, 100, ErrUploadTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUpload(tt.filename, tt.size, tt.max)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateUpload() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
