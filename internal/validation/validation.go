package validation

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	ErrCityEmpty        = errors.New("city is required")
	ErrCityTooLong      = errors.New("city too long")
	ErrCityInvalidChars = errors.New("city contains invalid characters")

	ErrTokenEmpty   = errors.New("token is required")
	ErrTokenTooLong = errors.New("token too long")
	ErrTokenInvalid = errors.New("token contains whitespace")

	ErrInvalidFilter = errors.New("invalid filter")

	ErrUploadExtension = errors.New("only .csv files are accepted")
	ErrUploadTooLarge  = errors.New("file too large")
	ErrUploadEmpty     = errors.New("file is empty")
)

const (
	MaxCityLen   = 100
	MaxTokenLen  = 128
	MaxFilterLen = 50

	// DateLayout is the query format for filter dates.
	DateLayout = "2006-01-02"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateCity trims the input, enforces 1..MaxCityLen runes and restricts to
// letters (Unicode), digits, space, comma, hyphen, apostrophe and period.
// Returns the trimmed string.
func ValidateCity(input string) (string, error) {
	s := strings.TrimSpace(input)
	r := []rune(s)
	if len(r) == 0 {
		return "", ErrCityEmpty
	}
	if len(r) > MaxCityLen {
		return "", ErrCityTooLong
	}
	for _, c := range r {
		if !isAllowedCityRune(c) {
			return "", ErrCityInvalidChars
		}
	}
	return s, nil
}

func isAllowedCityRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsNumber(r) {
		return true
	}
	switch r {
	case ' ', ',', '-', '\'', '.':
		return true
	}
	return false
}

// ValidateToken trims the credential and rejects empty, oversized or
// whitespace-containing values.
func ValidateToken(input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", ErrTokenEmpty
	}
	if len(s) > MaxTokenLen {
		return "", ErrTokenTooLong
	}
	if strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return "", ErrTokenInvalid
	}
	return s, nil
}

// FilterQuery is the raw dashboard filter as received in the query string.
type FilterQuery struct {
	Cities []string `validate:"max=50,dive,required,max=100"`
	From   string   `validate:"omitempty,datetime=2006-01-02"`
	To     string   `validate:"omitempty,datetime=2006-01-02"`
}

// Filter is a validated FilterQuery. Zero From/To mean unbounded.
type Filter struct {
	Cities []string
	From   time.Time
	To     time.Time
}

// ValidateFilter checks q and parses its dates. Errors wrap ErrInvalidFilter.
func ValidateFilter(q FilterQuery) (Filter, error) {
	cities := make([]string, 0, len(q.Cities))
	for _, c := range q.Cities {
		if c = strings.TrimSpace(c); c != "" {
			cities = append(cities, c)
		}
	}
	q.Cities = cities
	q.From = strings.TrimSpace(q.From)
	q.To = strings.TrimSpace(q.To)

	if err := validate.Struct(q); err != nil {
		return Filter{}, fmt.Errorf("%w: %s", ErrInvalidFilter, describe(err))
	}

	f := Filter{Cities: cities}
	if q.From != "" {
		f.From, _ = time.Parse(DateLayout, q.From)
	}
	if q.To != "" {
		f.To, _ = time.Parse(DateLayout, q.To)
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return Filter{}, fmt.Errorf("%w: from must not be after to", ErrInvalidFilter)
	}
	return f, nil
}

// describe flattens validator errors into a short message naming the first failing field.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "datetime":
			return fmt.Sprintf("%s must be a date in YYYY-MM-DD format", strings.ToLower(fe.Field()))
		case "max":
			if fe.Field() == "Cities" {
				return fmt.Sprintf("at most %d cities may be selected", MaxFilterLen)
			}
			return fmt.Sprintf("city must be at most %d characters", MaxCityLen)
		}
		return fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag())
	}
	return err.Error()
}

// ValidateUpload checks the uploaded file name and size against maxBytes.
// maxBytes <= 0 disables the size check.
func ValidateUpload(filename string, size, maxBytes int64) error {
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		return ErrUploadExtension
	}
	if size == 0 {
		return ErrUploadEmpty
	}
	if maxBytes > 0 && size > maxBytes {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrUploadTooLarge, size, maxBytes)
	}
	return nil
}
