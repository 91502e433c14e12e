// Package session keeps per-browser dashboard state: the credential, the last
// city lookup and the uploaded dataset.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/kjstillabower/weather-dashboard/internal/models"
)

// ErrInvalidID is returned for empty session IDs.
var ErrInvalidID = errors.New("invalid session id")

// DefaultTTL applies when a store is created with a non-positive TTL.
const DefaultTTL = 2 * time.Hour

// Session is the state one browser accumulates across dashboard actions.
type Session struct {
	Token          string               `json:"token,omitempty"`
	TokenPassed    bool                 `json:"tokenPassed"`
	CityName       string               `json:"cityName,omitempty"`
	WeatherChecked bool                 `json:"weatherChecked"`
	Weather        *models.WeatherData  `json:"weather,omitempty"`
	DatasetName    string               `json:"datasetName,omitempty"`
	Observations   []models.Observation `json:"observations,omitempty"`
	UpdatedAt      time.Time            `json:"updatedAt"`
}

// HasDataset reports whether an upload has been accepted.
func (s *Session) HasDataset() bool {
	return s != nil && len(s.Observations) > 0
}

// ClearWeather forgets the last lookup.
func (s *Session) ClearWeather() {
	s.WeatherChecked = false
	s.Weather = nil
}

// Store persists sessions by ID. Get returns (nil, false, nil) on a miss.
// Set refreshes the entry's TTL.
type Store interface {
	Get(ctx context.Context, id string) (*Session, bool, error)
	Set(ctx context.Context, id string, s *Session) error
	Delete(ctx context.Context, id string) error
}

// Load returns the stored session for id, or a fresh one on a miss.
func Load(ctx context.Context, store Store, id string) (*Session, error) {
	s, ok, err := store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Session{}, nil
	}
	return s, nil
}
