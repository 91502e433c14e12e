//go:build integration
// +build integration

package testhelpers

import (
	"os"
	"testing"
	"time"

	"github.com/kjstillabower/weather-dashboard/internal/client"
	"github.com/kjstillabower/weather-dashboard/internal/dashboard"
	"github.com/kjstillabower/weather-dashboard/internal/session"
)

// IntegrationTestConfig holds configuration for integration tests.
type IntegrationTestConfig struct {
	Token          string
	APIURL         string
	SessionBackend string // "in_memory" or "memcached"
	MemcachedAddr  string
}

// GetIntegrationConfig loads integration test configuration from environment.
// Skips test if WEATHER_API_KEY is not set.
func GetIntegrationConfig(t *testing.T) IntegrationTestConfig {
	t.Helper()
	token := os.Getenv("WEATHER_API_KEY")
	if token == "" {
		t.Skip("WEATHER_API_KEY not set, skipping integration test")
	}

	apiURL := os.Getenv("WEATHER_API_URL")
	if apiURL == "" {
		apiURL = "https://api.openweathermap.org/data/2.5/weather"
	}

	memcachedAddr := os.Getenv("MEMCACHED_ADDRS")
	if memcachedAddr == "" {
		memcachedAddr = "localhost:11211"
	}

	return IntegrationTestConfig{
		Token:          token,
		APIURL:         apiURL,
		SessionBackend: os.Getenv("INTEGRATION_SESSION_BACKEND"),
		MemcachedAddr:  memcachedAddr,
	}
}

// SetupIntegrationClient creates a weather client against the live API.
func SetupIntegrationClient(t *testing.T, cfg IntegrationTestConfig) client.WeatherClient {
	t.Helper()
	c, err := client.NewOpenWeatherClient(cfg.APIURL, 5*time.Second, "")
	if err != nil {
		t.Fatalf("NewOpenWeatherClient() error = %v", err)
	}
	return c
}

// SetupIntegrationStore returns the configured session store. Memcached falls
// back to in-memory when unreachable.
func SetupIntegrationStore(t *testing.T, cfg IntegrationTestConfig) session.Store {
	t.Helper()
	if cfg.SessionBackend == "memcached" {
		store, err := session.NewMemcachedStore(cfg.MemcachedAddr, time.Hour, 500*time.Millisecond, 2)
		if err == nil {
			t.Cleanup(func() { _ = store.Close() })
			t.Logf("Using Memcached session store at %s", cfg.MemcachedAddr)
			return store
		}
		t.Logf("Memcached not available (%v), using in-memory store", err)
	}
	return session.NewInMemoryStore(time.Hour)
}

// SetupIntegrationService wires a dashboard service on the live client and configured store.
func SetupIntegrationService(t *testing.T, cfg IntegrationTestConfig) *dashboard.Service {
	t.Helper()
	return dashboard.NewService(SetupIntegrationClient(t, cfg), SetupIntegrationStore(t, cfg), 0)
}
