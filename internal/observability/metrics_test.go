package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestMetrics_Usable verifies label dimensions match usage in client, http and dashboard.
func TestMetrics_Usable(t *testing.T) {
	HTTPRequestsTotal.WithLabelValues("GET", "/", "2xx").Inc()
	HTTPRequestDuration.WithLabelValues("GET", "/charts").Observe(0.01)
	WeatherAPICallsTotal.WithLabelValues("current_weather", "success").Inc()
	WeatherAPIDuration.WithLabelValues("validate_token", "client_error").Observe(0.1)
	WeatherAPIErrorsTotal.WithLabelValues("location_not_found").Inc()
	TokenChecksTotal.WithLabelValues("valid").Inc()
	DatasetUploadsTotal.WithLabelValues("accepted").Inc()
	DatasetRows.Observe(365)
	OutliersFlaggedTotal.Add(3)
	AnalysesTotal.WithLabelValues("page").Inc()
	SessionStoreErrorsTotal.WithLabelValues("get").Inc()
}

func TestSetTrackedCities_and_RecordWeatherQuery(t *testing.T) {
	SetTrackedCities([]string{"Moscow", "berlin"})
	defer SetTrackedCities(nil)

	if got := MetricCityLabel(" MOSCOW "); got != "moscow" {
		t.Errorf("MetricCityLabel() = %q, want moscow", got)
	}
	if got := MetricCityLabel("Atlantis"); got != "other" {
		t.Errorf("MetricCityLabel() = %q, want other", got)
	}
	RecordWeatherQuery("Berlin")
	RecordWeatherQuery("Atlantis")
}

func TestMetricsHandler_ServesPrometheusFormat(t *testing.T) {
	HTTPRequestsTotal.WithLabelValues("GET", "/health", "2xx").Inc()

	handler := MetricsHandler()
	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("MetricsHandler status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "httpRequestsTotal") {
		t.Error("MetricsHandler response should contain metric output")
	}
}
