package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/observability"
)

// WeatherClient checks credentials and fetches current conditions. The
// credential is supplied per call because every dashboard session brings its own.
type WeatherClient interface {
	ValidateToken(ctx context.Context, token string) error
	GetCurrentWeather(ctx context.Context, token, city string) (models.WeatherData, error)
}

var (
	ErrInvalidAPIKey    = errors.New("invalid API key")
	ErrLocationNotFound = errors.New("location not found")
	ErrUpstreamFailure  = errors.New("upstream failure")
	ErrRateLimited      = errors.New("rate limited")
)

// DefaultProbeCity is queried when checking a credential.
const DefaultProbeCity = "Moscow"

const (
	opValidateToken  = "validate_token"
	opCurrentWeather = "current_weather"
)

// OpenWeatherClient issues exactly one GET per call against the OpenWeatherMap
// current weather endpoint. There is no retry.
type OpenWeatherClient struct {
	apiURL    string
	probeCity string
	client    *http.Client
	timeout   time.Duration
}

// NewOpenWeatherClient returns a client for apiURL. probeCity defaults to DefaultProbeCity.
func NewOpenWeatherClient(apiURL string, timeout time.Duration, probeCity string) (*OpenWeatherClient, error) {
	u, err := url.Parse(apiURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API URL %q", apiURL)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive")
	}
	if strings.TrimSpace(probeCity) == "" {
		probeCity = DefaultProbeCity
	}
	return &OpenWeatherClient{
		apiURL:    apiURL,
		probeCity: probeCity,
		timeout:   timeout,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type openWeatherResponse struct {
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Name string `json:"name"`
}

// ValidateToken reports whether the credential is accepted: nil on HTTP 200,
// otherwise an error wrapping ErrInvalidAPIKey (401) or ErrUpstreamFailure.
func (c *OpenWeatherClient) ValidateToken(ctx context.Context, token string) error {
	resp, err := c.do(ctx, opValidateToken, token, c.probeCity)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return classifyStatus(resp.StatusCode)
	}
	return nil
}

// GetCurrentWeather fetches current conditions for city in metric units.
func (c *OpenWeatherClient) GetCurrentWeather(ctx context.Context, token, city string) (models.WeatherData, error) {
	resp, err := c.do(ctx, opCurrentWeather, token, city)
	if err != nil {
		return models.WeatherData{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.WeatherData{}, classifyStatus(resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.WeatherData{}, fmt.Errorf("read response body: %w", err)
	}

	var apiResp openWeatherResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return models.WeatherData{}, fmt.Errorf("parse response: %w", err)
	}
	return mapResponse(apiResp, city), nil
}

// do sends the request and records call metrics. Callers own resp.Body.
func (c *OpenWeatherClient) do(ctx context.Context, op, token, city string) (*http.Response, error) {
	start := time.Now()

	req, err := c.buildRequest(ctx, token, city)
	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues(op, "error").Inc()
		return nil, fmt.Errorf("build request: %w", err)
	}
	if corrID := observability.CorrelationID(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := c.client.Do(req)
	duration := time.Since(start).Seconds()
	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues(op, "error").Inc()
		observability.WeatherAPIDuration.WithLabelValues(op, "error").Observe(duration)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			err = fmt.Errorf("request timeout: %w", err)
		} else {
			err = fmt.Errorf("http request failed: %w", err)
		}
		observability.WeatherAPIErrorsTotal.WithLabelValues(string(CategorizeError(err))).Inc()
		return nil, err
	}

	status := statusLabel(resp.StatusCode)
	observability.WeatherAPICallsTotal.WithLabelValues(op, status).Inc()
	observability.WeatherAPIDuration.WithLabelValues(op, status).Observe(duration)
	if resp.StatusCode != http.StatusOK {
		observability.WeatherAPIErrorsTotal.WithLabelValues(string(CategorizeError(classifyStatus(resp.StatusCode)))).Inc()
	}
	return resp, nil
}

func (c *OpenWeatherClient) buildRequest(ctx context.Context, token, city string) (*http.Request, error) {
	baseURL, err := url.Parse(c.apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}

	params := url.Values{}
	params.Set("q", city)
	params.Set("appid", token)
	params.Set("units", "metric")
	baseURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// classifyStatus maps a non-200 status to a sentinel error.
func classifyStatus(code int) error {
	switch code {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: HTTP %d", ErrInvalidAPIKey, code)
	case http.StatusNotFound:
		return fmt.Errorf("%w: HTTP %d", ErrLocationNotFound, code)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: HTTP %d", ErrRateLimited, code)
	default:
		return fmt.Errorf("%w: HTTP %d", ErrUpstreamFailure, code)
	}
}

func mapResponse(apiResp openWeatherResponse, city string) models.WeatherData {
	description := ""
	if len(apiResp.Weather) > 0 {
		description = apiResp.Weather[0].Main
		if apiResp.Weather[0].Description != "" {
			description = apiResp.Weather[0].Description
		}
	}

	name := apiResp.Name
	if name == "" {
		name = city
	}

	return models.WeatherData{
		City:        name,
		Temperature: apiResp.Main.Temp,
		FeelsLike:   apiResp.Main.FeelsLike,
		Humidity:    apiResp.Main.Humidity,
		Description: description,
		Timestamp:   time.Now().UTC(),
	}
}

func statusLabel(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "success"
	case statusCode == http.StatusTooManyRequests:
		return "rate_limited"
	case statusCode >= 400 && statusCode < 500:
		return "client_error"
	case statusCode >= 500:
		return "server_error"
	}
	return "error"
}
