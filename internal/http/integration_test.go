//go:build integration
// +build integration

package http

import (
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-dashboard/internal/testhelpers"
)

func setupIntegrationServer(t *testing.T) (*httptest.Server, *http.Client, string) {
	t.Helper()
	cfg := testhelpers.GetIntegrationConfig(t)
	svc := testhelpers.SetupIntegrationService(t, cfg)

	logger := zap.NewNop()
	h := NewHandler(svc, HandlerConfig{UploadMaxBytes: 1 << 20}, logger)
	router := NewRouter(h, RouterConfig{
		CookieName:     testCookie,
		SessionTTL:     time.Hour,
		RequestTimeout: 10 * time.Second,
	}, logger)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	jar, _ := cookiejar.New(nil)
	c := &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return srv, c, cfg.Token
}

func TestIntegration_TokenAndCity(t *testing.T) {
	srv, c, token := setupIntegrationServer(t)

	resp, err := c.PostForm(srv.URL+"/token", url.Values{"token": {token}})
	if err != nil {
		t.Fatalf("POST /token: %v", err)
	}
	resp.Body.Close()
	if loc := resp.Header.Get("Location"); strings.Contains(loc, "error=") {
		t.Fatalf("token rejected: Location = %s", loc)
	}

	resp, err = c.PostForm(srv.URL+"/city", url.Values{"city": {"london"}})
	if err != nil {
		t.Fatalf("POST /city: %v", err)
	}
	resp.Body.Close()
	if loc := resp.Header.Get("Location"); strings.Contains(loc, "error=") {
		t.Fatalf("lookup failed: Location = %s", loc)
	}

	resp, err = c.Get(srv.URL + "/analysis")
	if err != nil {
		t.Fatalf("GET /analysis: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestIntegration_InvalidToken(t *testing.T) {
	srv, c, _ := setupIntegrationServer(t)

	resp, err := c.PostForm(srv.URL+"/token", url.Values{"token": {"definitely-not-a-key"}})
	if err != nil {
		t.Fatalf("POST /token: %v", err)
	}
	resp.Body.Close()
	if loc := resp.Header.Get("Location"); !strings.Contains(loc, "error="+errTokenInvalid) {
		t.Errorf("Location = %s, want error=%s", loc, errTokenInvalid)
	}
}

func TestIntegration_UnknownCity(t *testing.T) {
	srv, c, token := setupIntegrationServer(t)

	resp, err := c.PostForm(srv.URL+"/token", url.Values{"token": {token}})
	if err != nil {
		t.Fatalf("POST /token: %v", err)
	}
	resp.Body.Close()

	resp, err = c.PostForm(srv.URL+"/city", url.Values{"city": {"Qwertyuiopasdfgh"}})
	if err != nil {
		t.Fatalf("POST /city: %v", err)
	}
	resp.Body.Close()
	if loc := resp.Header.Get("Location"); !strings.Contains(loc, "error="+errWeather) {
		t.Errorf("Location = %s, want error=%s", loc, errWeather)
	}
}
