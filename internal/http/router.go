package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/weather-dashboard/internal/observability"
)

// RouterConfig wires middleware settings into NewRouter.
type RouterConfig struct {
	CookieName     string
	SessionTTL     time.Duration
	RequestTimeout time.Duration
	// Limiter throttles routes that call the weather API. Nil disables it.
	Limiter *rate.Limiter
}

// NewRouter registers every dashboard route on a gorilla/mux router.
func NewRouter(h *Handler, cfg RouterConfig, logger *zap.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)
	router.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)

	app := router.PathPrefix("/").Subrouter()
	app.Use(SessionMiddleware(cfg.CookieName, cfg.SessionTTL))
	app.Use(TimeoutMiddleware(cfg.RequestTimeout))
	app.HandleFunc("/", h.GetDashboard).Methods(http.MethodGet)
	app.HandleFunc("/charts", h.GetCharts).Methods(http.MethodGet)
	app.HandleFunc("/analysis", h.GetAnalysis).Methods(http.MethodGet)
	app.HandleFunc("/download/{format}", h.GetDownload).Methods(http.MethodGet)
	app.HandleFunc("/upload", h.PostUpload).Methods(http.MethodPost)

	upstream := app.NewRoute().Subrouter()
	upstream.Use(RateLimitMiddleware(cfg.Limiter))
	upstream.HandleFunc("/token", h.PostToken).Methods(http.MethodPost)
	upstream.HandleFunc("/city", h.PostCity).Methods(http.MethodPost)
	return router
}
