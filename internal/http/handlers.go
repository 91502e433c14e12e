package http

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-dashboard/internal/chart"
	"github.com/kjstillabower/weather-dashboard/internal/dashboard"
	"github.com/kjstillabower/weather-dashboard/internal/lifecycle"
	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/observability"
	"github.com/kjstillabower/weather-dashboard/internal/validation"
)

//go:embed templates/*.html
var templateFS embed.FS

// previewRows caps how many rows of each table the page renders.
const previewRows = 200

// multipartOverhead is allowed on top of the file size limit for form fields and boundaries.
const multipartOverhead = 1 << 20

// Error codes carried in the redirect query after a failed form action.
const (
	errTokenInvalid   = "token_invalid"
	errTokenMalformed = "token_malformed"
	errTokenUnchecked = "token_unchecked"
	errTokenRequired  = "token_required"
	errWeather        = "weather"
	errUpload         = "upload"
	errSession        = "session"
)

var errorMessages = map[string]string{
	errTokenInvalid:   "Your token was rejected by OpenWeatherMap.",
	errTokenMalformed: "Enter a token without spaces.",
	errTokenUnchecked: "Could not reach OpenWeatherMap to check the token. Please try again.",
	errTokenRequired:  "Enter a valid token first.",
	errWeather:        dashboard.WeatherUnavailableMessage,
	errUpload:         "Could not read the dataset.",
	errSession:        "Your session could not be saved. Please try again.",
}

// HandlerConfig holds the limits handlers enforce.
type HandlerConfig struct {
	UploadMaxBytes int64
	// SessionPing, when set, is called to check session store reachability. Used when backend is memcached.
	SessionPing func() error
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	svc    *dashboard.Service
	cfg    HandlerConfig
	logger *zap.Logger
	page   *template.Template

	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler.
func NewHandler(svc *dashboard.Service, cfg HandlerConfig, logger *zap.Logger) *Handler {
	page := template.Must(template.New("dashboard.html").Funcs(templateFuncs).ParseFS(templateFS, "templates/dashboard.html"))
	return &Handler{svc: svc, cfg: cfg, logger: logger, page: page}
}

var templateFuncs = template.FuncMap{
	"capitalize": dashboard.Capitalize,
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(validation.DateLayout)
	},
	"datetime": func(t time.Time) string { return t.Format("2006-01-02 15:04:05") },
	"num": func(v float64) string {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ""
		}
		return strconv.FormatFloat(v, 'f', 2, 64)
	},
	"num1": func(v float64) string {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "n/a"
		}
		return strconv.FormatFloat(v, 'f', 1, 64)
	},
	"contains": func(list []string, s string) bool {
		for _, v := range list {
			if v == s {
				return true
			}
		}
		return false
	},
}

// parseFilter validates the city/from/to query parameters.
func parseFilter(q url.Values) (validation.Filter, error) {
	return validation.ValidateFilter(validation.FilterQuery{
		Cities: q["city"],
		From:   q.Get("from"),
		To:     q.Get("to"),
	})
}

// filterQuery keeps only the filter parameters of q.
func filterQuery(q url.Values) url.Values {
	out := url.Values{}
	for _, k := range []string{"city", "from", "to"} {
		if vs, ok := q[k]; ok {
			out[k] = vs
		}
	}
	return out
}

// redirectHome sends the browser back to the dashboard with the filter it
// came from and an optional error code.
func redirectHome(w http.ResponseWriter, r *http.Request, code, detail string) {
	var q url.Values
	if ret, err := url.ParseQuery(r.FormValue("return")); err == nil {
		q = filterQuery(ret)
	} else {
		q = url.Values{}
	}
	if code != "" {
		q.Set("error", code)
	}
	if detail != "" {
		q.Set("detail", detail)
	}
	target := "/"
	if enc := q.Encode(); enc != "" {
		target += "?" + enc
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

type pageData struct {
	*dashboard.View
	Error         string
	Detail        string
	Query         template.URL
	RawPreview    []models.EnrichedObservation
	FilteredRows  []models.EnrichedObservation
	PreviewLimit  int
	ChartsEnabled bool
}

func preview(rows []models.EnrichedObservation) []models.EnrichedObservation {
	if len(rows) > previewRows {
		return rows[:previewRows]
	}
	return rows
}

// GetDashboard handles GET /.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := pageData{
		Error:        errorMessages[q.Get("error")],
		Detail:       q.Get("detail"),
		PreviewLimit: previewRows,
	}

	f, err := parseFilter(q)
	if err != nil {
		data.Error = err.Error()
		f = validation.Filter{}
		q = url.Values{}
	}
	data.Query = template.URL(filterQuery(q).Encode())

	view, err := h.svc.Analyze(r.Context(), SessionID(r.Context()), f, "page")
	if err != nil {
		h.sessionError(w, r, err)
		return
	}
	data.View = view
	data.RawPreview = preview(view.Raw)
	data.FilteredRows = preview(view.Filtered)
	data.ChartsEnabled = view.ShowScatter

	var buf bytes.Buffer
	if err := h.page.Execute(&buf, data); err != nil {
		observability.LoggerFromContext(r.Context()).Error("render dashboard", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "RENDER_FAILED", "Unable to render dashboard")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// PostToken handles POST /token.
func (h *Handler) PostToken(w http.ResponseWriter, r *http.Request) {
	passed, err := h.svc.CheckToken(r.Context(), SessionID(r.Context()), r.FormValue("token"))
	switch {
	case err == nil && passed:
		redirectHome(w, r, "", "")
	case err == nil:
		redirectHome(w, r, errTokenInvalid, "")
	case isValidationError(err):
		redirectHome(w, r, errTokenMalformed, "")
	case isSessionError(err):
		redirectHome(w, r, errSession, "")
	default:
		redirectHome(w, r, errTokenUnchecked, "")
	}
}

// PostCity handles POST /city.
func (h *Handler) PostCity(w http.ResponseWriter, r *http.Request) {
	_, err := h.svc.LookupCity(r.Context(), SessionID(r.Context()), r.FormValue("city"))
	switch {
	case err == nil:
		redirectHome(w, r, "", "")
	case errors.Is(err, dashboard.ErrTokenRequired):
		redirectHome(w, r, errTokenRequired, "")
	case errors.Is(err, dashboard.ErrWeatherUnavailable):
		redirectHome(w, r, errWeather, "")
	default:
		redirectHome(w, r, errSession, "")
	}
}

// PostUpload handles POST /upload (multipart field "file").
func (h *Handler) PostUpload(w http.ResponseWriter, r *http.Request) {
	logger := observability.LoggerFromContext(r.Context())
	if h.cfg.UploadMaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.cfg.UploadMaxBytes+multipartOverhead)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		observability.DatasetUploadsTotal.WithLabelValues("rejected").Inc()
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			redirectHome(w, r, errUpload, validation.ErrUploadTooLarge.Error())
			return
		}
		redirectHome(w, r, errUpload, "expected a multipart form with a file")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		observability.DatasetUploadsTotal.WithLabelValues("rejected").Inc()
		redirectHome(w, r, errUpload, "no file selected")
		return
	}
	defer file.Close()

	if err := validation.ValidateUpload(header.Filename, header.Size, h.cfg.UploadMaxBytes); err != nil {
		observability.DatasetUploadsTotal.WithLabelValues("rejected").Inc()
		redirectHome(w, r, errUpload, err.Error())
		return
	}

	if _, err := h.svc.LoadDataset(r.Context(), SessionID(r.Context()), header.Filename, file); err != nil {
		if errors.Is(err, dashboard.ErrTokenRequired) {
			redirectHome(w, r, errTokenRequired, "")
			return
		}
		if isSessionError(err) {
			redirectHome(w, r, errSession, "")
			return
		}
		logger.Debug("upload rejected", zap.Error(err))
		redirectHome(w, r, errUpload, err.Error())
		return
	}
	redirectHome(w, r, "", "")
}

// GetCharts handles GET /charts.
func (h *Handler) GetCharts(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_FILTER", err.Error())
		return
	}
	view, err := h.svc.Analyze(r.Context(), SessionID(r.Context()), f, "charts")
	if err != nil {
		h.sessionError(w, r, err)
		return
	}

	var buf bytes.Buffer
	err = chart.RenderPage(&buf, chart.Input{
		Filtered:    view.Filtered,
		Profile:     view.Profile,
		Seasons:     view.Seasons,
		ShowScatter: view.ShowScatter,
		ShowRolling: view.ShowRolling,
	})
	if err != nil {
		observability.LoggerFromContext(r.Context()).Error("render charts", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "RENDER_FAILED", "Unable to render charts")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// GetAnalysis handles GET /analysis.
func (h *Handler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_FILTER", err.Error())
		return
	}
	view, err := h.svc.Analyze(r.Context(), SessionID(r.Context()), f, "analysis")
	if err != nil {
		h.sessionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// GetDownload handles GET /download/{format}.
func (h *Handler) GetDownload(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_FILTER", err.Error())
		return
	}
	file, err := h.svc.Export(r.Context(), SessionID(r.Context()), f, mux.Vars(r)["format"])
	switch {
	case errors.Is(err, dashboard.ErrUnsupportedFormat):
		writeError(w, r, http.StatusNotFound, "UNSUPPORTED_FORMAT", "format must be csv or xlsx")
		return
	case errors.Is(err, dashboard.ErrTokenRequired):
		writeError(w, r, http.StatusForbidden, "TOKEN_REQUIRED", "check a valid token first")
		return
	case errors.Is(err, dashboard.ErrNoDataset):
		writeError(w, r, http.StatusNotFound, "NO_DATASET", "upload a dataset first")
		return
	case err != nil:
		h.sessionError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+file.Name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	_, _ = w.Write(file.Data)
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	status, statusCode := "healthy", http.StatusOK
	checks := map[string]string{}
	if h.cfg.SessionPing != nil {
		if err := h.cfg.SessionPing(); err != nil {
			checks["sessionStore"] = "unhealthy"
			status, statusCode = "degraded", http.StatusServiceUnavailable
		} else {
			checks["sessionStore"] = "healthy"
		}
	}
	if lifecycle.IsShuttingDown() {
		status, statusCode = "shutting-down", http.StatusServiceUnavailable
	}

	h.healthStatusMu.Lock()
	if prev := h.healthStatusPrev; prev != "" && prev != status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", status))
	}
	h.healthStatusPrev = status
	h.healthStatusMu.Unlock()

	writeJSON(w, statusCode, map[string]interface{}{
		"status":        status,
		"service":       "weather-dashboard",
		"version":       "dev",
		"checks":        checks,
		"uptimeSeconds": int64(lifecycle.Uptime().Seconds()),
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) sessionError(w http.ResponseWriter, r *http.Request, err error) {
	observability.LoggerFromContext(r.Context()).Error("session unavailable", zap.Error(err))
	writeError(w, r, http.StatusServiceUnavailable, "SESSION_UNAVAILABLE", "Session store unavailable")
}

func isValidationError(err error) bool {
	return errors.Is(err, validation.ErrTokenEmpty) ||
		errors.Is(err, validation.ErrTokenTooLong) ||
		errors.Is(err, validation.ErrTokenInvalid)
}

func isSessionError(err error) bool {
	return errors.Is(err, dashboard.ErrSessionUnavailable)
}
