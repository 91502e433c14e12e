// Package dashboard implements the dashboard actions: credential check, city
// lookup, dataset upload, analysis and export.
package dashboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kjstillabower/weather-dashboard/internal/client"
	"github.com/kjstillabower/weather-dashboard/internal/dataset"
	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/observability"
	"github.com/kjstillabower/weather-dashboard/internal/session"
	"github.com/kjstillabower/weather-dashboard/internal/validation"
)

var (
	// ErrTokenRequired is returned when a lookup, upload or export is attempted
	// before a credential passed.
	ErrTokenRequired = errors.New("a valid token is required")
	// ErrWeatherUnavailable wraps any failed city lookup.
	ErrWeatherUnavailable = errors.New("weather unavailable")
	// ErrNoDataset is returned when an export is requested before an upload.
	ErrNoDataset = errors.New("no dataset uploaded")
	// ErrUnsupportedFormat is returned for export formats other than csv and xlsx.
	ErrUnsupportedFormat = errors.New("unsupported export format")
	// ErrSessionUnavailable wraps session store failures.
	ErrSessionUnavailable = errors.New("session unavailable")
)

// WeatherUnavailableMessage is shown inline after a failed city lookup.
const WeatherUnavailableMessage = "Could not fetch weather data. Please check the city name."

// saveTimeout bounds a session write made after the request context may have expired.
const saveTimeout = 2 * time.Second

// Export formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// sessionLockStripes is the number of mutexes session writes are spread over.
const sessionLockStripes = 64

// Service runs dashboard actions against per-session state. Actions that
// modify a session hold its stripe lock from load to save, so concurrent
// requests from one browser apply in turn within this process.
type Service struct {
	client client.WeatherClient
	store  session.Store
	window int
	now    func() time.Time

	locks [sessionLockStripes]sync.Mutex
}

// NewService creates a Service. window <= 0 uses dataset.DefaultWindow.
func NewService(c client.WeatherClient, store session.Store, window int) *Service {
	if window <= 0 {
		window = dataset.DefaultWindow
	}
	return &Service{
		client: c,
		store:  store,
		window: window,
		now:    time.Now,
	}
}

// lock serializes writers of the session sid and returns the unlock func.
func (s *Service) lock(sid string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sid))
	mu := &s.locks[h.Sum32()%sessionLockStripes]
	mu.Lock()
	return mu.Unlock
}

func (s *Service) load(ctx context.Context, sid string) (*session.Session, error) {
	sess, err := session.Load(ctx, s.store, sid)
	if err != nil {
		observability.SessionStoreErrorsTotal.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: load: %w", ErrSessionUnavailable, err)
	}
	return sess, nil
}

func (s *Service) save(ctx context.Context, sid string, sess *session.Session) error {
	if err := s.store.Set(ctx, sid, sess); err != nil {
		observability.SessionStoreErrorsTotal.WithLabelValues("set").Inc()
		return fmt.Errorf("%w: save: %w", ErrSessionUnavailable, err)
	}
	return nil
}

// saveAfterUpstream stores sess even when ctx was cancelled or timed out during
// the upstream call, so the outcome of the call is never lost.
func (s *Service) saveAfterUpstream(ctx context.Context, sid string, sess *session.Session) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()
	return s.save(ctx, sid, sess)
}

// CheckToken validates the credential against the weather API and stores the
// outcome. A rejected credential returns (false, nil); malformed input and
// transport failures also clear the flag but return an error.
func (s *Service) CheckToken(ctx context.Context, sid, token string) (bool, error) {
	logger := observability.LoggerFromContext(ctx)
	defer s.lock(sid)()
	sess, err := s.load(ctx, sid)
	if err != nil {
		return false, err
	}

	clean, verr := validation.ValidateToken(token)
	sess.Token = clean
	sess.TokenPassed = false
	if verr != nil {
		observability.TokenChecksTotal.WithLabelValues("malformed").Inc()
		if err := s.save(ctx, sid, sess); err != nil {
			return false, err
		}
		return false, verr
	}

	checkErr := s.client.ValidateToken(ctx, clean)
	switch {
	case checkErr == nil:
		sess.TokenPassed = true
		observability.TokenChecksTotal.WithLabelValues("valid").Inc()
	case errors.Is(checkErr, client.ErrInvalidAPIKey):
		observability.TokenChecksTotal.WithLabelValues("invalid").Inc()
		checkErr = nil
	default:
		observability.TokenChecksTotal.WithLabelValues("error").Inc()
		logger.Warn("token check failed", zap.Error(checkErr))
	}

	if err := s.saveAfterUpstream(ctx, sid, sess); err != nil {
		return false, err
	}
	logger.Info("token checked", zap.Bool("passed", sess.TokenPassed))
	return sess.TokenPassed, checkErr
}

// LookupCity title-cases city, fetches its current weather with the session's
// credential and stores the result. Failures store weather_checked=false and
// return an error wrapping ErrWeatherUnavailable.
func (s *Service) LookupCity(ctx context.Context, sid, city string) (*models.WeatherData, error) {
	logger := observability.LoggerFromContext(ctx)
	defer s.lock(sid)()
	sess, err := s.load(ctx, sid)
	if err != nil {
		return nil, err
	}
	if !sess.TokenPassed {
		return nil, ErrTokenRequired
	}

	clean, verr := validation.ValidateCity(city)
	if verr != nil {
		sess.CityName = ""
		sess.ClearWeather()
		if err := s.save(ctx, sid, sess); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrWeatherUnavailable, verr)
	}

	sess.CityName = titleCase(clean)
	observability.RecordWeatherQuery(sess.CityName)

	data, fetchErr := s.client.GetCurrentWeather(ctx, sess.Token, sess.CityName)
	if fetchErr != nil {
		sess.ClearWeather()
		logger.Info("weather lookup failed",
			zap.String("city", sess.CityName),
			zap.String("category", string(client.CategorizeError(fetchErr))),
			zap.Error(fetchErr))
	} else {
		sess.WeatherChecked = true
		sess.Weather = &data
	}

	if err := s.saveAfterUpstream(ctx, sid, sess); err != nil {
		return nil, err
	}
	if fetchErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrWeatherUnavailable, fetchErr)
	}
	logger.Debug("weather served", zap.String("city", sess.CityName), zap.Float64("temperature", data.Temperature))
	return &data, nil
}

// LoadDataset parses an uploaded CSV and replaces the session's dataset.
// It requires a passed token and returns the number of accepted rows.
func (s *Service) LoadDataset(ctx context.Context, sid, name string, r io.Reader) (int, error) {
	logger := observability.LoggerFromContext(ctx)
	defer s.lock(sid)()
	sess, err := s.load(ctx, sid)
	if err != nil {
		return 0, err
	}
	if !sess.TokenPassed {
		observability.DatasetUploadsTotal.WithLabelValues("rejected").Inc()
		return 0, ErrTokenRequired
	}

	rows, err := dataset.ParseCSV(r)
	if err != nil {
		observability.DatasetUploadsTotal.WithLabelValues("rejected").Inc()
		logger.Info("dataset rejected", zap.String("name", name), zap.Error(err))
		return 0, err
	}

	sess.DatasetName = name
	sess.Observations = rows
	if err := s.save(ctx, sid, sess); err != nil {
		return 0, err
	}

	outliers := dataset.OutlierCount(dataset.Enrich(rows))
	observability.DatasetUploadsTotal.WithLabelValues("accepted").Inc()
	observability.DatasetRows.Observe(float64(len(rows)))
	observability.OutliersFlaggedTotal.Add(float64(outliers))
	logger.Info("dataset loaded", zap.String("name", name), zap.Int("rows", len(rows)), zap.Int("outliers", outliers))
	return len(rows), nil
}

// Analyze builds the dashboard view for the session. kind labels the metric
// (page, charts, analysis).
func (s *Service) Analyze(ctx context.Context, sid string, f validation.Filter, kind string) (*View, error) {
	sess, err := s.load(ctx, sid)
	if err != nil {
		return nil, err
	}
	observability.AnalysesTotal.WithLabelValues(kind).Inc()
	return Build(sess, f, s.now(), s.window), nil
}

// ExportFile is a rendered download.
type ExportFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Export renders the filtered table as CSV or XLSX.
func (s *Service) Export(ctx context.Context, sid string, f validation.Filter, format string) (*ExportFile, error) {
	if format != FormatCSV && format != FormatXLSX {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	v, err := s.Analyze(ctx, sid, f, "export")
	if err != nil {
		return nil, err
	}
	if !v.TokenPassed {
		return nil, ErrTokenRequired
	}
	if !v.HasDataset {
		return nil, ErrNoDataset
	}

	var buf bytes.Buffer
	out := &ExportFile{}
	switch format {
	case FormatCSV:
		out.Name, out.ContentType = dataset.CSVFileName, "text/csv"
		err = dataset.WriteCSV(&buf, v.Filtered)
	case FormatXLSX:
		out.Name, out.ContentType = dataset.XLSXFileName, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		err = dataset.WriteXLSX(&buf, v.Filtered)
	}
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", format, err)
	}
	out.Data = buf.Bytes()
	return out, nil
}

// titleCase upper-cases the first letter of each word and lower-cases the rest.
// A Caser keeps state, so one is built per call.
func titleCase(s string) string {
	return cases.Title(language.Und).String(s)
}
