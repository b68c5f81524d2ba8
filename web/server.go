// Package web serves the prediction form over HTTP.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/YuminosukeSato/examscore/artifact"
	"github.com/YuminosukeSato/examscore/inference"
	"github.com/YuminosukeSato/examscore/pkg/errors"
	"github.com/YuminosukeSato/examscore/pkg/log"
)

//go:embed templates/*.html
var templateFS embed.FS

// MsgModelNotFound is shown when no artifacts were found at startup.
const MsgModelNotFound = "Model files not found!"

// Registry is what the server needs from a prometheus registry.
type Registry interface {
	prometheus.Registerer
	prometheus.Gatherer
}

// Server holds the predictor loaded once at startup.
type Server struct {
	router    chi.Router
	templates *template.Template
	predictor *inference.Predictor
	loadErr   error
	metrics   *Metrics
	logger    log.Logger
}

type page struct {
	Fields        []inference.Field
	Values        map[string]string
	Error         string
	HasPrediction bool
	Prediction    float64
	Verdict       string
}

// NewServer loads the artifacts through loader. Absent or incompatible
// artifacts do not fail construction; POST /predict then answers 503.
func NewServer(loader artifact.Loader, reg Registry, logger log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.Nop()
	}
	logger = logger.With(log.StageKey, log.StageServe)

	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "parsing templates")
	}
	m, err := NewMetrics(reg)
	if err != nil {
		return nil, errors.Wrap(err, "registering metrics")
	}

	s := &Server{router: chi.NewRouter(), templates: tmpl, metrics: m, logger: logger}
	s.predictor, s.loadErr = inference.Load(loader, logger)
	if s.loadErr != nil {
		logger.Warn("Serving without a model", s.loadErr)
	} else {
		logger.Info("Model loaded", log.ModelNameKey, s.predictor.Metadata().ModelName)
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.requestLogger)
	s.router.Get("/", s.handleIndex)
	s.router.Post("/predict", s.handlePredict)
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return s, nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Listening", log.AddrKey, addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "http server")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return errors.Wrap(srv.Shutdown(shutdownCtx), "http shutdown")
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("Request served",
			"http.method", r.Method,
			"http.path", r.URL.Path,
			"http.status", ww.Status(),
			"http.request_id", middleware.GetReqID(r.Context()),
			log.DurationMsKey, time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, s.newPage(nil))
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { s.metrics.Latency.Observe(time.Since(start).Seconds()) }()

	if err := r.ParseForm(); err != nil {
		s.metrics.Predictions.WithLabelValues(outcomeInvalid).Inc()
		p := s.newPage(nil)
		p.Error = "Invalid form submission."
		s.render(w, http.StatusBadRequest, p)
		return
	}
	p := s.newPage(r.PostForm)

	if s.predictor == nil {
		s.metrics.Predictions.WithLabelValues(outcomeUnavailable).Inc()
		p.Error = MsgModelNotFound
		s.render(w, http.StatusServiceUnavailable, p)
		return
	}

	in, err := parseInput(r.PostForm)
	if err != nil {
		s.metrics.Predictions.WithLabelValues(outcomeInvalid).Inc()
		p.Error = err.Error()
		s.render(w, http.StatusBadRequest, p)
		return
	}

	pred, err := s.predictor.Predict(in)
	if err != nil {
		s.metrics.Predictions.WithLabelValues(outcomeError).Inc()
		s.logger.Error("Prediction failed", err)
		p.Error = "Prediction failed."
		s.render(w, http.StatusInternalServerError, p)
		return
	}
	s.metrics.Predictions.WithLabelValues(outcomeOK).Inc()
	p.HasPrediction = true
	p.Prediction = pred.Score
	p.Verdict = pred.Verdict()
	s.render(w, http.StatusOK, p)
}

// parseInput reads the seven form fields. Every field is required.
func parseInput(form map[string][]string) (inference.Input, error) {
	var in inference.Input
	var missing []string
	for _, f := range inference.Fields() {
		vals := form[f.Form]
		if len(vals) == 0 || strings.TrimSpace(vals[0]) == "" {
			missing = append(missing, f.Form)
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(vals[0]), 64)
		if err != nil {
			return in, errors.Newf("%s must be a number, got %q", f.Label, vals[0])
		}
		if err := in.Set(f.Form, v); err != nil {
			return in, err
		}
	}
	if len(missing) > 0 {
		return in, errors.Newf("missing fields: %s", strings.Join(missing, ", "))
	}
	if err := in.Validate(); err != nil {
		return in, errors.Newf("all fields must be finite numbers")
	}
	return in, nil
}

type health struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Model       string `json:"model,omitempty"`
	RunID       string `json:"run_id,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	h := health{Status: "ok"}
	if s.predictor != nil {
		md := s.predictor.Metadata()
		h.ModelLoaded = true
		h.Model = md.ModelName
		h.RunID = md.RunID
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h); err != nil {
		s.logger.Error("Health response failed", err)
	}
}

func (s *Server) newPage(form map[string][]string) page {
	p := page{Fields: inference.Fields(), Values: make(map[string]string)}
	for _, f := range p.Fields {
		if vals := form[f.Form]; len(vals) > 0 {
			p.Values[f.Form] = vals[0]
		}
	}
	return p
}

func (s *Server) render(w http.ResponseWriter, status int, p page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, "index.html", p); err != nil {
		s.logger.Error("Template error", err)
	}
}
