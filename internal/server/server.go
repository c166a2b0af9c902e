// Package server exposes the scoring service over HTTP.
//
// Routes:
//
//	POST /v1/score         JSON {"transcript": "...", "duration_seconds": 52}
//	POST /v1/score/upload  multipart form with a text "file" and optional "duration_seconds"
//	GET  /v1/rubric        weights, grade bands and the active lexicon
//	GET  /v1/sample        the bundled sample transcript
//	GET  /healthz, /readyz liveness and readiness (when a health handler is set)
//	GET  /metrics          Prometheus exposition (when a metrics handler is set)
//
// Every route is wrapped in [observe.Middleware], so responses carry an
// X-Request-ID header and scoring responses repeat it in the body.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/MrWong99/introscore/internal/health"
	"github.com/MrWong99/introscore/internal/intake"
	"github.com/MrWong99/introscore/internal/observe"
	"github.com/MrWong99/introscore/internal/rubric"
	"github.com/MrWong99/introscore/internal/scoring"
)

// multipartOverhead is the body allowance on top of the file limit for
// multipart boundaries and the other form fields.
const multipartOverhead = 64 << 10

// Server routes HTTP requests to a [scoring.Service].
type Server struct {
	scorer   *scoring.Service
	health   *health.Handler
	exporter http.Handler
	metrics  *observe.Metrics
	maxBytes int64
}

// Option configures a [Server].
type Option func(*Server)

// WithHealth mounts h at /healthz and /readyz.
func WithHealth(h *health.Handler) Option {
	return func(s *Server) { s.health = h }
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.exporter = h }
}

// WithMetrics overrides the instruments used by the request middleware.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithMaxBytes caps JSON bodies and uploaded files. Non-positive values
// select [intake.DefaultMaxBytes].
func WithMaxBytes(n int64) Option {
	return func(s *Server) { s.maxBytes = n }
}

// New returns a Server scoring through svc.
func New(svc *scoring.Service, opts ...Option) *Server {
	s := &Server{scorer: svc}
	for _, o := range opts {
		o(s)
	}
	if s.maxBytes <= 0 {
		s.maxBytes = intake.DefaultMaxBytes
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	return s
}

// Handler returns the routed and instrumented handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/score", s.handleScore)
	mux.HandleFunc("POST /v1/score/upload", s.handleUpload)
	mux.HandleFunc("GET /v1/rubric", s.handleRubric)
	mux.HandleFunc("GET /v1/sample", s.handleSample)
	if s.health != nil {
		s.health.Register(mux)
	}
	if s.exporter != nil {
		mux.Handle("GET /metrics", s.exporter)
	}
	return observe.Middleware(s.metrics)(mux)
}

// scoreResponse is a scoring result tagged with the request ID.
type scoreResponse struct {
	*scoring.Result
	RequestID string `json:"request_id"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type sampleResponse struct {
	Transcript      string  `json:"transcript"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// handleScore handles POST /v1/score.
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req scoring.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(w, r, http.StatusRequestEntityTooLarge, fmt.Errorf("request body exceeds %d bytes", s.maxBytes))
			return
		}
		s.fail(w, r, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	s.score(w, r, req)
}

// handleUpload handles POST /v1/score/upload.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(s.maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(w, r, http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d bytes", s.maxBytes))
			return
		}
		s.fail(w, r, http.StatusBadRequest, fmt.Errorf("invalid multipart form: %w", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("file")
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, errors.New(`missing form file "file"`))
		return
	}
	defer file.Close()

	req := scoring.Request{}
	if raw := strings.TrimSpace(r.FormValue("duration_seconds")); raw != "" {
		d, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsInf(d, 0) {
			s.fail(w, r, http.StatusBadRequest, fmt.Errorf("invalid duration_seconds %q", raw))
			return
		}
		req.DurationSeconds = &d
	}

	req.Transcript, err = intake.Read(file, s.maxBytes)
	if err != nil {
		s.fail(w, r, statusFor(err), err)
		return
	}
	s.score(w, r, req)
}

func (s *Server) score(w http.ResponseWriter, r *http.Request, req scoring.Request) {
	res, err := s.scorer.Score(r.Context(), req)
	if err != nil {
		s.fail(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, scoreResponse{Result: res, RequestID: observe.RequestID(r.Context())})
}

// handleRubric handles GET /v1/rubric.
func (s *Server) handleRubric(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, rubric.Describe(s.scorer.Engine().Lexicon()))
}

// handleSample handles GET /v1/sample.
func (s *Server) handleSample(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, sampleResponse{
		Transcript:      rubric.SampleTranscript,
		DurationSeconds: rubric.SampleDurationSeconds,
	})
}

// statusFor maps scoring and intake errors to HTTP status codes.
func statusFor(err error) int {
	var invalid *rubric.InvalidInputError
	switch {
	case errors.Is(err, scoring.ErrEmptyTranscript):
		return http.StatusUnprocessableEntity
	case errors.Is(err, intake.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &invalid):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	ctx := r.Context()
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		observe.Logger(ctx).Error("request failed", "err", err)
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Error: msg, RequestID: observe.RequestID(ctx)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
