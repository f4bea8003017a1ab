// Package server exposes the voice bot over HTTP.
//
// The API surface matches the frontend contract:
//
//	POST /api/chat             — ask a question (text JSON, base64 audio, or multipart upload)
//	GET  /api/health           — liveness with version and uptime
//	GET  /api/sample-questions — suggested questions for the UI
//	GET  /api/profile          — persona metadata
//	GET  /metrics              — Prometheus exposition
//
// plus /healthz and /readyz for orchestration probes, and an optional static
// frontend at /.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrWong99/vitavox/internal/health"
	"github.com/MrWong99/vitavox/internal/observe"
	"github.com/MrWong99/vitavox/internal/persona"
	"github.com/MrWong99/vitavox/internal/respond"
)

// maxAudioBytes caps the size of one audio upload.
const maxAudioBytes = 10 << 20

// Transcriber turns an uploaded audio payload into question text.
// [transcribe.Transcriber] satisfies it; tests substitute their own.
type Transcriber interface {
	Transcribe(ctx context.Context, data []byte, formatHint string) (string, error)
}

// Config collects the wired subsystems and settings for a Server.
type Config struct {
	// Resolver answers questions. Required.
	Resolver *respond.Resolver

	// Transcriber handles audio input. Nil disables the audio path.
	Transcriber Transcriber

	// Profile describes the persona for /api/profile and the system prompt.
	Profile persona.Profile

	// Metrics records request metrics. Nil falls back to
	// [observe.DefaultMetrics].
	Metrics *observe.Metrics

	// Version is reported by the health endpoints.
	Version string

	// StaticDir is served at /. Empty disables the static frontend.
	StaticDir string

	// AllowedOrigin is the CORS Access-Control-Allow-Origin value.
	// Empty means "*".
	AllowedOrigin string

	// Debug includes underlying error details in error responses.
	Debug bool

	// HealthCheckers are probed by /readyz.
	HealthCheckers []health.Checker
}

// Server is the HTTP front of the bot. Construct with New.
type Server struct {
	resolver      *respond.Resolver
	transcriber   Transcriber
	profile       persona.Profile
	metrics       *observe.Metrics
	version       string
	staticDir     string
	allowedOrigin string
	debug         bool
	health        *health.Handler
	start         time.Time
}

// New builds a Server from cfg. cfg.Resolver must be non-nil.
func New(cfg Config) (*Server, error) {
	if cfg.Resolver == nil {
		return nil, errors.New("server: resolver must not be nil")
	}
	origin := cfg.AllowedOrigin
	if origin == "" {
		origin = "*"
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	return &Server{
		resolver:      cfg.Resolver,
		transcriber:   cfg.Transcriber,
		profile:       cfg.Profile,
		metrics:       metrics,
		version:       cfg.Version,
		staticDir:     cfg.StaticDir,
		allowedOrigin: origin,
		debug:         cfg.Debug,
		health:        health.New(cfg.Version, cfg.HealthCheckers...),
		start:         time.Now(),
	}, nil
}

// Handler returns the fully wired HTTP handler: API routes, health probes,
// metrics exposition, optional static frontend, CORS, and request
// observability.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/sample-questions", s.handleSampleQuestions)
	mux.HandleFunc("GET /api/profile", s.handleProfile)
	mux.Handle("GET /metrics", promhttp.Handler())
	s.health.Register(mux)

	if s.staticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(s.staticDir)))
	}

	var h http.Handler = mux
	h = observe.Middleware(s.metrics)(h)
	h = s.cors(h)
	return h
}

// cors sets the CORS headers on every response and short-circuits OPTIONS
// preflight requests.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
