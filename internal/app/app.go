// Package app wires all vitavox subsystems into a running application.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run serves HTTP until the context is cancelled, and Shutdown
// tears everything down in order.
//
// For testing, inject mock providers via functional options
// (WithLLMProvider, WithSTTProvider). When an option is not provided, New
// creates real implementations from the config registry.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/vitavox/internal/config"
	"github.com/MrWong99/vitavox/internal/generate"
	"github.com/MrWong99/vitavox/internal/health"
	"github.com/MrWong99/vitavox/internal/intent"
	"github.com/MrWong99/vitavox/internal/persona"
	"github.com/MrWong99/vitavox/internal/resilience"
	"github.com/MrWong99/vitavox/internal/respond"
	"github.com/MrWong99/vitavox/internal/server"
	"github.com/MrWong99/vitavox/internal/transcribe"
	"github.com/MrWong99/vitavox/pkg/provider/llm"
	"github.com/MrWong99/vitavox/pkg/provider/stt"
)

// Default persona identity when the config leaves it unset.
const (
	defaultPersonaName = "Vita"
	defaultPersonaRole = "a personal voice bot"
)

// shutdownTimeout bounds the graceful HTTP drain inside Run.
const shutdownTimeout = 10 * time.Second

// App owns all subsystem lifetimes and serves the voice bot over HTTP.
type App struct {
	cfg     *config.Config
	version string

	llmProvider llm.Provider
	sttProvider stt.Provider
	registry    *config.Registry

	server *server.Server

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithLLMProvider injects an LLM provider instead of creating one from config.
func WithLLMProvider(p llm.Provider) Option {
	return func(a *App) { a.llmProvider = p }
}

// WithSTTProvider injects an STT provider instead of creating one from config.
func WithSTTProvider(p stt.Provider) Option {
	return func(a *App) { a.sttProvider = p }
}

// WithRegistry replaces the default provider registry.
func WithRegistry(r *config.Registry) Option {
	return func(a *App) { a.registry = r }
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App by wiring all subsystems together: providers from the
// registry (with fallback chains when configured), the persona bank, the
// intent classifier, the generative adapter, the transcription adapter, and
// the HTTP server.
func New(ctx context.Context, cfg *config.Config, version string, opts ...Option) (*App, error) {
	a := &App{
		cfg:      cfg,
		version:  version,
		registry: config.DefaultRegistry(),
	}
	for _, o := range opts {
		o(a)
	}

	// ── 1. Providers ─────────────────────────────────────────────────────
	if err := a.initProviders(); err != nil {
		return nil, fmt.Errorf("app: init providers: %w", err)
	}

	// ── 2. Persona ───────────────────────────────────────────────────────
	bank, err := buildBank(cfg.Persona)
	if err != nil {
		return nil, fmt.Errorf("app: build persona bank: %w", err)
	}
	profile := persona.Profile{
		Name: cfg.Persona.Name,
		Role: cfg.Persona.Role,
		Bank: bank,
	}
	if profile.Name == "" {
		profile.Name = defaultPersonaName
	}
	if profile.Role == "" {
		profile.Role = defaultPersonaRole
	}

	// ── 3. Resolver ──────────────────────────────────────────────────────
	gen := generate.New(a.llmProvider, profile,
		generate.WithTimeout(time.Duration(cfg.Generate.TimeoutSeconds)*time.Second),
		generate.WithMaxTokens(cfg.Generate.MaxTokens),
		generate.WithTemperature(cfg.Generate.Temperature),
		generate.WithProviderName(cfg.Providers.LLM.Name),
	)
	resolverOpts := []respond.Option{respond.WithGenerator(gen)}
	if len(cfg.Persona.ExtraFallbacks) > 0 {
		resolverOpts = append(resolverOpts, respond.WithExtraFallbacks(cfg.Persona.ExtraFallbacks...))
	}
	resolver, err := respond.New(intent.NewClassifier(nil), bank, resolverOpts...)
	if err != nil {
		return nil, fmt.Errorf("app: build resolver: %w", err)
	}

	// ── 4. Transcriber ───────────────────────────────────────────────────
	var transcriber server.Transcriber
	if a.sttProvider != nil {
		t, err := transcribe.New(a.sttProvider,
			transcribe.WithProviderName(cfg.Providers.STT.Name),
		)
		if err != nil {
			return nil, fmt.Errorf("app: build transcriber: %w", err)
		}
		transcriber = t
	}

	// ── 5. HTTP server ───────────────────────────────────────────────────
	srv, err := server.New(server.Config{
		Resolver:       resolver,
		Transcriber:    transcriber,
		Profile:        profile,
		Version:        version,
		StaticDir:      cfg.Server.StaticDir,
		AllowedOrigin:  cfg.Server.AllowedOrigin,
		Debug:          cfg.Server.LogLevel == config.LogDebug,
		HealthCheckers: a.healthCheckers(),
	})
	if err != nil {
		return nil, fmt.Errorf("app: build server: %w", err)
	}
	a.server = srv

	return a, nil
}

// Handler exposes the wired HTTP handler, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.server.Handler()
}

// ─── Init helpers ────────────────────────────────────────────────────────────

// initProviders creates the configured LLM and STT providers, wrapping each
// in a fallback chain when fallbacks are declared. Injected providers are
// used as-is.
func (a *App) initProviders() error {
	if a.llmProvider == nil && a.cfg.Providers.LLM.Name != "" {
		primary, err := a.registry.CreateLLM(a.cfg.Providers.LLM)
		if err != nil {
			return fmt.Errorf("create llm provider %q: %w", a.cfg.Providers.LLM.Name, err)
		}
		a.trackCloser(primary)
		slog.Info("provider created", "kind", "llm", "name", a.cfg.Providers.LLM.Name)

		if len(a.cfg.Providers.LLMFallbacks) == 0 {
			a.llmProvider = primary
		} else {
			fb := resilience.NewLLMFallback(primary, a.cfg.Providers.LLM.Name, resilience.FallbackConfig{})
			for _, entry := range a.cfg.Providers.LLMFallbacks {
				p, err := a.registry.CreateLLM(entry)
				if err != nil {
					return fmt.Errorf("create llm fallback %q: %w", entry.Name, err)
				}
				a.trackCloser(p)
				fb.AddFallback(entry.Name, p)
				slog.Info("provider created", "kind", "llm-fallback", "name", entry.Name)
			}
			a.llmProvider = fb
		}
	}

	if a.sttProvider == nil && a.cfg.Providers.STT.Name != "" {
		primary, err := a.registry.CreateSTT(a.cfg.Providers.STT)
		if err != nil {
			return fmt.Errorf("create stt provider %q: %w", a.cfg.Providers.STT.Name, err)
		}
		a.trackCloser(primary)
		slog.Info("provider created", "kind", "stt", "name", a.cfg.Providers.STT.Name)

		if len(a.cfg.Providers.STTFallbacks) == 0 {
			a.sttProvider = primary
		} else {
			fb := resilience.NewSTTFallback(primary, a.cfg.Providers.STT.Name, resilience.FallbackConfig{})
			for _, entry := range a.cfg.Providers.STTFallbacks {
				p, err := a.registry.CreateSTT(entry)
				if err != nil {
					return fmt.Errorf("create stt fallback %q: %w", entry.Name, err)
				}
				a.trackCloser(p)
				fb.AddFallback(entry.Name, p)
				slog.Info("provider created", "kind", "stt-fallback", "name", entry.Name)
			}
			a.sttProvider = fb
		}
	}

	return nil
}

// healthCheckers builds one readiness checker per configured provider.
// Providers that can cheaply verify their backend expose a Ping method;
// everything else reports ready as long as it is wired.
func (a *App) healthCheckers() []health.Checker {
	var checkers []health.Checker
	if a.sttProvider != nil {
		checkers = append(checkers, health.Checker{Name: "stt", Check: providerCheck(a.sttProvider)})
	}
	if a.llmProvider != nil {
		checkers = append(checkers, health.Checker{Name: "llm", Check: providerCheck(a.llmProvider)})
	}
	return checkers
}

// providerCheck probes p's backend when it supports pinging.
func providerCheck(p any) func(context.Context) error {
	pinger, ok := p.(interface{ Ping(context.Context) error })
	return func(ctx context.Context) error {
		if !ok {
			return nil
		}
		return pinger.Ping(ctx)
	}
}

// trackCloser registers the provider's Close method for Shutdown when it has
// one (the native whisper backend holds a loaded model).
func (a *App) trackCloser(p any) {
	if c, ok := p.(interface{ Close() error }); ok {
		a.closers = append(a.closers, c.Close)
	}
}

// buildBank assembles the answer bank from config overrides, filling gaps
// from the built-in defaults.
func buildBank(pc config.PersonaConfig) (*persona.Bank, error) {
	if len(pc.Answers) == 0 && pc.Fallback == "" {
		return persona.DefaultBank(), nil
	}

	defaults := persona.DefaultBank()
	answers := make(map[persona.Topic]string, len(persona.AllTopics()))
	for _, t := range persona.AllTopics() {
		if v := pc.Answers[string(t)]; v != "" {
			answers[t] = v
			continue
		}
		answers[t], _ = defaults.Answer(t)
	}

	fallback := pc.Fallback
	if fallback == "" {
		fallback = defaults.Fallback()
	}
	return persona.NewBank(answers, fallback)
}

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
// Returns context.Canceled on a clean shutdown.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.Server.ListenAddr,
		Handler:           a.server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app: http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(drainCtx); err != nil {
			return fmt.Errorf("app: drain http server: %w", err)
		}
		return ctx.Err()
	})
	return g.Wait()
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown tears down providers in order. It respects the context deadline:
// if ctx expires before all closers finish, remaining closers are skipped
// and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}
