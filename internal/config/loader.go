package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MrWong99/vitavox/internal/persona"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"llm": {"openai", "anthropic", "gemini", "ollama", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
	"stt": {"whisper", "whisper-native", "openai"},
}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Unknown fields are rejected. Useful in tests where configs are constructed
// from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a Config with built-in defaults, used when no config file
// is given. [ApplyEnv] then layers the environment on top.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:    ":8000",
			LogLevel:      LogInfo,
			AllowedOrigin: "*",
		},
		Generate: GenerateConfig{
			TimeoutSeconds: 15,
			MaxTokens:      512,
			Temperature:    0.7,
		},
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Provider name validation — warn for unknown provider names.
	validateProviderName("llm", cfg.Providers.LLM.Name)
	for _, e := range cfg.Providers.LLMFallbacks {
		validateProviderName("llm", e.Name)
	}
	validateProviderName("stt", cfg.Providers.STT.Name)
	for _, e := range cfg.Providers.STTFallbacks {
		validateProviderName("stt", e.Name)
	}

	if cfg.Providers.STT.Name == "" && len(cfg.Providers.STTFallbacks) > 0 {
		errs = append(errs, errors.New("providers.stt_fallbacks requires a primary providers.stt"))
	}
	if cfg.Providers.LLM.Name == "" && len(cfg.Providers.LLMFallbacks) > 0 {
		errs = append(errs, errors.New("providers.llm_fallbacks requires a primary providers.llm"))
	}

	// Persona answer overrides must use known topics and, when present,
	// cover all of them — a bank that cannot answer one of its topics is a
	// configuration error.
	if len(cfg.Persona.Answers) > 0 {
		for key := range cfg.Persona.Answers {
			if _, err := persona.ParseTopic(key); err != nil {
				errs = append(errs, fmt.Errorf("persona.answers: %w", err))
			}
		}
		for _, t := range persona.AllTopics() {
			if strings.TrimSpace(cfg.Persona.Answers[string(t)]) == "" {
				errs = append(errs, fmt.Errorf("persona.answers is missing topic %q", t))
			}
		}
	}

	// Generate bounds.
	if cfg.Generate.TimeoutSeconds < 0 || cfg.Generate.TimeoutSeconds > 120 {
		errs = append(errs, fmt.Errorf("generate.timeout_seconds %d is out of range [0, 120]", cfg.Generate.TimeoutSeconds))
	}
	if cfg.Generate.Temperature < 0 || cfg.Generate.Temperature > 2 {
		errs = append(errs, fmt.Errorf("generate.temperature %.2f is out of range [0, 2]", cfg.Generate.Temperature))
	}
	if cfg.Generate.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("generate.max_tokens %d must not be negative", cfg.Generate.MaxTokens))
	}

	return errors.Join(errs...)
}

// validateProviderName warns when name is set but not in the known list for
// kind. Unknown names are not fatal: the registry is extensible.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	if !slices.Contains(ValidProviderNames[kind], name) {
		slog.Warn("unrecognised provider name",
			"kind", kind,
			"name", name,
			"known", ValidProviderNames[kind])
	}
}

// ApplyEnv layers environment variables over cfg, following the original
// deployment contract:
//
//   - PORT overrides the listen port.
//   - DEBUG (truthy) forces debug logging.
//   - GEMINI_API_KEY enables (or completes) a Gemini LLM entry.
//   - OPENAI_API_KEY completes OpenAI LLM/STT entries, or enables an OpenAI
//     LLM entry when no LLM is configured at all.
func ApplyEnv(cfg *Config) error {
	if port := os.Getenv("PORT"); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil || n <= 0 || n > 65535 {
			return fmt.Errorf("config: invalid PORT %q", port)
		}
		cfg.Server.ListenAddr = ":" + port
	}

	if debug := os.Getenv("DEBUG"); isTruthy(debug) {
		cfg.Server.LogLevel = LogDebug
	}

	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		switch cfg.Providers.LLM.Name {
		case "":
			cfg.Providers.LLM = ProviderEntry{
				Name:   "gemini",
				Model:  "gemini-1.5-flash",
				APIKey: key,
			}
		case "gemini":
			if cfg.Providers.LLM.APIKey == "" {
				cfg.Providers.LLM.APIKey = key
			}
		}
	}

	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		switch cfg.Providers.LLM.Name {
		case "":
			cfg.Providers.LLM = ProviderEntry{
				Name:   "openai",
				Model:  "gpt-4o-mini",
				APIKey: key,
			}
		case "openai":
			if cfg.Providers.LLM.APIKey == "" {
				cfg.Providers.LLM.APIKey = key
			}
		}
		if cfg.Providers.STT.Name == "openai" && cfg.Providers.STT.APIKey == "" {
			cfg.Providers.STT.APIKey = key
		}
	}

	return nil
}

// isTruthy reports whether an environment flag value means "enabled".
func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
