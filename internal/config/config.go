// Package config provides the configuration schema, loader, and provider
// registry for the vitavox voice bot.
package config

// LogLevel controls log verbosity for the server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure for vitavox.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader],
// then adjusted from the environment via [ApplyEnv].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Persona   PersonaConfig   `yaml:"persona"`
	Generate  GenerateConfig  `yaml:"generate"`
}

// ServerConfig holds network, logging, and frontend settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8000").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// StaticDir is the directory served at / and /static/. Empty disables
	// the static frontend.
	StaticDir string `yaml:"static_dir"`

	// AllowedOrigin is the CORS Access-Control-Allow-Origin value.
	// Default: "*".
	AllowedOrigin string `yaml:"allowed_origin"`
}

// ProvidersConfig declares which provider implementation to use for each
// pipeline stage, plus optional ordered fallbacks. Each entry selects a
// named provider registered in the [Registry].
type ProvidersConfig struct {
	// LLM is the primary generative backend. An empty Name disables the
	// generative path entirely; the bot then answers only from the canned
	// bank and fallback line.
	LLM ProviderEntry `yaml:"llm"`

	// LLMFallbacks are tried in order when the primary LLM fails.
	LLMFallbacks []ProviderEntry `yaml:"llm_fallbacks"`

	// STT is the primary transcription backend. An empty Name disables
	// audio input; text questions still work.
	STT ProviderEntry `yaml:"stt"`

	// STTFallbacks are tried in order when the primary STT fails.
	STTFallbacks []ProviderEntry `yaml:"stt_fallbacks"`
}

// ProviderEntry is the common configuration block shared by all provider
// types. The Name field is used to look up the constructor in the
// [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation
	// (e.g., "gemini", "whisper").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider
	// (e.g., "gemini-1.5-flash", "whisper-1").
	Model string `yaml:"model"`

	// ServerURL is the endpoint of a self-hosted backend
	// (e.g., a whisper.cpp server).
	ServerURL string `yaml:"server_url"`

	// ModelPath is the filesystem path to a local model file, for backends
	// that load models in-process.
	ModelPath string `yaml:"model_path"`

	// Language is the BCP-47 language hint for transcription providers.
	Language string `yaml:"language"`
}

// PersonaConfig overrides the built-in persona. All fields are optional;
// empty values fall back to the defaults.
type PersonaConfig struct {
	// Name is the persona's display name.
	Name string `yaml:"name"`

	// Role is a one-line description of the persona.
	Role string `yaml:"role"`

	// Answers maps topic identifiers (life_story, superpower, growth_areas,
	// misconception, boundaries) to canned answers. When non-empty, every
	// topic must be covered.
	Answers map[string]string `yaml:"answers"`

	// Fallback replaces the built-in line for unmatched questions.
	Fallback string `yaml:"fallback"`

	// ExtraFallbacks are additional lines the fallback picker may choose.
	ExtraFallbacks []string `yaml:"extra_fallbacks"`
}

// GenerateConfig tunes the generative adapter.
type GenerateConfig struct {
	// TimeoutSeconds bounds one generation attempt. Default: 15.
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// MaxTokens caps completion length. Default: 512.
	MaxTokens int `yaml:"max_tokens"`

	// Temperature is the sampling temperature in [0, 2]. Default: 0.7.
	Temperature float64 `yaml:"temperature"`
}
