// Package whisper provides local whisper.cpp-backed STT providers.
//
// Two implementations are available: Provider talks to a running
// whisper-server binary (which exposes a REST API at POST /inference) over
// HTTP, and NativeProvider links whisper.cpp directly via the CGO bindings.
// Both take one decoded clip per call and return the full transcript.
//
// Usage:
//
//	p, err := whisper.New("http://localhost:8080",
//	    whisper.WithLanguage("en"),
//	)
//	transcript, err := p.Transcribe(ctx, clip)
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/MrWong99/vitavox/pkg/audio"
	"github.com/MrWong99/vitavox/pkg/provider/stt"
)

const (
	// minSpeechRMS is the root-mean-square energy level (in 16-bit PCM units)
	// below which a whole clip is considered silent and rejected before any
	// network round trip. The maximum possible value for 16-bit audio is
	// 32 767; 300 corresponds to near-silence.
	minSpeechRMS = 300.0

	defaultLanguage    = "en"
	defaultSampleRate  = 16000
	defaultHTTPTimeout = 30 * time.Second
)

// Compile-time assertion that Provider implements stt.Provider.
var _ stt.Provider = (*Provider)(nil)

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithModel sets the model identifier forwarded to the whisper.cpp server
// (e.g., "base.en", "small"). When empty the server uses whichever model it
// was started with — this is the default.
func WithModel(model string) Option {
	return func(p *Provider) {
		p.model = model
	}
}

// WithLanguage sets the BCP-47 language code sent to the whisper.cpp server
// (e.g., "en", "de", "fr"). Defaults to "en".
func WithLanguage(lang string) Option {
	return func(p *Provider) {
		p.language = lang
	}
}

// WithHTTPClient replaces the HTTP client used for inference requests. The
// default client carries a 30 s timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = c
	}
}

// Provider implements stt.Provider backed by a local whisper.cpp HTTP server.
// It is safe for concurrent use; each Transcribe call issues an independent
// inference request.
type Provider struct {
	serverURL  string
	model      string
	language   string
	httpClient *http.Client
}

// New creates a new Provider that connects to the whisper.cpp HTTP server at
// serverURL (e.g., "http://localhost:8080"). serverURL must be non-empty.
// Functional options may be provided to override defaults.
func New(serverURL string, opts ...Option) (*Provider, error) {
	if serverURL == "" {
		return nil, errors.New("whisper: serverURL must not be empty")
	}
	p := &Provider{
		serverURL:  strings.TrimRight(serverURL, "/"),
		model:      "",
		language:   defaultLanguage,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Transcribe encodes the clip as a WAV file, POSTs it to the whisper.cpp
// /inference endpoint as multipart/form-data, and returns the transcript.
//
// A clip whose overall energy falls below the speech threshold, or whose
// transcript comes back empty, maps to [stt.ErrNoSpeech]. Transport failures
// and non-200 responses map to [stt.ErrUnavailable].
func (p *Provider) Transcribe(ctx context.Context, clip stt.Clip) (stt.Transcript, error) {
	if len(clip.PCM) == 0 {
		return stt.Transcript{}, fmt.Errorf("whisper: empty clip")
	}
	if audio.ComputeRMS(clip.PCM) < minSpeechRMS {
		return stt.Transcript{}, stt.ErrNoSpeech
	}

	sr := clip.SampleRate
	if sr <= 0 {
		sr = defaultSampleRate
	}
	ch := clip.Channels
	if ch <= 0 {
		ch = 1
	}

	text, err := p.infer(ctx, audio.EncodeWAV(clip.PCM, sr, ch))
	if err != nil {
		return stt.Transcript{}, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return stt.Transcript{}, stt.ErrNoSpeech
	}
	return stt.Transcript{Text: text}, nil
}

// Ping verifies the whisper.cpp server is reachable. Any HTTP response
// counts as alive; only transport failures are reported.
func (p *Provider) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.serverURL+"/", nil)
	if err != nil {
		return fmt.Errorf("whisper: create ping request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", stt.ErrUnavailable, err)
	}
	resp.Body.Close()
	return nil
}

// infer POSTs the WAV payload to the whisper.cpp /inference endpoint.
func (p *Provider) infer(ctx context.Context, wav []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	// Primary audio field.
	fw, err := mw.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", fmt.Errorf("whisper: create form file: %w", err)
	}
	if _, err := fw.Write(wav); err != nil {
		return "", fmt.Errorf("whisper: write wav data: %w", err)
	}

	// Optional hint fields.
	if p.language != "" {
		if err := mw.WriteField("language", p.language); err != nil {
			return "", fmt.Errorf("whisper: write language field: %w", err)
		}
	}
	if p.model != "" {
		if err := mw.WriteField("model", p.model); err != nil {
			return "", fmt.Errorf("whisper: write model field: %w", err)
		}
	}

	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("whisper: close multipart writer: %w", err)
	}

	endpoint := p.serverURL + "/inference"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("whisper: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", stt.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: server returned HTTP %d", stt.ErrUnavailable, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("whisper: read response body: %w", err)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("whisper: parse JSON response: %w", err)
	}

	return result.Text, nil
}
