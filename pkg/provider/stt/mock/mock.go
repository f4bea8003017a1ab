// Package mock provides a test double for the stt.Provider interface.
//
// Use Provider in unit tests to feed controlled transcripts (or sentinel
// errors) into the transcription pipeline without a live STT backend.
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/vitavox/pkg/provider/stt"
)

// Compile-time interface assertion.
var _ stt.Provider = (*Provider)(nil)

// TranscribeCall records a single invocation of Transcribe.
type TranscribeCall struct {
	// Ctx is the context passed to Transcribe.
	Ctx context.Context
	// Clip is the audio clip passed to Transcribe.
	Clip stt.Clip
}

// Provider is a mock implementation of stt.Provider.
// Zero values cause Transcribe to return an empty Transcript and nil error.
// Set TranscribeErr to inject an error (e.g., stt.ErrNoSpeech).
type Provider struct {
	mu sync.Mutex

	// TranscribeResult is returned by Transcribe on success.
	TranscribeResult stt.Transcript

	// TranscribeErr, if non-nil, is returned as the error from Transcribe.
	TranscribeErr error

	// TranscribeCalls records every invocation of Transcribe in order.
	TranscribeCalls []TranscribeCall
}

// Transcribe records the call and returns the configured result or error.
// It honours context cancellation before returning.
func (p *Provider) Transcribe(ctx context.Context, clip stt.Clip) (stt.Transcript, error) {
	p.mu.Lock()
	p.TranscribeCalls = append(p.TranscribeCalls, TranscribeCall{Ctx: ctx, Clip: clip})
	result, err := p.TranscribeResult, p.TranscribeErr
	p.mu.Unlock()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return stt.Transcript{}, ctxErr
	}
	if err != nil {
		return stt.Transcript{}, err
	}
	return result, nil
}

// CallCount returns the number of recorded Transcribe invocations.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.TranscribeCalls)
}
