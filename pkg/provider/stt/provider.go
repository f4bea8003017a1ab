// Package stt defines the Provider interface for Speech-to-Text backends.
//
// An STT provider wraps a transcription service (a local whisper.cpp server,
// the whisper.cpp CGO bindings, or the OpenAI transcription API) and exposes
// a uniform batch interface: one audio clip in, one transcript out. The
// voice-bot request path is strictly single-shot, so there is no streaming
// session abstraction here — each inbound question carries at most one clip.
//
// Implementations must be safe for concurrent use; multiple requests may
// transcribe simultaneously.
package stt

import (
	"context"
	"errors"
)

// ErrNoSpeech is returned when the backend processed the clip successfully
// but found no recognisable speech in it. This is a terminal outcome, not a
// transport failure — callers should answer with an apology rather than
// retrying or feeding the empty result onward.
var ErrNoSpeech = errors.New("stt: no speech detected")

// ErrUnavailable is returned when the backend cannot be reached or answers
// with a non-success status. Timeouts are treated identically.
var ErrUnavailable = errors.New("stt: service unavailable")

// Clip is a single utterance of decoded audio ready for transcription.
// All providers in this module consume 16-bit signed little-endian PCM.
type Clip struct {
	// PCM is the raw sample data (16-bit LE).
	PCM []byte

	// SampleRate in Hz. Providers expect 16000 unless documented otherwise.
	SampleRate int

	// Channels is the number of interleaved channels. 1 = mono.
	Channels int
}

// Transcript is the recognition result for a whole clip.
type Transcript struct {
	// Text is the transcribed speech content.
	Text string

	// Confidence is the overall confidence score (0.0–1.0). Zero when the
	// provider does not report confidence.
	Confidence float64
}

// Provider is the abstraction over any STT backend.
//
// Transcribe sends the clip for recognition and blocks until the transcript
// arrives, ctx is cancelled, or the provider's own timeout fires. Failure
// modes are distinguished by sentinel errors: [ErrNoSpeech] when the clip
// contained no recognisable speech, [ErrUnavailable] (wrapped) for transport
// and upstream failures, and plain errors for anything else (corrupt input,
// unsupported configuration).
type Provider interface {
	Transcribe(ctx context.Context, clip Clip) (Transcript, error)
}
