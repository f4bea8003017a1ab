package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/MrWong99/vitavox/internal/observe"
	"github.com/MrWong99/vitavox/internal/transcribe"
)

// noSpeechReply is returned when an audio clip decoded fine but contained no
// recognisable speech. The question never reaches the classifier.
const noSpeechReply = "I couldn't hear anything in that recording. Please try again, or type your question instead."

// sourceNoSpeech marks a no-speech apology in the response and metrics.
const sourceNoSpeech = "no_speech"

// chatRequest is the JSON body for POST /api/chat. Text questions put the
// question in "message" (or the older "text" / "question" fields); audio
// questions set "type" to "audio" and carry base64 data in "audio",
// optionally as a data URL.
type chatRequest struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Text     string `json:"text"`
	Question string `json:"question"`
	Audio    string `json:"audio"`
	Format   string `json:"format"`
}

// chatResponse is the JSON body returned from POST /api/chat.
type chatResponse struct {
	Response            string `json:"response"`
	Topic               string `json:"topic,omitempty"`
	Source              string `json:"source"`
	Status              string `json:"status"`
	TranscribedQuestion string `json:"transcribed_question,omitempty"`
}

// errorResponse is the JSON body for all error statuses.
type errorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// handleChat handles POST /api/chat. It accepts three shapes of input:
// a JSON text question, a JSON base64 audio clip, and a multipart form with
// an "audio" file field.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, maxAudioBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if strings.HasPrefix(mediaType, "multipart/") {
		data, hint, err := readMultipartAudio(r)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid audio upload", err)
			return
		}
		s.answerAudio(ctx, w, data, hint)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if req.Type == "audio" || req.Audio != "" {
		data, hint, err := decodeBase64Audio(req.Audio, req.Format)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid audio payload", err)
			return
		}
		s.answerAudio(ctx, w, data, hint)
		return
	}

	question := req.Message
	if question == "" {
		question = req.Text
	}
	if question == "" {
		question = req.Question
	}
	s.answerText(ctx, w, question, "text", "")
}

// answerAudio transcribes the clip and routes the transcript through the
// resolver. Transcription outcomes map onto HTTP statuses: no speech gets a
// friendly 200 apology, an unreachable backend gets 503, and everything else
// is treated as a bad upload.
func (s *Server) answerAudio(ctx context.Context, w http.ResponseWriter, data []byte, hint string) {
	if s.transcriber == nil {
		s.writeError(w, http.StatusServiceUnavailable, "audio input is not enabled", nil)
		return
	}

	text, err := s.transcriber.Transcribe(ctx, data, hint)
	switch {
	case err == nil:
		s.answerText(ctx, w, text, "audio", text)
	case errors.Is(err, transcribe.ErrNoSpeech):
		s.metrics.RecordChatRequest(ctx, "audio", sourceNoSpeech)
		writeJSON(w, http.StatusOK, chatResponse{
			Response: noSpeechReply,
			Source:   sourceNoSpeech,
			Status:   "success",
		})
	case errors.Is(err, transcribe.ErrServiceUnavailable):
		s.writeError(w, http.StatusServiceUnavailable, "speech service unavailable", err)
	default:
		s.writeError(w, http.StatusBadRequest, "could not process audio", err)
	}
}

// answerText resolves the question and writes the answer. input tags the
// request metrics as "text" or "audio"; transcript, when set, is echoed back
// so the UI can show what was heard.
func (s *Server) answerText(ctx context.Context, w http.ResponseWriter, question, input, transcript string) {
	if strings.TrimSpace(question) == "" {
		s.writeError(w, http.StatusBadRequest, "message is required", nil)
		return
	}

	answer, err := s.resolver.Resolve(ctx, question)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "message is required", err)
		return
	}

	topic := "none"
	if answer.Matched {
		topic = answer.Topic.String()
	}
	s.metrics.RecordIntentMatch(ctx, topic)
	s.metrics.RecordChatRequest(ctx, input, string(answer.Source))

	observe.Logger(ctx).Info("chat answered",
		"input", input,
		"topic", topic,
		"source", answer.Source,
	)

	writeJSON(w, http.StatusOK, chatResponse{
		Response:            answer.Text,
		Topic:               answer.Topic.String(),
		Source:              string(answer.Source),
		Status:              "success",
		TranscribedQuestion: transcript,
	})
}

// readMultipartAudio extracts the "audio" file field from a multipart form.
// The format hint comes from the part's content type, falling back to the
// filename extension.
func readMultipartAudio(r *http.Request) ([]byte, string, error) {
	if err := r.ParseMultipartForm(maxAudioBytes); err != nil {
		return nil, "", fmt.Errorf("parse multipart form: %w", err)
	}
	file, header, err := r.FormFile("audio")
	if err != nil {
		return nil, "", fmt.Errorf("missing audio field: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxAudioBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read audio field: %w", err)
	}

	hint := header.Header.Get("Content-Type")
	if hint == "" {
		if i := strings.LastIndex(header.Filename, "."); i >= 0 {
			hint = header.Filename[i+1:]
		}
	}
	return data, hint, nil
}

// decodeBase64Audio decodes a base64 audio payload, accepting both bare
// base64 and data URLs ("data:audio/wav;base64,..."). A media type in the
// data URL wins over the explicit format field.
func decodeBase64Audio(payload, format string) ([]byte, string, error) {
	if strings.TrimSpace(payload) == "" {
		return nil, "", errors.New("audio payload is empty")
	}

	hint := format
	if strings.HasPrefix(payload, "data:") {
		meta, rest, ok := strings.Cut(payload, ",")
		if !ok {
			return nil, "", errors.New("malformed data URL")
		}
		payload = rest
		meta = strings.TrimPrefix(meta, "data:")
		if mt, _, err := mime.ParseMediaType(strings.TrimSuffix(meta, ";base64")); err == nil {
			hint = mt
		}
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode base64: %w", err)
	}
	return data, hint, nil
}

// writeError writes a JSON error response. The underlying error is included
// only in debug mode.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := errorResponse{Status: "error", Error: msg}
	if s.debug && err != nil {
		resp.Detail = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
