package server

import (
	"net/http"
	"time"

	"github.com/MrWong99/vitavox/internal/persona"
)

// healthResponse is the JSON body for GET /api/health.
type healthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version,omitempty"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// handleHealth handles GET /api/health. Always 200: this endpoint reports
// liveness for the frontend; /readyz covers dependency readiness.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:        "healthy",
		Version:       s.version,
		UptimeSeconds: time.Since(s.start).Seconds(),
	})
}

// sampleQuestionsResponse is the JSON body for GET /api/sample-questions.
type sampleQuestionsResponse struct {
	Questions []string `json:"questions"`
}

// handleSampleQuestions handles GET /api/sample-questions.
func (s *Server) handleSampleQuestions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, sampleQuestionsResponse{
		Questions: persona.SampleQuestions(),
	})
}

// profileResponse is the JSON body for GET /api/profile.
type profileResponse struct {
	Name   string   `json:"name"`
	Role   string   `json:"role"`
	Topics []string `json:"topics"`
}

// handleProfile handles GET /api/profile.
func (s *Server) handleProfile(w http.ResponseWriter, _ *http.Request) {
	topics := make([]string, 0, len(persona.AllTopics()))
	for _, t := range persona.AllTopics() {
		topics = append(topics, t.String())
	}
	writeJSON(w, http.StatusOK, profileResponse{
		Name:   s.profile.Name,
		Role:   s.profile.Role,
		Topics: topics,
	})
}
