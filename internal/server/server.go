// Package server exposes the assistant over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"lua-assistant/internal/assistant"
	"lua-assistant/internal/common/logger"
	"lua-assistant/internal/common/validation"
)

type Server struct {
	assistant *assistant.Assistant
	log       logger.Logger
	timeout   time.Duration
}

func New(a *assistant.Assistant, log logger.Logger, requestTimeout time.Duration) *Server {
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	return &Server{assistant: a, log: log, timeout: requestTimeout}
}

// Routes builds the HTTP mux for the assistant API.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/lua", s.handleCommand)
	mux.HandleFunc("/api/lua/history", s.handleHistory)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := validation.ValidateCommandRequest(payload)
	if err != nil {
		s.log.WithError(err).Error("request validation broke", nil)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !result.Valid {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "invalid request",
			"errors": result.Errors,
		})
		return
	}

	req := assistant.Request{
		Text: payload["message"].(string),
	}
	if userID, ok := payload["user_id"].(string); ok {
		req.UserID = userID
	}
	if voice, ok := payload["voice"].(bool); ok {
		req.Voice = voice
	}
	if reqCtx, ok := payload["context"].(map[string]interface{}); ok {
		req.Context = reqCtx
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	writeJSON(w, http.StatusOK, s.assistant.ProcessCommand(ctx, req))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{
			"history": s.assistant.History(),
		})
	case http.MethodDelete:
		s.assistant.ClearHistory()
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
