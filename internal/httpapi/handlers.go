package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tupanlabs/zapgate/internal/phone"
	"github.com/tupanlabs/zapgate/internal/session"
)

// maxRequestBodySize bounds JSON request bodies.
const maxRequestBodySize = 64 * 1024

// SessionManager is the registry surface the API layer needs.
type SessionManager interface {
	Start(ctx context.Context, key string) (*session.Session, error)
	Get(key string) (*session.Session, bool)
	Send(ctx context.Context, key, number, body string) error
	Stop(ctx context.Context, key string) error
	StopAll(ctx context.Context)
	Keys() []string
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// handleStart — GET /start/{sessionId}
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("sessionId")
	if _, err := s.mgr.Start(r.Context(), key); err != nil {
		if errors.Is(err, session.ErrInvalidSessionKey) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("session start failed", "session", key, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"session": key})
}

// handleQRCode — GET /qrcode/{sessionId}
func (s *Server) handleQRCode(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("sessionId")
	sess, ok := s.mgr.Get(key)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	dataURL, ok := sess.QR()
	if !ok {
		writeError(w, http.StatusBadRequest, "no pairing code pending")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"qr": dataURL})
}

type sendMessageRequest struct {
	Number  string `json:"number"`
	Message string `json:"message"`
}

// handleSendMessage — POST /send-message/{sessionId}
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("sessionId")

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Number == "" || req.Message == "" {
		writeError(w, http.StatusBadRequest, "number and message are required")
		return
	}

	err := s.mgr.Send(r.Context(), key, req.Number, req.Message)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"message": "message sent"})
	case errors.Is(err, session.ErrSessionNotConnected):
		writeError(w, http.StatusBadRequest, "session not connected")
	case errors.Is(err, phone.ErrInvalidNumberFormat):
		writeError(w, http.StatusBadRequest, "invalid phone number format")
	default:
		slog.Error("send failed", "session", key, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

type statusResponse struct {
	SessionID string  `json:"sessionId"`
	Connected bool    `json:"connected"`
	State     string  `json:"state"`
	QR        *string `json:"qr"`
}

// handleStatus — GET /status/{sessionId}
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("sessionId")
	sess, ok := s.mgr.Get(key)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	resp := statusResponse{
		SessionID: key,
		Connected: sess.Connected(),
		State:     sess.State().String(),
	}
	if dataURL, ok := sess.QR(); ok {
		resp.QR = &dataURL
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleDisconnect — POST /disconnect/{sessionId}
func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("sessionId")
	if err := s.mgr.Stop(r.Context(), key); err != nil {
		slog.Error("disconnect failed", "session", key, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "session disconnected"})
}

// handleDisconnectAll — POST /disconnect-all
func (s *Server) handleDisconnectAll(w http.ResponseWriter, r *http.Request) {
	// Best effort: per-session failures are logged by the registry and do not
	// fail the batch.
	s.mgr.StopAll(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"message": "all sessions disconnected"})
}

type sessionSummary struct {
	SessionID string `json:"sessionId"`
	State     string `json:"state"`
	Connected bool   `json:"connected"`
}

// handleListSessions — GET /sessions
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	summaries := make([]sessionSummary, 0)
	for _, key := range s.mgr.Keys() {
		sess, ok := s.mgr.Get(key)
		if !ok {
			continue
		}
		summaries = append(summaries, sessionSummary{
			SessionID: key,
			State:     sess.State().String(),
			Connected: sess.Connected(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": summaries})
}

// handleHealthz — GET /healthz
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
