package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/convodesk/convodesk/internal/models"
)

// messageHandler handles POST /api/v1/messages.
func (s *Server) messageHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.messageHandler: processing message request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.messageHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req models.MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.messageHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		slog.Warn("Server.messageHandler: validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	response, state, err := s.engine.ProcessMessage(r.Context(), req.SessionID, req.TenantID, req.Message)
	if err != nil {
		slog.Error("Server.messageHandler: engine failed", "error", err, "sessionID", req.SessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to process message"))
		return
	}

	slog.Info("Server.messageHandler: message processed",
		"sessionID", req.SessionID, "tenantID", req.TenantID,
		"step", state.CurrentStep, "paymentStage", state.PaymentContext.Stage)
	writeJSONResponse(w, http.StatusOK, models.Success(models.MessageResponse{
		Response:     response,
		CurrentStep:  state.CurrentStep,
		PaymentStage: state.PaymentContext.Stage,
		Language:     state.Language,
	}))
}

// sessionHandler handles GET /api/v1/sessions?sessionId=&tenantId=. It
// returns the full session state including the transition log, for
// diagnostics.
func (s *Server) sessionHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.sessionHandler: processing session request", "method", r.Method)
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	sessionID := r.URL.Query().Get("sessionId")
	tenantID := r.URL.Query().Get("tenantId")
	if sessionID == "" || tenantID == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("sessionId and tenantId are required"))
		return
	}

	state := s.engine.Session(r.Context(), sessionID, tenantID)
	writeJSONResponse(w, http.StatusOK, models.Success(state))
}

// resetHandler handles POST /api/v1/sessions/reset.
func (s *Server) resetHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		SessionID string `json:"sessionId"`
		TenantID  string `json:"tenantId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.resetHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if req.SessionID == "" || req.TenantID == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("sessionId and tenantId are required"))
		return
	}

	state := s.engine.Reset(r.Context(), req.SessionID, req.TenantID)
	slog.Info("Server.resetHandler: session reset", "sessionID", req.SessionID, "tenantID", req.TenantID)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Session reset", state))
}

// healthHandler handles GET /health.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("ok", nil))
}
