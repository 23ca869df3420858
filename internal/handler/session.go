package handler

import (
	"log/slog"
	"net/http"

	"caseprep/internal/domain/models"
	"caseprep/internal/httputil"
	"caseprep/internal/interview"
)

// SessionHandler handles interview session HTTP requests
// Handlers only communicate with services, never repositories
type SessionHandler struct {
	service *interview.Service
	logger  *slog.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(service *interview.Service, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		service: service,
		logger:  logger,
	}
}

// CreateSession starts a new interview session
// POST /api/sessions
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	var req interview.CreateSessionRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.UserID = userID

	session, err := h.service.CreateSession(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, session)
}

// ListSessions retrieves the user's sessions, newest first
// GET /api/sessions
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	sessions, err := h.service.ListSessions(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, sessions)
}

// GetSession retrieves a single session by ID
// GET /api/sessions/{id}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := PathParam(w, r, "id", "Session ID")
	if !ok {
		return
	}

	userID := httputil.GetUserID(r)
	session, err := h.service.GetSession(r.Context(), sessionID, userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, session)
}

// ListTurns retrieves the full transcript of a session in order
// GET /api/sessions/{id}/turns
func (h *SessionHandler) ListTurns(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := PathParam(w, r, "id", "Session ID")
	if !ok {
		return
	}

	userID := httputil.GetUserID(r)
	turns, err := h.service.ListTurns(r.Context(), sessionID, userID)
	if err != nil {
		handleError(w, err)
		return
	}
	if turns == nil {
		turns = []models.Turn{}
	}

	httputil.RespondJSON(w, http.StatusOK, turns)
}

type messageRequest struct {
	Text string `json:"text"`
}
