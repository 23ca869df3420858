package handler

import (
	"log/slog"
	"net/http"

	"caseprep/internal/analysis"
	"caseprep/internal/domain/models"
	"caseprep/internal/httputil"
)

// AnalysisHandler handles recording and evaluation HTTP requests
type AnalysisHandler struct {
	recordings *analysis.Service
	evaluator  *analysis.Evaluator
	logger     *slog.Logger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(recordings *analysis.Service, evaluator *analysis.Evaluator, logger *slog.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		recordings: recordings,
		evaluator:  evaluator,
		logger:     logger,
	}
}

type createRecordingRequest struct {
	FilePath string               `json:"file_path"`
	Kind     models.RecordingKind `json:"kind"`
}

// CreateRecording registers a recording for a session and starts
// transcription in the background
// POST /api/sessions/{id}/recordings
func (h *AnalysisHandler) CreateRecording(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := PathParam(w, r, "id", "Session ID")
	if !ok {
		return
	}
	userID := httputil.GetUserID(r)

	var req createRecordingRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rec, _, err := h.recordings.CreateRecording(r.Context(), sessionID, userID, req.FilePath, req.Kind)
	if err != nil {
		handleError(w, err)
		return
	}

	// Transcription completes asynchronously; poll the recording for it.
	httputil.RespondJSON(w, http.StatusAccepted, rec)
}

// GetRecording retrieves a recording with any completed transcription
// GET /api/recordings/{id}
func (h *AnalysisHandler) GetRecording(w http.ResponseWriter, r *http.Request) {
	recordingID, ok := PathParam(w, r, "id", "Recording ID")
	if !ok {
		return
	}
	userID := httputil.GetUserID(r)

	rec, err := h.recordings.GetRecording(r.Context(), recordingID, userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, rec)
}

// Evaluate scores a session's transcript and stores the evaluation
// POST /api/sessions/{id}/evaluation
func (h *AnalysisHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := PathParam(w, r, "id", "Session ID")
	if !ok {
		return
	}
	userID := httputil.GetUserID(r)

	eval, err := h.evaluator.Evaluate(r.Context(), sessionID, userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, eval)
}

// GetEvaluation retrieves the stored evaluation for a session
// GET /api/sessions/{id}/evaluation
func (h *AnalysisHandler) GetEvaluation(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := PathParam(w, r, "id", "Session ID")
	if !ok {
		return
	}
	userID := httputil.GetUserID(r)

	eval, err := h.evaluator.GetEvaluation(r.Context(), sessionID, userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, eval)
}
