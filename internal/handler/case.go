package handler

import (
	"log/slog"
	"net/http"

	"caseprep/internal/cases"
	"caseprep/internal/domain/models"
	"caseprep/internal/httputil"
)

// CaseHandler handles case library HTTP requests
type CaseHandler struct {
	service   *cases.Service
	generator *cases.Generator
	logger    *slog.Logger
}

// NewCaseHandler creates a new case handler
func NewCaseHandler(service *cases.Service, generator *cases.Generator, logger *slog.Logger) *CaseHandler {
	return &CaseHandler{
		service:   service,
		generator: generator,
		logger:    logger,
	}
}

// CreateCase stores an authored case document
// POST /api/cases
func (h *CaseHandler) CreateCase(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	var req cases.CreateCaseRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.UserID = userID

	c, err := h.service.Create(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, c)
}

// ListCases retrieves the case library
// GET /api/cases
func (h *CaseHandler) ListCases(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}
	if list == nil {
		list = []models.Case{}
	}

	httputil.RespondJSON(w, http.StatusOK, list)
}

// GetCase retrieves a single case by ID
// GET /api/cases/{id}
func (h *CaseHandler) GetCase(w http.ResponseWriter, r *http.Request) {
	caseID, ok := PathParam(w, r, "id", "Case ID")
	if !ok {
		return
	}

	c, err := h.service.Get(r.Context(), caseID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, c)
}

// DeleteCase removes a case that has no sessions
// DELETE /api/cases/{id}
func (h *CaseHandler) DeleteCase(w http.ResponseWriter, r *http.Request) {
	caseID, ok := PathParam(w, r, "id", "Case ID")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), caseID); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GenerateCase authors a new case with the generation backend and stores it
// POST /api/cases/generate
func (h *CaseHandler) GenerateCase(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	var req cases.GenerateCaseRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.UserID = userID

	c, err := h.generator.Generate(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, c)
}
