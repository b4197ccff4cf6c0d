package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/insuquote/backend/internal/middleware"
	"github.com/insuquote/backend/internal/models"
	"github.com/insuquote/backend/internal/services"
)

// AssignmentResponder abstracts the contractor response workflow.
type AssignmentResponder interface {
	Respond(ctx context.Context, assignmentID, contractorID uuid.UUID, response string) (*models.Assignment, error)
}

// QuoteSubmitter abstracts quote submission.
type QuoteSubmitter interface {
	SubmitQuote(ctx context.Context, assignmentID, contractorID uuid.UUID, amountCents int64, notes string) (*models.Assignment, error)
}

// ContractorAssignmentLister returns a contractor's assignments.
type ContractorAssignmentLister interface {
	ListByContractorID(ctx context.Context, contractorID uuid.UUID) ([]*models.Assignment, error)
}

// AssignmentHandler serves the contractor-facing /v1/assignments
// endpoints. All of them require API-key auth; the acting contractor
// comes from request context.
type AssignmentHandler struct {
	Responder   AssignmentResponder
	Quotes      QuoteSubmitter
	Assignments ContractorAssignmentLister
	Logger      *slog.Logger
}

// --- POST /v1/assignments/{id}/respond ---

type respondRequest struct {
	Response string `json:"response"`
}

// Respond handles POST /v1/assignments/{id}/respond with body
// {"response": "accept"|"decline"}. Safe to re-call: a duplicate of the
// same response returns the current state with no further effect.
func (h *AssignmentHandler) Respond(w http.ResponseWriter, r *http.Request) {
	contractor := middleware.ContractorFromCtx(r.Context())
	if contractor == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	assignmentID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"error":"invalid assignment id"}`, http.StatusBadRequest)
		return
	}

	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if req.Response != models.ResponseAccept && req.Response != models.ResponseDecline {
		http.Error(w, `{"error":"response must be accept or decline"}`, http.StatusBadRequest)
		return
	}

	a, err := h.Responder.Respond(r.Context(), assignmentID, contractor.ID, req.Response)
	if err != nil {
		writeServiceError(w, h.Logger, "respond", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// --- POST /v1/assignments/{id}/quote ---

type submitQuoteRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Notes       string `json:"notes"`
}

// SubmitQuote handles POST /v1/assignments/{id}/quote. Valid only while
// the assignment is accepted.
func (h *AssignmentHandler) SubmitQuote(w http.ResponseWriter, r *http.Request) {
	contractor := middleware.ContractorFromCtx(r.Context())
	if contractor == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	assignmentID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"error":"invalid assignment id"}`, http.StatusBadRequest)
		return
	}

	var req submitQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if req.AmountCents <= 0 {
		http.Error(w, `{"error":"amount_cents must be > 0"}`, http.StatusBadRequest)
		return
	}

	a, err := h.Quotes.SubmitQuote(r.Context(), assignmentID, contractor.ID, req.AmountCents, req.Notes)
	if err != nil {
		writeServiceError(w, h.Logger, "submit quote", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// --- GET /v1/assignments ---

// List handles GET /v1/assignments: the authenticated contractor's
// assignments, newest first.
func (h *AssignmentHandler) List(w http.ResponseWriter, r *http.Request) {
	contractor := middleware.ContractorFromCtx(r.Context())
	if contractor == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	list, err := h.Assignments.ListByContractorID(r.Context(), contractor.ID)
	if err != nil {
		h.Logger.Error("list assignments", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []*models.Assignment{}
	}
	writeJSON(w, http.StatusOK, list)
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError maps the workflow error taxonomy onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, services.ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
	case errors.Is(err, services.ErrInvalidState):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		logger.Error(op, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
