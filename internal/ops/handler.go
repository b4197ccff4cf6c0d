package ops

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/insuquote/backend/internal/models"
	"github.com/insuquote/backend/internal/repository"
)

// Handler serves the internal operator endpoints: contractor approval,
// rating pushes, and ledger audits. Not exposed to contractors or
// customers; access requires the shared operator token.
type Handler struct {
	contractors *repository.ContractorRepo
	leads       *repository.LeadRepo
	credits     *repository.CreditRepo
	token       string
	log         *slog.Logger
}

func NewHandler(
	contractorR *repository.ContractorRepo,
	leadR *repository.LeadRepo,
	creditR *repository.CreditRepo,
	token string,
	log *slog.Logger,
) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		contractors: contractorR,
		leads:       leadR,
		credits:     creditR,
		token:       token,
		log:         log,
	}
}

// Routes returns the /ops mux with token auth applied to every endpoint.
func Routes(h *Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ops/contractors", h.ListContractors)
	mux.HandleFunc("POST /ops/contractors/{id}/status", h.SetStatus)
	mux.HandleFunc("POST /ops/contractors/{id}/rating", h.SetRating)
	mux.HandleFunc("GET /ops/leads", h.ListLeads)
	mux.HandleFunc("GET /ops/assignments/{id}/ledger", h.AssignmentLedger)
	return h.requireToken(mux)
}

// requireToken gates on the X-Admin-Token header. With no token
// configured the surface is disabled outright rather than left open.
func (h *Handler) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.token == "" {
			http.Error(w, `{"error":"ops surface disabled"}`, http.StatusServiceUnavailable)
			return
		}
		got := r.Header.Get("X-Admin-Token")
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) != 1 {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- GET /ops/contractors ---

func (h *Handler) ListContractors(w http.ResponseWriter, r *http.Request) {
	list, err := h.contractors.List(r.Context())
	if err != nil {
		h.log.Error("ops list contractors", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []*models.Contractor{}
	}
	writeJSON(w, http.StatusOK, list)
}

// --- POST /ops/contractors/{id}/status ---

type setStatusRequest struct {
	Status string `json:"status"`
}

// SetStatus moves a contractor through the approval workflow. Approval is
// what admits a contractor into lead distribution.
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"error":"invalid contractor id"}`, http.StatusBadRequest)
		return
	}

	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	switch req.Status {
	case models.ContractorStatusPending, models.ContractorStatusApproved, models.ContractorStatusSuspended:
	default:
		http.Error(w, `{"error":"status must be pending, approved or suspended"}`, http.StatusBadRequest)
		return
	}

	if _, err := h.contractors.GetByID(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, `{"error":"contractor not found"}`, http.StatusNotFound)
			return
		}
		h.log.Error("ops get contractor", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	if err := h.contractors.UpdateStatus(r.Context(), id, req.Status); err != nil {
		h.log.Error("ops set status", "contractor_id", id, "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	h.log.Info("contractor status changed", "contractor_id", id, "status", req.Status)
	writeJSON(w, http.StatusOK, map[string]string{"id": id.String(), "status": req.Status})
}

// --- POST /ops/contractors/{id}/rating ---

type setRatingRequest struct {
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"review_count"`
}

// SetRating pushes the contractor's aggregate from the review platform.
func (h *Handler) SetRating(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"error":"invalid contractor id"}`, http.StatusBadRequest)
		return
	}

	var req setRatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if req.Rating < 0 || req.Rating > 5 || req.ReviewCount < 0 {
		http.Error(w, `{"error":"rating must be 0-5 and review_count >= 0"}`, http.StatusBadRequest)
		return
	}

	if err := h.contractors.SetRating(r.Context(), id, req.Rating, req.ReviewCount); err != nil {
		h.log.Error("ops set rating", "contractor_id", id, "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":           id.String(),
		"rating":       req.Rating,
		"review_count": req.ReviewCount,
	})
}

// --- GET /ops/leads ---

func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	list, err := h.leads.List(r.Context())
	if err != nil {
		h.log.Error("ops list leads", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []*models.Lead{}
	}
	writeJSON(w, http.StatusOK, list)
}

// --- GET /ops/assignments/{id}/ledger ---

// AssignmentLedger returns the credit entries behind one assignment, the
// first thing support looks at for "was I charged / was I refunded".
func (h *Handler) AssignmentLedger(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"error":"invalid assignment id"}`, http.StatusBadRequest)
		return
	}

	entries, err := h.credits.ListByAssignmentID(r.Context(), id)
	if err != nil {
		h.log.Error("ops assignment ledger", "assignment_id", id, "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []*models.CreditLedger{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
