package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/insuquote/backend/internal/models"
	"github.com/insuquote/backend/internal/services"
)

// LeadRepoForHandler is the subset of the lead repository needed here.
type LeadRepoForHandler interface {
	Create(ctx context.Context, l *models.Lead) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Lead, error)
}

// AssignmentLister returns a lead's assignments for the customer view.
type AssignmentLister interface {
	ListByLeadID(ctx context.Context, leadID uuid.UUID) ([]*models.Assignment, error)
}

// LeadDistributor abstracts lead distribution.
type LeadDistributor interface {
	Distribute(ctx context.Context, lead *models.Lead) ([]*models.Assignment, error)
}

// QuoteAcceptor abstracts customer quote acceptance.
type QuoteAcceptor interface {
	AcceptQuote(ctx context.Context, leadID, assignmentID uuid.UUID) (*models.Assignment, error)
}

// LeadHandler serves the /v1/leads endpoints: intake, customer view, and
// quote acceptance.
type LeadHandler struct {
	Leads       LeadRepoForHandler
	Assignments AssignmentLister
	Distributor LeadDistributor
	Quotes      QuoteAcceptor
	Validator   *services.Validator
	Logger      *slog.Logger
}

// --- POST /v1/leads ---

type createLeadRequest struct {
	HomeownerName   string   `json:"homeowner_name"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	HomeSizeSqft    int      `json:"home_size_sqft"`
	Areas           []string `json:"areas"`
	InsulationTypes []string `json:"insulation_types"`
	City            string   `json:"city"`
	State           string   `json:"state"`
	Zip             string   `json:"zip"`
	QuotePreference string   `json:"quote_preference"`
	ChosenIDs       []string `json:"chosen_contractor_ids"`
}

type createLeadResponse struct {
	LeadID             string `json:"lead_id"`
	Status             string `json:"status"`
	AssignmentsCreated int    `json:"assignments_created"`
	Message            string `json:"message,omitempty"`
}

// CreateLead handles POST /v1/leads: validate intake -> persist lead ->
// distribute -> 202. Zero assignments is reported as "no contractors
// available yet", not an error.
func (h *LeadHandler) CreateLead(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, `{"error":"failed to read body"}`, http.StatusBadRequest)
		return
	}

	if err := h.Validator.ValidateIntake(body); err != nil {
		if errors.Is(err, services.ErrValidation) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
			return
		}
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}

	var req createLeadRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}

	chosen, err := parseChosenIDs(req.ChosenIDs)
	if err != nil {
		http.Error(w, `{"error":"invalid chosen_contractor_ids"}`, http.StatusBadRequest)
		return
	}
	if req.QuotePreference == models.QuotePrefChooseThree && len(chosen) == 0 {
		http.Error(w, `{"error":"choose_three requires chosen_contractor_ids"}`, http.StatusBadRequest)
		return
	}

	lead := &models.Lead{
		ID:              uuid.New(),
		HomeownerName:   req.HomeownerName,
		Email:           req.Email,
		Phone:           req.Phone,
		HomeSizeSqft:    req.HomeSizeSqft,
		Areas:           req.Areas,
		InsulationTypes: req.InsulationTypes,
		City:            req.City,
		State:           req.State,
		Zip:             req.Zip,
		QuotePreference: req.QuotePreference,
		ChosenIDs:       chosen,
		Status:          models.LeadStatusActive,
	}
	if err := h.Leads.Create(r.Context(), lead); err != nil {
		h.Logger.Error("create lead", "error", err)
		http.Error(w, `{"error":"failed to create lead"}`, http.StatusInternalServerError)
		return
	}

	assignments, err := h.Distributor.Distribute(r.Context(), lead)
	if err != nil {
		// The lead is saved but fan-out stopped early. Nothing retries a
		// half-distributed lead automatically; operations re-runs it from
		// the saved record. Report what was created so far.
		h.Logger.Error("distribute lead", "lead_id", lead.ID, "error", err)
	}

	resp := createLeadResponse{
		LeadID:             lead.ID.String(),
		Status:             lead.Status,
		AssignmentsCreated: len(assignments),
	}
	if len(assignments) == 0 {
		resp.Message = "no contractors available yet"
	}
	writeJSON(w, http.StatusAccepted, resp)
}

// --- GET /v1/leads/{id} ---

// GetLead handles GET /v1/leads/{id}: the customer view of a lead and its
// assignments.
func (h *LeadHandler) GetLead(w http.ResponseWriter, r *http.Request) {
	leadID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"error":"invalid lead id"}`, http.StatusBadRequest)
		return
	}

	lead, err := h.Leads.GetByID(r.Context(), leadID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, `{"error":"lead not found"}`, http.StatusNotFound)
			return
		}
		h.Logger.Error("get lead", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	assignments, err := h.Assignments.ListByLeadID(r.Context(), leadID)
	if err != nil {
		h.Logger.Error("list lead assignments", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if assignments == nil {
		assignments = []*models.Assignment{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"lead":        lead,
		"assignments": assignments,
	})
}

// --- POST /v1/leads/{id}/accept-quote ---

type acceptQuoteRequest struct {
	AssignmentID string `json:"assignment_id"`
}

// AcceptQuote handles POST /v1/leads/{id}/accept-quote — the customer
// picks the winning contractor.
func (h *LeadHandler) AcceptQuote(w http.ResponseWriter, r *http.Request) {
	leadID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"error":"invalid lead id"}`, http.StatusBadRequest)
		return
	}

	var req acceptQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	assignmentID, err := uuid.Parse(req.AssignmentID)
	if err != nil {
		http.Error(w, `{"error":"invalid assignment_id"}`, http.StatusBadRequest)
		return
	}

	a, err := h.Quotes.AcceptQuote(r.Context(), leadID, assignmentID)
	if err != nil {
		writeServiceError(w, h.Logger, "accept quote", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func parseChosenIDs(raw []string) ([]uuid.UUID, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
