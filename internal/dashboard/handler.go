package dashboard

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/insuquote/backend/internal/auth"
	"github.com/insuquote/backend/internal/ledger"
	"github.com/insuquote/backend/internal/models"
	"github.com/insuquote/backend/internal/repository"
)

// Handler serves the contractor dashboard under /api/v1 (JWT auth).
type Handler struct {
	authSvc     auth.Service
	contractorR *repository.ContractorRepo
	creditR     *repository.CreditRepo
	apiKeyR     *repository.APIKeyRepo
	assignmentR *repository.AssignmentRepo
	ledgerSvc   ledger.Service
	log         *slog.Logger
}

func NewHandler(
	authSvc auth.Service,
	contractorR *repository.ContractorRepo,
	creditR *repository.CreditRepo,
	apiKeyR *repository.APIKeyRepo,
	assignmentR *repository.AssignmentRepo,
	ledgerSvc ledger.Service,
	log *slog.Logger,
) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		authSvc:     authSvc,
		contractorR: contractorR,
		creditR:     creditR,
		apiKeyR:     apiKeyR,
		assignmentR: assignmentR,
		ledgerSvc:   ledgerSvc,
		log:         log,
	}
}

func (h *Handler) contractorIDFromRequest(r *http.Request) (uuid.UUID, error) {
	authz := r.Header.Get("Authorization")
	if authz == "" {
		return uuid.Nil, fmt.Errorf("missing authorization")
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(authz, prefix) {
		return uuid.Nil, fmt.Errorf("bad authorization format")
	}
	token := strings.TrimSpace(authz[len(prefix):])
	if token == "" {
		return uuid.Nil, fmt.Errorf("empty token")
	}
	return h.authSvc.ValidateToken(r.Context(), token)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// GET /api/v1/account/me
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	contractorID, err := h.contractorIDFromRequest(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	c, err := h.contractorR.GetByID(r.Context(), contractorID)
	if err != nil {
		h.log.Error("get contractor failed", "error", err)
		http.Error(w, "contractor not found", http.StatusNotFound)
		return
	}
	areas, err := h.contractorR.ListServiceAreas(r.Context(), contractorID)
	if err != nil {
		h.log.Error("list service areas failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if areas == nil {
		areas = []*models.ServiceArea{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":            c.ID,
		"email":         c.Email,
		"company_name":  c.CompanyName,
		"status":        c.Status,
		"credits":       c.Credits,
		"rating":        c.Rating,
		"review_count":  c.ReviewCount,
		"founded_year":  c.FoundedYear,
		"city":          c.City,
		"state":         c.State,
		"service_areas": areas,
		"created_at":    c.CreatedAt,
	})
}

// POST /api/v1/service-areas
func (h *Handler) AddServiceArea(w http.ResponseWriter, r *http.Request) {
	contractorID, err := h.contractorIDFromRequest(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var body struct {
		City  string `json:"city"`
		State string `json:"state"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if body.City == "" || body.State == "" {
		http.Error(w, "city and state are required", http.StatusBadRequest)
		return
	}
	if err := h.contractorR.AddServiceArea(r.Context(), contractorID, body.City, body.State); err != nil {
		h.log.Error("add service area failed", "error", err)
		http.Error(w, "add failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
}

// GET /api/v1/credit-ledger
func (h *Handler) ListCreditLedger(w http.ResponseWriter, r *http.Request) {
	contractorID, err := h.contractorIDFromRequest(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	entries, err := h.creditR.ListByContractorID(r.Context(), contractorID)
	if err != nil {
		h.log.Error("list credit ledger failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []*models.CreditLedger{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// POST /api/v1/credits/topup
// Payment capture happens upstream; this records the grant.
func (h *Handler) Topup(w http.ResponseWriter, r *http.Request) {
	contractorID, err := h.contractorIDFromRequest(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var body struct {
		Amount int `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if body.Amount <= 0 {
		http.Error(w, "amount must be > 0", http.StatusBadRequest)
		return
	}
	balance, err := h.ledgerSvc.Topup(r.Context(), contractorID, body.Amount)
	if err != nil {
		h.log.Error("topup failed", "error", err)
		http.Error(w, "topup failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"credits": balance})
}

// GET /api/v1/assignments
func (h *Handler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	contractorID, err := h.contractorIDFromRequest(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	list, err := h.assignmentR.ListByContractorID(r.Context(), contractorID)
	if err != nil {
		h.log.Error("list assignments failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []*models.Assignment{}
	}
	writeJSON(w, http.StatusOK, list)
}

// GET /api/v1/api-keys
func (h *Handler) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	contractorID, err := h.contractorIDFromRequest(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	keys, err := h.apiKeyR.ListByContractorID(r.Context(), contractorID)
	if err != nil {
		h.log.Error("list api keys failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if keys == nil {
		keys = []*models.APIKey{}
	}
	writeJSON(w, http.StatusOK, keys)
}

// POST /api/v1/api-keys
func (h *Handler) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	contractorID, err := h.contractorIDFromRequest(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		http.Error(w, "key generation failed", http.StatusInternalServerError)
		return
	}
	rawKey := "isq_" + hex.EncodeToString(rawBytes)
	hash := sha256.Sum256([]byte(rawKey))
	keyHash := hex.EncodeToString(hash[:])
	keyPrefix := rawKey[:12]

	k := &models.APIKey{
		ID:           uuid.New(),
		ContractorID: contractorID,
		KeyHash:      keyHash,
		KeyPrefix:    keyPrefix,
		IsActive:     true,
	}
	if err := h.apiKeyR.Create(r.Context(), k); err != nil {
		h.log.Error("create api key failed", "error", err)
		http.Error(w, "create failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":         k.ID,
		"key_prefix": k.KeyPrefix,
		"is_active":  k.IsActive,
		"raw_key":    rawKey,
	})
}

// DELETE /api/v1/api-keys/{id}
func (h *Handler) DeleteAPIKey(w http.ResponseWriter, r *http.Request) {
	contractorID, err := h.contractorIDFromRequest(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	keyID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid key id", http.StatusBadRequest)
		return
	}
	keys, err := h.apiKeyR.ListByContractorID(r.Context(), contractorID)
	if err != nil {
		h.log.Error("list api keys failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	owned := false
	for _, k := range keys {
		if k.ID == keyID {
			owned = true
			break
		}
	}
	if !owned {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err := h.apiKeyR.Delete(r.Context(), keyID); err != nil {
		h.log.Error("delete api key failed", "error", err)
		http.Error(w, "delete failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
