package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/insuquote/backend/internal/middleware"
	"github.com/insuquote/backend/internal/models"
	"github.com/insuquote/backend/internal/services"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type mockResponderSvc struct {
	result       *models.Assignment
	err          error
	lastResponse string
}

func (m *mockResponderSvc) Respond(_ context.Context, _, _ uuid.UUID, response string) (*models.Assignment, error) {
	m.lastResponse = response
	return m.result, m.err
}

type mockQuoteSubmitter struct {
	result *models.Assignment
	err    error
}

func (m *mockQuoteSubmitter) SubmitQuote(_ context.Context, _, _ uuid.UUID, _ int64, _ string) (*models.Assignment, error) {
	return m.result, m.err
}

type mockContractorAssignments struct {
	list []*models.Assignment
}

func (m *mockContractorAssignments) ListByContractorID(_ context.Context, _ uuid.UUID) ([]*models.Assignment, error) {
	return m.list, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func authedRequest(method, url, body string, contractor *models.Contractor) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, url, nil)
	} else {
		req = httptest.NewRequest(method, url, strings.NewReader(body))
	}
	return req.WithContext(middleware.WithContractor(req.Context(), contractor))
}

func testContractor() *models.Contractor {
	return &models.Contractor{ID: uuid.New(), Status: models.ContractorStatusApproved}
}

// =====================================================================
// POST /v1/assignments/{id}/respond
// =====================================================================

func TestRespond_Accept(t *testing.T) {
	contractor := testContractor()
	a := models.NewAssignment(uuid.New(), contractor.ID)
	a.Status = models.AssignmentStatusAccepted

	resp := &mockResponderSvc{result: a}
	h := &AssignmentHandler{Responder: resp, Logger: slog.Default()}

	req := authedRequest(http.MethodPost, "/v1/assignments/"+a.ID.String()+"/respond",
		`{"response": "accept"}`, contractor)
	req.SetPathValue("id", a.ID.String())
	rec := httptest.NewRecorder()

	h.Respond(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if resp.lastResponse != models.ResponseAccept {
		t.Errorf("service got response %q, want accept", resp.lastResponse)
	}
	var got models.Assignment
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Status != models.AssignmentStatusAccepted {
		t.Errorf("status: got %s, want accepted", got.Status)
	}
}

func TestRespond_InvalidVerb(t *testing.T) {
	contractor := testContractor()
	h := &AssignmentHandler{Responder: &mockResponderSvc{}, Logger: slog.Default()}

	id := uuid.New()
	req := authedRequest(http.MethodPost, "/v1/assignments/"+id.String()+"/respond",
		`{"response": "maybe"}`, contractor)
	req.SetPathValue("id", id.String())
	rec := httptest.NewRecorder()

	h.Respond(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRespond_Unauthenticated(t *testing.T) {
	h := &AssignmentHandler{Responder: &mockResponderSvc{}, Logger: slog.Default()}

	id := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/assignments/"+id.String()+"/respond",
		strings.NewReader(`{"response": "accept"}`))
	req.SetPathValue("id", id.String())
	rec := httptest.NewRecorder()

	h.Respond(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRespond_ServiceErrors(t *testing.T) {
	contractor := testContractor()
	cases := []struct {
		err  error
		want int
	}{
		{services.ErrNotFound, http.StatusNotFound},
		{services.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("%w: assignment is expired", services.ErrInvalidState), http.StatusConflict},
	}

	for _, tc := range cases {
		h := &AssignmentHandler{Responder: &mockResponderSvc{err: tc.err}, Logger: slog.Default()}

		id := uuid.New()
		req := authedRequest(http.MethodPost, "/v1/assignments/"+id.String()+"/respond",
			`{"response": "decline"}`, contractor)
		req.SetPathValue("id", id.String())
		rec := httptest.NewRecorder()

		h.Respond(rec, req)

		if rec.Code != tc.want {
			t.Errorf("error %v: got status %d, want %d", tc.err, rec.Code, tc.want)
		}
	}
}

// =====================================================================
// POST /v1/assignments/{id}/quote
// =====================================================================

func TestSubmitQuote_Valid(t *testing.T) {
	contractor := testContractor()
	a := models.NewAssignment(uuid.New(), contractor.ID)
	a.Status = models.AssignmentStatusAccepted
	cents := int64(185000)
	a.QuoteAmountCents = &cents

	h := &AssignmentHandler{Quotes: &mockQuoteSubmitter{result: a}, Logger: slog.Default()}

	req := authedRequest(http.MethodPost, "/v1/assignments/"+a.ID.String()+"/quote",
		`{"amount_cents": 185000, "notes": "attic R-38"}`, contractor)
	req.SetPathValue("id", a.ID.String())
	rec := httptest.NewRecorder()

	h.SubmitQuote(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got models.Assignment
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.QuoteAmountCents == nil || *got.QuoteAmountCents != 185000 {
		t.Error("response should carry the quote")
	}
}

func TestSubmitQuote_NonPositiveAmount(t *testing.T) {
	contractor := testContractor()
	h := &AssignmentHandler{Quotes: &mockQuoteSubmitter{}, Logger: slog.Default()}

	id := uuid.New()
	req := authedRequest(http.MethodPost, "/v1/assignments/"+id.String()+"/quote",
		`{"amount_cents": 0}`, contractor)
	req.SetPathValue("id", id.String())
	rec := httptest.NewRecorder()

	h.SubmitQuote(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSubmitQuote_WrongState(t *testing.T) {
	contractor := testContractor()
	h := &AssignmentHandler{
		Quotes: &mockQuoteSubmitter{err: fmt.Errorf("%w: cannot quote while assignment is pending", services.ErrInvalidState)},
		Logger: slog.Default(),
	}

	id := uuid.New()
	req := authedRequest(http.MethodPost, "/v1/assignments/"+id.String()+"/quote",
		`{"amount_cents": 50000}`, contractor)
	req.SetPathValue("id", id.String())
	rec := httptest.NewRecorder()

	h.SubmitQuote(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

// =====================================================================
// GET /v1/assignments
// =====================================================================

func TestListAssignments(t *testing.T) {
	contractor := testContractor()
	list := []*models.Assignment{
		models.NewAssignment(uuid.New(), contractor.ID),
		models.NewAssignment(uuid.New(), contractor.ID),
	}
	h := &AssignmentHandler{Assignments: &mockContractorAssignments{list: list}, Logger: slog.Default()}

	req := authedRequest(http.MethodGet, "/v1/assignments", "", contractor)
	rec := httptest.NewRecorder()

	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got []*models.Assignment
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("assignments: got %d, want 2", len(got))
	}
}

func TestListAssignments_Empty(t *testing.T) {
	contractor := testContractor()
	h := &AssignmentHandler{Assignments: &mockContractorAssignments{}, Logger: slog.Default()}

	req := authedRequest(http.MethodGet, "/v1/assignments", "", contractor)
	rec := httptest.NewRecorder()

	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	// Empty list serializes as [], not null.
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("expected [] body, got %s", body)
	}
}
