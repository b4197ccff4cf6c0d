package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/insuquote/backend/internal/ledger"
	"github.com/insuquote/backend/internal/models"
	"github.com/insuquote/backend/internal/notify"
)

// ---------------------------------------------------------------------------
// Shared in-memory mocks for the workflow services. They reproduce the
// production repository contracts (guarded transitions, conditional debit,
// idempotent refund) so the real service logic is exercised without a
// database.
// ---------------------------------------------------------------------------

// --- noopTx satisfies pgx.Tx for test use; only Commit/Rollback are called. ---

type noopTx struct{}

func (noopTx) Begin(context.Context) (pgx.Tx, error) { return noopTx{}, nil }
func (noopTx) Commit(context.Context) error          { return nil }
func (noopTx) Rollback(context.Context) error        { return nil }
func (noopTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (noopTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (noopTx) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }
func (noopTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (noopTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (noopTx) LargeObjects() pgx.LargeObjects                         { return pgx.LargeObjects{} }
func (noopTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (noopTx) Conn() *pgx.Conn { return nil }

// --- TxBeginner mock ---

type mockPool struct{}

func (mockPool) Begin(context.Context) (pgx.Tx, error) { return noopTx{}, nil }

// --- Ledger mock ---
//
// Mirrors the production ledger semantics: debit is conditional on the
// balance, refund is at-most-once per assignment.

type mockLedger struct {
	mu       sync.Mutex
	balances map[uuid.UUID]int
	entries  []*models.CreditLedger
	refunded map[uuid.UUID]bool
}

func newMockLedger() *mockLedger {
	return &mockLedger{
		balances: make(map[uuid.UUID]int),
		refunded: make(map[uuid.UUID]bool),
	}
}

var _ ledger.Service = (*mockLedger)(nil)

func (m *mockLedger) TryDebit(_ context.Context, _ pgx.Tx, contractorID uuid.UUID, amount int, assignmentID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balances[contractorID] < amount {
		return ledger.ErrInsufficientCredits
	}
	m.balances[contractorID] -= amount
	aid := assignmentID
	bal := m.balances[contractorID]
	m.entries = append(m.entries, &models.CreditLedger{
		ID:           uuid.New(),
		ContractorID: contractorID,
		AssignmentID: &aid,
		EntryType:    models.CreditEntryAssignmentDebit,
		Amount:       amount,
		BalanceAfter: &bal,
	})
	return nil
}

func (m *mockLedger) Refund(_ context.Context, _ pgx.Tx, contractorID uuid.UUID, amount int, assignmentID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.refunded[assignmentID] {
		return nil
	}
	m.refunded[assignmentID] = true
	m.balances[contractorID] += amount
	aid := assignmentID
	bal := m.balances[contractorID]
	m.entries = append(m.entries, &models.CreditLedger{
		ID:           uuid.New(),
		ContractorID: contractorID,
		AssignmentID: &aid,
		EntryType:    models.CreditEntryAssignmentRefund,
		Amount:       amount,
		BalanceAfter: &bal,
	})
	return nil
}

func (m *mockLedger) Topup(_ context.Context, contractorID uuid.UUID, amount int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[contractorID] += amount
	bal := m.balances[contractorID]
	m.entries = append(m.entries, &models.CreditLedger{
		ID:           uuid.New(),
		ContractorID: contractorID,
		EntryType:    models.CreditEntryTopup,
		Amount:       amount,
		BalanceAfter: &bal,
	})
	return bal, nil
}

func (m *mockLedger) balance(id uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[id]
}

func (m *mockLedger) byType(entryType string) []*models.CreditLedger {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.CreditLedger
	for _, e := range m.entries {
		if e.EntryType == entryType {
			out = append(out, e)
		}
	}
	return out
}

func (m *mockLedger) refundsFor(assignmentID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if e.EntryType == models.CreditEntryAssignmentRefund &&
			e.AssignmentID != nil && *e.AssignmentID == assignmentID {
			n++
		}
	}
	return n
}

func (m *mockLedger) all() []*models.CreditLedger {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.CreditLedger, len(m.entries))
	copy(out, m.entries)
	return out
}

// --- Assignment store mock ---
//
// Implements every assignment repository subset the services consume.
// Transitions are guarded on the expected from-status, matching the SQL
// `WHERE id = $1 AND status = $2` contract.

type mockAssignments struct {
	mu          sync.Mutex
	assignments map[uuid.UUID]*models.Assignment
	createErr   map[uuid.UUID]error // keyed by contractor ID
}

func newMockAssignments(as ...*models.Assignment) *mockAssignments {
	m := &mockAssignments{
		assignments: make(map[uuid.UUID]*models.Assignment),
		createErr:   make(map[uuid.UUID]error),
	}
	for _, a := range as {
		cp := *a
		m.assignments[a.ID] = &cp
	}
	return m
}

func (m *mockAssignments) GetByID(_ context.Context, id uuid.UUID) (*models.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assignments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (m *mockAssignments) CreateTx(_ context.Context, _ pgx.Tx, a *models.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.createErr[a.ContractorID]; ok {
		return err
	}
	cp := *a
	m.assignments[a.ID] = &cp
	return nil
}

func (m *mockAssignments) TransitionTx(_ context.Context, _ pgx.Tx, id uuid.UUID, from, to string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assignments[id]
	if !ok || a.Status != from {
		return false, nil
	}
	a.Status = to
	now := time.Now()
	a.RespondedAt = &now
	return true, nil
}

func (m *mockAssignments) SetQuote(_ context.Context, id uuid.UUID, amountCents int64, notes string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assignments[id]
	if !ok || a.Status != models.AssignmentStatusAccepted || a.Won {
		return false, nil
	}
	a.QuoteAmountCents = &amountCents
	a.QuoteNotes = &notes
	now := time.Now()
	a.QuotedAt = &now
	return true, nil
}

func (m *mockAssignments) MarkWonTx(_ context.Context, _ pgx.Tx, id, leadID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assignments[id]
	if !ok || a.LeadID != leadID || a.Status != models.AssignmentStatusAccepted ||
		a.QuoteAmountCents == nil || a.Won {
		return false, nil
	}
	a.Won = true
	return true, nil
}

func (m *mockAssignments) ListPendingByLeadTx(_ context.Context, _ pgx.Tx, leadID uuid.UUID) ([]*models.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Assignment
	for _, a := range m.assignments {
		if a.LeadID == leadID && a.Status == models.AssignmentStatusPending {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockAssignments) ListPendingBefore(_ context.Context, cutoff time.Time) ([]*models.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Assignment
	for _, a := range m.assignments {
		if a.Status == models.AssignmentStatusPending && a.CreatedAt.Before(cutoff) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockAssignments) ListByLeadID(_ context.Context, leadID uuid.UUID) ([]*models.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Assignment
	for _, a := range m.assignments {
		if a.LeadID == leadID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockAssignments) status(id uuid.UUID) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.assignments[id].Status
}

// --- Notification enqueue recorder ---

type enqueueRecorder struct {
	mu   sync.Mutex
	args []notify.NotificationArgs
}

func (e *enqueueRecorder) enqueue(_ context.Context, _ pgx.Tx, args notify.NotificationArgs) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.args = append(e.args, args)
	return nil
}

func (e *enqueueRecorder) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.args)
}

func (e *enqueueRecorder) byEvent(event string) []notify.NotificationArgs {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []notify.NotificationArgs
	for _, a := range e.args {
		if a.Event == event {
			out = append(out, a)
		}
	}
	return out
}

// --- Contractor directory mock ---
//
// Applies the production eligibility predicate: approved status and a
// case-insensitive city/state match, so area filtering is exercised on
// both selection paths.

type mockDirectory struct {
	contractors []*models.Contractor
}

func newMockDirectory(cs ...*models.Contractor) *mockDirectory {
	return &mockDirectory{contractors: cs}
}

func (m *mockDirectory) FindEligible(_ context.Context, city, state string, _ uuid.UUID) ([]*models.Contractor, error) {
	var out []*models.Contractor
	for _, c := range m.contractors {
		if c.Status != models.ContractorStatusApproved {
			continue
		}
		if !strings.EqualFold(c.City, city) || !strings.EqualFold(c.State, state) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// --- model builders ---

func makeContractor(rating float64, foundedYear int) *models.Contractor {
	return &models.Contractor{
		ID:          uuid.New(),
		Status:      models.ContractorStatusApproved,
		Rating:      rating,
		FoundedYear: foundedYear,
		City:        "Phoenix",
		State:       "AZ",
	}
}

func makeLead(pref string, chosen ...uuid.UUID) *models.Lead {
	return &models.Lead{
		ID:              uuid.New(),
		HomeownerName:   "Pat Harper",
		Email:           "pat@example.com",
		HomeSizeSqft:    1800,
		Areas:           []string{"attic"},
		City:            "Phoenix",
		State:           "AZ",
		Zip:             "85001",
		QuotePreference: pref,
		ChosenIDs:       chosen,
		Status:          models.LeadStatusActive,
	}
}

func makePendingAssignment(leadID, contractorID uuid.UUID, age time.Duration) *models.Assignment {
	a := models.NewAssignment(leadID, contractorID)
	a.CreatedAt = time.Now().Add(-age)
	return a
}
