package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/insuquote/backend/internal/ledger"
	"github.com/insuquote/backend/internal/models"
	"github.com/insuquote/backend/internal/notify"
)

// QuoteAssignments is the assignment repository subset the quote flow
// needs.
type QuoteAssignments interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Assignment, error)
	SetQuote(ctx context.Context, id uuid.UUID, amountCents int64, notes string) (bool, error)
	MarkWonTx(ctx context.Context, tx pgx.Tx, id, leadID uuid.UUID) (bool, error)
	ListPendingByLeadTx(ctx context.Context, tx pgx.Tx, leadID uuid.UUID) ([]*models.Assignment, error)
	TransitionTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to string) (bool, error)
}

// QuoteLeads is the lead repository subset the quote flow needs.
type QuoteLeads interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Lead, error)
	MarkCompletedTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error)
}

// Quotes layers the pricing sub-flow on top of accepted assignments: a
// contractor attaches a quote, the customer later accepts exactly one.
type Quotes struct {
	Pool                TxBeginner
	Assignments         QuoteAssignments
	Leads               QuoteLeads
	Ledger              ledger.Service
	EnqueueNotification EnqueueNotificationTxFunc
	Logger              *slog.Logger
}

func NewQuotes(
	pool TxBeginner,
	assignments QuoteAssignments,
	leads QuoteLeads,
	ledgerSvc ledger.Service,
	enqueue EnqueueNotificationTxFunc,
	logger *slog.Logger,
) *Quotes {
	if logger == nil {
		logger = slog.Default()
	}
	return &Quotes{
		Pool:                pool,
		Assignments:         assignments,
		Leads:               leads,
		Ledger:              ledgerSvc,
		EnqueueNotification: enqueue,
		Logger:              logger,
	}
}

// SubmitQuote attaches a price to an accepted assignment. Quoting does
// not change the assignment status; re-submitting replaces the quote.
func (q *Quotes) SubmitQuote(ctx context.Context, assignmentID, contractorID uuid.UUID, amountCents int64, notes string) (*models.Assignment, error) {
	if amountCents <= 0 {
		return nil, fmt.Errorf("quote amount must be > 0")
	}

	a, err := q.Assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if a.ContractorID != contractorID {
		return nil, ErrForbidden
	}

	ok, err := q.Assignments.SetQuote(ctx, assignmentID, amountCents, notes)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: cannot quote while assignment is %s", ErrInvalidState, a.Status)
	}
	return q.Assignments.GetByID(ctx, assignmentID)
}

// AcceptQuote is the customer's terminal action on a lead: it marks the
// quoted assignment as won, completes the lead, expires-with-refund any
// sibling assignments still pending, and notifies the winning contractor.
// All of it commits in one transaction; a raced or repeated acceptance of
// the same assignment is a no-op returning the current row.
func (q *Quotes) AcceptQuote(ctx context.Context, leadID, assignmentID uuid.UUID) (*models.Assignment, error) {
	a, err := q.Assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if a.LeadID != leadID {
		return nil, ErrNotFound
	}
	if a.Won {
		return a, nil
	}
	if !a.HasQuote() || a.Status != models.AssignmentStatusAccepted {
		return nil, fmt.Errorf("%w: assignment is %s and has no accepted quote", ErrInvalidState, a.Status)
	}

	tx, err := q.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	won, err := q.Assignments.MarkWonTx(ctx, tx, assignmentID, leadID)
	if err != nil {
		return nil, err
	}
	if !won {
		// Lost a race; re-read and report what actually happened.
		current, err := q.Assignments.GetByID(ctx, assignmentID)
		if err != nil {
			return nil, err
		}
		if current.Won {
			return current, nil
		}
		return nil, fmt.Errorf("%w: assignment is %s", ErrInvalidState, current.Status)
	}

	completed, err := q.Leads.MarkCompletedTx(ctx, tx, leadID)
	if err != nil {
		return nil, err
	}
	if !completed {
		return nil, fmt.Errorf("%w: lead is no longer active", ErrInvalidState)
	}

	// Close out siblings nobody responded to. Their contractors get the
	// credit back; accepted siblings keep their consumed credit.
	pending, err := q.Assignments.ListPendingByLeadTx(ctx, tx, leadID)
	if err != nil {
		return nil, err
	}
	for _, sib := range pending {
		flipped, err := q.Assignments.TransitionTx(ctx, tx, sib.ID, models.AssignmentStatusPending, models.AssignmentStatusExpired)
		if err != nil {
			return nil, err
		}
		if flipped {
			if err := q.Ledger.Refund(ctx, tx, sib.ContractorID, sib.Cost, sib.ID); err != nil {
				return nil, err
			}
		}
	}

	if err := q.EnqueueNotification(ctx, tx, notify.NotificationArgs{
		Event:        notify.EventQuoteAccepted,
		LeadID:       leadID,
		AssignmentID: assignmentID,
		ContractorID: a.ContractorID,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	q.Logger.Info("quote accepted",
		"lead_id", leadID, "assignment_id", assignmentID,
		"contractor_id", a.ContractorID, "expired_siblings", len(pending))
	return q.Assignments.GetByID(ctx, assignmentID)
}
