package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/insuquote/backend/internal/ledger"
	"github.com/insuquote/backend/internal/models"
)

// DefaultResponseTimeout is how long a contractor has to respond to a
// pending assignment before the sweep expires it.
const DefaultResponseTimeout = 72 * time.Hour

// SweeperAssignments is the assignment repository subset the sweeper
// needs.
type SweeperAssignments interface {
	ListPendingBefore(ctx context.Context, cutoff time.Time) ([]*models.Assignment, error)
	ListByLeadID(ctx context.Context, leadID uuid.UUID) ([]*models.Assignment, error)
	TransitionTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to string) (bool, error)
}

// SweeperLeads is the lead repository subset the sweeper needs.
type SweeperLeads interface {
	MarkExpired(ctx context.Context, id uuid.UUID) (bool, error)
}

// Sweeper expires assignments that sat pending past the response timeout
// and refunds their credits. Safe to run from any process at any cadence:
// the transition is a guarded update and the refund is idempotent per
// assignment, so a sweep racing a late contractor response resolves to
// exactly one of the two outcomes.
type Sweeper struct {
	Pool        TxBeginner
	Assignments SweeperAssignments
	Leads       SweeperLeads
	Ledger      ledger.Service
	Timeout     time.Duration
	Logger      *slog.Logger
}

func NewSweeper(pool TxBeginner, assignments SweeperAssignments, leads SweeperLeads, ledgerSvc ledger.Service, timeout time.Duration, logger *slog.Logger) *Sweeper {
	if timeout <= 0 {
		timeout = DefaultResponseTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{Pool: pool, Assignments: assignments, Leads: leads, Ledger: ledgerSvc, Timeout: timeout, Logger: logger}
}

// ExpireOverdue returns how many assignments it expired. Each expiry
// commits in its own transaction so one bad row cannot wedge the sweep.
func (s *Sweeper) ExpireOverdue(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.Timeout)
	overdue, err := s.Assignments.ListPendingBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, a := range overdue {
		if err := s.expireOne(ctx, a); err != nil {
			s.Logger.Error("expire assignment failed", "assignment_id", a.ID, "error", err)
			continue
		}
		expired++
		if err := s.closeLeadIfDead(ctx, a.LeadID); err != nil {
			s.Logger.Error("close lead failed", "lead_id", a.LeadID, "error", err)
		}
	}
	if expired > 0 {
		s.Logger.Info("expired overdue assignments", "count", expired)
	}
	return expired, nil
}

func (s *Sweeper) expireOne(ctx context.Context, a *models.Assignment) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	flipped, err := s.Assignments.TransitionTx(ctx, tx, a.ID, models.AssignmentStatusPending, models.AssignmentStatusExpired)
	if err != nil {
		return err
	}
	if !flipped {
		// A contractor responded between the list and the flip.
		return nil
	}
	if err := s.Ledger.Refund(ctx, tx, a.ContractorID, a.Cost, a.ID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// closeLeadIfDead expires the lead once every assignment has reached
// declined or expired: nobody is going to quote, so the lead stops
// waiting. An accepted assignment keeps the lead open for the customer's
// decision. MarkExpired is guarded on status, so racing a concurrent
// acceptance is safe.
func (s *Sweeper) closeLeadIfDead(ctx context.Context, leadID uuid.UUID) error {
	siblings, err := s.Assignments.ListByLeadID(ctx, leadID)
	if err != nil {
		return err
	}
	for _, a := range siblings {
		if a.Status == models.AssignmentStatusPending || a.Status == models.AssignmentStatusAccepted {
			return nil
		}
	}
	flipped, err := s.Leads.MarkExpired(ctx, leadID)
	if err != nil {
		return err
	}
	if flipped {
		s.Logger.Info("lead expired with no contractor response", "lead_id", leadID)
	}
	return nil
}
