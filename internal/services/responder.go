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
)

// ResponderAssignments is the assignment repository subset the responder
// needs.
type ResponderAssignments interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Assignment, error)
	TransitionTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to string) (bool, error)
}

// Responder owns the pending -> accepted/declined leg of the assignment
// state machine.
type Responder struct {
	Pool        TxBeginner
	Assignments ResponderAssignments
	Ledger      ledger.Service
	Logger      *slog.Logger
}

func NewResponder(pool TxBeginner, assignments ResponderAssignments, ledgerSvc ledger.Service, logger *slog.Logger) *Responder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{Pool: pool, Assignments: assignments, Ledger: ledgerSvc, Logger: logger}
}

// Respond applies a contractor's accept or decline. The transition is a
// guarded update on status = 'pending', so two racing calls are
// serialized by storage: the loser re-reads and either observes the same
// terminal state (idempotent no-op, returned as success) or a different
// one (rejected as ErrInvalidState — a late accept after the expiry sweep
// is never silently honored).
//
// Declining refunds the assignment's credits; the refund is idempotent
// per assignment, so a retried decline can never refund twice. Accepting
// consumes the credit: the contractor paid for the opportunity to quote.
func (r *Responder) Respond(ctx context.Context, assignmentID, contractorID uuid.UUID, response string) (*models.Assignment, error) {
	target, err := targetStatus(response)
	if err != nil {
		return nil, err
	}

	a, err := r.Assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if a.ContractorID != contractorID {
		return nil, ErrForbidden
	}

	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	flipped, err := r.Assignments.TransitionTx(ctx, tx, assignmentID, models.AssignmentStatusPending, target)
	if err != nil {
		return nil, err
	}
	if !flipped {
		// Lost the race or already responded; report the current state.
		current, err := r.Assignments.GetByID(ctx, assignmentID)
		if err != nil {
			return nil, err
		}
		if current.Status == target {
			return current, nil
		}
		return nil, fmt.Errorf("%w: assignment is %s", ErrInvalidState, current.Status)
	}

	if target == models.AssignmentStatusDeclined {
		if err := r.Ledger.Refund(ctx, tx, a.ContractorID, a.Cost, a.ID); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	r.Logger.Info("assignment responded",
		"assignment_id", assignmentID, "contractor_id", contractorID, "status", target)
	return r.Assignments.GetByID(ctx, assignmentID)
}

func targetStatus(response string) (string, error) {
	switch response {
	case models.ResponseAccept:
		return models.AssignmentStatusAccepted, nil
	case models.ResponseDecline:
		return models.AssignmentStatusDeclined, nil
	default:
		return "", fmt.Errorf("invalid response %q", response)
	}
}
