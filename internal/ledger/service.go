package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Service is the only writer of contractor credit balances. Both
// operations compose into a caller-owned transaction so a balance
// mutation and the state change that justifies it commit together.
type Service interface {
	// TryDebit charges amount credits for an assignment, or returns
	// ErrInsufficientCredits. Callers treat that as a normal outcome
	// (skip the candidate), not a failure.
	TryDebit(ctx context.Context, tx pgx.Tx, contractorID uuid.UUID, amount int, assignmentID uuid.UUID) error
	// Refund returns amount credits for an assignment. Idempotent per
	// assignment: refunding twice is a no-op.
	Refund(ctx context.Context, tx pgx.Tx, contractorID uuid.UUID, amount int, assignmentID uuid.UUID) error
	// Topup grants purchased credits and returns the new balance.
	Topup(ctx context.Context, contractorID uuid.UUID, amount int) (int, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) Service {
	return &service{repo: repo}
}

var _ Service = (*service)(nil)

func (s *service) TryDebit(ctx context.Context, tx pgx.Tx, contractorID uuid.UUID, amount int, assignmentID uuid.UUID) error {
	return s.repo.DebitTx(ctx, tx, contractorID, amount, assignmentID)
}

func (s *service) Refund(ctx context.Context, tx pgx.Tx, contractorID uuid.UUID, amount int, assignmentID uuid.UUID) error {
	return s.repo.RefundTx(ctx, tx, contractorID, amount, assignmentID)
}

func (s *service) Topup(ctx context.Context, contractorID uuid.UUID, amount int) (int, error) {
	return s.repo.Topup(ctx, contractorID, amount)
}

// ErrInsufficientCredits is returned by TryDebit when the contractor's
// balance cannot cover the assignment.
var ErrInsufficientCredits = errInsufficientCredits
