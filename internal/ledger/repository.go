package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var errInsufficientCredits = errors.New("insufficient credits")

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// DebitTx runs inside the caller's transaction. The balance check and the
// decrement are one conditional UPDATE, so two concurrent debits against
// the same contractor can never both succeed on the last affordable slot.
// The same statement returns the new balance for the ledger entry.
func (r *Repository) DebitTx(ctx context.Context, tx pgx.Tx, contractorID uuid.UUID, amount int, assignmentID uuid.UUID) error {
	var balanceAfter int
	err := tx.QueryRow(ctx, `
		UPDATE contractors SET credits = credits - $1, updated_at = now()
		WHERE id = $2 AND credits >= $1
		RETURNING credits
	`, amount, contractorID).Scan(&balanceAfter)
	if errors.Is(err, pgx.ErrNoRows) {
		return errInsufficientCredits
	}
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO credit_ledger (id, contractor_id, assignment_id, entry_type, amount, balance_after)
		VALUES ($1, $2, $3, 'assignment_debit', $4, $5)
	`, uuid.New(), contractorID, assignmentID, amount, balanceAfter)
	return err
}

// RefundTx runs inside the caller's transaction. The refund entry is
// inserted first under the unique (assignment_id, entry_type) index; when
// the insert is a conflict no-op the assignment was already refunded and
// the balance is left untouched.
func (r *Repository) RefundTx(ctx context.Context, tx pgx.Tx, contractorID uuid.UUID, amount int, assignmentID uuid.UUID) error {
	entryID := uuid.New()
	tag, err := tx.Exec(ctx, `
		INSERT INTO credit_ledger (id, contractor_id, assignment_id, entry_type, amount)
		VALUES ($1, $2, $3, 'assignment_refund', $4)
		ON CONFLICT (assignment_id, entry_type) WHERE assignment_id IS NOT NULL DO NOTHING
	`, entryID, contractorID, assignmentID, amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return nil
	}
	var balanceAfter int
	err = tx.QueryRow(ctx, `
		UPDATE contractors SET credits = credits + $1, updated_at = now()
		WHERE id = $2
		RETURNING credits
	`, amount, contractorID).Scan(&balanceAfter)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		UPDATE credit_ledger SET balance_after = $1 WHERE id = $2
	`, balanceAfter, entryID)
	return err
}

// Topup credits a contractor's balance in its own transaction and records
// a topup entry. Payment capture happens upstream; this is the grant.
func (r *Repository) Topup(ctx context.Context, contractorID uuid.UUID, amount int) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)
	var balanceAfter int
	err = tx.QueryRow(ctx, `
		UPDATE contractors SET credits = credits + $1, updated_at = now()
		WHERE id = $2
		RETURNING credits
	`, amount, contractorID).Scan(&balanceAfter)
	if err != nil {
		return 0, err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO credit_ledger (id, contractor_id, entry_type, amount, balance_after)
		VALUES ($1, $2, 'topup', $3, $4)
	`, uuid.New(), contractorID, amount, balanceAfter)
	if err != nil {
		return 0, err
	}
	return balanceAfter, tx.Commit(ctx)
}
