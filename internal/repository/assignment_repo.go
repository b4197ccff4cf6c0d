package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/insuquote/backend/internal/models"
)

type AssignmentRepo struct {
	pool *pgxpool.Pool
}

func NewAssignmentRepo(pool *pgxpool.Pool) *AssignmentRepo {
	return &AssignmentRepo{pool: pool}
}

const assignmentColumns = `id, lead_id, contractor_id, status, cost, quote_amount_cents, quote_notes, won, responded_at, quoted_at, created_at, updated_at`

func scanAssignment(row interface{ Scan(...any) error }) (*models.Assignment, error) {
	var a models.Assignment
	err := row.Scan(&a.ID, &a.LeadID, &a.ContractorID, &a.Status, &a.Cost, &a.QuoteAmountCents, &a.QuoteNotes, &a.Won, &a.RespondedAt, &a.QuotedAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateTx inserts an assignment inside the caller's transaction. The
// unique (lead_id, contractor_id) constraint makes duplicate creation a
// storage error the caller can detect.
func (r *AssignmentRepo) CreateTx(ctx context.Context, tx pgx.Tx, a *models.Assignment) error {
	return tx.QueryRow(ctx, `
		INSERT INTO assignments (id, lead_id, contractor_id, status, cost)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, a.ID, a.LeadID, a.ContractorID, a.Status, a.Cost).Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (r *AssignmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Assignment, error) {
	return scanAssignment(r.pool.QueryRow(ctx, `
		SELECT `+assignmentColumns+` FROM assignments WHERE id = $1
	`, id))
}

func (r *AssignmentRepo) ListByLeadID(ctx context.Context, leadID uuid.UUID) ([]*models.Assignment, error) {
	return r.queryMany(ctx, `
		SELECT `+assignmentColumns+` FROM assignments
		WHERE lead_id = $1 ORDER BY created_at ASC
	`, leadID)
}

func (r *AssignmentRepo) ListByContractorID(ctx context.Context, contractorID uuid.UUID) ([]*models.Assignment, error) {
	return r.queryMany(ctx, `
		SELECT `+assignmentColumns+` FROM assignments
		WHERE contractor_id = $1 ORDER BY created_at DESC
	`, contractorID)
}

// TransitionTx flips status from -> to and stamps responded_at, all as one
// guarded update inside the caller's transaction. Returns false when the
// row was not in the expected state; racing callers observe that as a
// no-op rather than a double transition.
func (r *AssignmentRepo) TransitionTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to string) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE assignments SET status = $3, responded_at = now(), updated_at = now()
		WHERE id = $1 AND status = $2
	`, id, from, to)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// SetQuote attaches a quote to an accepted assignment. Guarded on
// status = 'accepted'; returns false when the assignment is in any other
// state. Re-submitting replaces the previous quote.
func (r *AssignmentRepo) SetQuote(ctx context.Context, id uuid.UUID, amountCents int64, notes string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE assignments SET quote_amount_cents = $2, quote_notes = $3, quoted_at = now(), updated_at = now()
		WHERE id = $1 AND status = 'accepted' AND won = FALSE
	`, id, amountCents, notes)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkWonTx sets the winning flag on a quoted, accepted assignment inside
// the caller's transaction. Guarded so only one acceptance can land.
func (r *AssignmentRepo) MarkWonTx(ctx context.Context, tx pgx.Tx, id, leadID uuid.UUID) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE assignments SET won = TRUE, updated_at = now()
		WHERE id = $1 AND lead_id = $2 AND status = 'accepted'
		  AND quote_amount_cents IS NOT NULL AND won = FALSE
	`, id, leadID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListPendingByLeadTx returns the lead's still-pending assignments with
// their rows locked, so the caller can expire them in the same transaction.
func (r *AssignmentRepo) ListPendingByLeadTx(ctx context.Context, tx pgx.Tx, leadID uuid.UUID) ([]*models.Assignment, error) {
	rows, err := tx.Query(ctx, `
		SELECT `+assignmentColumns+` FROM assignments
		WHERE lead_id = $1 AND status = 'pending'
		FOR UPDATE
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// ListPendingBefore returns assignments still pending past the cutoff,
// for the expiry sweep.
func (r *AssignmentRepo) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]*models.Assignment, error) {
	return r.queryMany(ctx, `
		SELECT `+assignmentColumns+` FROM assignments
		WHERE status = 'pending' AND created_at < $1
		ORDER BY created_at ASC
	`, cutoff)
}

func (r *AssignmentRepo) queryMany(ctx context.Context, sql string, args ...any) ([]*models.Assignment, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// Begin exposes the pool for callers composing multi-statement flows.
func (r *AssignmentRepo) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}
