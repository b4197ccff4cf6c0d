package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/insuquote/backend/internal/ledger"
	"github.com/insuquote/backend/internal/models"
	"github.com/insuquote/backend/internal/notify"
)

// TxBeginner abstracts transaction creation so tests don't need a
// pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// DistributorAssignments is the assignment repository subset the
// distributor writes through.
type DistributorAssignments interface {
	CreateTx(ctx context.Context, tx pgx.Tx, a *models.Assignment) error
}

// EnqueueNotificationTxFunc enqueues a notification job within the given
// transaction. Typically a closure over river.Client.InsertTx.
type EnqueueNotificationTxFunc func(ctx context.Context, tx pgx.Tx, args notify.NotificationArgs) error

// Distributor turns a new lead into assignments: it walks the matcher's
// candidate order, charges each selected contractor through the ledger,
// and creates pending assignments until the lead's fan-out is satisfied.
type Distributor struct {
	Pool                TxBeginner
	Matcher             *Matcher
	Ledger              ledger.Service
	Assignments         DistributorAssignments
	EnqueueNotification EnqueueNotificationTxFunc
	Logger              *slog.Logger
}

func NewDistributor(
	pool TxBeginner,
	matcher *Matcher,
	ledgerSvc ledger.Service,
	assignments DistributorAssignments,
	enqueue EnqueueNotificationTxFunc,
	logger *slog.Logger,
) *Distributor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Distributor{
		Pool:                pool,
		Matcher:             matcher,
		Ledger:              ledgerSvc,
		Assignments:         assignments,
		EnqueueNotification: enqueue,
		Logger:              logger,
	}
}

// Distribute creates up to lead.FanOut() pending assignments. A candidate
// whose balance cannot cover the assignment is skipped silently and the
// next-ranked one takes its place; the result may therefore be shorter
// than the fan-out, or empty. Empty is not an error — upstream reports it
// as "no contractors available yet".
//
// Each assignment commits in its own transaction: debit, assignment row,
// and notification enqueue together. Cross-lead contention on a
// contractor's balance is resolved entirely by the ledger's conditional
// debit; the distributor holds no locks.
func (d *Distributor) Distribute(ctx context.Context, lead *models.Lead) ([]*models.Assignment, error) {
	candidates, err := d.Matcher.SelectCandidates(ctx, lead)
	if err != nil {
		return nil, err
	}

	fanOut := lead.FanOut()
	created := make([]*models.Assignment, 0, fanOut)
	for _, c := range candidates {
		if len(created) >= fanOut {
			break
		}
		a, err := d.assignOne(ctx, lead, c)
		if err != nil {
			if errors.Is(err, ledger.ErrInsufficientCredits) {
				d.Logger.Info("skipping unfunded contractor",
					"lead_id", lead.ID, "contractor_id", c.ID)
				continue
			}
			if isUniqueViolation(err) {
				// Raced with another distribution of the same lead.
				d.Logger.Warn("contractor already assigned this lead",
					"lead_id", lead.ID, "contractor_id", c.ID)
				continue
			}
			return created, err
		}
		created = append(created, a)
	}

	if len(created) == 0 {
		d.Logger.Info("no contractors available for lead", "lead_id", lead.ID, "city", lead.City, "state", lead.State)
	}
	return created, nil
}

// assignOne debits the contractor and creates the pending assignment in
// one transaction.
func (d *Distributor) assignOne(ctx context.Context, lead *models.Lead, c *models.Contractor) (*models.Assignment, error) {
	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	a := models.NewAssignment(lead.ID, c.ID)
	if err := d.Ledger.TryDebit(ctx, tx, c.ID, a.Cost, a.ID); err != nil {
		return nil, err
	}
	if err := d.Assignments.CreateTx(ctx, tx, a); err != nil {
		return nil, err
	}
	if err := d.EnqueueNotification(ctx, tx, notify.NotificationArgs{
		Event:        notify.EventAssignmentCreated,
		LeadID:       lead.ID,
		AssignmentID: a.ID,
		ContractorID: c.ID,
	}); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
