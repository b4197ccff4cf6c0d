package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/insuquote/backend/internal/models"
)

type ContractorRepo struct {
	pool *pgxpool.Pool
}

func NewContractorRepo(pool *pgxpool.Pool) *ContractorRepo {
	return &ContractorRepo{pool: pool}
}

const contractorColumns = `id, email, company_name, password_hash, status, credits, rating, review_count, founded_year, city, state, phone, created_at, updated_at`

func scanContractor(row interface{ Scan(...any) error }) (*models.Contractor, error) {
	var c models.Contractor
	err := row.Scan(&c.ID, &c.Email, &c.CompanyName, &c.PasswordHash, &c.Status, &c.Credits, &c.Rating, &c.ReviewCount, &c.FoundedYear, &c.City, &c.State, &c.Phone, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ContractorRepo) Create(ctx context.Context, c *models.Contractor) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO contractors (id, email, company_name, password_hash, status, credits, rating, review_count, founded_year, city, state, phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`, c.ID, c.Email, c.CompanyName, c.PasswordHash, c.Status, c.Credits, c.Rating, c.ReviewCount, c.FoundedYear, c.City, c.State, c.Phone).Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *ContractorRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Contractor, error) {
	return scanContractor(r.pool.QueryRow(ctx, `
		SELECT `+contractorColumns+` FROM contractors WHERE id = $1
	`, id))
}

func (r *ContractorRepo) GetByEmail(ctx context.Context, email string) (*models.Contractor, error) {
	return scanContractor(r.pool.QueryRow(ctx, `
		SELECT `+contractorColumns+` FROM contractors WHERE email = $1
	`, email))
}

// SetRating overwrites a contractor's aggregate rating. Ratings are
// sourced from the review platform and pushed in by operators; they are
// never computed here.
func (r *ContractorRepo) SetRating(ctx context.Context, id uuid.UUID, rating float64, reviewCount int) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE contractors SET rating = $2, review_count = $3, updated_at = now()
		WHERE id = $1
	`, id, rating, reviewCount)
	return err
}

// UpdateStatus moves a contractor through the approval workflow
// (pending -> approved, approved -> suspended, ...).
func (r *ContractorRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE contractors SET status = $2, updated_at = now() WHERE id = $1
	`, id, status)
	return err
}

func (r *ContractorRepo) List(ctx context.Context) ([]*models.Contractor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+contractorColumns+` FROM contractors ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Contractor
	for rows.Next() {
		c, err := scanContractor(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// AddServiceArea registers an additional (city, state) the contractor serves.
func (r *ContractorRepo) AddServiceArea(ctx context.Context, contractorID uuid.UUID, city, state string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO contractor_service_areas (id, contractor_id, city, state)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (contractor_id, city, state) DO NOTHING
	`, uuid.New(), contractorID, city, state)
	return err
}

func (r *ContractorRepo) ListServiceAreas(ctx context.Context, contractorID uuid.UUID) ([]*models.ServiceArea, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, contractor_id, city, state
		FROM contractor_service_areas WHERE contractor_id = $1 ORDER BY state, city
	`, contractorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.ServiceArea
	for rows.Next() {
		var sa models.ServiceArea
		if err := rows.Scan(&sa.ID, &sa.ContractorID, &sa.City, &sa.State); err != nil {
			return nil, err
		}
		list = append(list, &sa)
	}
	return list, rows.Err()
}

// FindEligible returns approved, funded contractors serving (city, state)
// either as their home location or via a declared service area, excluding
// any contractor already assigned the given lead. Order is unspecified;
// ranking is the matcher's job.
func (r *ContractorRepo) FindEligible(ctx context.Context, city, state string, leadID uuid.UUID) ([]*models.Contractor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+contractorColumns+`
		FROM contractors c
		WHERE c.status = 'approved' AND c.credits > 0
		  AND (
			(lower(c.city) = lower($1) AND upper(c.state) = upper($2))
			OR EXISTS (
				SELECT 1 FROM contractor_service_areas sa
				WHERE sa.contractor_id = c.id
				  AND lower(sa.city) = lower($1) AND upper(sa.state) = upper($2)
			)
		  )
		  AND NOT EXISTS (
			SELECT 1 FROM assignments a
			WHERE a.lead_id = $3 AND a.contractor_id = c.id
		  )
	`, city, state, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Contractor
	for rows.Next() {
		c, err := scanContractor(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}
