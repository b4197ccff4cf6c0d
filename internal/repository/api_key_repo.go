package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/insuquote/backend/internal/models"
)

type APIKeyRepo struct {
	pool *pgxpool.Pool
}

func NewAPIKeyRepo(pool *pgxpool.Pool) *APIKeyRepo {
	return &APIKeyRepo{pool: pool}
}

// APIKeyWithContractor is returned by FindByKeyHash (api_key joined with
// its contractor).
type APIKeyWithContractor struct {
	APIKey     models.APIKey
	Contractor models.Contractor
}

func (r *APIKeyRepo) Create(ctx context.Context, k *models.APIKey) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO api_keys (id, contractor_id, key_hash, key_prefix, is_active)
		VALUES ($1, $2, $3, $4, $5)
	`, k.ID, k.ContractorID, k.KeyHash, k.KeyPrefix, k.IsActive)
	return err
}

func (r *APIKeyRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM api_keys WHERE id = $1", id)
	return err
}

func (r *APIKeyRepo) ListByContractorID(ctx context.Context, contractorID uuid.UUID) ([]*models.APIKey, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, contractor_id, key_hash, key_prefix, is_active
		FROM api_keys WHERE contractor_id = $1
	`, contractorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.ContractorID, &k.KeyHash, &k.KeyPrefix, &k.IsActive); err != nil {
			return nil, err
		}
		list = append(list, &k)
	}
	return list, rows.Err()
}

// FindByKeyHash returns the active key with the given hash, joined with
// its contractor.
func (r *APIKeyRepo) FindByKeyHash(ctx context.Context, keyHash string) (*APIKeyWithContractor, error) {
	var out APIKeyWithContractor
	err := r.pool.QueryRow(ctx, `
		SELECT k.id, k.contractor_id, k.key_hash, k.key_prefix, k.is_active,
		       c.id, c.email, c.company_name, c.password_hash, c.status, c.credits, c.rating, c.review_count, c.founded_year, c.city, c.state, c.phone, c.created_at, c.updated_at
		FROM api_keys k
		INNER JOIN contractors c ON c.id = k.contractor_id
		WHERE k.key_hash = $1 AND k.is_active = TRUE
	`, keyHash).Scan(
		&out.APIKey.ID, &out.APIKey.ContractorID, &out.APIKey.KeyHash, &out.APIKey.KeyPrefix, &out.APIKey.IsActive,
		&out.Contractor.ID, &out.Contractor.Email, &out.Contractor.CompanyName, &out.Contractor.PasswordHash, &out.Contractor.Status, &out.Contractor.Credits, &out.Contractor.Rating, &out.Contractor.ReviewCount, &out.Contractor.FoundedYear, &out.Contractor.City, &out.Contractor.State, &out.Contractor.Phone, &out.Contractor.CreatedAt, &out.Contractor.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
