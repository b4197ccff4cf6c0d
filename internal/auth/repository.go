package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a pending contractor and its declared service areas.
func (r *Repository) Create(ctx context.Context, p RegisterParams, passwordHash string) (*Profile, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var id uuid.UUID
	var credits int
	row := tx.QueryRow(ctx, `
		INSERT INTO contractors (id, email, company_name, password_hash, status, founded_year, city, state, phone)
		VALUES ($1, $2, $3, $4, 'pending', $5, $6, $7, $8)
		RETURNING id, credits
	`, uuid.New(), p.Email, p.CompanyName, passwordHash, p.FoundedYear, p.City, p.State, p.Phone)
	if err := row.Scan(&id, &credits); err != nil {
		return nil, err
	}

	for _, area := range p.ServiceAreas {
		_, err := tx.Exec(ctx, `
			INSERT INTO contractor_service_areas (id, contractor_id, city, state)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (contractor_id, city, state) DO NOTHING
		`, uuid.New(), id, area.City, area.State)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &Profile{
		ID:          id,
		Email:       p.Email,
		CompanyName: p.CompanyName,
		Status:      "pending",
		Credits:     credits,
		City:        p.City,
		State:       p.State,
	}, nil
}

// GetByEmail returns the profile and password hash for login. Returns nil
// if not found.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*Profile, string, error) {
	var p Profile
	var passwordHash string
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, company_name, status, credits, city, state, password_hash
		FROM contractors WHERE email = $1
	`, email)
	if err := row.Scan(&p.ID, &p.Email, &p.CompanyName, &p.Status, &p.Credits, &p.City, &p.State, &passwordHash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", nil
		}
		return nil, "", err
	}
	return &p, passwordHash, nil
}
