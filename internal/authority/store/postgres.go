package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"credentry/internal/authority/models"
	"credentry/pkg/domain"
	"credentry/pkg/platform/sentinel"
)

// Postgres persists authorities. The primary key on the identity column
// enforces the one-authority-per-identity invariant at the store level.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) Create(ctx context.Context, a *models.Authority) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO authorities (id, name, category, website, location, verified, active, registered_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID.String(), a.Name, string(a.Category), a.Website, a.Location,
		a.Verified, a.Active, a.RegisteredAt, a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert authority: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.AccountID) (*models.Authority, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, category, website, location, verified, active, registered_at, updated_at
		FROM authorities WHERE id = $1`, id.String(),
	)
	a, err := scanAuthority(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (s *Postgres) Update(ctx context.Context, a *models.Authority) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE authorities
		SET name = $2, category = $3, website = $4, location = $5, verified = $6, active = $7, registered_at = $8, updated_at = $9
		WHERE id = $1`,
		a.ID.String(), a.Name, string(a.Category), a.Website, a.Location,
		a.Verified, a.Active, a.RegisteredAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update authority: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) List(ctx context.Context) ([]*models.Authority, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, category, website, location, verified, active, registered_at, updated_at
		FROM authorities ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query authorities: %w", err)
	}
	defer rows.Close()

	var out []*models.Authority
	for rows.Next() {
		a, err := scanAuthority(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAuthority(row pgx.Row) (*models.Authority, error) {
	var (
		a        models.Authority
		id       string
		category string
	)
	err := row.Scan(&id, &a.Name, &category, &a.Website, &a.Location,
		&a.Verified, &a.Active, &a.RegisteredAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.ID = domain.AccountID(id)
	a.Category = models.Category(category)
	return &a, nil
}

// isUniqueViolation matches Postgres error code 23505 without importing
// pgconn into every call site.
func isUniqueViolation(err error) bool {
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
