package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"credentry/pkg/domain"
)

// Postgres persists the admin set as bare identity rows; presence means
// authorized.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) Put(ctx context.Context, id domain.AccountID) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO admins (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, id.String())
	if err != nil {
		return fmt.Errorf("insert admin: %w", err)
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, id domain.AccountID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM admins WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("delete admin: %w", err)
	}
	return nil
}

func (s *Postgres) Exists(ctx context.Context, id domain.AccountID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM admins WHERE id = $1)`, id.String()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query admin: %w", err)
	}
	return exists, nil
}

func (s *Postgres) List(ctx context.Context) ([]domain.AccountID, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM admins ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query admins: %w", err)
	}
	defer rows.Close()

	var out []domain.AccountID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, domain.AccountID(id))
	}
	return out, rows.Err()
}
