package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"credentry/internal/registry/models"
	"credentry/pkg/domain"
	"credentry/pkg/platform/sentinel"
)

// Postgres stores one registry's records in the shared records table, scoped
// by kind. ID allocation and insert happen in one transaction against the
// per-kind counter row, so IDs stay sequential and failed inserts roll the
// counter back with the transaction.
type Postgres struct {
	pool *pgxpool.Pool
	kind models.Kind
}

func NewPostgres(pool *pgxpool.Pool, kind models.Kind) *Postgres {
	return &Postgres{pool: pool, kind: kind}
}

func (s *Postgres) Create(ctx context.Context, r *models.Record) (uint64, error) {
	payload, err := json.Marshal(r.Payload)
	if err != nil {
		return 0, fmt.Errorf("marshal payload: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var id uint64
	err = tx.QueryRow(ctx,
		`UPDATE record_counters SET last_id = last_id + 1 WHERE kind = $1 RETURNING last_id`,
		string(s.kind),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("allocate record id: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO records (kind, id, subject_id, authority_id, payload, status, restrictions, issued_at, verified_at, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		string(s.kind), id, r.SubjectID.String(), r.AuthorityID.String(), payload,
		string(r.Status), r.Restrictions, r.IssuedAt, r.VerifiedAt, r.ExpiresAt, r.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert record: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

func (s *Postgres) FindByID(ctx context.Context, id uint64) (*models.Record, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, subject_id, authority_id, payload, status, restrictions, issued_at, verified_at, expires_at, updated_at
		FROM records WHERE kind = $1 AND id = $2`,
		string(s.kind), id,
	)
	r, err := s.scan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return r, nil
}

func (s *Postgres) Update(ctx context.Context, r *models.Record) error {
	payload, err := json.Marshal(r.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE records
		SET subject_id = $3, authority_id = $4, payload = $5, status = $6, restrictions = $7,
		    issued_at = $8, verified_at = $9, expires_at = $10, updated_at = $11
		WHERE kind = $1 AND id = $2`,
		string(s.kind), r.ID, r.SubjectID.String(), r.AuthorityID.String(), payload,
		string(r.Status), r.Restrictions, r.IssuedAt, r.VerifiedAt, r.ExpiresAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) ListBySubject(ctx context.Context, subject domain.AccountID) ([]*models.Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, subject_id, authority_id, payload, status, restrictions, issued_at, verified_at, expires_at, updated_at
		FROM records WHERE kind = $1 AND subject_id = $2 ORDER BY id`,
		string(s.kind), subject.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []*models.Record
	for rows.Next() {
		r, err := s.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LastID returns the per-kind counter value.
func (s *Postgres) LastID(ctx context.Context) (uint64, error) {
	var id uint64
	err := s.pool.QueryRow(ctx,
		`SELECT last_id FROM record_counters WHERE kind = $1`, string(s.kind),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("query record counter: %w", err)
	}
	return id, nil
}

func (s *Postgres) scan(row pgx.Row) (*models.Record, error) {
	var (
		r       models.Record
		subject string
		auth    string
		payload []byte
		status  string
	)
	err := row.Scan(&r.ID, &subject, &auth, &payload, &status, &r.Restrictions,
		&r.IssuedAt, &r.VerifiedAt, &r.ExpiresAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, &r.Payload); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	r.Kind = s.kind
	r.SubjectID = domain.AccountID(subject)
	r.AuthorityID = domain.AccountID(auth)
	r.Status = models.Status(status)
	return &r, nil
}
