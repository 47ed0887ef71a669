package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"credentry/internal/registry/models"
	"credentry/pkg/domain"
)

// backend is what Cached wraps: any record store.
type backend interface {
	Create(ctx context.Context, r *models.Record) (uint64, error)
	FindByID(ctx context.Context, id uint64) (*models.Record, error)
	Update(ctx context.Context, r *models.Record) error
	ListBySubject(ctx context.Context, subject domain.AccountID) ([]*models.Record, error)
}

// Cached is a read-through Redis cache in front of a record store. Single
// record reads dominate the workload (every validity check is one), so only
// FindByID is cached; list reads and all writes go straight through, and
// writes refresh the cached entry. Cache failures degrade to the backing
// store — they are logged, never surfaced.
type Cached struct {
	inner  backend
	rdb    *redis.Client
	kind   models.Kind
	ttl    time.Duration
	logger *slog.Logger
}

func NewCached(inner backend, rdb *redis.Client, kind models.Kind, ttl time.Duration, logger *slog.Logger) *Cached {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{inner: inner, rdb: rdb, kind: kind, ttl: ttl, logger: logger}
}

func (c *Cached) key(id uint64) string {
	return fmt.Sprintf("credentry:record:%s:%d", c.kind, id)
}

func (c *Cached) Create(ctx context.Context, r *models.Record) (uint64, error) {
	id, err := c.inner.Create(ctx, r)
	if err != nil {
		return 0, err
	}
	stored := r.Clone()
	stored.ID = id
	c.set(ctx, stored)
	return id, nil
}

func (c *Cached) FindByID(ctx context.Context, id uint64) (*models.Record, error) {
	data, err := c.rdb.Get(ctx, c.key(id)).Bytes()
	if err == nil {
		var r models.Record
		if err := json.Unmarshal(data, &r); err == nil {
			return &r, nil
		}
		c.logger.Warn("dropping undecodable cache entry", "key", c.key(id))
		c.rdb.Del(ctx, c.key(id))
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("record cache read failed", "key", c.key(id), "error", err)
	}

	r, err := c.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.set(ctx, r)
	return r, nil
}

func (c *Cached) Update(ctx context.Context, r *models.Record) error {
	if err := c.inner.Update(ctx, r); err != nil {
		return err
	}
	c.set(ctx, r)
	return nil
}

func (c *Cached) ListBySubject(ctx context.Context, subject domain.AccountID) ([]*models.Record, error) {
	return c.inner.ListBySubject(ctx, subject)
}

func (c *Cached) set(ctx context.Context, r *models.Record) {
	data, err := json.Marshal(r)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, c.key(r.ID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("record cache write failed", "key", c.key(r.ID), "error", err)
	}
}
