// Package service implements the shared identity/authorization primitive.
//
// One admin set serves all three registries — the per-registry copies the
// system grew from kept drifting (inconsistent error codes between them), so
// authorization lives in exactly one place. A distinguished owner identity,
// fixed at startup, manages the set. The owner is not a map entry and
// therefore cannot be removed through any exposed operation.
package service

import (
	"context"
	"log/slog"

	"credentry/internal/platform/metrics"
	"credentry/pkg/domain"
	dErrors "credentry/pkg/domain-errors"
	"credentry/pkg/platform/audit"
	"credentry/pkg/requestcontext"
)

// AdminStore persists the admin set.
type AdminStore interface {
	Put(ctx context.Context, id domain.AccountID) error
	Delete(ctx context.Context, id domain.AccountID) error
	Exists(ctx context.Context, id domain.AccountID) (bool, error)
	List(ctx context.Context) ([]domain.AccountID, error)
}

type Service struct {
	owner   domain.AccountID
	admins  AdminStore
	logger  *slog.Logger
	auditor audit.Publisher
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(p audit.Publisher) Option {
	return func(s *Service) { s.auditor = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs the authorization service around the owner identity.
func New(owner domain.AccountID, admins AdminStore, opts ...Option) *Service {
	s := &Service{owner: owner, admins: admins, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddAdmin grants admin membership to an identity. Owner-only; any other
// caller gets Unauthorized and the set is untouched.
func (s *Service) AddAdmin(ctx context.Context, id domain.AccountID) error {
	if err := s.requireOwner(ctx); err != nil {
		return err
	}
	if id.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "admin identity cannot be empty")
	}
	if err := s.admins.Put(ctx, id); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store admin")
	}
	s.logger.InfoContext(ctx, "admin added", "admin_id", id)
	s.emit(ctx, audit.ActionAdminAdded, id)
	s.countChange("add")
	return nil
}

// RemoveAdmin revokes admin membership. Owner-only. Removing an identity
// that is not an admin is a no-op, not an error: the map semantics are
// "authorized or not", and clearing an absent entry lands in the same state.
func (s *Service) RemoveAdmin(ctx context.Context, id domain.AccountID) error {
	if err := s.requireOwner(ctx); err != nil {
		return err
	}
	if id.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "admin identity cannot be empty")
	}
	if err := s.admins.Delete(ctx, id); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove admin")
	}
	s.logger.InfoContext(ctx, "admin removed", "admin_id", id)
	s.emit(ctx, audit.ActionAdminRemoved, id)
	s.countChange("remove")
	return nil
}

// IsAdmin reports admin membership. Unknown identities are simply not
// admins — absence is not an error. The owner is not implicitly an admin;
// owner privilege applies only to admin-set management.
func (s *Service) IsAdmin(ctx context.Context, id domain.AccountID) (bool, error) {
	ok, err := s.admins.Exists(ctx, id)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check admin membership")
	}
	return ok, nil
}

// ListAdmins returns the current admin set.
func (s *Service) ListAdmins(ctx context.Context) ([]domain.AccountID, error) {
	ids, err := s.admins.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list admins")
	}
	return ids, nil
}

// Owner exposes the owner identity for wiring and diagnostics.
func (s *Service) Owner() domain.AccountID {
	return s.owner
}

func (s *Service) requireOwner(ctx context.Context) error {
	caller := requestcontext.CallerID(ctx)
	if caller.IsZero() || caller != s.owner {
		return dErrors.New(dErrors.CodeUnauthorized, "only the owner may manage admins")
	}
	return nil
}

func (s *Service) emit(ctx context.Context, action audit.Action, id domain.AccountID) {
	if s.auditor == nil {
		return
	}
	ev := audit.NewEvent(action)
	ev.ActorID = requestcontext.CallerID(ctx).String()
	ev.SubjectID = id.String()
	ev.RequestID = requestcontext.RequestID(ctx)
	if err := s.auditor.Emit(ctx, ev); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "action", action, "error", err)
	}
}

func (s *Service) countChange(op string) {
	if s.metrics != nil {
		s.metrics.AdminChanges.WithLabelValues(op).Inc()
	}
}
