// Package service implements the authority registry: self-registration of
// issuing organizations and admin-controlled verification. An authority must
// be verified here before any record ledger accepts issuance from it.
package service

import (
	"context"
	"errors"
	"log/slog"

	"credentry/internal/authority/models"
	"credentry/internal/ledger"
	"credentry/internal/platform/metrics"
	"credentry/pkg/domain"
	dErrors "credentry/pkg/domain-errors"
	"credentry/pkg/platform/audit"
	"credentry/pkg/platform/sentinel"
	"credentry/pkg/requestcontext"
)

// AuthorityStore persists authorities keyed by their registering identity.
type AuthorityStore interface {
	Create(ctx context.Context, a *models.Authority) error
	FindByID(ctx context.Context, id domain.AccountID) (*models.Authority, error)
	Update(ctx context.Context, a *models.Authority) error
	List(ctx context.Context) ([]*models.Authority, error)
}

// AdminChecker answers admin-set membership. Backed by the shared
// authorization service.
type AdminChecker interface {
	IsAdmin(ctx context.Context, id domain.AccountID) (bool, error)
}

type Service struct {
	authorities AuthorityStore
	admins      AdminChecker
	clock       ledger.Clock
	logger      *slog.Logger
	auditor     audit.Publisher
	metrics     *metrics.Metrics
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

func New(authorities AuthorityStore, admins AdminChecker, clock ledger.Clock, opts ...Option) *Service {
	s := &Service{
		authorities: authorities,
		admins:      admins,
		clock:       clock,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an Authority keyed by the caller identity, unverified and
// active. An identity registers at most once: a second attempt returns
// AlreadyExists and leaves the first record untouched.
func (s *Service) Register(ctx context.Context, name string, category models.Category, website, location string) (*models.Authority, error) {
	caller := requestcontext.CallerID(ctx)
	if caller.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "caller identity required to register")
	}

	height := s.clock.Tick(ctx)
	authority, err := models.New(caller, name, category, website, location, height)
	if err != nil {
		return nil, err
	}

	if err := s.authorities.Create(ctx, authority); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeAlreadyExists, "authority already registered for this identity")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store authority")
	}

	s.logger.InfoContext(ctx, "authority registered",
		"authority_id", authority.ID,
		"category", authority.Category,
		"height", height,
	)
	s.emit(ctx, audit.ActionAuthorityRegistered, authority.ID, height, string(authority.Category))
	if s.metrics != nil {
		s.metrics.AuthoritiesRegistered.Inc()
	}
	return authority, nil
}

// SetVerified flips the admin-controlled verification flag. Admin-only;
// Unauthorized for everyone else (including the authority itself), NotFound
// for unknown authorities. Only the Verified flag changes — the update is a
// full-record replace built from the stored value.
func (s *Service) SetVerified(ctx context.Context, id domain.AccountID, verified bool) (*models.Authority, error) {
	caller := requestcontext.CallerID(ctx)
	isAdmin, err := s.admins.IsAdmin(ctx, caller)
	if err != nil {
		return nil, err
	}
	if !isAdmin {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "only admins may verify authorities")
	}

	authority, err := s.authorities.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "authority not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load authority")
	}

	height := s.clock.Tick(ctx)
	authority.Verified = verified
	authority.UpdatedAt = height
	if err := s.authorities.Update(ctx, authority); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update authority")
	}

	s.logger.InfoContext(ctx, "authority verification set",
		"authority_id", authority.ID,
		"verified", verified,
		"admin_id", caller,
		"height", height,
	)
	detail := "unverified"
	if verified {
		detail = "verified"
	}
	s.emit(ctx, audit.ActionAuthorityVerifySet, authority.ID, height, detail)
	if s.metrics != nil {
		s.metrics.AuthorityVerifySet.Inc()
	}
	return authority, nil
}

// Get returns the authority or NotFound. Reads carry no role requirement.
func (s *Service) Get(ctx context.Context, id domain.AccountID) (*models.Authority, error) {
	authority, err := s.authorities.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "authority not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load authority")
	}
	return authority, nil
}

// List returns all registered authorities.
func (s *Service) List(ctx context.Context) ([]*models.Authority, error) {
	authorities, err := s.authorities.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list authorities")
	}
	return authorities, nil
}

func (s *Service) emit(ctx context.Context, action audit.Action, id domain.AccountID, height uint64, detail string) {
	if s.auditor == nil {
		return
	}
	ev := audit.NewEvent(action)
	ev.ActorID = requestcontext.CallerID(ctx).String()
	ev.SubjectID = id.String()
	ev.Height = height
	ev.Detail = detail
	ev.RequestID = requestcontext.RequestID(ctx)
	if err := s.auditor.Emit(ctx, ev); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "action", action, "error", err)
	}
}
