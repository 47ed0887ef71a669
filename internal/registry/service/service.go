// Package service implements the record ledger shared by the three
// registries. One Service instance per registry kind; each owns its record
// keyspace, its sequential ID counter, and an exclusive writer lock that
// stands in for the serialized transaction model the engine was designed
// around — every mutating call is all-or-nothing, and a failed precondition
// leaves no partial writes and consumes no ID.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	authoritymodels "credentry/internal/authority/models"
	"credentry/internal/ledger"
	"credentry/internal/platform/metrics"
	"credentry/internal/registry/models"
	"credentry/internal/registry/validity"
	"credentry/pkg/domain"
	dErrors "credentry/pkg/domain-errors"
	"credentry/pkg/platform/audit"
	"credentry/pkg/platform/sentinel"
	"credentry/pkg/requestcontext"
)

// RecordStore persists records for one registry. Create assigns the next
// sequential ID; Update replaces the full record.
type RecordStore interface {
	Create(ctx context.Context, r *models.Record) (uint64, error)
	FindByID(ctx context.Context, id uint64) (*models.Record, error)
	Update(ctx context.Context, r *models.Record) error
	ListBySubject(ctx context.Context, subject domain.AccountID) ([]*models.Record, error)
}

// AuthorityDirectory resolves issuing authorities. Backed by the authority
// registry's store; issuance requires the caller to be registered AND
// verified there.
type AuthorityDirectory interface {
	FindByID(ctx context.Context, id domain.AccountID) (*authoritymodels.Authority, error)
}

type Service struct {
	kind        models.Kind
	records     RecordStore
	authorities AuthorityDirectory
	clock       ledger.Clock

	// mu is the exclusive writer per registry. The original execution model
	// serialized every operation at the ledger; outside that, the
	// check-then-allocate sequence in Issue and the read-modify-write in the
	// mutators need equivalent mutual exclusion.
	mu sync.Mutex

	logger  *slog.Logger
	auditor audit.Publisher
	metrics *metrics.Metrics
	tracer  trace.Tracer
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

// New constructs the ledger service for one registry kind.
func New(kind models.Kind, records RecordStore, authorities AuthorityDirectory, clock ledger.Clock, opts ...Option) *Service {
	s := &Service{
		kind:        kind,
		records:     records,
		authorities: authorities,
		clock:       clock,
		logger:      slog.Default(),
		tracer:      otel.Tracer("credentry/registry"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Kind returns the registry kind this instance serves.
func (s *Service) Kind() models.Kind {
	return s.kind
}

// Issue creates a record on behalf of the calling authority. The caller must
// be registered (NotFound otherwise) and verified (Unauthorized otherwise);
// both checks happen before an ID is allocated, so failures consume nothing.
// The record is born in its valid status — verified for qualifications,
// active for privileges and panels — and stamped with the current height.
func (s *Service) Issue(ctx context.Context, subject domain.AccountID, payload models.Payload, expiresAt uint64) (uint64, error) {
	ctx, span := s.tracer.Start(ctx, "registry.issue",
		trace.WithAttributes(attribute.String("registry.kind", string(s.kind))))
	defer span.End()

	caller := requestcontext.CallerID(ctx)
	if caller.IsZero() {
		return 0, dErrors.New(dErrors.CodeUnauthorized, "caller identity required to issue")
	}
	if subject.IsZero() {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "subject identity cannot be empty")
	}
	if err := payload.Validate(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	authority, err := s.authorities.FindByID(ctx, caller)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return 0, dErrors.New(dErrors.CodeNotFound, "caller is not a registered authority")
		}
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve authority")
	}
	if !authority.Verified {
		return 0, dErrors.New(dErrors.CodeUnauthorized, "authority is not verified")
	}

	height := s.clock.Tick(ctx)
	record := &models.Record{
		Kind:        s.kind,
		SubjectID:   subject,
		AuthorityID: caller,
		Payload:     payload,
		Status:      validity.RequiredStatus(s.kind),
		IssuedAt:    height,
		ExpiresAt:   expiresAt,
		UpdatedAt:   height,
	}
	if s.kind == models.KindQualification {
		record.VerifiedAt = height
	}

	id, err := s.records.Create(ctx, record)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store record")
	}

	s.logger.InfoContext(ctx, "record issued",
		"registry", s.kind,
		"record_id", id,
		"authority_id", caller,
		"subject_id", subject,
		"expires_at", expiresAt,
		"height", height,
	)
	s.emit(ctx, audit.ActionRecordIssued, id, subject, height, "")
	s.countCreated("issued")
	return id, nil
}

// SelfReport creates an unverified qualification claimed by the caller about
// themselves, naming the authority expected to verify it later. There is no
// precondition on the named authority — it need not be registered or
// verified; verification simply remains impossible until it is the caller of
// Verify. Only the qualification registry offers this path.
func (s *Service) SelfReport(ctx context.Context, authorityID domain.AccountID, payload models.Payload, expiresAt uint64) (uint64, error) {
	ctx, span := s.tracer.Start(ctx, "registry.self_report",
		trace.WithAttributes(attribute.String("registry.kind", string(s.kind))))
	defer span.End()

	if s.kind != models.KindQualification {
		return 0, dErrors.Newf(dErrors.CodeInvalidInput, "self reporting is not available for %s records", s.kind)
	}
	caller := requestcontext.CallerID(ctx)
	if caller.IsZero() {
		return 0, dErrors.New(dErrors.CodeUnauthorized, "caller identity required to self-report")
	}
	if authorityID.IsZero() {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "authority identity cannot be empty")
	}
	if err := payload.Validate(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	height := s.clock.Tick(ctx)
	record := &models.Record{
		Kind:        s.kind,
		SubjectID:   caller,
		AuthorityID: authorityID,
		Payload:     payload,
		Status:      models.StatusUnverified,
		IssuedAt:    height,
		ExpiresAt:   expiresAt,
		UpdatedAt:   height,
	}

	id, err := s.records.Create(ctx, record)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store record")
	}

	s.logger.InfoContext(ctx, "record self-reported",
		"registry", s.kind,
		"record_id", id,
		"subject_id", caller,
		"authority_id", authorityID,
		"height", height,
	)
	s.emit(ctx, audit.ActionRecordSelfReported, id, caller, height, "")
	s.countCreated("self_reported")
	return id, nil
}

// Verify flips a self-reported qualification to verified. Only the authority
// the record names may call it — admins and other verified authorities get
// Unauthorized. The update is read-modify-write: everything except the
// status, verification stamp, and update stamp is preserved.
func (s *Service) Verify(ctx context.Context, recordID uint64) (*models.Record, error) {
	ctx, span := s.tracer.Start(ctx, "registry.verify",
		trace.WithAttributes(attribute.String("registry.kind", string(s.kind))))
	defer span.End()

	if s.kind != models.KindQualification {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "verification is not available for %s records", s.kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.ownedRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}

	height := s.clock.Tick(ctx)
	record.Status = models.StatusVerified
	record.VerifiedAt = height
	record.UpdatedAt = height
	if err := s.records.Update(ctx, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update record")
	}

	s.logger.InfoContext(ctx, "record verified",
		"registry", s.kind,
		"record_id", recordID,
		"authority_id", record.AuthorityID,
		"height", height,
	)
	s.emit(ctx, audit.ActionRecordVerified, recordID, record.SubjectID, height, "")
	s.countMutation("verify")
	return record, nil
}

// UpdateStatus sets a new status tag (and optionally replaces restrictions)
// on a privilege or panel record. Only the issuing authority may call it.
// The status vocabulary is open by design; validity evaluation only honors
// the exact conventional tag for the kind.
func (s *Service) UpdateStatus(ctx context.Context, recordID uint64, status models.Status, restrictions string) (*models.Record, error) {
	ctx, span := s.tracer.Start(ctx, "registry.update_status",
		trace.WithAttributes(attribute.String("registry.kind", string(s.kind))))
	defer span.End()

	if s.kind == models.KindQualification {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "qualification records change status through verification")
	}
	if _, err := models.ParseStatus(string(status)); err != nil {
		return nil, err
	}
	if len(restrictions) > models.MaxFreeTextLen {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "restrictions must be %d characters or less", models.MaxFreeTextLen)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.ownedRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}

	height := s.clock.Tick(ctx)
	record.Status = status
	record.Restrictions = restrictions
	record.UpdatedAt = height
	if err := s.records.Update(ctx, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update record")
	}

	s.logger.InfoContext(ctx, "record status updated",
		"registry", s.kind,
		"record_id", recordID,
		"status", status,
		"height", height,
	)
	s.emit(ctx, audit.ActionRecordStatusUpdated, recordID, record.SubjectID, height, string(status))
	s.countMutation("update_status")
	return record, nil
}

// Renew replaces the expiration height of a privilege or panel record. Only
// the issuing authority may call it. Everything but ExpiresAt and UpdatedAt
// is preserved.
func (s *Service) Renew(ctx context.Context, recordID uint64, expiresAt uint64) (*models.Record, error) {
	ctx, span := s.tracer.Start(ctx, "registry.renew",
		trace.WithAttributes(attribute.String("registry.kind", string(s.kind))))
	defer span.End()

	if s.kind == models.KindQualification {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "qualification records do not support renewal")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.ownedRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}

	height := s.clock.Tick(ctx)
	record.ExpiresAt = expiresAt
	record.UpdatedAt = height
	if err := s.records.Update(ctx, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update record")
	}

	s.logger.InfoContext(ctx, "record renewed",
		"registry", s.kind,
		"record_id", recordID,
		"expires_at", expiresAt,
		"height", height,
	)
	s.emit(ctx, audit.ActionRecordRenewed, recordID, record.SubjectID, height, "")
	s.countMutation("renew")
	return record, nil
}

// Get returns the record or NotFound. Reads carry no role requirement.
func (s *Service) Get(ctx context.Context, recordID uint64) (*models.Record, error) {
	record, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "record not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load record")
	}
	return record, nil
}

// ListBySubject returns all records about a provider, valid or not.
func (s *Service) ListBySubject(ctx context.Context, subject domain.AccountID) ([]*models.Record, error) {
	if subject.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "subject identity cannot be empty")
	}
	records, err := s.records.ListBySubject(ctx, subject)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list records")
	}
	return records, nil
}

// IsValid answers whether the record is currently usable: conventional
// status for its kind AND not expired at the current height. A missing
// record is false, never an error.
func (s *Service) IsValid(ctx context.Context, recordID uint64) (bool, error) {
	record, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.countValidity(false)
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load record")
	}
	valid := validity.Evaluate(record, s.clock.Height(ctx))
	s.countValidity(valid)
	return valid, nil
}

// ownedRecord loads a record and enforces that the caller is the authority
// fixed on it at creation. Callers hold s.mu.
func (s *Service) ownedRecord(ctx context.Context, recordID uint64) (*models.Record, error) {
	caller := requestcontext.CallerID(ctx)
	if caller.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "caller identity required")
	}
	record, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "record not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load record")
	}
	if record.AuthorityID != caller {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "only the issuing authority may modify this record")
	}
	return record, nil
}

func (s *Service) emit(ctx context.Context, action audit.Action, recordID uint64, subject domain.AccountID, height uint64, detail string) {
	if s.auditor == nil {
		return
	}
	ev := audit.NewEvent(action)
	ev.ActorID = requestcontext.CallerID(ctx).String()
	ev.SubjectID = subject.String()
	ev.Registry = string(s.kind)
	ev.RecordID = recordID
	ev.Height = height
	ev.Detail = detail
	ev.RequestID = requestcontext.RequestID(ctx)
	if err := s.auditor.Emit(ctx, ev); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "action", action, "error", err)
	}
}

func (s *Service) countCreated(path string) {
	if s.metrics != nil {
		s.metrics.RecordsCreated.WithLabelValues(string(s.kind), path).Inc()
	}
}

func (s *Service) countMutation(op string) {
	if s.metrics != nil {
		s.metrics.RecordMutations.WithLabelValues(string(s.kind), op).Inc()
	}
}

func (s *Service) countValidity(valid bool) {
	if s.metrics == nil {
		return
	}
	result := "invalid"
	if valid {
		result = "valid"
	}
	s.metrics.ValidityChecks.WithLabelValues(string(s.kind), result).Inc()
}
