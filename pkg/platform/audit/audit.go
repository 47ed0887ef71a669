// Package audit defines transport-agnostic audit events emitted from domain
// logic. Stores and sinks fan out from the Publisher interface: the in-memory
// log serves tests and dev mode, the kafka subpackage publishes to a broker
// when one is configured.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Action names the audited operation.
type Action string

const (
	ActionAuthorityRegistered Action = "authority_registered"
	ActionAuthorityVerifySet  Action = "authority_verification_set"
	ActionRecordIssued        Action = "record_issued"
	ActionRecordSelfReported  Action = "record_self_reported"
	ActionRecordVerified      Action = "record_verified"
	ActionRecordStatusUpdated Action = "record_status_updated"
	ActionRecordRenewed       Action = "record_renewed"
	ActionAdminAdded          Action = "admin_added"
	ActionAdminRemoved        Action = "admin_removed"
)

// Event captures one audited state transition. ActorID is the authenticated
// caller; SubjectID is the provider or identity the action is about, when
// there is one. Height is the ledger height the operation was stamped with.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	ActorID   string    `json:"actor_id,omitempty"`
	SubjectID string    `json:"subject_id,omitempty"`
	Registry  string    `json:"registry,omitempty"`
	RecordID  uint64    `json:"record_id,omitempty"`
	Height    uint64    `json:"height,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

// Publisher delivers events to wherever they are retained. Emit must not
// block domain operations on sink latency beyond what the implementation
// promises; failures are the caller's to log, not to propagate to users.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// NewEvent stamps an event with an ID and wall-clock timestamp. The ledger
// height goes in Height; the wall clock exists only for audit forensics and
// never feeds validity decisions.
func NewEvent(action Action) Event {
	return Event{ID: uuid.New(), Timestamp: time.Now().UTC(), Action: action}
}
