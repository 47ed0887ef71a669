package models

import (
	"strings"

	"credentry/pkg/domain"
	dErrors "credentry/pkg/domain-errors"
)

// Kind selects which of the three registries a record belongs to. Each kind
// has its own keyspace and its own sequential ID counter.
type Kind string

const (
	KindQualification Kind = "qualification"
	KindPrivilege     Kind = "privilege"
	KindPanel         Kind = "panel"
)

// Kinds lists every registry kind, in the order they are mounted.
func Kinds() []Kind {
	return []Kind{KindQualification, KindPrivilege, KindPanel}
}

// Status is a free-text status tag. The engine deliberately does not enforce
// a closed vocabulary: any owning authority may set any string. The constants
// below are the documented convention, and validity evaluation matches them
// exactly.
type Status string

const (
	// StatusUnverified marks a self-reported qualification awaiting
	// verification by its named authority.
	StatusUnverified Status = "unverified"
	// StatusVerified is the valid state for qualifications.
	StatusVerified Status = "verified"
	// StatusActive is the valid state for privileges and panel memberships.
	StatusActive Status = "active"
	// StatusSuspended appears in practice on privileges; listed for
	// documentation only, nothing enforces it.
	StatusSuspended Status = "suspended"
)

// Field bounds shared by all record payloads.
const (
	MaxCodeLen     = 20
	MaxNameLen     = 100
	MaxTagLen      = 50
	MaxFreeTextLen = 500
	MaxStatusLen   = 20
)

// Payload carries the kind-specific descriptive fields of a record. The
// engine treats the content as opaque: beyond length bounds it never
// interprets these values. Which fields a given registry populates is a
// caller convention — procedure code/name for privileges, qualification
// type/name for qualifications, network name/tier/specialties for panels.
type Payload struct {
	Code        string `json:"code,omitempty"`
	Name        string `json:"name,omitempty"`
	Type        string `json:"type,omitempty"`
	Network     string `json:"network,omitempty"`
	Tier        string `json:"tier,omitempty"`
	Specialties string `json:"specialties,omitempty"`
	Metadata    string `json:"metadata,omitempty"`
}

// Validate enforces the payload field bounds.
func (p Payload) Validate() error {
	switch {
	case len(p.Code) > MaxCodeLen:
		return dErrors.Newf(dErrors.CodeInvalidInput, "code must be %d characters or less", MaxCodeLen)
	case len(p.Name) > MaxNameLen:
		return dErrors.Newf(dErrors.CodeInvalidInput, "name must be %d characters or less", MaxNameLen)
	case len(p.Type) > MaxTagLen:
		return dErrors.Newf(dErrors.CodeInvalidInput, "type must be %d characters or less", MaxTagLen)
	case len(p.Network) > MaxNameLen:
		return dErrors.Newf(dErrors.CodeInvalidInput, "network must be %d characters or less", MaxNameLen)
	case len(p.Tier) > MaxTagLen:
		return dErrors.Newf(dErrors.CodeInvalidInput, "tier must be %d characters or less", MaxTagLen)
	case len(p.Specialties) > MaxFreeTextLen:
		return dErrors.Newf(dErrors.CodeInvalidInput, "specialties must be %d characters or less", MaxFreeTextLen)
	case len(p.Metadata) > MaxFreeTextLen:
		return dErrors.Newf(dErrors.CodeInvalidInput, "metadata must be %d characters or less", MaxFreeTextLen)
	}
	return nil
}

// ParseStatus bounds-checks a status tag from external input. It does NOT
// restrict the vocabulary — free text is accepted by design.
func ParseStatus(s string) (Status, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "status cannot be empty")
	}
	if len(s) > MaxStatusLen {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "status must be %d characters or less", MaxStatusLen)
	}
	return Status(s), nil
}

// NeverExpires is the ExpiresAt sentinel meaning the record has no
// expiration.
const NeverExpires uint64 = 0

// Record is one credential entry: a qualification, a hospital privilege, or a
// panel membership. All timestamps are ledger heights.
//
// Invariants:
//   - ID is sequential per kind, assigned at creation, never reused
//   - AuthorityID is fixed at creation; only that authority may mutate the
//     record afterwards
//   - mutation is read-modify-write over the whole record, never a partial
//     patch
type Record struct {
	ID           uint64           `json:"id"`
	Kind         Kind             `json:"kind"`
	SubjectID    domain.AccountID `json:"subject_id"`
	AuthorityID  domain.AccountID `json:"authority_id"`
	Payload      Payload          `json:"payload"`
	Status       Status           `json:"status"`
	Restrictions string           `json:"restrictions,omitempty"`
	IssuedAt     uint64           `json:"issued_at"`
	VerifiedAt   uint64           `json:"verified_at,omitempty"`
	ExpiresAt    uint64           `json:"expires_at"`
	UpdatedAt    uint64           `json:"updated_at"`
}

// Clone returns a deep copy for read-modify-write updates and for stores
// handing out values.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	cp := *r
	return &cp
}
