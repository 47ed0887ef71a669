// Package validity is the pure read-only predicate answering "is this record
// currently usable". It combines the status convention for the record's kind
// with the expiration check against the current ledger height. Nothing here
// mutates state or returns errors: an absent record is simply not valid.
package validity

import (
	"credentry/internal/registry/models"
)

// RequiredStatus returns the exact status a record of the given kind must
// carry to be valid: qualifications must be verified, privileges and panel
// memberships must be "active". The match is exact, not a set-membership
// test — "suspended", "revoked", or any other tag fails it.
func RequiredStatus(kind models.Kind) models.Status {
	if kind == models.KindQualification {
		return models.StatusVerified
	}
	return models.StatusActive
}

// Evaluate reports whether the record is valid at the given ledger height.
// A nil record is never valid. ExpiresAt of 0 means the record never
// expires; otherwise the record is valid strictly below its expiration
// height and invalid at and beyond it.
func Evaluate(r *models.Record, height uint64) bool {
	if r == nil {
		return false
	}
	if r.Status != RequiredStatus(r.Kind) {
		return false
	}
	return r.ExpiresAt == models.NeverExpires || r.ExpiresAt > height
}
