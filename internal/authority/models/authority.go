package models

import (
	"strings"

	"credentry/pkg/domain"
	dErrors "credentry/pkg/domain-errors"
)

// Category classifies the kind of organization behind an authority.
// Hospitals register without a category.
type Category string

const (
	CategoryIssuer  Category = "issuer"
	CategoryInsurer Category = "insurer"
	CategoryNone    Category = ""
)

var validCategories = map[Category]bool{
	CategoryIssuer:  true,
	CategoryInsurer: true,
	CategoryNone:    true,
}

// ParseCategory validates a category from external input.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.TrimSpace(strings.ToLower(s)))
	if !validCategories[c] {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown authority category %q", s)
	}
	return c, nil
}

// Field bounds for authority registration input.
const (
	MaxNameLen     = 100
	MaxWebsiteLen  = 200
	MaxLocationLen = 200
)

// Authority is one issuing organization: a credential issuer, a hospital, or
// an insurer. There is at most one Authority per account identity — the
// registering caller IS the key.
//
// Invariants:
//   - ID equals the identity that registered and never changes
//   - Verified is admin-controlled; it is the only field any operation
//     mutates after registration
//   - Active is set true at registration; no operation clears it
//     (deliberate gap — there is no deactivation path yet)
type Authority struct {
	ID           domain.AccountID `json:"id"`
	Name         string           `json:"name"`
	Category     Category         `json:"category,omitempty"`
	Website      string           `json:"website,omitempty"`
	Location     string           `json:"location,omitempty"`
	Verified     bool             `json:"verified"`
	Active       bool             `json:"active"`
	RegisteredAt uint64           `json:"registered_at"`
	UpdatedAt    uint64           `json:"updated_at"`
}

// New constructs an unverified, active Authority at the given ledger height,
// enforcing the field bounds.
func New(id domain.AccountID, name string, category Category, website, location string, height uint64) (*Authority, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "authority name cannot be empty")
	}
	if len(name) > MaxNameLen {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "authority name must be %d characters or less", MaxNameLen)
	}
	if len(website) > MaxWebsiteLen {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "website must be %d characters or less", MaxWebsiteLen)
	}
	if len(location) > MaxLocationLen {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "location must be %d characters or less", MaxLocationLen)
	}
	if !validCategories[category] {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown authority category %q", category)
	}
	return &Authority{
		ID:           id,
		Name:         name,
		Category:     category,
		Website:      strings.TrimSpace(website),
		Location:     strings.TrimSpace(location),
		Verified:     false,
		Active:       true,
		RegisteredAt: height,
		UpdatedAt:    height,
	}, nil
}

// Clone returns a deep copy so stores can hand out values without aliasing
// their internal state.
func (a *Authority) Clone() *Authority {
	if a == nil {
		return nil
	}
	cp := *a
	return &cp
}
