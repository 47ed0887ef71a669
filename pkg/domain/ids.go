// Package domain holds the identity primitives shared by every registry.
//
// Identities are opaque, comparable account keys. The engine never inspects
// their encoding: whatever the authentication layer puts in the token subject
// is what the registries key on. Do not assume UUIDs, DIDs, or chain
// addresses.
package domain

import (
	"fmt"
	"strings"
)

// MaxAccountIDLen bounds identity keys the same way every other text field in
// the system is bounded.
const MaxAccountIDLen = 128

// AccountID is an opaque, cryptographically-authenticated account identity.
// It is the map key for authorities, admins, and record ownership.
type AccountID string

// ParseAccountID constructs an AccountID from external input.
// The only validation is non-emptiness and the length bound; the value is
// otherwise opaque.
func ParseAccountID(s string) (AccountID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("account id cannot be empty")
	}
	if len(s) > MaxAccountIDLen {
		return "", fmt.Errorf("account id must be %d characters or less", MaxAccountIDLen)
	}
	return AccountID(s), nil
}

// IsZero reports whether the identity is unset.
func (a AccountID) IsZero() bool {
	return a == ""
}

// String returns the raw identity value.
func (a AccountID) String() string {
	return string(a)
}
