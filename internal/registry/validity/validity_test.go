package validity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"credentry/internal/registry/models"
)

func TestRequiredStatus(t *testing.T) {
	assert.Equal(t, models.StatusVerified, RequiredStatus(models.KindQualification))
	assert.Equal(t, models.StatusActive, RequiredStatus(models.KindPrivilege))
	assert.Equal(t, models.StatusActive, RequiredStatus(models.KindPanel))
}

func TestEvaluateNilRecord(t *testing.T) {
	assert.False(t, Evaluate(nil, 0))
	assert.False(t, Evaluate(nil, 1_000_000))
}

func TestEvaluateStatus(t *testing.T) {
	tests := []struct {
		name   string
		kind   models.Kind
		status models.Status
		want   bool
	}{
		{"verified qualification", models.KindQualification, models.StatusVerified, true},
		{"unverified qualification", models.KindQualification, models.StatusUnverified, false},
		{"active qualification status fails", models.KindQualification, models.StatusActive, false},
		{"active privilege", models.KindPrivilege, models.StatusActive, true},
		{"suspended privilege", models.KindPrivilege, models.StatusSuspended, false},
		{"exact match only", models.KindPrivilege, models.Status("Active"), false},
		{"free-text tag fails", models.KindPanel, models.Status("pending-review"), false},
		{"active panel", models.KindPanel, models.StatusActive, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &models.Record{Kind: tt.kind, Status: tt.status, ExpiresAt: models.NeverExpires}
			assert.Equal(t, tt.want, Evaluate(r, 100))
		})
	}
}

func TestEvaluateExpiration(t *testing.T) {
	record := func(expiresAt uint64) *models.Record {
		return &models.Record{Kind: models.KindPrivilege, Status: models.StatusActive, ExpiresAt: expiresAt}
	}

	t.Run("sentinel zero never expires", func(t *testing.T) {
		r := record(models.NeverExpires)
		assert.True(t, Evaluate(r, 0))
		assert.True(t, Evaluate(r, 1))
		assert.True(t, Evaluate(r, ^uint64(0)))
	})

	t.Run("valid strictly below expiry, invalid at and beyond", func(t *testing.T) {
		const expiry = 1000
		r := record(expiry)
		assert.True(t, Evaluate(r, 0))
		assert.True(t, Evaluate(r, 999))
		assert.False(t, Evaluate(r, 1000))
		assert.False(t, Evaluate(r, 1001))
		assert.False(t, Evaluate(r, ^uint64(0)))
	})

	t.Run("expiry of one is invalid from height one", func(t *testing.T) {
		r := record(1)
		assert.True(t, Evaluate(r, 0))
		assert.False(t, Evaluate(r, 1))
	})
}
