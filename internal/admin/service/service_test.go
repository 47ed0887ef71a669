package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credentry/internal/admin/store"
	dErrors "credentry/pkg/domain-errors"
	"credentry/pkg/platform/audit"
	"credentry/pkg/testutil"
)

func newService(t *testing.T) (*Service, *audit.InMemoryLog) {
	t.Helper()
	log := audit.NewInMemoryLog()
	svc := New("owner", store.NewInMemory(), WithAuditPublisher(log))
	return svc, log
}

func TestAddAdmin(t *testing.T) {
	t.Run("owner grants membership", func(t *testing.T) {
		svc, log := newService(t)
		ctx := testutil.CallerContext("owner")

		require.NoError(t, svc.AddAdmin(ctx, "alice"))

		ok, err := svc.IsAdmin(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, ok)

		events := log.Events()
		require.Len(t, events, 1)
		assert.Equal(t, audit.ActionAdminAdded, events[0].Action)
		assert.Equal(t, "alice", events[0].SubjectID)
	})

	t.Run("non-owner is rejected", func(t *testing.T) {
		svc, _ := newService(t)
		ctx := testutil.CallerContext("alice")

		err := svc.AddAdmin(ctx, "bob")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

		ok, err := svc.IsAdmin(ctx, "bob")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("admins cannot grant membership", func(t *testing.T) {
		svc, _ := newService(t)
		require.NoError(t, svc.AddAdmin(testutil.CallerContext("owner"), "alice"))

		err := svc.AddAdmin(testutil.CallerContext("alice"), "bob")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("anonymous caller is rejected", func(t *testing.T) {
		svc, _ := newService(t)
		err := svc.AddAdmin(context.Background(), "alice")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("empty identity is rejected", func(t *testing.T) {
		svc, _ := newService(t)
		err := svc.AddAdmin(testutil.CallerContext("owner"), "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestRemoveAdmin(t *testing.T) {
	t.Run("owner revokes membership", func(t *testing.T) {
		svc, _ := newService(t)
		ctx := testutil.CallerContext("owner")
		require.NoError(t, svc.AddAdmin(ctx, "alice"))

		require.NoError(t, svc.RemoveAdmin(ctx, "alice"))

		ok, err := svc.IsAdmin(ctx, "alice")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("removing a non-admin is a no-op", func(t *testing.T) {
		svc, _ := newService(t)
		assert.NoError(t, svc.RemoveAdmin(testutil.CallerContext("owner"), "nobody"))
	})

	t.Run("non-owner is rejected", func(t *testing.T) {
		svc, _ := newService(t)
		ctx := testutil.CallerContext("owner")
		require.NoError(t, svc.AddAdmin(ctx, "alice"))

		err := svc.RemoveAdmin(testutil.CallerContext("alice"), "alice")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func TestIsAdmin(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	t.Run("unknown identity defaults to false", func(t *testing.T) {
		ok, err := svc.IsAdmin(ctx, "stranger")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("owner is not implicitly an admin", func(t *testing.T) {
		ok, err := svc.IsAdmin(ctx, "owner")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestListAdmins(t *testing.T) {
	svc, _ := newService(t)
	ctx := testutil.CallerContext("owner")
	require.NoError(t, svc.AddAdmin(ctx, "charlie"))
	require.NoError(t, svc.AddAdmin(ctx, "alice"))

	ids, err := svc.ListAdmins(ctx)
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.Equal(t, "alice", ids[0].String())
	assert.Equal(t, "charlie", ids[1].String())
}
