package tenant_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediqcloud/mediq/svc/identity"
	"github.com/mediqcloud/mediq/svc/tenant"
)

func TestNew_BranchSelection(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	tenantID := uuid.New()
	branchA := uuid.New()
	branchB := uuid.New()

	t.Run("single accessible branch is auto-selected", func(t *testing.T) {
		t.Parallel()

		id := identity.Identity{UserID: userID, TenantID: tenantID, BranchIDs: []uuid.UUID{branchA}}
		tc, err := tenant.New(id, nil)
		require.NoError(t, err)

		selected, ok := tc.Branch()
		require.True(t, ok)
		assert.Equal(t, branchA, selected)
	})

	t.Run("zero branches leaves selection unset", func(t *testing.T) {
		t.Parallel()

		id := identity.Identity{UserID: userID, TenantID: tenantID}
		tc, err := tenant.New(id, nil)
		require.NoError(t, err)

		_, ok := tc.Branch()
		assert.False(t, ok)
	})

	t.Run("multiple branches without selection leaves selection unset", func(t *testing.T) {
		t.Parallel()

		id := identity.Identity{UserID: userID, TenantID: tenantID, BranchIDs: []uuid.UUID{branchA, branchB}}
		tc, err := tenant.New(id, nil)
		require.NoError(t, err)

		_, ok := tc.Branch()
		assert.False(t, ok)
	})

	t.Run("explicit accessible selection wins over auto-selection", func(t *testing.T) {
		t.Parallel()

		id := identity.Identity{UserID: userID, TenantID: tenantID, BranchIDs: []uuid.UUID{branchA, branchB}}
		tc, err := tenant.New(id, &branchB)
		require.NoError(t, err)

		selected, ok := tc.Branch()
		require.True(t, ok)
		assert.Equal(t, branchB, selected)
		assert.Equal(t, tenantID, tc.TenantID())
		assert.Equal(t, userID, tc.UserID())
	})

	t.Run("explicit inaccessible selection is denied", func(t *testing.T) {
		t.Parallel()

		outside := uuid.New()
		id := identity.Identity{UserID: userID, TenantID: tenantID, BranchIDs: []uuid.UUID{branchA, branchB}}
		tc, err := tenant.New(id, &outside)
		assert.ErrorIs(t, err, tenant.ErrBranchAccessDenied)
		assert.False(t, tc.Bound())
	})

	t.Run("identity without tenant or user is rejected", func(t *testing.T) {
		t.Parallel()

		_, err := tenant.New(identity.Identity{UserID: userID}, nil)
		assert.ErrorIs(t, err, tenant.ErrAuthenticationRequired)

		_, err = tenant.New(identity.Identity{TenantID: tenantID}, nil)
		assert.ErrorIs(t, err, tenant.ErrAuthenticationRequired)
	})
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	t.Run("fails before bind", func(t *testing.T) {
		t.Parallel()

		_, err := tenant.FromContext(context.Background())
		assert.ErrorIs(t, err, tenant.ErrContextNotSet)
	})

	t.Run("returns the bound context", func(t *testing.T) {
		t.Parallel()

		id := identity.Identity{UserID: uuid.New(), TenantID: uuid.New()}
		tc, err := tenant.New(id, nil)
		require.NoError(t, err)

		ctx := tenant.WithContext(context.Background(), tc)
		got, err := tenant.FromContext(ctx)
		require.NoError(t, err)
		assert.Equal(t, tc, got)
	})

	t.Run("zero context value does not satisfy lookup", func(t *testing.T) {
		t.Parallel()

		ctx := tenant.WithContext(context.Background(), tenant.Context{})
		_, err := tenant.FromContext(ctx)
		assert.ErrorIs(t, err, tenant.ErrContextNotSet)
	})
}

func TestRequireBranch(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	tenantID := uuid.New()
	branchA := uuid.New()

	t.Run("fails without bound context", func(t *testing.T) {
		t.Parallel()

		_, err := tenant.RequireBranch(context.Background())
		assert.ErrorIs(t, err, tenant.ErrContextNotSet)
	})

	t.Run("fails when no branch selected", func(t *testing.T) {
		t.Parallel()

		id := identity.Identity{UserID: userID, TenantID: tenantID}
		tc, err := tenant.New(id, nil)
		require.NoError(t, err)

		_, err = tenant.RequireBranch(tenant.WithContext(context.Background(), tc))
		assert.ErrorIs(t, err, tenant.ErrBranchRequired)
	})

	t.Run("returns the selected branch", func(t *testing.T) {
		t.Parallel()

		id := identity.Identity{UserID: userID, TenantID: tenantID, BranchIDs: []uuid.UUID{branchA}}
		tc, err := tenant.New(id, nil)
		require.NoError(t, err)

		got, err := tenant.RequireBranch(tenant.WithContext(context.Background(), tc))
		require.NoError(t, err)
		assert.Equal(t, branchA, got)
	})
}
