package tenant_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediqcloud/mediq/svc/identity"
	"github.com/mediqcloud/mediq/svc/tenant"
)

func bindRequest(t *testing.T, id *identity.Identity, branchHeader string) (*httptest.ResponseRecorder, *tenant.Context) {
	t.Helper()

	var bound *tenant.Context
	h := tenant.Bind(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tc, err := tenant.FromContext(r.Context())
		require.NoError(t, err)
		bound = &tc
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if branchHeader != "" {
		req.Header.Set(tenant.BranchHeader, branchHeader)
	}
	if id != nil {
		req = req.WithContext(identity.WithContext(req.Context(), *id))
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, bound
}

func TestBind(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	tenantID := uuid.New()
	branchA := uuid.New()
	branchB := uuid.New()

	t.Run("rejects requests without identity", func(t *testing.T) {
		t.Parallel()

		rec, bound := bindRequest(t, nil, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, bound)
	})

	t.Run("binds explicit branch from header", func(t *testing.T) {
		t.Parallel()

		id := identity.Identity{UserID: userID, TenantID: tenantID, BranchIDs: []uuid.UUID{branchA, branchB}}
		rec, bound := bindRequest(t, &id, branchB.String())

		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, bound)
		selected, ok := bound.Branch()
		require.True(t, ok)
		assert.Equal(t, branchB, selected)
	})

	t.Run("rejects inaccessible branch header with 403", func(t *testing.T) {
		t.Parallel()

		id := identity.Identity{UserID: userID, TenantID: tenantID, BranchIDs: []uuid.UUID{branchA, branchB}}
		rec, bound := bindRequest(t, &id, uuid.New().String())

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Nil(t, bound, "no context may be attached on denial")
	})

	t.Run("rejects malformed branch header with 400", func(t *testing.T) {
		t.Parallel()

		id := identity.Identity{UserID: userID, TenantID: tenantID, BranchIDs: []uuid.UUID{branchA}}
		rec, bound := bindRequest(t, &id, "not-a-uuid")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Nil(t, bound)
	})

	t.Run("auto-selects the only accessible branch", func(t *testing.T) {
		t.Parallel()

		id := identity.Identity{UserID: userID, TenantID: tenantID, BranchIDs: []uuid.UUID{branchA}}
		rec, bound := bindRequest(t, &id, "")

		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, bound)
		selected, ok := bound.Branch()
		require.True(t, ok)
		assert.Equal(t, branchA, selected)
	})

	t.Run("ambiguous branch set binds without selection", func(t *testing.T) {
		t.Parallel()

		id := identity.Identity{UserID: userID, TenantID: tenantID, BranchIDs: []uuid.UUID{branchA, branchB}}
		rec, bound := bindRequest(t, &id, "")

		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, bound)
		_, ok := bound.Branch()
		assert.False(t, ok)
	})
}

func TestRequireBranchMiddleware(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	tenantID := uuid.New()
	branchA := uuid.New()

	run := func(t *testing.T, id identity.Identity) *httptest.ResponseRecorder {
		t.Helper()

		called := false
		chain := tenant.Bind(nil)(
			tenant.RequireBranchMiddleware(nil)(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }),
			),
		)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(identity.WithContext(req.Context(), id))
		rec := httptest.NewRecorder()
		chain.ServeHTTP(rec, req)

		if rec.Code == http.StatusOK {
			assert.True(t, called)
		} else {
			assert.False(t, called)
		}
		return rec
	}

	t.Run("passes with a selected branch", func(t *testing.T) {
		t.Parallel()

		rec := run(t, identity.Identity{UserID: userID, TenantID: tenantID, BranchIDs: []uuid.UUID{branchA}})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects with 403 when no branch is selected", func(t *testing.T) {
		t.Parallel()

		rec := run(t, identity.Identity{UserID: userID, TenantID: tenantID})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
