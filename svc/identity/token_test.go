package identity_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediqcloud/mediq/svc/identity"
)

const testSecret = "test-secret-key-at-least-32-bytes!!"

func newProvider(t *testing.T) *identity.TokenProvider {
	t.Helper()
	p, err := identity.NewTokenProvider(testSecret)
	require.NoError(t, err)
	return p
}

func requestWithToken(t *testing.T, p *identity.TokenProvider, claims identity.Claims) *http.Request {
	t.Helper()
	token, err := p.Generate(claims)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestNewTokenProvider(t *testing.T) {
	t.Parallel()

	_, err := identity.NewTokenProvider("")
	assert.ErrorIs(t, err, identity.ErrMissingSecret)
}

func TestTokenProvider_Resolve(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	tenantID := uuid.New()
	branchA := uuid.New()
	branchB := uuid.New()

	t.Run("valid token resolves full identity", func(t *testing.T) {
		t.Parallel()

		p := newProvider(t)
		req := requestWithToken(t, p, identity.Claims{
			Subject:   userID.String(),
			TenantID:  tenantID.String(),
			BranchIDs: []string{branchA.String(), branchB.String()},
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		})

		id, err := p.Resolve(req)
		require.NoError(t, err)
		assert.Equal(t, userID, id.UserID)
		assert.Equal(t, tenantID, id.TenantID)
		assert.Equal(t, []uuid.UUID{branchA, branchB}, id.BranchIDs)
		assert.True(t, id.CanAccessBranch(branchA))
		assert.False(t, id.CanAccessBranch(uuid.New()))
	})

	t.Run("missing authorization header", func(t *testing.T) {
		t.Parallel()

		p := newProvider(t)
		_, err := p.Resolve(httptest.NewRequest(http.MethodGet, "/", nil))
		assert.ErrorIs(t, err, identity.ErrUnauthorized)
	})

	t.Run("expired token", func(t *testing.T) {
		t.Parallel()

		p := newProvider(t)
		req := requestWithToken(t, p, identity.Claims{
			Subject:   userID.String(),
			TenantID:  tenantID.String(),
			ExpiresAt: time.Now().Add(-time.Minute).Unix(),
		})

		_, err := p.Resolve(req)
		assert.ErrorIs(t, err, identity.ErrUnauthorized)
		assert.ErrorIs(t, err, identity.ErrExpiredToken)
	})

	t.Run("tampered signature rejected", func(t *testing.T) {
		t.Parallel()

		p := newProvider(t)
		token, err := p.Generate(identity.Claims{
			Subject:  userID.String(),
			TenantID: tenantID.String(),
		})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token+"x")

		_, err = p.Resolve(req)
		assert.ErrorIs(t, err, identity.ErrUnauthorized)
	})

	t.Run("token signed with another secret rejected", func(t *testing.T) {
		t.Parallel()

		other, err := identity.NewTokenProvider("another-secret-key-32-bytes-long!!!")
		require.NoError(t, err)
		req := requestWithToken(t, other, identity.Claims{
			Subject:  userID.String(),
			TenantID: tenantID.String(),
		})

		p := newProvider(t)
		_, err = p.Resolve(req)
		assert.ErrorIs(t, err, identity.ErrUnauthorized)
	})

	t.Run("claims with invalid ids rejected", func(t *testing.T) {
		t.Parallel()

		p := newProvider(t)
		req := requestWithToken(t, p, identity.Claims{
			Subject:  "not-a-uuid",
			TenantID: tenantID.String(),
		})

		_, err := p.Resolve(req)
		assert.ErrorIs(t, err, identity.ErrMalformedClaims)
	})
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	p := newProvider(t)
	userID := uuid.New()
	tenantID := uuid.New()

	t.Run("stores identity in context", func(t *testing.T) {
		t.Parallel()

		var got identity.Identity
		h := identity.Middleware(p, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := identity.FromContext(r.Context())
			require.True(t, ok)
			got = id
		}))

		req := requestWithToken(t, p, identity.Claims{
			Subject:  userID.String(),
			TenantID: tenantID.String(),
		})
		h.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, userID, got.UserID)
		assert.Equal(t, tenantID, got.TenantID)
	})

	t.Run("blocks unauthenticated requests", func(t *testing.T) {
		t.Parallel()

		called := false
		h := identity.Middleware(p, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
