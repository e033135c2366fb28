package tenant

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/mediqcloud/mediq/svc/identity"
)

// BranchHeader names the facility a request wants to act within. Absence is
// fine; Bind falls back to auto-selection.
const BranchHeader = "X-Branch-ID"

// ErrorHandler is called when binding fails.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Bind computes the tenant context for the request and stores it in the
// request context. It must run after identity resolution and before any
// handler that executes tenant-scoped work; handlers read the result through
// FromContext. Binding twice is harmless but wasteful, so mount Bind once,
// early in the middleware chain.
func Bind(onError ErrorHandler) func(http.Handler) http.Handler {
	if onError == nil {
		onError = defaultErrorHandler
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := identity.FromContext(r.Context())
			if !ok {
				onError(w, r, ErrAuthenticationRequired)
				return
			}

			explicit, err := branchSelector(r)
			if err != nil {
				onError(w, r, err)
				return
			}

			tc, err := New(id, explicit)
			if err != nil {
				onError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), tc)))
		})
	}
}

// RequireBranchMiddleware rejects requests whose bound context has no
// selected branch. Mount it on branch-mandatory routes.
func RequireBranchMiddleware(onError ErrorHandler) func(http.Handler) http.Handler {
	if onError == nil {
		onError = defaultErrorHandler
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := RequireBranch(r.Context()); err != nil {
				onError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func branchSelector(r *http.Request) (*uuid.UUID, error) {
	raw := r.Header.Get(BranchHeader)
	if raw == "" {
		return nil, nil
	}
	branchID, err := uuid.Parse(raw)
	if err != nil {
		return nil, errors.Join(ErrInvalidBranchSelector, err)
	}
	return &branchID, nil
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrBranchAccessDenied), errors.Is(err, ErrBranchRequired):
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
	case errors.Is(err, ErrInvalidBranchSelector):
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
	default:
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
	}
}
