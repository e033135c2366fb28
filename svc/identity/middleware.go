package identity

import (
	"net/http"
)

// ErrorHandler is called when identity resolution fails.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Middleware resolves the caller's identity and stores it in the request
// context. Resolution failures are passed to onError; the wrapped handler
// never runs without an identity.
func Middleware(provider Provider, onError ErrorHandler) func(http.Handler) http.Handler {
	if onError == nil {
		onError = func(w http.ResponseWriter, r *http.Request, _ error) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := provider.Resolve(r)
			if err != nil {
				onError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), id)))
		})
	}
}
