package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mediqcloud/mediq/pkg/logger"
	"github.com/mediqcloud/mediq/pkg/pg"
	"github.com/mediqcloud/mediq/pkg/rls"
	"github.com/mediqcloud/mediq/pkg/validator"
	"github.com/mediqcloud/mediq/svc/identity"
	"github.com/mediqcloud/mediq/svc/tenant"
)

// ErrNotFound is the generic "resource does not exist" error modules return
// when a lookup misses inside the caller's tenant scope.
var ErrNotFound = errors.New("handler: resource not found")

// ErrConflict indicates a uniqueness or state conflict, e.g. a duplicate
// patient phone number or an invalid appointment transition.
var ErrConflict = errors.New("handler: conflict")

// Error writes the envelope for any domain error. The mapping is the single
// place where the error taxonomy meets HTTP:
//
//   - unauthenticated / unbound context  -> 401
//   - branch denial / branch required    -> 403
//   - validation failures                -> 422 with field details
//   - missing rows                       -> 404
//   - conflicts                          -> 409
//   - session configuration failures     -> 500 with a generic body; the
//     infrastructural cause is logged, never sent to the client, and never
//     disguised as an authorization failure.
func Error(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	status, detail := classify(err)

	if status >= http.StatusInternalServerError && log != nil {
		log.ErrorContext(r.Context(), "request failed", logger.Error(err))
	}

	writeEnvelope(w, status, JSONResponse{Error: &detail})
}

func classify(err error) (int, ErrorDetail) {
	switch {
	case errors.Is(err, tenant.ErrAuthenticationRequired),
		errors.Is(err, tenant.ErrContextNotSet),
		errors.Is(err, identity.ErrUnauthorized):
		return http.StatusUnauthorized, ErrorDetail{Code: "unauthorized", Message: "authentication required"}

	case errors.Is(err, tenant.ErrBranchAccessDenied):
		return http.StatusForbidden, ErrorDetail{Code: "branch_access_denied", Message: "access denied to this branch"}

	case errors.Is(err, tenant.ErrBranchRequired):
		return http.StatusForbidden, ErrorDetail{Code: "branch_required", Message: "branch selection required"}

	case errors.Is(err, tenant.ErrInvalidBranchSelector):
		return http.StatusBadRequest, ErrorDetail{Code: "invalid_branch", Message: "invalid branch selector"}

	case errors.Is(err, ErrUnsupportedMediaType), errors.Is(err, ErrInvalidBody):
		return http.StatusBadRequest, ErrorDetail{Code: "invalid_body", Message: "request body must be valid JSON"}

	case errors.Is(err, ErrNotFound), pg.IsNotFoundError(err):
		return http.StatusNotFound, ErrorDetail{Code: "not_found", Message: "resource not found"}

	case errors.Is(err, ErrConflict), pg.IsDuplicateKeyError(err):
		return http.StatusConflict, ErrorDetail{Code: "conflict", Message: "resource conflict"}
	}

	if ve := validator.Extract(err); ve != nil {
		details := make(map[string][]string, len(ve))
		for _, fieldErr := range ve {
			details[fieldErr.Field] = append(details[fieldErr.Field], fieldErr.Message)
		}
		return http.StatusUnprocessableEntity, ErrorDetail{
			Code:    "validation_failed",
			Message: "request validation failed",
			Details: details,
		}
	}

	if errors.Is(err, rls.ErrSessionConfig) {
		// Deliberately opaque: an infrastructure failure must not read as
		// "you are not allowed".
		return http.StatusInternalServerError, ErrorDetail{Code: "internal_error", Message: "internal server error"}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable, ErrorDetail{Code: "unavailable", Message: "request cancelled or timed out"}
	}

	return http.StatusInternalServerError, ErrorDetail{Code: "internal_error", Message: "internal server error"}
}

// ErrorHandler adapts Error to the middleware ErrorHandler signatures in the
// identity and tenant packages.
func ErrorHandler(log *slog.Logger) func(w http.ResponseWriter, r *http.Request, err error) {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		Error(w, r, log, err)
	}
}
