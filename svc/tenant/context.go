package tenant

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// contextKey prevents collisions with other packages using context values.
type contextKey struct{}

// WithContext stores the tenant context for the current request.
func WithContext(ctx context.Context, tc Context) context.Context {
	return context.WithValue(ctx, contextKey{}, tc)
}

// FromContext returns the bound tenant context. It fails with
// ErrContextNotSet when Bind has not run for this request; callers must treat
// that as an authentication failure, never as "no tenant filtering needed".
func FromContext(ctx context.Context) (Context, error) {
	tc, ok := ctx.Value(contextKey{}).(Context)
	if !ok || !tc.Bound() {
		return Context{}, ErrContextNotSet
	}
	return tc, nil
}

// RequireBranch returns the selected branch, failing with ErrBranchRequired
// when the bound context has none. Handlers whose semantics need a concrete
// facility (queue tickets, bed assignment) gate on this.
func RequireBranch(ctx context.Context) (uuid.UUID, error) {
	tc, err := FromContext(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	branchID, ok := tc.Branch()
	if !ok {
		return uuid.Nil, ErrBranchRequired
	}
	return branchID, nil
}

// LoggerExtractor enriches log records with the bound tenant and branch ids.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		tc, err := FromContext(ctx)
		if err != nil {
			return slog.Attr{}, false
		}
		attrs := []slog.Attr{slog.String("tenant_id", tc.TenantID().String())}
		if branchID, ok := tc.Branch(); ok {
			attrs = append(attrs, slog.String("branch_id", branchID.String()))
		}
		return slog.Attr{Key: "tenant", Value: slog.GroupValue(attrs...)}, true
	}
}
