// Package rls executes database work under PostgreSQL row-level security.
//
// Every unit of work runs inside its own transaction whose first statements
// bind the request's tenant context to transaction-local session settings
// (set_config with is_local = true). The database policies read those
// settings, so isolation holds for every statement in the transaction without
// per-query WHERE clauses.
//
// Settings are never applied to a pooled connection outside a transaction:
// pooled connections are reused across requests, and a setting that outlives
// its transaction would leak one tenant's scope into the next request. The
// transaction boundary is the whole safety argument, which is why this
// package exposes no way to configure a bare connection.
package rls

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mediqcloud/mediq/svc/tenant"
)

// Session setting names read by the row-level security policies.
const (
	TenantSetting = "app.tenant_id"
	BranchSetting = "app.branch_id"
	UserSetting   = "app.user_id"
)

// set_config with is_local = true scopes the setting to the current
// transaction. Setting names and values travel as bound parameters so an
// identifier can never smuggle SQL into the session.
const setConfigSQL = `SELECT set_config($1, $2, true)`

var (
	// ErrSessionConfig indicates the session settings could not be applied.
	// Infrastructural, not an authorization failure; surfaced as a generic
	// server error.
	ErrSessionConfig = errors.New("rls: failed to configure session")

	ErrBeginFailed  = errors.New("rls: failed to begin transaction")
	ErrCommitFailed = errors.New("rls: failed to commit transaction")
)

// Executor is the statement surface needed for session configuration.
// Both pgx.Tx and pgx.Conn satisfy it.
type Executor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// DB begins transactions. *pgxpool.Pool satisfies it.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// ConfigureSession applies the tenant context to the executor's current
// transaction. All three settings are always written; an unselected branch is
// written as the empty string so the policies' NULLIF guard disables branch
// filtering deterministically rather than inheriting whatever was there.
//
// Must be called before any caller statements run in the same transaction:
// configuration applied after a query has executed never protected it.
func ConfigureSession(ctx context.Context, ex Executor, tc tenant.Context) error {
	branch := ""
	if branchID, ok := tc.Branch(); ok {
		branch = branchID.String()
	}

	settings := [...]struct{ name, value string }{
		{TenantSetting, tc.TenantID().String()},
		{BranchSetting, branch},
		{UserSetting, tc.UserID().String()},
	}

	for _, s := range settings {
		if _, err := ex.Exec(ctx, setConfigSQL, s.name, s.value); err != nil {
			return errors.Join(ErrSessionConfig, fmt.Errorf("setting %s: %w", s.name, err))
		}
	}
	return nil
}

// Gateway is the only sanctioned path for tenant-scoped database work.
type Gateway struct {
	db DB
}

// New creates a gateway over the connection pool.
func New(db DB) *Gateway {
	return &Gateway{db: db}
}

// RunScoped executes fn inside a transaction configured for the tenant
// context bound to ctx.
//
// It fails closed: without a bound context no transaction is even opened and
// fn never runs. Configuration happens before fn, in the same transaction, so
// every statement fn issues is covered. fn's error is returned unchanged;
// any error (including a failed configuration) rolls back the whole unit.
func (g *Gateway) RunScoped(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	tc, err := tenant.FromContext(ctx)
	if err != nil {
		return err
	}

	tx, err := g.db.Begin(ctx)
	if err != nil {
		return errors.Join(ErrBeginFailed, err)
	}
	// No-op after commit; also releases the connection if fn panics.
	defer func() { _ = tx.Rollback(ctx) }()

	if err := ConfigureSession(ctx, tx, tc); err != nil {
		return err
	}

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Join(ErrCommitFailed, err)
	}
	return nil
}

// Scoped runs fn through the gateway and returns its value. Convenience
// wrapper for repositories that read data out of the transaction.
func Scoped[T any](ctx context.Context, g *Gateway, fn func(ctx context.Context, tx pgx.Tx) (T, error)) (T, error) {
	var result T
	err := g.RunScoped(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		result, err = fn(ctx, tx)
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
