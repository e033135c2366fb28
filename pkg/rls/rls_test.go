package rls_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediqcloud/mediq/pkg/rls"
	"github.com/mediqcloud/mediq/svc/identity"
	"github.com/mediqcloud/mediq/svc/tenant"
)

// statement records one Exec call observed by a fake transaction.
type statement struct {
	sql  string
	args []any
}

// fakeTx records every statement. The embedded pgx.Tx panics on anything the
// tests do not exercise, which keeps the fake honest.
type fakeTx struct {
	pgx.Tx

	statements []statement
	execErr    error
	committed  bool
	rolledBack bool
}

func (tx *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx.execErr != nil {
		return pgconn.CommandTag{}, tx.execErr
	}
	tx.statements = append(tx.statements, statement{sql: sql, args: args})
	return pgconn.NewCommandTag("SELECT 1"), nil
}

func (tx *fakeTx) Commit(ctx context.Context) error {
	tx.committed = true
	return nil
}

func (tx *fakeTx) Rollback(ctx context.Context) error {
	if tx.committed {
		return pgx.ErrTxClosed
	}
	tx.rolledBack = true
	return nil
}

// fakeDB hands out a fresh fakeTx per Begin, mimicking a pool giving each
// transaction its own (possibly reused) connection.
type fakeDB struct {
	beginCount  int
	nextExecErr error
	txs         []*fakeTx
}

func (db *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	db.beginCount++
	tx := &fakeTx{execErr: db.nextExecErr}
	db.txs = append(db.txs, tx)
	return tx, nil
}

func boundContext(t *testing.T, tenantID, userID uuid.UUID, branchIDs ...uuid.UUID) context.Context {
	t.Helper()
	tc, err := tenant.New(identity.Identity{UserID: userID, TenantID: tenantID, BranchIDs: branchIDs}, nil)
	require.NoError(t, err)
	return tenant.WithContext(context.Background(), tc)
}

func settingArgs(t *testing.T, stmts []statement) map[string]string {
	t.Helper()
	settings := make(map[string]string)
	for _, s := range stmts {
		if !strings.Contains(s.sql, "set_config") {
			continue
		}
		require.Len(t, s.args, 2, "setting name and value must be bound parameters")
		settings[s.args[0].(string)] = s.args[1].(string)
	}
	return settings
}

func TestRunScoped_FailClosedWithoutContext(t *testing.T) {
	t.Parallel()

	db := &fakeDB{}
	g := rls.New(db)

	ran := false
	err := g.RunScoped(context.Background(), func(ctx context.Context, tx pgx.Tx) error {
		ran = true
		return nil
	})

	assert.ErrorIs(t, err, tenant.ErrContextNotSet)
	assert.False(t, ran, "unit of work must never execute unscoped")
	assert.Zero(t, db.beginCount, "no transaction may be opened without a context")
}

func TestRunScoped_ConfigurationPrecedesWork(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()
	userID := uuid.New()
	branchID := uuid.New()
	ctx := boundContext(t, tenantID, userID, branchID)

	db := &fakeDB{}
	g := rls.New(db)

	err := g.RunScoped(ctx, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, "INSERT INTO patients (full_name) VALUES ($1)", "Jane Doe")
		return err
	})
	require.NoError(t, err)

	require.Len(t, db.txs, 1)
	tx := db.txs[0]
	require.Len(t, tx.statements, 4)

	// The three set_config statements come first, before any caller statement.
	for i, name := range []string{rls.TenantSetting, rls.BranchSetting, rls.UserSetting} {
		assert.Contains(t, tx.statements[i].sql, "set_config")
		assert.Contains(t, tx.statements[i].sql, "true", "settings must be transaction-local")
		assert.Equal(t, name, tx.statements[i].args[0])
	}
	assert.Contains(t, tx.statements[3].sql, "INSERT INTO patients")

	settings := settingArgs(t, tx.statements)
	assert.Equal(t, tenantID.String(), settings[rls.TenantSetting])
	assert.Equal(t, branchID.String(), settings[rls.BranchSetting])
	assert.Equal(t, userID.String(), settings[rls.UserSetting])

	assert.True(t, tx.committed)
	assert.False(t, tx.rolledBack)
}

func TestRunScoped_UnsetBranchWritesEmptySetting(t *testing.T) {
	t.Parallel()

	ctx := boundContext(t, uuid.New(), uuid.New()) // zero branches

	db := &fakeDB{}
	g := rls.New(db)

	require.NoError(t, g.RunScoped(ctx, func(ctx context.Context, tx pgx.Tx) error { return nil }))

	settings := settingArgs(t, db.txs[0].statements)
	value, ok := settings[rls.BranchSetting]
	require.True(t, ok, "branch setting must always be written")
	assert.Empty(t, value)
}

func TestRunScoped_NoCrossRequestLeakage(t *testing.T) {
	t.Parallel()

	db := &fakeDB{}
	g := rls.New(db)

	tenantA := uuid.New()
	tenantB := uuid.New()

	require.NoError(t, g.RunScoped(boundContext(t, tenantA, uuid.New()),
		func(ctx context.Context, tx pgx.Tx) error { return nil }))
	require.NoError(t, g.RunScoped(boundContext(t, tenantB, uuid.New()),
		func(ctx context.Context, tx pgx.Tx) error { return nil }))

	require.Len(t, db.txs, 2)
	assert.Equal(t, tenantA.String(), settingArgs(t, db.txs[0].statements)[rls.TenantSetting])
	assert.Equal(t, tenantB.String(), settingArgs(t, db.txs[1].statements)[rls.TenantSetting],
		"second transaction must observe only its own tenant")
}

func TestRunScoped_ConfigurationFailureAbortsUnit(t *testing.T) {
	t.Parallel()

	ctx := boundContext(t, uuid.New(), uuid.New())

	db := &fakeDB{nextExecErr: errors.New("connection reset")}
	g := rls.New(db)

	ran := false
	err := g.RunScoped(ctx, func(ctx context.Context, tx pgx.Tx) error {
		ran = true
		return nil
	})

	assert.ErrorIs(t, err, rls.ErrSessionConfig)
	assert.False(t, ran, "work must not run when scoping failed")

	tx := db.txs[0]
	assert.True(t, tx.rolledBack)
	assert.False(t, tx.committed)
}

func TestRunScoped_WorkErrorRollsBack(t *testing.T) {
	t.Parallel()

	ctx := boundContext(t, uuid.New(), uuid.New())

	db := &fakeDB{}
	g := rls.New(db)

	sentinel := errors.New("duplicate mrn")
	err := g.RunScoped(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return sentinel
	})

	assert.ErrorIs(t, err, sentinel, "unit of work error must surface unchanged")
	tx := db.txs[0]
	assert.True(t, tx.rolledBack)
	assert.False(t, tx.committed)
}

func TestScoped_ReturnsValue(t *testing.T) {
	t.Parallel()

	ctx := boundContext(t, uuid.New(), uuid.New())

	db := &fakeDB{}
	g := rls.New(db)

	got, err := rls.Scoped(ctx, g, func(ctx context.Context, tx pgx.Tx) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)

	t.Run("fails closed without context", func(t *testing.T) {
		_, err := rls.Scoped(context.Background(), g, func(ctx context.Context, tx pgx.Tx) (int, error) {
			return 1, nil
		})
		assert.ErrorIs(t, err, tenant.ErrContextNotSet)
	})
}

func TestConfigureSession_BoundParameters(t *testing.T) {
	t.Parallel()

	tc, err := tenant.New(identity.Identity{UserID: uuid.New(), TenantID: uuid.New()}, nil)
	require.NoError(t, err)

	tx := &fakeTx{}
	require.NoError(t, rls.ConfigureSession(context.Background(), tx, tc))

	for _, s := range tx.statements {
		assert.NotContains(t, s.sql, tc.TenantID().String(),
			"identifiers must never be interpolated into SQL text")
		assert.Len(t, s.args, 2)
	}
}
