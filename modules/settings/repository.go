package settings

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mediqcloud/mediq/pkg/pg"
	"github.com/mediqcloud/mediq/pkg/rls"
)

type pgRepository struct {
	gw *rls.Gateway
}

func NewRepository(gw *rls.Gateway) Repository {
	return &pgRepository{gw: gw}
}

func (r *pgRepository) GetBranch(ctx context.Context, branchID uuid.UUID) (BranchSettings, error) {
	return rls.Scoped(ctx, r.gw, func(ctx context.Context, tx pgx.Tx) (BranchSettings, error) {
		var s BranchSettings
		err := tx.QueryRow(ctx,
			`SELECT branch_id, timezone, queue_prefix, opens_at, closes_at, updated_at
			 FROM branch_settings WHERE branch_id = $1`, branchID,
		).Scan(&s.BranchID, &s.Timezone, &s.QueuePrefix, &s.OpensAt, &s.ClosesAt, &s.UpdatedAt)
		if pg.IsNotFoundError(err) {
			return BranchSettings{}, ErrNotFound
		}
		return s, err
	})
}

const upsertBranchSQL = `
	INSERT INTO branch_settings (tenant_id, branch_id, timezone, queue_prefix, opens_at, closes_at, updated_at)
	VALUES (current_setting('app.tenant_id')::uuid, $1, $2, $3, $4, $5, $6)
	ON CONFLICT (branch_id) DO UPDATE
	SET timezone = EXCLUDED.timezone, queue_prefix = EXCLUDED.queue_prefix,
	    opens_at = EXCLUDED.opens_at, closes_at = EXCLUDED.closes_at,
	    updated_at = EXCLUDED.updated_at`

func (r *pgRepository) UpsertBranch(ctx context.Context, s BranchSettings) error {
	return r.gw.RunScoped(ctx, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, upsertBranchSQL,
			s.BranchID, s.Timezone, s.QueuePrefix, s.OpensAt, s.ClosesAt, s.UpdatedAt)
		if err != nil {
			return fmt.Errorf("upsert branch settings: %w", err)
		}
		return nil
	})
}

func (r *pgRepository) GetPreferences(ctx context.Context, userID uuid.UUID) (UserPreferences, error) {
	return rls.Scoped(ctx, r.gw, func(ctx context.Context, tx pgx.Tx) (UserPreferences, error) {
		var p UserPreferences
		err := tx.QueryRow(ctx,
			`SELECT user_id, default_branch_id, locale, updated_at
			 FROM user_preferences WHERE user_id = $1`, userID,
		).Scan(&p.UserID, &p.DefaultBranchID, &p.Locale, &p.UpdatedAt)
		if pg.IsNotFoundError(err) {
			return UserPreferences{}, ErrNotFound
		}
		return p, err
	})
}

const upsertPreferencesSQL = `
	INSERT INTO user_preferences (tenant_id, user_id, default_branch_id, locale, updated_at)
	VALUES (current_setting('app.tenant_id')::uuid, $1, $2, $3, $4)
	ON CONFLICT (user_id) DO UPDATE
	SET default_branch_id = EXCLUDED.default_branch_id, locale = EXCLUDED.locale,
	    updated_at = EXCLUDED.updated_at`

func (r *pgRepository) UpsertPreferences(ctx context.Context, p UserPreferences) error {
	return r.gw.RunScoped(ctx, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, upsertPreferencesSQL,
			p.UserID, p.DefaultBranchID, p.Locale, p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("upsert user preferences: %w", err)
		}
		return nil
	})
}
