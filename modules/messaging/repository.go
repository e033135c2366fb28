package messaging

import (
	"context"
	"fmt"
	"time"

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

const insertMessageSQL = `
	INSERT INTO messages (id, tenant_id, patient_id, template, language, body, status, created_at, updated_at)
	VALUES ($1, current_setting('app.tenant_id')::uuid, $2, $3, $4, $5, $6, $7, $8)`

func (r *pgRepository) Create(ctx context.Context, m Message) error {
	return r.gw.RunScoped(ctx, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, insertMessageSQL,
			m.ID, m.PatientID, m.Template, m.Language, m.Body, m.Status,
			m.CreatedAt, m.UpdatedAt)
		if pg.IsForeignKeyViolationError(err) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
		return nil
	})
}

const selectMessageSQL = `
	SELECT id, patient_id, template, language, body, status, created_at, updated_at
	FROM messages`

func (r *pgRepository) GetByID(ctx context.Context, id uuid.UUID) (Message, error) {
	return rls.Scoped(ctx, r.gw, func(ctx context.Context, tx pgx.Tx) (Message, error) {
		row := tx.QueryRow(ctx, selectMessageSQL+` WHERE id = $1`, id)
		m, err := scanMessage(row)
		if pg.IsNotFoundError(err) {
			return Message{}, ErrNotFound
		}
		return m, err
	})
}

func (r *pgRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Message, error) {
	return rls.Scoped(ctx, r.gw, func(ctx context.Context, tx pgx.Tx) ([]Message, error) {
		rows, err := tx.Query(ctx,
			selectMessageSQL+` WHERE patient_id = $1 ORDER BY created_at DESC`, patientID)
		if err != nil {
			return nil, fmt.Errorf("list messages: %w", err)
		}
		defer rows.Close()

		var items []Message
		for rows.Next() {
			m, err := scanMessage(rows)
			if err != nil {
				return nil, err
			}
			items = append(items, m)
		}
		return items, rows.Err()
	})
}

func (r *pgRepository) SetStatus(ctx context.Context, id uuid.UUID, from, to Status, at time.Time) error {
	return r.gw.RunScoped(ctx, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE messages SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`,
			id, from, to, at)
		if err != nil {
			return fmt.Errorf("update message status: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotCancellable
		}
		return nil
	})
}

func scanMessage(row pgx.Row) (Message, error) {
	var m Message
	err := row.Scan(&m.ID, &m.PatientID, &m.Template, &m.Language, &m.Body,
		&m.Status, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}
