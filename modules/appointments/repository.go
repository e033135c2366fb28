package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mediqcloud/mediq/pkg/pg"
	"github.com/mediqcloud/mediq/pkg/rls"
)

type pgRepository struct {
	gw *rls.Gateway
}

func NewRepository(gw *rls.Gateway) Repository {
	return &pgRepository{gw: gw}
}

// nextTicketSQL computes the next ticket optimistically. Two concurrent
// bookings can read the same number; the unique constraint on
// (branch_id, queue_day, ticket_no) catches the loser, which retries with a
// fresh transaction. No locking clause: aggregates cannot carry FOR UPDATE.
const nextTicketSQL = `
	SELECT COALESCE(MAX(ticket_no), 0) + 1
	FROM appointments
	WHERE branch_id = $1 AND queue_day = $2`

const insertAppointmentSQL = `
	INSERT INTO appointments (id, tenant_id, branch_id, patient_id, practitioner_id,
	                          scheduled_at, queue_day, ticket_no, status, reason,
	                          created_at, updated_at)
	VALUES ($1, current_setting('app.tenant_id')::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

func (r *pgRepository) Create(ctx context.Context, a Appointment) (Appointment, error) {
	return rls.Scoped(ctx, r.gw, func(ctx context.Context, tx pgx.Tx) (Appointment, error) {
		if err := tx.QueryRow(ctx, nextTicketSQL, a.BranchID, a.QueueDay).Scan(&a.TicketNo); err != nil {
			return Appointment{}, fmt.Errorf("assign ticket: %w", err)
		}

		_, err := tx.Exec(ctx, insertAppointmentSQL,
			a.ID, a.BranchID, a.PatientID, a.PractitionerID,
			a.ScheduledAt, a.QueueDay, a.TicketNo, a.Status, a.Reason,
			a.CreatedAt, a.UpdatedAt)
		if pg.IsForeignKeyViolationError(err) {
			return Appointment{}, ErrPatientNotFound
		}
		if isTicketConflict(err) {
			return Appointment{}, ErrTicketConflict
		}
		if err != nil {
			return Appointment{}, fmt.Errorf("insert appointment: %w", err)
		}
		return a, nil
	})
}

const selectAppointmentSQL = `
	SELECT id, patient_id, practitioner_id, branch_id, scheduled_at, queue_day,
	       ticket_no, status, COALESCE(reason, ''), created_at, updated_at
	FROM appointments`

func (r *pgRepository) GetByID(ctx context.Context, id uuid.UUID) (Appointment, error) {
	return rls.Scoped(ctx, r.gw, func(ctx context.Context, tx pgx.Tx) (Appointment, error) {
		row := tx.QueryRow(ctx, selectAppointmentSQL+` WHERE id = $1`, id)
		a, err := scanAppointment(row)
		if pg.IsNotFoundError(err) {
			return Appointment{}, ErrNotFound
		}
		return a, err
	})
}

// SetStatus updates the status only when the row still holds the expected
// current status. A zero-row update means either the appointment vanished
// from scope or someone transitioned it first.
func (r *pgRepository) SetStatus(ctx context.Context, id uuid.UUID, from, to Status, at time.Time) error {
	return r.gw.RunScoped(ctx, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE appointments SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`,
			id, from, to, at)
		if err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrInvalidTransition
		}
		return nil
	})
}

func (r *pgRepository) ListDay(ctx context.Context, branchID uuid.UUID, day string) ([]Appointment, error) {
	return rls.Scoped(ctx, r.gw, func(ctx context.Context, tx pgx.Tx) ([]Appointment, error) {
		rows, err := tx.Query(ctx,
			selectAppointmentSQL+` WHERE branch_id = $1 AND queue_day = $2 ORDER BY ticket_no`,
			branchID, day)
		if err != nil {
			return nil, fmt.Errorf("list day queue: %w", err)
		}
		defer rows.Close()

		var items []Appointment
		for rows.Next() {
			a, err := scanAppointment(rows)
			if err != nil {
				return nil, err
			}
			items = append(items, a)
		}
		return items, rows.Err()
	})
}

func isTicketConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" &&
		pgErr.ConstraintName == "appointments_branch_day_ticket_key"
}

func scanAppointment(row pgx.Row) (Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.PractitionerID, &a.BranchID,
		&a.ScheduledAt, &a.QueueDay, &a.TicketNo, &a.Status, &a.Reason,
		&a.CreatedAt, &a.UpdatedAt)
	return a, err
}
