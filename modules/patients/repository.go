package patients

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mediqcloud/mediq/pkg/pg"
	"github.com/mediqcloud/mediq/pkg/rls"
)

// pgRepository persists patients through the scoped gateway. tenant_id is
// written explicitly on insert so the WITH CHECK policy can verify it; reads
// never filter by tenant in SQL because the policies already do.
type pgRepository struct {
	gw *rls.Gateway
}

func NewRepository(gw *rls.Gateway) Repository {
	return &pgRepository{gw: gw}
}

const insertPatientSQL = `
	INSERT INTO patients (id, tenant_id, mrn, full_name, phone, email, date_of_birth, sex, address, notes, created_at, updated_at)
	VALUES ($1, current_setting('app.tenant_id')::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

func (r *pgRepository) Create(ctx context.Context, p Patient) error {
	return r.gw.RunScoped(ctx, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, insertPatientSQL,
			p.ID, p.MRN, p.FullName, p.Phone, p.Email, p.DateOfBirth,
			nullable(p.Sex), p.Address, p.Notes, p.CreatedAt, p.UpdatedAt)
		if err != nil {
			return mapConstraint(err)
		}
		return nil
	})
}

const selectPatientSQL = `
	SELECT id, mrn, full_name, phone, COALESCE(email, ''), date_of_birth,
	       COALESCE(sex, ''), COALESCE(address, ''), COALESCE(notes, ''),
	       created_at, updated_at
	FROM patients`

func (r *pgRepository) GetByID(ctx context.Context, id uuid.UUID) (Patient, error) {
	return rls.Scoped(ctx, r.gw, func(ctx context.Context, tx pgx.Tx) (Patient, error) {
		row := tx.QueryRow(ctx, selectPatientSQL+` WHERE id = $1`, id)
		p, err := scanPatient(row)
		if pg.IsNotFoundError(err) {
			return Patient{}, ErrNotFound
		}
		return p, err
	})
}

const updatePatientSQL = `
	UPDATE patients
	SET full_name = $2, phone = $3, email = $4, date_of_birth = $5,
	    sex = $6, address = $7, notes = $8, updated_at = $9
	WHERE id = $1`

func (r *pgRepository) Update(ctx context.Context, p Patient) error {
	return r.gw.RunScoped(ctx, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, updatePatientSQL,
			p.ID, p.FullName, p.Phone, p.Email, p.DateOfBirth,
			nullable(p.Sex), p.Address, p.Notes, p.UpdatedAt)
		if err != nil {
			return mapConstraint(err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *pgRepository) List(ctx context.Context, f ListFilter) ([]Patient, int, error) {
	type page struct {
		items []Patient
		total int
	}

	result, err := rls.Scoped(ctx, r.gw, func(ctx context.Context, tx pgx.Tx) (page, error) {
		where := ""
		args := []any{}
		if f.Search != "" {
			where = ` WHERE full_name ILIKE $1 OR phone LIKE $1`
			args = append(args, "%"+escapeLike(f.Search)+"%")
		}

		var total int
		if err := tx.QueryRow(ctx, `SELECT count(*) FROM patients`+where, args...).Scan(&total); err != nil {
			return page{}, fmt.Errorf("count patients: %w", err)
		}

		query := fmt.Sprintf("%s%s ORDER BY full_name LIMIT $%d OFFSET $%d",
			selectPatientSQL, where, len(args)+1, len(args)+2)
		rows, err := tx.Query(ctx, query, append(args, f.PerPage, f.Offset())...)
		if err != nil {
			return page{}, fmt.Errorf("list patients: %w", err)
		}
		defer rows.Close()

		var items []Patient
		for rows.Next() {
			p, err := scanPatient(rows)
			if err != nil {
				return page{}, err
			}
			items = append(items, p)
		}
		return page{items: items, total: total}, rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}
	return result.items, result.total, nil
}

func scanPatient(row pgx.Row) (Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.MRN, &p.FullName, &p.Phone, &p.Email, &p.DateOfBirth,
		&p.Sex, &p.Address, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// mapConstraint translates unique violations into the package sentinels by
// constraint name, so the service can tell a phone conflict from an MRN
// collision.
func mapConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch pgErr.ConstraintName {
		case "patients_tenant_phone_key":
			return ErrDuplicatePhone
		case "patients_tenant_mrn_key":
			return ErrMRNConflict
		}
	}
	return err
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// likeEscaper neutralizes LIKE metacharacters in user-supplied search text so
// "100%" matches the literal string instead of everything starting with 100.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
