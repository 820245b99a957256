package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/httperr"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const deptCols = `id, name, description, created_at`

func scanDepartment(row pgx.Row) (*Department, error) {
	var d Department
	err := row.Scan(&d.ID, &d.Name, &d.Description, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, httperr.NotFound("department")
	}
	return &d, err
}

func (r *repoPG) Create(ctx context.Context, d *Department) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO departments (id, name, description) VALUES ($1,$2,$3)`,
		d.ID, d.Name, d.Description)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Department, error) {
	return scanDepartment(r.conn(ctx).QueryRow(ctx, `SELECT `+deptCols+` FROM departments WHERE id = $1`, id))
}

func (r *repoPG) List(ctx context.Context) ([]*Department, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+deptCols+` FROM departments ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Department
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, d *Department) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE departments SET name = $2, description = $3 WHERE id = $1`,
		d.ID, d.Name, d.Description)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM departments WHERE id = $1`, id)
	return err
}

func (r *repoPG) NameTaken(ctx context.Context, name string) (bool, error) {
	var taken bool
	err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM departments WHERE LOWER(name) = LOWER($1))`, name).Scan(&taken)
	return taken, err
}

func (r *repoPG) DoctorCount(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM doctors WHERE department_id = $1`, id).Scan(&count)
	return count, err
}
