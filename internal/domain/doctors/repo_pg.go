package doctors

import (
	"context"
	"errors"
	"fmt"

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

const doctorCols = `d.id, d.user_id, d.department_id, d.phone, d.license_number,
	d.experience_years, d.qualification, d.specialization, d.bio,
	d.consultation_fees, d.rating, d.total_patients, d.total_appointments,
	d.is_available, d.clinic_name, d.working_days,
	d.morning_slot_start, d.morning_slot_end, d.evening_slot_start, d.evening_slot_end,
	d.avg_consultation_time, d.created_at, u.username, u.email, dep.name`

const doctorFrom = ` FROM doctors d
	JOIN users u ON u.id = d.user_id
	JOIN departments dep ON dep.id = d.department_id`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.UserID, &d.DepartmentID, &d.Phone, &d.LicenseNumber,
		&d.ExperienceYears, &d.Qualification, &d.Specialization, &d.Bio,
		&d.ConsultationFees, &d.Rating, &d.TotalPatients, &d.TotalAppointments,
		&d.IsAvailable, &d.ClinicName, &d.WorkingDays,
		&d.MorningSlotStart, &d.MorningSlotEnd, &d.EveningSlotStart, &d.EveningSlotEnd,
		&d.AvgConsultationTime, &d.CreatedAt, &d.Username, &d.Email, &d.DepartmentName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, httperr.NotFound("doctor")
	}
	return &d, err
}

func (r *repoPG) Create(ctx context.Context, d *Doctor) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO doctors (id, user_id, department_id, phone, license_number,
			experience_years, qualification, specialization, bio, consultation_fees,
			is_available, clinic_name, working_days,
			morning_slot_start, morning_slot_end, evening_slot_start, evening_slot_end,
			avg_consultation_time)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
		d.ID, d.UserID, d.DepartmentID, d.Phone, d.LicenseNumber,
		d.ExperienceYears, d.Qualification, d.Specialization, d.Bio, d.ConsultationFees,
		d.IsAvailable, d.ClinicName, d.WorkingDays,
		d.MorningSlotStart, d.MorningSlotEnd, d.EveningSlotStart, d.EveningSlotEnd,
		d.AvgConsultationTime)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return scanDoctor(r.conn(ctx).QueryRow(ctx,
		`SELECT `+doctorCols+doctorFrom+` WHERE d.id = $1`, id))
}

func (r *repoPG) GetByUserID(ctx context.Context, userID uuid.UUID) (*Doctor, error) {
	return scanDoctor(r.conn(ctx).QueryRow(ctx,
		`SELECT `+doctorCols+doctorFrom+` WHERE d.user_id = $1`, userID))
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Doctor, int, error) {
	where := ` WHERE u.is_active`
	var args []interface{}
	idx := 1

	if f.DepartmentID != nil {
		where += fmt.Sprintf(` AND d.department_id = $%d`, idx)
		args = append(args, *f.DepartmentID)
		idx++
	}
	if f.Specialization != "" {
		where += fmt.Sprintf(` AND d.specialization ILIKE $%d`, idx)
		args = append(args, "%"+f.Specialization+"%")
		idx++
	}
	if f.Available != nil {
		where += fmt.Sprintf(` AND d.is_available = $%d`, idx)
		args = append(args, *f.Available)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*)`+doctorFrom+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + doctorCols + doctorFrom + where +
		fmt.Sprintf(` ORDER BY u.username LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, d *Doctor) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE doctors SET department_id=$2, phone=$3, license_number=$4,
			experience_years=$5, qualification=$6, specialization=$7, bio=$8,
			consultation_fees=$9, is_available=$10, clinic_name=$11, working_days=$12,
			morning_slot_start=$13, morning_slot_end=$14,
			evening_slot_start=$15, evening_slot_end=$16, avg_consultation_time=$17
		WHERE id = $1`,
		d.ID, d.DepartmentID, d.Phone, d.LicenseNumber,
		d.ExperienceYears, d.Qualification, d.Specialization, d.Bio,
		d.ConsultationFees, d.IsAvailable, d.ClinicName, d.WorkingDays,
		d.MorningSlotStart, d.MorningSlotEnd,
		d.EveningSlotStart, d.EveningSlotEnd, d.AvgConsultationTime)
	return err
}

func (r *repoPG) LicenseTaken(ctx context.Context, license string) (bool, error) {
	var taken bool
	err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM doctors WHERE license_number = $1)`, license).Scan(&taken)
	return taken, err
}

func (r *repoPG) IncrementAppointments(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE doctors SET total_appointments = total_appointments + 1 WHERE id = $1`, id)
	return err
}
