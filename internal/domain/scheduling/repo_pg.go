package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

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

const apptCols = `a.id, a.patient_id, a.doctor_id, a.appointment_date, a.appointment_time,
	a.status, a.notes, a.appointment_type, a.consultation_fees,
	a.payment_status, a.is_confirmed, a.created_at, pu.username, du.username`

const apptFrom = ` FROM appointments a
	JOIN patients p ON p.id = a.patient_id
	JOIN users pu ON pu.id = p.user_id
	JOIN doctors d ON d.id = a.doctor_id
	JOIN users du ON du.id = d.user_id`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.AppointmentDate, &a.AppointmentTime,
		&a.Status, &a.Notes, &a.AppointmentType, &a.ConsultationFees,
		&a.PaymentStatus, &a.IsConfirmed, &a.CreatedAt, &a.PatientName, &a.DoctorName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, httperr.NotFound("appointment")
	}
	return &a, err
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, appointment_date,
			appointment_time, status, notes, appointment_type, consultation_fees,
			payment_status, is_confirmed)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		a.ID, a.PatientID, a.DoctorID, a.AppointmentDate,
		a.AppointmentTime, a.Status, a.Notes, a.AppointmentType, a.ConsultationFees,
		a.PaymentStatus, a.IsConfirmed)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+apptCols+apptFrom+` WHERE a.id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, a *Appointment) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointments SET appointment_date=$2, appointment_time=$3, status=$4,
			notes=$5, appointment_type=$6, payment_status=$7, is_confirmed=$8
		WHERE id = $1`,
		a.ID, a.AppointmentDate, a.AppointmentTime, a.Status,
		a.Notes, a.AppointmentType, a.PaymentStatus, a.IsConfirmed)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error) {
	where := ` WHERE 1=1`
	var args []interface{}
	idx := 1

	if f.PatientID != nil {
		where += fmt.Sprintf(` AND a.patient_id = $%d`, idx)
		args = append(args, *f.PatientID)
		idx++
	}
	if f.DoctorID != nil {
		where += fmt.Sprintf(` AND a.doctor_id = $%d`, idx)
		args = append(args, *f.DoctorID)
		idx++
	}
	if f.Status != "" {
		where += fmt.Sprintf(` AND a.status = $%d`, idx)
		args = append(args, f.Status)
		idx++
	}
	if f.DateFrom != nil {
		where += fmt.Sprintf(` AND a.appointment_date >= $%d`, idx)
		args = append(args, *f.DateFrom)
		idx++
	}
	if f.DateTo != nil {
		where += fmt.Sprintf(` AND a.appointment_date <= $%d`, idx)
		args = append(args, *f.DateTo)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*)`+apptFrom+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + apptCols + apptFrom + where +
		fmt.Sprintf(` ORDER BY a.appointment_date DESC, a.appointment_time DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

func (r *repoPG) SlotTaken(ctx context.Context, doctorID uuid.UUID, date time.Time, timeSlot string, excludeID uuid.UUID) (bool, error) {
	var taken bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM appointments
			WHERE doctor_id = $1 AND appointment_date = $2 AND appointment_time = $3
				AND status = $4 AND id <> $5)`,
		doctorID, date, timeSlot, StatusBooked, excludeID).Scan(&taken)
	return taken, err
}

func (r *repoPG) HasTreatment(ctx context.Context, id uuid.UUID) (bool, error) {
	var has bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM treatments WHERE appointment_id = $1)`, id).Scan(&has)
	return has, err
}
