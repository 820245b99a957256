package clinical

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

const treatmentCols = `t.id, t.appointment_id, t.patient_id, t.doctor_id, t.diagnosis,
	t.icd_code, t.prescription, t.medicine_details, t.dosage_instructions,
	t.duration_days, t.follow_up_required, t.follow_up_days,
	t.lab_tests_recommended, t.notes, t.consultation_duration, t.status,
	t.created_at, t.updated_at, pu.username, du.username`

const treatmentFrom = ` FROM treatments t
	JOIN patients p ON p.id = t.patient_id
	JOIN users pu ON pu.id = p.user_id
	JOIN doctors d ON d.id = t.doctor_id
	JOIN users du ON du.id = d.user_id`

func scanTreatment(row pgx.Row) (*Treatment, error) {
	var t Treatment
	err := row.Scan(&t.ID, &t.AppointmentID, &t.PatientID, &t.DoctorID, &t.Diagnosis,
		&t.ICDCode, &t.Prescription, &t.MedicineDetails, &t.DosageInstructions,
		&t.DurationDays, &t.FollowUpRequired, &t.FollowUpDays,
		&t.LabTestsRecommended, &t.Notes, &t.ConsultationDuration, &t.Status,
		&t.CreatedAt, &t.UpdatedAt, &t.PatientName, &t.DoctorName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, httperr.NotFound("treatment")
	}
	return &t, err
}

func (r *repoPG) Create(ctx context.Context, t *Treatment) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO treatments (id, appointment_id, patient_id, doctor_id, diagnosis,
			icd_code, prescription, medicine_details, dosage_instructions,
			duration_days, follow_up_required, follow_up_days,
			lab_tests_recommended, notes, consultation_duration, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		t.ID, t.AppointmentID, t.PatientID, t.DoctorID, t.Diagnosis,
		t.ICDCode, t.Prescription, t.MedicineDetails, t.DosageInstructions,
		t.DurationDays, t.FollowUpRequired, t.FollowUpDays,
		t.LabTestsRecommended, t.Notes, t.ConsultationDuration, t.Status)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Treatment, error) {
	return scanTreatment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+treatmentCols+treatmentFrom+` WHERE t.id = $1`, id))
}

func (r *repoPG) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Treatment, error) {
	return scanTreatment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+treatmentCols+treatmentFrom+` WHERE t.appointment_id = $1`, appointmentID))
}

func (r *repoPG) Update(ctx context.Context, t *Treatment) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE treatments SET diagnosis=$2, icd_code=$3, prescription=$4,
			medicine_details=$5, dosage_instructions=$6, duration_days=$7,
			follow_up_required=$8, follow_up_days=$9, lab_tests_recommended=$10,
			notes=$11, consultation_duration=$12, status=$13, updated_at=now()
		WHERE id = $1`,
		t.ID, t.Diagnosis, t.ICDCode, t.Prescription,
		t.MedicineDetails, t.DosageInstructions, t.DurationDays,
		t.FollowUpRequired, t.FollowUpDays, t.LabTestsRecommended,
		t.Notes, t.ConsultationDuration, t.Status)
	return err
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Treatment, int, error) {
	where := ` WHERE 1=1`
	var args []interface{}
	idx := 1

	if f.PatientID != nil {
		where += fmt.Sprintf(` AND t.patient_id = $%d`, idx)
		args = append(args, *f.PatientID)
		idx++
	}
	if f.DoctorID != nil {
		where += fmt.Sprintf(` AND t.doctor_id = $%d`, idx)
		args = append(args, *f.DoctorID)
		idx++
	}
	if f.Status != "" {
		where += fmt.Sprintf(` AND t.status = $%d`, idx)
		args = append(args, f.Status)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*)`+treatmentFrom+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + treatmentCols + treatmentFrom + where +
		fmt.Sprintf(` ORDER BY t.created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Treatment
	for rows.Next() {
		t, err := scanTreatment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, t)
	}
	return items, total, rows.Err()
}

func (r *repoPG) ExistsForAppointment(ctx context.Context, appointmentID uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM treatments WHERE appointment_id = $1)`, appointmentID).Scan(&exists)
	return exists, err
}
