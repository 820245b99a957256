package patients

import (
	"context"
	"errors"
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

const patientCols = `p.id, p.user_id, p.phone, p.alternate_phone, p.date_of_birth,
	p.gender, p.blood_group, p.address, p.city, p.pincode,
	p.medical_history, p.allergies, p.insurance_provider, p.insurance_id,
	p.emergency_contact, p.emergency_contact_name,
	p.enable_notifications, p.notification_preference,
	p.last_visit, p.total_visits, p.total_spent, p.created_at,
	u.username, u.email`

const patientFrom = ` FROM patients p JOIN users u ON u.id = p.user_id`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.UserID, &p.Phone, &p.AlternatePhone, &p.DateOfBirth,
		&p.Gender, &p.BloodGroup, &p.Address, &p.City, &p.Pincode,
		&p.MedicalHistory, &p.Allergies, &p.InsuranceProvider, &p.InsuranceID,
		&p.EmergencyContact, &p.EmergencyContactName,
		&p.EnableNotifications, &p.NotificationPreference,
		&p.LastVisit, &p.TotalVisits, &p.TotalSpent, &p.CreatedAt,
		&p.Username, &p.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, httperr.NotFound("patient")
	}
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patients (id, user_id, phone, alternate_phone, date_of_birth,
			gender, blood_group, address, city, pincode,
			medical_history, allergies, insurance_provider, insurance_id,
			emergency_contact, emergency_contact_name,
			enable_notifications, notification_preference)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
		p.ID, p.UserID, p.Phone, p.AlternatePhone, p.DateOfBirth,
		p.Gender, p.BloodGroup, p.Address, p.City, p.Pincode,
		p.MedicalHistory, p.Allergies, p.InsuranceProvider, p.InsuranceID,
		p.EmergencyContact, p.EmergencyContactName,
		p.EnableNotifications, p.NotificationPreference)
	return err
}

// CreateEmptyProfile backs self-service registration: a bare profile row that
// the patient fills in later. Satisfies the identity package's ProfileCreator.
func (r *repoPG) CreateEmptyProfile(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	p := &Patient{ID: uuid.New(), UserID: userID, EnableNotifications: true}
	if err := r.Create(ctx, p); err != nil {
		return uuid.Nil, err
	}
	return p.ID, nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+patientFrom+` WHERE p.id = $1`, id))
}

func (r *repoPG) GetByUserID(ctx context.Context, userID uuid.UUID) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+patientFrom+` WHERE p.user_id = $1`, userID))
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*)`+patientFrom+` WHERE u.is_active`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+patientCols+patientFrom+` WHERE u.is_active ORDER BY u.username LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collect(rows, total)
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(DISTINCT p.id)`+patientFrom+`
		JOIN appointments a ON a.patient_id = p.id
		WHERE a.doctor_id = $1`, doctorID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT DISTINCT `+patientCols+patientFrom+`
		JOIN appointments a ON a.patient_id = p.id
		WHERE a.doctor_id = $1
		ORDER BY u.username LIMIT $2 OFFSET $3`, doctorID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collect(rows, total)
}

func (r *repoPG) SeenByDoctor(ctx context.Context, patientID, doctorID uuid.UUID) (bool, error) {
	var seen bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM appointments WHERE patient_id = $1 AND doctor_id = $2)`,
		patientID, doctorID).Scan(&seen)
	return seen, err
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE patients SET phone=$2, alternate_phone=$3, date_of_birth=$4,
			gender=$5, blood_group=$6, address=$7, city=$8, pincode=$9,
			medical_history=$10, allergies=$11, insurance_provider=$12, insurance_id=$13,
			emergency_contact=$14, emergency_contact_name=$15,
			enable_notifications=$16, notification_preference=$17
		WHERE id = $1`,
		p.ID, p.Phone, p.AlternatePhone, p.DateOfBirth,
		p.Gender, p.BloodGroup, p.Address, p.City, p.Pincode,
		p.MedicalHistory, p.Allergies, p.InsuranceProvider, p.InsuranceID,
		p.EmergencyContact, p.EmergencyContactName,
		p.EnableNotifications, p.NotificationPreference)
	return err
}

func (r *repoPG) RecordVisit(ctx context.Context, id uuid.UUID, fee float64, at time.Time) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE patients SET total_visits = total_visits + 1,
			total_spent = total_spent + $2, last_visit = $3
		WHERE id = $1`, id, fee, at)
	return err
}

func collect(rows pgx.Rows, total int) ([]*Patient, int, error) {
	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}
