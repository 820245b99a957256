package doctors

import (
	"time"

	"github.com/google/uuid"
)

// Doctor maps to the doctors table. Username, Email and DepartmentName are
// joined from users and departments for display and never written back.
type Doctor struct {
	ID                  uuid.UUID `db:"id" json:"id"`
	UserID              uuid.UUID `db:"user_id" json:"user_id"`
	DepartmentID        uuid.UUID `db:"department_id" json:"department_id"`
	Phone               *string   `db:"phone" json:"phone,omitempty"`
	LicenseNumber       string    `db:"license_number" json:"license_number"`
	ExperienceYears     int       `db:"experience_years" json:"experience_years"`
	Qualification       *string   `db:"qualification" json:"qualification,omitempty"`
	Specialization      *string   `db:"specialization" json:"specialization,omitempty"`
	Bio                 *string   `db:"bio" json:"bio,omitempty"`
	ConsultationFees    float64   `db:"consultation_fees" json:"consultation_fees"`
	Rating              float64   `db:"rating" json:"rating"`
	TotalPatients       int       `db:"total_patients" json:"total_patients"`
	TotalAppointments   int       `db:"total_appointments" json:"total_appointments"`
	IsAvailable         bool      `db:"is_available" json:"is_available"`
	ClinicName          *string   `db:"clinic_name" json:"clinic_name,omitempty"`
	WorkingDays         *string   `db:"working_days" json:"working_days,omitempty"`
	MorningSlotStart    *string   `db:"morning_slot_start" json:"morning_slot_start,omitempty"`
	MorningSlotEnd      *string   `db:"morning_slot_end" json:"morning_slot_end,omitempty"`
	EveningSlotStart    *string   `db:"evening_slot_start" json:"evening_slot_start,omitempty"`
	EveningSlotEnd      *string   `db:"evening_slot_end" json:"evening_slot_end,omitempty"`
	AvgConsultationTime int       `db:"avg_consultation_time" json:"avg_consultation_time"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`

	Username       string `db:"-" json:"username,omitempty"`
	Email          string `db:"-" json:"email,omitempty"`
	DepartmentName string `db:"-" json:"department_name,omitempty"`
}

// DefaultConsultationFees applies when an admin creates a doctor without
// specifying fees.
const DefaultConsultationFees = 500.0
