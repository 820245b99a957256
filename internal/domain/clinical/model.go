package clinical

import (
	"time"

	"github.com/google/uuid"
)

// Treatment statuses.
const (
	StatusActive    = "Active"
	StatusCompleted = "Completed"
	StatusArchived  = "Archived"
)

// Treatment is the clinical record written against exactly one appointment.
// PatientID and DoctorID are denormalized from the appointment so treatment
// listings do not need to join through it.
type Treatment struct {
	ID                  uuid.UUID `db:"id" json:"id"`
	AppointmentID       uuid.UUID `db:"appointment_id" json:"appointment_id"`
	PatientID           uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID            uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Diagnosis           string    `db:"diagnosis" json:"diagnosis"`
	ICDCode             *string   `db:"icd_code" json:"icd_code,omitempty"`
	Prescription        *string   `db:"prescription" json:"prescription,omitempty"`
	MedicineDetails     *string   `db:"medicine_details" json:"medicine_details,omitempty"`
	DosageInstructions  *string   `db:"dosage_instructions" json:"dosage_instructions,omitempty"`
	DurationDays        *int      `db:"duration_days" json:"duration_days,omitempty"`
	FollowUpRequired    bool      `db:"follow_up_required" json:"follow_up_required"`
	FollowUpDays        *int      `db:"follow_up_days" json:"follow_up_days,omitempty"`
	LabTestsRecommended *string   `db:"lab_tests_recommended" json:"lab_tests_recommended,omitempty"`
	Notes               *string   `db:"notes" json:"notes,omitempty"`
	// Minutes the consultation actually took.
	ConsultationDuration *int      `db:"consultation_duration" json:"consultation_duration,omitempty"`
	Status               string    `db:"status" json:"status"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`

	PatientName string `db:"-" json:"patient_name,omitempty"`
	DoctorName  string `db:"-" json:"doctor_name,omitempty"`
}

func validTreatmentStatus(s string) bool {
	switch s {
	case StatusActive, StatusCompleted, StatusArchived:
		return true
	}
	return false
}
