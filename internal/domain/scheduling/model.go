package scheduling

import (
	"time"

	"github.com/google/uuid"
)

// Appointment statuses. Completed, Cancelled and No-show are terminal.
const (
	StatusBooked    = "Booked"
	StatusCompleted = "Completed"
	StatusCancelled = "Cancelled"
	StatusNoShow    = "No-show"
)

// Appointment types.
const (
	TypeRegular   = "Regular"
	TypeFollowUp  = "Follow-up"
	TypeEmergency = "Emergency"
)

// Payment statuses.
const (
	PaymentPending   = "Pending"
	PaymentPaid      = "Paid"
	PaymentInsurance = "Insurance"
)

// Appointment maps to the appointments table. ConsultationFees is a snapshot
// of the doctor's fee at booking time. PatientName and DoctorName are joined
// for display.
type Appointment struct {
	ID               uuid.UUID `db:"id" json:"id"`
	PatientID        uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID         uuid.UUID `db:"doctor_id" json:"doctor_id"`
	AppointmentDate  time.Time `db:"appointment_date" json:"appointment_date"`
	AppointmentTime  string    `db:"appointment_time" json:"appointment_time"`
	Status           string    `db:"status" json:"status"`
	Notes            *string   `db:"notes" json:"notes,omitempty"`
	AppointmentType  string    `db:"appointment_type" json:"appointment_type"`
	ConsultationFees float64   `db:"consultation_fees" json:"consultation_fees"`
	PaymentStatus    string    `db:"payment_status" json:"payment_status"`
	IsConfirmed      bool      `db:"is_confirmed" json:"is_confirmed"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`

	PatientName string `db:"-" json:"patient_name,omitempty"`
	DoctorName  string `db:"-" json:"doctor_name,omitempty"`
}

// IsTerminal reports whether the appointment reached a final state.
func (a *Appointment) IsTerminal() bool {
	return a.Status == StatusCompleted || a.Status == StatusCancelled || a.Status == StatusNoShow
}

func validStatus(s string) bool {
	switch s {
	case StatusBooked, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

func validType(t string) bool {
	switch t {
	case TypeRegular, TypeFollowUp, TypeEmergency:
		return true
	}
	return false
}

func validPayment(p string) bool {
	switch p {
	case PaymentPending, PaymentPaid, PaymentInsurance:
		return true
	}
	return false
}
