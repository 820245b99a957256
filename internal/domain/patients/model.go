package patients

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patients table. Username and Email are joined from
// users for display.
type Patient struct {
	ID                     uuid.UUID  `db:"id" json:"id"`
	UserID                 uuid.UUID  `db:"user_id" json:"user_id"`
	Phone                  *string    `db:"phone" json:"phone,omitempty"`
	AlternatePhone         *string    `db:"alternate_phone" json:"alternate_phone,omitempty"`
	DateOfBirth            *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender                 *string    `db:"gender" json:"gender,omitempty"`
	BloodGroup             *string    `db:"blood_group" json:"blood_group,omitempty"`
	Address                *string    `db:"address" json:"address,omitempty"`
	City                   *string    `db:"city" json:"city,omitempty"`
	Pincode                *string    `db:"pincode" json:"pincode,omitempty"`
	MedicalHistory         *string    `db:"medical_history" json:"medical_history,omitempty"`
	Allergies              *string    `db:"allergies" json:"allergies,omitempty"`
	InsuranceProvider      *string    `db:"insurance_provider" json:"insurance_provider,omitempty"`
	InsuranceID            *string    `db:"insurance_id" json:"insurance_id,omitempty"`
	EmergencyContact       *string    `db:"emergency_contact" json:"emergency_contact,omitempty"`
	EmergencyContactName   *string    `db:"emergency_contact_name" json:"emergency_contact_name,omitempty"`
	EnableNotifications    bool       `db:"enable_notifications" json:"enable_notifications"`
	NotificationPreference *string    `db:"notification_preference" json:"notification_preference,omitempty"`
	LastVisit              *time.Time `db:"last_visit" json:"last_visit,omitempty"`
	TotalVisits            int        `db:"total_visits" json:"total_visits"`
	TotalSpent             float64    `db:"total_spent" json:"total_spent"`
	CreatedAt              time.Time  `db:"created_at" json:"created_at"`

	Username string `db:"-" json:"username,omitempty"`
	Email    string `db:"-" json:"email,omitempty"`
}
