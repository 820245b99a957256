package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Filter narrows appointment listings. The service fills PatientID or
// DoctorID from the principal's scope before user filters apply.
type Filter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    string
	DateFrom  *time.Time
	DateTo    *time.Time
}

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error)
	// SlotTaken reports whether the doctor already has a Booked appointment
	// at the given date and time slot, excluding excludeID (uuid.Nil to
	// exclude nothing).
	SlotTaken(ctx context.Context, doctorID uuid.UUID, date time.Time, timeSlot string, excludeID uuid.UUID) (bool, error)
	// HasTreatment reports whether a treatment row references the
	// appointment.
	HasTreatment(ctx context.Context, id uuid.UUID) (bool, error)
}
