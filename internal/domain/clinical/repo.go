package clinical

import (
	"context"

	"github.com/google/uuid"
)

// Filter narrows treatment listings. The service fills PatientID or DoctorID
// from the principal's scope before user filters apply.
type Filter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    string
}

type Repository interface {
	Create(ctx context.Context, t *Treatment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Treatment, error)
	GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Treatment, error)
	Update(ctx context.Context, t *Treatment) error
	List(ctx context.Context, f Filter, limit, offset int) ([]*Treatment, int, error)
	// ExistsForAppointment reports whether the appointment already has a
	// treatment recorded.
	ExistsForAppointment(ctx context.Context, appointmentID uuid.UUID) (bool, error)
}
