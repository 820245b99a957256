package patients

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	// CreateEmptyProfile creates the bare profile row behind a self-service
	// registration and returns its id.
	CreateEmptyProfile(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Patient, error)
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
	// ListByDoctor returns the distinct patients appearing in the given
	// doctor's appointments.
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Patient, int, error)
	// SeenByDoctor reports whether the doctor has at least one appointment
	// with the patient.
	SeenByDoctor(ctx context.Context, patientID, doctorID uuid.UUID) (bool, error)
	Update(ctx context.Context, p *Patient) error
	// RecordVisit bumps total_visits, adds fee to total_spent and stamps
	// last_visit. Runs inside the booking transaction.
	RecordVisit(ctx context.Context, id uuid.UUID, fee float64, at time.Time) error
}
