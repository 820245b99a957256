package doctors

import (
	"context"

	"github.com/google/uuid"
)

// Filter narrows doctor listings. Zero values mean "no constraint".
type Filter struct {
	DepartmentID   *uuid.UUID
	Specialization string // substring match
	Available      *bool
}

type Repository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Doctor, error)
	List(ctx context.Context, f Filter, limit, offset int) ([]*Doctor, int, error)
	Update(ctx context.Context, d *Doctor) error
	LicenseTaken(ctx context.Context, license string) (bool, error)
	IncrementAppointments(ctx context.Context, id uuid.UUID) error
}
