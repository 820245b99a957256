package directory

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, d *Department) error
	GetByID(ctx context.Context, id uuid.UUID) (*Department, error)
	List(ctx context.Context) ([]*Department, error)
	Update(ctx context.Context, d *Department) error
	Delete(ctx context.Context, id uuid.UUID) error
	NameTaken(ctx context.Context, name string) (bool, error)
	DoctorCount(ctx context.Context, id uuid.UUID) (int, error)
}
