package directory

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/httperr"
)

type Service struct {
	departments Repository
}

func NewService(departments Repository) *Service {
	return &Service{departments: departments}
}

func (s *Service) List(ctx context.Context) ([]*Department, error) {
	items, err := s.departments.List(ctx)
	if err != nil {
		return nil, httperr.Internal(err)
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Department, error) {
	return s.departments.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, name string, description *string) (*Department, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, httperr.Validation("department name is required")
	}

	taken, err := s.departments.NameTaken(ctx, name)
	if err != nil {
		return nil, httperr.Internal(err)
	}
	if taken {
		return nil, httperr.Conflict("department already exists")
	}

	d := &Department{ID: uuid.New(), Name: name, Description: description}
	if err := s.departments.Create(ctx, d); err != nil {
		return nil, httperr.Internal(err)
	}
	return d, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, name string, description *string) (*Department, error) {
	d, err := s.departments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, httperr.Validation("department name is required")
	}
	if !strings.EqualFold(name, d.Name) {
		taken, err := s.departments.NameTaken(ctx, name)
		if err != nil {
			return nil, httperr.Internal(err)
		}
		if taken {
			return nil, httperr.Conflict("department already exists")
		}
	}

	d.Name = name
	if description != nil {
		d.Description = description
	}
	if err := s.departments.Update(ctx, d); err != nil {
		return nil, httperr.Internal(err)
	}
	return d, nil
}

// Delete removes a department. Departments with assigned doctors cannot be
// removed.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.departments.GetByID(ctx, id); err != nil {
		return err
	}

	count, err := s.departments.DoctorCount(ctx, id)
	if err != nil {
		return httperr.Internal(err)
	}
	if count > 0 {
		return httperr.Conflict("department has assigned doctors")
	}

	if err := s.departments.Delete(ctx, id); err != nil {
		return httperr.Internal(err)
	}
	return nil
}
