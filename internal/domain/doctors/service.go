package doctors

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/domain/directory"
	"github.com/hms/hms/internal/domain/identity"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/httperr"
)

// AccountService is the slice of the identity service this package needs.
type AccountService interface {
	CreateAccount(ctx context.Context, username, email, password, role string) (*identity.User, error)
	Deactivate(ctx context.Context, userID uuid.UUID) error
}

// DepartmentDirectory validates department references.
type DepartmentDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*directory.Department, error)
}

type Service struct {
	doctors     Repository
	accounts    AccountService
	departments DepartmentDirectory
	tx          db.TxRunner
}

func NewService(doctors Repository, accounts AccountService, departments DepartmentDirectory, tx db.TxRunner) *Service {
	return &Service{doctors: doctors, accounts: accounts, departments: departments, tx: tx}
}

type CreateInput struct {
	Username         string   `json:"username" form:"username"`
	Email            string   `json:"email" form:"email"`
	Password         string   `json:"password" form:"password"`
	DepartmentID     uuid.UUID `json:"department_id" form:"department_id"`
	Phone            *string  `json:"phone" form:"phone"`
	LicenseNumber    string   `json:"license_number" form:"license_number"`
	ExperienceYears  int      `json:"experience_years" form:"experience_years"`
	Qualification    *string  `json:"qualification" form:"qualification"`
	Specialization   *string  `json:"specialization" form:"specialization"`
	Bio              *string  `json:"bio" form:"bio"`
	ConsultationFees *float64 `json:"consultation_fees" form:"consultation_fees"`
}

// Create provisions a doctor account and profile in one transaction.
// Admin only; the handler enforces the role.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Doctor, error) {
	in.LicenseNumber = strings.TrimSpace(in.LicenseNumber)
	if in.LicenseNumber == "" {
		return nil, httperr.Validation("license number is required")
	}
	if in.DepartmentID == uuid.Nil {
		return nil, httperr.Validation("department is required")
	}
	if in.ExperienceYears < 0 {
		return nil, httperr.Validation("experience years cannot be negative")
	}

	dept, err := s.departments.Get(ctx, in.DepartmentID)
	if err != nil {
		if httperr.KindOf(err) == httperr.KindNotFound {
			return nil, httperr.Validation("department does not exist")
		}
		return nil, err
	}

	taken, err := s.doctors.LicenseTaken(ctx, in.LicenseNumber)
	if err != nil {
		return nil, httperr.Internal(err)
	}
	if taken {
		return nil, httperr.Conflict("license number is already registered")
	}

	fees := DefaultConsultationFees
	if in.ConsultationFees != nil {
		if *in.ConsultationFees < 0 {
			return nil, httperr.Validation("consultation fees cannot be negative")
		}
		fees = *in.ConsultationFees
	}

	var doctor *Doctor
	err = s.tx(ctx, func(ctx context.Context) error {
		user, err := s.accounts.CreateAccount(ctx, in.Username, in.Email, in.Password, auth.RoleDoctor)
		if err != nil {
			return err
		}

		doctor = &Doctor{
			ID:               uuid.New(),
			UserID:           user.ID,
			DepartmentID:     in.DepartmentID,
			Phone:            in.Phone,
			LicenseNumber:    in.LicenseNumber,
			ExperienceYears:  in.ExperienceYears,
			Qualification:    in.Qualification,
			Specialization:   in.Specialization,
			Bio:              in.Bio,
			ConsultationFees: fees,
			IsAvailable:      true,
			Username:         user.Username,
			Email:            user.Email,
			DepartmentName:   dept.Name,
		}
		if err := s.doctors.Create(ctx, doctor); err != nil {
			return httperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doctor, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.doctors.GetByID(ctx, id)
}

func (s *Service) GetByUserID(ctx context.Context, userID uuid.UUID) (*Doctor, error) {
	return s.doctors.GetByUserID(ctx, userID)
}

func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*Doctor, int, error) {
	items, total, err := s.doctors.List(ctx, f, limit, offset)
	if err != nil {
		return nil, 0, httperr.Internal(err)
	}
	return items, total, nil
}

type UpdateInput struct {
	DepartmentID        *uuid.UUID `json:"department_id" form:"department_id"`
	Phone               *string    `json:"phone" form:"phone"`
	LicenseNumber       *string    `json:"license_number" form:"license_number"`
	ExperienceYears     *int       `json:"experience_years" form:"experience_years"`
	Qualification       *string    `json:"qualification" form:"qualification"`
	Specialization      *string    `json:"specialization" form:"specialization"`
	Bio                 *string    `json:"bio" form:"bio"`
	ConsultationFees    *float64   `json:"consultation_fees" form:"consultation_fees"`
	IsAvailable         *bool      `json:"is_available" form:"is_available"`
	ClinicName          *string    `json:"clinic_name" form:"clinic_name"`
	WorkingDays         *string    `json:"working_days" form:"working_days"`
	MorningSlotStart    *string    `json:"morning_slot_start" form:"morning_slot_start"`
	MorningSlotEnd      *string    `json:"morning_slot_end" form:"morning_slot_end"`
	EveningSlotStart    *string    `json:"evening_slot_start" form:"evening_slot_start"`
	EveningSlotEnd      *string    `json:"evening_slot_end" form:"evening_slot_end"`
	AvgConsultationTime *int       `json:"avg_consultation_time" form:"avg_consultation_time"`
}

// restricted reports whether the patch touches fields a doctor cannot change
// on their own profile.
func (in UpdateInput) restricted() bool {
	return in.DepartmentID != nil || in.LicenseNumber != nil ||
		in.ConsultationFees != nil || in.ExperienceYears != nil
}

// Update applies a patch with role-dependent mutability: admins may change
// everything, doctors only contact, bio, availability and working-hours
// fields on their own profile.
func (s *Service) Update(ctx context.Context, principal auth.Principal, id uuid.UUID, in UpdateInput) (*Doctor, error) {
	switch {
	case principal.IsAdmin():
	case principal.IsDoctor():
		if principal.ProfileID != id {
			return nil, httperr.Forbidden("doctors may only update their own profile")
		}
		if in.restricted() {
			return nil, httperr.Forbidden("field not updatable by doctors")
		}
	default:
		return nil, httperr.Forbidden("admin access required")
	}

	doctor, err := s.doctors.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.DepartmentID != nil && *in.DepartmentID != doctor.DepartmentID {
		dept, err := s.departments.Get(ctx, *in.DepartmentID)
		if err != nil {
			if httperr.KindOf(err) == httperr.KindNotFound {
				return nil, httperr.Validation("department does not exist")
			}
			return nil, err
		}
		doctor.DepartmentID = *in.DepartmentID
		doctor.DepartmentName = dept.Name
	}
	if in.LicenseNumber != nil && *in.LicenseNumber != doctor.LicenseNumber {
		taken, err := s.doctors.LicenseTaken(ctx, *in.LicenseNumber)
		if err != nil {
			return nil, httperr.Internal(err)
		}
		if taken {
			return nil, httperr.Conflict("license number is already registered")
		}
		doctor.LicenseNumber = *in.LicenseNumber
	}
	if in.ConsultationFees != nil {
		if *in.ConsultationFees < 0 {
			return nil, httperr.Validation("consultation fees cannot be negative")
		}
		doctor.ConsultationFees = *in.ConsultationFees
	}
	if in.ExperienceYears != nil {
		doctor.ExperienceYears = *in.ExperienceYears
	}
	if in.Phone != nil {
		doctor.Phone = in.Phone
	}
	if in.Qualification != nil {
		doctor.Qualification = in.Qualification
	}
	if in.Specialization != nil {
		doctor.Specialization = in.Specialization
	}
	if in.Bio != nil {
		doctor.Bio = in.Bio
	}
	if in.IsAvailable != nil {
		doctor.IsAvailable = *in.IsAvailable
	}
	if in.ClinicName != nil {
		doctor.ClinicName = in.ClinicName
	}
	if in.WorkingDays != nil {
		doctor.WorkingDays = in.WorkingDays
	}
	if in.MorningSlotStart != nil {
		doctor.MorningSlotStart = in.MorningSlotStart
	}
	if in.MorningSlotEnd != nil {
		doctor.MorningSlotEnd = in.MorningSlotEnd
	}
	if in.EveningSlotStart != nil {
		doctor.EveningSlotStart = in.EveningSlotStart
	}
	if in.EveningSlotEnd != nil {
		doctor.EveningSlotEnd = in.EveningSlotEnd
	}
	if in.AvgConsultationTime != nil {
		doctor.AvgConsultationTime = *in.AvgConsultationTime
	}

	if err := s.doctors.Update(ctx, doctor); err != nil {
		return nil, httperr.Internal(err)
	}
	return doctor, nil
}

// Delete soft-deletes a doctor: the account is deactivated and the profile
// marked unavailable. Appointment history stays intact.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	doctor, err := s.doctors.GetByID(ctx, id)
	if err != nil {
		return err
	}

	return s.tx(ctx, func(ctx context.Context) error {
		if err := s.accounts.Deactivate(ctx, doctor.UserID); err != nil {
			return err
		}
		doctor.IsAvailable = false
		if err := s.doctors.Update(ctx, doctor); err != nil {
			return httperr.Internal(err)
		}
		return nil
	})
}
