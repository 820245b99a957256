package patients

import (
	"context"
	"time"

	"github.com/google/uuid"

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

type Service struct {
	patients Repository
	accounts AccountService
	tx       db.TxRunner
}

func NewService(patients Repository, accounts AccountService, tx db.TxRunner) *Service {
	return &Service{patients: patients, accounts: accounts, tx: tx}
}

type CreateInput struct {
	Username    string     `json:"username" form:"username"`
	Email       string     `json:"email" form:"email"`
	Password    string     `json:"password" form:"password"`
	Phone       *string    `json:"phone" form:"phone"`
	DateOfBirth *time.Time `json:"date_of_birth" form:"date_of_birth"`
	Gender      *string    `json:"gender" form:"gender"`
	BloodGroup  *string    `json:"blood_group" form:"blood_group"`
	Address     *string    `json:"address" form:"address"`
	City        *string    `json:"city" form:"city"`
}

// Create provisions a patient account and profile in one transaction.
// Admin only; the handler enforces the role.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Patient, error) {
	var patient *Patient
	err := s.tx(ctx, func(ctx context.Context) error {
		user, err := s.accounts.CreateAccount(ctx, in.Username, in.Email, in.Password, auth.RolePatient)
		if err != nil {
			return err
		}

		patient = &Patient{
			ID:                  uuid.New(),
			UserID:              user.ID,
			Phone:               in.Phone,
			DateOfBirth:         in.DateOfBirth,
			Gender:              in.Gender,
			BloodGroup:          in.BloodGroup,
			Address:             in.Address,
			City:                in.City,
			EnableNotifications: true,
			Username:            user.Username,
			Email:               user.Email,
		}
		if err := s.patients.Create(ctx, patient); err != nil {
			return httperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return patient, nil
}

// Get returns a patient subject to role scoping: patients see themselves,
// doctors see patients they have appointments with, admins see everyone.
func (s *Service) Get(ctx context.Context, principal auth.Principal, id uuid.UUID) (*Patient, error) {
	switch {
	case principal.IsAdmin():
	case principal.IsPatient():
		if principal.ProfileID != id {
			return nil, httperr.Forbidden("access to other patients is not allowed")
		}
	case principal.IsDoctor():
		seen, err := s.patients.SeenByDoctor(ctx, id, principal.ProfileID)
		if err != nil {
			return nil, httperr.Internal(err)
		}
		if !seen {
			return nil, httperr.Forbidden("no appointment history with this patient")
		}
	default:
		return nil, httperr.Forbidden("access denied")
	}

	return s.patients.GetByID(ctx, id)
}

func (s *Service) GetByUserID(ctx context.Context, userID uuid.UUID) (*Patient, error) {
	return s.patients.GetByUserID(ctx, userID)
}

// List applies the role scope before pagination: admins get all active
// patients, doctors only patients from their own appointments, patients just
// themselves.
func (s *Service) List(ctx context.Context, principal auth.Principal, limit, offset int) ([]*Patient, int, error) {
	switch {
	case principal.IsAdmin():
		items, total, err := s.patients.List(ctx, limit, offset)
		if err != nil {
			return nil, 0, httperr.Internal(err)
		}
		return items, total, nil
	case principal.IsDoctor():
		items, total, err := s.patients.ListByDoctor(ctx, principal.ProfileID, limit, offset)
		if err != nil {
			return nil, 0, httperr.Internal(err)
		}
		return items, total, nil
	case principal.IsPatient():
		p, err := s.patients.GetByID(ctx, principal.ProfileID)
		if err != nil {
			return nil, 0, err
		}
		return []*Patient{p}, 1, nil
	default:
		return nil, 0, httperr.Forbidden("access denied")
	}
}

type UpdateInput struct {
	Phone                  *string    `json:"phone" form:"phone"`
	AlternatePhone         *string    `json:"alternate_phone" form:"alternate_phone"`
	DateOfBirth            *time.Time `json:"date_of_birth" form:"date_of_birth"`
	Gender                 *string    `json:"gender" form:"gender"`
	BloodGroup             *string    `json:"blood_group" form:"blood_group"`
	Address                *string    `json:"address" form:"address"`
	City                   *string    `json:"city" form:"city"`
	Pincode                *string    `json:"pincode" form:"pincode"`
	MedicalHistory         *string    `json:"medical_history" form:"medical_history"`
	Allergies              *string    `json:"allergies" form:"allergies"`
	InsuranceProvider      *string    `json:"insurance_provider" form:"insurance_provider"`
	InsuranceID            *string    `json:"insurance_id" form:"insurance_id"`
	EmergencyContact       *string    `json:"emergency_contact" form:"emergency_contact"`
	EmergencyContactName   *string    `json:"emergency_contact_name" form:"emergency_contact_name"`
	EnableNotifications    *bool      `json:"enable_notifications" form:"enable_notifications"`
	NotificationPreference *string    `json:"notification_preference" form:"notification_preference"`
}

// Update lets a patient edit their own demographics and medical details and
// an admin edit anyone's. Doctors never write patient profiles.
func (s *Service) Update(ctx context.Context, principal auth.Principal, id uuid.UUID, in UpdateInput) (*Patient, error) {
	switch {
	case principal.IsAdmin():
	case principal.IsPatient():
		if principal.ProfileID != id {
			return nil, httperr.Forbidden("patients may only update their own profile")
		}
	default:
		return nil, httperr.Forbidden("doctors cannot modify patient profiles")
	}

	patient, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Phone != nil {
		patient.Phone = in.Phone
	}
	if in.AlternatePhone != nil {
		patient.AlternatePhone = in.AlternatePhone
	}
	if in.DateOfBirth != nil {
		patient.DateOfBirth = in.DateOfBirth
	}
	if in.Gender != nil {
		patient.Gender = in.Gender
	}
	if in.BloodGroup != nil {
		patient.BloodGroup = in.BloodGroup
	}
	if in.Address != nil {
		patient.Address = in.Address
	}
	if in.City != nil {
		patient.City = in.City
	}
	if in.Pincode != nil {
		patient.Pincode = in.Pincode
	}
	if in.MedicalHistory != nil {
		patient.MedicalHistory = in.MedicalHistory
	}
	if in.Allergies != nil {
		patient.Allergies = in.Allergies
	}
	if in.InsuranceProvider != nil {
		patient.InsuranceProvider = in.InsuranceProvider
	}
	if in.InsuranceID != nil {
		patient.InsuranceID = in.InsuranceID
	}
	if in.EmergencyContact != nil {
		patient.EmergencyContact = in.EmergencyContact
	}
	if in.EmergencyContactName != nil {
		patient.EmergencyContactName = in.EmergencyContactName
	}
	if in.EnableNotifications != nil {
		patient.EnableNotifications = *in.EnableNotifications
	}
	if in.NotificationPreference != nil {
		patient.NotificationPreference = in.NotificationPreference
	}

	if err := s.patients.Update(ctx, patient); err != nil {
		return nil, httperr.Internal(err)
	}
	return patient, nil
}

// Delete soft-deletes a patient by deactivating the account. Admin only; the
// handler enforces the role.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	patient, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.accounts.Deactivate(ctx, patient.UserID)
}
