package identity

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/httperr"
)

// ProfileCreator creates the empty patient profile that backs a self-service
// registration. Implemented by the patients repository.
type ProfileCreator interface {
	CreateEmptyProfile(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
}

type Service struct {
	users    Repository
	profiles ProfileCreator
	tx       db.TxRunner
}

func NewService(users Repository, profiles ProfileCreator, tx db.TxRunner) *Service {
	return &Service{users: users, profiles: profiles, tx: tx}
}

type RegisterInput struct {
	Username        string `json:"username" form:"username"`
	Email           string `json:"email" form:"email"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
	Role            string `json:"role" form:"role"`
}

// Register creates a patient account with an empty profile. Self-service
// registration is patient-only: any other requested role is rejected here so
// neither surface can hand out elevated accounts.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, uuid.UUID, error) {
	if in.Role != "" && in.Role != auth.RolePatient {
		return nil, uuid.Nil, httperr.Forbidden("self-registration is available to patients only")
	}

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if in.Username == "" {
		return nil, uuid.Nil, httperr.Validation("username is required")
	}
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return nil, uuid.Nil, httperr.Validation("a valid email is required")
	}
	if len(in.Password) < 6 {
		return nil, uuid.Nil, httperr.Validation("password must be at least 6 characters")
	}
	if in.Password != in.ConfirmPassword {
		return nil, uuid.Nil, httperr.Validation("passwords do not match")
	}

	user, err := s.newUser(ctx, in.Username, in.Email, in.Password, auth.RolePatient)
	if err != nil {
		return nil, uuid.Nil, err
	}

	var profileID uuid.UUID
	err = s.tx(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, user); err != nil {
			return httperr.Internal(err)
		}
		profileID, err = s.profiles.CreateEmptyProfile(ctx, user.ID)
		if err != nil {
			return httperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, uuid.Nil, err
	}
	return user, profileID, nil
}

// CreateAccount creates a user row for an admin-provisioned doctor or
// patient. Callers run it inside their own transaction alongside the profile
// insert.
func (s *Service) CreateAccount(ctx context.Context, username, email, password, role string) (*User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))

	if username == "" {
		return nil, httperr.Validation("username is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, httperr.Validation("a valid email is required")
	}
	if len(password) < 6 {
		return nil, httperr.Validation("password must be at least 6 characters")
	}
	if role != auth.RoleDoctor && role != auth.RolePatient {
		return nil, httperr.Validation("invalid role %q", role)
	}

	user, err := s.newUser(ctx, username, email, password, role)
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, httperr.Internal(err)
	}
	return user, nil
}

// newUser validates uniqueness and hashes the password.
func (s *Service) newUser(ctx context.Context, username, email, password, role string) (*User, error) {
	taken, err := s.users.UsernameTaken(ctx, username)
	if err != nil {
		return nil, httperr.Internal(err)
	}
	if taken {
		return nil, httperr.Conflict("username is already taken")
	}

	taken, err = s.users.EmailTaken(ctx, email)
	if err != nil {
		return nil, httperr.Internal(err)
	}
	if taken {
		return nil, httperr.Conflict("email is already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, httperr.Internal(err)
	}

	return &User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}, nil
}

// Login verifies credentials against the asserted role. Every failure mode
// returns the same generic error so callers cannot probe which part failed.
func (s *Service) Login(ctx context.Context, username, password, role string) (*User, error) {
	genericErr := httperr.Unauthorized("invalid username or password")

	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if httperr.KindOf(err) == httperr.KindNotFound {
			return nil, genericErr
		}
		return nil, httperr.Internal(err)
	}
	if !user.IsActive {
		return nil, genericErr
	}
	if user.Role != role {
		return nil, genericErr
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, genericErr
	}
	return user, nil
}

// Deactivate soft-deletes an account. The row stays for history; the login
// and session checks refuse it from now on.
func (s *Service) Deactivate(ctx context.Context, userID uuid.UUID) error {
	if err := s.users.SetActive(ctx, userID, false); err != nil {
		return httperr.Internal(err)
	}
	return nil
}

// IsActive satisfies the session middleware's account check.
func (s *Service) IsActive(ctx context.Context, userID uuid.UUID) (bool, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if httperr.KindOf(err) == httperr.KindNotFound {
			return false, nil
		}
		return false, err
	}
	return user.IsActive, nil
}
