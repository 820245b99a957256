package identity

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/httperr"
)

type mockUserRepo struct {
	users map[uuid.UUID]*User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uuid.UUID]*User)}
}

func (m *mockUserRepo) Create(_ context.Context, u *User) error {
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, httperr.NotFound("user")
	}
	return u, nil
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, httperr.NotFound("user")
}

func (m *mockUserRepo) UsernameTaken(_ context.Context, username string) (bool, error) {
	for _, u := range m.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepo) EmailTaken(_ context.Context, email string) (bool, error) {
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	if u, ok := m.users[id]; ok {
		u.IsActive = active
	}
	return nil
}

func (m *mockUserRepo) UpdateEmail(_ context.Context, id uuid.UUID, email string) error {
	if u, ok := m.users[id]; ok {
		u.Email = email
	}
	return nil
}

type mockProfiles struct {
	created []uuid.UUID
}

func (m *mockProfiles) CreateEmptyProfile(_ context.Context, userID uuid.UUID) (uuid.UUID, error) {
	m.created = append(m.created, userID)
	return uuid.New(), nil
}

func passthroughTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func newTestService() (*Service, *mockUserRepo, *mockProfiles) {
	repo := newMockUserRepo()
	profiles := &mockProfiles{}
	return NewService(repo, profiles, passthroughTx), repo, profiles
}

func validRegistration() RegisterInput {
	return RegisterInput{
		Username:        "jdoe",
		Email:           "jdoe@example.com",
		Password:        "secret123",
		ConfirmPassword: "secret123",
	}
}

func TestRegister_CreatesUserAndProfile(t *testing.T) {
	svc, repo, profiles := newTestService()

	user, profileID, err := svc.Register(context.Background(), validRegistration())
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	if user.Role != auth.RolePatient {
		t.Errorf("Role = %q, want patient", user.Role)
	}
	if !user.IsActive {
		t.Error("expected new account to be active")
	}
	if user.PasswordHash == "secret123" {
		t.Error("password stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret123")); err != nil {
		t.Errorf("stored hash does not verify: %v", err)
	}
	if len(repo.users) != 1 {
		t.Errorf("expected 1 user, got %d", len(repo.users))
	}
	if len(profiles.created) != 1 || profiles.created[0] != user.ID {
		t.Errorf("expected exactly one profile for user %v, got %v", user.ID, profiles.created)
	}
	if profileID == uuid.Nil {
		t.Error("expected non-nil profile id")
	}
}

func TestRegister_RejectsElevatedRoles(t *testing.T) {
	svc, repo, _ := newTestService()

	for _, role := range []string{auth.RoleDoctor, auth.RoleAdmin} {
		in := validRegistration()
		in.Role = role
		_, _, err := svc.Register(context.Background(), in)
		if err == nil {
			t.Fatalf("expected error for role %q", role)
		}
		if httperr.KindOf(err) != httperr.KindForbidden {
			t.Errorf("role %q: expected KindForbidden, got %v", role, httperr.KindOf(err))
		}
	}
	if len(repo.users) != 0 {
		t.Errorf("no users should be created, got %d", len(repo.users))
	}
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RegisterInput)
	}{
		{"missing username", func(in *RegisterInput) { in.Username = "" }},
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }},
		{"short password", func(in *RegisterInput) { in.Password = "abc"; in.ConfirmPassword = "abc" }},
		{"mismatched passwords", func(in *RegisterInput) { in.ConfirmPassword = "different1" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService()
			in := validRegistration()
			tt.mutate(&in)
			_, _, err := svc.Register(context.Background(), in)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if httperr.KindOf(err) != httperr.KindValidation {
				t.Errorf("expected KindValidation, got %v", httperr.KindOf(err))
			}
		})
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, _, _ := newTestService()

	if _, _, err := svc.Register(context.Background(), validRegistration()); err != nil {
		t.Fatalf("first Register() error: %v", err)
	}

	in := validRegistration()
	in.Email = "other@example.com"
	_, _, err := svc.Register(context.Background(), in)
	if err == nil {
		t.Fatal("expected conflict for duplicate username")
	}
	if httperr.KindOf(err) != httperr.KindConflict {
		t.Errorf("expected KindConflict, got %v", httperr.KindOf(err))
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService()

	if _, _, err := svc.Register(context.Background(), validRegistration()); err != nil {
		t.Fatalf("first Register() error: %v", err)
	}

	in := validRegistration()
	in.Username = "otheruser"
	_, _, err := svc.Register(context.Background(), in)
	if err == nil {
		t.Fatal("expected conflict for duplicate email")
	}
	if httperr.KindOf(err) != httperr.KindConflict {
		t.Errorf("expected KindConflict, got %v", httperr.KindOf(err))
	}
}

func TestLogin_Success(t *testing.T) {
	svc, _, _ := newTestService()

	registered, _, err := svc.Register(context.Background(), validRegistration())
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	user, err := svc.Login(context.Background(), "jdoe", "secret123", auth.RolePatient)
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if user.ID != registered.ID {
		t.Errorf("logged in as %v, want %v", user.ID, registered.ID)
	}
}

func TestLogin_FailureModesAreIndistinguishable(t *testing.T) {
	svc, repo, _ := newTestService()

	user, _, err := svc.Register(context.Background(), validRegistration())
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	attempts := []struct {
		name               string
		username, password string
		role               string
		setup              func()
	}{
		{"unknown username", "ghost", "secret123", auth.RolePatient, nil},
		{"wrong password", "jdoe", "wrongpass", auth.RolePatient, nil},
		{"wrong role", "jdoe", "secret123", auth.RoleDoctor, nil},
		{"deactivated account", "jdoe", "secret123", auth.RolePatient, func() {
			repo.users[user.ID].IsActive = false
		}},
	}

	var messages []string
	for _, tt := range attempts {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setup != nil {
				tt.setup()
			}
			_, err := svc.Login(context.Background(), tt.username, tt.password, tt.role)
			if err == nil {
				t.Fatal("expected login failure")
			}
			if httperr.KindOf(err) != httperr.KindUnauthorized {
				t.Errorf("expected KindUnauthorized, got %v", httperr.KindOf(err))
			}
			messages = append(messages, httperr.MessageOf(err))
		})
	}

	for i := 1; i < len(messages); i++ {
		if messages[i] != messages[0] {
			t.Errorf("failure messages differ: %q vs %q", messages[0], messages[i])
		}
	}
}

func TestIsActive(t *testing.T) {
	svc, repo, _ := newTestService()

	user, _, err := svc.Register(context.Background(), validRegistration())
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	active, err := svc.IsActive(context.Background(), user.ID)
	if err != nil || !active {
		t.Fatalf("IsActive = %v, %v; want true, nil", active, err)
	}

	repo.users[user.ID].IsActive = false
	active, err = svc.IsActive(context.Background(), user.ID)
	if err != nil || active {
		t.Fatalf("IsActive after deactivation = %v, %v; want false, nil", active, err)
	}

	// Unknown users are simply inactive, not an error.
	active, err = svc.IsActive(context.Background(), uuid.New())
	if err != nil || active {
		t.Fatalf("IsActive for unknown user = %v, %v; want false, nil", active, err)
	}
}
