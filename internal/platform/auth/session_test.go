package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestSessions_IssueVerify(t *testing.T) {
	sessions := NewSessions(testSecret, time.Hour, false)

	p := Principal{
		UserID:    uuid.New(),
		Role:      RoleDoctor,
		ProfileID: uuid.New(),
	}

	token, err := sessions.Issue(p)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	got, err := sessions.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if got.UserID != p.UserID {
		t.Errorf("UserID = %v, want %v", got.UserID, p.UserID)
	}
	if got.Role != RoleDoctor {
		t.Errorf("Role = %q, want %q", got.Role, RoleDoctor)
	}
	if got.ProfileID != p.ProfileID {
		t.Errorf("ProfileID = %v, want %v", got.ProfileID, p.ProfileID)
	}
}

func TestSessions_AdminHasNoProfile(t *testing.T) {
	sessions := NewSessions(testSecret, time.Hour, false)

	token, err := sessions.Issue(Principal{UserID: uuid.New(), Role: RoleAdmin})
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	got, err := sessions.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if got.ProfileID != uuid.Nil {
		t.Errorf("expected nil ProfileID for admin, got %v", got.ProfileID)
	}
}

func TestSessions_Expired(t *testing.T) {
	sessions := NewSessions(testSecret, -time.Minute, false)

	token, err := sessions.Issue(Principal{UserID: uuid.New(), Role: RolePatient})
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	if _, err := sessions.Verify(token); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestSessions_WrongSecret(t *testing.T) {
	sessions := NewSessions(testSecret, time.Hour, false)
	other := NewSessions([]byte("fedcba9876543210fedcba9876543210"), time.Hour, false)

	token, err := sessions.Issue(Principal{UserID: uuid.New(), Role: RolePatient})
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	if _, err := other.Verify(token); err == nil {
		t.Fatal("expected error for token signed with different secret")
	}
}

func TestSessions_Garbage(t *testing.T) {
	sessions := NewSessions(testSecret, time.Hour, false)
	if _, err := sessions.Verify("not.a.token"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}
