package db

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestTxFromContext_Empty(t *testing.T) {
	if tx := TxFromContext(context.Background()); tx != nil {
		t.Errorf("expected nil tx from empty context, got %v", tx)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	uniqueErr := &pgconn.PgError{Code: "23505", ConstraintName: "uq_booked_slot"}

	if !IsUniqueViolation(uniqueErr, "") {
		t.Error("expected unique violation to match with empty constraint")
	}
	if !IsUniqueViolation(uniqueErr, "uq_booked_slot") {
		t.Error("expected unique violation to match named constraint")
	}
	if IsUniqueViolation(uniqueErr, "uq_users_email") {
		t.Error("expected mismatch for different constraint name")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}, "") {
		t.Error("expected foreign key violation not to match")
	}
	if IsUniqueViolation(context.Canceled, "") {
		t.Error("expected non-pg error not to match")
	}
}

func TestIsForeignKeyViolation(t *testing.T) {
	if !IsForeignKeyViolation(&pgconn.PgError{Code: "23503"}) {
		t.Error("expected foreign key violation to match")
	}
	if IsForeignKeyViolation(&pgconn.PgError{Code: "23505"}) {
		t.Error("expected unique violation not to match")
	}
	if IsForeignKeyViolation(nil) {
		t.Error("expected nil error not to match")
	}
}
