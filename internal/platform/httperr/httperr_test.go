package httperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{Validation("name is required"), http.StatusBadRequest},
		{Unauthorized("invalid credentials"), http.StatusUnauthorized},
		{Forbidden("admin access required"), http.StatusForbidden},
		{NotFound("appointment"), http.StatusNotFound},
		{Conflict("time slot is already booked"), http.StatusConflict},
		{Internal(errors.New("connection refused")), http.StatusInternalServerError},
		{errors.New("plain error"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := StatusOf(tt.err); got != tt.status {
			t.Errorf("StatusOf(%v) = %d, want %d", tt.err, got, tt.status)
		}
	}
}

func TestMessageOf_HidesInternalCause(t *testing.T) {
	err := Internal(errors.New("pq: connection refused on 10.0.0.3"))
	if msg := MessageOf(err); msg != "internal server error" {
		t.Errorf("expected generic message, got %q", msg)
	}

	if msg := MessageOf(errors.New("raw db failure")); msg != "internal server error" {
		t.Errorf("expected generic message for unclassified error, got %q", msg)
	}
}

func TestMessageOf_Wrapped(t *testing.T) {
	// A typed error wrapped by a caller still classifies.
	err := fmt.Errorf("book appointment: %w", Conflict("time slot is already booked"))
	if KindOf(err) != KindConflict {
		t.Errorf("expected KindConflict, got %v", KindOf(err))
	}
	if msg := MessageOf(err); msg != "time slot is already booked" {
		t.Errorf("unexpected message: %q", msg)
	}
}

func TestNotFound_Message(t *testing.T) {
	if msg := NotFound("doctor").Message; msg != "doctor not found" {
		t.Errorf("unexpected message: %q", msg)
	}
}

func TestErrorHandler_Envelope(t *testing.T) {
	e := echo.New()
	handler := ErrorHandler(zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/appointments", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler(Forbidden("admin access required"), c)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if body["success"] != false {
		t.Errorf("expected success=false, got %v", body["success"])
	}
	if body["error"] != "admin access required" {
		t.Errorf("unexpected error message: %v", body["error"])
	}
}

func TestErrorHandler_EchoHTTPError(t *testing.T) {
	e := echo.New()
	handler := ErrorHandler(zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler(echo.NewHTTPError(http.StatusNotFound, "Not Found"), c)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if body["error"] != "Not Found" {
		t.Errorf("unexpected error message: %v", body["error"])
	}
}

func TestErrorHandler_InternalHidesCause(t *testing.T) {
	e := echo.New()
	handler := ErrorHandler(zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/appointments", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler(errors.New("pgx: unexpected EOF"), c)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if body["error"] != "internal server error" {
		t.Errorf("internal cause leaked: %v", body["error"])
	}
}
