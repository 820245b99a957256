package envelope

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestOK(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)

	if err := OK(c, http.StatusCreated, "appointment booked", map[string]string{"id": "abc"}); err != nil {
		t.Fatalf("OK() error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["success"] != true {
		t.Errorf("success = %v", body["success"])
	}
	if body["message"] != "appointment booked" {
		t.Errorf("message = %v", body["message"])
	}
	if _, ok := body["error"]; ok {
		t.Error("error field should be omitted on success")
	}
}

func TestData_OmitsMessage(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	if err := Data(c, []int{1, 2, 3}); err != nil {
		t.Fatalf("Data() error: %v", err)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, ok := body["message"]; ok {
		t.Error("message field should be omitted")
	}
	if body["success"] != true {
		t.Errorf("success = %v", body["success"])
	}
}

func TestFail(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	if err := Fail(c, http.StatusConflict, "time slot is already booked"); err != nil {
		t.Fatalf("Fail() error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["success"] != false {
		t.Errorf("success = %v", body["success"])
	}
	if body["error"] != "time slot is already booked" {
		t.Errorf("error = %v", body["error"])
	}
}
