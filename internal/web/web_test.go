package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/domain/clinical"
	"github.com/hms/hms/internal/domain/directory"
	"github.com/hms/hms/internal/domain/doctors"
	"github.com/hms/hms/internal/domain/identity"
	"github.com/hms/hms/internal/domain/patients"
	"github.com/hms/hms/internal/domain/scheduling"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/httperr"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type fakeIdentity struct {
	user     *identity.User
	loginErr error
}

func (f *fakeIdentity) Register(_ context.Context, in identity.RegisterInput) (*identity.User, uuid.UUID, error) {
	if in.Username == "" {
		return nil, uuid.Nil, httperr.Validation("username is required")
	}
	return &identity.User{ID: uuid.New(), Username: in.Username, Role: auth.RolePatient}, uuid.New(), nil
}

func (f *fakeIdentity) Login(_ context.Context, _, _, _ string) (*identity.User, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.user, nil
}

func (f *fakeIdentity) IsActive(_ context.Context, _ uuid.UUID) (bool, error) {
	return true, nil
}

type fakeProfiles struct{ id uuid.UUID }

func (f *fakeProfiles) ProfileIDFor(_ context.Context, _ uuid.UUID, _ string) (uuid.UUID, error) {
	return f.id, nil
}

type fakeDirectory struct{}

func (fakeDirectory) List(_ context.Context) ([]*directory.Department, error) {
	return []*directory.Department{{ID: uuid.New(), Name: "Cardiology"}}, nil
}

type fakeDoctors struct{}

func (fakeDoctors) Create(_ context.Context, in doctors.CreateInput) (*doctors.Doctor, error) {
	return &doctors.Doctor{ID: uuid.New(), Username: in.Username}, nil
}
func (fakeDoctors) Get(_ context.Context, id uuid.UUID) (*doctors.Doctor, error) {
	return &doctors.Doctor{ID: id, Username: "drwho", IsAvailable: true}, nil
}
func (fakeDoctors) List(_ context.Context, _ doctors.Filter, _, _ int) ([]*doctors.Doctor, int, error) {
	return nil, 0, nil
}
func (fakeDoctors) Update(_ context.Context, _ auth.Principal, id uuid.UUID, _ doctors.UpdateInput) (*doctors.Doctor, error) {
	return &doctors.Doctor{ID: id}, nil
}

type fakePatients struct{}

func (fakePatients) Get(_ context.Context, _ auth.Principal, id uuid.UUID) (*patients.Patient, error) {
	return &patients.Patient{ID: id, Username: "pat"}, nil
}
func (fakePatients) List(_ context.Context, _ auth.Principal, _, _ int) ([]*patients.Patient, int, error) {
	return nil, 0, nil
}
func (fakePatients) Update(_ context.Context, _ auth.Principal, id uuid.UUID, _ patients.UpdateInput) (*patients.Patient, error) {
	return &patients.Patient{ID: id}, nil
}

type fakeScheduling struct{}

func (fakeScheduling) Book(_ context.Context, _ auth.Principal, _ scheduling.BookInput) (*scheduling.Appointment, error) {
	return &scheduling.Appointment{ID: uuid.New()}, nil
}
func (fakeScheduling) List(_ context.Context, _ auth.Principal, _ scheduling.Filter, _, _ int) ([]*scheduling.Appointment, int, error) {
	return nil, 0, nil
}
func (fakeScheduling) Cancel(_ context.Context, _ auth.Principal, id uuid.UUID) (*scheduling.Appointment, error) {
	return &scheduling.Appointment{ID: id, Status: scheduling.StatusCancelled}, nil
}

type fakeClinical struct{}

func (fakeClinical) Record(_ context.Context, _ auth.Principal, appointmentID uuid.UUID, _ clinical.RecordInput) (*clinical.Treatment, error) {
	return &clinical.Treatment{ID: uuid.New(), AppointmentID: appointmentID}, nil
}
func (fakeClinical) List(_ context.Context, _ auth.Principal, _ clinical.Filter, _, _ int) ([]*clinical.Treatment, int, error) {
	return nil, 0, nil
}

func newTestServer(t *testing.T, ident IdentityService) (*echo.Echo, *auth.Sessions) {
	t.Helper()
	sessions := auth.NewSessions(testSecret, time.Hour, false)
	h := NewHandler(sessions, ident, &fakeProfiles{id: uuid.New()},
		fakeDirectory{}, fakeDoctors{}, fakePatients{}, fakeScheduling{}, fakeClinical{})

	e := echo.New()
	e.Renderer = NewRenderer()
	h.RegisterRoutes(e)
	return e, sessions
}

func sessionCookie(t *testing.T, sessions *auth.Sessions, role string) *http.Cookie {
	t.Helper()
	token, err := sessions.Issue(auth.Principal{UserID: uuid.New(), Role: role, ProfileID: uuid.New()})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return &http.Cookie{Name: auth.SessionCookieName, Value: token}
}

func TestLoginPageRenders(t *testing.T) {
	e, _ := newTestServer(t, &fakeIdentity{})

	req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Log in") {
		t.Error("login page missing form heading")
	}
}

func TestLogin_RedirectsToRoleHome(t *testing.T) {
	tests := []struct {
		role string
		home string
	}{
		{auth.RoleAdmin, "/admin/dashboard"},
		{auth.RoleDoctor, "/doctor/dashboard"},
		{auth.RolePatient, "/patient/dashboard"},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			ident := &fakeIdentity{user: &identity.User{ID: uuid.New(), Username: "u", Role: tt.role}}
			e, _ := newTestServer(t, ident)

			form := strings.NewReader("username=u&password=p&role=" + tt.role)
			req := httptest.NewRequest(http.MethodPost, "/auth/login", form)
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != http.StatusSeeOther {
				t.Fatalf("status = %d, want 303", rec.Code)
			}
			if loc := rec.Header().Get(echo.HeaderLocation); loc != tt.home {
				t.Errorf("redirect = %s, want %s", loc, tt.home)
			}

			var hasSession bool
			for _, c := range rec.Result().Cookies() {
				if c.Name == auth.SessionCookieName && c.Value != "" {
					hasSession = true
				}
			}
			if !hasSession {
				t.Error("no session cookie set")
			}
		})
	}
}

func TestLogin_FailureFlashesAndStays(t *testing.T) {
	ident := &fakeIdentity{loginErr: httperr.Unauthorized("invalid username or password")}
	e, _ := newTestServer(t, ident)

	form := strings.NewReader("username=u&password=bad")
	req := httptest.NewRequest(http.MethodPost, "/auth/login", form)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != "/auth/login" {
		t.Errorf("redirect = %s, want /auth/login", loc)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.SessionCookieName && c.Value != "" {
			t.Error("session cookie set on failed login")
		}
	}
}

func TestGuard_UnauthenticatedRedirectsToLogin(t *testing.T) {
	e, _ := newTestServer(t, &fakeIdentity{})

	for _, path := range []string{"/admin/dashboard", "/doctor/appointments", "/patient/history"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		if rec.Code != http.StatusSeeOther {
			t.Errorf("%s: status = %d, want 303", path, rec.Code)
		}
		if loc := rec.Header().Get(echo.HeaderLocation); loc != "/auth/login" {
			t.Errorf("%s: redirect = %s, want /auth/login", path, loc)
		}
	}
}

func TestGuard_WrongRoleRedirectsHome(t *testing.T) {
	e, sessions := newTestServer(t, &fakeIdentity{})

	// A patient poking at admin and doctor areas lands back on their own
	// dashboard; admin gets no free pass into role areas either.
	tests := []struct {
		role string
		path string
		want string
	}{
		{auth.RolePatient, "/admin/dashboard", "/patient/dashboard"},
		{auth.RolePatient, "/doctor/appointments", "/patient/dashboard"},
		{auth.RoleAdmin, "/doctor/appointments", "/admin/dashboard"},
		{auth.RoleAdmin, "/patient/history", "/admin/dashboard"},
		{auth.RoleDoctor, "/admin/doctors", "/doctor/dashboard"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		req.AddCookie(sessionCookie(t, sessions, tt.role))
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		if rec.Code != http.StatusSeeOther {
			t.Errorf("%s as %s: status = %d, want 303", tt.path, tt.role, rec.Code)
			continue
		}
		if loc := rec.Header().Get(echo.HeaderLocation); loc != tt.want {
			t.Errorf("%s as %s: redirect = %s, want %s", tt.path, tt.role, loc, tt.want)
		}
	}
}

func TestGuard_RightRoleGetsPage(t *testing.T) {
	e, sessions := newTestServer(t, &fakeIdentity{})

	req := httptest.NewRequest(http.MethodGet, "/patient/dashboard", nil)
	req.AddCookie(sessionCookie(t, sessions, auth.RolePatient))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}
}

func TestRegister_RedirectsToLogin(t *testing.T) {
	e, _ := newTestServer(t, &fakeIdentity{})

	form := strings.NewReader("username=newpat&email=p%40x.dev&password=secret1&confirm_password=secret1")
	req := httptest.NewRequest(http.MethodPost, "/auth/register", form)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != "/auth/login" {
		t.Errorf("redirect = %s, want /auth/login", loc)
	}
}

func TestLogout_ClearsSession(t *testing.T) {
	e, sessions := newTestServer(t, &fakeIdentity{})

	req := httptest.NewRequest(http.MethodGet, "/auth/logout", nil)
	req.AddCookie(sessionCookie(t, sessions, auth.RolePatient))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.SessionCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("session cookie not cleared")
	}
}

func TestHome_RoutesByRole(t *testing.T) {
	e, sessions := newTestServer(t, &fakeIdentity{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if loc := rec.Header().Get(echo.HeaderLocation); loc != "/auth/login" {
		t.Errorf("anonymous / redirect = %s, want /auth/login", loc)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(sessionCookie(t, sessions, auth.RoleDoctor))
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if loc := rec.Header().Get(echo.HeaderLocation); loc != "/doctor/dashboard" {
		t.Errorf("doctor / redirect = %s, want /doctor/dashboard", loc)
	}
}

func TestFlashRoundTrip(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	setFlash(c, "error", "something went wrong")

	var flashVal string
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == flashCookie {
			flashVal = ck.Value
		}
	}
	if flashVal == "" {
		t.Fatal("flash cookie not set")
	}

	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.AddCookie(&http.Cookie{Name: flashCookie, Value: flashVal})
	rec2 := httptest.NewRecorder()
	c2 := e.NewContext(req2, rec2)

	flash := popFlash(c2)
	if flash == nil {
		t.Fatal("flash not read back")
	}
	if flash.Kind != "error" || flash.Message != "something went wrong" {
		t.Errorf("flash = %+v", flash)
	}
}

type failingScheduling struct{ fakeScheduling }

func (failingScheduling) List(_ context.Context, _ auth.Principal, _ scheduling.Filter, _, _ int) ([]*scheduling.Appointment, int, error) {
	return nil, 0, httperr.Internal(errors.New("connection refused"))
}

func TestPageErrorFlashesAndRedirects(t *testing.T) {
	sessions := auth.NewSessions(testSecret, time.Hour, false)
	h := NewHandler(sessions, &fakeIdentity{}, &fakeProfiles{id: uuid.New()},
		fakeDirectory{}, fakeDoctors{}, fakePatients{}, failingScheduling{}, fakeClinical{})
	e := echo.New()
	e.Renderer = NewRenderer()
	h.RegisterRoutes(e)

	// A listing page failure lands back on the dashboard with a flash, not
	// a JSON body.
	req := httptest.NewRequest(http.MethodGet, "/patient/appointments", nil)
	req.AddCookie(sessionCookie(t, sessions, auth.RolePatient))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != "/patient/dashboard" {
		t.Errorf("redirect = %q, want /patient/dashboard", loc)
	}
	if strings.Contains(rec.Body.String(), `"success"`) {
		t.Error("browser page rendered the JSON envelope")
	}
	var flashed bool
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == flashCookie && ck.Value != "" {
			flashed = true
		}
	}
	if !flashed {
		t.Error("expected a flash cookie on page error")
	}
}

func TestDashboardErrorDoesNotLoop(t *testing.T) {
	sessions := auth.NewSessions(testSecret, time.Hour, false)
	h := NewHandler(sessions, &fakeIdentity{}, &fakeProfiles{id: uuid.New()},
		fakeDirectory{}, fakeDoctors{}, fakePatients{}, failingScheduling{}, fakeClinical{})
	e := echo.New()
	e.Renderer = NewRenderer()
	h.RegisterRoutes(e)

	req := httptest.NewRequest(http.MethodGet, "/patient/dashboard", nil)
	req.AddCookie(sessionCookie(t, sessions, auth.RolePatient))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != "/auth/login" {
		t.Errorf("redirect = %q, want /auth/login", loc)
	}
}
