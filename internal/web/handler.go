package web

import (
	"context"
	"net/http"
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
	"github.com/hms/hms/pkg/pagination"
)

// The browser surface calls the same domain services as the JSON API, so the
// scoping rules live in exactly one place. The interfaces below name the
// slices of each service the pages use.

type IdentityService interface {
	Register(ctx context.Context, in identity.RegisterInput) (*identity.User, uuid.UUID, error)
	Login(ctx context.Context, username, password, role string) (*identity.User, error)
	IsActive(ctx context.Context, userID uuid.UUID) (bool, error)
}

type DirectoryService interface {
	List(ctx context.Context) ([]*directory.Department, error)
}

type DoctorService interface {
	Create(ctx context.Context, in doctors.CreateInput) (*doctors.Doctor, error)
	Get(ctx context.Context, id uuid.UUID) (*doctors.Doctor, error)
	List(ctx context.Context, f doctors.Filter, limit, offset int) ([]*doctors.Doctor, int, error)
	Update(ctx context.Context, principal auth.Principal, id uuid.UUID, in doctors.UpdateInput) (*doctors.Doctor, error)
}

type PatientService interface {
	Get(ctx context.Context, principal auth.Principal, id uuid.UUID) (*patients.Patient, error)
	List(ctx context.Context, principal auth.Principal, limit, offset int) ([]*patients.Patient, int, error)
	Update(ctx context.Context, principal auth.Principal, id uuid.UUID, in patients.UpdateInput) (*patients.Patient, error)
}

type SchedulingService interface {
	Book(ctx context.Context, principal auth.Principal, in scheduling.BookInput) (*scheduling.Appointment, error)
	List(ctx context.Context, principal auth.Principal, f scheduling.Filter, limit, offset int) ([]*scheduling.Appointment, int, error)
	Cancel(ctx context.Context, principal auth.Principal, id uuid.UUID) (*scheduling.Appointment, error)
}

type ClinicalService interface {
	Record(ctx context.Context, principal auth.Principal, appointmentID uuid.UUID, in clinical.RecordInput) (*clinical.Treatment, error)
	List(ctx context.Context, principal auth.Principal, f clinical.Filter, limit, offset int) ([]*clinical.Treatment, int, error)
}

type Handler struct {
	sessions    *auth.Sessions
	identity    IdentityService
	profiles    identity.ProfileResolver
	departments DirectoryService
	doctors     DoctorService
	patients    PatientService
	scheduling  SchedulingService
	clinical    ClinicalService
}

func NewHandler(
	sessions *auth.Sessions,
	identitySvc IdentityService,
	profiles identity.ProfileResolver,
	departments DirectoryService,
	doctorSvc DoctorService,
	patientSvc PatientService,
	schedulingSvc SchedulingService,
	clinicalSvc ClinicalService,
) *Handler {
	return &Handler{
		sessions:    sessions,
		identity:    identitySvc,
		profiles:    profiles,
		departments: departments,
		doctors:     doctorSvc,
		patients:    patientSvc,
		scheduling:  schedulingSvc,
		clinical:    clinicalSvc,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Home)

	authGroup := e.Group("/auth")
	authGroup.GET("/login", h.LoginForm)
	authGroup.POST("/login", h.Login)
	authGroup.GET("/register", h.RegisterForm)
	authGroup.POST("/register", h.Register)
	authGroup.GET("/logout", h.Logout)

	admin := e.Group("/admin", h.requireSession, h.requireRole(auth.RoleAdmin), htmlErrors("/admin/dashboard"))
	admin.GET("/dashboard", h.AdminDashboard)
	admin.GET("/doctors", h.AdminDoctors)
	admin.GET("/doctors/new", h.AdminDoctorForm)
	admin.POST("/doctors/new", h.AdminDoctorCreate)
	admin.GET("/patients", h.AdminPatients)
	admin.GET("/appointments", h.AdminAppointments)

	doctor := e.Group("/doctor", h.requireSession, h.requireRole(auth.RoleDoctor), htmlErrors("/doctor/dashboard"))
	doctor.GET("/dashboard", h.DoctorDashboard)
	doctor.GET("/appointments", h.DoctorAppointments)
	doctor.GET("/patients", h.DoctorPatients)
	doctor.GET("/treatment/:id", h.TreatmentForm)
	doctor.POST("/treatment/:id", h.TreatmentRecord)
	doctor.GET("/profile", h.DoctorProfile)
	doctor.POST("/profile", h.DoctorProfileUpdate)

	patient := e.Group("/patient", h.requireSession, h.requireRole(auth.RolePatient), htmlErrors("/patient/dashboard"))
	patient.GET("/dashboard", h.PatientDashboard)
	patient.GET("/doctors", h.PatientDoctors)
	patient.GET("/book/:doctorID", h.BookingForm)
	patient.POST("/book/:doctorID", h.Book)
	patient.GET("/appointments", h.PatientAppointments)
	patient.POST("/appointments/:id/cancel", h.CancelAppointment)
	patient.GET("/history", h.PatientHistory)
	patient.GET("/profile", h.PatientProfile)
	patient.POST("/profile", h.PatientProfileUpdate)
}

// requireSession verifies the session cookie; browsers land on the login
// page instead of a JSON 401.
func (h *Handler) requireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie(auth.SessionCookieName)
		if err != nil || cookie.Value == "" {
			setFlash(c, "error", "please log in")
			return c.Redirect(http.StatusSeeOther, "/auth/login")
		}

		principal, err := h.sessions.Verify(cookie.Value)
		if err != nil {
			h.sessions.ClearCookie(c)
			setFlash(c, "error", "please log in")
			return c.Redirect(http.StatusSeeOther, "/auth/login")
		}

		active, err := h.identity.IsActive(c.Request().Context(), principal.UserID)
		if err != nil {
			return httperr.Internal(err)
		}
		if !active {
			h.sessions.ClearCookie(c)
			setFlash(c, "error", "account is deactivated")
			return c.Redirect(http.StatusSeeOther, "/auth/login")
		}

		ctx := auth.WithPrincipal(c.Request().Context(), principal)
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// requireRole sends a logged-in user of the wrong role back to their own
// dashboard. Roles never overlap here, admin included.
func (h *Handler) requireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, ok := auth.PrincipalFromContext(c.Request().Context())
			if !ok {
				return c.Redirect(http.StatusSeeOther, "/auth/login")
			}
			if principal.Role != role {
				setFlash(c, "error", "access denied")
				return c.Redirect(http.StatusSeeOther, roleHome(principal.Role))
			}
			return next(c)
		}
	}
}

func roleHome(role string) string {
	switch role {
	case auth.RoleAdmin:
		return "/admin/dashboard"
	case auth.RoleDoctor:
		return "/doctor/dashboard"
	case auth.RolePatient:
		return "/patient/dashboard"
	}
	return "/auth/login"
}

// Home sends a logged-in user to their dashboard, everyone else to login.
func (h *Handler) Home(c echo.Context) error {
	if cookie, err := c.Cookie(auth.SessionCookieName); err == nil && cookie.Value != "" {
		if principal, err := h.sessions.Verify(cookie.Value); err == nil {
			return c.Redirect(http.StatusSeeOther, roleHome(principal.Role))
		}
	}
	return c.Redirect(http.StatusSeeOther, "/auth/login")
}

// render executes a page template with the flash and principal attached.
func (h *Handler) render(c echo.Context, name string, data map[string]interface{}) error {
	if data == nil {
		data = map[string]interface{}{}
	}
	data["Flash"] = popFlash(c)
	if principal, ok := auth.PrincipalFromContext(c.Request().Context()); ok {
		data["Principal"] = principal
	}
	return c.Render(http.StatusOK, name, data)
}

// fail flashes the service error and redirects, keeping browser error
// handling uniform across forms.
func fail(c echo.Context, err error, backTo string) error {
	setFlash(c, "error", httperr.MessageOf(err))
	return c.Redirect(http.StatusSeeOther, backTo)
}

// htmlErrors converts errors escaping page handlers into a flash and a
// redirect to the role's dashboard, so the JSON error envelope never
// reaches a browser tab. An error on the dashboard itself goes to the
// login page instead of looping.
func htmlErrors(fallback string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil || c.Response().Committed {
				return err
			}
			target := fallback
			if c.Request().URL.Path == fallback {
				target = "/auth/login"
			}
			return fail(c, err, target)
		}
	}
}

func pageParams(c echo.Context) pagination.Params {
	return pagination.FromContext(c)
}

func parseDatePtr(v string) *time.Time {
	if v == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil
	}
	return &t
}
