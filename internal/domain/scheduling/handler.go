package scheduling

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/httperr"
	"github.com/hms/hms/pkg/envelope"
	"github.com/hms/hms/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// All appointment routes are scoped inside the service by the caller's
	// role, so no role middleware here beyond the session requirement.
	api.GET("/appointments", h.List)
	api.POST("/appointments", h.Book, auth.RequireRole(auth.RoleAdmin, auth.RolePatient))
	api.GET("/appointments/:id", h.Get)
	api.PUT("/appointments/:id", h.Update)
	api.DELETE("/appointments/:id", h.Delete)
}

func (h *Handler) List(c echo.Context) error {
	principal, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return httperr.Unauthorized("authentication required")
	}

	var f Filter
	if v := c.QueryParam("doctor_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return httperr.Validation("invalid doctor_id")
		}
		f.DoctorID = &id
	}
	if v := c.QueryParam("patient_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return httperr.Validation("invalid patient_id")
		}
		f.PatientID = &id
	}
	f.Status = c.QueryParam("status")
	if v := c.QueryParam("date_from"); v != "" {
		from, err := time.Parse("2006-01-02", v)
		if err != nil {
			return httperr.Validation("date_from must be YYYY-MM-DD")
		}
		f.DateFrom = &from
	}
	if v := c.QueryParam("date_to"); v != "" {
		to, err := time.Parse("2006-01-02", v)
		if err != nil {
			return httperr.Validation("date_to must be YYYY-MM-DD")
		}
		f.DateTo = &to
	}

	page := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), principal, f, page.PerPage, page.Offset())
	if err != nil {
		return err
	}

	return envelope.Data(c, map[string]interface{}{
		"appointments": items,
		"pagination":   pagination.NewMeta(page, total),
	})
}

func (h *Handler) Book(c echo.Context) error {
	principal, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return httperr.Unauthorized("authentication required")
	}

	var in BookInput
	if err := c.Bind(&in); err != nil {
		return httperr.Validation("invalid request body")
	}

	appt, err := h.svc.Book(c.Request().Context(), principal, in)
	if err != nil {
		return err
	}
	return envelope.OK(c, http.StatusCreated, "appointment booked", appt)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Validation("invalid appointment id")
	}
	principal, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return httperr.Unauthorized("authentication required")
	}

	appt, err := h.svc.Get(c.Request().Context(), principal, id)
	if err != nil {
		return err
	}
	return envelope.Data(c, appt)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Validation("invalid appointment id")
	}
	principal, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return httperr.Unauthorized("authentication required")
	}

	var in UpdateInput
	if err := c.Bind(&in); err != nil {
		return httperr.Validation("invalid request body")
	}

	appt, err := h.svc.Update(c.Request().Context(), principal, id, in)
	if err != nil {
		return err
	}
	return envelope.OK(c, http.StatusOK, "appointment updated", appt)
}

// Delete cancels for patients and doctors; admins remove the record outright
// unless a treatment references it.
func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Validation("invalid appointment id")
	}
	principal, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return httperr.Unauthorized("authentication required")
	}

	if principal.IsAdmin() {
		if err := h.svc.Delete(c.Request().Context(), id); err != nil {
			return err
		}
		return envelope.OK(c, http.StatusOK, "appointment deleted", nil)
	}

	appt, err := h.svc.Cancel(c.Request().Context(), principal, id)
	if err != nil {
		return err
	}
	return envelope.OK(c, http.StatusOK, "appointment cancelled", appt)
}
