package clinical

import (
	"net/http"

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
	api.POST("/appointments/:id/treatment", h.Record, auth.RequireRole(auth.RoleDoctor))
	api.GET("/appointments/:id/treatment", h.GetByAppointment)

	api.GET("/treatments", h.List)
	api.GET("/treatments/:id", h.Get)
	api.PUT("/treatments/:id", h.Update, auth.RequireRole(auth.RoleAdmin, auth.RoleDoctor))
}

func (h *Handler) Record(c echo.Context) error {
	appointmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Validation("invalid appointment id")
	}
	principal, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return httperr.Unauthorized("authentication required")
	}

	var in RecordInput
	if err := c.Bind(&in); err != nil {
		return httperr.Validation("invalid request body")
	}

	t, err := h.svc.Record(c.Request().Context(), principal, appointmentID, in)
	if err != nil {
		return err
	}
	return envelope.OK(c, http.StatusCreated, "treatment recorded", t)
}

func (h *Handler) GetByAppointment(c echo.Context) error {
	appointmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Validation("invalid appointment id")
	}
	principal, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return httperr.Unauthorized("authentication required")
	}

	t, err := h.svc.GetByAppointment(c.Request().Context(), principal, appointmentID)
	if err != nil {
		return err
	}
	return envelope.Data(c, t)
}

func (h *Handler) List(c echo.Context) error {
	principal, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return httperr.Unauthorized("authentication required")
	}

	var f Filter
	if v := c.QueryParam("patient_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return httperr.Validation("invalid patient_id")
		}
		f.PatientID = &id
	}
	if v := c.QueryParam("doctor_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return httperr.Validation("invalid doctor_id")
		}
		f.DoctorID = &id
	}
	f.Status = c.QueryParam("status")

	page := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), principal, f, page.PerPage, page.Offset())
	if err != nil {
		return err
	}

	return envelope.Data(c, map[string]interface{}{
		"treatments": items,
		"pagination": pagination.NewMeta(page, total),
	})
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Validation("invalid treatment id")
	}
	principal, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return httperr.Unauthorized("authentication required")
	}

	t, err := h.svc.Get(c.Request().Context(), principal, id)
	if err != nil {
		return err
	}
	return envelope.Data(c, t)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Validation("invalid treatment id")
	}
	principal, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return httperr.Unauthorized("authentication required")
	}

	var in UpdateInput
	if err := c.Bind(&in); err != nil {
		return httperr.Validation("invalid request body")
	}

	t, err := h.svc.Update(c.Request().Context(), principal, id, in)
	if err != nil {
		return err
	}
	return envelope.OK(c, http.StatusOK, "treatment updated", t)
}
