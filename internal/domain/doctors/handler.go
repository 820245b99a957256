package doctors

import (
	"net/http"
	"strconv"

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
	// Patients browse doctors to book, so reads are open to all roles.
	api.GET("/doctors", h.List)
	api.GET("/doctors/:id", h.Get)

	api.POST("/doctors", h.Create, auth.RequireRole(auth.RoleAdmin))
	api.PUT("/doctors/:id", h.Update, auth.RequireRole(auth.RoleAdmin, auth.RoleDoctor))
	api.DELETE("/doctors/:id", h.Delete, auth.RequireRole(auth.RoleAdmin))
}

func (h *Handler) List(c echo.Context) error {
	var f Filter

	if v := c.QueryParam("department_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return httperr.Validation("invalid department_id")
		}
		f.DepartmentID = &id
	}
	f.Specialization = c.QueryParam("specialization")
	if v := c.QueryParam("is_available"); v != "" {
		avail, err := strconv.ParseBool(v)
		if err != nil {
			return httperr.Validation("invalid is_available")
		}
		f.Available = &avail
	}

	page := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), f, page.PerPage, page.Offset())
	if err != nil {
		return err
	}

	return envelope.Data(c, map[string]interface{}{
		"doctors":    items,
		"pagination": pagination.NewMeta(page, total),
	})
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Validation("invalid doctor id")
	}
	d, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return envelope.Data(c, d)
}

func (h *Handler) Create(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return httperr.Validation("invalid request body")
	}
	d, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return envelope.OK(c, http.StatusCreated, "doctor created", d)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Validation("invalid doctor id")
	}

	principal, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return httperr.Unauthorized("authentication required")
	}

	var in UpdateInput
	if err := c.Bind(&in); err != nil {
		return httperr.Validation("invalid request body")
	}

	d, err := h.svc.Update(c.Request().Context(), principal, id, in)
	if err != nil {
		return err
	}
	return envelope.OK(c, http.StatusOK, "doctor updated", d)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Validation("invalid doctor id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return envelope.OK(c, http.StatusOK, "doctor deactivated", nil)
}
