package patients

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
	api.GET("/patients", h.List)
	api.GET("/patients/:id", h.Get)
	api.POST("/patients", h.Create, auth.RequireRole(auth.RoleAdmin))
	api.PUT("/patients/:id", h.Update, auth.RequireRole(auth.RoleAdmin, auth.RolePatient))
	api.DELETE("/patients/:id", h.Delete, auth.RequireRole(auth.RoleAdmin))
}

func (h *Handler) List(c echo.Context) error {
	principal, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return httperr.Unauthorized("authentication required")
	}

	page := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), principal, page.PerPage, page.Offset())
	if err != nil {
		return err
	}

	return envelope.Data(c, map[string]interface{}{
		"patients":   items,
		"pagination": pagination.NewMeta(page, total),
	})
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Validation("invalid patient id")
	}
	principal, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return httperr.Unauthorized("authentication required")
	}

	p, err := h.svc.Get(c.Request().Context(), principal, id)
	if err != nil {
		return err
	}
	return envelope.Data(c, p)
}

func (h *Handler) Create(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return httperr.Validation("invalid request body")
	}
	p, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return envelope.OK(c, http.StatusCreated, "patient created", p)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Validation("invalid patient id")
	}
	principal, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return httperr.Unauthorized("authentication required")
	}

	var in UpdateInput
	if err := c.Bind(&in); err != nil {
		return httperr.Validation("invalid request body")
	}

	p, err := h.svc.Update(c.Request().Context(), principal, id, in)
	if err != nil {
		return err
	}
	return envelope.OK(c, http.StatusOK, "patient updated", p)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Validation("invalid patient id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return envelope.OK(c, http.StatusOK, "patient deactivated", nil)
}
