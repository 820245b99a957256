package directory

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/httperr"
	"github.com/hms/hms/pkg/envelope"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Any authenticated role may browse departments; registration and
	// booking flows depend on the list.
	api.GET("/departments", h.List)
	api.GET("/departments/:id", h.Get)

	admin := api.Group("/departments", auth.RequireRole(auth.RoleAdmin))
	admin.POST("", h.Create)
	admin.PUT("/:id", h.Update)
	admin.DELETE("/:id", h.Delete)
}

type departmentRequest struct {
	Name        string  `json:"name" form:"name"`
	Description *string `json:"description" form:"description"`
}

func (h *Handler) List(c echo.Context) error {
	items, err := h.svc.List(c.Request().Context())
	if err != nil {
		return err
	}
	return envelope.Data(c, items)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Validation("invalid department id")
	}
	d, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return envelope.Data(c, d)
}

func (h *Handler) Create(c echo.Context) error {
	var req departmentRequest
	if err := c.Bind(&req); err != nil {
		return httperr.Validation("invalid request body")
	}
	d, err := h.svc.Create(c.Request().Context(), req.Name, req.Description)
	if err != nil {
		return err
	}
	return envelope.OK(c, http.StatusCreated, "department created", d)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Validation("invalid department id")
	}
	var req departmentRequest
	if err := c.Bind(&req); err != nil {
		return httperr.Validation("invalid request body")
	}
	d, err := h.svc.Update(c.Request().Context(), id, req.Name, req.Description)
	if err != nil {
		return err
	}
	return envelope.OK(c, http.StatusOK, "department updated", d)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Validation("invalid department id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return envelope.OK(c, http.StatusOK, "department deleted", nil)
}
