package identity

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/httperr"
	"github.com/hms/hms/pkg/envelope"
)

// ProfileResolver maps a user account to its doctor or patient profile row.
// Admins have no profile and resolve to uuid.Nil.
type ProfileResolver interface {
	ProfileIDFor(ctx context.Context, userID uuid.UUID, role string) (uuid.UUID, error)
}

type Handler struct {
	svc      *Service
	sessions *auth.Sessions
	profiles ProfileResolver
}

func NewHandler(svc *Service, sessions *auth.Sessions, profiles ProfileResolver) *Handler {
	return &Handler{svc: svc, sessions: sessions, profiles: profiles}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)
	api.POST("/auth/logout", h.Logout)
}

func (h *Handler) Register(c echo.Context) error {
	var in RegisterInput
	if err := c.Bind(&in); err != nil {
		return httperr.Validation("invalid request body")
	}

	user, _, err := h.svc.Register(c.Request().Context(), in)
	if err != nil {
		return err
	}

	return envelope.OK(c, http.StatusCreated, "registration successful", user)
}

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
	Role     string `json:"role" form:"role"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return httperr.Validation("invalid request body")
	}
	if req.Role == "" {
		req.Role = auth.RolePatient
	}

	ctx := c.Request().Context()
	user, err := h.svc.Login(ctx, req.Username, req.Password, req.Role)
	if err != nil {
		return err
	}

	profileID, err := h.profiles.ProfileIDFor(ctx, user.ID, user.Role)
	if err != nil {
		return httperr.Internal(err)
	}

	token, err := h.sessions.Issue(auth.Principal{
		UserID:    user.ID,
		Role:      user.Role,
		ProfileID: profileID,
	})
	if err != nil {
		return httperr.Internal(err)
	}

	h.sessions.SetCookie(c, token)
	return envelope.OK(c, http.StatusOK, "login successful", map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

func (h *Handler) Logout(c echo.Context) error {
	h.sessions.ClearCookie(c)
	return envelope.OK(c, http.StatusOK, "logged out", nil)
}
