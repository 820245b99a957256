package web

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/domain/identity"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/httperr"
)

func (h *Handler) LoginForm(c echo.Context) error {
	return h.render(c, "login.html", nil)
}

func (h *Handler) Login(c echo.Context) error {
	username := c.FormValue("username")
	password := c.FormValue("password")
	role := c.FormValue("role")
	if role == "" {
		role = auth.RolePatient
	}

	ctx := c.Request().Context()
	user, err := h.identity.Login(ctx, username, password, role)
	if err != nil {
		return fail(c, err, "/auth/login")
	}

	profileID, err := h.profiles.ProfileIDFor(ctx, user.ID, user.Role)
	if err != nil {
		return fail(c, err, "/auth/login")
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

	setFlash(c, "success", "welcome back, "+user.Username)
	return c.Redirect(http.StatusSeeOther, roleHome(user.Role))
}

func (h *Handler) RegisterForm(c echo.Context) error {
	return h.render(c, "register.html", nil)
}

func (h *Handler) Register(c echo.Context) error {
	in := identity.RegisterInput{
		Username:        c.FormValue("username"),
		Email:           c.FormValue("email"),
		Password:        c.FormValue("password"),
		ConfirmPassword: c.FormValue("confirm_password"),
		Role:            auth.RolePatient,
	}

	if _, _, err := h.identity.Register(c.Request().Context(), in); err != nil {
		return fail(c, err, "/auth/register")
	}

	setFlash(c, "success", "registration successful, please log in")
	return c.Redirect(http.StatusSeeOther, "/auth/login")
}

func (h *Handler) Logout(c echo.Context) error {
	h.sessions.ClearCookie(c)
	setFlash(c, "success", "logged out")
	return c.Redirect(http.StatusSeeOther, "/auth/login")
}
