package web

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
)

const flashCookie = "hms_flash"

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind    string // "success" or "error"
	Message string
}

func setFlash(c echo.Context, kind, message string) {
	c.SetCookie(&http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(kind + "|" + message),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash reads and clears the flash cookie.
func popFlash(c echo.Context) *Flash {
	cookie, err := c.Cookie(flashCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}
	c.SetCookie(&http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	raw, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return nil
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] == '|' {
			return &Flash{Kind: raw[:i], Message: raw[i+1:]}
		}
	}
	return &Flash{Kind: "success", Message: raw}
}
