package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// SessionCookieName is the cookie carrying the browser session token. API
// clients send the same token as a bearer header instead.
const SessionCookieName = "hms_session"

// Claims is the session token payload. Subject holds the user ID.
type Claims struct {
	jwt.RegisteredClaims
	Role      string `json:"role"`
	ProfileID string `json:"profile_id,omitempty"`
}

// Sessions issues and verifies signed session tokens. The same token works on
// both surfaces: browsers hold it in an HttpOnly cookie, API clients send it
// as an Authorization bearer header.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	secure bool // mark cookies Secure outside development
}

func NewSessions(secret []byte, ttl time.Duration, secure bool) *Sessions {
	return &Sessions{secret: secret, ttl: ttl, secure: secure}
}

// Issue signs a session token for the given principal.
func (s *Sessions) Issue(p Principal) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Role: p.Role,
	}
	if p.ProfileID != uuid.Nil {
		claims.ProfileID = p.ProfileID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a session token, returning the principal it
// encodes.
func (s *Sessions) Verify(tokenStr string) (Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return Principal{}, fmt.Errorf("invalid session token")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Principal{}, fmt.Errorf("invalid session subject")
	}

	p := Principal{UserID: userID, Role: claims.Role}
	if claims.ProfileID != "" {
		profileID, err := uuid.Parse(claims.ProfileID)
		if err != nil {
			return Principal{}, fmt.Errorf("invalid session profile id")
		}
		p.ProfileID = profileID
	}
	return p, nil
}

// SetCookie attaches the session token to the response as an HttpOnly cookie.
func (s *Sessions) SetCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func (s *Sessions) ClearCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// extractToken pulls the session token from the Authorization header or, for
// browser requests, the session cookie. Returns "" when neither is present.
func extractToken(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return ""
	}

	cookie, err := c.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
