package auth

import (
	"log/slog"

	"github.com/labstack/echo/v4"
)

// Authenticator resolves the caller of a request from its bearer token.
type Authenticator struct {
	secret []byte
}

// NewAuthenticator creates an authenticator that verifies tokens signed with secret.
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Authenticate returns the user id of a valid bearer token, or 0.
func (a *Authenticator) Authenticate(authHeader string) int32 {
	token := ExtractBearerToken(authHeader)
	if token == "" {
		return 0
	}
	userID, _, err := ParseAccessToken(token, a.secret)
	if err != nil {
		slog.Debug("rejected access token", slog.String("error", err.Error()))
		return 0
	}
	return userID
}

// Middleware stores the caller's user id in the request context.
// Requests without a valid token pass through as anonymous; the handlers
// decide what an anonymous caller may see.
func (a *Authenticator) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := a.Authenticate(c.Request().Header.Get(echo.HeaderAuthorization))
			if userID != 0 {
				req := c.Request()
				c.SetRequest(req.WithContext(WithUserID(req.Context(), userID)))
			}
			return next(c)
		}
	}
}
