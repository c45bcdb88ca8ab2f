package middleware

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/thinknows/x-server/internal/auth"
    "github.com/thinknows/x-server/internal/utils"
)

// JWTAuth validates a Bearer access token and injects the caller's identity
// into the request context.  Both checks must pass: the JWT signature and
// the server-side token registry, so tokens revoked before their JWT expiry
// are rejected.  Handlers read the identity via c.Get("username") and
// c.Get("user_id").
func JWTAuth(secret string, svc *auth.Service) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            header := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(header, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"code": http.StatusUnauthorized, "message": "missing bearer token", "data": nil})
            }
            raw := strings.TrimPrefix(header, "Bearer ")

            claims, err := utils.ParseAccessToken(secret, raw)
            if err != nil || !svc.ValidateAccess(raw) {
                return c.JSON(http.StatusUnauthorized, echo.Map{"code": http.StatusUnauthorized, "message": "invalid or expired token", "data": nil})
            }

            c.Set("username", claims.Username)
            c.Set("user_id", claims.UserID)

            // Clients that report a session id get their last-activity
            // timestamp bumped, keeping the session out of idle pruning.
            // The touch is bound to the token's user, so a caller cannot
            // refresh someone else's session.
            if sessionID := c.Request().Header.Get("X-Session-Id"); sessionID != "" {
                svc.TouchSession(claims.Username, sessionID)
            }
            return next(c)
        }
    }
}
