package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4"

    "github.com/thinknows/x-server/internal/auth"
    "github.com/thinknows/x-server/internal/handler"
    "github.com/thinknows/x-server/internal/middleware"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
    Auth      *handler.AuthHandler
    Posts     *handler.PostHandler
    Profile   *handler.ProfileHandler
    AppConfig *handler.AppConfigHandler
    Logs      *handler.LogHandler
    Admin     *handler.AdminHandler
}

// RegisterRoutes registers all API routes.  jwtSecret signs access tokens;
// rateLimit guards the credential endpoints and cache wraps the public
// read-only ones.
func RegisterRoutes(e *echo.Echo, h Handlers, jwtSecret string, svc *auth.Service, rateLimit, cache echo.MiddlewareFunc) {
    // Health check endpoint for load balancers and monitoring.
    e.GET("/healthz", handler.Health)

    api := e.Group("/api/v1")

    // Credential endpoints.  No JWT required, but the token bucket guards
    // against brute forcing on top of the per-account lockout.
    user := api.Group("/user")
    user.POST("/register", h.Auth.Register, rateLimit)
    user.POST("/login", h.Auth.Login, rateLimit)
    user.POST("/verify-2fa", h.Auth.VerifyTwoFactor, rateLimit)
    user.POST("/refresh", h.Auth.Refresh, rateLimit)

    // Randomized demo profile; public and cacheable.
    user.GET("/profile/:userId", h.Profile.Get, cache)

    // Session management requires a valid access token.
    jwt := middleware.JWTAuth(jwtSecret, svc)
    user.GET("/sessions", h.Auth.Sessions, jwt)
    user.DELETE("/sessions/:id", h.Auth.RevokeSession, jwt)
    user.DELETE("/sessions", h.Auth.RevokeAllSessions, jwt)

    // Posts: reads are public and cached, writes require authentication.
    api.GET("/posts", h.Posts.List, cache)
    api.GET("/posts/user/:authorId", h.Posts.ListByAuthor, cache)
    api.GET("/posts/:id", h.Posts.Get, cache)
    api.POST("/posts", h.Posts.Create, jwt)
    api.PUT("/posts/:id", h.Posts.Update, jwt)
    api.DELETE("/posts/:id", h.Posts.Delete, jwt)

    // Client configuration.
    api.GET("/config", h.AppConfig.Config, cache)
    api.GET("/app-config", h.AppConfig.AppConfig, cache)

    // Client log uploads.
    api.POST("/logs/upload", h.Logs.Upload)

    // Operational endpoints.
    api.GET("/admin/users", h.Admin.ListUsers, jwt)
}
