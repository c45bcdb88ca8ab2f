package handler

import (
    "context"
    "errors"
    "math"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/thinknows/x-server/internal/auth"
    "github.com/thinknows/x-server/internal/model"
    "github.com/thinknows/x-server/internal/repository"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
    Auth *auth.Service
}

func NewAuthHandler(a *auth.Service) *AuthHandler { return &AuthHandler{Auth: a} }

// ----- DTOs -----

type registerReq struct {
    Username string `json:"username"`
    Password string `json:"password"`
    Email    string `json:"email"`
    Phone    string `json:"phone"`
}

type loginReq struct {
    Username   string            `json:"username"`
    Password   string            `json:"password"`
    DeviceInfo *model.DeviceInfo `json:"deviceInfo"`
    RememberMe bool              `json:"rememberMe"`
}

type twoFactorReq struct {
    TwoFactorToken string            `json:"twoFactorToken"`
    Code           string            `json:"code"`
    DeviceInfo     *model.DeviceInfo `json:"deviceInfo"`
}

type refreshReq struct {
    RefreshToken string `json:"refreshToken"`
}

// Register: create user; no tokens are issued until login.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := c.Bind(&req); err != nil {
        return respondError(c, http.StatusBadRequest, "invalid body")
    }
    req.Username = strings.TrimSpace(req.Username)
    req.Email = strings.TrimSpace(req.Email)
    if req.Username == "" {
        return respondError(c, http.StatusBadRequest, "Username is required")
    }
    if req.Password == "" {
        return respondError(c, http.StatusBadRequest, "Password is required")
    }
    if req.Email == "" {
        return respondError(c, http.StatusBadRequest, "Email is required")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    user, err := h.Auth.Register(ctx, req.Username, req.Password, req.Email, req.Phone)
    switch {
    case err == nil:
    case errors.Is(err, repository.ErrUsernameExists):
        return respondError(c, http.StatusBadRequest, "Username already exists")
    case errors.Is(err, repository.ErrEmailExists):
        return respondError(c, http.StatusBadRequest, "Email already exists")
    default:
        return respondError(c, http.StatusInternalServerError, "Internal server error")
    }
    return respond(c, http.StatusOK, "User registered successfully", user)
}

// Login: verify credentials; may demand a two-factor code.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return respondError(c, http.StatusBadRequest, "invalid body")
    }
    if strings.TrimSpace(req.Username) == "" {
        return respondError(c, http.StatusBadRequest, "Username is required")
    }
    if req.Password == "" {
        return respondError(c, http.StatusBadRequest, "Password is required")
    }
    if req.DeviceInfo != nil && req.DeviceInfo.IPAddress == "" {
        req.DeviceInfo.IPAddress = c.RealIP()
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    result, err := h.Auth.Login(ctx, req.Username, req.Password, req.DeviceInfo, req.RememberMe)
    if err != nil {
        var locked auth.LockedError
        if errors.As(err, &locked) {
            return lockedResponse(c, locked)
        }
        if errors.Is(err, auth.ErrInvalidCredentials) {
            return respondError(c, http.StatusBadRequest, "Invalid username or password")
        }
        return respondError(c, http.StatusInternalServerError, "Internal server error")
    }
    if result.RequiresTwoFactor {
        return respond(c, http.StatusOK, "Two-factor authentication required", result)
    }
    return respond(c, http.StatusOK, "Login successful", result)
}

// VerifyTwoFactor: complete a pending two-factor login.
func (h *AuthHandler) VerifyTwoFactor(c echo.Context) error {
    var req twoFactorReq
    if err := c.Bind(&req); err != nil {
        return respondError(c, http.StatusBadRequest, "invalid body")
    }
    if req.TwoFactorToken == "" {
        return respondError(c, http.StatusBadRequest, "Two-factor token is required")
    }
    if req.Code == "" {
        return respondError(c, http.StatusBadRequest, "Verification code is required")
    }
    if req.DeviceInfo != nil && req.DeviceInfo.IPAddress == "" {
        req.DeviceInfo.IPAddress = c.RealIP()
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    result, err := h.Auth.VerifyTwoFactor(ctx, req.TwoFactorToken, req.Code, req.DeviceInfo)
    if err != nil {
        if errors.Is(err, auth.ErrChallengeInvalid) {
            return respondError(c, http.StatusBadRequest, "Invalid token or code")
        }
        return respondError(c, http.StatusInternalServerError, "Internal server error")
    }
    return respond(c, http.StatusOK, "Two-factor authentication successful", result)
}

// Refresh: exchange a refresh token for a new access token.  The refresh
// token value never changes here.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return respondError(c, http.StatusBadRequest, "Refresh token is required")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    tokens, err := h.Auth.Refresh(ctx, req.RefreshToken)
    if err != nil {
        if errors.Is(err, auth.ErrTokenInvalid) || errors.Is(err, auth.ErrTokenExpired) {
            return respondError(c, http.StatusBadRequest, "Invalid or expired refresh token")
        }
        return respondError(c, http.StatusInternalServerError, "Internal server error")
    }
    return respond(c, http.StatusOK, "Token refreshed successfully", tokens)
}

// Sessions lists the caller's active device sessions (protected).
func (h *AuthHandler) Sessions(c echo.Context) error {
    username := currentUsername(c)
    return respond(c, http.StatusOK, "Active sessions retrieved successfully", h.Auth.ActiveSessions(username))
}

// RevokeSession terminates one of the caller's device sessions (protected).
func (h *AuthHandler) RevokeSession(c echo.Context) error {
    username := currentUsername(c)
    err := h.Auth.RevokeSession(username, c.Param("id"))
    switch {
    case err == nil:
        return respond(c, http.StatusOK, "Session revoked successfully", nil)
    case errors.Is(err, auth.ErrSessionNotFound):
        return respondError(c, http.StatusNotFound, "Session not found")
    case errors.Is(err, auth.ErrSessionForbidden):
        return respondError(c, http.StatusForbidden, "Session belongs to another user")
    default:
        return respondError(c, http.StatusInternalServerError, "Internal server error")
    }
}

// RevokeAllSessions logs the caller out everywhere: all sessions are
// dropped and all live tokens revoked (protected).
func (h *AuthHandler) RevokeAllSessions(c echo.Context) error {
    username := currentUsername(c)
    n := h.Auth.RevokeAllSessions(username)
    return respond(c, http.StatusOK, "All sessions revoked successfully", echo.Map{"revoked": n})
}

func lockedResponse(c echo.Context, locked auth.LockedError) error {
    retry := int(math.Ceil(time.Until(locked.Until).Seconds()))
    if retry < 0 {
        retry = 0
    }
    c.Response().Header().Set("Retry-After", strconv.Itoa(retry))
    return respond(c, http.StatusForbidden, "Account is temporarily locked", echo.Map{
        "lockedUntil":       locked.Until,
        "retryAfterSeconds": retry,
    })
}

func currentUsername(c echo.Context) string {
    if v, ok := c.Get("username").(string); ok {
        return v
    }
    return ""
}

func currentUserID(c echo.Context) uint64 {
    if v, ok := c.Get("user_id").(uint64); ok {
        return v
    }
    return 0
}
