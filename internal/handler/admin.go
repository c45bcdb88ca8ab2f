package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/thinknows/x-server/internal/model"
    "github.com/thinknows/x-server/internal/repository"
)

// AdminHandler exposes operational endpoints.
type AdminHandler struct {
    Users *repository.UserRepo
}

func NewAdminHandler(users *repository.UserRepo) *AdminHandler { return &AdminHandler{Users: users} }

// ListUsers returns every registered user with sensitive fields stripped
// (protected).
func (h *AdminHandler) ListUsers(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    users, err := h.Users.ListAll(ctx)
    if err != nil {
        return respondError(c, http.StatusInternalServerError, "Internal server error")
    }
    clean := make([]model.PublicUser, 0, len(users))
    for _, u := range users {
        clean = append(clean, u.Public())
    }
    return respond(c, http.StatusOK, "All users retrieved successfully", clean)
}
