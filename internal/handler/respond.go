package handler

import "github.com/labstack/echo/v4"

// Envelope is the uniform response wrapper: code mirrors the HTTP status,
// message is human readable, data carries the payload or null.
type Envelope struct {
    Code    int    `json:"code"`
    Message string `json:"message"`
    Data    any    `json:"data"`
}

func respond(c echo.Context, status int, message string, data any) error {
    return c.JSON(status, Envelope{Code: status, Message: message, Data: data})
}

func respondError(c echo.Context, status int, message string) error {
    return respond(c, status, message, nil)
}
