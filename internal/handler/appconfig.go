package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/thinknows/x-server/internal/config"
)

// AppConfigHandler serves client-facing configuration.
type AppConfigHandler struct {
    Cfg config.Config
}

func NewAppConfigHandler(cfg config.Config) *AppConfigHandler { return &AppConfigHandler{Cfg: cfg} }

type endpointEntry struct {
    Name string `json:"name"`
    URL  string `json:"url"`
}

type appConfig struct {
    AppVersion string          `json:"appVersion"`
    APIBaseURL string          `json:"apiBaseUrl"`
    DebugMode  bool            `json:"debugMode"`
    Endpoints  []endpointEntry `json:"endpoints"`
    Features   map[string]any  `json:"features"`
}

type clientPolicy struct {
    EnableLogUpload   bool      `json:"enableLogUpload"`
    LogUploadInterval int       `json:"logUploadInterval"` // minutes
    LogUploadEndpoint string    `json:"logUploadEndpoint"`
    LogRetentionDays  int       `json:"logRetentionDays"`
    ServerTime        time.Time `json:"serverTime"`
    AppVersion        string    `json:"appVersion"`
    ForceUpdate       bool      `json:"forceUpdate"`
    UpdateURL         string    `json:"updateUrl,omitempty"`
}

// Config returns the static application configuration: API endpoints and
// feature flags.
func (h *AppConfigHandler) Config(c echo.Context) error {
    cfg := appConfig{
        AppVersion: h.Cfg.AppVersion,
        APIBaseURL: "/api/v1",
        DebugMode:  h.Cfg.Env != "prod",
        Endpoints: []endpointEntry{
            {Name: "login", URL: "/api/v1/user/login"},
            {Name: "register", URL: "/api/v1/user/register"},
            {Name: "refresh", URL: "/api/v1/user/refresh"},
            {Name: "profile", URL: "/api/v1/user/profile"},
            {Name: "settings", URL: "/api/v1/user/settings"},
        },
        Features: map[string]any{
            "darkMode":         true,
            "notifications":    true,
            "maxUploadSize":    10485760,
            "allowedFileTypes": []string{"jpg", "png", "pdf", "doc", "docx"},
        },
    }
    return respond(c, http.StatusOK, "Configuration retrieved successfully", cfg)
}

// AppConfig returns the log-upload policy and version info.  When the
// X-App-Version header does not match the server version the response
// carries the force-update flag and update URL.
func (h *AppConfigHandler) AppConfig(c echo.Context) error {
    policy := clientPolicy{
        EnableLogUpload:   h.Cfg.LogUploadEnabled,
        LogUploadInterval: int(h.Cfg.LogUploadEvery.Minutes()),
        LogUploadEndpoint: "/api/v1/logs/upload",
        LogRetentionDays:  h.Cfg.LogRetentionDays,
        ServerTime:        time.Now(),
        AppVersion:        h.Cfg.AppVersion,
    }
    clientVersion := c.Request().Header.Get("X-App-Version")
    if clientVersion != "" && clientVersion != h.Cfg.AppVersion {
        policy.ForceUpdate = h.Cfg.ForceUpdate
        policy.UpdateURL = h.Cfg.UpdateURL
    }
    return respond(c, http.StatusOK, "Config retrieved successfully", policy)
}
