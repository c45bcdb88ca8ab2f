package handler

import (
    "fmt"
    "io"
    "net/http"
    "os"
    "path/filepath"
    "strings"
    "time"

    "github.com/google/uuid"
    "github.com/klauspost/compress/gzip"
    "github.com/labstack/echo/v4"

    "github.com/thinknows/x-server/internal/config"
)

// LogHandler accepts client log uploads and stores them on disk, laid out
// as <root>/<date>/<user>/<device>/<timestamp>_<type>_<id>.log.
type LogHandler struct {
    Cfg config.Config
}

func NewLogHandler(cfg config.Config) *LogHandler { return &LogHandler{Cfg: cfg} }

// Upload handles a multipart log upload.  Gzip-compressed files (by the
// .gz suffix) are decompressed before being written; anything else is
// stored as-is.
func (h *LogHandler) Upload(c echo.Context) error {
    fileHeader, err := c.FormFile("file")
    if err != nil {
        return respondError(c, http.StatusBadRequest, "Log file is empty")
    }
    if fileHeader.Size == 0 {
        return respondError(c, http.StatusBadRequest, "Log file is empty")
    }

    userID := c.FormValue("userId")
    if userID == "" {
        userID = "anonymous"
    }
    deviceID := c.FormValue("deviceId")
    if deviceID == "" {
        deviceID = "unknown-device"
    }
    logType := c.FormValue("logType")
    if logType == "" {
        logType = "app"
    }

    now := time.Now()
    dir := filepath.Join(h.Cfg.LogStoragePath, now.Format("2006-01-02"), sanitize(userID), sanitize(deviceID))
    if err := os.MkdirAll(dir, 0o755); err != nil {
        return respondError(c, http.StatusInternalServerError, "Failed to upload log")
    }

    name := fmt.Sprintf("%s_%s_%s.log", now.Format("20060102_150405"), sanitize(logType), uuid.NewString()[:8])
    target := filepath.Join(dir, name)

    src, err := fileHeader.Open()
    if err != nil {
        return respondError(c, http.StatusInternalServerError, "Failed to upload log")
    }
    defer src.Close()

    var reader io.Reader = src
    if strings.HasSuffix(fileHeader.Filename, ".gz") {
        gz, err := gzip.NewReader(src)
        if err != nil {
            return respondError(c, http.StatusBadRequest, "Invalid gzip file")
        }
        defer gz.Close()
        reader = gz
    }

    dst, err := os.Create(target)
    if err != nil {
        return respondError(c, http.StatusInternalServerError, "Failed to upload log")
    }
    defer dst.Close()
    if _, err := io.Copy(dst, reader); err != nil {
        os.Remove(target)
        return respondError(c, http.StatusInternalServerError, "Failed to upload log")
    }

    go h.cleanupOldLogs()

    return respond(c, http.StatusOK, "Log uploaded successfully", target)
}

// cleanupOldLogs removes date directories older than the retention window.
func (h *LogHandler) cleanupOldLogs() {
    cutoff := time.Now().AddDate(0, 0, -h.Cfg.LogRetentionDays).Format("2006-01-02")
    entries, err := os.ReadDir(h.Cfg.LogStoragePath)
    if err != nil {
        return
    }
    for _, e := range entries {
        if e.IsDir() && e.Name() < cutoff {
            os.RemoveAll(filepath.Join(h.Cfg.LogStoragePath, e.Name()))
        }
    }
}

// sanitize keeps path segments free of separators and traversal.
func sanitize(s string) string {
    s = strings.ReplaceAll(s, "/", "_")
    s = strings.ReplaceAll(s, "\\", "_")
    s = strings.ReplaceAll(s, "..", "_")
    return s
}
