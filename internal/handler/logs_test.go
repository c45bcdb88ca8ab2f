package handler

import (
    "bytes"
    "mime/multipart"
    "net/http"
    "net/http/httptest"
    "os"
    "path/filepath"
    "testing"

    "github.com/klauspost/compress/gzip"
    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/require"

    "github.com/thinknows/x-server/internal/config"
)

func multipartLog(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
    t.Helper()
    var buf bytes.Buffer
    w := multipart.NewWriter(&buf)
    part, err := w.CreateFormFile("file", filename)
    require.NoError(t, err)
    _, err = part.Write(content)
    require.NoError(t, err)
    for k, v := range fields {
        require.NoError(t, w.WriteField(k, v))
    }
    require.NoError(t, w.Close())
    return &buf, w.FormDataContentType()
}

func uploadLog(t *testing.T, h *LogHandler, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/api/v1/logs/upload", body)
    req.Header.Set(echo.HeaderContentType, contentType)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    require.NoError(t, h.Upload(c))
    return rec
}

func TestUploadDecompressesGzipLogs(t *testing.T) {
    dir := t.TempDir()
    h := NewLogHandler(config.Config{LogStoragePath: dir, LogRetentionDays: 30})

    var gz bytes.Buffer
    zw := gzip.NewWriter(&gz)
    _, err := zw.Write([]byte("line one\nline two\n"))
    require.NoError(t, err)
    require.NoError(t, zw.Close())

    body, contentType := multipartLog(t, "app.log.gz", gz.Bytes(), map[string]string{
        "userId":   "42",
        "deviceId": "pixel-7",
        "logType":  "crash",
    })
    rec := uploadLog(t, h, body, contentType)
    require.Equal(t, http.StatusOK, rec.Code)

    matches, err := filepath.Glob(filepath.Join(dir, "*", "42", "pixel-7", "*_crash_*.log"))
    require.NoError(t, err)
    require.Len(t, matches, 1)

    saved, err := os.ReadFile(matches[0])
    require.NoError(t, err)
    require.Equal(t, "line one\nline two\n", string(saved))
}

func TestUploadStoresPlainLogsAsIs(t *testing.T) {
    dir := t.TempDir()
    h := NewLogHandler(config.Config{LogStoragePath: dir, LogRetentionDays: 30})

    body, contentType := multipartLog(t, "app.log", []byte("plain text"), nil)
    rec := uploadLog(t, h, body, contentType)
    require.Equal(t, http.StatusOK, rec.Code)

    // Missing fields fall back to the anonymous layout.
    matches, err := filepath.Glob(filepath.Join(dir, "*", "anonymous", "unknown-device", "*.log"))
    require.NoError(t, err)
    require.Len(t, matches, 1)

    saved, err := os.ReadFile(matches[0])
    require.NoError(t, err)
    require.Equal(t, "plain text", string(saved))
}
