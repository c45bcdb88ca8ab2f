package middleware_test

import (
    "net/http"
    "net/http/httptest"
    "strconv"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/require"

    "github.com/thinknows/x-server/internal/config"
    "github.com/thinknows/x-server/internal/middleware"
)

func cacheConfig() config.CacheConfig {
    return config.CacheConfig{
        Enabled:      true,
        Methods:      map[string]bool{"GET": true},
        TTL:          time.Minute,
        KeyStrategy:  "route_query",
        Prefix:       "cache",
        MaxBodyBytes: 1 << 20,
    }
}

func TestCacheServesSecondRequestFromRedis(t *testing.T) {
    hits := 0
    e := echo.New()
    e.GET("/posts", func(c echo.Context) error {
        hits++
        return c.String(http.StatusOK, "body "+strconv.Itoa(hits))
    }, middleware.NewRedisCache(cacheConfig(), testRedis(t)))

    first := get(e, "/posts")
    require.Equal(t, http.StatusOK, first.Code)
    require.Equal(t, "MISS", first.Header().Get("X-Cache"))
    require.Equal(t, "body 1", first.Body.String())

    second := get(e, "/posts")
    require.Equal(t, http.StatusOK, second.Code)
    require.Equal(t, "HIT", second.Header().Get("X-Cache"))
    require.Equal(t, "body 1", second.Body.String())
    require.Equal(t, 1, hits)
}

func TestCacheKeyIncludesQuery(t *testing.T) {
    e := echo.New()
    e.GET("/posts", func(c echo.Context) error {
        return c.String(http.StatusOK, "page="+c.QueryParam("page"))
    }, middleware.NewRedisCache(cacheConfig(), testRedis(t)))

    require.Equal(t, "page=1", get(e, "/posts?page=1").Body.String())
    require.Equal(t, "page=2", get(e, "/posts?page=2").Body.String())
}

func TestCacheVariesOnConfiguredHeaders(t *testing.T) {
    cfg := cacheConfig()
    cfg.VaryHeaders = []string{"X-App-Version"}

    e := echo.New()
    e.GET("/app-config", func(c echo.Context) error {
        return c.String(http.StatusOK, "seen "+c.Request().Header.Get("X-App-Version"))
    }, middleware.NewRedisCache(cfg, testRedis(t)))

    versioned := func(v string) *httptest.ResponseRecorder {
        req := httptest.NewRequest(http.MethodGet, "/app-config", nil)
        req.Header.Set("X-App-Version", v)
        rec := httptest.NewRecorder()
        e.ServeHTTP(rec, req)
        return rec
    }

    // One client's cached payload must never answer another version.
    require.Equal(t, "seen 1.0.0", versioned("1.0.0").Body.String())
    require.Equal(t, "seen 0.9.0", versioned("0.9.0").Body.String())

    hit := versioned("1.0.0")
    require.Equal(t, "HIT", hit.Header().Get("X-Cache"))
    require.Equal(t, "seen 1.0.0", hit.Body.String())
}

func TestCacheSkipsNonListedMethods(t *testing.T) {
    e := echo.New()
    calls := 0
    e.POST("/posts", func(c echo.Context) error {
        calls++
        return c.String(http.StatusOK, "ok")
    }, middleware.NewRedisCache(cacheConfig(), testRedis(t)))

    for i := 0; i < 2; i++ {
        req := httptest.NewRequest(http.MethodPost, "/posts", nil)
        rec := httptest.NewRecorder()
        e.ServeHTTP(rec, req)
        require.Equal(t, http.StatusOK, rec.Code)
        require.Empty(t, rec.Header().Get("X-Cache"))
    }
    require.Equal(t, 2, calls)
}
