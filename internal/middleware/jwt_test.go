package middleware_test

import (
    "context"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/stretchr/testify/require"
    "golang.org/x/crypto/bcrypt"

    "github.com/labstack/echo/v4"

    "github.com/thinknows/x-server/internal/auth"
    "github.com/thinknows/x-server/internal/middleware"
    "github.com/thinknows/x-server/internal/model"
    "github.com/thinknows/x-server/internal/repository"
)

// singleUserStore is the minimal UserStore needed to mint real tokens.
type singleUserStore struct{ user *model.User }

func (s *singleUserStore) Create(_ context.Context, u *model.User) error {
    u.ID = 1
    cp := *u
    s.user = &cp
    return nil
}

func (s *singleUserStore) FindByUsername(_ context.Context, username string) (*model.User, error) {
    if s.user == nil || s.user.Username != username {
        return nil, repository.ErrNotFound
    }
    cp := *s.user
    return &cp, nil
}

func (s *singleUserStore) FindByID(_ context.Context, id uint64) (*model.User, error) {
    if s.user == nil || s.user.ID != id {
        return nil, repository.ErrNotFound
    }
    cp := *s.user
    return &cp, nil
}

const jwtTestSecret = "jwt-test-secret"

func loggedInService(t *testing.T) (*auth.Service, string) {
    t.Helper()
    svc := auth.NewService(&singleUserStore{}, nil, nil, auth.Config{
        JWTSecret:        jwtTestSecret,
        BcryptCost:       bcrypt.MinCost,
        AccessTTL:        30 * time.Minute,
        RefreshTTL:       24 * time.Hour,
        RememberTTL:      24 * time.Hour,
        TwoFactorTTL:     10 * time.Minute,
        LockoutThreshold: 5,
        LockoutDuration:  15 * time.Minute,
    })
    _, err := svc.Register(context.Background(), "alice", "s3cret!", "alice@example.com", "")
    require.NoError(t, err)
    res, err := svc.Login(context.Background(), "alice", "s3cret!", nil, false)
    require.NoError(t, err)
    return svc, res.Tokens.AccessToken
}

func protectedEcho(svc *auth.Service) *echo.Echo {
    e := echo.New()
    e.GET("/me", func(c echo.Context) error {
        return c.String(http.StatusOK, c.Get("username").(string))
    }, middleware.JWTAuth(jwtTestSecret, svc))
    return e
}

func authedGet(e *echo.Echo, token string) *httptest.ResponseRecorder {
    req := httptest.NewRequest(http.MethodGet, "/me", nil)
    if token != "" {
        req.Header.Set("Authorization", "Bearer "+token)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func TestJWTAuthAcceptsLiveToken(t *testing.T) {
    svc, token := loggedInService(t)
    e := protectedEcho(svc)

    rec := authedGet(e, token)
    require.Equal(t, http.StatusOK, rec.Code)
    require.Equal(t, "alice", rec.Body.String())
}

func TestJWTAuthRejectsMissingAndGarbageTokens(t *testing.T) {
    svc, _ := loggedInService(t)
    e := protectedEcho(svc)

    require.Equal(t, http.StatusUnauthorized, authedGet(e, "").Code)
    require.Equal(t, http.StatusUnauthorized, authedGet(e, "garbage").Code)
}

func TestJWTAuthRejectsRevokedToken(t *testing.T) {
    svc, token := loggedInService(t)
    e := protectedEcho(svc)

    require.Equal(t, http.StatusOK, authedGet(e, token).Code)

    // The JWT signature is still valid, but revocation wins.
    svc.RevokeAllSessions("alice")
    require.Equal(t, http.StatusUnauthorized, authedGet(e, token).Code)
}
