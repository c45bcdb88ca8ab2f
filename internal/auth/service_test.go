package auth_test

import (
    "context"
    "fmt"
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/require"
    "golang.org/x/crypto/bcrypt"

    "github.com/thinknows/x-server/internal/auth"
    "github.com/thinknows/x-server/internal/model"
    "github.com/thinknows/x-server/internal/repository"
)

// fakeClock hands out a controllable time to the service under test.
type fakeClock struct {
    mu sync.Mutex
    t  time.Time
}

func (c *fakeClock) Now() time.Time {
    c.mu.Lock()
    defer c.mu.Unlock()
    return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
    c.mu.Lock()
    defer c.mu.Unlock()
    c.t = c.t.Add(d)
}

// memStore is an in-memory UserStore with the repository sentinel contract.
type memStore struct {
    mu    sync.Mutex
    seq   uint64
    users map[string]*model.User
}

func newMemStore() *memStore { return &memStore{users: make(map[string]*model.User)} }

func (s *memStore) Create(_ context.Context, u *model.User) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    if _, ok := s.users[u.Username]; ok {
        return repository.ErrUsernameExists
    }
    for _, other := range s.users {
        if other.Email == u.Email {
            return repository.ErrEmailExists
        }
    }
    s.seq++
    u.ID = s.seq
    cp := *u
    s.users[u.Username] = &cp
    return nil
}

func (s *memStore) FindByUsername(_ context.Context, username string) (*model.User, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    u, ok := s.users[username]
    if !ok {
        return nil, repository.ErrNotFound
    }
    cp := *u
    return &cp, nil
}

func (s *memStore) FindByID(_ context.Context, id uint64) (*model.User, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    for _, u := range s.users {
        if u.ID == id {
            cp := *u
            return &cp, nil
        }
    }
    return nil, repository.ErrNotFound
}

func (s *memStore) enableTwoFactor(username string) {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.users[username].TwoFactorEnabled = true
}

// captureDispatcher records dispatched two-factor codes instead of sending.
type captureDispatcher struct {
    mu    sync.Mutex
    codes []string
}

func (d *captureDispatcher) DispatchTwoFactorCode(_ context.Context, _ *model.User, code string, _ time.Time) error {
    d.mu.Lock()
    defer d.mu.Unlock()
    d.codes = append(d.codes, code)
    return nil
}

func (d *captureDispatcher) lastCode() string {
    d.mu.Lock()
    defer d.mu.Unlock()
    if len(d.codes) == 0 {
        return ""
    }
    return d.codes[len(d.codes)-1]
}

func testConfig() auth.Config {
    return auth.Config{
        JWTSecret:        "test-secret",
        BcryptCost:       bcrypt.MinCost,
        AccessTTL:        30 * time.Minute,
        RefreshTTL:       30 * 24 * time.Hour,
        RememberTTL:      90 * 24 * time.Hour,
        TwoFactorTTL:     10 * time.Minute,
        LockoutThreshold: 5,
        LockoutDuration:  15 * time.Minute,
    }
}

func newTestService(t *testing.T) (*auth.Service, *memStore, *fakeClock, *captureDispatcher) {
    t.Helper()
    store := newMemStore()
    clock := &fakeClock{t: time.Now().UTC()}
    dispatcher := &captureDispatcher{}
    return auth.NewService(store, dispatcher, clock, testConfig()), store, clock, dispatcher
}

func register(t *testing.T, svc *auth.Service, username string) {
    t.Helper()
    _, err := svc.Register(context.Background(), username, "s3cret!", username+"@example.com", "1234567890")
    require.NoError(t, err)
}

func device(name string) *model.DeviceInfo {
    return &model.DeviceInfo{
        DeviceID:   name,
        DeviceName: name,
        DeviceType: "Web",
        IPAddress:  "203.0.113.7",
    }
}

func TestRegisterAndLogin(t *testing.T) {
    svc, _, _, _ := newTestService(t)
    register(t, svc, "alice")

    res, err := svc.Login(context.Background(), "alice", "s3cret!", device("laptop"), false)
    require.NoError(t, err)
    require.False(t, res.RequiresTwoFactor)
    require.NotNil(t, res.Tokens)
    require.Equal(t, "Bearer", res.Tokens.TokenType)
    require.Len(t, res.Tokens.RefreshToken, 96)
    require.True(t, svc.ValidateAccess(res.Tokens.AccessToken))
    require.Equal(t, "alice", res.User.Username)
    require.Len(t, res.ActiveDevices, 1)
}

func TestRegisterDuplicateUsername(t *testing.T) {
    svc, _, _, _ := newTestService(t)
    register(t, svc, "alice")

    _, err := svc.Register(context.Background(), "alice", "other", "alice2@example.com", "")
    require.ErrorIs(t, err, repository.ErrUsernameExists)
}

func TestLoginBadCredentials(t *testing.T) {
    svc, _, _, _ := newTestService(t)
    register(t, svc, "alice")

    _, err := svc.Login(context.Background(), "nobody", "whatever", nil, false)
    require.ErrorIs(t, err, auth.ErrInvalidCredentials)

    _, err = svc.Login(context.Background(), "alice", "wrong", nil, false)
    require.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLockoutAfterRepeatedFailures(t *testing.T) {
    svc, _, clock, _ := newTestService(t)
    register(t, svc, "alice")

    for i := 0; i < 5; i++ {
        _, err := svc.Login(context.Background(), "alice", "wrong", nil, false)
        require.ErrorIs(t, err, auth.ErrInvalidCredentials)
    }

    // Even the correct password is rejected while the lockout holds.
    _, err := svc.Login(context.Background(), "alice", "s3cret!", nil, false)
    var locked auth.LockedError
    require.ErrorAs(t, err, &locked)
    require.True(t, locked.Until.After(clock.Now()))

    // The window has a hard end.
    clock.Advance(15*time.Minute + time.Second)
    res, err := svc.Login(context.Background(), "alice", "s3cret!", nil, false)
    require.NoError(t, err)
    require.NotNil(t, res.Tokens)
}

func TestLockoutCounterResetsOnSuccess(t *testing.T) {
    svc, _, _, _ := newTestService(t)
    register(t, svc, "alice")

    for i := 0; i < 4; i++ {
        _, err := svc.Login(context.Background(), "alice", "wrong", nil, false)
        require.ErrorIs(t, err, auth.ErrInvalidCredentials)
    }
    _, err := svc.Login(context.Background(), "alice", "s3cret!", nil, false)
    require.NoError(t, err)

    // Four more failures stay under the threshold again.
    for i := 0; i < 4; i++ {
        _, err := svc.Login(context.Background(), "alice", "wrong", nil, false)
        require.ErrorIs(t, err, auth.ErrInvalidCredentials)
    }
    _, err = svc.Login(context.Background(), "alice", "s3cret!", nil, false)
    require.NoError(t, err)
}

func TestRefreshReusesRefreshToken(t *testing.T) {
    svc, _, clock, _ := newTestService(t)
    register(t, svc, "alice")

    res, err := svc.Login(context.Background(), "alice", "s3cret!", nil, false)
    require.NoError(t, err)

    clock.Advance(time.Minute)
    pair, err := svc.Refresh(context.Background(), res.Tokens.RefreshToken)
    require.NoError(t, err)
    require.Equal(t, res.Tokens.RefreshToken, pair.RefreshToken)
    require.NotEqual(t, res.Tokens.AccessToken, pair.AccessToken)

    // Both access tokens stay live side by side.
    require.True(t, svc.ValidateAccess(res.Tokens.AccessToken))
    require.True(t, svc.ValidateAccess(pair.AccessToken))
}

func TestRefreshExpiredTokenIsPurged(t *testing.T) {
    svc, _, clock, _ := newTestService(t)
    register(t, svc, "alice")

    res, err := svc.Login(context.Background(), "alice", "s3cret!", nil, false)
    require.NoError(t, err)

    clock.Advance(30*24*time.Hour + time.Second)
    _, err = svc.Refresh(context.Background(), res.Tokens.RefreshToken)
    require.ErrorIs(t, err, auth.ErrTokenExpired)

    // The expired record is gone; a retry no longer resolves at all.
    _, err = svc.Refresh(context.Background(), res.Tokens.RefreshToken)
    require.ErrorIs(t, err, auth.ErrTokenInvalid)
}

func TestAccessTokenExpires(t *testing.T) {
    svc, _, clock, _ := newTestService(t)
    register(t, svc, "alice")

    res, err := svc.Login(context.Background(), "alice", "s3cret!", nil, false)
    require.NoError(t, err)
    require.True(t, svc.ValidateAccess(res.Tokens.AccessToken))

    // The token dies by expiry alone, with no revocation involved.
    clock.Advance(30*time.Minute + time.Second)
    require.False(t, svc.ValidateAccess(res.Tokens.AccessToken))
    _, err = svc.UserForAccess(context.Background(), res.Tokens.AccessToken)
    require.ErrorIs(t, err, auth.ErrTokenExpired)
}

func TestNewLoginReplacesRefreshToken(t *testing.T) {
    svc, _, clock, _ := newTestService(t)
    register(t, svc, "alice")

    first, err := svc.Login(context.Background(), "alice", "s3cret!", nil, false)
    require.NoError(t, err)
    clock.Advance(time.Minute)
    second, err := svc.Login(context.Background(), "alice", "s3cret!", nil, false)
    require.NoError(t, err)
    require.NotEqual(t, first.Tokens.RefreshToken, second.Tokens.RefreshToken)

    _, err = svc.Refresh(context.Background(), first.Tokens.RefreshToken)
    require.ErrorIs(t, err, auth.ErrTokenInvalid)

    // Replacing the refresh token does not kill older access tokens.
    require.True(t, svc.ValidateAccess(first.Tokens.AccessToken))
}

func TestRememberMeExtendsRefreshLifetime(t *testing.T) {
    svc, _, clock, _ := newTestService(t)
    register(t, svc, "alice")

    res, err := svc.Login(context.Background(), "alice", "s3cret!", nil, true)
    require.NoError(t, err)
    require.Equal(t, clock.Now().Add(90*24*time.Hour), res.Tokens.RefreshTokenExpiry)

    clock.Advance(60 * 24 * time.Hour)
    _, err = svc.Refresh(context.Background(), res.Tokens.RefreshToken)
    require.NoError(t, err)
}

func TestTwoFactorFlow(t *testing.T) {
    svc, store, _, dispatcher := newTestService(t)
    register(t, svc, "alice")
    store.enableTwoFactor("alice")

    res, err := svc.Login(context.Background(), "alice", "s3cret!", nil, false)
    require.NoError(t, err)
    require.True(t, res.RequiresTwoFactor)
    require.Nil(t, res.Tokens)
    require.NotEmpty(t, res.TwoFactorToken)

    code := dispatcher.lastCode()
    require.Len(t, code, 6)

    _, err = svc.VerifyTwoFactor(context.Background(), res.TwoFactorToken, "000000", device("phone"))
    require.ErrorIs(t, err, auth.ErrChallengeInvalid)

    // A wrong code does not burn the challenge.
    done, err := svc.VerifyTwoFactor(context.Background(), res.TwoFactorToken, code, device("phone"))
    require.NoError(t, err)
    require.NotNil(t, done.Tokens)
    require.True(t, svc.ValidateAccess(done.Tokens.AccessToken))

    // Success does: the challenge token is single use.
    _, err = svc.VerifyTwoFactor(context.Background(), res.TwoFactorToken, code, nil)
    require.ErrorIs(t, err, auth.ErrChallengeInvalid)
}

func TestTwoFactorCodeExpires(t *testing.T) {
    svc, store, clock, dispatcher := newTestService(t)
    register(t, svc, "alice")
    store.enableTwoFactor("alice")

    res, err := svc.Login(context.Background(), "alice", "s3cret!", nil, false)
    require.NoError(t, err)

    clock.Advance(10*time.Minute + time.Second)
    _, err = svc.VerifyTwoFactor(context.Background(), res.TwoFactorToken, dispatcher.lastCode(), nil)
    require.ErrorIs(t, err, auth.ErrChallengeInvalid)
}

func TestSessionLifecycle(t *testing.T) {
    svc, _, clock, _ := newTestService(t)
    register(t, svc, "alice")
    register(t, svc, "bob")

    _, err := svc.Login(context.Background(), "alice", "s3cret!", device("laptop"), false)
    require.NoError(t, err)
    clock.Advance(time.Minute)
    res, err := svc.Login(context.Background(), "alice", "s3cret!", device("phone"), false)
    require.NoError(t, err)

    sessions := svc.ActiveSessions("alice")
    require.Len(t, sessions, 2)
    require.Equal(t, "phone", sessions[0].DeviceInfo.DeviceName) // newest first

    // Sessions are private to their owner.
    err = svc.RevokeSession("bob", sessions[0].SessionID)
    require.ErrorIs(t, err, auth.ErrSessionForbidden)
    err = svc.RevokeSession("alice", "no-such-session")
    require.ErrorIs(t, err, auth.ErrSessionNotFound)

    require.NoError(t, svc.RevokeSession("alice", sessions[0].SessionID))
    require.Len(t, svc.ActiveSessions("alice"), 1)

    // Revoking everything also kills the tokens.
    require.Equal(t, 1, svc.RevokeAllSessions("alice"))
    require.Empty(t, svc.ActiveSessions("alice"))
    require.False(t, svc.ValidateAccess(res.Tokens.AccessToken))
    _, err = svc.Refresh(context.Background(), res.Tokens.RefreshToken)
    require.ErrorIs(t, err, auth.ErrTokenInvalid)
}

func TestPruneIdleSessions(t *testing.T) {
    svc, _, clock, _ := newTestService(t)
    register(t, svc, "alice")

    _, err := svc.Login(context.Background(), "alice", "s3cret!", device("laptop"), false)
    require.NoError(t, err)
    clock.Advance(time.Minute)
    _, err = svc.Login(context.Background(), "alice", "s3cret!", device("phone"), false)
    require.NoError(t, err)

    sessions := svc.ActiveSessions("alice")
    require.Len(t, sessions, 2)

    clock.Advance(31 * 24 * time.Hour)
    svc.TouchSession("alice", sessions[0].SessionID) // keep the phone alive

    require.Equal(t, 1, svc.PruneSessions(30*24*time.Hour))
    remaining := svc.ActiveSessions("alice")
    require.Len(t, remaining, 1)
    require.Equal(t, sessions[0].SessionID, remaining[0].SessionID)
}

func TestTouchSessionRequiresOwnership(t *testing.T) {
    svc, _, clock, _ := newTestService(t)
    register(t, svc, "alice")
    register(t, svc, "mallory")

    _, err := svc.Login(context.Background(), "alice", "s3cret!", device("laptop"), false)
    require.NoError(t, err)
    session := svc.ActiveSessions("alice")[0]

    // A foreign touch must not keep alice's session out of pruning.
    clock.Advance(31 * 24 * time.Hour)
    svc.TouchSession("mallory", session.SessionID)
    require.Equal(t, 1, svc.PruneSessions(30*24*time.Hour))
    require.Empty(t, svc.ActiveSessions("alice"))
}

func TestUserForAccess(t *testing.T) {
    svc, _, _, _ := newTestService(t)
    register(t, svc, "alice")

    res, err := svc.Login(context.Background(), "alice", "s3cret!", nil, false)
    require.NoError(t, err)

    user, err := svc.UserForAccess(context.Background(), res.Tokens.AccessToken)
    require.NoError(t, err)
    require.Equal(t, "alice", user.Username)

    _, err = svc.UserForAccess(context.Background(), "not-a-token")
    require.ErrorIs(t, err, auth.ErrTokenInvalid)
}

func TestDistinctUsersDoNotInterfere(t *testing.T) {
    svc, _, _, _ := newTestService(t)

    const workers = 8
    var wg sync.WaitGroup
    errs := make(chan error, workers*2)
    for i := 0; i < workers; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            name := fmt.Sprintf("user%d", i)
            if _, err := svc.Register(context.Background(), name, "s3cret!", name+"@example.com", ""); err != nil {
                errs <- err
                return
            }
            if _, err := svc.Login(context.Background(), name, "s3cret!", device(name), false); err != nil {
                errs <- err
            }
        }(i)
    }
    wg.Wait()
    close(errs)
    for err := range errs {
        require.NoError(t, err)
    }

    for i := 0; i < workers; i++ {
        require.Len(t, svc.ActiveSessions(fmt.Sprintf("user%d", i)), 1)
    }
}
