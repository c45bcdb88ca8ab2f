package auth

import (
	"sync"
	"time"

	"github.com/thinknows/x-server/internal/model"
	"github.com/thinknows/x-server/internal/utils"
)

// tokenRecord maps an opaque token string to its owner and expiry.
type tokenRecord struct {
	username  string
	expiresAt time.Time
}

// tokenRegistry issues and validates bearer tokens.  Access tokens are
// signed JWTs that are additionally tracked here so validity is "known and
// unexpired", which makes revocation possible even while the JWT signature
// is still good.  A user may hold several live access tokens at once (one
// per device); issuing a new one never invalidates older ones.  Refresh
// tokens are opaque random strings with one live record per user: a new
// login replaces the previous refresh token, but a refresh call reuses the
// presented token without rotation.
type tokenRegistry struct {
	mu    sync.RWMutex
	clock Clock

	secret      string
	accessTTL   time.Duration
	refreshTTL  time.Duration
	rememberTTL time.Duration

	access        map[string]tokenRecord       // access token -> record
	accessByUser  map[string]map[string]bool   // username -> live access tokens
	refresh       map[string]tokenRecord       // refresh token -> record
	refreshByUser map[string]string            // username -> current refresh token
}

func newTokenRegistry(clock Clock, secret string, accessTTL, refreshTTL, rememberTTL time.Duration) *tokenRegistry {
	return &tokenRegistry{
		clock:         clock,
		secret:        secret,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		rememberTTL:   rememberTTL,
		access:        make(map[string]tokenRecord),
		accessByUser:  make(map[string]map[string]bool),
		refresh:       make(map[string]tokenRecord),
		refreshByUser: make(map[string]string),
	}
}

// issue mints a fresh access+refresh pair for the user.  rememberMe selects
// the extended refresh lifetime.  The user's previous refresh token (if any)
// is dropped; live access tokens are left untouched.
func (r *tokenRegistry) issue(user *model.User, rememberMe bool) (model.TokenPair, error) {
	now := r.clock.Now()
	access, err := utils.NewAccessToken(r.secret, utils.AccessClaims{
		Username: user.Username,
		UserID:   user.ID,
		Email:    user.Email,
	}, now, r.accessTTL)
	if err != nil {
		return model.TokenPair{}, err
	}
	ttl := r.refreshTTL
	if rememberMe {
		ttl = r.rememberTTL
	}
	refresh, err := utils.NewRefreshToken(now, ttl)
	if err != nil {
		return model.TokenPair{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.purgeExpiredLocked(user.Username, now)
	if prev, ok := r.refreshByUser[user.Username]; ok {
		delete(r.refresh, prev)
	}
	r.refresh[refresh.Raw] = tokenRecord{username: user.Username, expiresAt: refresh.Exp}
	r.refreshByUser[user.Username] = refresh.Raw
	r.trackAccessLocked(user.Username, access)

	return model.TokenPair{
		AccessToken:        access.Token,
		RefreshToken:       refresh.Raw,
		AccessTokenExpiry:  access.Exp,
		RefreshTokenExpiry: refresh.Exp,
		TokenType:          "Bearer",
	}, nil
}

// refreshOwner resolves which username a refresh token belongs to, without
// consuming or validating it.  The service uses this to pick the right
// per-user lock before calling refreshAccess.
func (r *tokenRegistry) refreshOwner(token string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.refresh[token]
	if !ok {
		return "", ErrTokenInvalid
	}
	return rec.username, nil
}

// refreshAccess validates the presented refresh token and mints a new
// access token for its owner.  The refresh token itself is returned
// unchanged.  Expired records are purged so that retrying with the same
// token fails with ErrTokenInvalid.
func (r *tokenRegistry) refreshAccess(user *model.User, token string) (model.TokenPair, error) {
	now := r.clock.Now()

	r.mu.Lock()
	rec, ok := r.refresh[token]
	if !ok || rec.username != user.Username {
		r.mu.Unlock()
		return model.TokenPair{}, ErrTokenInvalid
	}
	if !rec.expiresAt.After(now) {
		delete(r.refresh, token)
		if r.refreshByUser[rec.username] == token {
			delete(r.refreshByUser, rec.username)
		}
		r.mu.Unlock()
		return model.TokenPair{}, ErrTokenExpired
	}
	r.mu.Unlock()

	access, err := utils.NewAccessToken(r.secret, utils.AccessClaims{
		Username: user.Username,
		UserID:   user.ID,
		Email:    user.Email,
	}, now, r.accessTTL)
	if err != nil {
		return model.TokenPair{}, err
	}

	r.mu.Lock()
	r.trackAccessLocked(user.Username, access)
	r.mu.Unlock()

	return model.TokenPair{
		AccessToken:        access.Token,
		RefreshToken:       token, // no rotation
		AccessTokenExpiry:  access.Exp,
		RefreshTokenExpiry: rec.expiresAt,
		TokenType:          "Bearer",
	}, nil
}

// validateAccess reports whether an access token is known and unexpired.
func (r *tokenRegistry) validateAccess(token string) bool {
	now := r.clock.Now()
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.access[token]
	return ok && rec.expiresAt.After(now)
}

// accessOwner resolves the username behind a live access token.
func (r *tokenRegistry) accessOwner(token string) (string, error) {
	now := r.clock.Now()
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.access[token]
	if !ok {
		return "", ErrTokenInvalid
	}
	if !rec.expiresAt.After(now) {
		return "", ErrTokenExpired
	}
	return rec.username, nil
}

// revokeUser drops every access and refresh token held by the username.
func (r *tokenRegistry) revokeUser(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for tok := range r.accessByUser[username] {
		delete(r.access, tok)
	}
	delete(r.accessByUser, username)
	if tok, ok := r.refreshByUser[username]; ok {
		delete(r.refresh, tok)
		delete(r.refreshByUser, username)
	}
}

func (r *tokenRegistry) trackAccessLocked(username string, access utils.AccessToken) {
	r.access[access.Token] = tokenRecord{username: username, expiresAt: access.Exp}
	set, ok := r.accessByUser[username]
	if !ok {
		set = make(map[string]bool)
		r.accessByUser[username] = set
	}
	set[access.Token] = true
}

// purgeExpiredLocked removes dead access tokens for one user so the registry
// does not grow without bound across long-lived processes.
func (r *tokenRegistry) purgeExpiredLocked(username string, now time.Time) {
	for tok := range r.accessByUser[username] {
		if rec, ok := r.access[tok]; ok && !rec.expiresAt.After(now) {
			delete(r.access, tok)
			delete(r.accessByUser[username], tok)
		}
	}
	if len(r.accessByUser[username]) == 0 {
		delete(r.accessByUser, username)
	}
}
