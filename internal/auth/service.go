// Package auth implements the authentication core: credential verification
// with lockout, optional two-factor challenges, access/refresh token
// issuance and validation, and multi-device session tracking.  All
// per-username mutable state is serialized through a sharded lock table
// keyed by username, so operations for distinct users run in parallel while
// check-then-act sequences for one user never interleave.
package auth

import (
	"context"
	"errors"
	"hash/fnv"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/thinknows/x-server/internal/model"
	"github.com/thinknows/x-server/internal/repository"
	"github.com/thinknows/x-server/internal/utils"
)

const lockShards = 64

// UserStore is the credential store the service verifies against.  It is
// satisfied by repository.UserRepo; absent records are reported with
// repository.ErrNotFound.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByID(ctx context.Context, id uint64) (*model.User, error)
}

// CodeDispatcher delivers two-factor codes out of band (mail, SMS, queue).
// Delivery failures must not fail the login; the service logs and proceeds.
type CodeDispatcher interface {
	DispatchTwoFactorCode(ctx context.Context, user *model.User, code string, expiresAt time.Time) error
}

// Config carries the authentication policy knobs.
type Config struct {
	JWTSecret        string
	BcryptCost       int
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
	RememberTTL      time.Duration
	TwoFactorTTL     time.Duration
	LockoutThreshold int
	LockoutDuration  time.Duration
}

// Service orchestrates the credential store, lockout tracker, token
// registry, session registry and two-factor manager.
type Service struct {
	users      UserStore
	dispatcher CodeDispatcher
	clock      Clock
	cfg        Config

	locks      [lockShards]sync.Mutex
	lockouts   *lockoutTracker
	tokens     *tokenRegistry
	sessions   *sessionRegistry
	challenges *twoFactorManager
}

// NewService wires the authentication core.  dispatcher may be nil, in
// which case two-factor codes are only logged.
func NewService(users UserStore, dispatcher CodeDispatcher, clock Clock, cfg Config) *Service {
	if clock == nil {
		clock = SystemClock
	}
	return &Service{
		users:      users,
		dispatcher: dispatcher,
		clock:      clock,
		cfg:        cfg,
		lockouts:   newLockoutTracker(cfg.LockoutThreshold, cfg.LockoutDuration),
		tokens:     newTokenRegistry(clock, cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL, cfg.RememberTTL),
		sessions:   newSessionRegistry(clock),
		challenges: newTwoFactorManager(clock, cfg.TwoFactorTTL),
	}
}

// LoginResult is the outcome of a successful Login or VerifyTwoFactor call.
// When RequiresTwoFactor is set only User and TwoFactorToken are populated;
// no tokens have been issued yet.
type LoginResult struct {
	Tokens            *model.TokenPair      `json:"tokens,omitempty"`
	User              model.PublicUser      `json:"user"`
	RequiresTwoFactor bool                  `json:"requiresTwoFactor"`
	TwoFactorToken    string                `json:"twoFactorToken,omitempty"`
	ActiveDevices     []model.DeviceSession `json:"activeDevices,omitempty"`
}

// Register creates a user with a bcrypt-hashed password.  The plaintext is
// never stored.  Duplicate usernames and emails surface as the repository
// sentinels ErrUsernameExists / ErrEmailExists.
func (s *Service) Register(ctx context.Context, username, password, email, phone string) (model.PublicUser, error) {
	hash, err := utils.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return model.PublicUser{}, err
	}
	now := s.clock.Now()
	u := &model.User{
		Username:     username,
		PasswordHash: hash,
		Email:        email,
		Phone:        phone,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return model.PublicUser{}, err
	}
	return u.Public(), nil
}

// Login verifies credentials and either issues tokens, demands a two-factor
// code, or fails.  Possible errors: LockedError, ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string, device *model.DeviceInfo, rememberMe bool) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	mu := s.userLock(username)
	mu.Lock()
	defer mu.Unlock()

	now := s.clock.Now()
	if until, locked := s.lockouts.lockedUntilAt(username, now); locked {
		return nil, LockedError{Until: until}
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.lockouts.recordFailure(username, now)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !utils.VerifyPassword(user.PasswordHash, password) {
		s.lockouts.recordFailure(username, now)
		return nil, ErrInvalidCredentials
	}

	s.lockouts.reset(username)

	if user.TwoFactorEnabled {
		token, code, err := s.challenges.begin(username)
		if err != nil {
			return nil, err
		}
		s.dispatchCode(ctx, user, code)
		return &LoginResult{
			User:              user.Public(),
			RequiresTwoFactor: true,
			TwoFactorToken:    token,
		}, nil
	}

	return s.finishLogin(user, device, rememberMe)
}

// VerifyTwoFactor completes a pending two-factor login.  The challenge
// token is single use: success consumes it, and a second verification with
// the same token fails with ErrChallengeInvalid.
func (s *Service) VerifyTwoFactor(ctx context.Context, challengeToken, code string, device *model.DeviceInfo) (*LoginResult, error) {
	username, err := s.challenges.owner(challengeToken)
	if err != nil {
		return nil, err
	}

	mu := s.userLock(username)
	mu.Lock()
	defer mu.Unlock()

	if err := s.challenges.consume(username, challengeToken, code); err != nil {
		return nil, err
	}
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrChallengeInvalid
		}
		return nil, err
	}
	return s.finishLogin(user, device, false)
}

// Refresh exchanges a live refresh token for a new access token.  The
// refresh token itself is returned unchanged; expired records are purged so
// retries fail.  Possible errors: ErrTokenInvalid, ErrTokenExpired.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*model.TokenPair, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, ErrTokenInvalid
	}
	username, err := s.tokens.refreshOwner(refreshToken)
	if err != nil {
		return nil, err
	}

	mu := s.userLock(username)
	mu.Lock()
	defer mu.Unlock()

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}
	pair, err := s.tokens.refreshAccess(user, refreshToken)
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

// ValidateAccess reports whether an access token is known and unexpired.
func (s *Service) ValidateAccess(token string) bool {
	return s.tokens.validateAccess(token)
}

// UserForAccess resolves the user behind a live access token.  The JWT
// signature and the registry record must both check out.
func (s *Service) UserForAccess(ctx context.Context, token string) (*model.User, error) {
	if _, err := utils.ParseAccessToken(s.cfg.JWTSecret, token); err != nil {
		return nil, ErrTokenInvalid
	}
	username, err := s.tokens.accessOwner(token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}
	return user, nil
}

// ActiveSessions lists the user's device sessions, newest first.
func (s *Service) ActiveSessions(username string) []model.DeviceSession {
	return s.sessions.listActive(username)
}

// TouchSession refreshes the last-activity timestamp of one of the user's
// own sessions.  Foreign or unknown session ids are ignored, so a caller
// cannot keep another user's session out of idle pruning.
func (s *Service) TouchSession(username, sessionID string) {
	s.sessions.touch(username, sessionID)
}

// RevokeSession removes one of the user's device sessions.
func (s *Service) RevokeSession(username, sessionID string) error {
	mu := s.userLock(username)
	mu.Lock()
	defer mu.Unlock()
	return s.sessions.revoke(username, sessionID)
}

// RevokeAllSessions logs the user out everywhere: every device session is
// dropped and every live token is revoked.
func (s *Service) RevokeAllSessions(username string) int {
	mu := s.userLock(username)
	mu.Lock()
	defer mu.Unlock()
	s.tokens.revokeUser(username)
	return s.sessions.revokeAll(username)
}

// PruneSessions drops sessions idle for longer than maxIdle.  Intended to
// run on a ticker from main.
func (s *Service) PruneSessions(maxIdle time.Duration) int {
	return s.sessions.prune(maxIdle)
}

func (s *Service) finishLogin(user *model.User, device *model.DeviceInfo, rememberMe bool) (*LoginResult, error) {
	pair, err := s.tokens.issue(user, rememberMe)
	if err != nil {
		return nil, err
	}
	if device != nil {
		s.sessions.open(user.Username, *device)
	}
	return &LoginResult{
		Tokens:        &pair,
		User:          user.Public(),
		ActiveDevices: s.sessions.listActive(user.Username),
	}, nil
}

func (s *Service) dispatchCode(ctx context.Context, user *model.User, code string) {
	expiresAt := s.clock.Now().Add(s.cfg.TwoFactorTTL)
	if s.dispatcher == nil {
		log.Printf("auth: two-factor code for %s: %s", user.Username, code)
		return
	}
	if err := s.dispatcher.DispatchTwoFactorCode(ctx, user, code, expiresAt); err != nil {
		// Out-of-band delivery is best effort; the challenge stays valid.
		log.Printf("auth: two-factor dispatch for %s failed: %v", user.Username, err)
	}
}

func (s *Service) userLock(username string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(username))
	return &s.locks[h.Sum32()%lockShards]
}
