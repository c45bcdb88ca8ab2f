package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
)

// twoFactorManager issues and validates short-lived verification codes
// bound to one-time challenge tokens.  A challenge survives failed code
// attempts but is deleted on success, so a token verifies at most once.
type twoFactorManager struct {
	mu    sync.Mutex
	clock Clock
	ttl   time.Duration

	codes  map[string]twoFactorChallenge // username -> pending challenge
	tokens map[string]string             // challenge token -> username
}

type twoFactorChallenge struct {
	code      string
	token     string
	expiresAt time.Time
}

func newTwoFactorManager(clock Clock, ttl time.Duration) *twoFactorManager {
	return &twoFactorManager{
		clock:  clock,
		ttl:    ttl,
		codes:  make(map[string]twoFactorChallenge),
		tokens: make(map[string]string),
	}
}

// begin creates a fresh challenge for the username, replacing any pending
// one, and returns the challenge token plus the 6-digit code to dispatch.
func (m *twoFactorManager) begin(username string) (token, code string, err error) {
	code, err = sixDigitCode()
	if err != nil {
		return "", "", err
	}
	token = uuid.NewString()

	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.codes[username]; ok {
		delete(m.tokens, prev.token)
	}
	m.codes[username] = twoFactorChallenge{
		code:      code,
		token:     token,
		expiresAt: m.clock.Now().Add(m.ttl),
	}
	m.tokens[token] = username
	return token, code, nil
}

// owner resolves the username a challenge token was issued for.
func (m *twoFactorManager) owner(token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	username, ok := m.tokens[token]
	if !ok {
		return "", ErrChallengeInvalid
	}
	return username, nil
}

// consume verifies token+code for the username and deletes the challenge on
// success.  Expired challenges are removed on detection; a wrong code
// leaves the challenge intact for another attempt within the window.
func (m *twoFactorManager) consume(username, token, code string) error {
	now := m.clock.Now()
	m.mu.Lock()
	defer m.mu.Unlock()

	ch, ok := m.codes[username]
	if !ok || ch.token != token {
		return ErrChallengeInvalid
	}
	if !ch.expiresAt.After(now) {
		delete(m.codes, username)
		delete(m.tokens, token)
		return ErrChallengeInvalid
	}
	if ch.code != code {
		return ErrChallengeInvalid
	}
	delete(m.codes, username)
	delete(m.tokens, token)
	return nil
}

// sixDigitCode returns a uniformly random numeric code in [100000,999999].
func sixDigitCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
