package auth

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidCredentials covers both "no such user" and "wrong password".
// The two cases are deliberately indistinguishable to callers so that the
// login endpoint cannot be used to enumerate usernames.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrTokenInvalid is returned for unknown or malformed tokens.
var ErrTokenInvalid = errors.New("invalid token")

// ErrTokenExpired is returned for known tokens whose validity window has
// passed.  Expired refresh tokens are purged, so a second presentation of
// the same token yields ErrTokenInvalid.
var ErrTokenExpired = errors.New("token expired")

// ErrChallengeInvalid is returned when a two-factor challenge token or code
// does not verify.
var ErrChallengeInvalid = errors.New("invalid two-factor token or code")

// ErrSessionNotFound is returned when revoking an unknown session id.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionForbidden is returned when revoking a session owned by another
// user.
var ErrSessionForbidden = errors.New("session belongs to another user")

// LockedError reports that login is suspended for an account.  Until tells
// the caller when the suspension lapses.
type LockedError struct {
	Until time.Time
}

func (e LockedError) Error() string {
	return fmt.Sprintf("account locked until %s", e.Until.Format(time.RFC3339))
}
