package utils // package utils provides helper functions for token creation and hashing

import (
    "crypto/rand"
    "encoding/hex"
    "errors"
    "time"

    "github.com/golang-jwt/jwt/v5"
)

// AccessToken represents a signed JWT access token along with its expiry.
// Access tokens are short-lived and sent in the Authorization header when
// calling protected endpoints.
type AccessToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// RefreshToken represents a long-lived opaque token used to obtain new
// access tokens.  The Raw field is the value returned to the client.
type RefreshToken struct {
    Raw string    // raw token string returned to the client
    Exp time.Time // UTC expiration time
}

// ErrInvalidToken is returned by ParseAccessToken for any token that does
// not carry a valid signature and well-formed claims.
var ErrInvalidToken = errors.New("invalid token")

// AccessClaims is the subset of claims the server puts into access tokens.
type AccessClaims struct {
    Username string
    UserID   uint64
    Email    string
}

// NewAccessToken builds and signs an HS256 JWT for a user.  The timestamp is
// passed in by the caller so that expiry logic stays on the injectable clock.
// The JWT includes subject (sub = username), uid, email, a typ marker,
// expiration (exp) and issued at (iat).
func NewAccessToken(secret string, claims AccessClaims, issuedAt time.Time, ttl time.Duration) (AccessToken, error) {
    exp := issuedAt.Add(ttl)
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
        "sub":   claims.Username,
        "uid":   claims.UserID,
        "email": claims.Email,
        "typ":   "access",
        "exp":   exp.Unix(),
        "iat":   issuedAt.Unix(),
    })
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies the signature of a serialized access token and
// extracts its claims.  Expiry is checked by the jwt library against the
// wall clock; the token registry additionally checks its own expiry record
// so that revoked tokens die even when the JWT itself is still fresh.
func ParseAccessToken(secret, raw string) (AccessClaims, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalidToken
        }
        return []byte(secret), nil
    })
    if err != nil || !tok.Valid {
        return AccessClaims{}, ErrInvalidToken
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return AccessClaims{}, ErrInvalidToken
    }
    out := AccessClaims{}
    if sub, ok := claims["sub"].(string); ok {
        out.Username = sub
    }
    if out.Username == "" {
        return AccessClaims{}, ErrInvalidToken
    }
    if uid, ok := claims["uid"].(float64); ok {
        out.UserID = uint64(uid)
    }
    if email, ok := claims["email"].(string); ok {
        out.Email = email
    }
    return out, nil
}

// NewRefreshToken returns a cryptographically secure random token (raw) and
// its expiration time.  Refresh tokens live longer than access tokens and
// are exchanged for new access tokens.
func NewRefreshToken(issuedAt time.Time, ttl time.Duration) (RefreshToken, error) {
    raw, err := randomHex(48) // 48 bytes -> 96 hex chars
    if err != nil {
        return RefreshToken{}, err
    }
    return RefreshToken{Raw: raw, Exp: issuedAt.Add(ttl)}, nil
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}
