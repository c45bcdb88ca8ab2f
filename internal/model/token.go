package model

import "time"

// TokenPair carries the bearer credentials returned on login, two-factor
// verification and refresh.  On refresh the refresh token value is the one
// the client presented; only the access token is replaced.
type TokenPair struct {
    AccessToken        string    `json:"accessToken"`
    RefreshToken       string    `json:"refreshToken"`
    AccessTokenExpiry  time.Time `json:"accessTokenExpiry"`
    RefreshTokenExpiry time.Time `json:"refreshTokenExpiry"`
    TokenType          string    `json:"tokenType"` // always "Bearer"
}
