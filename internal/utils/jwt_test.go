package utils

import (
    "testing"
    "time"

    "github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
    issued := time.Now().UTC()
    tok, err := NewAccessToken("secret", AccessClaims{Username: "alice", UserID: 7, Email: "a@example.com"}, issued, 30*time.Minute)
    require.NoError(t, err)
    require.Equal(t, issued.Add(30*time.Minute), tok.Exp)

    claims, err := ParseAccessToken("secret", tok.Token)
    require.NoError(t, err)
    require.Equal(t, "alice", claims.Username)
    require.Equal(t, uint64(7), claims.UserID)
    require.Equal(t, "a@example.com", claims.Email)
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
    tok, err := NewAccessToken("secret", AccessClaims{Username: "alice"}, time.Now().UTC(), time.Minute)
    require.NoError(t, err)

    _, err = ParseAccessToken("other-secret", tok.Token)
    require.ErrorIs(t, err, ErrInvalidToken)

    _, err = ParseAccessToken("secret", "not.a.jwt")
    require.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewRefreshTokenIsOpaqueAndUnique(t *testing.T) {
    issued := time.Now().UTC()
    a, err := NewRefreshToken(issued, time.Hour)
    require.NoError(t, err)
    b, err := NewRefreshToken(issued, time.Hour)
    require.NoError(t, err)

    require.Len(t, a.Raw, 96)
    require.NotEqual(t, a.Raw, b.Raw)
    require.Equal(t, issued.Add(time.Hour), a.Exp)
}
