package tokenstore_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"github.com/wanderinn/go-client/tokenstore"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestParseAccessClaims(t *testing.T) {
	expiry := time.Now().Add(time.Hour).Truncate(time.Second)
	raw := signedToken(t, jwt.MapClaims{
		"sub":   "user-1",
		"email": "jo@example.com",
		"role":  "partner",
		"exp":   expiry.Unix(),
	})

	claims, err := tokenstore.ParseAccessClaims(raw)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "jo@example.com", claims.Email)
	require.Equal(t, "partner", claims.Role)
	require.True(t, claims.ExpiresAt.Equal(expiry))
	require.False(t, claims.Expired(time.Now()))
	require.True(t, claims.Expired(expiry.Add(time.Second)))
}

func TestParseAccessClaimsWithoutExpiry(t *testing.T) {
	raw := signedToken(t, jwt.MapClaims{"sub": "user-2"})

	claims, err := tokenstore.ParseAccessClaims(raw)
	require.NoError(t, err)
	require.False(t, claims.Expired(time.Now()), "tokens without exp never count as expired")
}

func TestParseAccessClaimsRejectsGarbage(t *testing.T) {
	_, err := tokenstore.ParseAccessClaims("not-a-jwt")
	require.Error(t, err)
}
