package tokenstore

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// AccessClaims is the subset of access-token claims the client cares about.
// The token is parsed without signature verification: only the issuing
// service can verify it, the client just wants the subject and expiry for
// display and for deciding whether a persisted token is worth bootstrapping.
type AccessClaims struct {
	Subject   string
	Email     string
	Role      string
	ExpiresAt time.Time
}

type rawAccessClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// ParseAccessClaims decodes the claims of an access token without verifying
// its signature.
func ParseAccessClaims(accessToken string) (*AccessClaims, error) {
	var raw rawAccessClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(accessToken, &raw); err != nil {
		return nil, errors.Wrap(err, "[ParseAccessClaims] parser.ParseUnverified")
	}

	claims := &AccessClaims{
		Subject: raw.Subject,
		Email:   raw.Email,
		Role:    raw.Role,
	}
	if raw.ExpiresAt != nil {
		claims.ExpiresAt = raw.ExpiresAt.Time
	}
	return claims, nil
}

// Expired reports whether the token's expiry is known and in the past.
func (c *AccessClaims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}
