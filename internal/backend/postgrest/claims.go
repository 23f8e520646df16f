package postgrest

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenClaims is what we read out of an access token when rebuilding a
// session from the persisted token pair.
type tokenClaims struct {
	Subject   string
	Email     string
	ExpiresAt time.Time
}

// decodeClaims parses the access token without verifying its signature. The
// client never holds the signing secret; the claims are used only to mirror
// expiry locally, the backend remains the authority.
func decodeClaims(accessToken string) (*tokenClaims, error) {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(accessToken, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("failed to parse access token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected access token claims")
	}

	tc := &tokenClaims{}
	if sub, ok := claims["sub"].(string); ok {
		tc.Subject = sub
	}
	if email, ok := claims["email"].(string); ok {
		tc.Email = email
	}
	if exp, ok := claims["exp"].(float64); ok {
		tc.ExpiresAt = time.Unix(int64(exp), 0)
	}

	return tc, nil
}
