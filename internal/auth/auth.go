// Package auth verifies caller identity tokens and extracts the user id.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrUnauthenticated covers missing, malformed, and invalid tokens.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrTokenExpired is returned when the token's validity window has elapsed.
	ErrTokenExpired = errors.New("token expired")
)

// Verifier checks an identity token and returns the stable user id.
type Verifier interface {
	Verify(ctx context.Context, token string) (userID string, err error)
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if len(header) <= 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return "", fmt.Errorf("%w: authorization header missing or malformed", ErrUnauthenticated)
	}
	tok := strings.TrimSpace(header[7:])
	if tok == "" {
		return "", fmt.Errorf("%w: authorization header missing or malformed", ErrUnauthenticated)
	}
	return tok, nil
}

// classify maps jwt parse errors onto the package errors.
func classify(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	}
	return fmt.Errorf("%w: %v", ErrUnauthenticated, err)
}

func subject(claims *jwt.RegisteredClaims) (string, error) {
	if claims == nil || strings.TrimSpace(claims.Subject) == "" {
		return "", fmt.Errorf("%w: missing sub", ErrUnauthenticated)
	}
	return claims.Subject, nil
}

func parserOptions(methods []string, issuer, audience string) []jwt.ParserOption {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(methods),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	return opts
}
