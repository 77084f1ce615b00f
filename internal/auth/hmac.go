package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// HMACVerifier checks HS256 tokens signed with a shared secret. It also
// issues them, which the CLI uses for local development.
type HMACVerifier struct {
	secret   []byte
	issuer   string
	audience string
}

// NewHMACVerifier requires a non-empty secret. issuer and audience are
// checked only when set.
func NewHMACVerifier(secret, issuer, audience string) (*HMACVerifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("jwt secret is required (set auth.secret or PROCRASTINEMON_JWT_SECRET)")
	}
	return &HMACVerifier{secret: []byte(secret), issuer: issuer, audience: audience}, nil
}

func (v *HMACVerifier) Verify(ctx context.Context, token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("%w: token is empty", ErrUnauthenticated)
	}
	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser(parserOptions([]string{jwt.SigningMethodHS256.Alg()}, v.issuer, v.audience)...)
	_, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		return "", classify(err)
	}
	return subject(claims)
}

// Issue signs a token for userID valid for ttl.
func (v *HMACVerifier) Issue(userID string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", fmt.Errorf("user id is required")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    v.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	if v.audience != "" {
		claims.Audience = jwt.ClaimStrings{v.audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
