package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBearerToken(t *testing.T) {
	tok, err := BearerToken("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", tok)

	tok, err = BearerToken("bearer xyz")
	require.NoError(t, err)
	assert.Equal(t, "xyz", tok)

	for _, h := range []string{"", "Bearer", "Bearer ", "Bearer    ", "Basic abc", "abc"} {
		_, err := BearerToken(h)
		assert.ErrorIs(t, err, ErrUnauthenticated, "header %q", h)
	}
}

func TestHMACVerifier(t *testing.T) {
	ctx := context.Background()
	v, err := NewHMACVerifier("s3cret", "procrastinemon", "web")
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		tok, err := v.Issue("user-1", time.Hour)
		require.NoError(t, err)

		uid, err := v.Verify(ctx, tok)
		require.NoError(t, err)
		assert.Equal(t, "user-1", uid)
	})

	t.Run("expired", func(t *testing.T) {
		tok, err := v.Issue("user-1", -time.Minute)
		require.NoError(t, err)

		_, err = v.Verify(ctx, tok)
		assert.ErrorIs(t, err, ErrTokenExpired)
		assert.NotErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, _ := NewHMACVerifier("other", "procrastinemon", "web")
		tok, _ := other.Issue("user-1", time.Hour)

		_, err := v.Verify(ctx, tok)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("wrong audience", func(t *testing.T) {
		other, _ := NewHMACVerifier("s3cret", "procrastinemon", "mobile")
		tok, _ := other.Issue("user-1", time.Hour)

		_, err := v.Verify(ctx, tok)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("missing exp", func(t *testing.T) {
		tok, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject: "user-1", Issuer: "procrastinemon", Audience: jwt.ClaimStrings{"web"},
		}).SignedString([]byte("s3cret"))

		_, err := v.Verify(ctx, tok)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("missing sub", func(t *testing.T) {
		tok, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Issuer: "procrastinemon", Audience: jwt.ClaimStrings{"web"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}).SignedString([]byte("s3cret"))

		_, err := v.Verify(ctx, tok)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := v.Verify(ctx, "not-a-jwt")
		assert.ErrorIs(t, err, ErrUnauthenticated)

		_, err = v.Verify(ctx, "")
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("none alg", func(t *testing.T) {
		tok, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
			Subject: "user-1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)

		_, err := v.Verify(ctx, tok)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})
}

func TestNewHMACVerifierRequiresSecret(t *testing.T) {
	_, err := NewHMACVerifier("  ", "", "")
	assert.Error(t, err)
}

type jwksFixture struct {
	key     *rsa.PrivateKey
	server  *httptest.Server
	fetches atomic.Int32
}

func newJWKSFixture(t *testing.T) *jwksFixture {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	f := &jwksFixture{key: key}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.fetches.Add(1)
		set := jwkSet{Keys: []jwk{{
			Kty: "RSA",
			Kid: "k1",
			N:   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}}}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(set)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *jwksFixture) sign(t *testing.T, kid string, claims jwt.RegisteredClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = kid
	s, err := tok.SignedString(f.key)
	require.NoError(t, err)
	return s
}

func TestJWKSVerifier(t *testing.T) {
	ctx := context.Background()
	f := newJWKSFixture(t)

	v, err := NewJWKSVerifier(f.server.Client(), f.server.URL, "", "demo-project")
	require.NoError(t, err)

	valid := jwt.RegisteredClaims{
		Subject:   "google-uid",
		Issuer:    GoogleIssuer("demo-project"),
		Audience:  jwt.ClaimStrings{"demo-project"},
		IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}

	uid, err := v.Verify(ctx, f.sign(t, "k1", valid))
	require.NoError(t, err)
	assert.Equal(t, "google-uid", uid)

	// Keys are cached
	_, err = v.Verify(ctx, f.sign(t, "k1", valid))
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.fetches.Load())

	expired := valid
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	_, err = v.Verify(ctx, f.sign(t, "k1", expired))
	assert.ErrorIs(t, err, ErrTokenExpired)

	wrongAud := valid
	wrongAud.Audience = jwt.ClaimStrings{"someone-else"}
	_, err = v.Verify(ctx, f.sign(t, "k1", wrongAud))
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = v.Verify(ctx, f.sign(t, "unknown", valid))
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestNewJWKSVerifierRequiresAudience(t *testing.T) {
	_, err := NewJWKSVerifier(nil, "", "", "")
	assert.Error(t, err)
}
