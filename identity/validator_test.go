package identity

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKid = "test-key-1"

// newJWKSServer serves a JWKS containing the public half of key under the
// platform's discovery path and counts fetches.
func newJWKSServer(t *testing.T, key *rsa.PrivateKey, fetches *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/v1/.well-known/jwks.json", r.URL.Path)
		if fetches != nil {
			*fetches++
		}
		jwks := JWKS{Keys: []JWK{{
			Kid: testKid,
			Kty: "RSA",
			Alg: "RS256",
			Use: "sig",
			N:   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
		}}}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(jwks)
	}))
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKid
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func baseClaims(issuer string, sub uuid.UUID) Claims {
	now := time.Now()
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   sub.String(),
			Audience:  jwt.ClaimStrings{"authenticated"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Email:     "jo@example.com",
		Role:      "authenticated",
		SessionID: "sess-1",
	}
}

func TestValidator_ValidateToken(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	sub := uuid.New()

	t.Run("accepts a valid token", func(t *testing.T) {
		srv := newJWKSServer(t, key, nil)
		defer srv.Close()

		v := NewValidator(ValidatorConfig{PlatformURL: srv.URL})
		token := signToken(t, key, baseClaims(srv.URL+"/auth/v1", sub))

		parsed, err := v.ValidateToken(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, sub, parsed.Sub)
		assert.Equal(t, "jo@example.com", parsed.Email)
		assert.Equal(t, "authenticated", parsed.Role)
		assert.Equal(t, "sess-1", parsed.SessionID)
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		srv := newJWKSServer(t, key, nil)
		defer srv.Close()

		v := NewValidator(ValidatorConfig{PlatformURL: srv.URL})
		claims := baseClaims(srv.URL+"/auth/v1", sub)
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
		token := signToken(t, key, claims)

		_, err := v.ValidateToken(context.Background(), token)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("rejects a foreign issuer", func(t *testing.T) {
		srv := newJWKSServer(t, key, nil)
		defer srv.Close()

		v := NewValidator(ValidatorConfig{PlatformURL: srv.URL})
		token := signToken(t, key, baseClaims("https://evil.example.com/auth/v1", sub))

		_, err := v.ValidateToken(context.Background(), token)
		assert.ErrorIs(t, err, ErrInvalidIssuer)
	})

	t.Run("rejects a wrong audience", func(t *testing.T) {
		srv := newJWKSServer(t, key, nil)
		defer srv.Close()

		v := NewValidator(ValidatorConfig{PlatformURL: srv.URL})
		claims := baseClaims(srv.URL+"/auth/v1", sub)
		claims.Audience = jwt.ClaimStrings{"anon"}
		token := signToken(t, key, claims)

		_, err := v.ValidateToken(context.Background(), token)
		assert.ErrorIs(t, err, ErrInvalidAudience)
	})

	t.Run("rejects a token signed by an unknown key", func(t *testing.T) {
		srv := newJWKSServer(t, key, nil)
		defer srv.Close()

		otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)

		v := NewValidator(ValidatorConfig{PlatformURL: srv.URL})
		token := signToken(t, otherKey, baseClaims(srv.URL+"/auth/v1", sub))

		_, err = v.ValidateToken(context.Background(), token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("caches JWKS across validations", func(t *testing.T) {
		fetches := 0
		srv := newJWKSServer(t, key, &fetches)
		defer srv.Close()

		v := NewValidator(ValidatorConfig{PlatformURL: srv.URL})
		token := signToken(t, key, baseClaims(srv.URL+"/auth/v1", sub))

		for i := 0; i < 3; i++ {
			_, err := v.ValidateToken(context.Background(), token)
			require.NoError(t, err)
		}
		assert.Equal(t, 1, fetches)

		v.InvalidateCache()
		_, err := v.ValidateToken(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, 2, fetches)
	})
}
