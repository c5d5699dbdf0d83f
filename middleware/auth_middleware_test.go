package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synclinehq/syncline/identity"
	"github.com/synclinehq/syncline/session"
	"go.uber.org/zap"
)

type stubValidator struct {
	claims *identity.ParsedClaims
	err    error
	tokens []string
}

func (s *stubValidator) ValidateToken(_ context.Context, token string) (*identity.ParsedClaims, error) {
	s.tokens = append(s.tokens, token)
	if s.err != nil {
		return nil, s.err
	}
	return s.claims, nil
}

func validClaims() *identity.ParsedClaims {
	return &identity.ParsedClaims{
		Sub:   uuid.New(),
		Email: "jo@example.com",
		Role:  "authenticated",
	}
}

func TestAuthMiddleware_RequireSession(t *testing.T) {
	t.Run("passes claims to the handler on a valid bearer token", func(t *testing.T) {
		claims := validClaims()
		v := &stubValidator{claims: claims}
		m := NewAuthMiddleware(v, zap.NewNop())

		var gotClaims *identity.ParsedClaims
		var gotUserID uuid.UUID
		handler := m.RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotClaims = GetClaimsFromContext(r.Context())
			gotUserID = GetUserIDFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer at-123")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, gotClaims)
		assert.Equal(t, claims.Email, gotClaims.Email)
		assert.Equal(t, claims.Sub, gotUserID)
		assert.Equal(t, []string{"at-123"}, v.tokens)
	})

	t.Run("falls back to the session cookie", func(t *testing.T) {
		v := &stubValidator{claims: validClaims()}
		m := NewAuthMiddleware(v, zap.NewNop())

		handler := m.RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: session.AccessTokenCookie, Value: "at-cookie"})
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"at-cookie"}, v.tokens)
	})

	t.Run("rejects a request without a token", func(t *testing.T) {
		m := NewAuthMiddleware(&stubValidator{}, zap.NewNop())

		handler := m.RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be reached")
		}))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejects an invalid token", func(t *testing.T) {
		v := &stubValidator{err: errors.New("bad signature")}
		m := NewAuthMiddleware(v, zap.NewNop())

		handler := m.RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be reached")
		}))

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer stale")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthMiddleware_RequireRole(t *testing.T) {
	newHandler := func(m *AuthMiddleware, role string) http.Handler {
		return m.RequireSession(m.RequireRole(role)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})))
	}

	t.Run("allows a matching role", func(t *testing.T) {
		claims := validClaims()
		claims.Role = "service_role"
		m := NewAuthMiddleware(&stubValidator{claims: claims}, zap.NewNop())

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer at-123")
		w := httptest.NewRecorder()
		newHandler(m, "service_role").ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("forbids a mismatched role", func(t *testing.T) {
		m := NewAuthMiddleware(&stubValidator{claims: validClaims()}, zap.NewNop())

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer at-123")
		w := httptest.NewRecorder()
		newHandler(m, "service_role").ServeHTTP(w, r)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"standard bearer", "Bearer at-123", "at-123"},
		{"case-insensitive scheme", "bearer at-123", "at-123"},
		{"missing header", "", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz", ""},
		{"scheme only", "Bearer", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, extractBearerToken(r))
		})
	}
}
