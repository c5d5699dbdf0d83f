package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synclinehq/syncline/identity"
)

func newTestBridge(cookies ...*http.Cookie) (*CookieBridge, *httptest.ResponseRecorder) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	w := httptest.NewRecorder()
	return NewCookieBridge(w, r, DefaultCookieOptions(true)), w
}

func findSetCookie(t *testing.T, w *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func TestCookieBridge_ReadTokens(t *testing.T) {
	t.Run("returns both tokens when present", func(t *testing.T) {
		b, _ := newTestBridge(
			&http.Cookie{Name: AccessTokenCookie, Value: "at-123"},
			&http.Cookie{Name: RefreshTokenCookie, Value: "rt-456"},
		)

		access, refresh := b.ReadTokens()
		assert.Equal(t, "at-123", access)
		assert.Equal(t, "rt-456", refresh)
	})

	t.Run("absent cookies read as empty", func(t *testing.T) {
		b, _ := newTestBridge()

		access, refresh := b.ReadTokens()
		assert.Empty(t, access)
		assert.Empty(t, refresh)
	})
}

func TestCookieBridge_WriteSession(t *testing.T) {
	t.Run("persists both tokens with cookie attributes", func(t *testing.T) {
		b, w := newTestBridge()
		b.WriteSession(&identity.Session{
			AccessToken:  "at-123",
			RefreshToken: "rt-456",
			ExpiresIn:    900,
		})

		access := findSetCookie(t, w, AccessTokenCookie)
		assert.Equal(t, "at-123", access.Value)
		assert.Equal(t, 900, access.MaxAge)
		assert.True(t, access.HttpOnly)
		assert.True(t, access.Secure)
		assert.Equal(t, "/", access.Path)

		refresh := findSetCookie(t, w, RefreshTokenCookie)
		assert.Equal(t, "rt-456", refresh.Value)
		assert.Greater(t, refresh.MaxAge, access.MaxAge)
	})

	t.Run("defaults the access lifetime when the platform omits it", func(t *testing.T) {
		b, w := newTestBridge()
		b.WriteSession(&identity.Session{AccessToken: "at-123", RefreshToken: "rt-456"})

		assert.Equal(t, defaultAccessTokenMaxAge, findSetCookie(t, w, AccessTokenCookie).MaxAge)
	})

	t.Run("ignores a sessionless result", func(t *testing.T) {
		b, w := newTestBridge()
		b.WriteSession(nil)
		b.WriteSession(&identity.Session{})

		assert.Empty(t, w.Result().Cookies())
	})
}

func TestCookieBridge_Remove(t *testing.T) {
	t.Run("removal expires the cookie with matching attributes", func(t *testing.T) {
		b, w := newTestBridge()
		b.Remove(AccessTokenCookie)

		c := findSetCookie(t, w, AccessTokenCookie)
		assert.Empty(t, c.Value)
		assert.Negative(t, c.MaxAge)
		assert.Equal(t, "/", c.Path)
	})

	t.Run("clear expires the whole pair", func(t *testing.T) {
		b, w := newTestBridge()
		b.Clear()

		require.Len(t, w.Result().Cookies(), 2)
		assert.Negative(t, findSetCookie(t, w, AccessTokenCookie).MaxAge)
		assert.Negative(t, findSetCookie(t, w, RefreshTokenCookie).MaxAge)
	})
}
