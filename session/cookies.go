package session

import (
	"net/http"
	"time"

	"github.com/synclinehq/syncline/identity"
)

// Cookie names for the token pair.
const (
	AccessTokenCookie  = "sl_access_token"
	RefreshTokenCookie = "sl_refresh_token"
)

const (
	defaultAccessTokenMaxAge = 3600
	refreshTokenMaxAge       = 30 * 24 * int(time.Hour/time.Second)
)

// CookieOptions are the attributes stamped on every session cookie.
type CookieOptions struct {
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

// DefaultCookieOptions returns the attributes used when the caller has no
// overrides. Secure should stay on outside of local development.
func DefaultCookieOptions(secure bool) CookieOptions {
	return CookieOptions{
		Path:     "/",
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// CookieBridge reads and writes session cookies for a single request/response
// pair. Construct a fresh bridge per request; a bridge bound to one request
// must never serve another.
type CookieBridge struct {
	w    http.ResponseWriter
	r    *http.Request
	opts CookieOptions
}

// NewCookieBridge binds a bridge to the given request and response.
func NewCookieBridge(w http.ResponseWriter, r *http.Request, opts CookieOptions) *CookieBridge {
	return &CookieBridge{w: w, r: r, opts: opts}
}

// Get returns the value of the named cookie, or "" when absent.
func (b *CookieBridge) Get(name string) string {
	c, err := b.r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// Set writes a cookie with the bridge's attributes and the given lifetime in
// seconds.
func (b *CookieBridge) Set(name, value string, maxAge int) {
	http.SetCookie(b.w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     b.opts.Path,
		Domain:   b.opts.Domain,
		MaxAge:   maxAge,
		Secure:   b.opts.Secure,
		HttpOnly: true,
		SameSite: b.opts.SameSite,
	})
}

// Remove expires the named cookie. Removal is a set with an empty value and
// a negative max-age so the attributes match the original cookie and the
// browser drops it immediately.
func (b *CookieBridge) Remove(name string) {
	b.Set(name, "", -1)
}

// ReadTokens returns the access/refresh token pair from the request cookies.
// Either may be "".
func (b *CookieBridge) ReadTokens() (accessToken, refreshToken string) {
	return b.Get(AccessTokenCookie), b.Get(RefreshTokenCookie)
}

// WriteSession persists a session's token pair. The access cookie lives as
// long as the token; the refresh cookie outlives it so the session can be
// rotated after the access token expires.
func (b *CookieBridge) WriteSession(s *identity.Session) {
	if s == nil || s.AccessToken == "" {
		return
	}
	maxAge := defaultAccessTokenMaxAge
	if s.ExpiresIn > 0 {
		maxAge = s.ExpiresIn
	}
	b.Set(AccessTokenCookie, s.AccessToken, maxAge)
	if s.RefreshToken != "" {
		b.Set(RefreshTokenCookie, s.RefreshToken, refreshTokenMaxAge)
	}
}

// Clear expires both session cookies.
func (b *CookieBridge) Clear() {
	b.Remove(AccessTokenCookie)
	b.Remove(RefreshTokenCookie)
}
