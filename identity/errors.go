package identity

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotConfigured is returned when the platform URL or a required key
	// is missing from configuration.
	ErrNotConfigured = errors.New("identity platform not configured")

	// ErrInvalidToken is returned when a session token fails validation.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when a session token has expired.
	ErrTokenExpired = errors.New("token expired")

	// ErrInvalidIssuer is returned when the token issuer is not the platform.
	ErrInvalidIssuer = errors.New("invalid issuer")

	// ErrInvalidAudience is returned when the token audience is wrong.
	ErrInvalidAudience = errors.New("invalid audience")

	// ErrJWKSFetchFailed is returned when JWKS fetching fails.
	ErrJWKSFetchFailed = errors.New("failed to fetch JWKS")
)

// PlatformError is an error reported by the identity platform itself
// (bad credentials, rate limit, malformed request). Transport failures are
// returned as plain wrapped errors, not PlatformErrors.
type PlatformError struct {
	Status  int    // HTTP status returned by the platform
	Code    string // platform error code when present
	Message string
}

func (e *PlatformError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("platform error: %s (%s, status %d)", e.Message, e.Code, e.Status)
	}
	return fmt.Sprintf("platform error: %s (status %d)", e.Message, e.Status)
}

// IsAuthError reports whether err is a platform rejection of the caller's
// credentials or token, as opposed to a platform-side failure.
func IsAuthError(err error) bool {
	var pe *PlatformError
	if errors.As(err, &pe) {
		return pe.Status == http.StatusUnauthorized || pe.Status == http.StatusForbidden
	}
	return false
}
