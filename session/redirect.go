package session

import (
	"net/url"
	"strings"
)

// SafeRedirect decides where to send the user after sign-out, based on the
// page they came from. The referer's path is matched against the restricted
// prefixes by substring: a referer anywhere under a protected area (which
// the user just lost access to) falls back instead of bouncing them into a
// page that would immediately redirect again. The result is always a path,
// never an absolute URL, so it cannot point off-host.
func SafeRedirect(referer, fallback string, restricted []string) string {
	if referer == "" {
		return fallback
	}

	u, err := url.Parse(referer)
	if err != nil || u.Path == "" {
		return fallback
	}

	for _, prefix := range restricted {
		if prefix != "" && strings.Contains(u.Path, prefix) {
			return fallback
		}
	}
	return u.Path
}
