package session

import (
	"context"

	"go.uber.org/zap"
)

// State is the phase of a gated route evaluation.
type State string

const (
	// StateChecking means the session has not been resolved yet.
	StateChecking State = "checking"
	// StateAuthorized means a live session was found.
	StateAuthorized State = "authorized"
	// StateRedirecting means no session exists and the caller should send
	// the user to the login page.
	StateRedirecting State = "redirecting"
	// StateError means the session could not be resolved.
	StateError State = "error"
)

// GateResult is the outcome of one gate evaluation.
type GateResult struct {
	State      State      `json:"state"`
	Result     AuthResult `json:"result"`
	RedirectTo string     `json:"redirect_to,omitempty"`
}

// Gate decides whether a route that wants a signed-in user should render,
// redirect to login, or surface an error. The gate is advisory: it improves
// the experience for signed-out users but enforces nothing, so every
// operation behind a gated route must still authorize server-side.
type Gate struct {
	accessor  *Accessor
	loginPath string
	logger    *zap.Logger
}

// NewGate creates a gate that redirects unauthenticated users to loginPath.
func NewGate(accessor *Accessor, loginPath string, logger *zap.Logger) *Gate {
	if loginPath == "" {
		loginPath = "/login"
	}
	return &Gate{accessor: accessor, loginPath: loginPath, logger: logger}
}

// Evaluate resolves the session behind the token pair and maps it onto a
// terminal gate state. Evaluation starts in StateChecking and always leaves
// it: a live session authorizes, an absent one redirects, and a resolution
// failure is an error rather than a redirect so a platform outage does not
// masquerade as being signed out.
func (g *Gate) Evaluate(ctx context.Context, accessToken, refreshToken string) GateResult {
	result := g.accessor.CurrentSession(ctx, accessToken, refreshToken)

	switch {
	case !result.OK():
		g.logger.Warn("gate evaluation failed", zap.String("kind", string(result.Err.Kind)))
		return GateResult{State: StateError, Result: result}
	case result.Session == nil:
		return GateResult{State: StateRedirecting, Result: result, RedirectTo: g.loginPath}
	default:
		return GateResult{State: StateAuthorized, Result: result}
	}
}
