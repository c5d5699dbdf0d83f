package session

import (
	"context"

	"github.com/synclinehq/syncline/config"
	"github.com/synclinehq/syncline/identity"
	"go.uber.org/zap"
)

// resetPath is where the password-reset email lands the user, relative to
// the configured application base URL.
const resetPath = "/reset-password"

// Accessor exposes the identity platform's session lifecycle as uniform
// result values. Every platform call goes through a single fault boundary:
// the fault is logged with operation context and returned as data, never
// propagated to callers.
type Accessor struct {
	factory *identity.Factory
	app     config.AppConfig
	logger  *zap.Logger
}

// NewAccessor creates a session accessor over the given client factory.
func NewAccessor(factory *identity.Factory, app config.AppConfig, logger *zap.Logger) *Accessor {
	return &Accessor{
		factory: factory,
		app:     app,
		logger:  logger,
	}
}

// guard is the fault boundary applied to every platform call.
func (a *Accessor) guard(op string, fn func(c *identity.Client) (*identity.Session, error)) AuthResult {
	client, err := a.factory.Public()
	if err != nil {
		a.logger.Warn("session operation failed", zap.String("op", op), zap.Error(err))
		return AuthResult{Err: failureFrom(err)}
	}

	s, err := fn(client)
	if err != nil {
		a.logger.Warn("session operation failed", zap.String("op", op), zap.Error(err))
		return AuthResult{Err: failureFrom(err)}
	}

	result := AuthResult{User: s.User}
	if s.AccessToken != "" {
		result.Session = s
	}
	return result
}

// SignUp registers a new user. Email and password pass through unvalidated;
// validation is the platform's responsibility.
func (a *Accessor) SignUp(ctx context.Context, email, password string) AuthResult {
	return a.guard("sign_up", func(c *identity.Client) (*identity.Session, error) {
		return c.SignUp(ctx, email, password)
	})
}

// SignIn authenticates email/password credentials.
func (a *Accessor) SignIn(ctx context.Context, email, password string) AuthResult {
	return a.guard("sign_in", func(c *identity.Client) (*identity.Session, error) {
		return c.SignInWithPassword(ctx, email, password)
	})
}

// SignOut invalidates the session behind accessToken at the platform. An
// empty or already-revoked token is treated as success: there is nothing
// left to revoke, and the caller clears its cookie state regardless.
func (a *Accessor) SignOut(ctx context.Context, accessToken string) OpResult {
	if accessToken == "" {
		return OpResult{}
	}

	client, err := a.factory.Public()
	if err != nil {
		a.logger.Warn("session operation failed", zap.String("op", "sign_out"), zap.Error(err))
		return OpResult{Err: failureFrom(err)}
	}

	if err := client.SignOut(ctx, accessToken); err != nil {
		if identity.IsAuthError(err) {
			a.logger.Debug("sign-out with stale token", zap.Error(err))
			return OpResult{}
		}
		a.logger.Warn("session operation failed", zap.String("op", "sign_out"), zap.Error(err))
		return OpResult{Err: failureFrom(err)}
	}
	return OpResult{}
}

// ResetPassword requests a password-reset email. The redirect-after-reset
// URL is derived from the configured application base URL; a server process
// has no browser origin to derive it from, so a missing base URL is a
// configuration failure.
func (a *Accessor) ResetPassword(ctx context.Context, email string) OpResult {
	if a.app.BaseURL == "" {
		err := &Failure{Kind: KindConfiguration, Message: "application base URL not configured for password reset"}
		a.logger.Warn("session operation failed", zap.String("op", "reset_password"), zap.String("reason", err.Message))
		return OpResult{Err: err}
	}

	client, err := a.factory.Public()
	if err != nil {
		a.logger.Warn("session operation failed", zap.String("op", "reset_password"), zap.Error(err))
		return OpResult{Err: failureFrom(err)}
	}

	if err := client.Recover(ctx, email, a.app.BaseURL+resetPath); err != nil {
		a.logger.Warn("session operation failed", zap.String("op", "reset_password"), zap.Error(err))
		return OpResult{Err: failureFrom(err)}
	}
	return OpResult{}
}

// UpdatePassword changes the credential of the principal behind accessToken.
// The platform result passes through raw (user or failure); callers need no
// wider shape.
func (a *Accessor) UpdatePassword(ctx context.Context, accessToken, newPassword string) (*identity.User, *Failure) {
	client, err := a.factory.Public()
	if err != nil {
		a.logger.Warn("session operation failed", zap.String("op", "update_password"), zap.Error(err))
		return nil, failureFrom(err)
	}

	user, err := client.UpdateUser(ctx, accessToken, identity.UserAttributes{Password: newPassword})
	if err != nil {
		a.logger.Warn("session operation failed", zap.String("op", "update_password"), zap.Error(err))
		return nil, failureFrom(err)
	}
	return user, nil
}

// CurrentSession resolves the active session behind the given tokens. The
// session is reconstructed from the caller's tokens on every call; nothing
// is cached across requests. No tokens, or tokens the platform no longer
// recognizes, yield an absent session with no error: not being signed in is
// a normal outcome. A stale access token with a live refresh token is
// rotated transparently; callers detect rotation by comparing access tokens
// and persist the new pair.
func (a *Accessor) CurrentSession(ctx context.Context, accessToken, refreshToken string) AuthResult {
	if accessToken == "" && refreshToken == "" {
		return AuthResult{}
	}

	client, err := a.factory.Public()
	if err != nil {
		a.logger.Warn("session operation failed", zap.String("op", "current_session"), zap.Error(err))
		return AuthResult{Err: failureFrom(err)}
	}

	if accessToken != "" {
		user, err := client.GetUser(ctx, accessToken)
		if err == nil {
			return AuthResult{
				User: user,
				Session: &identity.Session{
					AccessToken:  accessToken,
					RefreshToken: refreshToken,
					TokenType:    "bearer",
					User:         user,
				},
			}
		}
		if !identity.IsAuthError(err) {
			a.logger.Warn("session operation failed", zap.String("op", "current_session"), zap.Error(err))
			return AuthResult{Err: failureFrom(err)}
		}
		// Access token no longer valid; fall through to the refresh token.
	}

	if refreshToken == "" {
		return AuthResult{}
	}

	s, err := client.RefreshSession(ctx, refreshToken)
	if err != nil {
		if identity.IsAuthError(err) {
			return AuthResult{}
		}
		a.logger.Warn("session operation failed", zap.String("op", "current_session"), zap.Error(err))
		return AuthResult{Err: failureFrom(err)}
	}
	return AuthResult{User: s.User, Session: s}
}
