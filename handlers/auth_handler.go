package handlers

import (
	"net/http"

	"github.com/synclinehq/syncline/config"
	"github.com/synclinehq/syncline/session"
	"github.com/synclinehq/syncline/utils"
	"go.uber.org/zap"
)

// AuthHandler serves the session lifecycle endpoints. Tokens live in
// HTTP-only cookies; response bodies carry the user, never the raw tokens.
type AuthHandler struct {
	accessor   *session.Accessor
	gate       *session.Gate
	app        config.AppConfig
	cookieOpts session.CookieOptions
	logger     *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(accessor *session.Accessor, gate *session.Gate, app config.AppConfig, cookieOpts session.CookieOptions, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		accessor:   accessor,
		gate:       gate,
		app:        app,
		cookieOpts: cookieOpts,
		logger:     logger,
	}
}

// Credential payloads carry only presence constraints. What counts as a
// valid email or an acceptable password is the identity platform's call;
// its rejection comes back as result data, not a local 400.
type credentialsRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type emailRequest struct {
	Email string `json:"email" validate:"required"`
}

type passwordRequest struct {
	Password string `json:"password" validate:"required"`
}

// sessionResponse is the body for endpoints that resolve a session. The
// token pair stays in cookies; clients only learn whether a session exists
// and who it belongs to.
type sessionResponse struct {
	User          interface{}      `json:"user"`
	Authenticated bool             `json:"authenticated"`
	Error         *session.Failure `json:"error,omitempty"`
}

func newSessionResponse(result session.AuthResult) sessionResponse {
	resp := sessionResponse{
		Authenticated: result.Session != nil,
		Error:         result.Err,
	}
	if result.User != nil {
		resp.User = result.User
	}
	return resp
}

// HandleSignUp handles POST /auth/signup
func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	result := h.accessor.SignUp(r.Context(), req.Email, req.Password)
	if !result.OK() {
		h.writeFailure(w, result.Err)
		return
	}

	bridge := session.NewCookieBridge(w, r, h.cookieOpts)
	bridge.WriteSession(result.Session)

	respondJSON(w, http.StatusCreated, newSessionResponse(result))
}

// HandleSignIn handles POST /auth/signin
func (h *AuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	result := h.accessor.SignIn(r.Context(), req.Email, req.Password)
	if !result.OK() {
		h.writeFailure(w, result.Err)
		return
	}

	bridge := session.NewCookieBridge(w, r, h.cookieOpts)
	bridge.WriteSession(result.Session)

	respondJSON(w, http.StatusOK, newSessionResponse(result))
}

// HandleSignOut handles POST /auth/signout. The session is revoked at the
// platform, the cookies are expired, and the user is sent back to where
// they came from unless that page sits under a restricted prefix.
func (h *AuthHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	bridge := session.NewCookieBridge(w, r, h.cookieOpts)
	accessToken, _ := bridge.ReadTokens()

	result := h.accessor.SignOut(r.Context(), accessToken)
	if !result.OK() {
		h.logger.Warn("platform sign-out failed, clearing cookies anyway",
			zap.String("kind", string(result.Err.Kind)))
	}

	// Local state clears regardless of the platform outcome.
	bridge.Clear()

	target := session.SafeRedirect(r.Referer(), "/", h.app.RestrictedPaths)
	http.Redirect(w, r, target, http.StatusFound)
}

// HandleResetPassword handles POST /auth/reset
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	result := h.accessor.ResetPassword(r.Context(), req.Email)
	if !result.OK() {
		h.writeFailure(w, result.Err)
		return
	}

	// Always accepted: whether the address exists is not disclosed.
	_ = utils.WriteAccepted(w, "If the address exists, a reset email is on its way")
}

// HandleUpdatePassword handles PUT /auth/password
func (h *AuthHandler) HandleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	bridge := session.NewCookieBridge(w, r, h.cookieOpts)
	accessToken, _ := bridge.ReadTokens()
	if accessToken == "" {
		_ = utils.WriteUnauthorized(w, "")
		return
	}

	var req passwordRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	user, failure := h.accessor.UpdatePassword(r.Context(), accessToken, req.Password)
	if failure != nil {
		h.writeFailure(w, failure)
		return
	}

	_ = utils.WriteOK(w, user)
}

// HandleSession handles GET /auth/session. When the platform rotated the
// token pair during resolution, the fresh pair is written back before the
// response goes out.
func (h *AuthHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	bridge := session.NewCookieBridge(w, r, h.cookieOpts)
	accessToken, refreshToken := bridge.ReadTokens()

	result := h.accessor.CurrentSession(r.Context(), accessToken, refreshToken)
	if !result.OK() {
		h.writeFailure(w, result.Err)
		return
	}

	if result.Session != nil && result.Session.AccessToken != accessToken {
		bridge.WriteSession(result.Session)
	}
	if result.Session == nil && (accessToken != "" || refreshToken != "") {
		bridge.Clear()
	}

	respondJSON(w, http.StatusOK, newSessionResponse(result))
}

// gateResponse is the wire shape of a gate verdict. The token pair stays in
// the HTTP-only cookies and never enters the body.
type gateResponse struct {
	State      session.State    `json:"state"`
	User       interface{}      `json:"user,omitempty"`
	RedirectTo string           `json:"redirect_to,omitempty"`
	Error      *session.Failure `json:"error,omitempty"`
}

// HandleGate handles GET /auth/gate. Clients call it before rendering a
// route that wants a signed-in user. The verdict is advisory: it drives
// navigation only, and every operation behind the route still authorizes
// server-side.
func (h *AuthHandler) HandleGate(w http.ResponseWriter, r *http.Request) {
	bridge := session.NewCookieBridge(w, r, h.cookieOpts)
	accessToken, refreshToken := bridge.ReadTokens()

	verdict := h.gate.Evaluate(r.Context(), accessToken, refreshToken)

	resp := gateResponse{
		State:      verdict.State,
		RedirectTo: verdict.RedirectTo,
		Error:      verdict.Result.Err,
	}
	if verdict.Result.User != nil {
		resp.User = verdict.Result.User
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := decodeJSON(w, r, dst); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return false
	}
	if err := utils.ValidateStruct(dst); err != nil {
		details := map[string]interface{}{}
		for field, msg := range utils.GetValidationFields(err) {
			details[field] = msg
		}
		_ = utils.WriteBadRequest(w, "Validation failed", details)
		return false
	}
	return true
}

// writeFailure maps an accessor failure onto an HTTP status: broken
// configuration is the server's fault, a platform rejection is the
// client's.
func (h *AuthHandler) writeFailure(w http.ResponseWriter, failure *session.Failure) {
	if failure.Kind == session.KindConfiguration {
		_ = utils.WriteInternalServerError(w, failure.Message)
		return
	}
	_ = utils.WriteError(w, http.StatusBadRequest, failure.Message, nil)
}
