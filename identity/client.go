package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client is an opaque handle to the hosted identity platform, parameterized
// by a base URL and an access key. A public client carries the anonymous key
// and is safe for browser exposure; a privileged client carries the
// service-role key and must never leave the server process. Obtain instances
// through the Factory, never construct them per request.
type Client struct {
	baseURL    string
	apiKey     string
	privileged bool
	httpClient *http.Client
}

func newClient(baseURL, apiKey string, privileged bool, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		privileged: privileged,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the platform base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Privileged reports whether this client carries the service-role key.
func (c *Client) Privileged() bool {
	return c.privileged
}

// APIKey returns the access key this client was built with. Callers that
// share the platform credential with sibling APIs (storage) read it from
// here instead of reaching back into configuration.
func (c *Client) APIKey() string {
	return c.apiKey
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type recoverRequest struct {
	Email string `json:"email"`
}

// SignUp registers a new user with the platform. When the platform is set to
// auto-confirm, the response carries a full session; otherwise only the user.
func (c *Client) SignUp(ctx context.Context, email, password string) (*Session, error) {
	body := credentialsRequest{Email: email, Password: password}
	return c.sessionRequest(ctx, http.MethodPost, "/auth/v1/signup", body)
}

// SignInWithPassword exchanges email/password credentials for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	body := credentialsRequest{Email: email, Password: password}
	return c.sessionRequest(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", body)
}

// RefreshSession exchanges a refresh token for a fresh session.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	body := refreshRequest{RefreshToken: refreshToken}
	return c.sessionRequest(ctx, http.MethodPost, "/auth/v1/token?grant_type=refresh_token", body)
}

// SignOut revokes the session behind the given access token.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/auth/v1/logout", accessToken, nil, nil)
}

// Recover requests a password-reset email. redirectTo, when non-empty, is
// where the emailed link lands the user.
func (c *Client) Recover(ctx context.Context, email, redirectTo string) error {
	path := "/auth/v1/recover"
	if redirectTo != "" {
		path += "?redirect_to=" + url.QueryEscape(redirectTo)
	}
	return c.do(ctx, http.MethodPost, path, "", recoverRequest{Email: email}, nil)
}

// GetUser fetches the user behind the given access token.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/auth/v1/user", accessToken, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser updates the mutable attributes (password, email, metadata) of
// the user behind the given access token.
func (c *Client) UpdateUser(ctx context.Context, accessToken string, attrs UserAttributes) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodPut, "/auth/v1/user", accessToken, attrs, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// sessionRequest performs a request whose successful response is either a
// session or, for unconfirmed sign-ups, a bare user.
func (c *Client) sessionRequest(ctx context.Context, method, path string, body interface{}) (*Session, error) {
	raw, err := c.doRaw(ctx, method, path, "", body)
	if err != nil {
		return nil, err
	}

	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("parse session response: %w", err)
	}
	if session.User != nil || session.AccessToken != "" {
		return &session, nil
	}

	// Sign-up with confirmation pending returns the user object directly.
	var user User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("parse user response: %w", err)
	}
	return &Session{User: &user}, nil
}

// do performs a platform request and decodes a JSON response into out when
// out is non-nil.
func (c *Client) do(ctx context.Context, method, path, accessToken string, body, out interface{}) error {
	raw, err := c.doRaw(ctx, method, path, accessToken, body)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse platform response: %w", err)
	}
	return nil
}

func (c *Client) doRaw(ctx context.Context, method, path, accessToken string, body interface{}) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create platform request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("platform request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read platform response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parsePlatformError(resp.StatusCode, raw)
	}

	return raw, nil
}

// platformErrorBody covers both error shapes the platform emits.
type platformErrorBody struct {
	Code             string `json:"error_code"`
	Msg              string `json:"msg"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Message          string `json:"message"`
}

func parsePlatformError(status int, raw []byte) error {
	pe := &PlatformError{Status: status, Message: http.StatusText(status)}

	var body platformErrorBody
	if err := json.Unmarshal(raw, &body); err == nil {
		switch {
		case body.Msg != "":
			pe.Message = body.Msg
		case body.ErrorDescription != "":
			pe.Message = body.ErrorDescription
		case body.Message != "":
			pe.Message = body.Message
		case body.Error != "":
			pe.Message = body.Error
		}
		if body.Code != "" {
			pe.Code = body.Code
		} else if body.Error != "" && body.ErrorDescription != "" {
			pe.Code = body.Error
		}
	}

	return pe
}
