package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/synclinehq/syncline/config"
	"github.com/synclinehq/syncline/models"
	"go.uber.org/zap"
)

// RESTProvider is a contact provider backed by a conventional JSON API:
// GET /contacts with cursor pagination and PUT /contacts keyed on email.
// Both sync endpoints of a deployment are instances of this type, pointed
// at different services.
type RESTProvider struct {
	name       string
	baseURL    string
	apiKey     string
	maxRetries int
	httpClient *http.Client
	logger     *zap.Logger
}

// NewRESTProvider creates a provider from its connection configuration.
func NewRESTProvider(cfg config.ProviderConfig, logger *zap.Logger) *RESTProvider {
	return &RESTProvider{
		name:       cfg.Name,
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		maxRetries: cfg.MaxRetries,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// Name returns the provider name
func (p *RESTProvider) Name() string {
	return p.name
}

type listContactsResponse struct {
	Contacts   []*models.Contact `json:"contacts"`
	NextCursor string            `json:"next_cursor"`
}

// ListContacts returns one page of contacts and the cursor for the next page.
func (p *RESTProvider) ListContacts(ctx context.Context, cursor string, limit int) ([]*models.Contact, string, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if cursor != "" {
		q.Set("cursor", cursor)
	}

	body, err := p.doWithRetry(ctx, http.MethodGet, "/contacts?"+q.Encode(), nil)
	if err != nil {
		return nil, "", err
	}

	var page listContactsResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, "", NewProviderError(p.name, "decode contact page", 0, false, err)
	}

	return page.Contacts, page.NextCursor, nil
}

type upsertContactResponse struct {
	ID string `json:"id"`
}

// UpsertContact creates or updates a contact keyed on its email.
func (p *RESTProvider) UpsertContact(ctx context.Context, contact *models.Contact) (string, error) {
	body, err := p.doWithRetry(ctx, http.MethodPut, "/contacts", contact)
	if err != nil {
		return "", err
	}

	var result upsertContactResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", NewProviderError(p.name, "decode upsert response", 0, false, err)
	}

	return result.ID, nil
}

// IsAvailable checks if the provider is currently reachable
func (p *RESTProvider) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode < 500
}

// doWithRetry performs the request, retrying transient failures with a short
// linear backoff. Client errors (4xx) never retry.
func (p *RESTProvider) doWithRetry(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, NewProviderError(p.name, "request canceled", 0, false, ctx.Err())
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
			p.logger.Debug("retrying provider request",
				zap.String("provider", p.name),
				zap.String("path", path),
				zap.Int("attempt", attempt))
		}

		body, err := p.do(ctx, method, path, payload)
		if err == nil {
			return body, nil
		}

		lastErr = err
		if !IsRetryable(err) {
			return nil, err
		}
	}

	return nil, lastErr
}

func (p *RESTProvider) do(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, NewProviderError(p.name, "encode request", 0, false, err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reqBody)
	if err != nil {
		return nil, NewProviderError(p.name, "build request", 0, false, err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, NewProviderError(p.name, fmt.Sprintf("%s %s", method, path), 0, true, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewProviderError(p.name, "read response", 0, true, err)
	}

	if resp.StatusCode >= 400 {
		retryable := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return nil, NewProviderError(p.name,
			fmt.Sprintf("%s %s returned %d", method, path, resp.StatusCode),
			resp.StatusCode, retryable, nil)
	}

	return body, nil
}
