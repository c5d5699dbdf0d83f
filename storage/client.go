// Package storage talks to the identity platform's object storage API with
// the privileged client credentials.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Bucket is a storage bucket as reported by the platform
type Bucket struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Public    bool      `json:"public"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// APIError is a failure response from the storage API
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("storage: %s (%s, status %d)", e.Message, e.Code, e.Status)
	}
	return fmt.Sprintf("storage: %s (status %d)", e.Message, e.Status)
}

// Client calls the platform storage REST API. All calls carry the
// service-role key, so the client must only ever run server-side.
type Client struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

// NewClient creates a storage client against the platform base URL.
func NewClient(baseURL, serviceKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		serviceKey: serviceKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ListBuckets returns all buckets in the project.
func (c *Client) ListBuckets(ctx context.Context) ([]Bucket, error) {
	body, err := c.do(ctx, http.MethodGet, "/storage/v1/bucket", nil)
	if err != nil {
		return nil, err
	}

	var buckets []Bucket
	if err := json.Unmarshal(body, &buckets); err != nil {
		return nil, fmt.Errorf("storage: decode bucket list: %w", err)
	}
	return buckets, nil
}

// CreateBucket creates a bucket with the given visibility.
func (c *Client) CreateBucket(ctx context.Context, name string, public bool) error {
	payload := map[string]interface{}{
		"id":     name,
		"name":   name,
		"public": public,
	}
	_, err := c.do(ctx, http.MethodPost, "/storage/v1/bucket", payload)
	return err
}

// Upload stores an object under bucket/path.
func (c *Client) Upload(ctx context.Context, bucket, path, contentType string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/storage/v1/object/"+bucket+"/"+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("storage: build upload request: %w", err)
	}
	c.setAuth(req)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("storage: upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return parseAPIError(resp.StatusCode, body)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("storage: encode request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("storage: build request: %w", err)
	}
	c.setAuth(req)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("storage: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("storage: read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, parseAPIError(resp.StatusCode, body)
	}
	return body, nil
}

func (c *Client) setAuth(req *http.Request) {
	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
}

func parseAPIError(status int, body []byte) error {
	apiErr := &APIError{Status: status}

	var payload struct {
		StatusCode string `json:"statusCode"`
		Code       string `json:"error"`
		Message    string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		apiErr.Code = payload.Code
		apiErr.Message = payload.Message
		return apiErr
	}

	apiErr.Message = http.StatusText(status)
	return apiErr
}
