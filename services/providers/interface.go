package providers

import (
	"context"

	"github.com/synclinehq/syncline/models"
)

// Provider represents a unified contact provider interface. A provider can
// act as a sync source, a sync target, or both.
type Provider interface {
	// Name returns the provider name (e.g., "crm", "mailer")
	Name() string

	// ListContacts returns one page of contacts and the cursor for the next
	// page. An empty cursor means the listing is exhausted.
	ListContacts(ctx context.Context, cursor string, limit int) ([]*models.Contact, string, error)

	// UpsertContact creates or updates a contact on the provider and returns
	// the provider's identifier for it.
	UpsertContact(ctx context.Context, contact *models.Contact) (string, error)

	// IsAvailable checks if the provider is currently reachable
	IsAvailable(ctx context.Context) bool
}

// ProviderError represents an error from a provider
type ProviderError struct {
	// Provider that generated the error
	Provider string

	// Message is the error message
	Message string

	// StatusCode is the HTTP status code (if applicable)
	StatusCode int

	// Retryable indicates if the request can be retried
	Retryable bool

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap implements error unwrapping
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// NewProviderError creates a new provider error
func NewProviderError(provider, message string, statusCode int, retryable bool, cause error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  retryable,
		Cause:      cause,
	}
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if provErr, ok := err.(*ProviderError); ok {
		return provErr.Retryable
	}
	return false
}
