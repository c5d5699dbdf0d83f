package middleware

import (
	"context"

	"github.com/google/uuid"
	"github.com/synclinehq/syncline/identity"
)

// Context key type to avoid collisions
type contextKey string

const (
	// ClaimsKey is the context key for validated token claims
	ClaimsKey contextKey = "claims"

	// UserIDKey is the context key for the authenticated user ID
	UserIDKey contextKey = "user_id"
)

// GetClaimsFromContext retrieves validated token claims from context
func GetClaimsFromContext(ctx context.Context) *identity.ParsedClaims {
	if val := ctx.Value(ClaimsKey); val != nil {
		if claims, ok := val.(*identity.ParsedClaims); ok {
			return claims
		}
	}
	return nil
}

// WithClaims adds validated token claims to the context
func WithClaims(ctx context.Context, claims *identity.ParsedClaims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// GetUserIDFromContext retrieves the authenticated user ID from context
func GetUserIDFromContext(ctx context.Context) uuid.UUID {
	if val := ctx.Value(UserIDKey); val != nil {
		if userID, ok := val.(uuid.UUID); ok {
			return userID
		}
	}
	return uuid.Nil
}

// WithUserID adds the authenticated user ID to the context
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}
