package identity

import (
	"time"

	"github.com/google/uuid"
)

// User represents the immutable identity held by a session.
type User struct {
	ID               uuid.UUID              `json:"id"`
	Aud              string                 `json:"aud,omitempty"`
	Email            string                 `json:"email"`
	Role             string                 `json:"role,omitempty"`
	EmailConfirmedAt *time.Time             `json:"email_confirmed_at,omitempty"`
	Metadata         map[string]interface{} `json:"user_metadata,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// Session represents an authenticated principal: the user plus the tokens
// issued by the identity platform. Expiry handling is the platform's
// responsibility; ExpiresAt is carried for cookie lifetimes only.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	User         *User  `json:"user"`
}

// UserAttributes holds the mutable fields of a user accepted by the
// platform's update-user endpoint.
type UserAttributes struct {
	Email    string                 `json:"email,omitempty"`
	Password string                 `json:"password,omitempty"`
	Metadata map[string]interface{} `json:"data,omitempty"`
}
