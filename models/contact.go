package models

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

// Contact is a provider-neutral contact record. Providers map their own
// payloads onto this shape; the sync engine never sees provider wire formats.
type Contact struct {
	ID         string            `json:"id"`
	Email      string            `json:"email" validate:"required,email"`
	FirstName  string            `json:"first_name,omitempty"`
	LastName   string            `json:"last_name,omitempty"`
	Phone      string            `json:"phone,omitempty"`
	Company    string            `json:"company,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// NormalizedEmail returns the email lowercased and trimmed. Matching across
// providers keys on this form.
func (c *Contact) NormalizedEmail() string {
	return strings.ToLower(strings.TrimSpace(c.Email))
}

// Checksum returns a stable digest of the contact's synced fields. Two
// contacts with equal checksums need no update on the target side. Each
// field is terminated with a NUL so adjacent fields cannot blur together
// ("ab"+"c" must not hash like "a"+"bc").
func (c *Contact) Checksum() string {
	h := sha256.New()
	writeField := func(s string) {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}

	writeField(c.NormalizedEmail())
	writeField(c.FirstName)
	writeField(c.LastName)
	writeField(c.Phone)
	writeField(c.Company)

	keys := make([]string, 0, len(c.Attributes))
	for k := range c.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		writeField(k)
		writeField(c.Attributes[k])
	}

	return hex.EncodeToString(h.Sum(nil))
}
