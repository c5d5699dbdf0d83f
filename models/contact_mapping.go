package models

import (
	"time"

	"github.com/google/uuid"
)

// ContactMapping links a contact's identity on the source provider to its
// identity on the target provider. The checksum is the digest of the contact
// as last pushed; an unchanged checksum makes the next sync skip the record.
type ContactMapping struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Source       string    `json:"source" db:"source"`
	SourceID     string    `json:"source_id" db:"source_id"`
	Target       string    `json:"target" db:"target"`
	TargetID     string    `json:"target_id" db:"target_id"`
	Email        string    `json:"email" db:"email"`
	Checksum     string    `json:"checksum" db:"checksum"`
	LastSyncedAt time.Time `json:"last_synced_at" db:"last_synced_at"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the ContactMapping model
func (ContactMapping) TableName() string {
	return "contact_mappings"
}

// NewContactMapping creates a mapping for a contact just pushed to the target
func NewContactMapping(source, sourceID, target, targetID string, contact *Contact) *ContactMapping {
	now := time.Now().UTC()
	return &ContactMapping{
		ID:           uuid.New(),
		Source:       source,
		SourceID:     sourceID,
		Target:       target,
		TargetID:     targetID,
		Email:        contact.NormalizedEmail(),
		Checksum:     contact.Checksum(),
		LastSyncedAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Touch records a fresh push of the contact with a new checksum
func (m *ContactMapping) Touch(checksum string) {
	now := time.Now().UTC()
	m.Checksum = checksum
	m.LastSyncedAt = now
	m.UpdatedAt = now
}
