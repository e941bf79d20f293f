package models

import (
	"time"
)

// Account is the credential view of a user record consumed by the auth gateway.
type Account struct {
	ID                string // Stable identifier bound into tokens; survives renames
	Username          string
	Email             string
	PasswordHash      string
	IsActive          bool
	CredentialVersion int // Incremented on password change
	LastLoginAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
