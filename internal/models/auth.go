package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the payload of an access token. The subject is always the
// account ID, never the username.
type TokenClaims struct {
	CredentialVersion int `json:"ver,omitempty"`
	jwt.RegisteredClaims
}

// Principal is the authenticated identity resolved from a valid token.
type Principal struct {
	AccountID         string
	TokenID           string
	CredentialVersion int
	IssuedAt          time.Time
	ExpiresAt         time.Time
}
