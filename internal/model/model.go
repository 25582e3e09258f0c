// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Tokens collects issued access/refresh tokens (refresh optional).
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time // access token expiry (for diagnostics)
}

// Session is the result of any successful login path.
type Session struct {
	Tokens Tokens
	User   User // sanitized, never carries a secret
}

// FederatedIdentity is a verified assertion from an external identity provider.
type FederatedIdentity struct {
	Issuer  string
	Subject string
	Name    string
	Phone   string // optional
}

// LoginCode is a pending one-time code bound to a contact address.
type LoginCode struct {
	Contact   string
	CodeHash  []byte // sha256(code); the plain code is never stored
	ExpiresAt time.Time
	Attempts  int
}

// Principal is the authenticated caller extracted from an access token.
type Principal struct {
	UserID uuid.UUID
	Role   Role
}
