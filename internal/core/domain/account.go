package domain

import "time"

// Profile holds the locally-owned fields the identity provider does not
// manage. It lives embedded in its Account: created with it, destroyed
// with it.
type Profile struct {
	ProviderID  string `json:"provider_id,omitempty" bson:"provider_id,omitempty"`
	MFAEnabled  bool   `json:"mfa_enabled" bson:"mfa_enabled"`
	PhoneNumber string `json:"phone_number,omitempty" bson:"phone_number,omitempty"`
}

// Account is the local mirror of an identity-provider user. PasswordHash is
// empty for accounts created on first token verification: those exist only
// to mirror a remote identity.
type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	Active       bool      `json:"active"`
	Superuser    bool      `json:"superuser"`
	Profile      Profile   `json:"profile"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TokenPair is what the identity provider returns for a password grant,
// forwarded to the client verbatim.
type TokenPair struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

// UserInfo is the subset of the provider's introspection response the
// service relies on.
type UserInfo struct {
	PreferredUsername string `json:"preferred_username"`
	Email             string `json:"email"`
}
