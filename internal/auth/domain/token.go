package domain

import "time"

// TokenInfo is one access/refresh pair with its expiry metadata.
type TokenInfo struct {
	AccessToken      string        `json:"access_token"`
	RefreshToken     string        `json:"refresh_token"`
	TokenType        string        `json:"token_type"` // "Bearer"
	ExpiresIn        time.Duration `json:"expires_in"` // access-token lifetime
	RefreshExpiresIn time.Duration `json:"refresh_expires_in"`
}

// AuthBundle is what every successful login/refresh/select returns: the
// principal pair, the profile pair, and the profile the latter is scoped to.
// Both pairs share one issuance instant.
type AuthBundle struct {
	UserToken    TokenInfo `json:"user_token"`
	ProfileToken TokenInfo `json:"profile_token"`
	Profile      Profile   `json:"profile"`
}

// RefreshTokenRecord is the only persisted token artifact: one row per
// principal holding the fingerprint of the currently valid user-refresh
// token. A new login or refresh overwrites it, which is what invalidates
// the previous session credential.
type RefreshTokenRecord struct {
	Email     string
	TokenHash string // SHA-256 fingerprint, never the raw token
	ExpiresAt time.Time
	UpdatedAt time.Time
}
