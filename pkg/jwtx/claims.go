package jwtx

import (
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the claim set shared by all four token kinds and the encrypted
// transfer tokens. Additive changes only, downstream services decode these.
type Claims struct {
	jwt.RegisteredClaims

	// Kind discriminates USER_ACCESS / USER_REFRESH / PROFILE_ACCESS /
	// PROFILE_REFRESH.
	Kind TokenKind `json:"tkn,omitempty"`

	// Role is "USER" for principal-scoped tokens and "PROFILE" for
	// profile-scoped ones.
	Role string `json:"role,omitempty"`

	// Username is the principal's display name.
	Username string `json:"username,omitempty"`

	// ProfileID carries the numeric profile identifier on profile-scoped and
	// transfer tokens.
	ProfileID int64 `json:"profile_id,omitempty"`

	// SID correlates the principal pair and the profile pair of one session.
	SID string `json:"sid,omitempty"`
}

// NewClaims builds a minimally-correct claim set for the given kind. The
// caller supplies now so the four tokens of a session share one issuance
// instant.
func NewClaims(
	subject string,
	kind TokenKind,
	ttl time.Duration,
	issuer string,
	audience []string,
	username, sid string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings(audience),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Kind:     kind,
		Role:     kind.Role(),
		Username: username,
		SID:      sid,
	}
}

// ValidateIssuer checks the issuer claim against the expected value.
// An empty expected issuer enforces nothing.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected != "" && c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateAudience checks that at least one expected audience is present.
// An empty expectation enforces nothing.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil
	}

	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}

	return ErrAudience
}

// ValidateExpiry rejects expired and not-yet-valid tokens. The expiry
// boundary is inclusive: a token with exp equal to the current instant is
// already expired.
func (c *Claims) ValidateExpiry() error {
	return c.ValidateExpiryAt(time.Now().UTC())
}

// ValidateExpiryAt is ValidateExpiry against a caller-supplied clock.
func (c *Claims) ValidateExpiryAt(now time.Time) error {
	if c.ExpiresAt != nil && !now.Before(c.ExpiresAt.Time) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}
	return nil
}
