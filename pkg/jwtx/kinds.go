package jwtx

import "time"

// TokenKind identifies which of the four session tokens a claim set belongs
// to. Every session carries a principal-scoped pair and a profile-scoped
// pair, minted together.
type TokenKind string

const (
	KindUserAccess     TokenKind = "USER_ACCESS"
	KindUserRefresh    TokenKind = "USER_REFRESH"
	KindProfileAccess  TokenKind = "PROFILE_ACCESS"
	KindProfileRefresh TokenKind = "PROFILE_REFRESH"
)

// Role claim values. USER marks principal-scoped tokens, PROFILE marks
// profile-scoped ones.
const (
	RoleUser    = "USER"
	RoleProfile = "PROFILE"
)

// Default token TTLs. Short-lived access tokens, longer refresh tokens;
// each kind can be overridden independently via Policy.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Valid reports whether k is one of the four known kinds.
func (k TokenKind) Valid() bool {
	switch k {
	case KindUserAccess, KindUserRefresh, KindProfileAccess, KindProfileRefresh:
		return true
	}
	return false
}

// Refreshable reports whether tokens of this kind may be exchanged through
// the refresh flow. Only *_REFRESH kinds qualify.
func (k TokenKind) Refreshable() bool {
	return k == KindUserRefresh || k == KindProfileRefresh
}

// Role returns the canonical role claim embedded in tokens of this kind.
func (k TokenKind) Role() string {
	switch k {
	case KindProfileAccess, KindProfileRefresh:
		return RoleProfile
	default:
		return RoleUser
	}
}

// Policy is the static per-kind token configuration. It has no state beyond
// the configured TTLs.
type Policy struct {
	ttls map[TokenKind]time.Duration
}

// NewPolicy builds a Policy from explicit per-kind TTLs. Kinds missing from
// the map fall back to the defaults.
func NewPolicy(ttls map[TokenKind]time.Duration) Policy {
	merged := map[TokenKind]time.Duration{
		KindUserAccess:     DefaultAccessTokenTTL,
		KindUserRefresh:    DefaultRefreshTokenTTL,
		KindProfileAccess:  DefaultAccessTokenTTL,
		KindProfileRefresh: DefaultRefreshTokenTTL,
	}
	for k, ttl := range ttls {
		if k.Valid() && ttl > 0 {
			merged[k] = ttl
		}
	}
	return Policy{ttls: merged}
}

// DefaultPolicy returns a Policy carrying only the default TTLs.
func DefaultPolicy() Policy {
	return NewPolicy(nil)
}

// TTL returns the configured time-to-live for the given kind.
func (p Policy) TTL(kind TokenKind) time.Duration {
	if p.ttls == nil {
		p = DefaultPolicy()
	}
	return p.ttls[kind]
}
