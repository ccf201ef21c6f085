package jwtx

import (
	"strings"
	"testing"
	"time"

	"github.com/forrrest/auth/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func newTestSigner(t *testing.T, kid string) Signer {
	t.Helper()

	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)

	signer, err := NewSignerEdDSA(kid, pemKey)
	require.NoError(t, err)
	return signer
}

func TestSignAndVerify(t *testing.T) {
	t.Parallel()

	signer := newTestSigner(t, "key-1")

	keys := NewKeySet()
	keys.AddSigner(signer)
	verifier := NewVerifier(keys, "test-issuer", []string{"test-aud"})

	now := time.Now().UTC()

	t.Run("round trips all four kinds", func(t *testing.T) {
		kinds := []TokenKind{KindUserAccess, KindUserRefresh, KindProfileAccess, KindProfileRefresh}

		for _, kind := range kinds {
			claims := NewClaims("subject", kind, time.Minute, "test-issuer", []string{"test-aud"}, "alice", "sid-1", now)

			token, err := signer.Sign(claims)
			require.NoError(t, err)

			got, err := verifier.Verify(token)
			require.NoError(t, err)
			require.Equal(t, kind, got.Kind)
			require.Equal(t, kind.Role(), got.Role)
			require.Equal(t, "subject", got.Subject)
			require.Equal(t, "sid-1", got.SID)
		}
	})

	t.Run("rejects tampered signature", func(t *testing.T) {
		claims := NewClaims("subject", KindUserAccess, time.Minute, "test-issuer", []string{"test-aud"}, "alice", "sid-1", now)
		token, err := signer.Sign(claims)
		require.NoError(t, err)

		parts := strings.Split(token, ".")
		require.Len(t, parts, 3)

		flipped := "A"
		if strings.HasSuffix(parts[2], "A") {
			flipped = "B"
		}
		parts[2] = parts[2][:len(parts[2])-1] + flipped

		_, err = verifier.Verify(strings.Join(parts, "."))
		require.ErrorIs(t, err, ErrInvalidSig)
	})

	t.Run("rejects unknown kid", func(t *testing.T) {
		other := newTestSigner(t, "key-2")

		claims := NewClaims("subject", KindUserAccess, time.Minute, "test-issuer", []string{"test-aud"}, "alice", "sid-1", now)
		token, err := other.Sign(claims)
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		require.ErrorIs(t, err, ErrUnknownKID)
	})

	t.Run("rejects wrong issuer", func(t *testing.T) {
		claims := NewClaims("subject", KindUserAccess, time.Minute, "other-issuer", []string{"test-aud"}, "alice", "sid-1", now)
		token, err := signer.Sign(claims)
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		require.ErrorIs(t, err, ErrIssuer)
	})

	t.Run("rejects audience mismatch", func(t *testing.T) {
		claims := NewClaims("subject", KindUserAccess, time.Minute, "test-issuer", []string{"someone-else"}, "alice", "sid-1", now)
		token, err := signer.Sign(claims)
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		require.ErrorIs(t, err, ErrAudience)
	})

	t.Run("rejects expired token", func(t *testing.T) {
		claims := NewClaims("subject", KindUserAccess, time.Minute, "test-issuer", []string{"test-aud"}, "alice", "sid-1", now.Add(-2*time.Minute))
		token, err := signer.Sign(claims)
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		require.ErrorIs(t, err, ErrExpired)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := verifier.Verify("not.a.jwt")
		require.ErrorIs(t, err, ErrMalformed)
	})
}

func TestClaimsExpiryBoundary(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC().Truncate(time.Second)
	claims := NewClaims("subject", KindUserAccess, time.Minute, "iss", nil, "alice", "sid", now)

	t.Run("valid strictly before expiry", func(t *testing.T) {
		require.NoError(t, claims.ValidateExpiryAt(now.Add(59*time.Second)))
	})

	t.Run("expired exactly at expiry instant", func(t *testing.T) {
		require.ErrorIs(t, claims.ValidateExpiryAt(now.Add(time.Minute)), ErrExpired)
	})

	t.Run("expired after expiry", func(t *testing.T) {
		require.ErrorIs(t, claims.ValidateExpiryAt(now.Add(2*time.Minute)), ErrExpired)
	})

	t.Run("not yet valid before nbf", func(t *testing.T) {
		require.ErrorIs(t, claims.ValidateExpiryAt(now.Add(-time.Second)), ErrNotYetValid)
	})
}

func TestPolicy(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		p := DefaultPolicy()
		require.Equal(t, DefaultAccessTokenTTL, p.TTL(KindUserAccess))
		require.Equal(t, DefaultRefreshTokenTTL, p.TTL(KindUserRefresh))
		require.Equal(t, DefaultAccessTokenTTL, p.TTL(KindProfileAccess))
		require.Equal(t, DefaultRefreshTokenTTL, p.TTL(KindProfileRefresh))
	})

	t.Run("overrides merge over defaults", func(t *testing.T) {
		p := NewPolicy(map[TokenKind]time.Duration{KindUserAccess: 5 * time.Minute})
		require.Equal(t, 5*time.Minute, p.TTL(KindUserAccess))
		require.Equal(t, DefaultRefreshTokenTTL, p.TTL(KindUserRefresh))
	})

	t.Run("ignores invalid kinds and non-positive ttls", func(t *testing.T) {
		p := NewPolicy(map[TokenKind]time.Duration{
			TokenKind("BOGUS"): time.Hour,
			KindUserAccess:     -1,
		})
		require.Equal(t, DefaultAccessTokenTTL, p.TTL(KindUserAccess))
	})
}

func TestTokenKind(t *testing.T) {
	t.Parallel()

	require.True(t, KindUserRefresh.Refreshable())
	require.True(t, KindProfileRefresh.Refreshable())
	require.False(t, KindUserAccess.Refreshable())
	require.False(t, KindProfileAccess.Refreshable())

	require.Equal(t, RoleUser, KindUserAccess.Role())
	require.Equal(t, RoleUser, KindUserRefresh.Role())
	require.Equal(t, RoleProfile, KindProfileAccess.Role())
	require.Equal(t, RoleProfile, KindProfileRefresh.Role())

	require.False(t, TokenKind("BOGUS").Valid())
}
