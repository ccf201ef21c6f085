package service

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/forrrest/auth/internal/auth/domain"
	"github.com/forrrest/auth/internal/auth/store"
	"github.com/forrrest/auth/pkg/cryptox"
	"github.com/forrrest/auth/pkg/idx"
	"github.com/forrrest/auth/pkg/jwtx"
	"github.com/forrrest/auth/pkg/slogx"
)

// TokenType is the token_type value returned with every pair.
const TokenType = "Bearer"

type TokenService struct {
	Signer   jwtx.Signer
	Store    store.Store
	Issuer   string
	Audience []string // audiences stamped into first-party tokens
	Policy   jwtx.Policy

	// Encrypter wraps profile claims for the external audience. Nil when no
	// external audience is configured; IssueProfileTransferToken then fails.
	Encrypter        *jwtx.Encrypter
	ExternalAudience string
	TransferTokenTTL time.Duration
}

// IssueBundle mints the four session tokens, one principal pair and one
// profile pair, sharing a single issuance instant and session id. The
// fingerprint of the user-refresh token is upserted before the bundle is
// returned, so by the time the client holds the tokens the previous
// session credential is already dead.
func (s *TokenService) IssueBundle(ctx context.Context, user domain.User, profile domain.Profile) (domain.AuthBundle, error) {
	return s.issueBundle(ctx, s.Store, user, profile)
}

// issueBundle writes the rotation through st so refresh can pair it with the
// reuse check in one transaction.
func (s *TokenService) issueBundle(ctx context.Context, st store.Store, user domain.User, profile domain.Profile) (domain.AuthBundle, error) {
	l := slogx.FromContext(ctx)

	now := time.Now().UTC()
	sid := idx.New().String()

	userPair, userRefreshFP, err := s.issuePair(user, profile, jwtx.KindUserAccess, jwtx.KindUserRefresh, sid, now)
	if err != nil {
		return domain.AuthBundle{}, err
	}

	profilePair, _, err := s.issuePair(user, profile, jwtx.KindProfileAccess, jwtx.KindProfileRefresh, sid, now)
	if err != nil {
		return domain.AuthBundle{}, err
	}

	expiresAt := now.Add(s.Policy.TTL(jwtx.KindUserRefresh))
	if err := st.RefreshTokens().Upsert(ctx, user.Email, userRefreshFP, expiresAt); err != nil {
		return domain.AuthBundle{}, err
	}

	l.Info("session issued",
		slog.String("email", user.Email),
		slog.Int64("profile_id", profile.ID),
		slog.String("sid", sid),
	)

	return domain.AuthBundle{
		UserToken:    userPair,
		ProfileToken: profilePair,
		Profile:      profile,
	}, nil
}

// issuePair signs one access/refresh pair and returns the refresh token's
// fingerprint alongside it.
func (s *TokenService) issuePair(
	user domain.User,
	profile domain.Profile,
	accessKind, refreshKind jwtx.TokenKind,
	sid string,
	now time.Time,
) (domain.TokenInfo, string, error) {
	subject := user.Email
	if accessKind.Role() == jwtx.RoleProfile {
		subject = strconv.FormatInt(profile.ID, 10)
	}

	accessTTL := s.Policy.TTL(accessKind)
	refreshTTL := s.Policy.TTL(refreshKind)

	accessClaims := jwtx.NewClaims(subject, accessKind, accessTTL, s.Issuer, s.Audience, user.Username, sid, now)
	refreshClaims := jwtx.NewClaims(subject, refreshKind, refreshTTL, s.Issuer, s.Audience, user.Username, sid, now)

	if accessKind.Role() == jwtx.RoleProfile {
		accessClaims.ProfileID = profile.ID
		refreshClaims.ProfileID = profile.ID
	}

	access, err := s.Signer.Sign(accessClaims)
	if err != nil {
		return domain.TokenInfo{}, "", err
	}

	refresh, err := s.Signer.Sign(refreshClaims)
	if err != nil {
		return domain.TokenInfo{}, "", err
	}

	return domain.TokenInfo{
		AccessToken:      access,
		RefreshToken:     refresh,
		TokenType:        TokenType,
		ExpiresIn:        accessTTL,
		RefreshExpiresIn: refreshTTL,
	}, cryptox.FingerprintToken(refresh), nil
}

// IssueProfileTransferToken mints an encrypted profile token for the
// configured external audience. Only the external service's private key can
// read the claims inside.
func (s *TokenService) IssueProfileTransferToken(ctx context.Context, user domain.User, profile domain.Profile) (string, time.Duration, error) {
	if s.Encrypter == nil {
		return "", 0, ErrInvalidInput
	}

	ttl := s.TransferTokenTTL
	if ttl <= 0 {
		ttl = s.Policy.TTL(jwtx.KindProfileAccess)
	}

	now := time.Now().UTC()
	claims := jwtx.NewClaims(
		strconv.FormatInt(profile.ID, 10),
		jwtx.KindProfileAccess,
		ttl,
		s.Issuer,
		[]string{s.ExternalAudience},
		user.Username,
		idx.New().String(),
		now,
	)
	claims.ProfileID = profile.ID

	token, err := s.Encrypter.Encrypt(claims)
	if err != nil {
		return "", 0, err
	}

	slogx.FromContext(ctx).Info("transfer token issued",
		slog.Int64("profile_id", profile.ID),
		slog.String("audience", s.ExternalAudience),
	)

	return token, ttl, nil
}
