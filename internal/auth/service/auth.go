package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/forrrest/auth/internal/auth/domain"
	"github.com/forrrest/auth/internal/auth/store"
	"github.com/forrrest/auth/pkg/jwtx"
	"github.com/forrrest/auth/pkg/slogx"
)

// AuthService orchestrates the account and session flows. It owns no state
// of its own; everything is delegated to the focused services below.
type AuthService struct {
	Users      *UserService
	Profiles   *ProfileService
	Tokens     *TokenService
	Validation *ValidationService
}

// Signup registers a new account. The default profile is created alongside
// it; tokens are not issued until the first login.
func (s *AuthService) Signup(ctx context.Context, email, username, password string) (domain.User, domain.Profile, error) {
	return s.Users.Register(ctx, email, username, password)
}

// Login checks credentials and mints a session bundle scoped to the
// principal's default profile.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.AuthBundle, error) {
	user, err := s.Users.VerifyCredentials(ctx, email, password)
	if err != nil {
		return domain.AuthBundle{}, err
	}

	profile, err := s.Profiles.GetDefaultProfile(ctx, user.Email)
	if err != nil {
		return domain.AuthBundle{}, err
	}

	return s.Tokens.IssueBundle(ctx, user, profile)
}

// Refresh exchanges a live user-refresh token for a fresh bundle. The new
// bundle is scoped to profileID when given, and to the default profile
// otherwise. The reuse check and the rotation write run in one transaction:
// two interleaved refreshes with the same token cannot both mint a bundle.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, profileID *int64) (domain.AuthBundle, error) {
	var (
		bundle domain.AuthBundle
		claims jwtx.Claims
	)

	err := s.Tokens.Store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		claims, err = s.Validation.checkUserRefresh(ctx, tx, refreshToken)
		if err != nil {
			return err
		}

		user, err := s.Users.getUserByEmail(ctx, tx, claims.Subject)
		if err != nil {
			return err
		}

		var profile domain.Profile
		if profileID != nil {
			profile, err = s.Profiles.getProfile(ctx, tx, user.Email, *profileID)
		} else {
			profile, err = s.Profiles.getDefaultProfile(ctx, tx, user.Email)
		}
		if err != nil {
			return err
		}

		bundle, err = s.Tokens.issueBundle(ctx, tx, user, profile)
		return err
	})
	if errors.Is(err, errRefreshReuse) {
		// Revoke after the rolled-back transaction has released its locks.
		return domain.AuthBundle{}, s.Validation.revokeSession(ctx, claims)
	}
	if err != nil {
		return domain.AuthBundle{}, err
	}

	return bundle, nil
}

// SelectProfile re-scopes the caller's session to another of their
// profiles. The principal pair rotates too, so switching profiles also
// invalidates the old refresh token.
func (s *AuthService) SelectProfile(ctx context.Context, email string, profileID int64) (domain.AuthBundle, error) {
	user, err := s.Users.GetUserByEmail(ctx, email)
	if err != nil {
		return domain.AuthBundle{}, err
	}

	profile, err := s.Profiles.GetProfile(ctx, user.Email, profileID)
	if err != nil {
		return domain.AuthBundle{}, err
	}

	return s.Tokens.IssueBundle(ctx, user, profile)
}

// TransferProfile mints an encrypted token the caller can hand to the
// external audience as proof of the selected profile.
func (s *AuthService) TransferProfile(ctx context.Context, email string, profileID int64) (string, time.Duration, error) {
	user, err := s.Users.GetUserByEmail(ctx, email)
	if err != nil {
		return "", 0, err
	}

	profile, err := s.Profiles.GetProfile(ctx, user.Email, profileID)
	if err != nil {
		return "", 0, err
	}

	return s.Tokens.IssueProfileTransferToken(ctx, user, profile)
}

// Logout ends the principal's session server-side by dropping the stored
// refresh fingerprint. Access tokens already in the wild ride out their
// short TTL.
func (s *AuthService) Logout(ctx context.Context, email string) error {
	if err := s.Tokens.Store.RefreshTokens().DeleteByEmail(ctx, email); err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("session revoked", slog.String("email", email))
	return nil
}

// ValidateInboundToken verifies any first-party token presented to the
// introspection endpoint.
func (s *AuthService) ValidateInboundToken(ctx context.Context, token string) (jwtx.Claims, error) {
	return s.Validation.Validate(ctx, token, "")
}
