package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/forrrest/auth/internal/auth/store"
	"github.com/forrrest/auth/pkg/cryptox"
	"github.com/forrrest/auth/pkg/jwtx"
	"github.com/forrrest/auth/pkg/slogx"
)

// errRefreshReuse marks a well-signed refresh token whose fingerprint no
// longer matches the stored record. Internal only; callers surface it as
// ErrInvalidToken after revoking the session.
var errRefreshReuse = errors.New("refresh_token_reuse")

type ValidationService struct {
	Verifier *jwtx.Verifier
	Store    store.Store

	// Decrypter unwraps transfer tokens when this deployment holds the
	// external audience's private key. Nil otherwise.
	Decrypter *jwtx.Decrypter

	// ExternalAudience is the audience transfer tokens must carry to be
	// accepted back. Empty enforces nothing.
	ExternalAudience string
}

// Validate verifies a signed token and, when expected is non-empty, pins its
// kind. Expiry surfaces as ErrExpiredToken; every other failure collapses
// into ErrInvalidToken.
func (s *ValidationService) Validate(ctx context.Context, token string, expected jwtx.TokenKind) (jwtx.Claims, error) {
	claims, err := s.Verifier.Verify(token)
	if err != nil {
		return jwtx.Claims{}, mapTokenError(err)
	}

	if expected != "" && claims.Kind != expected {
		return jwtx.Claims{}, ErrInvalidToken
	}

	return claims, nil
}

// ValidateUserRefresh verifies a user-refresh token against both its
// signature and the stored fingerprint. A well-signed token whose
// fingerprint no longer matches the principal's record has been rotated
// away, which means either the client replayed an old token or someone else
// used the session first. Either way the whole session is revoked.
func (s *ValidationService) ValidateUserRefresh(ctx context.Context, token string) (jwtx.Claims, error) {
	claims, err := s.checkUserRefresh(ctx, s.Store, token)
	if errors.Is(err, errRefreshReuse) {
		return jwtx.Claims{}, s.revokeSession(ctx, claims)
	}
	if err != nil {
		return jwtx.Claims{}, err
	}
	return claims, nil
}

// checkUserRefresh runs the signature and fingerprint checks against st,
// which may be a transaction when the caller pairs the check with a rotation
// write. Reuse comes back as errRefreshReuse together with the claims so the
// caller can revoke once its transaction is done.
func (s *ValidationService) checkUserRefresh(ctx context.Context, st store.Store, token string) (jwtx.Claims, error) {
	claims, err := s.Validate(ctx, token, jwtx.KindUserRefresh)
	if err != nil {
		return jwtx.Claims{}, err
	}

	ok, err := st.RefreshTokens().Exists(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		return jwtx.Claims{}, err
	}
	if !ok {
		return claims, errRefreshReuse
	}

	return claims, nil
}

// revokeSession drops whatever session the principal still has and returns
// the error the caller should surface. Runs on the pool store so the
// revocation sticks even when a surrounding transaction rolled back.
func (s *ValidationService) revokeSession(ctx context.Context, claims jwtx.Claims) error {
	if err := s.Store.RefreshTokens().DeleteByEmail(ctx, claims.Subject); err != nil {
		return err
	}

	slogx.FromContext(ctx).Warn("refresh token reuse detected, session revoked",
		slog.String("email", claims.Subject),
		slog.String("sid", claims.SID),
	)
	return ErrInvalidToken
}

// ValidateTransferToken checks an encrypted profile token. Without the
// recipient's private key only the structure and header can be checked;
// with it the claims are decrypted and validated like any other token.
func (s *ValidationService) ValidateTransferToken(ctx context.Context, token string) (jwtx.Claims, error) {
	if s.Decrypter == nil {
		if _, err := jwtx.ParseEncrypted(token); err != nil {
			return jwtx.Claims{}, ErrInvalidToken
		}
		return jwtx.Claims{}, nil
	}

	claims, err := s.Decrypter.Decrypt(token)
	if err != nil {
		return jwtx.Claims{}, ErrInvalidToken
	}

	// A token minted for some other recipient is not ours to accept.
	if s.ExternalAudience != "" {
		if err := claims.ValidateAudience([]string{s.ExternalAudience}); err != nil {
			return jwtx.Claims{}, ErrInvalidToken
		}
	}

	if err := claims.ValidateExpiry(); err != nil {
		return jwtx.Claims{}, mapTokenError(err)
	}

	return claims, nil
}

// mapTokenError folds jwtx sentinels into the two service-level token
// errors. Only expiry is distinguishable from the outside.
func mapTokenError(err error) error {
	if errors.Is(err, jwtx.ErrExpired) {
		return ErrExpiredToken
	}
	return ErrInvalidToken
}
