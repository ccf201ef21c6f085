package sqlite

import (
	"context"
	"time"

	"github.com/forrrest/auth/internal/auth/domain"
)

type refreshTokensRepo struct {
	q querier
}

// Upsert stores the fingerprint of the latest refresh token for email,
// replacing any previous one. A single row per principal means rotation
// and replay detection fall out of the same write.
func (r *refreshTokensRepo) Upsert(ctx context.Context, email, tokenHash string, expiresAt time.Time) error {
	now := time.Now().UTC()
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO refresh_tokens (email, token_hash, expires_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET
			token_hash = excluded.token_hash,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`,
		email, tokenHash, expiresAt.UTC(), now,
	)
	return err
}

func (r *refreshTokensRepo) Exists(ctx context.Context, tokenHash string) (bool, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM refresh_tokens WHERE token_hash = ?`,
		tokenHash,
	)

	var n int64
	if err := row.Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *refreshTokensRepo) FindByToken(ctx context.Context, tokenHash string) (domain.RefreshTokenRecord, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT email, token_hash, expires_at, updated_at
		FROM refresh_tokens WHERE token_hash = ?`,
		tokenHash,
	)

	var rec domain.RefreshTokenRecord
	err := row.Scan(&rec.Email, &rec.TokenHash, &rec.ExpiresAt, &rec.UpdatedAt)
	if err != nil {
		return domain.RefreshTokenRecord{}, mapNotFound(err)
	}
	return rec, nil
}

func (r *refreshTokensRepo) DeleteByEmail(ctx context.Context, email string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE email = ?`, email)
	return err
}
