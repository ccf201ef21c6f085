package sqlite

import (
	"context"
	"time"

	"github.com/forrrest/auth/internal/auth/domain"
	"github.com/forrrest/auth/internal/auth/store"
)

type profilesRepo struct {
	q querier
}

func (r *profilesRepo) CreateProfile(ctx context.Context, p domain.Profile) (int64, error) {
	now := time.Now().UTC()
	res, err := r.q.ExecContext(ctx, `
		INSERT INTO profiles (user_email, name, is_default, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		p.UserEmail, p.Name, p.Default, now, now,
	)
	if err != nil {
		return 0, mapConstraint(err)
	}
	return res.LastInsertId()
}

func (r *profilesRepo) GetProfile(ctx context.Context, ownerEmail string, id int64) (domain.Profile, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, user_email, name, is_default, created_at, updated_at
		FROM profiles WHERE id = ? AND user_email = ?`,
		id, ownerEmail,
	)
	return scanProfile(row)
}

func (r *profilesRepo) GetDefaultProfile(ctx context.Context, ownerEmail string) (domain.Profile, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, user_email, name, is_default, created_at, updated_at
		FROM profiles WHERE user_email = ? AND is_default = 1`,
		ownerEmail,
	)
	return scanProfile(row)
}

func (r *profilesRepo) ListProfiles(ctx context.Context, ownerEmail string) ([]domain.Profile, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, user_email, name, is_default, created_at, updated_at
		FROM profiles WHERE user_email = ?
		ORDER BY is_default DESC, id ASC`,
		ownerEmail,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Profile
	for rows.Next() {
		var p domain.Profile
		if err := rows.Scan(&p.ID, &p.UserEmail, &p.Name, &p.Default, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *profilesRepo) ExistsByName(ctx context.Context, ownerEmail, name string) (bool, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM profiles WHERE user_email = ? AND name = ?`,
		ownerEmail, name,
	)

	var n int64
	if err := row.Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *profilesRepo) DeleteProfile(ctx context.Context, ownerEmail string, id int64) error {
	res, err := r.q.ExecContext(ctx, `
		DELETE FROM profiles WHERE id = ? AND user_email = ?`,
		id, ownerEmail,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (domain.Profile, error) {
	var p domain.Profile
	err := row.Scan(&p.ID, &p.UserEmail, &p.Name, &p.Default, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Profile{}, mapNotFound(err)
	}
	return p, nil
}
