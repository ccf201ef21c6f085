package sqlite

import (
	"context"
	"time"

	"github.com/forrrest/auth/internal/auth/domain"
)

type usersRepo struct {
	q querier
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := time.Now().UTC()
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO users (id, email, username, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Username, u.PasswordHash, now, now,
	)
	return mapConstraint(err)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, email, username, password_hash, created_at, updated_at
		FROM users WHERE email = ?`,
		email,
	)

	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	row := r.q.QueryRowContext(ctx, `SELECT COUNT(1) FROM users WHERE email = ?`, email)

	var n int64
	if err := row.Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *usersRepo) DeleteUser(ctx context.Context, email string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM users WHERE email = ?`, email)
	return err
}
