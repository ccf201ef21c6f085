package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/forrrest/auth/internal/auth/domain"
	"github.com/forrrest/auth/internal/auth/store"
	"github.com/forrrest/auth/pkg/cryptox"
	"github.com/forrrest/auth/pkg/idx"
	"github.com/forrrest/auth/pkg/slogx"
)

type UserService struct {
	Store store.Store
}

// Register creates a new user together with their default profile. Both
// inserts happen in one transaction so a user can never exist without a
// profile to act through.
func (s *UserService) Register(ctx context.Context, email, username, password string) (domain.User, domain.Profile, error) {
	l := slogx.FromContext(ctx)

	email = strings.TrimSpace(strings.ToLower(email))
	username = strings.TrimSpace(username)
	if email == "" || username == "" || password == "" {
		return domain.User{}, domain.Profile{}, ErrInvalidInput
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.User{}, domain.Profile{}, ErrInvalidInput
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, domain.Profile{}, err
	}

	user := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		Username:     username,
		PasswordHash: hash,
	}

	var profile domain.Profile

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrEmailDuplication
			}
			return err
		}

		id, err := tx.Profiles().CreateProfile(ctx, domain.Profile{
			UserEmail: email,
			Name:      domain.DefaultProfileName,
			Default:   true,
		})
		if err != nil {
			return err
		}

		profile, err = tx.Profiles().GetProfile(ctx, email, id)
		return err
	})
	if err != nil {
		return domain.User{}, domain.Profile{}, err
	}

	l.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("email", email),
	)

	return user, profile, nil
}

// GetUserByEmail loads a user, mapping store misses to the service sentinel.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.getUserByEmail(ctx, s.Store, email)
}

func (s *UserService) getUserByEmail(ctx context.Context, st store.Store, email string) (domain.User, error) {
	user, err := st.Users().GetUserByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

// VerifyCredentials checks a password against the stored argon2id hash and
// returns the user on success.
func (s *UserService) VerifyCredentials(ctx context.Context, email, password string) (domain.User, error) {
	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return domain.User{}, err
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		return domain.User{}, ErrInvalidPassword
	}

	return user, nil
}

// DeleteUser removes the account. Profiles and the refresh record cascade.
func (s *UserService) DeleteUser(ctx context.Context, email string) error {
	if _, err := s.GetUserByEmail(ctx, email); err != nil {
		return err
	}
	return s.Store.Users().DeleteUser(ctx, strings.TrimSpace(strings.ToLower(email)))
}
