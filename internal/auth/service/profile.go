package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/forrrest/auth/internal/auth/domain"
	"github.com/forrrest/auth/internal/auth/store"
	"github.com/forrrest/auth/pkg/slogx"
)

type ProfileService struct {
	Store store.Store
}

// CreateProfile adds a named profile to the owner's account. Names are
// unique per owner.
func (s *ProfileService) CreateProfile(ctx context.Context, ownerEmail, name string) (domain.Profile, error) {
	l := slogx.FromContext(ctx)

	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Profile{}, ErrInvalidInput
	}

	var profile domain.Profile

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		id, err := tx.Profiles().CreateProfile(ctx, domain.Profile{
			UserEmail: ownerEmail,
			Name:      name,
		})
		if err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrProfileDuplication
			}
			return err
		}

		profile, err = tx.Profiles().GetProfile(ctx, ownerEmail, id)
		return err
	})
	if err != nil {
		return domain.Profile{}, err
	}

	l.Info("profile created",
		slog.Int64("profile_id", profile.ID),
		slog.String("email", ownerEmail),
	)

	return profile, nil
}

// GetProfile returns the profile only when the caller owns it. Someone
// else's profile id looks exactly like a missing one.
func (s *ProfileService) GetProfile(ctx context.Context, ownerEmail string, id int64) (domain.Profile, error) {
	return s.getProfile(ctx, s.Store, ownerEmail, id)
}

func (s *ProfileService) getProfile(ctx context.Context, st store.Store, ownerEmail string, id int64) (domain.Profile, error) {
	profile, err := st.Profiles().GetProfile(ctx, ownerEmail, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Profile{}, ErrProfileNotFound
		}
		return domain.Profile{}, err
	}
	return profile, nil
}

// GetDefaultProfile returns the profile created at signup.
func (s *ProfileService) GetDefaultProfile(ctx context.Context, ownerEmail string) (domain.Profile, error) {
	return s.getDefaultProfile(ctx, s.Store, ownerEmail)
}

func (s *ProfileService) getDefaultProfile(ctx context.Context, st store.Store, ownerEmail string) (domain.Profile, error) {
	profile, err := st.Profiles().GetDefaultProfile(ctx, ownerEmail)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Profile{}, ErrProfileNotFound
		}
		return domain.Profile{}, err
	}
	return profile, nil
}

// ListProfiles returns every profile the owner has, default first.
func (s *ProfileService) ListProfiles(ctx context.Context, ownerEmail string) ([]domain.Profile, error) {
	return s.Store.Profiles().ListProfiles(ctx, ownerEmail)
}

// DeleteProfile removes a non-default profile. The default profile is the
// account's anchor and cannot be deleted.
func (s *ProfileService) DeleteProfile(ctx context.Context, ownerEmail string, id int64) error {
	l := slogx.FromContext(ctx)

	profile, err := s.GetProfile(ctx, ownerEmail, id)
	if err != nil {
		return err
	}
	if profile.Default {
		return ErrDefaultProfile
	}

	if err := s.Store.Profiles().DeleteProfile(ctx, ownerEmail, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrProfileNotFound
		}
		return err
	}

	l.Info("profile deleted",
		slog.Int64("profile_id", id),
		slog.String("email", ownerEmail),
	)

	return nil
}
