package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/forrrest/auth/internal/auth/domain"
	"github.com/forrrest/auth/internal/auth/store"
	"github.com/forrrest/auth/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", filepath.Join(t.TempDir(), "auth.db"))
	st, err := NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func seedUser(t *testing.T, st *Store, email string) domain.User {
	t.Helper()

	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		Username:     "tester",
		PasswordHash: "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
	}
	require.NoError(t, st.Users().CreateUser(context.Background(), u))
	return u
}

func TestUsersRepo(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		seedUser(t, st, "alice@example.com")

		got, err := st.Users().GetUserByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.Equal(t, "tester", got.Username)
		require.False(t, got.CreatedAt.IsZero())
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		seedUser(t, st, "bob@example.com")

		err := st.Users().CreateUser(ctx, domain.User{
			ID:           idx.New().String(),
			Email:        "bob@example.com",
			Username:     "other",
			PasswordHash: "x",
		})
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("missing user is not found", func(t *testing.T) {
		_, err := st.Users().GetUserByEmail(ctx, "nobody@example.com")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("exists by email", func(t *testing.T) {
		seedUser(t, st, "carol@example.com")

		ok, err := st.Users().ExistsByEmail(ctx, "carol@example.com")
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = st.Users().ExistsByEmail(ctx, "nobody@example.com")
		require.NoError(t, err)
		require.False(t, ok)
	})
}

func TestProfilesRepo(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	ctx := context.Background()

	owner := seedUser(t, st, "owner@example.com").Email

	t.Run("create returns generated id", func(t *testing.T) {
		id, err := st.Profiles().CreateProfile(ctx, domain.Profile{
			UserEmail: owner,
			Name:      domain.DefaultProfileName,
			Default:   true,
		})
		require.NoError(t, err)
		require.Positive(t, id)

		got, err := st.Profiles().GetProfile(ctx, owner, id)
		require.NoError(t, err)
		require.True(t, got.Default)
		require.Equal(t, domain.DefaultProfileName, got.Name)
	})

	t.Run("duplicate name per owner conflicts", func(t *testing.T) {
		_, err := st.Profiles().CreateProfile(ctx, domain.Profile{UserEmail: owner, Name: "Gaming"})
		require.NoError(t, err)

		_, err = st.Profiles().CreateProfile(ctx, domain.Profile{UserEmail: owner, Name: "Gaming"})
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("same name allowed for another owner", func(t *testing.T) {
		other := seedUser(t, st, "other@example.com").Email

		_, err := st.Profiles().CreateProfile(ctx, domain.Profile{UserEmail: other, Name: "Gaming"})
		require.NoError(t, err)
	})

	t.Run("ownership scopes lookups", func(t *testing.T) {
		other := seedUser(t, st, "intruder@example.com").Email

		id, err := st.Profiles().CreateProfile(ctx, domain.Profile{UserEmail: owner, Name: "Private"})
		require.NoError(t, err)

		_, err = st.Profiles().GetProfile(ctx, other, id)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("list orders default first", func(t *testing.T) {
		profiles, err := st.Profiles().ListProfiles(ctx, owner)
		require.NoError(t, err)
		require.NotEmpty(t, profiles)
		require.True(t, profiles[0].Default)
	})

	t.Run("get default profile", func(t *testing.T) {
		got, err := st.Profiles().GetDefaultProfile(ctx, owner)
		require.NoError(t, err)
		require.True(t, got.Default)
	})

	t.Run("delete", func(t *testing.T) {
		id, err := st.Profiles().CreateProfile(ctx, domain.Profile{UserEmail: owner, Name: "Doomed"})
		require.NoError(t, err)

		require.NoError(t, st.Profiles().DeleteProfile(ctx, owner, id))

		_, err = st.Profiles().GetProfile(ctx, owner, id)
		require.ErrorIs(t, err, store.ErrNotFound)

		require.ErrorIs(t, st.Profiles().DeleteProfile(ctx, owner, id), store.ErrNotFound)
	})

	t.Run("user deletion cascades", func(t *testing.T) {
		doomed := seedUser(t, st, "doomed@example.com").Email

		id, err := st.Profiles().CreateProfile(ctx, domain.Profile{UserEmail: doomed, Name: "Orphan"})
		require.NoError(t, err)

		require.NoError(t, st.Users().DeleteUser(ctx, doomed))

		_, err = st.Profiles().GetProfile(ctx, doomed, id)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestRefreshTokensRepo(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	ctx := context.Background()

	email := seedUser(t, st, "session@example.com").Email
	expires := time.Now().UTC().Add(time.Hour)

	t.Run("upsert then exists", func(t *testing.T) {
		require.NoError(t, st.RefreshTokens().Upsert(ctx, email, "fp-1", expires))

		ok, err := st.RefreshTokens().Exists(ctx, "fp-1")
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("upsert replaces previous fingerprint", func(t *testing.T) {
		require.NoError(t, st.RefreshTokens().Upsert(ctx, email, "fp-2", expires))

		ok, err := st.RefreshTokens().Exists(ctx, "fp-1")
		require.NoError(t, err)
		require.False(t, ok, "rotated-away fingerprint must be gone")

		ok, err = st.RefreshTokens().Exists(ctx, "fp-2")
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("find by token", func(t *testing.T) {
		rec, err := st.RefreshTokens().FindByToken(ctx, "fp-2")
		require.NoError(t, err)
		require.Equal(t, email, rec.Email)

		_, err = st.RefreshTokens().FindByToken(ctx, "fp-1")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("delete by email", func(t *testing.T) {
		require.NoError(t, st.RefreshTokens().DeleteByEmail(ctx, email))

		ok, err := st.RefreshTokens().Exists(ctx, "fp-2")
		require.NoError(t, err)
		require.False(t, ok)
	})
}

func TestWithTx(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	ctx := context.Background()

	t.Run("commit persists", func(t *testing.T) {
		err := st.WithTx(ctx, func(tx store.Tx) error {
			return tx.Users().CreateUser(ctx, domain.User{
				ID:           idx.New().String(),
				Email:        "tx@example.com",
				Username:     "tx",
				PasswordHash: "x",
			})
		})
		require.NoError(t, err)

		_, err = st.Users().GetUserByEmail(ctx, "tx@example.com")
		require.NoError(t, err)
	})

	t.Run("error rolls back", func(t *testing.T) {
		sentinel := fmt.Errorf("boom")

		err := st.WithTx(ctx, func(tx store.Tx) error {
			if err := tx.Users().CreateUser(ctx, domain.User{
				ID:           idx.New().String(),
				Email:        "rollback@example.com",
				Username:     "tx",
				PasswordHash: "x",
			}); err != nil {
				return err
			}
			return sentinel
		})
		require.ErrorIs(t, err, sentinel)

		_, err = st.Users().GetUserByEmail(ctx, "rollback@example.com")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}
