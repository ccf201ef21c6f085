package store

import (
	"context"
	"errors"
	"time"

	"github.com/forrrest/auth/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today)
// implement this. Sub-repositories keep concerns tidy and let the service
// layer express exactly which tables an operation touches.
type Store interface {
	Users() Users
	Profiles() Profiles
	RefreshTokens() RefreshTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, committing when fn returns nil
	// and rolling back otherwise. Multi-step operations that must be atomic,
	// signup's user+default-profile insert and the refresh-rotation
	// read-then-write, go through here.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. Same repos plus Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// CreateUser inserts a new user (id is provided by the app via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// GetUserByEmail returns a user by its external identifier.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// ExistsByEmail reports whether a user with this email is registered.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// DeleteUser removes the user; profiles and the refresh record cascade
	// per schema.
	DeleteUser(ctx context.Context, email string) error
}

type Profiles interface {
	// CreateProfile inserts a profile and returns its generated numeric id.
	// Fails with ErrAlreadyExists when the (owner, name) pair is taken.
	CreateProfile(ctx context.Context, p domain.Profile) (int64, error)

	// GetProfile returns the profile only when it belongs to the owner.
	GetProfile(ctx context.Context, ownerEmail string, id int64) (domain.Profile, error)

	// GetDefaultProfile returns the owner's default profile.
	GetDefaultProfile(ctx context.Context, ownerEmail string) (domain.Profile, error)

	// ListProfiles returns all the owner's profiles, default first.
	ListProfiles(ctx context.Context, ownerEmail string) ([]domain.Profile, error)

	// ExistsByName reports whether the owner already has a profile with this
	// exact (case-sensitive) name.
	ExistsByName(ctx context.Context, ownerEmail, name string) (bool, error)

	// DeleteProfile removes the profile when it belongs to the owner.
	DeleteProfile(ctx context.Context, ownerEmail string, id int64) error
}

type RefreshTokens interface {
	// Upsert replaces the principal's refresh record. Rotation is implicit:
	// whatever fingerprint was stored before is gone afterwards.
	Upsert(ctx context.Context, email, tokenHash string, expiresAt time.Time) error

	// Exists reports whether this fingerprint is the live record of any
	// principal. This is the replay check.
	Exists(ctx context.Context, tokenHash string) (bool, error)

	// FindByToken returns the record holding this fingerprint.
	FindByToken(ctx context.Context, tokenHash string) (domain.RefreshTokenRecord, error)

	// DeleteByEmail drops the principal's record, ending the session
	// server-side (logout, reuse detection).
	DeleteByEmail(ctx context.Context, email string) error
}
