package service

import "errors"

var (
	// ErrInvalidInput signals a request that fails basic validation before
	// touching the store.
	ErrInvalidInput = errors.New("invalid_input")

	// ErrEmailDuplication signals signup with an email that is already
	// registered.
	ErrEmailDuplication = errors.New("email_duplication")

	// ErrUserNotFound signals that no user exists for the given email.
	ErrUserNotFound = errors.New("user_not_found")

	// ErrInvalidPassword signals a credential check failure on login.
	ErrInvalidPassword = errors.New("invalid_password")

	// ErrInvalidToken covers every token failure that is not purely expiry:
	// bad signature, wrong kind, unknown key, replayed refresh tokens and
	// undecryptable transfer tokens all collapse into this one sentinel so
	// callers cannot distinguish them.
	ErrInvalidToken = errors.New("invalid_token")

	// ErrExpiredToken signals a well-formed, well-signed token past its
	// expiry instant.
	ErrExpiredToken = errors.New("expired_token")

	// ErrProfileNotFound signals a profile id the caller does not own (or
	// that does not exist; the two are indistinguishable on purpose).
	ErrProfileNotFound = errors.New("profile_not_found")

	// ErrProfileDuplication signals a profile name the owner already uses.
	ErrProfileDuplication = errors.New("profile_duplication")

	// ErrDefaultProfile signals an attempt to delete the default profile.
	ErrDefaultProfile = errors.New("default_profile_undeletable")
)
