package domain

import "time"

// User is a registered account (the principal). The email is the external
// identifier everything else keys on; the internal ID exists for auditing
// and never leaves the service.
type User struct {
	ID           string // ULID
	Email        string
	Username     string // display name
	PasswordHash string // argon2id, PHC encoded
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
