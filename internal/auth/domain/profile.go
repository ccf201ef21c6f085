package domain

import "time"

// DefaultProfileName is the name of the profile created for every principal
// at signup.
const DefaultProfileName = "Default Profile"

// Profile is a named sub-identity owned by exactly one principal. Names are
// unique per principal (case-sensitive). Every principal has exactly one
// default profile, created with the account and never deletable.
type Profile struct {
	ID        int64
	UserEmail string
	Name      string
	Default   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
