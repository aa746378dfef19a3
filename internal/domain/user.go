package domain

import "time"

// Gender is the enumerated gender of a registered user.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Valid reports whether g is one of the enumerated values.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// User represents a registered account. PasswordHash is the only stored
// credential; the plaintext never leaves the signup/login request.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash []byte
	Age          int
	Gender       Gender
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
