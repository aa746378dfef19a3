package auth

import "errors"

var (
	// ErrInvalidCredentials means the email was found but the password did
	// not match.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrInvalidToken covers malformed, tampered and expired tokens. The
	// cause is logged internally but never distinguished to callers.
	ErrInvalidToken = errors.New("auth: invalid token")

	// ErrTokenRevoked means the token verified but its id is in the
	// revocation ledger.
	ErrTokenRevoked = errors.New("auth: token revoked")
)
