package util

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// VerifyToken compares a presented bearer token against the configured admin
// token in constant time. An unset admin token rejects everything.
func VerifyToken(provided, expected string) bool {
	if expected == "" || provided == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) == 1
}

// VerifyPassword checks a login attempt. When a bcrypt hash is configured it
// wins over the plain password; the plain path still compares in constant
// time.
func VerifyPassword(provided, plain, bcryptHash string) bool {
	if provided == "" {
		return false
	}

	if bcryptHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(bcryptHash), []byte(provided)) == nil
	}

	if plain == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(plain)) == 1
}
