package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// Password length bounds. bcrypt ignores input past 72 bytes, so longer
// passwords are rejected rather than silently truncated.
const (
	MinPasswordLength = 5
	MaxPasswordLength = 72
)

// HashPassword returns a bcrypt hash of password.
func HashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash []byte, password string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}
