// Package models defines server-side data models persisted in the database.
package models

import (
	"strings"
	"time"
)

type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash []byte
	IsActive     bool
	IsStaff      bool
	IsSuperuser  bool
	CreatedAt    time.Time
}

// NormalizeEmail trims surrounding whitespace and lower-cases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
