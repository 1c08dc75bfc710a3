// Package model defines domain entities for the application.
package model

import (
	"strings"
	"time"
)

// Field limits shared by validation and storage.
const (
	MaxNameLength     = 50
	MinPasswordLength = 6
	MaxPasswordLength = 40
)

// User is a registered member of the social graph.
// The password hash embeds its salt and is never serialized.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name" validate:"required,max=50"`
	Email        string    `json:"email" validate:"required,email"`
	PasswordHash string    `json:"-"`
	Admin        bool      `json:"admin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasPassword reports whether a credential has been set.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// NormalizedEmail returns the key used for case-insensitive email identity.
func (u *User) NormalizedEmail() string {
	return NormalizeEmail(u.Email)
}

// NormalizeEmail lower-cases and trims an email for identity comparisons.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
