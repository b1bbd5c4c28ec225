// Package storage persists ledgers, users and notifications in SQLite.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/Veraticus/zenith/internal/common"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
	ErrInvalidEmail = errors.New("invalid email address")
)

// Lookup errors.
var (
	ErrUserNotFound = fmt.Errorf("user %w", common.ErrNotFound)
	ErrUserExists   = fmt.Errorf("user already exists: %w", common.ErrDuplicateEntry)
	ErrNoSession    = common.ErrNoSession
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// normalizeEmail lowercases and checks an email address.
func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", fmt.Errorf("%w: email", ErrEmptyString)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	return email, nil
}
