package auth

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt ignores input past 72 bytes.
const maxPasswordBytes = 72

var (
	ErrPasswordRequired = errors.New("password is required")
	ErrPasswordTooLong  = errors.New("password must be at most 72 bytes")
)

// HashPassword returns a bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the bcrypt hash.
func CheckPassword(password, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePassword enforces what bcrypt can store. No strength policy is applied.
func ValidatePassword(password string) error {
	if strings.TrimSpace(password) == "" {
		return ErrPasswordRequired
	}
	if len(password) > maxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}
