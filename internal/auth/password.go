package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/mrlokans/library/internal/apperr"
)

// MinPasswordLength is the shortest password accepted for any login.
const MinPasswordLength = 6

// MaxPasswordLength is bcrypt's input limit in bytes.
const MaxPasswordLength = 72

var (
	ErrInvalidPassword  = errors.New("invalid password")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	ErrPasswordTooLong  = errors.New("password exceeds maximum length of 72 bytes")
)

// HashPassword creates a bcrypt hash of the password.
func HashPassword(password string, cost int) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	if len(password) > MaxPasswordLength {
		return "", ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a password with its hash.
func CheckPassword(password, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidPassword
		}
		return err
	}
	return nil
}

// PasswordError turns a HashPassword failure into a client-facing error.
func PasswordError(err error) error {
	switch {
	case errors.Is(err, ErrPasswordTooShort):
		return apperr.Validationf("Password must be at least %d characters long", MinPasswordLength)
	case errors.Is(err, ErrPasswordTooLong):
		return apperr.Validationf("Password must be at most %d bytes long", MaxPasswordLength)
	}
	return apperr.Internal(err, "failed to hash password")
}
