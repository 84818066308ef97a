// Package cryptox wraps password hashing and random token generation.
package cryptox

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/clubhouse/internal/common"
	"github.com/sethvargo/go-password/password"
	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is bcrypt's input limit.
const MaxPasswordBytes = 72

// dummyHash is compared against when a login names an unknown user so that
// both branches cost one bcrypt verification.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("clubhouse-timing-equalizer"), bcrypt.DefaultCost)

// HashPassword returns a salted bcrypt hash of password.
func HashPassword(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", fmt.Errorf("%w: password longer than %d bytes", common.ErrorValidation, MaxPasswordBytes)
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// CheckPassword verifies password against hash in constant time. A mismatch
// yields common.ErrInvalidCredentials.
func CheckPassword(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return common.ErrInvalidCredentials
	}
	return fmt.Errorf("check password: %w", err)
}

// BurnPasswordCheck spends the same work as CheckPassword without a real hash.
func BurnPasswordCheck(password string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

// InviteCode generates a random code of length letters and digits.
func InviteCode(length int) (string, error) {
	digits := length / 3
	code, err := password.Generate(length, digits, 0, false, true)
	if err != nil {
		return "", fmt.Errorf("generate invite code: %w", err)
	}
	return code, nil
}
