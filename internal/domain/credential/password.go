// Package credential validates password strength and produces bcrypt hashes.
package credential

import (
	"errors"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/go-user-registry/pkg/apperror"
)

const (
	MinPasswordChars = 8
	// MaxPasswordBytes is the bcrypt input limit; longer input is rejected
	// instead of truncated.
	MaxPasswordBytes = 72
)

var (
	ErrWeakPassword  = &apperror.Error{Kind: apperror.KindValidation, Code: apperror.CodePasswordWeak, Message: "weak password"}
	ErrMalformedHash = &apperror.Error{Kind: apperror.KindInternal, Code: apperror.CodeHashMalformed, Message: "malformed password hash"}
)

// ValidateStrength enforces the password policy: at least 8 characters, at
// most 72 bytes, one uppercase letter and one digit.
func ValidateStrength(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordChars {
		return weak("length", "password must be at least 8 characters long")
	}
	if len(password) > MaxPasswordBytes {
		return weak("length", "password must be at most 72 bytes long")
	}
	var upper, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper {
		return weak("uppercase", "password must contain an uppercase letter")
	}
	if !digit {
		return weak("digit", "password must contain a digit")
	}
	return nil
}

func weak(constraint, msg string) error {
	return apperror.Field(apperror.CodePasswordWeak, "password", constraint, msg)
}

// Hasher produces bcrypt hashes at a fixed cost.
type Hasher struct {
	Cost int
}

// NewHasher clamps cost into bcrypt's accepted range; zero means DefaultCost.
func NewHasher(cost int) *Hasher {
	switch {
	case cost == 0:
		cost = bcrypt.DefaultCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &Hasher{Cost: cost}
}

// Default is the hasher used when callers pass nil.
var Default = NewHasher(bcrypt.DefaultCost)

// Hash validates strength then hashes the password with a random salt.
func (h *Hasher) Hash(password string) (string, error) {
	if h == nil {
		h = Default
	}
	if err := ValidateStrength(password); err != nil {
		return "", err
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", apperror.Internal(apperror.CodeHashFailed, "hash password", err)
	}
	return string(b), nil
}

// CheckHash returns ErrMalformedHash unless hash is a parseable bcrypt hash.
func CheckHash(hash string) error {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return apperror.Wrap(apperror.KindInternal, apperror.CodeHashMalformed, "malformed password hash", err)
	}
	return nil
}

// Verify reports whether password matches hash. A hash that bcrypt cannot
// parse is an error, a plain mismatch is not.
func Verify(password, hash string) (bool, error) {
	if err := CheckHash(hash); err != nil {
		return false, err
	}
	// Hash never accepts such input, so it cannot match.
	if len(password) > MaxPasswordBytes {
		return false, nil
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, apperror.Wrap(apperror.KindInternal, apperror.CodeHashMalformed, "malformed password hash", err)
	}
}
