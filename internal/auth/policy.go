package auth

import (
	"errors"
	"unicode"
)

var ErrWeakPassword = errors.New("password must be 8-128 characters and contain a letter and a digit")

const (
	minPasswordLen = 8
	maxPasswordLen = 128
)

// ValidatePassword enforces the account password policy.
func ValidatePassword(plain string) error {
	n := len([]rune(plain))
	if n < minPasswordLen || n > maxPasswordLen {
		return ErrWeakPassword
	}
	var letter, digit bool
	for _, r := range plain {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !letter || !digit {
		return ErrWeakPassword
	}
	return nil
}
