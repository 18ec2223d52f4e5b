package utils

import (
	"crypto/rand"
	"errors"
	"math/big"
	"regexp"
	"strings"
)

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{3,31}$`)
	emailRe    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

var (
	ErrUsernameInvalid = errors.New("username must be 4-32 letters, digits, dot, dash or underscore")
	ErrEmailInvalid    = errors.New("email address is malformed")
)

func ValidateUsername(name string) error {
	if !usernameRe.MatchString(strings.TrimSpace(name)) {
		return ErrUsernameInvalid
	}
	return nil
}

// ValidateEmail checks the syntactic shape only; empty is the caller's call.
func ValidateEmail(addr string) error {
	if !emailRe.MatchString(strings.TrimSpace(addr)) {
		return ErrEmailInvalid
	}
	return nil
}

const passwordAlphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// RandPassword returns a random password of n characters from an alphabet
// with look-alike characters removed, for the "generate" helper next to the
// reset-password field.
func RandPassword(n int) (string, error) {
	if n <= 0 {
		n = 8
	}
	var b strings.Builder
	max := big.NewInt(int64(len(passwordAlphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(passwordAlphabet[idx.Int64()])
	}
	return b.String(), nil
}
