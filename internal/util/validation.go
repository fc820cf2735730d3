package util

import (
	"regexp"
	"strings"
	"unicode"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 72 // bcrypt input limit
)

// NormalizeEmail lowercases and trims an email address. Email uniqueness
// and the login-attempt key are both defined over the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func IsValidEmail(email string) bool {
	if email == "" || len(email) > 254 {
		return false
	}
	return emailRegex.MatchString(email)
}

// ValidatePassword enforces the server-side password policy: minimum 8
// characters with at least one uppercase, one lowercase and one digit.
// Client forms enforce the same rules but are not trusted.
func ValidatePassword(password string) (ok bool, reason string) {
	if len(password) < MinPasswordLength {
		return false, "must be at least 8 characters"
	}
	if len(password) > MaxPasswordLength {
		return false, "must be at most 72 characters"
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	switch {
	case !hasUpper:
		return false, "must contain an uppercase letter"
	case !hasLower:
		return false, "must contain a lowercase letter"
	case !hasDigit:
		return false, "must contain a digit"
	}
	return true, ""
}

// IsValidMonth reports whether s is a YYYY-MM month key.
var monthRegex = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

func IsValidMonth(s string) bool {
	return monthRegex.MatchString(s)
}
