package services

import (
	"errors"
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	ErrAuthCredentialsInvalid = errors.New("auth credentials invalid")
	ErrAuthEmailTaken         = errors.New("auth email already registered")
	ErrWeakPassword           = errors.New("weak password")
)

const maxDisplayNameLength = 50

func NormalizeAuthEmail(raw string) string {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return ""
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ""
	}
	return email
}

func NormalizeCredentialsInput(emailRaw string, passwordRaw string) (string, string, error) {
	email := NormalizeAuthEmail(emailRaw)
	password := strings.TrimSpace(passwordRaw)
	if email == "" || password == "" {
		return "", "", ErrAuthCredentialsInvalid
	}
	return email, password, nil
}

// ValidatePasswordStrength requires eight runes mixing upper case, lower case and digits.
func ValidatePasswordStrength(password string) error {
	if utf8.RuneCountInString(password) < 8 {
		return ErrWeakPassword
	}

	var hasUpper, hasLower, hasDigit bool
	for _, char := range password {
		hasUpper = hasUpper || unicode.IsUpper(char)
		hasLower = hasLower || unicode.IsLower(char)
		hasDigit = hasDigit || unicode.IsDigit(char)
	}
	if hasUpper && hasLower && hasDigit {
		return nil
	}
	return ErrWeakPassword
}

func NormalizeDisplayName(raw string, email string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		if at := strings.Index(email, "@"); at > 0 {
			return email[:at], nil
		}
		return email, nil
	}
	if utf8.RuneCountInString(name) > maxDisplayNameLength {
		return "", invalidField("display_name", "must be at most 50 characters")
	}
	return name, nil
}
