package models

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validation error variables for better error handling and testability.
var (
	ErrNameTooShort = errors.New("name must be at least 2 characters")
	ErrNameNumeric  = errors.New("name cannot be a bare number")
	ErrInvalidEmail = errors.New("email does not match local@domain.tld")
	ErrInvalidPhone = errors.New("phone number must contain at least 7 digits")
)

var (
	emailRegex   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	numericRegex = regexp.MustCompile(`^[\d\s.,$€]+$`)
	digitRegex   = regexp.MustCompile(`\d`)
)

// ValidateName accepts any non-empty text of length >= 2 that is not a bare
// numeric string (rejects an amount typed in place of a name).
func ValidateName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if utf8.RuneCountInString(name) < 2 {
		return "", ErrNameTooShort
	}
	if numericRegex.MatchString(name) {
		return "", ErrNameNumeric
	}
	return name, nil
}

// ValidateEmail checks a simple local@domain.tld shape and returns the
// lower-cased address.
func ValidateEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if !emailRegex.MatchString(email) {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// ValidatePhone strips formatting characters and requires at least 7 digits.
func ValidatePhone(raw string) (string, error) {
	digits := strings.Builder{}
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		} else if r == '+' && digits.Len() == 0 {
			digits.WriteRune(r)
		}
	}
	phone := digits.String()
	if len(digitRegex.FindAllString(phone, -1)) < 7 {
		return "", ErrInvalidPhone
	}
	return phone, nil
}
