package models

import (
	"errors"
	"testing"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"plain name", "Jane Doe", "Jane Doe", nil},
		{"trims whitespace", "  Jane  ", "Jane", nil},
		{"too short", "J", "", ErrNameTooShort},
		{"single accented rune too short", "É", "", ErrNameTooShort},
		{"accented name counts runes", "Él", "Él", nil},
		{"empty", "   ", "", ErrNameTooShort},
		{"bare number", "1234", "", ErrNameNumeric},
		{"amount with currency", "$99.00", "", ErrNameNumeric},
		{"name with digits ok", "Jane 2nd", "Jane 2nd", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateName(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ValidateName(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ValidateName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	if _, err := ValidateEmail("not-an-email"); !errors.Is(err, ErrInvalidEmail) {
		t.Error("expected ErrInvalidEmail for text without @")
	}
	if _, err := ValidateEmail("a@b"); !errors.Is(err, ErrInvalidEmail) {
		t.Error("expected ErrInvalidEmail for missing TLD")
	}

	got, err := ValidateEmail("  Jane.Doe@Example.COM ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "jane.doe@example.com" {
		t.Errorf("expected lower-cased trimmed email, got %q", got)
	}
}

func TestValidatePhone(t *testing.T) {
	if _, err := ValidatePhone("12345"); !errors.Is(err, ErrInvalidPhone) {
		t.Error("expected ErrInvalidPhone for fewer than 7 digits")
	}

	got, err := ValidatePhone("+1 (555) 123-4567")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "+15551234567" {
		t.Errorf("expected stripped phone, got %q", got)
	}
}
