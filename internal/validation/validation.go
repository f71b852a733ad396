package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidatePassword checks if a password meets requirements
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if len(password) < 8 {
		return ValidationError{Field: "password", Message: "password must be at least 8 characters"}
	}
	return nil
}

// ValidateFullName checks if a person's name is valid
func ValidateFullName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: "full_name", Message: "full name is required"}
	}
	if len(name) < 2 {
		return ValidationError{Field: "full_name", Message: "full name must be at least 2 characters"}
	}
	return nil
}

// ValidateFamilyName checks if a family workspace name is valid
func ValidateFamilyName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: "family_name", Message: "family name is required"}
	}
	if len(name) < 2 {
		return ValidationError{Field: "family_name", Message: "family name must be at least 2 characters"}
	}
	if len(name) > 100 {
		return ValidationError{Field: "family_name", Message: "family name must be at most 100 characters"}
	}
	return nil
}
