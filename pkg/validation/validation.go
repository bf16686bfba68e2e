package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
)

var (
	// ErrInvalidInput indicates the input failed validation
	ErrInvalidInput = errors.New("invalid input")

	// VINs are 11-17 characters from the ISO 3779 alphabet (no I, O, Q)
	vinRegex = regexp.MustCompile(`^[A-HJ-NPR-Z0-9]{11,17}$`)

	// Vehicle numbers are fleet asset tags
	vehicleNumberRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 _./-]{0,63}$`)

	runIDRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
)

// SanitizeString removes potentially dangerous characters and trims whitespace
func SanitizeString(input string) string {
	// Trim whitespace
	input = strings.TrimSpace(input)

	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters except newline and tab
	var builder strings.Builder
	for _, r := range input {
		if !unicode.IsControl(r) || r == '\n' || r == '\t' {
			builder.WriteRune(r)
		}
	}

	return builder.String()
}

// NormalizeVIN upper-cases and trims a VIN.
func NormalizeVIN(vin string) string {
	return strings.ToUpper(SanitizeString(vin))
}

// ValidateVIN checks if a VIN is well formed
func ValidateVIN(vin string) error {
	vin = NormalizeVIN(vin)

	if vin == "" {
		return errors.New("vin cannot be empty")
	}

	if !vinRegex.MatchString(vin) {
		return fmt.Errorf("%w: vin must be 11-17 characters of A-Z (excluding I, O, Q) and 0-9", ErrInvalidInput)
	}

	return nil
}

// ValidateVehicleNumber checks a fleet asset tag
func ValidateVehicleNumber(number string) error {
	number = SanitizeString(number)

	if number == "" {
		return errors.New("vehicle number cannot be empty")
	}

	if !vehicleNumberRegex.MatchString(number) {
		return fmt.Errorf("%w: vehicle number contains unsupported characters", ErrInvalidInput)
	}

	return nil
}

// ValidateRunID checks that a run id is a UUID
func ValidateRunID(id string) error {
	if !runIDRegex.MatchString(id) {
		return fmt.Errorf("%w: run id must be a UUID", ErrInvalidInput)
	}
	return nil
}

// ValidateLookbacks checks backtracking offsets in days
func ValidateLookbacks(days []int) error {
	if len(days) == 0 {
		return errors.New("at least one lookback offset is required")
	}

	for _, d := range days {
		if d <= 0 {
			return fmt.Errorf("%w: lookback offsets must be positive, got %d", ErrInvalidInput, d)
		}
		if d > 3650 {
			return fmt.Errorf("%w: lookback offset %d exceeds ten years", ErrInvalidInput, d)
		}
	}

	return nil
}

// ParseAsOf parses an assessment timestamp given as RFC 3339 or a date.
func ParseAsOf(value string) (time.Time, error) {
	value = SanitizeString(value)
	if value == "" {
		return time.Time{}, errors.New("as-of time cannot be empty")
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t.UTC(), nil
	}

	return time.Time{}, fmt.Errorf("%w: as-of must be RFC 3339 or YYYY-MM-DD", ErrInvalidInput)
}

// ValidateUsername checks if a username is valid
func ValidateUsername(username string) error {
	username = SanitizeString(username)

	if username == "" {
		return errors.New("username cannot be empty")
	}

	if len(username) < 3 {
		return errors.New("username must be at least 3 characters")
	}

	if len(username) > 50 {
		return errors.New("username must not exceed 50 characters")
	}

	return nil
}

// ValidatePassword checks if a password meets security requirements
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}

	if len(password) > 128 {
		return errors.New("password must not exceed 128 characters")
	}

	var (
		hasUpper   bool
		hasLower   bool
		hasNumber  bool
		hasSpecial bool
	)

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}

	if !hasUpper {
		return errors.New("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return errors.New("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return errors.New("password must contain at least one number")
	}
	if !hasSpecial {
		return errors.New("password must contain at least one special character")
	}

	return nil
}
