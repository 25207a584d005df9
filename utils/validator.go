package utils

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail checks the address shape only.
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// SanitizeInput trims surrounding whitespace and drops NUL bytes.
func SanitizeInput(input string) string {
	return strings.TrimSpace(strings.ReplaceAll(input, "\x00", ""))
}
