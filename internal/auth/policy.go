package auth

import (
	"fmt"
	"strings"
)

// Password policy for local signups. Every rule is checked independently
// so the response carries all violations at once.
const (
	policyMinLength = 12
	policyMaxLength = 128

	policySpecialChars = "!@#$%^&*(),.?\":{}|<>_-+=[]\\/;'`~"
)

var commonPasswords = []string{
	"password", "123456", "12345678", "qwerty", "abc123", "monkey",
	"1234567", "letmein", "trustno1", "dragon", "baseball", "iloveyou",
	"master", "sunshine", "ashley", "bailey", "shadow", "superman",
	"password1", "password123", "admin", "welcome", "login",
}

var sequentialPatterns = []string{
	"abc", "bcd", "cde", "def",
	"123", "234", "345", "456", "567", "678", "789",
}

// PolicyResult reports the outcome of a password policy check.
type PolicyResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// ValidatePassword checks the password against the signup policy. It is a
// pure function: no state, no side effects.
func ValidatePassword(password string) PolicyResult {
	if password == "" {
		return PolicyResult{Valid: false, Errors: []string{"Password is required"}}
	}

	var errs []string

	if len(password) < policyMinLength {
		errs = append(errs, fmt.Sprintf("Password must be at least %d characters long", policyMinLength))
	}
	if len(password) > policyMaxLength {
		errs = append(errs, fmt.Sprintf("Password must not exceed %d characters", policyMaxLength))
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, c := range password {
		switch {
		case c >= 'A' && c <= 'Z':
			hasUpper = true
		case c >= 'a' && c <= 'z':
			hasLower = true
		case c >= '0' && c <= '9':
			hasDigit = true
		case strings.ContainsRune(policySpecialChars, c):
			hasSpecial = true
		}
	}
	if !hasUpper {
		errs = append(errs, "Password must contain at least one uppercase letter")
	}
	if !hasLower {
		errs = append(errs, "Password must contain at least one lowercase letter")
	}
	if !hasDigit {
		errs = append(errs, "Password must contain at least one number")
	}
	if !hasSpecial {
		errs = append(errs, "Password must contain at least one special character")
	}

	lower := strings.ToLower(password)
	for _, common := range commonPasswords {
		if strings.Contains(lower, common) {
			errs = append(errs, "Password is too common. Please choose a stronger password")
			break
		}
	}

	if hasRepeatedRun(password, 3) {
		errs = append(errs, "Password should not contain repeated characters (e.g., aaa, 111)")
	}

	for _, pattern := range sequentialPatterns {
		if strings.Contains(lower, pattern) {
			errs = append(errs, "Password should not contain sequential patterns (e.g., abc, 123)")
			break
		}
	}

	return PolicyResult{Valid: len(errs) == 0, Errors: errs}
}

// hasRepeatedRun reports whether the string contains n or more identical
// consecutive characters.
func hasRepeatedRun(s string, n int) bool {
	runes := []rune(s)
	run := 1
	for i := 1; i < len(runes); i++ {
		if runes[i] == runes[i-1] {
			run++
			if run >= n {
				return true
			}
		} else {
			run = 1
		}
	}
	return false
}
