package auth

import (
	"regexp"
	"strings"
)

var (
	phonePattern = regexp.MustCompile(`^\+\d+$`)
	codePattern  = regexp.MustCompile(`^\d+$`)
)

// NormalizePhoneNumber strips all whitespace and enforces the E.164-like
// shape (leading +, digits only). Rejection happens before any pool or
// network activity.
func NormalizePhoneNumber(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", PhoneRequiredErr
	}
	normalized := strings.Join(strings.Fields(raw), "")
	if !phonePattern.MatchString(normalized) {
		return "", InvalidPhoneErr
	}
	return normalized, nil
}

// NormalizeCode trims the one-time code and enforces digits only.
func NormalizeCode(raw string) (string, error) {
	code := strings.TrimSpace(raw)
	if code == "" {
		return "", MissingVerifyFieldsErr
	}
	if !codePattern.MatchString(code) {
		return "", NonNumericCodeErr
	}
	return code, nil
}
