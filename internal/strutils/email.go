package strutils

import (
	"net/mail"
	"strings"
)

// NormalizeEmail trims surrounding whitespace. Case is kept, the stored email
// is matched exactly.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(email)
}

// LooksLikeEmail is a loose check used to reject obviously broken input
func LooksLikeEmail(email string) bool {
	if strings.ContainsAny(email, " \t\r\n") {
		return false
	}
	address, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	return address.Address == email
}
