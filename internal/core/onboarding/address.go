package onboarding

import (
	"regexp"
	"strings"
)

// addressPattern is the public-key encoding of a ledger account.
var addressPattern = regexp.MustCompile(`^G[A-Z0-9]{55}$`)

// IsWellFormedAddress is the local parse gate applied before any network call.
func IsWellFormedAddress(s string) bool {
	return addressPattern.MatchString(s)
}

// normalizeText trims what chat clients tend to add around a pasted value.
func normalizeText(s string) string {
	return strings.TrimSpace(s)
}
