// Package contact normalizes email addresses and phone numbers so that
// two accounts sharing a contact method dedupe to the same key.
package contact

import "strings"

// NormalizeEmail trims whitespace and lowercases the address. Returns
// "" for an empty or whitespace-only input.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone strips every non-digit and keeps the last ten digits,
// collapsing "+1 (555) 123-4567" and "5551234567" to the same key.
// Inputs with fewer than ten digits keep whatever digits remain.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) > 10 {
		return digits[len(digits)-10:]
	}
	return digits
}

// Normalize picks the normalizer for the given channel ("email"/"sms").
func Normalize(channel, value string) string {
	if channel == "sms" {
		return NormalizePhone(value)
	}
	return NormalizeEmail(value)
}
