package domain

import "strings"

// NormalizeHumanName trims leading/trailing whitespace and collapses internal whitespace runs.
// It is used for first/last name and location normalization.
func NormalizeHumanName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeEmail trims and lower-cases an email address. Emails are the login key
// and are stored in this form.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SameLocation reports whether two free-text locations name the same place under
// case-insensitive comparison of their normalized forms.
func SameLocation(a, b string) bool {
	return strings.EqualFold(NormalizeHumanName(a), NormalizeHumanName(b))
}
