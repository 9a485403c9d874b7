// Package validation provides input validation helpers.
package validation

import "regexp"

// emailPattern accepts one non-whitespace local part, an @, and a domain
// containing at least one dot. Deliberately loose: deliverability is the
// mail provider's problem, this only rejects obvious typos.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsEmail reports whether s looks like an email address.
func IsEmail(s string) bool {
	return emailPattern.MatchString(s)
}
