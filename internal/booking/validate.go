package booking

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Customer-info validation rules.  These run before any policy or
// conflict check so that malformed requests never reach the store.
var (
	phonePattern = regexp.MustCompile(`^[0-9+()\-\s]+$`)
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

const (
	minNameLen  = 2
	maxNameLen  = 100
	minPhoneLen = 10
	minParty    = 1
	maxParty    = 20
)

// validateCustomer checks the customer fields of a booking request and
// returns a field-level ValidationError on the first failure.
func validateCustomer(name, phone string, email *string) error {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n < minNameLen || n > maxNameLen {
		return &ValidationError{Field: "customer_name", Message: "must be between 2 and 100 characters"}
	}
	phone = strings.TrimSpace(phone)
	if len(phone) < minPhoneLen || !phonePattern.MatchString(phone) {
		return &ValidationError{Field: "phone", Message: "must be at least 10 characters of digits, spaces, +, -, ( or )"}
	}
	if email != nil && *email != "" && !emailPattern.MatchString(*email) {
		return &ValidationError{Field: "email", Message: "must be a valid email address"}
	}
	return nil
}

// validatePartySize checks the guest count bounds.
func validatePartySize(n uint32) error {
	if n < minParty || n > maxParty {
		return &ValidationError{Field: "party_size", Message: "must be between 1 and 20"}
	}
	return nil
}
