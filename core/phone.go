package core

import (
	"regexp"
	"strings"
)

var (
	nonDigitRegex    = regexp.MustCompile(`\D`)
	indianPhoneRegex = regexp.MustCompile(`^\+91\d{10}$`)
)

// FormatIndianPhoneNumber normalizes a phone number to carry the +91 country code.
// A bare 10-digit number gets the prefix; anything already containing "+91" is returned unchanged.
func FormatIndianPhoneNumber(phone string) string {
	digits := nonDigitRegex.ReplaceAllString(phone, "")
	if len(digits) == 10 {
		return "+91" + digits
	}
	if strings.Contains(phone, "+91") {
		return phone
	}
	return "+91" + digits
}

// ValidIndianPhoneNumber reports whether phone formats to +91 followed by exactly 10 digits.
func ValidIndianPhoneNumber(phone string) bool {
	if CleanString(phone) == "" {
		return false
	}
	formatted := strings.ReplaceAll(FormatIndianPhoneNumber(phone), " ", "")
	return indianPhoneRegex.MatchString(formatted)
}
