// Package phone normalizes Korean mobile numbers between the local
// 010-xxxx-xxxx form used as a cache key and the E.164 form the SMS
// provider requires.
package phone

import (
	"fmt"
	"regexp"
	"strings"
)

var localFormat = regexp.MustCompile(`^01[016789]-?\d{3,4}-?\d{4}$`)

// IsValid reports whether phone is a Korean mobile number in local form.
func IsValid(phone string) bool {
	return localFormat.MatchString(phone)
}

// ToE164 converts a local-format number like "010-1234-5678" to "+821012345678".
func ToE164(phone string) (string, error) {
	const op = "phone.ToE164"
	if !IsValid(phone) {
		return "", fmt.Errorf("%s: invalid phone number: %s", op, phone)
	}
	digits := strings.ReplaceAll(phone, "-", "")
	return "+82" + digits[1:], nil
}
