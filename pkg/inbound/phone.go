package inbound

import "strings"

// digitsOnly strips everything but digits from a phone string.
func digitsOnly(value string) string {
	var b strings.Builder

	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	return b.String()
}

// NormalizePhone canonicalizes a phone number to +E.164. Ten-digit numbers are
// assumed to be US. Anything unrecognizable comes back stripped to digits with
// a leading plus so matching still has a chance.
func NormalizePhone(raw string) string {
	digits := digitsOnly(raw)
	if digits == "" {
		return ""
	}

	switch {
	case len(digits) == 10:
		return "+1" + digits
	case len(digits) == 11 && digits[0] == '1':
		return "+" + digits
	default:
		return "+" + digits
	}
}

// PhoneSuffix returns the last ten digits used for contact matching. Shorter
// numbers are returned whole.
func PhoneSuffix(raw string) string {
	digits := digitsOnly(raw)
	if len(digits) <= 10 {
		return digits
	}

	return digits[len(digits)-10:]
}
