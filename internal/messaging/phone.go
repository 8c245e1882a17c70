package messaging

import "strings"

// NormalizeE164 strips formatting and returns +<digits>. Ten-digit numbers are assumed to be
// North American and get a leading 1.
func NormalizeE164(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	var digits strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	switch {
	case d == "":
		return ""
	case len(d) == 10 && !strings.HasPrefix(value, "+"):
		return "+1" + d
	default:
		return "+" + d
	}
}
