package notify

import "strings"

// NormalizePhone strips common separators (spaces, dashes, parentheses,
// dots) and rewrites an international 00 prefix to +.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch r {
		case ' ', '-', '(', ')', '.':
			// separator, drop
		default:
			b.WriteRune(r)
		}
	}
	phone := b.String()
	if strings.HasPrefix(phone, "00") {
		phone = "+" + phone[2:]
	}
	return phone
}

// ValidE164 reports whether an already-normalized phone number is a
// plausible E.164 number: a leading +, then 7 to 15 digits, the first of
// which must not be zero.
func ValidE164(phone string) bool {
	if !strings.HasPrefix(phone, "+") {
		return false
	}
	digits := phone[1:]
	if len(digits) < 7 || len(digits) > 15 {
		return false
	}
	if digits[0] < '1' || digits[0] > '9' {
		return false
	}
	for i := 1; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return false
		}
	}
	return true
}

// MaskPhone reduces a phone number to its + prefix and country-code digits
// for logging. Full numbers never reach the logs.
func MaskPhone(phone string) string {
	if phone == "" {
		return ""
	}
	if !strings.HasPrefix(phone, "+") {
		return "***"
	}
	keep := 3 // "+" plus up to two country-code digits
	if len(phone) < keep {
		keep = len(phone)
	}
	return phone[:keep] + "***"
}
