package util

import "strings"

const (
	// PhoneMinLen and PhoneMaxLen bound the normalized representation,
	// inclusive of the leading "+".
	PhoneMinLen = 10
	PhoneMaxLen = 15
)

// NormalizePhone strips every non-digit byte from raw and, when any digits
// remain, prefixes the result with "+". An input with no digits normalizes
// to the empty string, which signals "not a number" to the caller.
//
// The function is pure: reporting which original line failed, and why, is
// the caller's job.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] >= '0' && raw[i] <= '9' {
			b.WriteByte(raw[i])
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "+" + b.String()
}

// ValidatePhone reports whether a normalized number is acceptable: non-empty,
// length within [PhoneMinLen, PhoneMaxLen], and a non-zero digit immediately
// after the "+". The leading-zero rejection is a heuristic for a missing
// country code, not a real dial-plan rule.
func ValidatePhone(normalized string) bool {
	if normalized == "" {
		return false
	}
	if len(normalized) < PhoneMinLen || len(normalized) > PhoneMaxLen {
		return false
	}
	if len(normalized) > 1 && normalized[1] == '0' {
		return false
	}
	return true
}

const upperhex = "0123456789ABCDEF"

// FormEncode percent-encodes s for a form-urlencoded body. Bytes in
// A-Za-z0-9 and -_.~ pass through unchanged; every other byte, space
// included, becomes %XX. This intentionally differs from
// net/url.QueryEscape, which emits "+" for spaces: the wire contract here is
// plain percent-encoding over raw bytes.
func FormEncode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&0x0f])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_' || c == '.' || c == '~':
		return true
	}
	return false
}

// FormatPhone groups a normalized number for display, e.g.
// "+5511999999999" -> "+55 11 9999 99999". Numbers too short to group are
// returned unchanged.
func FormatPhone(number string) string {
	if len(number) < 12 {
		return number
	}
	return number[:3] + " " + number[3:5] + " " + number[5:9] + " " + number[9:]
}
