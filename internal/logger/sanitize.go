package logger

import (
	"strings"
	"unicode"
)

// Length caps for client-controlled values written to logs
const (
	MaxPathLength         = 500
	MaxQueryLength        = 500
	MaxRequestIDLength    = 128
	MaxErrorMessageLength = 1000
)

// SanitizePath prepares a request path for logging
func SanitizePath(path string) string {
	return clean(path, MaxPathLength)
}

// SanitizeQuery prepares a raw query string (filter, category, sort) for logging
func SanitizeQuery(rawQuery string) string {
	return clean(rawQuery, MaxQueryLength)
}

// SanitizeRequestID prepares a client-supplied request id for logging
func SanitizeRequestID(id string) string {
	return clean(id, MaxRequestIDLength)
}

// SanitizeError prepares an error message for logging. A nil error yields "".
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return clean(err.Error(), MaxErrorMessageLength)
}

// clean drops invalid UTF-8 and control characters other than whitespace, then
// truncates to limit bytes with a "..." marker.
func clean(s string, limit int) string {
	if s == "" {
		return ""
	}
	s = strings.Map(func(r rune) rune {
		if !unicode.IsPrint(r) && r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.ToValidUTF8(s, ""))
	if len(s) > limit {
		s = s[:limit] + "..."
	}
	return s
}
