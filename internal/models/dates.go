package models

import (
	"fmt"
	"strings"
	"time"
)

// dueDateLayouts are tried in order. Layouts without an offset are read as UTC.
var dueDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDueDate parses an ISO-8601 date or date-time. A trailing "Z" is UTC and
// values without an offset are taken to be UTC. The result is always in UTC.
func ParseDueDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("due_date is empty")
	}
	for _, layout := range dueDateLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid due_date %q: expected ISO-8601 date or date-time", s)
}
