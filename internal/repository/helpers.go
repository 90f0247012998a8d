package repository

import (
	"strings"
	"time"
)

// parseTime parses an RFC3339 column value, returning the zero time when
// the value is empty or malformed.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// formatTime renders t for SQLite storage, substituting now for zero.
func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// nowUTC returns the current UTC time formatted as RFC3339.
func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// escapeLike escapes LIKE wildcards so a prefix matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// nextVersion is the version stored when incoming overwrites a plan at
// existing. It never goes backwards: a write from a stale copy lands one
// past the stored version so every reader sees it as the newest.
func nextVersion(existing, incoming int64) int64 {
	if incoming > existing {
		return incoming
	}
	return existing + 1
}
