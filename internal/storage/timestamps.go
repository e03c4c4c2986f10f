package storage

import (
	"fmt"
	"time"
)

const sqliteTimeLayout = "2006-01-02 15:04:05"

// nowUTC returns the current time truncated to second precision, matching
// what SQLite stores for DATETIME columns.
func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// formatTimestamp renders a time the way SQLite's CURRENT_TIMESTAMP does.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

// parseTimestamp parses a DATETIME string from SQLite.
func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(sqliteTimeLayout, s)
	if err == nil {
		return t, nil
	}
	// SQLite might hand back RFC3339 depending on how the value was written.
	t, err = time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t, nil
}
