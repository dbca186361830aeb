package sqlite

import (
	"fmt"
	"time"
)

// sqliteTimeFormat is fixed width so lexical order in SQL matches time order.
const sqliteTimeFormat = "2006-01-02 15:04:05.000000000"

// parseTime accepts the formats SQLite and the driver produce for DATETIME columns.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		sqliteTimeFormat,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeFormat)
}
