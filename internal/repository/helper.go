package repository

import (
	"fmt"
	"time"
)

// ParseTime parses a stored timestamp in RFC3339 (with or without fractional seconds)
// or "2006-01-02" format. The result is in UTC.
func ParseTime(str string) (time.Time, error) {
	returnTime, err := time.Parse(time.RFC3339Nano, str)
	if err != nil {
		returnTime, err = time.Parse("2006-01-02", str)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse date: %w", err)
		}
	}
	return returnTime.UTC(), nil
}
