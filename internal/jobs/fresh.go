package jobs

import (
	"strings"
	"time"
)

// NewWindow is how long a listing keeps its "new" badge.
const NewWindow = 24 * time.Hour

// IsNewLabel is the free-text heuristic for rows without a timestamp: a
// relative time containing "just now", "hour" or "min" counts as new.
func IsNewLabel(postedAt string) bool {
	lower := strings.ToLower(postedAt)
	return strings.Contains(lower, "just now") ||
		strings.Contains(lower, "hour") ||
		strings.Contains(lower, "min")
}

// IsNew prefers the structured timestamp and falls back to IsNewLabel.
func IsNew(l Listing, now time.Time) bool {
	if l.Timestamp <= 0 {
		return IsNewLabel(l.PostedAt)
	}
	age := now.Sub(time.Unix(l.Timestamp, 0))
	return age < NewWindow
}
