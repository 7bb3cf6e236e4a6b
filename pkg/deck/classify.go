package deck

import (
	"time"

	"github.com/markusbegerow/feeddeck/pkg/domain"
)

// classify annotates entries with their novelty against the feed's last-seen
// watermark. The comparison is strictly greater-than: an entry published
// exactly at the watermark is old, and an entry with no publish date (zero
// time) can never be new. The bias is towards under-notifying.
func classify(entries []domain.Entry, lastSeen time.Time) []domain.Entry {
	for i := range entries {
		entries[i].IsNew = !entries[i].Published.IsZero() && entries[i].Published.After(lastSeen)
	}
	return entries
}

// parseSeen turns a persisted watermark into a time. Absent or malformed
// values fall back to the zero time, which marks everything dated as new on
// the first pass over a feed.
func parseSeen(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
