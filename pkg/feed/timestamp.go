package feed

import (
	"fmt"
	"time"
)

// FormatTimestamp renders t relative to now. Times older than a week are
// shown as a short month and day, e.g. "Jan 2". Zero and future times read
// "Just now".
func FormatTimestamp(t, now time.Time) string {
	if t.IsZero() {
		return "Just now"
	}

	diff := int64(now.Sub(t) / time.Second)
	switch {
	case diff < 60:
		return "Just now"
	case diff < 3600:
		return fmt.Sprintf("%dm ago", diff/60)
	case diff < 86400:
		return fmt.Sprintf("%dh ago", diff/3600)
	case diff < 604800:
		return fmt.Sprintf("%dd ago", diff/86400)
	default:
		return t.In(now.Location()).Format("Jan 2")
	}
}
