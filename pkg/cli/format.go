package cli

import (
	"fmt"
	"math"
	"time"
)

// FormatDuration formats a duration to human readable string
func FormatDuration(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	secs := float64(ms) / 1000
	if secs < 60 {
		return fmt.Sprintf("%.1fs", secs)
	}
	mins := int(secs / 60)
	secs = secs - float64(mins*60)
	return fmt.Sprintf("%dm%.1fs", mins, secs)
}

// FormatDistance formats a cosine distance with four decimals, or "-" when
// no comparison was made.
func FormatDistance(d float64) string {
	if math.IsInf(d, 0) || math.IsNaN(d) {
		return "-"
	}
	return fmt.Sprintf("%.4f", d)
}

// FormatTime formats a timestamp in local time, or "-" for the zero time.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
