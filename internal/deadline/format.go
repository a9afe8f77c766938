package deadline

import (
	"strconv"
	"time"
)

// Format renders t the way deadlines are shown to users, e.g. "2025-10-22 23:40 UTC".
func Format(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04") + " UTC"
}

// Remaining renders the time left until end as "Xh Ym", clamped at zero.
func Remaining(end, now time.Time) string {
	d := end.Sub(now)
	if d < 0 {
		d = 0
	}
	hours := int64(d / time.Hour)
	minutes := int64((d % time.Hour) / time.Minute)
	return strconv.FormatInt(hours, 10) + "h " + strconv.FormatInt(minutes, 10) + "m"
}
