package deadline

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Hint lists the accepted deadline formats. It is shown to users alongside parse failures.
const Hint = "Try formats like '8h', '8h30m', '45m', '1d2h', or a datetime like '2025-10-22 23:40'."

// ErrInvalidDeadline matches every *ParseError via errors.Is.
var ErrInvalidDeadline = errors.New("invalid deadline")

// ParseError is returned when a deadline string cannot be turned into an expiry.
// Its message is meant to be shown to the user verbatim.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return e.Reason + " " + Hint
}

func (e *ParseError) Is(target error) bool {
	return target == ErrInvalidDeadline
}

var _ error = (*ParseError)(nil)

// absoluteLayouts is tried in order. None of them accepts a compact duration
// token like "8h" or "45m", so durations always fall through to the relative syntax.
var absoluteLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04Z07:00",
	"2006-01-02 15:04:05 Z07:00",
	"2006-01-02 15:04 Z07:00",
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04 MST",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	"Jan 2 2006 15:04",
	"Jan 2, 2006 15:04",
	"2 Jan 2006 15:04",
}

var durationPattern = regexp.MustCompile(`(?i)^(?:(\d+)\s*d)?\s*(?:(\d+)\s*h)?\s*(?:(\d+)\s*m)?\s*(?:(\d+)\s*s)?$`)

// Parse returns the UTC instant described by input.
// Absolute timestamps are returned as-is, even when they lie before now;
// relative durations are added to now.
func Parse(input string, now time.Time) (time.Time, error) {
	s := strings.TrimSpace(input)

	if t, ok := parseAbsolute(s); ok {
		return t, nil
	}

	d, err := parseDuration(s)
	if err != nil {
		return time.Time{}, err
	}
	return now.UTC().Add(d), nil
}

func parseAbsolute(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range absoluteLayouts {
		// Layouts without a zone element parse as UTC.
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

var units = []time.Duration{24 * time.Hour, time.Hour, time.Minute, time.Second}

func parseDuration(s string) (time.Duration, error) {
	m := durationPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, &ParseError{Input: s, Reason: "Could not parse duration."}
	}

	const maxSeconds = math.MaxInt64 / int64(time.Second)
	var total int64
	for i, unit := range units {
		group := m[i+1]
		if group == "" {
			continue
		}
		n, err := strconv.ParseInt(group, 10, 64)
		if err != nil {
			return 0, &ParseError{Input: s, Reason: "Duration is too long."}
		}
		perUnit := int64(unit / time.Second)
		if n > (maxSeconds-total)/perUnit {
			return 0, &ParseError{Input: s, Reason: "Duration is too long."}
		}
		total += n * perUnit
	}

	if total <= 0 {
		return 0, &ParseError{Input: s, Reason: "Duration must be > 0."}
	}
	return time.Duration(total) * time.Second, nil
}
