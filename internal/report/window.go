package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hongminglow/carecrate/internal/feed"
)

// DefaultDays is the window length used when no range is given.
const DefaultDays = 7

// ParseBound accepts a calendar day (2006-01-02, midnight in loc), an
// RFC 3339 timestamp, or Unix milliseconds.
func ParseBound(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation(dayLayout, raw, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.UnixMilli(ms), nil
	}
	return time.Time{}, fmt.Errorf("%w: cannot parse %q as a date, RFC 3339 time or milliseconds", ErrInvalidRange, raw)
}

// Window resolves optional from/to strings. Missing ends default to the
// last DefaultDays days, today included.
func Window(fromRaw, toRaw string, now time.Time, loc *time.Location) (from, to time.Time, err error) {
	if loc == nil {
		loc = time.UTC
	}
	to = feed.StartOfDay(now, loc).AddDate(0, 0, 1)
	if toRaw != "" {
		if to, err = ParseBound(toRaw, loc); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	from = to.AddDate(0, 0, -DefaultDays)
	if fromRaw != "" {
		if from, err = ParseBound(fromRaw, loc); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, ErrInvalidRange
	}
	return from, to, nil
}
