// Package clock converts between "HH:MM" time-of-day labels and minutes after
// midnight. All slot and booking arithmetic is done in minutes.
package clock

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalid is returned for anything that isn't a 24-hour HH:MM label.
var ErrInvalid = errors.New("time must be HH:MM")

// DateLayout is the YYYY-MM-DD layout used for game and booking dates.
const DateLayout = "2006-01-02"

// MinutesPerDay bounds every parsed value.
const MinutesPerDay = 24 * 60

// Parse returns the minutes after midnight for s. "24:00" is accepted as the
// end of the day so a turf can close at midnight.
func Parse(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	h, ok1 := twoDigits(s[0], s[1])
	m, ok2 := twoDigits(s[3], s[4])
	if !ok1 || !ok2 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	return h*60 + m, nil
}

func twoDigits(a, b byte) (int, bool) {
	if a < '0' || a > '9' || b < '0' || b > '9' {
		return 0, false
	}
	return int(a-'0')*10 + int(b-'0'), true
}

// Format renders minutes after midnight as HH:MM.
func Format(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ValidDate reports whether s is a YYYY-MM-DD calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
