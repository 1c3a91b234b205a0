// Package timegrid converts between wall-clock time strings and minute
// offsets since midnight. All times are doctor-local strings stored
// verbatim; there is no timezone handling here.
package timegrid

import (
	"fmt"
	"strconv"
	"strings"
)

// ToMinutes parses an "HH:MM" or "HH:MM:SS" clock string into minutes
// since midnight. Seconds, when present, are ignored.
func ToMinutes(clock string) (int, error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid time %q: want HH:MM or HH:MM:SS", clock)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", clock, err)
	}
	mins, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", clock, err)
	}
	if hours < 0 || hours > 23 || mins < 0 || mins > 59 {
		return 0, fmt.Errorf("invalid time %q: out of range", clock)
	}
	return hours*60 + mins, nil
}

// FromMinutes formats minutes since midnight as a zero-padded
// "HH:MM:SS" string.
func FromMinutes(minutes int) string {
	return fmt.Sprintf("%02d:%02d:00", minutes/60, minutes%60)
}

// Overlaps reports whether the interval [aStart, aEnd) overlaps
// [bStart, bEnd). Abutting intervals do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return (aStart >= bStart && aStart < bEnd) ||
		(aEnd > bStart && aEnd <= bEnd) ||
		(aStart <= bStart && aEnd >= bEnd)
}
