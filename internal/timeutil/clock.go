// Package timeutil handles "HH:MM" clock labels, the wire format the
// calendar uses for times of day.
package timeutil

import (
	"fmt"
	"strconv"
	"strings"
)

const MinutesPerDay = 24 * 60

// Minutes parses an "HH:MM" label into minutes since midnight. Hours past 23
// are accepted: an appointment ending after midnight carries a label like
// "24:20".
func Minutes(label string) (int, error) {
	hh, mm, ok := splitClock(label)
	if !ok {
		return 0, fmt.Errorf("invalid time %q", label)
	}
	return hh*60 + mm, nil
}

// Hours returns the label as fractional hours (e.g. "10:30" -> 10.5).
func Hours(label string) (float64, error) {
	m, err := Minutes(label)
	if err != nil {
		return 0, err
	}
	return float64(m) / 60, nil
}

// Label renders minutes since midnight as a zero-padded "HH:MM". Input is
// clamped to [0, MinutesPerDay).
func Label(totalMinutes int) string {
	if totalMinutes < 0 {
		totalMinutes = 0
	}
	if totalMinutes >= MinutesPerDay {
		totalMinutes = MinutesPerDay - 1
	}
	return format(totalMinutes)
}

// EndOf adds durationMinutes to a start label. Rollover past midnight is
// allowed and rendered without clamping ("23:50" + 30 -> "24:20").
func EndOf(start string, durationMinutes int) (string, error) {
	m, err := Minutes(start)
	if err != nil {
		return "", err
	}
	if durationMinutes < 0 {
		return "", fmt.Errorf("negative duration %d", durationMinutes)
	}
	return format(m + durationMinutes), nil
}

func format(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

func splitClock(label string) (hh, mm int, ok bool) {
	parts := strings.SplitN(label, ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	hh, err := strconv.Atoi(parts[0])
	if err != nil || hh < 0 {
		return 0, 0, false
	}
	mm, err = strconv.Atoi(parts[1])
	if err != nil || mm < 0 || mm > 59 || len(parts[1]) != 2 {
		return 0, 0, false
	}
	return hh, mm, true
}
