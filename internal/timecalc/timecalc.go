package timecalc

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MinutesPerDay is the length of a wall-clock day in minutes.
const MinutesPerDay = 1440

// ParseTime converts an "HH:MM" string into minutes since midnight.
// It never fails: a missing colon yields 0, and a part that is not a number
// counts as 0. Seconds, if present, are ignored.
func ParseTime(s string) int {
	if !strings.Contains(s, ":") {
		return 0
	}
	parts := strings.Split(s, ":")
	return atoiOrZero(parts[0])*60 + atoiOrZero(parts[1])
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

// FormatMinutes renders a minute count as "HH:MM", prefixed with "-" when m
// is negative. It formats the magnitude and does not wrap at 24h, so 1500
// renders as "25:00".
func FormatMinutes(m int) string {
	sign := ""
	if m < 0 {
		sign = "-"
		m = -m
	}
	return fmt.Sprintf("%s%02d:%02d", sign, m/60, m%60)
}

// WrapMinutes folds any minute count onto the [0, 1440) clock.
func WrapMinutes(m int) int {
	return ((m % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
}

// MinuteOfDay returns the wall-clock minute of t.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// FormatDuration formats minutes as a human-readable string like "7h 50m" or "45m".
// Negative values keep their sign: "-1h 5m".
func FormatDuration(minutes int) string {
	sign := ""
	if minutes < 0 {
		sign = "-"
		minutes = -minutes
	}
	h := minutes / 60
	m := minutes % 60
	if h > 0 {
		return fmt.Sprintf("%s%dh %dm", sign, h, m)
	}
	return fmt.Sprintf("%s%dm", sign, m)
}

// DateLayout is the layout of day keys ("2026-02-27").
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD day key in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

// WeekRange returns the Monday and Sunday of the ISO week containing t.
func WeekRange(t time.Time) (time.Time, time.Time) {
	// Go's weekday: Sunday=0, Monday=1, …, Saturday=6
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7 // treat Sunday as 7 (ISO)
	}
	monday := t.AddDate(0, 0, -(wd - 1))
	monday = time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, t.Location())
	sunday := monday.AddDate(0, 0, 6)
	sunday = time.Date(sunday.Year(), sunday.Month(), sunday.Day(), 23, 59, 59, 0, t.Location())
	return monday, sunday
}

// ISOWeekLabel returns a label like "2026-W09".
func ISOWeekLabel(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// StartOfDay returns 00:00:00 of the same day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59 of the same day.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
