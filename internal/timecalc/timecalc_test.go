package timecalc_test

import (
	"testing"
	"time"

	"github.com/Tiliavir/pronto/internal/timecalc"
)

func TestParseTime(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"00:00", 0},
		{"07:50", 470},
		{"10:50", 650},
		{"23:59", 1439},
		{"8:5", 485},
		{"12:30:45", 750},
		{" 09 : 15 ", 555},
	}
	for _, tt := range tests {
		got := timecalc.ParseTime(tt.input)
		if got != tt.want {
			t.Errorf("ParseTime(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

// Malformed input is indistinguishable from midnight. Callers that persist
// garbled times silently misattribute them to 00:00.
func TestParseTimeMalformedDecodesToMidnight(t *testing.T) {
	for _, input := range []string{"", "garbage", ":", "ab:cd", "::"} {
		if got := timecalc.ParseTime(input); got != 0 {
			t.Errorf("ParseTime(%q) = %d, want 0", input, got)
		}
	}
}

func TestParseTimePartialGarbage(t *testing.T) {
	if got := timecalc.ParseTime("xx:30"); got != 30 {
		t.Errorf("ParseTime(%q) = %d, want 30", "xx:30", got)
	}
	if got := timecalc.ParseTime("09:"); got != 540 {
		t.Errorf("ParseTime(%q) = %d, want 540", "09:", got)
	}
}

func TestFormatMinutes(t *testing.T) {
	tests := []struct {
		minutes int
		want    string
	}{
		{0, "00:00"},
		{5, "00:05"},
		{470, "07:50"},
		{1439, "23:59"},
		{1500, "25:00"},
		{-90, "-01:30"},
		{-5, "-00:05"},
	}
	for _, tt := range tests {
		got := timecalc.FormatMinutes(tt.minutes)
		if got != tt.want {
			t.Errorf("FormatMinutes(%d) = %q, want %q", tt.minutes, got, tt.want)
		}
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	for m := 0; m < timecalc.MinutesPerDay; m++ {
		if got := timecalc.ParseTime(timecalc.FormatMinutes(m)); got != m {
			t.Fatalf("round trip of %d gave %d", m, got)
		}
	}
}

func TestWrapMinutes(t *testing.T) {
	tests := []struct {
		minutes int
		want    int
	}{
		{0, 0},
		{1439, 1439},
		{1440, 0},
		{1500, 60},
		{-30, 1410},
	}
	for _, tt := range tests {
		if got := timecalc.WrapMinutes(tt.minutes); got != tt.want {
			t.Errorf("WrapMinutes(%d) = %d, want %d", tt.minutes, got, tt.want)
		}
	}
}

func TestMinuteOfDay(t *testing.T) {
	ts := time.Date(2026, 2, 27, 10, 42, 59, 0, time.UTC)
	if got := timecalc.MinuteOfDay(ts); got != 642 {
		t.Errorf("MinuteOfDay = %d, want 642", got)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		minutes int
		want    string
	}{
		{0, "0m"},
		{45, "45m"},
		{60, "1h 0m"},
		{470, "7h 50m"},
		{-65, "-1h 5m"},
	}
	for _, tt := range tests {
		got := timecalc.FormatDuration(tt.minutes)
		if got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.minutes, got, tt.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := timecalc.ParseDate("2026-02-27", time.UTC)
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if !d.Equal(time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("ParseDate = %v", d)
	}
	if _, err := timecalc.ParseDate("27.02.2026", time.UTC); err == nil {
		t.Error("expected error for malformed date")
	}
}

func TestWeekRange(t *testing.T) {
	// 2026-02-27 is a Friday (week 9).
	fri := time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC)
	monday, sunday := timecalc.WeekRange(fri)

	wantMonday := time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC)
	wantSunday := time.Date(2026, 3, 1, 23, 59, 59, 0, time.UTC)

	if !monday.Equal(wantMonday) {
		t.Errorf("WeekRange monday = %v, want %v", monday, wantMonday)
	}
	if !sunday.Equal(wantSunday) {
		t.Errorf("WeekRange sunday = %v, want %v", sunday, wantSunday)
	}
}

func TestISOWeekLabel(t *testing.T) {
	fri := time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC)
	got := timecalc.ISOWeekLabel(fri)
	if got != "2026-W09" {
		t.Errorf("ISOWeekLabel = %q, want %q", got, "2026-W09")
	}
}

func TestSameDay(t *testing.T) {
	a := time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC)
	b := time.Date(2026, 2, 27, 23, 59, 59, 0, time.UTC)
	c := time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)

	if !timecalc.SameDay(a, b) {
		t.Error("SameDay: expected same day for a and b")
	}
	if timecalc.SameDay(a, c) {
		t.Error("SameDay: expected different day for a and c")
	}
}
