// Package engine turns a day's clock stamps and target schedule into worked
// time, balance and a predicted clock-out minute. It performs no I/O and holds
// no state; every function is safe for concurrent use.
package engine

import (
	"sort"
	"time"

	"github.com/Tiliavir/pronto/internal/timecalc"
)

// Kind classifies a stamp.
type Kind int

const (
	// KindNone marks a stamp the reducer ignores.
	KindNone Kind = iota
	KindEntry
	KindExit
)

func (k Kind) String() string {
	switch k {
	case KindEntry:
		return "entry"
	case KindExit:
		return "exit"
	default:
		return "none"
	}
}

// Stamp is a single clock action at a wall-clock minute.
type Stamp struct {
	ID     string
	Minute int
	Kind   Kind
}

// Tally is the outcome of walking a day's stamps.
type Tally struct {
	WorkedMinutes     int
	IsOpen            bool
	LastEntryMinute   *int
	CompletedSessions int
}

// DailyResult holds the statistics computed for one day.
type DailyResult struct {
	WorkedMinutes  int
	BalanceMinutes int
	// PredictedExitMinute may exceed 1440 when the predicted exit is past midnight.
	PredictedExitMinute *int
	IsSessionOpen       bool
	TotalTargetMinutes  int
	CompletedSessions   int
	LastEntryMinute     *int
}

// Reduce walks the stamps in time order and sums closed sessions. A new
// entry supersedes an unmatched earlier one; an exit without an open entry
// is dropped. When the day ends open and it began with such an exit, that
// exit closes the last entry on the next day.
func Reduce(stamps []Stamp) Tally {
	sorted := make([]Stamp, len(stamps))
	copy(sorted, stamps)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Minute < sorted[j].Minute
	})

	var (
		t           Tally
		lastEntry   int
		seenEntry   bool
		leadingExit *int
	)
	for _, s := range sorted {
		switch s.Kind {
		case KindEntry:
			lastEntry = s.Minute
			t.IsOpen = true
			seenEntry = true
		case KindExit:
			if !t.IsOpen {
				if !seenEntry && leadingExit == nil {
					m := s.Minute
					leadingExit = &m
				}
				continue
			}
			t.WorkedMinutes += s.Minute - lastEntry
			t.IsOpen = false
			t.CompletedSessions++
		}
	}
	if t.IsOpen && leadingExit != nil && *leadingExit < lastEntry {
		t.WorkedMinutes += *leadingExit + timecalc.MinutesPerDay - lastEntry
		t.IsOpen = false
		t.CompletedSessions++
	}
	if t.IsOpen {
		t.LastEntryMinute = &lastEntry
	}
	return t
}

// ComputeDailyStats evaluates a day. now is sampled once by the caller and
// only matters when isToday is set and a session is still open. Negative
// tolerance is treated as zero.
func ComputeDailyStats(stamps []Stamp, schedule Schedule, tolerance int, isToday bool, now time.Time) DailyResult {
	tally := Reduce(stamps)
	total := schedule.Total()

	worked := tally.WorkedMinutes
	if tally.IsOpen && isToday {
		worked += max(0, timecalc.MinuteOfDay(now)-*tally.LastEntryMinute)
	}

	effectiveTarget := max(0, total-max(0, tolerance))

	res := DailyResult{
		WorkedMinutes:      worked,
		BalanceMinutes:     worked - effectiveTarget,
		IsSessionOpen:      tally.IsOpen,
		TotalTargetMinutes: total,
		CompletedSessions:  tally.CompletedSessions,
		LastEntryMinute:    tally.LastEntryMinute,
	}
	if tally.IsOpen {
		res.PredictedExitMinute = predictExit(*tally.LastEntryMinute, tally.WorkedMinutes, schedule)
	}
	return res
}

// predictExit anchors the length of the shift the current clock-in belongs to
// at the actual clock-in minute. Without a matching range the rest of the
// day's target is added instead. closedWorked excludes the open session.
func predictExit(lastEntry, closedWorked int, schedule Schedule) *int {
	remaining := max(0, schedule.Total()-closedWorked)
	if remaining == 0 {
		return nil
	}

	prediction := lastEntry + remaining
	for _, r := range schedule.Ranges() {
		if r.End > lastEntry {
			prediction = lastEntry + r.Length()
			break
		}
	}
	return &prediction
}
