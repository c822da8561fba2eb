package engine

import "sort"

// Session is one scheduled unit of required work. It is either a Duration
// or a Range; the set of implementations is closed.
type Session interface {
	// Length is the session's required work in minutes, never negative.
	Length() int
	isSession()
}

// Duration is a fixed amount of work with no clock position.
type Duration struct {
	Minutes int
}

// Length implements Session.
func (d Duration) Length() int {
	return max(0, d.Minutes)
}

func (Duration) isSession() {}

// Range is a fixed clock window. Overnight ranges are not supported: an End
// before Start has zero length.
type Range struct {
	Start int
	End   int
}

// Length implements Session.
func (r Range) Length() int {
	return max(0, r.End-r.Start)
}

func (Range) isSession() {}

// Schedule is a day's ordered list of target sessions.
type Schedule []Session

// Total sums the length of every session.
func (s Schedule) Total() int {
	total := 0
	for _, sess := range s {
		if sess == nil {
			continue
		}
		total += sess.Length()
	}
	return total
}

// Ranges returns the Range sessions ordered by start.
func (s Schedule) Ranges() []Range {
	var ranges []Range
	for _, sess := range s {
		switch v := sess.(type) {
		case Range:
			ranges = append(ranges, v)
		case Duration:
			// no clock position
		}
	}
	sort.SliceStable(ranges, func(i, j int) bool {
		return ranges[i].Start < ranges[j].Start
	})
	return ranges
}
