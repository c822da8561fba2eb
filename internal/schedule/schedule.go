// Package schedule resolves which target schedule applies to a given date.
package schedule

import (
	"time"

	"github.com/Tiliavir/pronto/internal/config"
	"github.com/Tiliavir/pronto/internal/engine"
	"github.com/Tiliavir/pronto/internal/timecalc"
)

// Resolve returns the day's schedule: the weekday targets of the first
// semester covering date, or the weekly defaults otherwise. Malformed
// sessions are skipped; Config.Validate rejects them up front.
func Resolve(cfg config.Config, date time.Time) engine.Schedule {
	week := cfg.WeeklyTargets
	if s := ActiveSemester(cfg, date); s != nil {
		week = s.WeeklyTargets
	}
	return forWeekday(week, date.Weekday())
}

// ActiveSemester returns the first semester whose inclusive date range
// contains date, or nil.
func ActiveSemester(cfg config.Config, date time.Time) *config.Semester {
	key := date.Format(timecalc.DateLayout)
	for i := range cfg.Semesters {
		s := &cfg.Semesters[i]
		if key >= s.StartDate && key <= s.EndDate {
			return s
		}
	}
	return nil
}

func forWeekday(week [][]config.TargetSpec, wd time.Weekday) engine.Schedule {
	if int(wd) >= len(week) {
		return engine.Schedule{}
	}
	specs := week[wd]
	out := make(engine.Schedule, 0, len(specs))
	for _, spec := range specs {
		sess, err := spec.Session()
		if err != nil {
			continue
		}
		out = append(out, sess)
	}
	return out
}

// Tolerance returns the configured grace minutes, never negative.
func Tolerance(cfg config.Config) int {
	return max(0, cfg.ToleranceMinutes)
}
