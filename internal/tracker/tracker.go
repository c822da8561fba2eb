// Package tracker implements the day-record use cases: adding, editing and
// deleting stamps, notes, and computing the statistics shown for a day or week.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Tiliavir/pronto/internal/config"
	"github.com/Tiliavir/pronto/internal/engine"
	"github.com/Tiliavir/pronto/internal/label"
	"github.com/Tiliavir/pronto/internal/model"
	"github.com/Tiliavir/pronto/internal/schedule"
	"github.com/Tiliavir/pronto/internal/storage"
	"github.com/Tiliavir/pronto/internal/timecalc"
)

var (
	// ErrStampNotFound is returned when no stamp with the given id exists on the day.
	ErrStampNotFound = errors.New("stamp not found")
	// ErrInvalidTime is returned for stamp times that are not HH:MM.
	ErrInvalidTime = errors.New("invalid time")
)

// Editable stamp fields.
const (
	FieldTime  = "time"
	FieldType  = "type"
	FieldPhoto = "photo"
)

// Tracker applies use cases against a Store using the given configuration.
type Tracker struct {
	store storage.Store
	cfg   config.Config
	log   *zap.SugaredLogger
	newID func() string
}

// New creates a Tracker.
func New(store storage.Store, cfg config.Config, log *zap.SugaredLogger) *Tracker {
	return &Tracker{
		store: store,
		cfg:   cfg,
		log:   log,
		newID: func() string { return uuid.NewString() },
	}
}

// DayView is a day's record with its computed statistics.
type DayView struct {
	Date      time.Time
	Record    model.DayRecord
	Schedule  engine.Schedule
	Tolerance int
	IsToday   bool
	Semester  string
	Stats     engine.DailyResult
}

// WeekView holds the ISO week containing a date.
type WeekView struct {
	Label        string
	Days         []DayView
	WorkedTotal  int
	TargetTotal  int
	BalanceTotal int
}

// Day loads the record for date and evaluates it against the resolved
// schedule. now is the single clock sample used for the whole evaluation.
func (t *Tracker) Day(ctx context.Context, date, now time.Time) (DayView, error) {
	rec, err := t.store.LoadDay(ctx, date)
	if err != nil {
		return DayView{}, err
	}
	return t.view(date, rec, now), nil
}

func (t *Tracker) view(date time.Time, rec model.DayRecord, now time.Time) DayView {
	sched := schedule.Resolve(t.cfg, date)
	tolerance := schedule.Tolerance(t.cfg)
	isToday := timecalc.SameDay(date, now)

	v := DayView{
		Date:      date,
		Record:    rec,
		Schedule:  sched,
		Tolerance: tolerance,
		IsToday:   isToday,
		Stats:     engine.ComputeDailyStats(rec.EngineStamps(), sched, tolerance, isToday, now),
	}
	if s := schedule.ActiveSemester(t.cfg, date); s != nil {
		v.Semester = s.Name
	}
	return v
}

// Week evaluates every day of the ISO week containing date.
func (t *Tracker) Week(ctx context.Context, date, now time.Time) (WeekView, error) {
	from, to := timecalc.WeekRange(date)
	records, err := t.store.LoadRange(ctx, from, to)
	if err != nil {
		return WeekView{}, err
	}

	w := WeekView{Label: timecalc.ISOWeekLabel(date)}
	for i, rec := range records {
		v := t.view(from.AddDate(0, 0, i), rec, now)
		w.Days = append(w.Days, v)
		w.WorkedTotal += v.Stats.WorkedMinutes
		w.TargetTotal += v.Stats.TotalTargetMinutes
		w.BalanceTotal += v.Stats.BalanceMinutes
	}
	return w, nil
}

// AddStamp appends a stamp to the day. The kind is derived from the label once, here.
func (t *Tracker) AddStamp(ctx context.Context, date time.Time, hhmm, lbl string, photo *string) (model.Stamp, error) {
	if err := checkTime(hhmm); err != nil {
		return model.Stamp{}, err
	}
	rec, err := t.store.LoadDay(ctx, date)
	if err != nil {
		return model.Stamp{}, err
	}
	return t.addStamp(ctx, rec, hhmm, lbl, label.Classify(lbl), photo)
}

// AddKind appends an explicit entry or exit stamp, numbered after the day's
// existing stamps of that kind.
func (t *Tracker) AddKind(ctx context.Context, date time.Time, hhmm string, kind engine.Kind) (model.Stamp, error) {
	if err := checkTime(hhmm); err != nil {
		return model.Stamp{}, err
	}
	rec, err := t.store.LoadDay(ctx, date)
	if err != nil {
		return model.Stamp{}, err
	}
	n := 1
	for _, e := range rec.Entries {
		if e.EngineKind() == kind {
			n++
		}
	}
	return t.addStamp(ctx, rec, hhmm, label.For(kind, n, t.cfg.Language), kind, nil)
}

// QuickStamp records the current minute, alternating entry and exit by the
// number of stamps already on the day.
func (t *Tracker) QuickStamp(ctx context.Context, now time.Time) (model.Stamp, error) {
	rec, err := t.store.LoadDay(ctx, now)
	if err != nil {
		return model.Stamp{}, err
	}
	lbl := label.Next(len(rec.Entries), t.cfg.Language)
	return t.addStamp(ctx, rec, now.Format("15:04"), lbl, label.Classify(lbl), nil)
}

func (t *Tracker) addStamp(ctx context.Context, rec model.DayRecord, hhmm, lbl string, kind engine.Kind, photo *string) (model.Stamp, error) {
	st := model.Stamp{
		ID:    t.newID(),
		Time:  hhmm,
		Type:  lbl,
		Kind:  kindName(kind),
		Photo: photo,
	}
	rec.Entries = append(rec.Entries, st)
	if err := t.store.SaveDay(ctx, rec); err != nil {
		return model.Stamp{}, err
	}
	t.log.Debugw("stamp added", "date", rec.Date, "id", st.ID, "time", st.Time, "kind", st.Kind)
	return st, nil
}

// UpdateStamp sets one field of a stamp. Relabelling re-derives the kind.
func (t *Tracker) UpdateStamp(ctx context.Context, date time.Time, id, field, value string) (model.Stamp, error) {
	rec, err := t.store.LoadDay(ctx, date)
	if err != nil {
		return model.Stamp{}, err
	}
	i := rec.FindStamp(id)
	if i < 0 {
		return model.Stamp{}, fmt.Errorf("%w: %s on %s", ErrStampNotFound, id, rec.Date)
	}

	st := &rec.Entries[i]
	switch field {
	case FieldTime:
		if err := checkTime(value); err != nil {
			return model.Stamp{}, err
		}
		st.Time = value
	case FieldType:
		st.Type = value
		st.Kind = kindName(label.Classify(value))
	case FieldPhoto:
		if value == "" {
			st.Photo = nil
		} else {
			st.Photo = &value
		}
	default:
		return model.Stamp{}, fmt.Errorf("unknown stamp field %q", field)
	}

	if err := t.store.SaveDay(ctx, rec); err != nil {
		return model.Stamp{}, err
	}
	t.log.Debugw("stamp updated", "date", rec.Date, "id", id, "field", field)
	return *st, nil
}

// DeleteStamp removes a stamp from the day.
func (t *Tracker) DeleteStamp(ctx context.Context, date time.Time, id string) error {
	rec, err := t.store.LoadDay(ctx, date)
	if err != nil {
		return err
	}
	i := rec.FindStamp(id)
	if i < 0 {
		return fmt.Errorf("%w: %s on %s", ErrStampNotFound, id, rec.Date)
	}
	rec.Entries = append(rec.Entries[:i], rec.Entries[i+1:]...)
	if err := t.store.SaveDay(ctx, rec); err != nil {
		return err
	}
	t.log.Debugw("stamp deleted", "date", rec.Date, "id", id)
	return nil
}

// SetNote replaces the day's note.
func (t *Tracker) SetNote(ctx context.Context, date time.Time, note string) error {
	rec, err := t.store.LoadDay(ctx, date)
	if err != nil {
		return err
	}
	rec.Note = note
	return t.store.SaveDay(ctx, rec)
}

// checkTime accepts strict HH:MM. The engine itself reads malformed times as
// midnight, so they are rejected before they are stored.
func checkTime(hhmm string) error {
	if _, err := time.Parse("15:04", strings.TrimSpace(hhmm)); err != nil || len(hhmm) != 5 {
		return fmt.Errorf("%w %q: want HH:MM", ErrInvalidTime, hhmm)
	}
	return nil
}

func kindName(k engine.Kind) string {
	if k == engine.KindNone {
		return ""
	}
	return k.String()
}
