package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Tiliavir/pronto/internal/config"
	"github.com/Tiliavir/pronto/internal/model"
	"github.com/Tiliavir/pronto/internal/timecalc"
)

// ErrCorrupt is returned when a stored day cannot be decoded.
var ErrCorrupt = errors.New("corrupt day record")

// Store persists one DayRecord per calendar day.
type Store interface {
	// LoadDay returns the record for day, or an empty record if none exists.
	LoadDay(ctx context.Context, day time.Time) (model.DayRecord, error)
	// SaveDay replaces the stored record for rec.Date.
	SaveDay(ctx context.Context, rec model.DayRecord) error
	// LoadRange returns the records of every day in [from, to], empty days included.
	LoadRange(ctx context.Context, from, to time.Time) ([]model.DayRecord, error)
	Close() error
}

// Open returns the backend selected by cfg.Backend rooted at cfg.DataDir.
func Open(cfg config.Config, log *zap.SugaredLogger) (Store, error) {
	switch cfg.Backend {
	case "", "file":
		log.Debugw("opening file store", "dir", cfg.DataDir)
		return NewFileStore(cfg.DataDir), nil
	case "sqlite":
		path := SQLitePath(cfg.DataDir)
		log.Debugw("opening sqlite store", "path", path)
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func emptyDay(day time.Time) model.DayRecord {
	return model.DayRecord{Date: day.Format(timecalc.DateLayout), Entries: []model.Stamp{}}
}

func loadRange(ctx context.Context, s Store, from, to time.Time) ([]model.DayRecord, error) {
	var records []model.DayRecord
	for d := timecalc.StartOfDay(from); !d.After(to); d = d.AddDate(0, 0, 1) {
		rec, err := s.LoadDay(ctx, d)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
