package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Tiliavir/pronto/internal/model"
	"github.com/Tiliavir/pronto/internal/timecalc"
)

// FileStore keeps one JSON file per day under base/YYYY/MM/DD.json.
type FileStore struct {
	base string
}

// NewFileStore returns a FileStore rooted at base.
func NewFileStore(base string) *FileStore {
	return &FileStore{base: base}
}

// DayFilePath returns the path for the given date's JSON file.
func DayFilePath(base string, t time.Time) string {
	return filepath.Join(base, t.Format("2006"), t.Format("01"), t.Format("02")+".json")
}

// LoadDay loads the record for the given date. Returns an empty record if not found.
func (s *FileStore) LoadDay(_ context.Context, t time.Time) (model.DayRecord, error) {
	path := DayFilePath(s.base, t)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return emptyDay(t), nil
	}
	if err != nil {
		return model.DayRecord{}, fmt.Errorf("storage error reading %s: %w", path, err)
	}

	var rec model.DayRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		// Back up corrupt file and abort.
		backupPath := path + ".corrupt"
		_ = os.Rename(path, backupPath)
		return model.DayRecord{}, fmt.Errorf("%w: %s (backed up to %s): %v", ErrCorrupt, path, backupPath, err)
	}
	if rec.Entries == nil {
		rec.Entries = []model.Stamp{}
	}
	return rec, nil
}

// SaveDay atomically writes the record to its day file.
func (s *FileStore) SaveDay(_ context.Context, rec model.DayRecord) error {
	day, err := timecalc.ParseDate(rec.Date, time.Local)
	if err != nil {
		return fmt.Errorf("storage error: %w", err)
	}
	path := DayFilePath(s.base, day)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("storage error creating directories: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("storage error marshalling JSON: %w", err)
	}

	// Atomic write: write to temp file then rename.
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("storage error writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("storage error renaming temp file: %w", err)
	}
	return nil
}

// LoadRange loads all records in [from, to] inclusive.
func (s *FileStore) LoadRange(ctx context.Context, from, to time.Time) ([]model.DayRecord, error) {
	return loadRange(ctx, s, from, to)
}

// Close implements Store; a FileStore holds no resources.
func (s *FileStore) Close() error {
	return nil
}
