package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Tiliavir/pronto/internal/model"
	"github.com/Tiliavir/pronto/internal/timecalc"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS day_records (
		date TEXT PRIMARY KEY,
		note TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS stamps (
		id       TEXT NOT NULL,
		date     TEXT NOT NULL REFERENCES day_records(date) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		time     TEXT NOT NULL,
		type     TEXT NOT NULL,
		kind     TEXT NOT NULL DEFAULT '',
		photo    TEXT,
		PRIMARY KEY (date, id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_stamps_date ON stamps(date, position)`,
}

// SQLiteStore keeps day records in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// SQLitePath returns the database location inside a data directory.
func SQLitePath(dataDir string) string {
	return filepath.Join(dataDir, "pronto.db")
}

// OpenSQLite opens (creating if needed) the database at path and runs
// migrations. ":memory:" opens a private in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == ":memory:" {
		// Every pooled connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	for _, pragma := range []string{"PRAGMA journal_mode = WAL", "PRAGMA foreign_keys = ON"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// LoadDay returns the record for day, or an empty record if none exists.
func (s *SQLiteStore) LoadDay(ctx context.Context, day time.Time) (model.DayRecord, error) {
	rec := emptyDay(day)

	err := s.db.QueryRowContext(ctx, `SELECT note FROM day_records WHERE date = ?`, rec.Date).Scan(&rec.Note)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, nil
	}
	if err != nil {
		return model.DayRecord{}, fmt.Errorf("loading day %s: %w", rec.Date, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, time, type, kind, photo FROM stamps WHERE date = ? ORDER BY position`, rec.Date)
	if err != nil {
		return model.DayRecord{}, fmt.Errorf("listing stamps for %s: %w", rec.Date, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			st    model.Stamp
			photo sql.NullString
		)
		if err := rows.Scan(&st.ID, &st.Time, &st.Type, &st.Kind, &photo); err != nil {
			return model.DayRecord{}, fmt.Errorf("scanning stamp: %w", err)
		}
		if photo.Valid {
			p := photo.String
			st.Photo = &p
		}
		rec.Entries = append(rec.Entries, st)
	}
	if err := rows.Err(); err != nil {
		return model.DayRecord{}, fmt.Errorf("iterating stamps: %w", err)
	}
	return rec, nil
}

// SaveDay replaces the day's note and stamps in one transaction.
func (s *SQLiteStore) SaveDay(ctx context.Context, rec model.DayRecord) error {
	if _, err := timecalc.ParseDate(rec.Date, time.Local); err != nil {
		return fmt.Errorf("storage error: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO day_records (date, note) VALUES (?, ?)
		 ON CONFLICT(date) DO UPDATE SET note = excluded.note`,
		rec.Date, rec.Note,
	); err != nil {
		return fmt.Errorf("upserting day %s: %w", rec.Date, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM stamps WHERE date = ?`, rec.Date); err != nil {
		return fmt.Errorf("clearing stamps for %s: %w", rec.Date, err)
	}
	for i, st := range rec.Entries {
		var photo sql.NullString
		if st.Photo != nil {
			photo = sql.NullString{String: *st.Photo, Valid: true}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO stamps (id, date, position, time, type, kind, photo) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			st.ID, rec.Date, i, st.Time, st.Type, st.Kind, photo,
		); err != nil {
			return fmt.Errorf("inserting stamp %s: %w", st.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing day %s: %w", rec.Date, err)
	}
	committed = true
	return nil
}

// LoadRange loads all records in [from, to] inclusive.
func (s *SQLiteStore) LoadRange(ctx context.Context, from, to time.Time) ([]model.DayRecord, error) {
	return loadRange(ctx, s, from, to)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
