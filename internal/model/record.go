package model

import (
	"github.com/Tiliavir/pronto/internal/engine"
	"github.com/Tiliavir/pronto/internal/label"
	"github.com/Tiliavir/pronto/internal/timecalc"
)

// Stamp is a single persisted clock action.
type Stamp struct {
	ID   string `json:"id"`
	Time string `json:"time"` // HH:MM
	Type string `json:"type"` // free-text label, e.g. "Entrada 1"
	// Kind is "entry", "exit" or empty. It is set from Type when the stamp is
	// created or relabelled; records written without it are classified on read.
	Kind  string  `json:"kind,omitempty"`
	Photo *string `json:"photo,omitempty"`
}

// DayRecord is the top-level structure stored for each day.
type DayRecord struct {
	Date    string  `json:"date"`
	Entries []Stamp `json:"entries"`
	Note    string  `json:"note"`
}

// EngineKind returns the stamp's kind, classifying the label when no kind
// was stored.
func (s Stamp) EngineKind() engine.Kind {
	if s.Kind == "" {
		return label.Classify(s.Type)
	}
	return label.ParseKind(s.Kind)
}

// EngineStamps converts the record's entries for the engine.
func (r DayRecord) EngineStamps() []engine.Stamp {
	out := make([]engine.Stamp, 0, len(r.Entries))
	for _, e := range r.Entries {
		out = append(out, engine.Stamp{
			ID:     e.ID,
			Minute: timecalc.ParseTime(e.Time),
			Kind:   e.EngineKind(),
		})
	}
	return out
}

// FindStamp returns the index of the stamp with the given id, or -1.
func (r DayRecord) FindStamp(id string) int {
	for i, e := range r.Entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// Equal reports whether two records hold the same content.
func (r DayRecord) Equal(o DayRecord) bool {
	if r.Date != o.Date || r.Note != o.Note || len(r.Entries) != len(o.Entries) {
		return false
	}
	for i := range r.Entries {
		a, b := r.Entries[i], o.Entries[i]
		if a.ID != b.ID || a.Time != b.Time || a.Type != b.Type || a.Kind != b.Kind {
			return false
		}
		if (a.Photo == nil) != (b.Photo == nil) || (a.Photo != nil && *a.Photo != *b.Photo) {
			return false
		}
	}
	return true
}

// IsEmpty reports whether the record holds neither stamps nor a note.
func (r DayRecord) IsEmpty() bool {
	return len(r.Entries) == 0 && r.Note == ""
}
