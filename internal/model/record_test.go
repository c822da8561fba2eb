package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/pronto/internal/engine"
	"github.com/Tiliavir/pronto/internal/model"
)

func TestEngineStamps(t *testing.T) {
	rec := model.DayRecord{
		Date: "2026-02-27",
		Entries: []model.Stamp{
			{ID: "a", Time: "08:00", Type: "Entrada 1", Kind: "entry"},
			{ID: "b", Time: "12:00", Type: "Out 1"},
			{ID: "c", Time: "13:00", Type: "Lunch back", Kind: "entry"},
			{ID: "d", Time: "14:00", Type: "coffee"},
		},
	}

	stamps := rec.EngineStamps()

	require.Len(t, stamps, 4)
	assert.Equal(t, engine.Stamp{ID: "a", Minute: 480, Kind: engine.KindEntry}, stamps[0])
	assert.Equal(t, engine.KindExit, stamps[1].Kind, "legacy record without kind is classified from its label")
	assert.Equal(t, engine.KindEntry, stamps[2].Kind, "stored kind wins over label")
	assert.Equal(t, engine.KindNone, stamps[3].Kind)
}

func TestFindStamp(t *testing.T) {
	rec := model.DayRecord{Entries: []model.Stamp{{ID: "a"}, {ID: "b"}}}

	assert.Equal(t, 1, rec.FindStamp("b"))
	assert.Equal(t, -1, rec.FindStamp("zzz"))
}

func TestDayRecordEqual(t *testing.T) {
	photo := "blob:1"
	other := "blob:2"
	a := model.DayRecord{Date: "2026-02-27", Note: "n", Entries: []model.Stamp{{ID: "1", Time: "08:00", Type: "In 1", Kind: "entry", Photo: &photo}}}
	b := a
	b.Entries = []model.Stamp{a.Entries[0]}

	assert.True(t, a.Equal(b))

	b.Entries[0].Photo = &other
	assert.False(t, a.Equal(b))

	b.Entries[0].Photo = nil
	assert.False(t, a.Equal(b))

	c := a
	c.Note = "changed"
	assert.False(t, a.Equal(c))
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, model.DayRecord{Date: "2026-02-27"}.IsEmpty())
	assert.False(t, model.DayRecord{Note: "x"}.IsEmpty())
}
