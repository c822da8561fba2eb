package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/Tiliavir/pronto/internal/model"
	"github.com/Tiliavir/pronto/internal/remote"
	"github.com/Tiliavir/pronto/internal/storage"
	"github.com/Tiliavir/pronto/internal/tracker"
)

// 2026-02-27 is a Friday; the default week targets 480 minutes.
var testNow = time.Date(2026, 2, 27, 15, 5, 0, 0, time.Local)

type env struct {
	cfgPath string
	dataDir string
}

func newEnv(t *testing.T, extra string) env {
	t.Helper()
	dir := t.TempDir()
	e := env{
		cfgPath: filepath.Join(dir, "config.yaml"),
		dataDir: filepath.Join(dir, "data"),
	}
	yaml := "data_dir: " + e.dataDir + "\nlanguage: en\ntolerance_minutes: 10\n" + extra
	require.NoError(t, os.WriteFile(e.cfgPath, []byte(yaml), 0o600))

	prev := now
	now = func() time.Time { return testNow }
	t.Cleanup(func() { now = prev })
	return e
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func (e env) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--config", e.cfgPath}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func (e env) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	require.NoError(t, err, "pronto %s", strings.Join(args, " "))
	return out
}

func (e env) day(t *testing.T, date time.Time) model.DayRecord {
	t.Helper()
	rec, err := storage.NewFileStore(e.dataDir).LoadDay(context.Background(), date)
	require.NoError(t, err)
	return rec
}

func TestInOutStatus(t *testing.T) {
	e := newEnv(t, "")

	e.mustRun(t, "in", "08:10")
	e.mustRun(t, "out", "12:00")
	out := e.mustRun(t, "in", "13:05")
	assert.Contains(t, out, `"In 2" (entry)`)

	status := e.mustRun(t, "status")
	assert.Contains(t, status, "2026-02-27")
	assert.Contains(t, status, "Target:     08:00")
	assert.Contains(t, status, "Worked:     05:50")
	assert.Contains(t, status, "Balance:    -02:00 (tolerance 10m)")
	assert.Contains(t, status, "Session:    open")
	assert.Contains(t, status, "Leave at:   17:15")
}

func TestStatusSamplesClockOnce(t *testing.T) {
	e := newEnv(t, "")
	e.mustRun(t, "in", "08:00")

	calls := 0
	now = func() time.Time {
		calls++
		if calls == 1 {
			return time.Date(2026, 2, 27, 23, 59, 59, 0, time.Local)
		}
		return time.Date(2026, 2, 28, 0, 0, 1, 0, time.Local)
	}

	status := e.mustRun(t, "status")
	assert.Equal(t, 1, calls)
	assert.Contains(t, status, "2026-02-27")
	assert.Contains(t, status, "Worked:     15:59")
	assert.Contains(t, status, "Leave at:")
}

func TestQuickStampAlternates(t *testing.T) {
	e := newEnv(t, "")

	e.mustRun(t, "stamp")
	e.mustRun(t, "stamp")

	rec := e.day(t, testNow)
	require.Len(t, rec.Entries, 2)
	assert.Equal(t, "In 1", rec.Entries[0].Type)
	assert.Equal(t, "Out 1", rec.Entries[1].Type)
	assert.Equal(t, "15:05", rec.Entries[1].Time)
}

func TestStampWithFlags(t *testing.T) {
	e := newEnv(t, "")

	e.mustRun(t, "stamp", "--date", "2026-02-26", "--time", "09:00", "--label", "Entrada", "--photo", "blob:x")

	rec := e.day(t, testNow.AddDate(0, 0, -1))
	require.Len(t, rec.Entries, 1)
	assert.Equal(t, "entry", rec.Entries[0].Kind)
	require.NotNil(t, rec.Entries[0].Photo)
	assert.Equal(t, "blob:x", *rec.Entries[0].Photo)
}

func TestEditDeleteByPrefix(t *testing.T) {
	e := newEnv(t, "")
	e.mustRun(t, "in", "08:00")
	e.mustRun(t, "out", "12:00")

	rec := e.day(t, testNow)
	first, second := rec.Entries[0].ID, rec.Entries[1].ID

	e.mustRun(t, "edit", first[:8], "--time", "07:45", "--label", "Morning in")
	rec = e.day(t, testNow)
	assert.Equal(t, "07:45", rec.Entries[0].Time)
	assert.Equal(t, "Morning in", rec.Entries[0].Type)
	assert.Equal(t, "entry", rec.Entries[0].Kind)

	e.mustRun(t, "delete", second)
	rec = e.day(t, testNow)
	require.Len(t, rec.Entries, 1)
	assert.Equal(t, first, rec.Entries[0].ID)
}

func TestEditErrors(t *testing.T) {
	e := newEnv(t, "")
	e.mustRun(t, "in", "08:00")
	id := e.day(t, testNow).Entries[0].ID

	_, err := e.run(t, "edit", id)
	assert.Equal(t, 1, exitCode(err), "no field given")

	_, err = e.run(t, "edit", id, "--time", "8h")
	assert.ErrorIs(t, err, tracker.ErrInvalidTime)
	assert.Equal(t, 1, exitCode(err))

	_, err = e.run(t, "delete", "nope")
	assert.ErrorIs(t, err, tracker.ErrStampNotFound)
	assert.Equal(t, 1, exitCode(err))
}

func TestNote(t *testing.T) {
	e := newEnv(t, "")

	e.mustRun(t, "note", "left", "early")
	assert.Contains(t, e.mustRun(t, "status"), "Note: left early")

	e.mustRun(t, "note")
	assert.Empty(t, e.day(t, testNow).Note)
}

func TestListWeek(t *testing.T) {
	e := newEnv(t, "")
	assert.Contains(t, e.mustRun(t, "list", "--week"), "No stamps this week.")

	e.mustRun(t, "in", "08:00", "--date", "2026-02-23")
	out := e.mustRun(t, "list", "--week")
	assert.Contains(t, out, "2026-02-23")
	assert.Contains(t, out, "08:00  In 1")
	assert.NotContains(t, out, "2026-02-24")
}

func TestReportJSON(t *testing.T) {
	e := newEnv(t, "")
	e.mustRun(t, "in", "08:00", "--date", "2026-02-23")
	e.mustRun(t, "out", "17:00", "--date", "2026-02-23")

	out := e.mustRun(t, "report", "--format", "json")
	var r weekReport
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, "2026-W09", r.Week)
	require.Len(t, r.Days, 7)
	assert.Equal(t, 540, r.Days[0].WorkedMinutes)
	assert.Equal(t, 5*480, r.TargetMinutes)

	csv := e.mustRun(t, "report", "--format", "csv")
	assert.Contains(t, csv, "2026-02-23,540,480,70,")

	_, err := e.run(t, "report", "--format", "xml")
	assert.Equal(t, 1, exitCode(err))
}

func TestExportCSV(t *testing.T) {
	e := newEnv(t, "")
	e.mustRun(t, "stamp", "--time", "08:00", "--label", "In, main door")

	out := e.mustRun(t, "export")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "date,id,time,type,kind,photo", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "2026-02-27,"))
	assert.Contains(t, lines[1], `,08:00,"In, main door",entry,`)
}

func TestTargetSetAndTolerance(t *testing.T) {
	e := newEnv(t, "")

	e.mustRun(t, "target", "set", "mon", "08:00-12:00", "13:00-17:00")
	out := e.mustRun(t, "target", "--date", "2026-02-23")
	assert.Contains(t, out, "Sessions:  08:00-12:00, 13:00-17:00")
	assert.Contains(t, out, "Target:    08:00")

	e.mustRun(t, "target", "set", "sat")
	assert.Contains(t, e.mustRun(t, "target", "--date", "2026-02-28"), "Sessions:  none")

	_, err := e.run(t, "target", "set", "mon", "12:00-")
	assert.Equal(t, 1, exitCode(err))
	_, err = e.run(t, "target", "set", "someday", "480")
	assert.Equal(t, 1, exitCode(err))

	e.mustRun(t, "tolerance", "15")
	assert.Contains(t, e.mustRun(t, "tolerance"), "Tolerance: 15m")
	_, err = e.run(t, "tolerance", "-5")
	assert.Equal(t, 1, exitCode(err))
}

func TestSemesters(t *testing.T) {
	e := newEnv(t, "")
	assert.Contains(t, e.mustRun(t, "semester", "list"), "No semesters configured.")

	e.mustRun(t, "semester", "add", "2026.1", "2026-02-01", "2026-06-30")
	e.mustRun(t, "target", "set", "fri", "08:00-11:00", "--semester", "2026.1")

	out := e.mustRun(t, "target")
	assert.Contains(t, out, "semester 2026.1")
	assert.Contains(t, out, "Target:    03:00")

	// Outside the semester the default week still applies.
	assert.Contains(t, e.mustRun(t, "target", "--date", "2026-07-03"), "Target:    08:00")

	_, err := e.run(t, "semester", "add", "2026.1", "2026-07-01", "2026-12-31")
	assert.Equal(t, 1, exitCode(err))
	_, err = e.run(t, "semester", "add", "bad", "2026-12-31", "2026-07-01")
	assert.Equal(t, 1, exitCode(err), "end before start")

	e.mustRun(t, "semester", "remove", "2026.1")
	assert.Contains(t, e.mustRun(t, "semester", "list"), "No semesters configured.")
}

func TestInvalidDate(t *testing.T) {
	e := newEnv(t, "")
	_, err := e.run(t, "status", "--date", "27/02/2026")
	assert.Equal(t, 1, exitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 1, exitCode(errors.New("plain")))
	assert.Equal(t, 1, exitCode(usageError("bad flag")))
	assert.Equal(t, 2, exitCode(storageError(errors.New("disk full"))))
}

func TestSyncRequiresConfig(t *testing.T) {
	e := newEnv(t, "")
	_, err := e.run(t, "sync", "push")
	assert.ErrorIs(t, err, remote.ErrNotConfigured)
	assert.Equal(t, 1, exitCode(err))
}

func TestSyncPushAndPull(t *testing.T) {
	var (
		mu      sync.Mutex
		records = map[string][]byte{}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		mu.Lock()
		defer mu.Unlock()
		switch r.Method {
		case http.MethodPut:
			var buf bytes.Buffer
			_, _ = buf.ReadFrom(r.Body)
			records[r.URL.Path] = buf.Bytes()
			w.WriteHeader(http.StatusNoContent)
		case http.MethodGet:
			data, ok := records[r.URL.Path]
			if !ok {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write(data)
		}
	}))
	defer srv.Close()

	e := newEnv(t, `sync:
  base_url: `+srv.URL+`
  user_id: me
  client_id: pronto
  device_auth_url: `+srv.URL+`/device
  token_url: `+srv.URL+`/token
`)
	tokens := remote.NewTokenStore(remote.TokenPath(e.dataDir))
	require.NoError(t, tokens.Save(&oauth2.Token{AccessToken: "test-token", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}))

	e.mustRun(t, "in", "08:00")
	out := e.mustRun(t, "sync", "push")
	assert.Contains(t, out, "1 pushed")
	mu.Lock()
	assert.Contains(t, records, "/users/me/records/2026-02-27")
	mu.Unlock()

	out = e.mustRun(t, "sync", "push")
	assert.Contains(t, out, "1 skipped")

	// Wipe the local copy and pull it back.
	require.NoError(t, os.RemoveAll(e.dataDir+"/2026"))
	out = e.mustRun(t, "sync", "pull", "--dry-run")
	assert.Contains(t, out, "[dry-run]")
	assert.Empty(t, e.day(t, testNow).Entries)

	out = e.mustRun(t, "sync", "pull")
	assert.Contains(t, out, "1 pulled")
	assert.Len(t, e.day(t, testNow).Entries, 1)
}

func TestSyncRange(t *testing.T) {
	prev := now
	now = func() time.Time { return testNow }
	defer func() { now = prev }()
	defer func() { syncFrom, syncTo, syncDate = "", "", "" }()

	from, to, err := syncRange()
	require.NoError(t, err)
	assert.Equal(t, "2026-02-27", from.Format("2006-01-02"))
	assert.Equal(t, "2026-02-27", to.Format("2006-01-02"))

	syncFrom = "2026-02-20"
	from, to, err = syncRange()
	require.NoError(t, err)
	assert.Equal(t, "2026-02-20", from.Format("2006-01-02"))
	assert.Equal(t, "2026-02-27", to.Format("2006-01-02"))

	syncFrom, syncTo = "", "2026-02-20"
	_, _, err = syncRange()
	assert.Error(t, err)

	syncFrom, syncTo = "2026-02-27", "2026-02-20"
	_, _, err = syncRange()
	assert.Error(t, err)
}

func TestParseWeekday(t *testing.T) {
	tests := []struct {
		in   string
		want time.Weekday
	}{
		{"sun", time.Sunday},
		{"Monday", time.Monday},
		{"FRI", time.Friday},
		{"6", time.Saturday},
		{"0", time.Sunday},
	}
	for _, tt := range tests {
		got, err := parseWeekday(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	for _, bad := range []string{"", "7", "someday"} {
		_, err := parseWeekday(bad)
		assert.Error(t, err, bad)
	}
}
