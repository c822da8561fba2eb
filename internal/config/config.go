package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Tiliavir/pronto/internal/engine"
	"github.com/Tiliavir/pronto/internal/timecalc"
)

// ErrInvalid is wrapped by every validation failure returned from Load and Validate.
var ErrInvalid = errors.New("invalid configuration")

// Config is the root configuration for pronto, stored in ~/.pronto/config.yaml.
type Config struct {
	DataDir  string `yaml:"data_dir"`
	Backend  string `yaml:"backend" validate:"oneof=file sqlite"`
	Language string `yaml:"language" validate:"oneof=en pt"`
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`
	// ToleranceMinutes is subtracted from the day's target before the balance
	// is computed.
	ToleranceMinutes int `yaml:"tolerance_minutes" validate:"gte=0,lte=1440"`
	// WeeklyTargets holds one schedule per weekday, Sunday first.
	WeeklyTargets [][]TargetSpec `yaml:"weekly_targets" validate:"len=7,dive,dive"`
	Semesters     []Semester     `yaml:"semesters" validate:"dive"`
	Sync          SyncConfig     `yaml:"sync"`
}

// TargetSpec is one target session as written in the config file: either
// {minutes: 240} or {start: "08:00", end: "12:00"}.
type TargetSpec struct {
	Minutes *int   `yaml:"minutes,omitempty" validate:"omitempty,gte=0,lte=1440"`
	Start   string `yaml:"start,omitempty" validate:"omitempty,datetime=15:04"`
	End     string `yaml:"end,omitempty" validate:"omitempty,datetime=15:04"`
}

// Semester overrides the weekly targets between two dates (inclusive).
type Semester struct {
	Name          string         `yaml:"name" validate:"required"`
	StartDate     string         `yaml:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate       string         `yaml:"end_date" validate:"required,datetime=2006-01-02"`
	WeeklyTargets [][]TargetSpec `yaml:"weekly_targets" validate:"len=7,dive,dive"`
}

// SyncConfig holds the remote record store and its OAuth2 device-flow endpoints.
type SyncConfig struct {
	BaseURL       string   `yaml:"base_url" validate:"omitempty,url"`
	UserID        string   `yaml:"user_id"`
	ClientID      string   `yaml:"client_id"`
	DeviceAuthURL string   `yaml:"device_auth_url" validate:"omitempty,url"`
	TokenURL      string   `yaml:"token_url" validate:"omitempty,url"`
	Scopes        []string `yaml:"scopes"`
}

const (
	// DefaultBackend stores one JSON file per day.
	DefaultBackend = "file"
	// DefaultLanguage matches the quick-stamp labels "Entrada"/"Saída".
	DefaultLanguage = "pt"
	// DefaultToleranceMinutes is the grace period applied when none is configured.
	DefaultToleranceMinutes = 10
	// DefaultLogLevel is used when log_level is empty.
	DefaultLogLevel = "info"
)

// Minutes returns a TargetSpec for a fixed-length session.
func Minutes(m int) TargetSpec {
	return TargetSpec{Minutes: &m}
}

// Window returns a TargetSpec for a fixed clock window.
func Window(start, end string) TargetSpec {
	return TargetSpec{Start: start, End: end}
}

// Session converts the spec into an engine session.
func (t TargetSpec) Session() (engine.Session, error) {
	hasRange := t.Start != "" || t.End != ""
	switch {
	case t.Minutes != nil && hasRange:
		return nil, fmt.Errorf("%w: target sets both minutes and start/end", ErrInvalid)
	case t.Minutes != nil:
		return engine.Duration{Minutes: *t.Minutes}, nil
	case t.Start != "" && t.End != "":
		return engine.Range{Start: timecalc.ParseTime(t.Start), End: timecalc.ParseTime(t.End)}, nil
	case hasRange:
		return nil, fmt.Errorf("%w: target range needs both start and end", ErrInvalid)
	default:
		return nil, fmt.Errorf("%w: target needs minutes or start/end", ErrInvalid)
	}
}

// String renders the spec the way the CLI accepts it: "480" or "08:00-12:00".
func (t TargetSpec) String() string {
	if t.Minutes != nil {
		return timecalc.FormatMinutes(*t.Minutes)
	}
	return t.Start + "-" + t.End
}

// ParseTargetSpec parses a session written as "HH:MM-HH:MM" (window) or
// "HH:MM" / plain minutes (duration).
func ParseTargetSpec(s string) (TargetSpec, error) {
	s = strings.TrimSpace(s)
	if start, end, ok := strings.Cut(s, "-"); ok {
		spec := Window(strings.TrimSpace(start), strings.TrimSpace(end))
		if err := validate.Struct(spec); err != nil {
			return TargetSpec{}, fmt.Errorf("%w: target %q: %v", ErrInvalid, s, err)
		}
		if _, err := spec.Session(); err != nil {
			return TargetSpec{}, err
		}
		return spec, nil
	}
	if strings.Contains(s, ":") {
		if err := validate.Var(s, "datetime=15:04"); err != nil {
			return TargetSpec{}, fmt.Errorf("%w: target %q: %v", ErrInvalid, s, err)
		}
		return Minutes(timecalc.ParseTime(s)), nil
	}
	m, err := strconv.Atoi(s)
	if err != nil || m < 0 {
		return TargetSpec{}, fmt.Errorf("%w: target %q is not a duration", ErrInvalid, s)
	}
	return Minutes(m), nil
}

// defaultConfig returns a Config pre-filled with sensible defaults.
func defaultConfig() Config {
	return Config{
		Backend:          DefaultBackend,
		Language:         DefaultLanguage,
		LogLevel:         DefaultLogLevel,
		ToleranceMinutes: DefaultToleranceMinutes,
		WeeklyTargets:    defaultWeeklyTargets(),
	}
}

func defaultWeeklyTargets() [][]TargetSpec {
	week := make([][]TargetSpec, 7)
	for d := 1; d <= 5; d++ {
		week[d] = []TargetSpec{Minutes(480)}
	}
	week[0] = []TargetSpec{}
	week[6] = []TargetSpec{}
	return week
}

// Default returns the built-in configuration with DataDir resolved.
func Default() (Config, error) {
	cfg := defaultConfig()
	err := cfg.fill()
	return cfg, err
}

// configTemplate is the annotated config written on first run.
const configTemplate = `# pronto configuration – ~/.pronto/config.yaml
#
# All settings are optional; the defaults below are used when a key is
# missing. Edit this file or use "pronto target" / "pronto tolerance".

# Where day records are stored. Empty means ~/.pronto.
data_dir: ""

# Storage backend: "file" (one JSON file per day) or "sqlite".
backend: file

# Language of quick-stamp labels: "pt" (Entrada/Saída) or "en" (In/Out).
language: pt

# Log level for diagnostics on stderr: debug, info, warn, error.
log_level: info

# Grace minutes subtracted from the day's target before computing the balance.
tolerance_minutes: 10

# One list of sessions per weekday, Sunday first. A session is either a
# fixed length ({minutes: 240}) or a clock window ({start: "08:00", end: "12:00"}).
weekly_targets:
  - []
  - [{minutes: 480}]
  - [{minutes: 480}]
  - [{minutes: 480}]
  - [{minutes: 480}]
  - [{minutes: 480}]
  - []

# Date-ranged overrides of weekly_targets, e.g.
# semesters:
#   - name: "2026.1"
#     start_date: "2026-02-01"
#     end_date: "2026-06-30"
#     weekly_targets: [[], [{start: "08:00", end: "11:00"}], [], [], [], [], []]
semesters: []

# Remote record store used by "pronto sync".
sync:
  base_url: ""
  user_id: ""
  client_id: ""
  device_auth_url: ""
  token_url: ""
  scopes: []
`

// DefaultPath returns the path to ~/.pronto/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".pronto", "config.yaml"), nil
}

// Load reads the config file at path (DefaultPath when empty), creating it
// with annotated defaults on first run.
func Load(path string) (Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return defaultConfig(), err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		// First run: write the annotated template so users can discover options.
		if writeErr := writeFile(path, []byte(configTemplate)); writeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create config file %s: %v\n", path, writeErr)
		}
		return Default()
	}
	if err != nil {
		return defaultConfig(), fmt.Errorf("reading config file %s: %w", path, err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return defaultConfig(), fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
	}
	if err := cfg.fill(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// fill replaces zero-value fields with built-in defaults so callers always get
// a usable Config even if the user only partially fills in the file.
func (c *Config) fill() error {
	if c.Backend == "" {
		c.Backend = DefaultBackend
	}
	if c.Language == "" {
		c.Language = DefaultLanguage
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.WeeklyTargets == nil {
		c.WeeklyTargets = defaultWeeklyTargets()
	}
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		c.DataDir = filepath.Join(home, ".pronto")
	} else if rest, ok := strings.CutPrefix(c.DataDir, "~/"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		c.DataDir = filepath.Join(home, rest)
	}
	return nil
}

// Save writes cfg to path atomically.
func Save(path string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("saving config file: %w", err)
	}
	return nil
}
