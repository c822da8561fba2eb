// Package render formats day and week views for the terminal.
package render

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/Tiliavir/pronto/internal/engine"
	"github.com/Tiliavir/pronto/internal/model"
	"github.com/Tiliavir/pronto/internal/timecalc"
	"github.com/Tiliavir/pronto/internal/tracker"
)

var (
	colorGreen  = lipgloss.Color("#8ec07c")
	colorRed    = lipgloss.Color("#fb4934")
	colorYellow = lipgloss.Color("#fabd2f")
	colorDim    = lipgloss.Color("#928374")
	colorHeader = lipgloss.Color("#fe8019")

	styleGreen  = lipgloss.NewStyle().Foreground(colorGreen)
	styleRed    = lipgloss.NewStyle().Foreground(colorRed)
	styleYellow = lipgloss.NewStyle().Foreground(colorYellow)
	styleDim    = lipgloss.NewStyle().Foreground(colorDim)
	styleHeader = lipgloss.NewStyle().Foreground(colorHeader).Bold(true)
)

// Printer renders views, with colors only when writing to a terminal.
type Printer struct {
	color bool
}

// New returns a Printer for w. Colors are enabled when w is a terminal.
func New(w io.Writer) *Printer {
	f, ok := w.(*os.File)
	if !ok {
		return &Printer{}
	}
	return &Printer{color: isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())}
}

// Plain returns a Printer that never emits escape codes.
func Plain() *Printer {
	return &Printer{}
}

func (p *Printer) style(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

// Balance renders a signed balance, green when non-negative and red otherwise.
func (p *Printer) Balance(m int) string {
	if m < 0 {
		return p.style(styleRed, timecalc.FormatMinutes(m))
	}
	return p.style(styleGreen, "+"+timecalc.FormatMinutes(m))
}

// Prediction renders a predicted exit minute as a clock time. Minutes past
// midnight are wrapped and marked with the number of days added.
func (p *Printer) Prediction(m *int) string {
	if m == nil {
		return p.style(styleDim, "-")
	}
	s := timecalc.FormatMinutes(timecalc.WrapMinutes(*m))
	if days := *m / timecalc.MinutesPerDay; days > 0 {
		s += fmt.Sprintf(" (+%dd)", days)
	}
	return s
}

// Schedule lists a day's target sessions, e.g. "08:00-12:00, 13:00-17:00".
func Schedule(s engine.Schedule) string {
	var parts []string
	for _, sess := range s {
		switch v := sess.(type) {
		case engine.Range:
			parts = append(parts, timecalc.FormatMinutes(v.Start)+"-"+timecalc.FormatMinutes(v.End))
		case engine.Duration:
			parts = append(parts, timecalc.FormatDuration(v.Minutes))
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}

// Header renders a section header followed by an underline.
func (p *Printer) Header(text string) string {
	line := strings.Repeat("─", len([]rune(text)))
	return p.style(styleHeader, text) + "\n" + p.style(styleDim, line)
}

// Status writes the full summary of a day.
func (p *Printer) Status(w io.Writer, v tracker.DayView) {
	title := v.Record.Date
	if v.Semester != "" {
		title += "  [" + v.Semester + "]"
	}
	fmt.Fprintln(w, p.Header(title))

	st := v.Stats
	state := p.style(styleDim, "closed")
	if st.IsSessionOpen {
		state = p.style(styleYellow, "open")
	}
	fmt.Fprintf(w, "%-12s%s\n", "Schedule:", Schedule(v.Schedule))
	fmt.Fprintf(w, "%-12s%s\n", "Target:", timecalc.FormatMinutes(st.TotalTargetMinutes))
	fmt.Fprintf(w, "%-12s%s\n", "Worked:", timecalc.FormatMinutes(st.WorkedMinutes))
	fmt.Fprintf(w, "%-12s%s (tolerance %dm)\n", "Balance:", p.Balance(st.BalanceMinutes), v.Tolerance)
	fmt.Fprintf(w, "%-12s%s\n", "Session:", state)
	if v.IsToday {
		fmt.Fprintf(w, "%-12s%s\n", "Leave at:", p.Prediction(st.PredictedExitMinute))
	}

	fmt.Fprintln(w)
	p.Timeline(w, v.Record)
	if v.Record.Note != "" {
		fmt.Fprintf(w, "\nNote: %s\n", v.Record.Note)
	}
}

// Timeline writes the day's stamps in clock order with their short ids.
func (p *Printer) Timeline(w io.Writer, rec model.DayRecord) {
	if len(rec.Entries) == 0 {
		fmt.Fprintln(w, p.style(styleDim, "No stamps."))
		return
	}
	entries := make([]model.Stamp, len(rec.Entries))
	copy(entries, rec.Entries)
	sort.SliceStable(entries, func(i, j int) bool {
		return timecalc.ParseTime(entries[i].Time) < timecalc.ParseTime(entries[j].Time)
	})

	for _, e := range entries {
		marker := " "
		switch e.EngineKind() {
		case engine.KindEntry:
			marker = p.style(styleGreen, "→")
		case engine.KindExit:
			marker = p.style(styleRed, "←")
		}
		photo := ""
		if e.Photo != nil {
			photo = p.style(styleDim, "  [photo]")
		}
		fmt.Fprintf(w, "%s %s  %-12s %s%s\n", marker, e.Time, e.Type, p.style(styleDim, ShortID(e.ID)), photo)
	}
}

// Week writes one row per day of the week and the totals.
func (p *Printer) Week(w io.Writer, wv tracker.WeekView) {
	fmt.Fprintln(w, p.Header("Week "+wv.Label))
	fmt.Fprintf(w, "%-14s%8s%8s%10s\n", "Day", "Worked", "Target", "Balance")
	for _, d := range wv.Days {
		fmt.Fprintf(w, "%-14s%8s%8s%s\n",
			d.Date.Format("Mon 2006-01-02"),
			timecalc.FormatMinutes(d.Stats.WorkedMinutes),
			timecalc.FormatMinutes(d.Stats.TotalTargetMinutes),
			p.padBalance(d.Stats.BalanceMinutes, 10))
	}
	fmt.Fprintln(w, p.style(styleDim, strings.Repeat("─", 40)))
	fmt.Fprintf(w, "%-14s%8s%8s%s\n", "Total",
		timecalc.FormatMinutes(wv.WorkedTotal),
		timecalc.FormatMinutes(wv.TargetTotal),
		p.padBalance(wv.BalanceTotal, 10))
}

// padBalance right-aligns before coloring so escape codes do not break the columns.
func (p *Printer) padBalance(m, width int) string {
	plain := timecalc.FormatMinutes(m)
	if m >= 0 {
		plain = "+" + plain
	}
	pad := ""
	if n := width - len(plain); n > 0 {
		pad = strings.Repeat(" ", n)
	}
	return pad + p.Balance(m)
}

// ShortID returns the first eight characters of a stamp id.
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
