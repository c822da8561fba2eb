package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/pronto/internal/config"
	"github.com/Tiliavir/pronto/internal/render"
	"github.com/Tiliavir/pronto/internal/schedule"
	"github.com/Tiliavir/pronto/internal/timecalc"
)

var (
	targetDate        string
	targetSetSemester string
)

var targetCmd = &cobra.Command{
	Use:   "target",
	Short: "Show the target schedule that applies to a day",
	Args:  cobra.NoArgs,
	RunE:  runTarget,
}

var targetSetCmd = &cobra.Command{
	Use:   "set <weekday> [session...]",
	Short: "Replace a weekday's target sessions",
	Long: `set replaces the sessions of one weekday. A session is a clock window
("08:00-12:00"), a length as HH:MM ("04:00") or a length in minutes ("240").
Without sessions the weekday becomes a day off. Use --semester to change a
semester's week instead of the default week.`,
	Example: `  pronto target set mon 08:00-12:00 13:00-17:00
  pronto target set fri 360
  pronto target set sat`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTargetSet,
}

var toleranceCmd = &cobra.Command{
	Use:   "tolerance [minutes]",
	Short: "Show or set the daily tolerance in minutes",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTolerance,
}

var semesterCmd = &cobra.Command{
	Use:   "semester",
	Short: "Manage date-ranged schedule overrides",
}

var semesterAddCmd = &cobra.Command{
	Use:   "add <name> <start YYYY-MM-DD> <end YYYY-MM-DD>",
	Short: "Add a semester starting from a copy of the default week",
	Args:  cobra.ExactArgs(3),
	RunE:  runSemesterAdd,
}

var semesterListCmd = &cobra.Command{
	Use:   "list",
	Short: "List semesters",
	Args:  cobra.NoArgs,
	RunE:  runSemesterList,
}

var semesterRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a semester",
	Args:  cobra.ExactArgs(1),
	RunE:  runSemesterRemove,
}

func init() {
	targetCmd.Flags().StringVar(&targetDate, "date", "", "Day to resolve (YYYY-MM-DD, default today)")
	targetSetCmd.Flags().StringVar(&targetSetSemester, "semester", "", "Semester to change instead of the default week")
	targetCmd.AddCommand(targetSetCmd)

	semesterCmd.AddCommand(semesterAddCmd)
	semesterCmd.AddCommand(semesterListCmd)
	semesterCmd.AddCommand(semesterRemoveCmd)
}

func runTarget(cmd *cobra.Command, args []string) error {
	day, err := parseDay(targetDate, now())
	if err != nil {
		return err
	}
	sched := schedule.Resolve(app.cfg, day)
	source := "default week"
	if s := schedule.ActiveSemester(app.cfg, day); s != nil {
		source = "semester " + s.Name
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s, %s)\n", day.Format(timecalc.DateLayout), day.Weekday(), source)
	fmt.Fprintf(out, "  Sessions:  %s\n", render.Schedule(sched))
	fmt.Fprintf(out, "  Target:    %s\n", timecalc.FormatMinutes(sched.Total()))
	fmt.Fprintf(out, "  Tolerance: %dm\n", schedule.Tolerance(app.cfg))
	return nil
}

func runTargetSet(cmd *cobra.Command, args []string) error {
	wd, err := parseWeekday(args[0])
	if err != nil {
		return err
	}
	specs := make([]config.TargetSpec, 0, len(args)-1)
	for _, a := range args[1:] {
		spec, err := config.ParseTargetSpec(a)
		if err != nil {
			return usageError("%w", err)
		}
		specs = append(specs, spec)
	}

	cfg := app.cfg
	week := &cfg.WeeklyTargets
	if targetSetSemester != "" {
		cfg.Semesters = append([]config.Semester(nil), cfg.Semesters...)
		i := findSemester(cfg, targetSetSemester)
		if i < 0 {
			return usageError("no semester named %q", targetSetSemester)
		}
		week = &cfg.Semesters[i].WeeklyTargets
	}
	*week = copyWeek(*week)
	(*week)[wd] = specs

	if err := saveConfig(cfg); err != nil {
		return err
	}

	parts := make([]string, len(specs))
	for i, s := range specs {
		parts[i] = s.String()
	}
	if len(parts) == 0 {
		parts = []string{"day off"}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", wd, strings.Join(parts, ", "))
	return nil
}

func runTolerance(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) == 0 {
		fmt.Fprintf(out, "Tolerance: %dm\n", app.cfg.ToleranceMinutes)
		return nil
	}
	m, err := strconv.Atoi(args[0])
	if err != nil || m < 0 {
		return usageError("invalid tolerance %q: want a non-negative number of minutes", args[0])
	}
	cfg := app.cfg
	cfg.ToleranceMinutes = m
	if err := saveConfig(cfg); err != nil {
		return err
	}
	fmt.Fprintf(out, "Tolerance set to %dm\n", m)
	return nil
}

func runSemesterAdd(cmd *cobra.Command, args []string) error {
	name, start, end := args[0], args[1], args[2]
	for _, d := range []string{start, end} {
		if _, err := timecalc.ParseDate(d, time.Local); err != nil {
			return usageError("invalid date %q: want YYYY-MM-DD", d)
		}
	}
	if findSemester(app.cfg, name) >= 0 {
		return usageError("semester %q already exists", name)
	}

	cfg := app.cfg
	cfg.Semesters = append(append([]config.Semester(nil), cfg.Semesters...), config.Semester{
		Name:          name,
		StartDate:     start,
		EndDate:       end,
		WeeklyTargets: copyWeek(cfg.WeeklyTargets),
	})
	if err := saveConfig(cfg); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added semester %q (%s → %s)\n", name, start, end)
	return nil
}

func runSemesterList(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if len(app.cfg.Semesters) == 0 {
		fmt.Fprintln(out, "No semesters configured.")
		return nil
	}
	for _, s := range app.cfg.Semesters {
		fmt.Fprintf(out, "%-16s %s → %s\n", s.Name, s.StartDate, s.EndDate)
	}
	return nil
}

func runSemesterRemove(cmd *cobra.Command, args []string) error {
	i := findSemester(app.cfg, args[0])
	if i < 0 {
		return usageError("no semester named %q", args[0])
	}
	cfg := app.cfg
	cfg.Semesters = append(append([]config.Semester(nil), cfg.Semesters[:i]...), cfg.Semesters[i+1:]...)
	if err := saveConfig(cfg); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed semester %q\n", args[0])
	return nil
}

func findSemester(cfg config.Config, name string) int {
	for i, s := range cfg.Semesters {
		if s.Name == name {
			return i
		}
	}
	return -1
}

func copyWeek(week [][]config.TargetSpec) [][]config.TargetSpec {
	out := make([][]config.TargetSpec, 7)
	for i := range out {
		if i < len(week) {
			out[i] = append([]config.TargetSpec{}, week[i]...)
		} else {
			out[i] = []config.TargetSpec{}
		}
	}
	return out
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// parseWeekday accepts English day names, their three-letter forms, or 0-6 with Sunday as 0.
func parseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if wd, ok := weekdayNames[s]; ok {
		return wd, nil
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 && n <= 6 {
		return time.Weekday(n), nil
	}
	return 0, usageError("invalid weekday %q", s)
}
