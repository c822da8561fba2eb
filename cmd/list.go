package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/pronto/internal/render"
	"github.com/Tiliavir/pronto/internal/timecalc"
)

var (
	listWeek bool
	listDate string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stamps of a day or week",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listWeek, "week", false, "Show the whole week")
	listCmd.Flags().StringVar(&listDate, "date", "", "Day to list (YYYY-MM-DD, default today)")
}

func runList(cmd *cobra.Command, args []string) error {
	day, err := parseDay(listDate, now())
	if err != nil {
		return err
	}

	from, to := day, timecalc.EndOfDay(day)
	if listWeek {
		from, to = timecalc.WeekRange(day)
	}

	records, err := app.store.LoadRange(cmd.Context(), from, to)
	if err != nil {
		return storageError(err)
	}

	out := cmd.OutOrStdout()
	p := render.New(out)
	printed := 0
	for _, rec := range records {
		if listWeek && rec.IsEmpty() {
			continue
		}
		if printed > 0 {
			fmt.Fprintln(out)
		}
		printed++
		fmt.Fprintln(out, p.Header(rec.Date))
		p.Timeline(out, rec)
		if rec.Note != "" {
			fmt.Fprintf(out, "Note: %s\n", rec.Note)
		}
	}
	if printed == 0 {
		fmt.Fprintln(out, "No stamps this week.")
	}
	return nil
}
