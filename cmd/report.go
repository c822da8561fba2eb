package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/pronto/internal/render"
	"github.com/Tiliavir/pronto/internal/tracker"
)

var (
	reportFormat string
	reportDate   string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show worked time and balance per day of the week",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportFormat, "format", "md", "Output format: md, csv, json")
	reportCmd.Flags().StringVar(&reportDate, "date", "", "Any day of the week to report (YYYY-MM-DD, default today)")
}

type reportDay struct {
	Date              string `json:"date"`
	WorkedMinutes     int    `json:"worked_minutes"`
	TargetMinutes     int    `json:"target_minutes"`
	BalanceMinutes    int    `json:"balance_minutes"`
	PredictedExit     *int   `json:"predicted_exit_minute,omitempty"`
	SessionOpen       bool   `json:"session_open"`
	CompletedSessions int    `json:"completed_sessions"`
	Note              string `json:"note,omitempty"`
}

type weekReport struct {
	Week           string      `json:"week"`
	Days           []reportDay `json:"days"`
	WorkedMinutes  int         `json:"worked_minutes"`
	TargetMinutes  int         `json:"target_minutes"`
	BalanceMinutes int         `json:"balance_minutes"`
}

func runReport(cmd *cobra.Command, args []string) error {
	t := now()
	day, err := parseDay(reportDate, t)
	if err != nil {
		return err
	}
	switch reportFormat {
	case "md", "csv", "json":
	default:
		return usageError("unknown format %q: want md, csv or json", reportFormat)
	}

	week, err := app.tracker.Week(cmd.Context(), day, t)
	if err != nil {
		return storageError(err)
	}

	out := cmd.OutOrStdout()
	switch reportFormat {
	case "csv":
		fmt.Fprintln(out, "date,worked_minutes,target_minutes,balance_minutes,note")
		for _, d := range week.Days {
			fmt.Fprintf(out, "%s,%d,%d,%d,%s\n",
				d.Record.Date,
				d.Stats.WorkedMinutes,
				d.Stats.TotalTargetMinutes,
				d.Stats.BalanceMinutes,
				csvEscape(d.Record.Note),
			)
		}
	case "json":
		data, err := json.MarshalIndent(buildWeekReport(week), "", "  ")
		if err != nil {
			return storageError(fmt.Errorf("encoding JSON: %w", err))
		}
		fmt.Fprintln(out, string(data))
	default:
		render.New(out).Week(out, week)
	}
	return nil
}

func buildWeekReport(w tracker.WeekView) weekReport {
	r := weekReport{
		Week:           w.Label,
		Days:           make([]reportDay, 0, len(w.Days)),
		WorkedMinutes:  w.WorkedTotal,
		TargetMinutes:  w.TargetTotal,
		BalanceMinutes: w.BalanceTotal,
	}
	for _, d := range w.Days {
		r.Days = append(r.Days, reportDay{
			Date:              d.Record.Date,
			WorkedMinutes:     d.Stats.WorkedMinutes,
			TargetMinutes:     d.Stats.TotalTargetMinutes,
			BalanceMinutes:    d.Stats.BalanceMinutes,
			PredictedExit:     d.Stats.PredictedExitMinute,
			SessionOpen:       d.Stats.IsSessionOpen,
			CompletedSessions: d.Stats.CompletedSessions,
			Note:              d.Record.Note,
		})
	}
	return r
}
