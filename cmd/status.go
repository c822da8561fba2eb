package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Tiliavir/pronto/internal/render"
)

var statusDate string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show worked time, balance and predicted exit for a day",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusDate, "date", "", "Day to show (YYYY-MM-DD, default today)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	t := now()
	day, err := parseDay(statusDate, t)
	if err != nil {
		return err
	}

	view, err := app.tracker.Day(cmd.Context(), day, t)
	if err != nil {
		return storageError(err)
	}

	out := cmd.OutOrStdout()
	render.New(out).Status(out, view)
	return nil
}
