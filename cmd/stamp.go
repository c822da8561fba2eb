package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/pronto/internal/engine"
	"github.com/Tiliavir/pronto/internal/label"
	"github.com/Tiliavir/pronto/internal/model"
)

var (
	inDate  string
	outDate string

	stampTime  string
	stampLabel string
	stampPhoto string
	stampDate  string
)

var inCmd = &cobra.Command{
	Use:   "in [HH:MM]",
	Short: "Record an entry stamp (now unless a time is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runKind(cmd, args, inDate, engine.KindEntry)
	},
}

var outCmd = &cobra.Command{
	Use:   "out [HH:MM]",
	Short: "Record an exit stamp (now unless a time is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runKind(cmd, args, outDate, engine.KindExit)
	},
}

var stampCmd = &cobra.Command{
	Use:   "stamp",
	Short: "Record a stamp, alternating entry and exit",
	Long: `Without flags, stamp records the current time with the next label of the
day ("Entrada 1", "Saída 1", "Entrada 2", ...). Use --time, --label and --date
to record a stamp for another moment or with a custom label.`,
	Args: cobra.NoArgs,
	RunE: runStamp,
}

func init() {
	inCmd.Flags().StringVar(&inDate, "date", "", "Day of the stamp (YYYY-MM-DD, default today)")
	outCmd.Flags().StringVar(&outDate, "date", "", "Day of the stamp (YYYY-MM-DD, default today)")

	stampCmd.Flags().StringVar(&stampTime, "time", "", "Stamp time HH:MM (default now)")
	stampCmd.Flags().StringVar(&stampLabel, "label", "", "Stamp label (default next quick-stamp label)")
	stampCmd.Flags().StringVar(&stampPhoto, "photo", "", "Photo reference to attach")
	stampCmd.Flags().StringVar(&stampDate, "date", "", "Day of the stamp (YYYY-MM-DD, default today)")
}

func runKind(cmd *cobra.Command, args []string, dateFlag string, kind engine.Kind) error {
	t := now()
	day, err := parseDay(dateFlag, t)
	if err != nil {
		return err
	}
	hhmm := t.Format("15:04")
	if len(args) == 1 {
		hhmm = args[0]
	}

	st, err := app.tracker.AddKind(cmd.Context(), day, hhmm, kind)
	if err != nil {
		return trackerError(err)
	}
	printStamped(cmd, day.Format("2006-01-02"), st)
	return nil
}

func runStamp(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	t := now()
	if stampTime == "" && stampLabel == "" && stampPhoto == "" && stampDate == "" {
		st, err := app.tracker.QuickStamp(ctx, t)
		if err != nil {
			return trackerError(err)
		}
		printStamped(cmd, t.Format("2006-01-02"), st)
		return nil
	}

	day, err := parseDay(stampDate, t)
	if err != nil {
		return err
	}
	hhmm := stampTime
	if hhmm == "" {
		hhmm = t.Format("15:04")
	}
	lbl := stampLabel
	if lbl == "" {
		rec, err := app.store.LoadDay(ctx, day)
		if err != nil {
			return storageError(err)
		}
		lbl = label.Next(len(rec.Entries), app.cfg.Language)
	}
	var photo *string
	if stampPhoto != "" {
		photo = &stampPhoto
	}

	st, err := app.tracker.AddStamp(ctx, day, hhmm, lbl, photo)
	if err != nil {
		return trackerError(err)
	}
	printStamped(cmd, day.Format("2006-01-02"), st)
	return nil
}

func printStamped(cmd *cobra.Command, date string, st model.Stamp) {
	kind := st.Kind
	if kind == "" {
		kind = "ignored"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s %q (%s) [%s]\n", date, st.Time, st.Type, kind, st.ID)
}
