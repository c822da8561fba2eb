package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/pronto/internal/tracker"
)

var (
	editTime  string
	editLabel string
	editPhoto string
	editDate  string

	deleteDate string

	noteDate string
)

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change the time, label or photo of a stamp",
	Long: `edit updates one or more fields of a stamp. The id may be abbreviated to
any unique prefix, such as the eight characters shown by "pronto list".
Pass --photo "" to remove a photo.`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stamp",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var noteCmd = &cobra.Command{
	Use:   "note [text...]",
	Short: "Set the day's note (no text clears it)",
	Args:  cobra.ArbitraryArgs,
	RunE:  runNote,
}

func init() {
	editCmd.Flags().StringVar(&editTime, "time", "", "New time HH:MM")
	editCmd.Flags().StringVar(&editLabel, "label", "", "New label")
	editCmd.Flags().StringVar(&editPhoto, "photo", "", "New photo reference")
	editCmd.Flags().StringVar(&editDate, "date", "", "Day of the stamp (YYYY-MM-DD, default today)")

	deleteCmd.Flags().StringVar(&deleteDate, "date", "", "Day of the stamp (YYYY-MM-DD, default today)")

	noteCmd.Flags().StringVar(&noteDate, "date", "", "Day of the note (YYYY-MM-DD, default today)")
}

func runEdit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	day, err := parseDay(editDate, now())
	if err != nil {
		return err
	}
	id, err := resolveStampID(ctx, day, args[0])
	if err != nil {
		return err
	}

	var changes [][2]string
	if cmd.Flags().Changed("time") {
		changes = append(changes, [2]string{tracker.FieldTime, editTime})
	}
	if cmd.Flags().Changed("label") {
		changes = append(changes, [2]string{tracker.FieldType, editLabel})
	}
	if cmd.Flags().Changed("photo") {
		changes = append(changes, [2]string{tracker.FieldPhoto, editPhoto})
	}
	if len(changes) == 0 {
		return usageError("nothing to change: pass --time, --label or --photo")
	}

	for i, c := range changes {
		st, err := app.tracker.UpdateStamp(ctx, day, id, c[0], c[1])
		if err != nil {
			return trackerError(err)
		}
		if i == len(changes)-1 {
			printStamped(cmd, day.Format("2006-01-02"), st)
		}
	}
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	day, err := parseDay(deleteDate, now())
	if err != nil {
		return err
	}
	id, err := resolveStampID(ctx, day, args[0])
	if err != nil {
		return err
	}
	if err := app.tracker.DeleteStamp(ctx, day, id); err != nil {
		return trackerError(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted stamp %s from %s\n", id, day.Format("2006-01-02"))
	return nil
}

func runNote(cmd *cobra.Command, args []string) error {
	day, err := parseDay(noteDate, now())
	if err != nil {
		return err
	}
	note := strings.Join(args, " ")
	if err := app.tracker.SetNote(cmd.Context(), day, note); err != nil {
		return storageError(err)
	}
	if note == "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared note for %s\n", day.Format("2006-01-02"))
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Saved note for %s\n", day.Format("2006-01-02"))
	}
	return nil
}

// resolveStampID expands a unique id prefix to the full stamp id.
func resolveStampID(ctx context.Context, day time.Time, prefix string) (string, error) {
	if prefix == "" {
		return "", usageError("empty stamp id")
	}
	rec, err := app.store.LoadDay(ctx, day)
	if err != nil {
		return "", storageError(err)
	}
	var matches []string
	for _, e := range rec.Entries {
		if e.ID == prefix {
			return e.ID, nil
		}
		if strings.HasPrefix(e.ID, prefix) {
			matches = append(matches, e.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", usageError("%w: %s on %s", tracker.ErrStampNotFound, prefix, rec.Date)
	case 1:
		return matches[0], nil
	default:
		return "", usageError("stamp id %q is ambiguous on %s (%d matches)", prefix, rec.Date, len(matches))
	}
}
