package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/pronto/internal/remote"
	"github.com/Tiliavir/pronto/internal/timecalc"
)

var (
	syncFrom   string
	syncTo     string
	syncDate   string
	syncDryRun bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Copy day records to or from the remote record store",
}

var syncLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the remote record store with a device code",
	Args:  cobra.NoArgs,
	RunE:  runSyncLogin,
}

var syncPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Upload local day records, overwriting the remote copies",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(cmd, remote.Push)
	},
}

var syncPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Download remote day records, overwriting the local copies",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(cmd, remote.Pull)
	},
}

func init() {
	for _, c := range []*cobra.Command{syncPushCmd, syncPullCmd} {
		c.Flags().StringVar(&syncFrom, "from", "", "Start date (YYYY-MM-DD); required when --to is specified")
		c.Flags().StringVar(&syncTo, "to", "", "End date (YYYY-MM-DD); defaults to today")
		c.Flags().StringVar(&syncDate, "date", "", "Sync a specific date (YYYY-MM-DD)")
		c.Flags().BoolVar(&syncDryRun, "dry-run", false, "Print planned operations without writing")
	}
	syncCmd.AddCommand(syncLoginCmd)
	syncCmd.AddCommand(syncPushCmd)
	syncCmd.AddCommand(syncPullCmd)
}

func runSyncLogin(cmd *cobra.Command, args []string) error {
	oc, err := remote.OAuthConfig(app.cfg.Sync)
	if err != nil {
		return usageError("%w", err)
	}
	tokens := remote.NewTokenStore(remote.TokenPath(app.cfg.DataDir))
	if _, err := remote.DeviceLogin(cmd.Context(), oc, tokens, cmd.OutOrStdout(), app.log); err != nil {
		return usageError("authentication failed: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Signed in.")
	return nil
}

func runSync(cmd *cobra.Command, dir remote.Direction) error {
	from, to, err := syncRange()
	if err != nil {
		return err
	}
	sc := app.cfg.Sync
	if sc.BaseURL == "" || sc.UserID == "" {
		return usageError("%w: base_url and user_id are required", remote.ErrNotConfigured)
	}
	oc, err := remote.OAuthConfig(sc)
	if err != nil {
		return usageError("%w", err)
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	tokens := remote.NewTokenStore(remote.TokenPath(app.cfg.DataDir))
	tok, err := remote.Authenticate(ctx, oc, tokens, out, app.log)
	if err != nil {
		return usageError("authentication failed: %w", err)
	}
	client := remote.NewClient(ctx, oc, tok, tokens, sc.BaseURL, sc.UserID, app.log)

	dryTag := ""
	if syncDryRun {
		dryTag = " [dry-run]"
	}
	fmt.Fprintf(out, "Sync %s (%s → %s)%s...\n\n", dir, from.Format(timecalc.DateLayout), to.Format(timecalc.DateLayout), dryTag)

	result, err := remote.SyncDays(ctx, app.store, client, remote.SyncOptions{
		From:      from,
		To:        to,
		Direction: dir,
		DryRun:    syncDryRun,
	}, out, app.log)
	if err != nil {
		return storageError(fmt.Errorf("sync error: %w", err))
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Summary:")
	fmt.Fprintf(out, "  %d pushed\n", result.Pushed)
	fmt.Fprintf(out, "  %d pulled\n", result.Pulled)
	fmt.Fprintf(out, "  %d skipped\n", result.Skipped)
	if result.Errors > 0 {
		fmt.Fprintf(out, "  %d errors\n", result.Errors)
		return storageError(errors.New("sync finished with errors"))
	}
	return nil
}

// syncRange resolves --date, --from and --to; the default is today.
func syncRange() (time.Time, time.Time, error) {
	today := timecalc.StartOfDay(now())
	switch {
	case syncDate != "":
		d, err := parseDay(syncDate, today)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return d, timecalc.EndOfDay(d), nil

	case syncFrom != "" || syncTo != "":
		if syncFrom == "" {
			return time.Time{}, time.Time{}, usageError("--from is required when --to is specified")
		}
		from, err := parseDay(syncFrom, today)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to := timecalc.EndOfDay(today)
		if syncTo != "" {
			t, err := parseDay(syncTo, today)
			if err != nil {
				return time.Time{}, time.Time{}, err
			}
			to = timecalc.EndOfDay(t)
		}
		if to.Before(from) {
			return time.Time{}, time.Time{}, usageError("--to is before --from")
		}
		return from, to, nil

	default:
		return today, timecalc.EndOfDay(today), nil
	}
}
