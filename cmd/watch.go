package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/pronto/internal/config"
	"github.com/Tiliavir/pronto/internal/render"
	"github.com/Tiliavir/pronto/internal/tracker"
	"github.com/Tiliavir/pronto/internal/watch"
)

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show today's status and refresh it live",
	Long: `watch prints today's status and redraws it when records or the config
file change, and once a minute so the worked time keeps counting. Stop with Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", watch.DefaultInterval, "Delay between a file change and the redraw")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if err := os.MkdirAll(app.cfg.DataDir, 0o700); err != nil {
		return storageError(err)
	}

	out := cmd.OutOrStdout()
	p := render.New(out)
	changed := make(chan struct{}, 1)
	w := &watch.Watcher{
		Paths:    []string{app.cfg.DataDir, app.cfgPath},
		Interval: watchInterval,
		Log:      app.log,
		OnChange: func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		},
	}

	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	draw := func() {
		if err := drawStatus(ctx, out, p); err != nil {
			app.log.Warnw("refresh failed", "error", err)
		}
	}
	draw()
	for {
		select {
		case <-ctx.Done():
			return <-errc
		case err := <-errc:
			if err != nil {
				return storageError(err)
			}
			return nil
		case <-changed:
			reloadConfig()
			draw()
		case <-ticker.C:
			draw()
		}
	}
}

func drawStatus(ctx context.Context, out io.Writer, p *render.Printer) error {
	t := now()
	view, err := app.tracker.Day(ctx, t, t)
	if err != nil {
		return err
	}
	if out == os.Stdout {
		fmt.Fprint(out, "\033[H\033[2J")
	}
	p.Status(out, view)
	return nil
}

// reloadConfig picks up edits to the config file; an invalid file keeps the
// previous settings.
func reloadConfig() {
	cfg, err := config.Load(app.cfgPath)
	if err != nil {
		app.log.Warnw("keeping previous config", "error", err)
		return
	}
	app.cfg = cfg
	app.tracker = tracker.New(app.store, cfg, app.log)
}
