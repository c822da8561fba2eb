package remote

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/Tiliavir/pronto/internal/model"
	"github.com/Tiliavir/pronto/internal/storage"
	"github.com/Tiliavir/pronto/internal/timecalc"
)

// Records is the remote side of a sync.
type Records interface {
	GetDay(ctx context.Context, date string) (model.DayRecord, bool, error)
	PutDay(ctx context.Context, rec model.DayRecord) error
}

// Direction selects which side of a sync is overwritten.
type Direction int

const (
	// Push copies local records to the remote.
	Push Direction = iota
	// Pull copies remote records into the local store.
	Pull
)

func (d Direction) String() string {
	if d == Pull {
		return "pull"
	}
	return "push"
}

// SyncResult holds counters for a sync operation.
type SyncResult struct {
	Pushed  int
	Pulled  int
	Skipped int
	Errors  int
}

// SyncOptions configures a sync run over the days in [From, To].
type SyncOptions struct {
	From      time.Time
	To        time.Time
	Direction Direction
	DryRun    bool
}

// SyncDays copies each day in the range in the chosen direction. Days whose
// records already match are skipped, so repeated runs are idempotent. A
// failing day is counted and reported to out; the run continues.
func SyncDays(ctx context.Context, store storage.Store, records Records, opts SyncOptions, out io.Writer, log *zap.SugaredLogger) (SyncResult, error) {
	var result SyncResult
	if opts.To.Before(opts.From) {
		return result, fmt.Errorf("sync range ends before it starts: %s > %s",
			opts.From.Format(timecalc.DateLayout), opts.To.Format(timecalc.DateLayout))
	}

	for d := timecalc.StartOfDay(opts.From); !d.After(opts.To); d = d.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		date := d.Format(timecalc.DateLayout)

		local, err := store.LoadDay(ctx, d)
		if err != nil {
			fmt.Fprintf(out, "  ! Error loading %s: %v\n", date, err)
			result.Errors++
			continue
		}
		remote, found, err := records.GetDay(ctx, date)
		if err != nil {
			fmt.Fprintf(out, "  ! Error fetching %s: %v\n", date, err)
			result.Errors++
			continue
		}

		switch opts.Direction {
		case Push:
			if local.IsEmpty() && !found {
				continue
			}
			if found && remote.Equal(local) {
				fmt.Fprintf(out, "  – Skipped: %s (up to date)\n", date)
				result.Skipped++
				continue
			}
			if !opts.DryRun {
				if err := records.PutDay(ctx, local); err != nil {
					fmt.Fprintf(out, "  ! Error pushing %s: %v\n", date, err)
					result.Errors++
					continue
				}
			}
			fmt.Fprintf(out, "  ↑ Pushed:  %s (%d stamps)\n", date, len(local.Entries))
			result.Pushed++

		case Pull:
			if !found {
				continue
			}
			if remote.Equal(local) {
				fmt.Fprintf(out, "  – Skipped: %s (up to date)\n", date)
				result.Skipped++
				continue
			}
			remote.Date = date
			if !opts.DryRun {
				if err := store.SaveDay(ctx, remote); err != nil {
					fmt.Fprintf(out, "  ! Error saving %s: %v\n", date, err)
					result.Errors++
					continue
				}
			}
			fmt.Fprintf(out, "  ↓ Pulled:  %s (%d stamps)\n", date, len(remote.Entries))
			result.Pulled++
		}
	}

	log.Debugw("sync finished", "direction", opts.Direction.String(), "dry_run", opts.DryRun,
		"pushed", result.Pushed, "pulled", result.Pulled, "skipped", result.Skipped, "errors", result.Errors)
	return result, nil
}
