package visits

import (
	"context"
	"time"

	"github.com/unimap/unimap/utils"
)

// StartPruner deletes site visits idle for more than retentionDays, once per interval,
// until ctx is cancelled. A non-positive retentionDays disables pruning.
func (l *Ledger) StartPruner(ctx context.Context, retentionDays int, interval time.Duration) {
	if retentionDays <= 0 {
		utils.Sugar.Infow("site visit pruning disabled")
		return
	}
	if interval <= 0 {
		interval = time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			l.pruneOnce(ctx, retentionDays)
		}
	}()
}

func (l *Ledger) pruneOnce(ctx context.Context, retentionDays int) {
	cutoff := l.now().AddDate(0, 0, -retentionDays)
	n, err := l.Prune(ctx, cutoff)
	if err != nil {
		utils.Sugar.Warnw("site visit prune failed", "err", err)
		return
	}
	if n > 0 {
		utils.Sugar.Infow("pruned stale site visits", "rows", n, "cutoff", cutoff.UTC().Format(time.RFC3339))
	}
}
