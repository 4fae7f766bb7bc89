package handlers

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"market-collector/src/models"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// runBatch enumerates sub-requests and runs them through a bounded pool with
// a minimum delay between provider calls. Failed sub-requests are logged and
// counted; a persistence error aborts the batch.
func (b *base) runBatch(ctx context.Context, params models.MParams, taskID string) (models.MUpdateResult, error) {
	if b.def.Batch == nil {
		return models.Failure("batch update requires a contract code; use single update"), nil
	}

	b.progress(taskID, 5, "Preparing sub-requests...")
	items, err := b.def.Batch(ctx, b.deps, params.With(nil))
	if err != nil {
		b.logger.Warning("Cannot enumerate batch: %v", err)
		return models.Failure(fmt.Sprintf("cannot enumerate batch: %v", err)), nil
	}
	total := len(items)
	if total == 0 {
		return models.Success("nothing to update", 0), nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency())
	limiter := rate.NewLimiter(rate.Inf, 1)
	if delay := b.delay(); delay > 0 {
		limiter = rate.NewLimiter(rate.Every(delay), 1)
	}

	var (
		mu        sync.Mutex
		count     int
		failed    int
		completed int
		writes    models.MUpsertSummary
	)
	for _, item := range items {
		g.Go(func() error {
			if err := limiter.Wait(gctx); err != nil {
				return err
			}
			res, err := b.runItem(gctx, item)
			if err != nil {
				return err
			}

			mu.Lock()
			if res.Success {
				count += res.Count
				if res.InsertedCount != nil {
					writes.Inserted += *res.InsertedCount
				}
				if res.UpdatedCount != nil {
					writes.Updated += *res.UpdatedCount
				}
			} else {
				failed++
				b.logger.Warning("Sub-request %v skipped: %s", map[string]string(item), res.Message)
			}
			completed++
			done := completed
			mu.Unlock()

			b.progress(taskID, 5+done*90/total, fmt.Sprintf("Processed %d/%d", done, total))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.MUpdateResult{}, err
	}

	msg := fmt.Sprintf("batch update finished: %d records from %d requests", count, total-failed)
	if failed > 0 {
		msg += fmt.Sprintf(", %d failed", failed)
	}
	return models.Success(msg, count).WithWrites(writes).WithFailed(failed), nil
}

// -----------------------------------------------------------------------------

// runItem runs one sub-request on a pool goroutine. A panic there is outside
// the orchestrator's recover, so it is turned into a failed sub-request here.
func (b *base) runItem(ctx context.Context, item models.MParams) (res models.MUpdateResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			b.logger.Error("Sub-request %v panicked: %v\n%s", map[string]string(item), rec, debug.Stack())
			res, err = models.Failure(fmt.Sprintf("sub-request panicked: %v", rec)), nil
		}
	}()
	return b.fetchAndSave(ctx, item, nil)
}

func (b *base) concurrency() int {
	if b.def.Config.Concurrency > 0 {
		return b.def.Config.Concurrency
	}
	return b.deps.Pool.Concurrency
}

func (b *base) delay() time.Duration {
	if b.def.Config.DelayMs > 0 {
		return time.Duration(b.def.Config.DelayMs) * time.Millisecond
	}
	return b.deps.Pool.Delay
}
