package telegram

import (
	"context"
	"sync"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE DISPATCHER
// Fans updates out to goroutines so a slow operation in one chat never stalls
// the others. Total concurrency is bounded by a semaphore, and updates for
// the same chat run strictly in arrival order: a chat's update waits for the
// previous update of that chat before taking a slot.
// ══════════════════════════════════════════════════════════════════════════════

type dispatcher struct {
	sem chan struct{}

	// tails maps chat ID to the done channel of that chat's most recent
	// update. The channel is closed when the update finishes.
	tails sync.Map
	wg    sync.WaitGroup
}

func newDispatcher(maxConcurrent int) *dispatcher {
	if maxConcurrent <= 0 {
		maxConcurrent = 50
	}
	return &dispatcher{sem: make(chan struct{}, maxConcurrent)}
}

// Dispatch queues fn for the chat and returns immediately. fn runs once every
// earlier update for the same chat has finished and a concurrency slot is
// free. On context cancellation queued work is abandoned without running.
func (d *dispatcher) Dispatch(ctx context.Context, chatID int64, fn func(ctx context.Context)) {
	done := make(chan struct{})
	var prev chan struct{}
	if v, loaded := d.tails.Swap(chatID, done); loaded {
		prev = v.(chan struct{})
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		// Closing done releases the chat's next update; the delete keeps the
		// map from accumulating one entry per chat ever seen.
		defer close(done)
		defer d.tails.CompareAndDelete(chatID, done)

		if prev != nil {
			select {
			case <-prev:
			case <-ctx.Done():
				return
			}
		}

		select {
		case d.sem <- struct{}{}:
		case <-ctx.Done():
			return
		}
		defer func() { <-d.sem }()

		// A select with both cases ready picks at random, so re-check after
		// acquiring the slot.
		if ctx.Err() != nil {
			return
		}
		fn(ctx)
	}()
}

// wait blocks until every dispatched update has finished or been abandoned.
func (d *dispatcher) wait() {
	d.wg.Wait()
}
