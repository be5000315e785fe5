package chain

import (
	"log/slog"
	"sync"
	"time"
)

// TimerExecutor implements DeferredExecutor with in-process timers. Pending
// tasks are deduplicated by key; a key becomes reusable once its task has
// fired. Tasks do not survive a restart, which the engine tolerates: the
// next bounded sweep discovers any lease that missed its deferred expiry.
type TimerExecutor struct {
	expire ExpireFunc

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// NewTimerExecutor creates an executor that delivers batches to expire.
func NewTimerExecutor(expire ExpireFunc) *TimerExecutor {
	return &TimerExecutor{
		expire:  expire,
		pending: make(map[string]*time.Timer),
	}
}

// Schedule enqueues ids for delivery after delay seconds. A batch with a
// dedupe key already pending is dropped.
func (e *TimerExecutor) Schedule(ids []int64, delay int64, dedupeKey string) error {
	if len(ids) == 0 {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.pending[dedupeKey]; ok {
		slog.Debug("Deferred task already pending", "key", dedupeKey)
		return nil
	}

	e.pending[dedupeKey] = time.AfterFunc(time.Duration(delay)*time.Second, func() {
		e.mu.Lock()
		delete(e.pending, dedupeKey)
		e.mu.Unlock()

		e.expire(ids)
	})
	return nil
}

// Stop cancels all pending timers. Used on shutdown and in tests.
func (e *TimerExecutor) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for key, timer := range e.pending {
		timer.Stop()
		delete(e.pending, key)
	}
}
