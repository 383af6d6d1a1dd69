package watch

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultThrottle is the minimum spacing between delivered ticks.
const DefaultThrottle = 500 * time.Millisecond

// ErrRunning is returned when Start is called on a running watcher.
var ErrRunning = errors.New("watcher already running")

// Options configures a Watcher.
type Options struct {
	// Interval is the polling period. Zero disables polling so only Notify produces ticks.
	Interval time.Duration
	// Throttle drops any tick arriving sooner than this after the last delivered one.
	// Zero uses DefaultThrottle; negative disables throttling.
	Throttle time.Duration
	// Now overrides the clock consulted by the throttle.
	Now func() time.Time
}

// Watcher merges a ticker and coalesced change notifications into one
// throttled channel. It can be stopped and started again.
type Watcher struct {
	interval time.Duration
	throttle time.Duration
	now      func() time.Time

	notify chan struct{}

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// New builds a stopped watcher.
func New(opts Options) *Watcher {
	throttle := opts.Throttle
	if throttle == 0 {
		throttle = DefaultThrottle
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Watcher{
		interval: opts.Interval,
		throttle: throttle,
		now:      now,
		notify:   make(chan struct{}, 1),
	}
}

// Start begins producing ticks until ctx is cancelled or Stop is called.
// The returned channel is closed when the loop exits.
func (w *Watcher) Start(ctx context.Context) (<-chan time.Time, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil, ErrRunning
	}

	limit := rate.Inf
	if w.throttle > 0 {
		limit = rate.Every(w.throttle)
	}
	limiter := rate.NewLimiter(limit, 1)

	// Drop notifications left over from a previous run.
	select {
	case <-w.notify:
	default:
	}

	loopCtx, cancel := context.WithCancel(ctx)
	out := make(chan time.Time)
	w.cancel = cancel
	w.running = true
	w.wg.Add(1)
	go w.loop(loopCtx, limiter, out)
	return out, nil
}

// Notify requests a tick. Notifications arriving while one is pending are coalesced.
func (w *Watcher) Notify() {
	select {
	case w.notify <- struct{}{}:
	default:
	}
}

// Stop cancels the loop and waits for it to exit. No tick is delivered after Stop returns.
func (w *Watcher) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
}

// Running reports whether the loop is active.
func (w *Watcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) loop(ctx context.Context, limiter *rate.Limiter, out chan<- time.Time) {
	defer w.wg.Done()
	defer func() {
		close(out)
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	var tickC <-chan time.Time
	if w.interval > 0 {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		tickC = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-tickC:
		case <-w.notify:
		}

		now := w.now()
		if !limiter.AllowN(now, 1) {
			continue
		}
		select {
		case out <- now:
		case <-ctx.Done():
			return
		}
	}
}
