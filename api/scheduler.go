/*
scheduler.go - Periodic calendar refresh

PURPOSE:
  Fiscal calendars change rarely but do change (next year's periods get
  published, a period boundary is corrected). The scheduler reloads the
  calendar from its source on a fixed interval so long-running servers
  pick up new rows without a restart.

DESIGN:
  - Runs a background goroutine with a configurable interval
  - Reuses the discovered source id (no re-discovery) on each tick
  - A failed refresh is logged and the previous calendar keeps serving
  - Every attempt is recorded as a load run (see store/sqlite/runs.go)
  - Each tick also drops idle selection sessions (see sessions.go)

CONFIGURATION:
  - Interval: How often to reload (default: 1 hour)
  - Enabled:  Whether the scheduler is active (default: true)

USAGE:
  scheduler := NewRefreshScheduler(handler)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: Reload, ReloadCalendar endpoint (manual reload)
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"
)

// RefreshScheduler reloads the calendar periodically.
type RefreshScheduler struct {
	Handler  *Handler
	Interval time.Duration
	Enabled  bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewRefreshScheduler creates a new scheduler.
func NewRefreshScheduler(handler *Handler) *RefreshScheduler {
	return &RefreshScheduler{
		Handler:  handler,
		Interval: 1 * time.Hour,
		Enabled:  true,
	}
}

// Start begins the scheduler. The first reload happens on the first tick;
// callers load once themselves at startup.
func (rs *RefreshScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled || rs.Interval <= 0 {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}
	if rs.ticker != nil {
		return
	}

	rs.ticker = time.NewTicker(rs.Interval)
	rs.stop = make(chan struct{})
	rs.wg.Add(1)

	go rs.run(rs.ticker, rs.stop)

	log.Printf("[Scheduler] Started with refresh interval: %v", rs.Interval)
}

// Stop stops the scheduler and waits for a reload in progress.
func (rs *RefreshScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		rs.ticker = nil
		log.Println("[Scheduler] Stopped")
	}
}

func (rs *RefreshScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer rs.wg.Done()

	for {
		select {
		case <-ticker.C:
			rs.refresh()
		case <-stop:
			return
		}
	}
}

func (rs *RefreshScheduler) refresh() {
	if n := rs.Handler.Sessions.Reap(); n > 0 {
		log.Printf("[Scheduler] Dropped %d idle sessions", n)
	}

	ctx, cancel := context.WithTimeout(context.Background(), rs.timeout())
	defer cancel()

	res, err := rs.Handler.Reload(ctx, false)
	if err != nil {
		log.Printf("[Scheduler] Refresh failed, keeping previous calendar: %v", err)
		return
	}
	log.Printf("[Scheduler] Refreshed calendar from %s: %d rows, %d warnings",
		res.Source.ID, res.Rows, len(res.Issues))
}

// timeout bounds one reload to the interval, at most five minutes.
func (rs *RefreshScheduler) timeout() time.Duration {
	if rs.Interval > 0 && rs.Interval < 5*time.Minute {
		return rs.Interval
	}
	return 5 * time.Minute
}

// RunNow triggers an immediate refresh (for testing/admin).
func (rs *RefreshScheduler) RunNow() {
	rs.refresh()
}

// GetNextRunTime returns when the next scheduled refresh will occur.
func (rs *RefreshScheduler) GetNextRunTime() time.Time {
	return time.Now().Add(rs.Interval)
}
