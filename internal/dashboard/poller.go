package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"interview-voice-grader/internal/logging"
)

// DefaultInterval matches the dashboard's background refresh cadence.
const DefaultInterval = 30 * time.Second

// Loader fetches a fresh snapshot.
type Loader func(ctx context.Context) (*Snapshot, error)

// Poller refreshes a snapshot on a timer and on demand. Refreshes may
// overlap; each one takes a generation number when it starts and a result
// is applied only if no later refresh has already been applied.
type Poller struct {
	load     Loader
	interval time.Duration
	logger   *slog.Logger
	onUpdate func(*Snapshot)

	mu      sync.Mutex
	issued  uint64
	applied uint64
	current *Snapshot
	lastErr error

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewPoller creates a poller. onUpdate, if set, is called after each applied snapshot.
func NewPoller(load Loader, interval time.Duration, logger *slog.Logger, onUpdate func(*Snapshot)) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		load:     load,
		interval: interval,
		logger:   logging.Component(logger, "dashboard"),
		onUpdate: onUpdate,
		stop:     make(chan struct{}),
	}
}

// Start refreshes immediately and then on every tick until Stop or ctx is done.
func (p *Poller) Start(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		p.refreshLogged(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-p.stop:
				return
			case <-ticker.C:
				p.refreshLogged(ctx)
			}
		}
	}()
}

func (p *Poller) refreshLogged(ctx context.Context) {
	if _, err := p.Refresh(ctx); err != nil {
		p.logger.Warn("dashboard refresh failed", slog.String("error", err.Error()))
	}
}

// Refresh fetches now. It reports whether the result was applied; a result
// that finished after a newer one is discarded.
func (p *Poller) Refresh(ctx context.Context) (bool, error) {
	p.mu.Lock()
	p.issued++
	gen := p.issued
	p.mu.Unlock()

	snap, err := p.load(ctx)

	p.mu.Lock()
	if gen <= p.applied {
		p.mu.Unlock()
		p.logger.Debug("discarding stale dashboard snapshot", slog.Uint64("generation", gen))
		return false, nil
	}
	if err != nil {
		p.lastErr = err
		p.mu.Unlock()
		return false, err
	}
	snap.Generation = gen
	p.applied = gen
	p.current = snap
	p.lastErr = nil
	onUpdate := p.onUpdate
	p.mu.Unlock()

	if onUpdate != nil {
		onUpdate(snap)
	}
	return true, nil
}

// Snapshot returns the latest applied snapshot, or nil before the first one.
func (p *Poller) Snapshot() *Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Err returns the error of the latest failed refresh, cleared by a success.
func (p *Poller) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// Stop halts the ticker and waits for the loop to exit. In-flight manual
// refreshes still complete but cannot regress the snapshot.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	p.wg.Wait()
}
