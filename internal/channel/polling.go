package channel

import (
	"log/slog"
	"sync"
	"time"
)

// Poller invokes a refresh callback on a fixed interval while no live
// transport is available, so the collaborator's view keeps
// eventually-consistent data. Fires once immediately on Start; the
// manager stops it the moment the connection re-enters Open.
type Poller struct {
	interval time.Duration
	refresh  func()
	logger   *slog.Logger

	mu   sync.Mutex
	done chan struct{}
}

// NewPoller creates a stopped poller.
func NewPoller(interval time.Duration, refresh func(), logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}

	return &Poller{
		interval: interval,
		refresh:  refresh,
		logger:   logger,
	}
}

// Start begins polling. Idempotent while running.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done != nil {
		return
	}

	done := make(chan struct{})
	p.done = done
	go p.run(done)

	p.logger.Debug("polling fallback started", "interval", p.interval)
}

// Stop halts polling. Idempotent while stopped.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done == nil {
		return
	}

	close(p.done)
	p.done = nil

	p.logger.Debug("polling fallback stopped")
}

// Active reports whether the poller is running.
func (p *Poller) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done != nil
}

// run drives the refresh loop. The done check and the refresh call are
// not atomic, so one refresh may still fire just after Stop returns.
func (p *Poller) run(done chan struct{}) {
	// Refresh immediately so the view catches up without waiting a
	// full interval after transport loss.
	select {
	case <-done:
		return
	default:
		p.refresh()
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			select {
			case <-done:
				return
			default:
			}
			p.refresh()
		}
	}
}
