package channel

import (
	"sync"
	"time"
)

// Heartbeat invokes a tick function on a fixed interval while started.
// The manager starts it on entering Open and stops it on leaving Open;
// the tick sends the keepalive frame and checks pong liveness.
type Heartbeat struct {
	interval time.Duration
	tick     func()

	mu   sync.Mutex
	done chan struct{}
}

// NewHeartbeat creates a stopped heartbeat.
func NewHeartbeat(interval time.Duration, tick func()) *Heartbeat {
	return &Heartbeat{
		interval: interval,
		tick:     tick,
	}
}

// Start begins ticking. Idempotent while running.
func (h *Heartbeat) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.done != nil {
		return
	}

	done := make(chan struct{})
	h.done = done
	go h.run(done)
}

// Stop halts ticking. Idempotent while stopped.
func (h *Heartbeat) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.done == nil {
		return
	}

	close(h.done)
	h.done = nil
}

// Active reports whether the heartbeat is running.
func (h *Heartbeat) Active() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.done != nil
}

func (h *Heartbeat) run(done chan struct{}) {
	ticker := time.NewTicker(h.interval)
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
			h.tick()
		}
	}
}
