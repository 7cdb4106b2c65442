package channel

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/eventdash/livechannel/internal/transport"
)

// Manager owns the state machine for a single logical channel: one
// transport at a time, reconnection with backoff, heartbeat while open,
// polling fallback while not.
//
// Every transition is serialized under one mutex, and a generation
// counter invalidates timers and transport callbacks from earlier
// connection epochs: once Disconnect returns, nothing scheduled by this
// connection fires again.
type Manager struct {
	opts    Options
	logger  *slog.Logger
	dial    transport.Dialer
	onFrame FrameFunc

	heartbeat *Heartbeat
	poller    *Poller

	mu        sync.Mutex
	state     State
	gen       uint64
	attempts  int
	tr        transport.Transport
	epochDone chan struct{}
	reconnect *time.Timer
	lastPong  time.Time
}

// NewManager creates a manager for one channel address. onFrame
// receives every inbound frame; typically this is the router's
// Dispatch.
func NewManager(opts Options, onFrame FrameFunc, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Backoff.Base <= 0 {
		opts.Backoff = DefaultOptions(opts.Address).Backoff
	}
	if onFrame == nil {
		onFrame = func([]byte, time.Time) {}
	}

	m := &Manager{
		opts:    opts,
		logger:  logger,
		onFrame: onFrame,
		state:   StateIdle,
	}

	m.dial = opts.Dialer
	if m.dial == nil {
		m.dial = transport.WebSocketDialer(logger)
	}

	if opts.HeartbeatInterval > 0 {
		m.heartbeat = NewHeartbeat(opts.HeartbeatInterval, m.heartbeatTick)
	}
	if opts.Poll != nil {
		interval := opts.PollInterval
		if interval <= 0 {
			interval = DefaultPollInterval
		}
		m.poller = NewPoller(interval, opts.Poll, logger)
	}

	return m
}

// Connect begins connecting. Idempotent while Connecting or Open; an
// empty address is logged and ignored.
func (m *Manager) Connect() {
	m.mu.Lock()
	if m.state == StateConnecting || m.state == StateOpen {
		m.mu.Unlock()
		return
	}
	if m.opts.Address == "" {
		m.mu.Unlock()
		m.logger.Warn("connect ignored: empty channel address")
		return
	}

	// An explicit connect gets a fresh attempt budget, including after
	// terminal exhaustion.
	m.attempts = 0
	gen, t, done := m.startConnectLocked()
	m.mu.Unlock()

	// Notify before dialing so "connecting" always precedes the
	// outcome of the attempt.
	m.notify(gen, StatusConnecting, "")
	go m.runConnect(gen, t, done)
}

// Disconnect tears the channel down from any state: cancels the
// reconnect timer, stops heartbeat and polling, closes the transport.
// Safe to call repeatedly and from within callbacks; no callback
// scheduled by this connection fires after it returns.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	if m.state == StateIdle {
		m.mu.Unlock()
		return
	}

	m.state = StateClosing
	t := m.teardownLocked()
	m.state = StateIdle
	m.attempts = 0
	m.mu.Unlock()

	if t != nil {
		t.Close()
	}

	m.logger.Debug("channel disconnected", "address", m.opts.Address)
}

// ForceReconnect tears down and immediately reconnects with the
// attempt counter reset.
func (m *Manager) ForceReconnect() {
	m.Disconnect()
	m.Connect()
}

// Send writes a raw frame. Reports true only when the channel is Open
// and the write succeeded; otherwise it is a no-op returning false.
func (m *Manager) Send(data []byte) bool {
	m.mu.Lock()
	t := m.tr
	open := m.state == StateOpen
	m.mu.Unlock()

	if !open || t == nil {
		return false
	}
	if err := t.Send(data); err != nil {
		m.logger.Warn("send failed", "error", err)
		return false
	}
	return true
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Attempts returns the current reconnect attempt count.
func (m *Manager) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

// HeartbeatActive reports whether the keepalive loop is running.
func (m *Manager) HeartbeatActive() bool {
	return m.heartbeat != nil && m.heartbeat.Active()
}

// PollingActive reports whether the polling fallback is running.
func (m *Manager) PollingActive() bool {
	return m.poller != nil && m.poller.Active()
}

// startConnectLocked opens a new connection epoch. Any pending
// reconnect timer belongs to the previous epoch and is cancelled.
// The caller dials the returned transport after releasing the lock.
func (m *Manager) startConnectLocked() (uint64, transport.Transport, chan struct{}) {
	m.gen++
	gen := m.gen

	if m.reconnect != nil {
		m.reconnect.Stop()
		m.reconnect = nil
	}

	m.state = StateConnecting

	done := make(chan struct{})
	m.epochDone = done

	t := m.dial(transport.Config{
		Address:      m.opts.Address,
		ReadTimeout:  m.opts.ReadTimeout,
		WriteTimeout: m.opts.WriteTimeout,
		BufferSize:   m.opts.BufferSize,
	})
	m.tr = t

	return gen, t, done
}

// teardownLocked invalidates the current epoch and returns the
// transport for the caller to close outside the lock.
func (m *Manager) teardownLocked() transport.Transport {
	m.gen++

	if m.reconnect != nil {
		m.reconnect.Stop()
		m.reconnect = nil
	}
	if m.epochDone != nil {
		close(m.epochDone)
		m.epochDone = nil
	}
	if m.heartbeat != nil {
		m.heartbeat.Stop()
	}
	if m.poller != nil {
		m.poller.Stop()
	}

	t := m.tr
	m.tr = nil
	return t
}

// runConnect dials the transport for one epoch.
func (m *Manager) runConnect(gen uint64, t transport.Transport, done chan struct{}) {
	err := t.Connect(context.Background())

	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		t.Close()
		return
	}

	if err != nil {
		m.logger.Warn("connect failed", "address", m.opts.Address, "error", err)
		m.lostLocked(err)
		return
	}

	m.state = StateOpen
	m.attempts = 0
	m.lastPong = time.Now()
	if m.poller != nil {
		m.poller.Stop()
	}
	if m.heartbeat != nil {
		m.heartbeat.Start()
	}
	m.mu.Unlock()

	m.logger.Info("channel open", "address", m.opts.Address)
	m.notify(gen, StatusConnected, "")

	go m.watch(gen, t, done)
}

// watch forwards frames and reacts to transport loss for one epoch.
//
// The epoch check and the onFrame call are not atomic: a Disconnect
// landing between them can let one already-read frame reach the router
// after Disconnect returns. Closing that window would need a join on
// this goroutine, which deadlocks when Disconnect is called from inside
// a frame handler. Status callbacks have no such window; notify
// re-checks the epoch immediately before invoking.
func (m *Manager) watch(gen uint64, t transport.Transport, done chan struct{}) {
	for {
		select {
		case <-done:
			return

		case err, ok := <-t.Errors():
			if !ok {
				err = errTransportClosed
			}
			m.transportLost(gen, err)
			return

		case msg, ok := <-t.Messages():
			if !ok {
				m.transportLost(gen, errTransportClosed)
				return
			}

			m.mu.Lock()
			stale := gen != m.gen
			m.mu.Unlock()
			if stale {
				return
			}

			if m.opts.PongTimeout > 0 && m.absorbPong(msg.Data) {
				continue
			}

			m.onFrame(msg.Data, msg.ReceivedAt)
		}
	}
}

// transportLost handles an abnormal close or error for the given epoch.
func (m *Manager) transportLost(gen uint64, cause error) {
	m.mu.Lock()
	if gen != m.gen || (m.state != StateConnecting && m.state != StateOpen) {
		m.mu.Unlock()
		return
	}

	m.logger.Warn("transport lost", "address", m.opts.Address, "error", cause)
	m.lostLocked(cause)
}

// statusEvent is a pending status notification.
type statusEvent struct {
	status Status
	detail string
}

// lostLocked runs the transport-loss transition. Called with the mutex
// held for the current epoch; releases it before notifying.
func (m *Manager) lostLocked(cause error) {
	t := m.teardownLocked()
	gen := m.gen

	events := []statusEvent{{StatusDisconnected, cause.Error()}}

	if m.poller != nil {
		m.state = StatePolling
		m.poller.Start()
		events = append(events, statusEvent{StatusPolling, ""})
	} else {
		m.state = StateClosed
	}

	if m.attempts >= m.opts.MaxAttempts {
		m.logger.Error("reconnect attempts exhausted",
			"address", m.opts.Address,
			"attempts", m.attempts,
		)
		events = append(events, statusEvent{StatusDisconnected, "reconnect attempts exhausted"})
	} else {
		delay := m.opts.Backoff.Delay(m.attempts)
		m.logger.Info("reconnect scheduled",
			"address", m.opts.Address,
			"attempt", m.attempts+1,
			"delay", delay,
		)
		m.reconnect = time.AfterFunc(delay, func() {
			m.reconnectFired(gen)
		})
	}
	m.mu.Unlock()

	if t != nil {
		t.Close()
	}
	for _, e := range events {
		m.notify(gen, e.status, e.detail)
	}
}

// reconnectFired is the backoff timer callback.
func (m *Manager) reconnectFired(gen uint64) {
	m.mu.Lock()
	if gen != m.gen || (m.state != StateClosed && m.state != StatePolling) {
		m.mu.Unlock()
		return
	}

	m.attempts++
	next, t, done := m.startConnectLocked()
	m.mu.Unlock()

	m.notify(next, StatusConnecting, "")
	go m.runConnect(next, t, done)
}

// heartbeatTick sends one keepalive frame and, when pong verification
// is enabled, forces a reconnect on a silent transport.
func (m *Manager) heartbeatTick() {
	m.mu.Lock()
	gen := m.gen
	t := m.tr
	open := m.state == StateOpen
	var silent bool
	if open && m.opts.PongTimeout > 0 {
		silent = time.Since(m.lastPong) > m.opts.PongTimeout
	}
	m.mu.Unlock()

	if !open || t == nil {
		return
	}

	if silent {
		m.logger.Warn("heartbeat got no pong", "timeout", m.opts.PongTimeout)
		m.transportLost(gen, ErrPongTimeout)
		return
	}

	data, _ := json.Marshal(pingFrame{
		Type:      "ping",
		Timestamp: time.Now().UnixMilli(),
	})
	if err := t.Send(data); err != nil {
		m.logger.Debug("heartbeat send failed", "error", err)
	}
}

// absorbPong records pong liveness and reports whether the frame was
// consumed.
func (m *Manager) absorbPong(data []byte) bool {
	var probe typeProbe
	if err := json.Unmarshal(data, &probe); err != nil || probe.Type != "pong" {
		return false
	}

	m.mu.Lock()
	m.lastPong = time.Now()
	m.mu.Unlock()
	return true
}

// notify delivers a status transition. The epoch is re-checked right
// before invoking the callback so transitions from torn-down
// connections stay silent; the callback itself runs without locks held,
// which keeps Disconnect callable from inside it.
func (m *Manager) notify(gen uint64, status Status, detail string) {
	m.mu.Lock()
	cb := m.opts.OnStatus
	ok := gen == m.gen && cb != nil
	m.mu.Unlock()

	if ok {
		cb(status, detail)
	}
}
