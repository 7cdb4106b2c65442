package channel

import (
	"errors"
	"time"

	"github.com/eventdash/livechannel/internal/backoff"
	"github.com/eventdash/livechannel/internal/transport"
)

// Errors
var (
	ErrPongTimeout = errors.New("no pong received within timeout")

	errTransportClosed = errors.New("transport channel closed")
)

// State is the connection state of a channel.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosing
	StateClosed
	StatePolling
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	case StatePolling:
		return "polling"
	default:
		return "unknown"
	}
}

// Status is the connection status reported to the collaborator.
type Status string

const (
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
	StatusPolling      Status = "polling"
)

// StatusFunc receives status transitions. The detail string is
// diagnostic only; no structure is guaranteed beyond the Status value.
type StatusFunc func(status Status, detail string)

// FrameFunc receives raw inbound frames.
type FrameFunc func(data []byte, receivedAt time.Time)

// Options configures a channel client. Everything the client needs is
// supplied here; it never reaches into ambient global state.
type Options struct {
	Address string // Channel address; opaque to the client

	Backoff     backoff.Policy
	MaxAttempts int // Reconnect attempts before terminal disconnect

	HeartbeatInterval time.Duration // 0 disables the heartbeat
	PongTimeout       time.Duration // 0 disables pong verification

	PollInterval time.Duration // Interval for the polling fallback
	Poll         func()        // Refresh callback; nil disables polling

	OnStatus StatusFunc // Status transition callback; may be nil

	// Transport tuning
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	BufferSize   int

	// Dialer overrides the WebSocket transport. Used by tests.
	Dialer transport.Dialer
}

// Default option values.
const (
	DefaultMaxAttempts       = 10
	DefaultHeartbeatInterval = 25 * time.Second
	DefaultPollInterval      = 20 * time.Second
)

// DefaultOptions returns options for a channel address with the
// standard backoff policy and intervals. Polling stays disabled until
// the caller supplies a Poll callback.
func DefaultOptions(address string) Options {
	tc := transport.DefaultConfig()

	return Options{
		Address:           address,
		Backoff:           backoff.Default(),
		MaxAttempts:       DefaultMaxAttempts,
		HeartbeatInterval: DefaultHeartbeatInterval,
		PollInterval:      DefaultPollInterval,
		ReadTimeout:       tc.ReadTimeout,
		WriteTimeout:      tc.WriteTimeout,
		BufferSize:        tc.BufferSize,
	}
}

// pingFrame is the outbound heartbeat frame.
type pingFrame struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"` // Unix milliseconds
}

// typeProbe extracts only the type field of an inbound frame.
type typeProbe struct {
	Type string `json:"type"`
}
