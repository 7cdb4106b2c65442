package channel

import (
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/eventdash/livechannel/internal/router"
)

// Client is the public façade for one logical channel: a connection
// manager plus a message router bound to one resource address.
type Client struct {
	id      string
	opts    Options
	logger  *slog.Logger
	manager *Manager
	router  *router.Router
}

// New creates a channel client. Construction acquires nothing beyond
// timers-to-be; Close releases everything on every path.
func New(opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	id := uuid.NewString()
	logger = logger.With("channel_id", id, "address", opts.Address)

	r := router.New(logger)
	m := NewManager(opts, r.Dispatch, logger)

	return &Client{
		id:      id,
		opts:    opts,
		logger:  logger,
		manager: m,
		router:  r,
	}
}

// ID returns the client's instance identifier.
func (c *Client) ID() string {
	return c.id
}

// Subscribe registers a handler for an exact message type or a
// category; the returned function removes the subscription.
func (c *Client) Subscribe(typeOrCategory string, handler router.Handler) router.Unsubscribe {
	return c.router.Subscribe(typeOrCategory, handler)
}

// Connect begins connecting the channel.
func (c *Client) Connect() {
	c.manager.Connect()
}

// Disconnect tears the channel down without releasing subscriptions.
func (c *Client) Disconnect() {
	c.manager.Disconnect()
}

// ForceReconnect tears down and reconnects with the attempt counter
// reset. The collaborator's escape hatch from terminal disconnect.
func (c *Client) ForceReconnect() {
	c.manager.ForceReconnect()
}

// Send marshals an envelope and writes it. Reports true only when the
// channel is open and the write succeeded.
func (c *Client) Send(msgType string, payload any) bool {
	data, err := json.Marshal(map[string]any{
		"type": msgType,
		"data": payload,
	})
	if err != nil {
		c.logger.Warn("send failed: unmarshalable payload", "type", msgType, "error", err)
		return false
	}
	return c.manager.Send(data)
}

// SendRaw writes a pre-encoded frame.
func (c *Client) SendRaw(data []byte) bool {
	return c.manager.Send(data)
}

// Status returns the current connection state.
func (c *Client) Status() State {
	return c.manager.State()
}

// Stats returns the router's dispatch counters.
func (c *Client) Stats() router.Stats {
	return c.router.Stats()
}

// Close disconnects and releases every subscription. Safe to call more
// than once.
func (c *Client) Close() {
	c.manager.Disconnect()
	c.router.Clear()
}
