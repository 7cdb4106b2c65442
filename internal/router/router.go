package router

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Router parses raw frames and dispatches envelopes to subscribers.
type Router struct {
	logger *slog.Logger

	mu   sync.RWMutex
	subs map[string]map[string]Handler // typeOrCategory → token → handler

	statsMu     sync.Mutex
	received    int64
	delivered   int64
	parseErrors int64
	dropped     int64
}

// New creates a Router.
func New(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}

	return &Router{
		logger: logger,
		subs:   make(map[string]map[string]Handler),
	}
}

// Subscribe registers a handler for an exact message type
// ("fixtures.updated") or a category ("fixtures"). The returned
// function removes the subscription; calling it twice is harmless.
func (r *Router) Subscribe(typeOrCategory string, handler Handler) Unsubscribe {
	token := uuid.NewString()

	r.mu.Lock()
	handlers, ok := r.subs[typeOrCategory]
	if !ok {
		handlers = make(map[string]Handler)
		r.subs[typeOrCategory] = handlers
	}
	handlers[token] = handler
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		if handlers, ok := r.subs[typeOrCategory]; ok {
			delete(handlers, token)
			if len(handlers) == 0 {
				delete(r.subs, typeOrCategory)
			}
		}
		r.mu.Unlock()
	}
}

// Clear removes every subscription. Used on client teardown.
func (r *Router) Clear() {
	r.mu.Lock()
	r.subs = make(map[string]map[string]Handler)
	r.mu.Unlock()
}

// Dispatch parses a raw frame and routes the envelope. Malformed frames
// are counted and logged, never returned as errors: a bad frame must not
// affect the connection that carried it.
func (r *Router) Dispatch(data []byte, receivedAt time.Time) {
	r.statsMu.Lock()
	r.received++
	r.statsMu.Unlock()

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil || env.Type == "" {
		r.logger.Warn("dropping malformed frame", "error", err)
		r.statsMu.Lock()
		r.parseErrors++
		r.statsMu.Unlock()
		return
	}
	env.ReceivedAt = receivedAt

	handlers := r.match(env.Type)
	if len(handlers) == 0 {
		r.logger.Debug("no subscriber for message", "type", env.Type)
		r.statsMu.Lock()
		r.dropped++
		r.statsMu.Unlock()
		return
	}

	for _, h := range handlers {
		h(env)
	}

	r.statsMu.Lock()
	r.delivered++
	r.statsMu.Unlock()
}

// match collects handlers for the exact type and, when the type is
// namespaced, for its category.
func (r *Router) match(msgType string) []Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Handler
	for _, h := range r.subs[msgType] {
		out = append(out, h)
	}

	if cat := categoryOf(msgType); cat != "" {
		for _, h := range r.subs[cat] {
			out = append(out, h)
		}
	}

	return out
}

// Stats returns current counters.
func (r *Router) Stats() Stats {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()

	return Stats{
		Received:    r.received,
		Delivered:   r.delivered,
		ParseErrors: r.parseErrors,
		Dropped:     r.dropped,
	}
}
