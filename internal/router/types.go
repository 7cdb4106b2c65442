package router

import (
	"encoding/json"
	"time"
)

// Envelope is the structured wrapper around every inbound message.
// Unknown fields in the frame are ignored.
type Envelope struct {
	Type       string          `json:"type"`
	Data       json.RawMessage `json:"data"`
	ReceivedAt time.Time       `json:"-"`
}

// Category returns the namespace portion of the envelope type: the
// substring before the first '.' or ':'. Empty when the type carries
// no namespace delimiter.
func (e Envelope) Category() string {
	return categoryOf(e.Type)
}

// Handler receives dispatched envelopes.
type Handler func(Envelope)

// Unsubscribe removes a subscription. Safe to call more than once.
type Unsubscribe func()

// Stats contains router counters.
type Stats struct {
	Received    int64 // Frames handed to Dispatch
	Delivered   int64 // Envelopes that reached at least one subscriber
	ParseErrors int64 // Frames that were not valid envelopes
	Dropped     int64 // Valid envelopes with no matching subscriber
}

func categoryOf(msgType string) string {
	for i := 0; i < len(msgType); i++ {
		if msgType[i] == '.' || msgType[i] == ':' {
			return msgType[:i]
		}
	}
	return ""
}
