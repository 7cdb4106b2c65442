// Package router implements the message router for a channel.
//
// The router:
//   - Parses inbound frames into typed envelopes
//   - Dispatches envelopes to subscribers by exact type and by category
//   - Drops and counts malformed or unrouteable messages without
//     touching connection state
package router
