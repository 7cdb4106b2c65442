// Package channel implements the live-channel client.
//
// The channel client:
//   - Owns one transport's lifecycle for one logical channel address
//   - Reconnects with exponential backoff, up to a configured maximum
//   - Sends application-level heartbeat frames while the transport is open
//   - Falls back to periodic polling while no live transport is available
//   - Dispatches inbound envelopes to subscribers through the router
//
// Every Client is independent: no transports, timers, or subscription
// tables are shared between channels.
package channel
