// Package transport abstracts the live connection underneath a channel.
//
// The transport:
//   - Owns a single WebSocket connection to one channel address
//   - Surfaces inbound frames and connection errors on channels
//   - Detects stale connections via protocol-level ping/pong liveness
//
// The channel manager owns the transport lifecycle; a Dialer lets tests
// substitute an in-memory implementation.
package transport
