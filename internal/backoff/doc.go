// Package backoff implements the reconnect delay policy.
//
// The policy:
//   - Maps an attempt count to a wait duration
//   - Grows exponentially from a base delay up to a cap
//   - Is deterministic (no jitter); callers compose jitter if needed
package backoff
