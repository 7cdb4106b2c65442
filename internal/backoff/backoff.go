package backoff

import "time"

// Policy computes reconnect delays. The zero value is not usable; build one
// with Default or fill all fields explicitly.
type Policy struct {
	Base       time.Duration // delay for attempt 0
	Multiplier float64       // growth factor per attempt
	Cap        time.Duration // upper bound on the computed delay
}

// Default returns the standard reconnect policy.
func Default() Policy {
	return Policy{
		Base:       1 * time.Second,
		Multiplier: 2,
		Cap:        60 * time.Second,
	}
}

// Delay returns the wait before reconnect attempt number attempt.
// Negative attempts clamp to 0 so the manager stays total.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	d := float64(p.Base)
	for i := 0; i < attempt; i++ {
		d *= p.Multiplier
		if d >= float64(p.Cap) {
			return p.Cap
		}
	}

	if d > float64(p.Cap) {
		return p.Cap
	}
	return time.Duration(d)
}
