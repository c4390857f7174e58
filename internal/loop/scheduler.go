package loop

import "time"

// DefaultPeriod is the tick interval.
const DefaultPeriod = 500 * time.Millisecond

// Ticker delivers tick times on C. Production uses NewTicker; tests feed a
// channel directly to Run and need no wall-clock waits.
type Ticker struct {
	C <-chan time.Time

	t *time.Ticker
}

// NewTicker starts a fixed-period ticker. A receiver that falls behind loses
// ticks rather than queueing them, so ticks never overlap.
func NewTicker(period time.Duration) *Ticker {
	t := time.NewTicker(period)
	return &Ticker{C: t.C, t: t}
}

// Stop halts the ticker. No more ticks are delivered.
func (t *Ticker) Stop() {
	t.t.Stop()
}

// missed returns how many whole periods elapsed between two ticks beyond the
// expected one. It is zero for on-time ticks and when period is unset.
func missed(prev, cur time.Time, period time.Duration) int {
	if period <= 0 || prev.IsZero() || cur.IsZero() {
		return 0
	}
	gap := cur.Sub(prev)
	// Half a period of jitter is tolerated before a tick counts as dropped.
	n := int((gap + period/2) / period)
	if n <= 1 {
		return 0
	}
	return n - 1
}
