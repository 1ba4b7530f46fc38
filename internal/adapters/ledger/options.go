package ledger

import "time"

// Option applies a configuration option to the MemoryLedger.
type Option func(*MemoryLedger)

// WithMetricsInterval sets how often occupancy gauges are refreshed.
func WithMetricsInterval(interval time.Duration) Option {
	return func(l *MemoryLedger) {
		if interval > 0 {
			l.metricsInterval = interval
		}
	}
}
