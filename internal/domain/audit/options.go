package audit

// Option applies a configuration option to the memory trail.
type Option func(*memoryTrail)

// WithMaxSize bounds the number of retained decisions. Zero or negative
// keeps the trail unbounded.
func WithMaxSize(size int) Option {
	return func(t *memoryTrail) {
		t.maxSize = size
	}
}
