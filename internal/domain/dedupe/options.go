// Package dedupe tracks keys already seen so tables keep only the first row per key.
package dedupe

// Option applies a configuration option to the in-memory deduper.
type Option func(*inMemoryDeduper)

// WithSizeHint pre-sizes the key set for the expected number of rows.
func WithSizeHint(n int) Option {
	return func(d *inMemoryDeduper) {
		if n > 0 {
			d.sizeHint = n
		}
	}
}
