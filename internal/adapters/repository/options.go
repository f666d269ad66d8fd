package repository

// Option applies a configuration option to the SnapshotStore.
type Option func(*SnapshotStore)

// WithPersonHint presizes the per-person index.
func WithPersonHint(n int) Option {
	return func(s *SnapshotStore) {
		if n > 0 {
			s.personHint = n
		}
	}
}
