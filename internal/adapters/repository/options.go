package repository

import "time"

// Option applies a configuration option to the GormStore.
type Option func(*GormStore)

// WithQueryTimeout bounds every store call. Zero leaves the caller's
// context deadline as the only limit.
func WithQueryTimeout(timeout time.Duration) Option {
	return func(s *GormStore) {
		if timeout > 0 {
			s.queryTimeout = timeout
		}
	}
}

// WithAutoMigrate creates or updates the schema when the store is built.
func WithAutoMigrate() Option {
	return func(s *GormStore) {
		s.autoMigrate = true
	}
}
