package repository

import "time"

// Option applies a configuration option to the TreapStore.
type Option func(*TreapStore)

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *TreapStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

// SQLOption applies a configuration option to the SQLStore.
type SQLOption func(*sqlSettings)

type sqlSettings struct {
	maxOpenConns    int
	maxIdleConns    int
	connMaxLifetime time.Duration
}

// WithMaxOpenConns bounds the connection pool.
func WithMaxOpenConns(n int) SQLOption {
	return func(s *sqlSettings) {
		if n > 0 {
			s.maxOpenConns = n
		}
	}
}

// WithMaxIdleConns bounds idle pooled connections.
func WithMaxIdleConns(n int) SQLOption {
	return func(s *sqlSettings) {
		if n > 0 {
			s.maxIdleConns = n
		}
	}
}

// WithConnMaxLifetime recycles connections older than d.
func WithConnMaxLifetime(d time.Duration) SQLOption {
	return func(s *sqlSettings) {
		if d > 0 {
			s.connMaxLifetime = d
		}
	}
}
