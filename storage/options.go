package storage

import (
	"log/slog"
	"time"
)

// Option configures a Session.
type Option func(*Session)

// WithWorkers sets how many files are transferred at once. Values below 1
// are ignored.
func WithWorkers(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithRetries sets how many times a failed file transfer is retried and the
// constant wait between attempts.
func WithRetries(maxRetries int, wait time.Duration) Option {
	return func(s *Session) {
		if maxRetries >= 0 {
			s.maxRetries = maxRetries
		}
		if wait >= 0 {
			s.retryWait = wait
		}
	}
}

// WithLocalDir sets the directory package files are read from.
func WithLocalDir(dir string) Option {
	return func(s *Session) {
		s.localDir = dir
	}
}

// WithLogger sets the logger for the session.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}
