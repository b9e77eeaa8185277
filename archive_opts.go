package jmod

import "log/slog"

// Option configures an Archive.
type Option func(*Archive)

// WithLogger sets the logger for archive operations.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Archive) {
		a.logger = logger
	}
}

// WithMaxEntrySize limits the size of entries read with ReadFile.
// Set limit to 0 to disable the limit.
func WithMaxEntrySize(limit uint64) Option {
	return func(a *Archive) {
		a.maxEntrySize = limit
	}
}

// WithDecoderConcurrency sets the zstd decoder concurrency (default: 1).
// Values < 0 are treated as 0 (use GOMAXPROCS).
func WithDecoderConcurrency(n int) Option {
	return func(a *Archive) {
		if n < 0 {
			n = 0
		}
		a.decoderConcurrency = n
	}
}

// WithDecoderMaxMemory limits the memory used by each zstd decoder.
// Set limit to 0 to use the decoder default.
func WithDecoderMaxMemory(limit uint64) Option {
	return func(a *Archive) {
		a.decoderMaxMemory = limit
	}
}

// WithOwnedSource makes Close also close the source passed to OpenSource
// when it implements io.Closer. It has no effect on Open.
func WithOwnedSource() Option {
	return func(a *Archive) {
		a.ownSource = true
	}
}
