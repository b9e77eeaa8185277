package jmod

import (
	"log/slog"
	"time"
)

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithCompression sets the compression used for new entries (default: deflate).
func WithCompression(c Compression) WriterOption {
	return func(w *Writer) {
		w.compression = c
	}
}

// WithCompressionLevel sets the compression level. Deflate uses the flate
// levels (-2..9); zstd maps the value to its nearest encoder level.
func WithCompressionLevel(level int) WriterOption {
	return func(w *Writer) {
		w.level = level
	}
}

// WithModTime sets the modification time recorded for every entry.
// A fixed time yields reproducible output. Defaults to the time NewWriter runs.
func WithModTime(t time.Time) WriterOption {
	return func(w *Writer) {
		w.modTime = t
	}
}

// WithWriterLogger sets the logger for write operations.
// If not set, logging is disabled.
func WithWriterLogger(logger *slog.Logger) WriterOption {
	return func(w *Writer) {
		w.logger = logger
	}
}
