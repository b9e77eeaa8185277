// Package sizing provides bounded reads that fail instead of growing past a limit.
package sizing

import (
	"io"
	"math"
)

// ReadAllWithLimit reads up to maxSize bytes from r.
// Returns overflowErr if more than maxSize bytes are available.
// A maxSize of 0 disables the limit.
func ReadAllWithLimit(r io.Reader, maxSize uint64, overflowErr error) ([]byte, error) {
	if maxSize == 0 {
		return io.ReadAll(r)
	}
	if maxSize > uint64(math.MaxInt-1) {
		return nil, overflowErr
	}
	limit := int64(maxSize) + 1 //nolint:gosec // checked above
	lr := &io.LimitedReader{R: r, N: limit}
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if uint64(len(data)) > maxSize { //nolint:gosec // len is always non-negative
		return nil, overflowErr
	}
	return data, nil
}
