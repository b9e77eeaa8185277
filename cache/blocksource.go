// Package cache provides an in-memory block cache for random access sources.
//
// Reading a JMOD container over HTTP issues many small reads clustered
// around the ZIP central directory and local file headers. Wrapping the
// source in a BlockSource turns those into a few block-sized fetches.
package cache

import (
	"container/list"
	"fmt"
	"io"
	"strconv"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// ByteSource provides random access to data for block caching.
type ByteSource interface {
	io.ReaderAt

	// Size returns the total size of the data source in bytes.
	Size() int64
}

// DefaultBlockSize is the default block size.
const DefaultBlockSize int64 = 64 << 10

// DefaultMaxBlocks is the default number of blocks kept in memory.
const DefaultMaxBlocks = 256

// BlockSource wraps a ByteSource and serves reads from fixed-size blocks
// kept in memory. It is safe for concurrent use; concurrent misses on the
// same block share a single fetch.
type BlockSource struct {
	src       ByteSource
	size      int64
	blockSize int64
	maxBlocks int

	mu     sync.Mutex
	blocks map[int64]*list.Element
	lru    *list.List

	fetchGroup singleflight.Group
	hits       atomic.Int64
	misses     atomic.Int64
}

type block struct {
	index int64
	data  []byte
}

// Option configures a BlockSource.
type Option func(*BlockSource)

// WithBlockSize sets the block size in bytes. Values <= 0 are ignored.
func WithBlockSize(n int64) Option {
	return func(s *BlockSource) {
		if n > 0 {
			s.blockSize = n
		}
	}
}

// WithMaxBlocks sets how many blocks are retained. Values <= 0 are ignored.
func WithMaxBlocks(n int) Option {
	return func(s *BlockSource) {
		if n > 0 {
			s.maxBlocks = n
		}
	}
}

// NewBlockSource wraps src with a block cache.
func NewBlockSource(src ByteSource, opts ...Option) *BlockSource {
	s := &BlockSource{
		src:       src,
		size:      src.Size(),
		blockSize: DefaultBlockSize,
		maxBlocks: DefaultMaxBlocks,
		blocks:    make(map[int64]*list.Element),
		lru:       list.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Size returns the size of the wrapped source.
func (s *BlockSource) Size() int64 {
	return s.size
}

// Stats returns the number of block hits and misses so far.
func (s *BlockSource) Stats() (hits, misses int64) {
	return s.hits.Load(), s.misses.Load()
}

// Close closes the wrapped source if it implements io.Closer.
func (s *BlockSource) Close() error {
	if c, ok := s.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// ReadAt implements io.ReaderAt.
func (s *BlockSource) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 {
		return 0, fmt.Errorf("read at %d: negative offset", off)
	}
	if off >= s.size {
		return 0, io.EOF
	}

	expected := int64(len(p))
	if off+expected > s.size {
		expected = s.size - off
	}

	startBlock := off / s.blockSize
	endBlock := (off + expected - 1) / s.blockSize

	var n int64
	for idx := startBlock; idx <= endBlock; idx++ {
		blockStart := idx * s.blockSize
		blockEnd := min(blockStart+s.blockSize, s.size)

		data, err := s.getBlock(idx, blockStart, blockEnd-blockStart)
		if err != nil {
			return int(n), err
		}

		copyStart := max(off, blockStart)
		copyEnd := min(off+expected, blockEnd)
		n += int64(copy(p[copyStart-off:copyEnd-off], data[copyStart-blockStart:copyEnd-blockStart]))
	}

	if expected < int64(len(p)) {
		return int(n), io.EOF
	}
	return int(n), nil
}

func (s *BlockSource) getBlock(idx, off, length int64) ([]byte, error) {
	s.mu.Lock()
	if el, ok := s.blocks[idx]; ok {
		s.lru.MoveToFront(el)
		data := el.Value.(*block).data //nolint:errcheck // list only holds *block
		s.mu.Unlock()
		s.hits.Add(1)
		return data, nil
	}
	s.mu.Unlock()

	result, err, _ := s.fetchGroup.Do(strconv.FormatInt(idx, 10), func() (any, error) {
		s.misses.Add(1)
		buf := make([]byte, length)
		n, err := s.src.ReadAt(buf, off)
		if err != nil && err != io.EOF {
			return nil, err
		}
		if int64(n) != length {
			return nil, io.ErrUnexpectedEOF
		}
		s.store(idx, buf)
		return buf, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil //nolint:errcheck // type assertion always succeeds when err is nil
}

func (s *BlockSource) store(idx int64, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blocks[idx]; ok {
		return
	}
	s.blocks[idx] = s.lru.PushFront(&block{index: idx, data: data})
	for s.lru.Len() > s.maxBlocks {
		oldest := s.lru.Back()
		s.lru.Remove(oldest)
		delete(s.blocks, oldest.Value.(*block).index) //nolint:errcheck // list only holds *block
	}
}
