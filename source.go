package jmod

import (
	"fmt"
	"io"
	"os"
)

// ByteSource provides random access to a JMOD file.
//
// Implementations exist for local files (*os.File) and HTTP range requests.
type ByteSource interface {
	io.ReaderAt
	Size() int64
}

// fileSource wraps *os.File to implement ByteSource.
// os.File has ReadAt but not Size, so we cache the size at construction.
type fileSource struct {
	file *os.File
	size int64
}

// newFileSource creates a fileSource from an open file.
func newFileSource(f *os.File) (*fileSource, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", f.Name(), err)
	}
	return &fileSource{file: f, size: info.Size()}, nil
}

// ReadAt implements io.ReaderAt.
func (fs *fileSource) ReadAt(p []byte, off int64) (int, error) {
	return fs.file.ReadAt(p, off)
}

// Size returns the total size of the file.
func (fs *fileSource) Size() int64 {
	return fs.size
}

// Close closes the underlying file.
func (fs *fileSource) Close() error {
	return fs.file.Close()
}

// Interface compliance.
var (
	_ ByteSource = (*fileSource)(nil)
	_ io.Closer  = (*fileSource)(nil)
)
