package jmod

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"sync"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"

	"github.com/meigma/jmod/internal/sizing"
)

// DefaultMaxEntrySize is the default limit applied by ReadFile.
const DefaultMaxEntrySize = 1 << 30 // 1GB

// Archive provides read access to an open JMOD file.
//
// An Archive owns one handle to its underlying source. Lookups, streams and
// enumeration may be used from multiple goroutines; Close waits for in-flight
// stream opens and is safe to call more than once.
type Archive struct {
	name    string
	version Version
	source  ByteSource
	closer  io.Closer
	zr      *zip.Reader
	index   map[string]*zip.File

	maxEntrySize       uint64
	decoderConcurrency int
	decoderMaxMemory   uint64
	ownSource          bool
	logger             *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// log returns the logger, falling back to a discard logger if nil.
func (a *Archive) log() *slog.Logger {
	if a.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.logger
}

// Open validates the header of the JMOD file at path and opens its
// container for random access.
//
// The returned Archive must be closed to release the file handle. If Open
// fails, no handle is left open.
func Open(path string, opts ...Option) (*Archive, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided path is intentional
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	src, err := newFileSource(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	a, err := newArchive(src, path, opts...)
	if err != nil {
		f.Close()
		return nil, err
	}
	a.closer = src
	return a, nil
}

// OpenSource opens a JMOD container over an arbitrary ByteSource.
//
// The name is used for logging and error messages. The source is not closed
// by the archive unless WithOwnedSource is given and the source implements
// io.Closer.
func OpenSource(src ByteSource, name string, opts ...Option) (*Archive, error) {
	a, err := newArchive(src, name, opts...)
	if err != nil {
		return nil, err
	}
	if a.ownSource {
		if c, ok := src.(io.Closer); ok {
			a.closer = c
		}
	}
	return a, nil
}

func newArchive(src ByteSource, name string, opts ...Option) (*Archive, error) {
	a := &Archive{
		name:               name,
		source:             src,
		maxEntrySize:       DefaultMaxEntrySize,
		decoderConcurrency: 1,
	}
	for _, opt := range opts {
		opt(a)
	}

	version, err := CheckHeader(src, name)
	if err != nil {
		return nil, err
	}
	a.version = version

	size := src.Size() - HeaderSize
	zr, err := zip.NewReader(io.NewSectionReader(src, HeaderSize, size), size)
	if err != nil {
		if errors.Is(err, zip.ErrFormat) || errors.Is(err, zip.ErrAlgorithm) {
			return nil, &FormatError{Path: name, Reason: "invalid container: " + err.Error(), Expected: CurrentVersion}
		}
		return nil, fmt.Errorf("open container %s: %w", name, err)
	}
	zr.RegisterDecompressor(zstd.ZipMethodWinZip, zstd.ZipDecompressor(a.decoderOptions()...))
	a.zr = zr

	a.index = make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		// First record wins, matching the order enumeration reports them in.
		if _, ok := a.index[f.Name]; !ok {
			a.index[f.Name] = f
		}
	}

	a.log().Debug("opened archive", "name", name, "version", version.String(), "entries", len(zr.File))
	return a, nil
}

func (a *Archive) decoderOptions() []zstd.DOption {
	opts := []zstd.DOption{zstd.WithDecoderConcurrency(a.decoderConcurrency)}
	if a.decoderMaxMemory > 0 {
		opts = append(opts, zstd.WithDecoderMaxMemory(a.decoderMaxMemory))
	}
	return opts
}

// Name returns the name the archive was opened with.
func (a *Archive) Name() string {
	return a.name
}

// Version returns the format version read from the header.
func (a *Archive) Version() Version {
	return a.version
}

// Size returns the size in bytes of the whole JMOD file.
func (a *Archive) Size() int64 {
	return a.source.Size()
}

// Len returns the number of records in the container.
func (a *Archive) Len() int {
	return len(a.zr.File)
}

// Lookup returns the entry named name in section. It returns nil, false when
// the entry does not exist or the archive is closed.
func (a *Archive) Lookup(section Section, name string) (*Entry, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return nil, false
	}

	f, ok := a.index[entryPath(section, name)]
	if !ok {
		a.log().Debug("entry not found", "section", section.Dir(), "name", name)
		return nil, false
	}
	return &Entry{section: section, name: name, file: f}, true
}

// OpenEntry opens a decompressing stream for the entry named name in
// section. A missing entry is reported as an *fs.PathError wrapping
// fs.ErrNotExist.
func (a *Archive) OpenEntry(section Section, name string) (io.ReadCloser, error) {
	path := entryPath(section, name)

	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return nil, &fs.PathError{Op: "open", Path: path, Err: ErrClosed}
	}

	f, ok := a.index[path]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return openRecord(f)
}

// Open opens a decompressing stream for an entry previously returned by
// Lookup or Entries.
func (a *Archive) Open(e *Entry) (io.ReadCloser, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return nil, &fs.PathError{Op: "open", Path: e.Path(), Err: ErrClosed}
	}
	return openRecord(e.file)
}

func openRecord(f *zip.File) (io.ReadCloser, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: f.Name, Err: err}
	}
	return rc, nil
}

// ReadFile reads the whole content of the entry named name in section.
// Entries larger than the configured limit fail with ErrSizeOverflow.
func (a *Archive) ReadFile(section Section, name string) ([]byte, error) {
	e, ok := a.Lookup(section, name)
	if !ok {
		path := entryPath(section, name)
		if a.isClosed() {
			return nil, &fs.PathError{Op: "read", Path: path, Err: ErrClosed}
		}
		return nil, &fs.PathError{Op: "read", Path: path, Err: fs.ErrNotExist}
	}
	if a.maxEntrySize > 0 && e.Size() > a.maxEntrySize {
		return nil, &fs.PathError{Op: "read", Path: e.Path(), Err: ErrSizeOverflow}
	}

	rc, err := a.Open(e)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := sizing.ReadAllWithLimit(rc, a.maxEntrySize, ErrSizeOverflow)
	if err != nil {
		return nil, &fs.PathError{Op: "read", Path: e.Path(), Err: err}
	}
	return data, nil
}

// Entries returns a lazy sequence over every record in the container, in
// container order.
//
// Each record is mapped to an Entry as it is reached. A record whose path
// cannot be mapped yields a non-nil *EntryError and ends the sequence; the
// remaining records are not visited. Calling Entries again restarts from the
// first record.
func (a *Archive) Entries() iter.Seq2[*Entry, error] {
	return func(yield func(*Entry, error) bool) {
		if a.isClosed() {
			yield(nil, ErrClosed)
			return
		}
		for _, f := range a.zr.File {
			e, err := newEntry(f)
			if err != nil {
				a.log().Debug("malformed entry", "name", a.name, "path", f.Name)
				yield(nil, err)
				return
			}
			if !yield(e, nil) {
				return
			}
		}
	}
}

// EntriesIn returns a lazy sequence over the entries of one section.
// Errors are reported the same way as Entries.
func (a *Archive) EntriesIn(section Section) iter.Seq2[*Entry, error] {
	return func(yield func(*Entry, error) bool) {
		for e, err := range a.Entries() {
			if err != nil {
				yield(nil, err)
				return
			}
			if e.Section() != section {
				continue
			}
			if !yield(e, nil) {
				return
			}
		}
	}
}

// Close releases the underlying handle. Calling Close on a closed archive
// is a no-op.
func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	a.log().Debug("closed archive", "name", a.name)
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}

func (a *Archive) isClosed() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.closed
}

func entryPath(section Section, name string) string {
	return section.Dir() + "/" + name
}
