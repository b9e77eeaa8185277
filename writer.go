package jmod

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
)

// Compression identifies the ZIP method used for entries written by a Writer.
type Compression uint8

const (
	CompressionDeflate Compression = iota
	CompressionStore
	CompressionZstd
)

func (c Compression) String() string {
	switch c {
	case CompressionDeflate:
		return "deflate"
	case CompressionStore:
		return "store"
	case CompressionZstd:
		return "zstd"
	default:
		return "unknown"
	}
}

func (c Compression) method() (uint16, error) {
	switch c {
	case CompressionDeflate:
		return zip.Deflate, nil
	case CompressionStore:
		return zip.Store, nil
	case CompressionZstd:
		return zstd.ZipMethodWinZip, nil
	default:
		return 0, fmt.Errorf("jmod: unsupported compression %d", c)
	}
}

// Writer creates JMOD files.
//
// NewWriter writes the header immediately; entries are appended with Add,
// AddFile and AddDir. Close finishes the container but does not close the
// underlying io.Writer.
type Writer struct {
	zw          *zip.Writer
	method      uint16
	compression Compression
	level       int
	modTime     time.Time
	names       map[string]struct{}
	logger      *slog.Logger
	closed      bool
}

// log returns the logger, falling back to a discard logger if nil.
func (w *Writer) log() *slog.Logger {
	if w.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return w.logger
}

// NewWriter writes a JMOD header to dst and returns a Writer for its entries.
func NewWriter(dst io.Writer, opts ...WriterOption) (*Writer, error) {
	w := &Writer{
		compression: CompressionDeflate,
		level:       flate.DefaultCompression,
		names:       make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.modTime.IsZero() {
		w.modTime = time.Now()
	}

	method, err := w.compression.method()
	if err != nil {
		return nil, err
	}
	w.method = method

	hdr := CurrentVersion.header()
	if _, err := dst.Write(hdr[:]); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	// ZIP offsets are relative to the first byte after the header.
	w.zw = zip.NewWriter(dst)
	level := w.level
	w.zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})
	zlevel := zstd.SpeedDefault
	if w.level != flate.DefaultCompression {
		zlevel = zstd.EncoderLevelFromZstd(w.level)
	}
	w.zw.RegisterCompressor(zstd.ZipMethodWinZip, zstd.ZipCompressor(zstd.WithEncoderLevel(zlevel)))
	return w, nil
}

// Add writes an entry named name in section with content read from r.
func (w *Writer) Add(section Section, name string, r io.Reader) error {
	return w.add(section, name, 0o644, r)
}

// AddFile writes the file at path as an entry named name in section,
// preserving its permission bits.
func (w *Writer) AddFile(section Section, name, path string) error {
	f, err := os.Open(path) //nolint:gosec // User-provided path is intentional
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return &fs.PathError{Op: "add", Path: path, Err: fs.ErrInvalid}
	}
	return w.add(section, name, info.Mode().Perm(), f)
}

// AddDir adds every regular file below dir to section, named by its
// slash-separated path relative to dir. Symlinks are rejected with ErrSymlink.
func (w *Writer) AddDir(section Section, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return fmt.Errorf("%w: %s", ErrSymlink, path)
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		return w.AddFile(section, filepath.ToSlash(rel), path)
	})
}

func (w *Writer) add(section Section, name string, mode fs.FileMode, r io.Reader) error {
	if w.closed {
		return errors.New("jmod: writer closed")
	}
	if !section.Valid() {
		return fmt.Errorf("%w: %v", ErrUnknownSection, section)
	}
	if !fs.ValidPath(name) || name == "." {
		return &fs.PathError{Op: "add", Path: name, Err: fs.ErrInvalid}
	}

	path := entryPath(section, name)
	if _, ok := w.names[path]; ok {
		return &fs.PathError{Op: "add", Path: path, Err: fs.ErrExist}
	}

	hdr := &zip.FileHeader{
		Name:     path,
		Method:   w.method,
		Modified: w.modTime,
	}
	hdr.SetMode(mode)

	fw, err := w.zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	n, err := io.Copy(fw, r)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	w.names[path] = struct{}{}
	w.log().Debug("added entry", "path", path, "size", n, "compression", w.compression.String())
	return nil
}

// Close writes the container's central directory.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.zw.Close()
}
