package jmod

import (
	"io/fs"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
)

// Entry is a resource inside a JMOD file, identified by section and name.
//
// Entries are views over the container's central directory. They are created
// by lookup or enumeration and remain valid while the archive is open.
type Entry struct {
	section Section
	name    string
	file    *zip.File
}

// SplitPath splits a container path at its first '/' into a section
// directory and a relative name. The directory must be at least two bytes
// long; any other shape is rejected with an *EntryError.
func SplitPath(p string) (dir, name string, err error) {
	i := strings.IndexByte(p, '/')
	if i <= 1 {
		return "", "", &EntryError{Path: p}
	}
	return p[:i], p[i+1:], nil
}

// newEntry maps a ZIP record to an Entry.
func newEntry(f *zip.File) (*Entry, error) {
	dir, name, err := SplitPath(f.Name)
	if err != nil {
		return nil, err
	}
	section, err := SectionForDir(dir)
	if err != nil {
		return nil, &EntryError{Path: f.Name, Err: err}
	}
	return &Entry{section: section, name: name, file: f}, nil
}

// Section returns the section the entry belongs to.
func (e *Entry) Section() Section {
	return e.section
}

// Name returns the entry name relative to its section directory.
func (e *Entry) Name() string {
	return e.name
}

// Path returns the full container path ("<section dir>/<name>").
func (e *Entry) Path() string {
	return e.file.Name
}

// IsDir reports whether the entry is a directory record.
func (e *Entry) IsDir() bool {
	return e.file.Mode().IsDir()
}

// Size returns the uncompressed size in bytes.
func (e *Entry) Size() uint64 {
	return e.file.UncompressedSize64
}

// CompressedSize returns the stored size in bytes.
func (e *Entry) CompressedSize() uint64 {
	return e.file.CompressedSize64
}

// Method returns the ZIP compression method.
func (e *Entry) Method() uint16 {
	return e.file.Method
}

// CRC32 returns the checksum recorded for the uncompressed content.
func (e *Entry) CRC32() uint32 {
	return e.file.CRC32
}

// Mode returns the file mode recorded in the container.
func (e *Entry) Mode() fs.FileMode {
	return e.file.Mode()
}

// ModTime returns the modification time recorded in the container.
func (e *Entry) ModTime() time.Time {
	return e.file.Modified
}

func (e *Entry) String() string {
	return e.file.Name
}
