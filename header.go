package jmod

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// HeaderSize is the number of bytes preceding the ZIP container.
const HeaderSize = 4

// Magic is the two byte tag at the start of every JMOD file.
var Magic = [2]byte{0x4A, 0x4D}

// Version is a JMOD format version.
type Version struct {
	Major uint8
	Minor uint8
}

// CurrentVersion is the newest format version this package reads and writes.
var CurrentVersion = Version{Major: 1, Minor: 0}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Newer reports whether v is newer than o, comparing major then minor.
func (v Version) Newer(o Version) bool {
	if v.Major != o.Major {
		return v.Major > o.Major
	}
	return v.Minor > o.Minor
}

// Supported reports whether v can be read by this package.
func (v Version) Supported() bool {
	return !v.Newer(CurrentVersion)
}

// header returns the encoded header for v.
func (v Version) header() [HeaderSize]byte {
	return [HeaderSize]byte{Magic[0], Magic[1], v.Major, v.Minor}
}

// ValidateHeader checks that the file at path starts with a supported JMOD
// header. It reads exactly HeaderSize bytes and does not open the container.
func ValidateHeader(path string) error {
	f, err := os.Open(path) //nolint:gosec // User-provided path is intentional
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	_, err = CheckHeader(f, path)
	return err
}

// CheckHeader validates the header at the start of r and returns its version.
// The name is only used in error messages.
func CheckHeader(r io.ReaderAt, name string) (Version, error) {
	var buf [HeaderSize]byte
	n, err := r.ReadAt(buf[:], 0)
	if n < HeaderSize {
		if err == nil || errors.Is(err, io.EOF) {
			return Version{}, &FormatError{Path: name, Reason: "truncated header", Expected: CurrentVersion}
		}
		return Version{}, fmt.Errorf("read header %s: %w", name, err)
	}
	return parseHeader(buf, name)
}

func parseHeader(buf [HeaderSize]byte, name string) (Version, error) {
	if buf[0] != Magic[0] || buf[1] != Magic[1] {
		return Version{}, &FormatError{Path: name, Reason: "invalid magic number", Expected: CurrentVersion}
	}
	v := Version{Major: buf[2], Minor: buf[3]}
	if !v.Supported() {
		return Version{}, &FormatError{Path: name, Reason: "unsupported version", Found: v, Expected: CurrentVersion}
	}
	return v, nil
}
