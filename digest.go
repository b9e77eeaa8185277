package jmod

import (
	"fmt"
	"io"
	"io/fs"
	"path/filepath"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// MediaType is the media type used when a JMOD file is distributed as an
// OCI blob.
const MediaType = "application/vnd.openjdk.jmod"

// Digest returns the SHA-256 digest of the full content of src, header
// included. This is the value recorded when one module records the hash of
// another.
func Digest(src ByteSource) (digest.Digest, error) {
	d, err := digest.Canonical.FromReader(io.NewSectionReader(src, 0, src.Size()))
	if err != nil {
		return "", fmt.Errorf("digest: %w", err)
	}
	return d, nil
}

// Digest returns the SHA-256 digest of the archive file.
func (a *Archive) Digest() (digest.Digest, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return "", ErrClosed
	}
	return Digest(a.source)
}

// EntryDigest returns the SHA-256 digest of an entry's uncompressed content.
func (a *Archive) EntryDigest(e *Entry) (digest.Digest, error) {
	rc, err := a.Open(e)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	d, err := digest.Canonical.FromReader(rc)
	if err != nil {
		return "", &fs.PathError{Op: "digest", Path: e.Path(), Err: err}
	}
	return d, nil
}

// Content returns a reader over the whole archive file, header included.
// The reader is independent of other readers and of entry streams, but it
// must not be used after the archive is closed.
func (a *Archive) Content() (*io.SectionReader, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return nil, ErrClosed
	}
	return io.NewSectionReader(a.source, 0, a.source.Size()), nil
}

// Descriptor returns an OCI content descriptor for the archive file.
func (a *Archive) Descriptor() (ocispec.Descriptor, error) {
	d, err := a.Digest()
	if err != nil {
		return ocispec.Descriptor{}, err
	}
	return ocispec.Descriptor{
		MediaType: MediaType,
		Digest:    d,
		Size:      a.Size(),
		Annotations: map[string]string{
			ocispec.AnnotationTitle: filepath.Base(a.name),
		},
	}, nil
}
