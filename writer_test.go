package jmod

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterHeader(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x4A, 0x4D, 0x01, 0x00}, buf.Bytes())
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	// An empty module is still a valid archive.
	a, err := OpenSource(&memSource{data: buf.Bytes()}, "empty")
	require.NoError(t, err)
	assert.Zero(t, a.Len())
}

func TestWriterMethods(t *testing.T) {
	t.Parallel()

	tests := []struct {
		compression Compression
		method      uint16
	}{
		{CompressionStore, zip.Store},
		{CompressionDeflate, zip.Deflate},
		{CompressionZstd, zstd.ZipMethodWinZip},
	}

	for _, tt := range tests {
		t.Run(tt.compression.String(), func(t *testing.T) {
			t.Parallel()

			content := strings.Repeat("compressible ", 512)
			a := openTestArchive(t, []testFile{{SectionClasses, "A.class", content}}, WithCompression(tt.compression))
			e, ok := a.Lookup(SectionClasses, "A.class")
			require.True(t, ok)
			assert.Equal(t, tt.method, e.Method())
			assert.Equal(t, uint64(len(content)), e.Size())
			if tt.compression != CompressionStore {
				assert.Less(t, e.CompressedSize(), e.Size())
			}
		})
	}

	_, err := NewWriter(&bytes.Buffer{}, WithCompression(Compression(9)))
	assert.Error(t, err)
}

func TestWriterRejects(t *testing.T) {
	t.Parallel()

	w, err := NewWriter(&bytes.Buffer{})
	require.NoError(t, err)
	require.NoError(t, w.Add(SectionClasses, "A.class", strings.NewReader("a")))

	tests := []struct {
		name    string
		section Section
		entry   string
		wantErr error
	}{
		{name: "duplicate", section: SectionClasses, entry: "A.class", wantErr: fs.ErrExist},
		{name: "empty name", section: SectionClasses, entry: "", wantErr: fs.ErrInvalid},
		{name: "dot", section: SectionClasses, entry: ".", wantErr: fs.ErrInvalid},
		{name: "parent escape", section: SectionClasses, entry: "../A.class", wantErr: fs.ErrInvalid},
		{name: "absolute", section: SectionClasses, entry: "/A.class", wantErr: fs.ErrInvalid},
		{name: "unknown section", section: Section(99), entry: "A.class", wantErr: ErrUnknownSection},
	}
	for _, tt := range tests {
		err := w.Add(tt.section, tt.entry, strings.NewReader("x"))
		assert.ErrorIs(t, err, tt.wantErr, tt.name)
	}

	// The same name in another section is distinct.
	assert.NoError(t, w.Add(SectionConfig, "A.class", strings.NewReader("a")))

	require.NoError(t, w.Close())
	assert.Error(t, w.Add(SectionClasses, "B.class", strings.NewReader("b")))
}

func TestWriterAddDir(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "java", "lang"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "module-info.class"), []byte("mi"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "java", "lang", "Object.class"), []byte("obj"), 0o600))

	var buf bytes.Buffer
	w, err := NewWriter(&buf, WithModTime(testModTime))
	require.NoError(t, err)
	require.NoError(t, w.AddDir(SectionClasses, src))
	require.NoError(t, w.Close())

	a, err := OpenSource(&memSource{data: buf.Bytes()}, "dir")
	require.NoError(t, err)

	got, err := a.ReadFile(SectionClasses, "java/lang/Object.class")
	require.NoError(t, err)
	assert.Equal(t, "obj", string(got))

	e, ok := a.Lookup(SectionClasses, "java/lang/Object.class")
	require.True(t, ok)
	assert.Equal(t, fs.FileMode(0o600), e.Mode().Perm())
	assert.Equal(t, 2, a.Len())
}

func TestWriterAddDirSymlink(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	target := filepath.Join(src, "real.h")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))
	if err := os.Symlink(target, filepath.Join(src, "link.h")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	w, err := NewWriter(&bytes.Buffer{})
	require.NoError(t, err)
	assert.ErrorIs(t, w.AddDir(SectionHeaderFiles, src), ErrSymlink)
}
