package jmod

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
)

var testModTime = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

// testFile is an entry to write into a test archive.
type testFile struct {
	section Section
	name    string
	content string
}

func defaultTestFiles() []testFile {
	return []testFile{
		{SectionClasses, "module-info.class", "\xca\xfe\xba\xbe module"},
		{SectionClasses, "java/lang/Object.class", "\xca\xfe\xba\xbe object"},
		{SectionConfig, "security/java.policy", "grant {};"},
		{SectionHeaderFiles, "jni.h", "#define JNI_VERSION_1_1 0x00010001"},
		{SectionLegalNotices, "LICENSE", "GPLv2 with classpath exception"},
		{SectionManPages, "man1/java.1", ".TH JAVA 1"},
		{SectionNativeLibs, "libjava.so", "\x7fELF"},
		{SectionNativeCmds, "java", "#!/bin/sh"},
	}
}

// buildTestArchive returns the bytes of a JMOD file holding files.
func buildTestArchive(t *testing.T, files []testFile, opts ...WriterOption) []byte {
	t.Helper()

	var buf bytes.Buffer
	opts = append([]WriterOption{WithModTime(testModTime)}, opts...)
	w, err := NewWriter(&buf, opts...)
	require.NoError(t, err)
	for _, f := range files {
		require.NoError(t, w.Add(f.section, f.name, bytes.NewReader([]byte(f.content))))
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// buildRawArchive writes a JMOD header followed by a ZIP container whose
// records use the given raw paths, bypassing Writer validation.
func buildRawArchive(t *testing.T, header [HeaderSize]byte, paths ...string) []byte {
	t.Helper()

	var buf bytes.Buffer
	buf.Write(header[:])
	zw := zip.NewWriter(&buf)
	for _, p := range paths {
		fw, err := zw.Create(p)
		require.NoError(t, err)
		_, err = fw.Write([]byte("data:" + p))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// writeTestFile writes data to a temp file and returns its path.
func writeTestFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.jmod")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// openTestArchive builds and opens an archive holding files.
func openTestArchive(t *testing.T, files []testFile, opts ...WriterOption) *Archive {
	t.Helper()
	a, err := Open(writeTestFile(t, buildTestArchive(t, files, opts...)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

// memSource implements ByteSource over a byte slice.
type memSource struct {
	data   []byte
	closed int
}

func (m *memSource) ReadAt(p []byte, off int64) (int, error) {
	return bytes.NewReader(m.data).ReadAt(p, off)
}

func (m *memSource) Size() int64 {
	return int64(len(m.data))
}

func (m *memSource) Close() error {
	m.closed++
	return nil
}
