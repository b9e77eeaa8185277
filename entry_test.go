package jmod

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path     string
		wantDir  string
		wantName string
		wantErr  bool
	}{
		{path: "ab", wantErr: true},
		{path: "a/b", wantErr: true},
		{path: "/abc", wantErr: true},
		{path: "", wantErr: true},
		{path: "ab/c", wantDir: "ab", wantName: "c"},
		{path: "classes/java/lang/Object.class", wantDir: "classes", wantName: "java/lang/Object.class"},
		{path: "lib/", wantDir: "lib", wantName: ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			dir, name, err := SplitPath(tt.path)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformedEntry)
				var ee *EntryError
				require.ErrorAs(t, err, &ee)
				assert.Equal(t, tt.path, ee.Path)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDir, dir)
			assert.Equal(t, tt.wantName, name)
		})
	}
}

func TestEntryMetadata(t *testing.T) {
	t.Parallel()

	a := openTestArchive(t, defaultTestFiles(), WithCompression(CompressionStore))

	e, ok := a.Lookup(SectionConfig, "security/java.policy")
	require.True(t, ok)
	assert.Equal(t, SectionConfig, e.Section())
	assert.Equal(t, "security/java.policy", e.Name())
	assert.Equal(t, "conf/security/java.policy", e.Path())
	assert.Equal(t, "conf/security/java.policy", e.String())
	assert.False(t, e.IsDir())
	assert.Equal(t, uint64(len("grant {};")), e.Size())
	assert.Equal(t, e.Size(), e.CompressedSize())
	assert.True(t, e.ModTime().Equal(testModTime))
	assert.Equal(t, 0o644, int(e.Mode().Perm()))
}
