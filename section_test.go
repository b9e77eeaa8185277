package jmod

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectionDirs(t *testing.T) {
	t.Parallel()

	want := map[Section]string{
		SectionClasses:      "classes",
		SectionConfig:       "conf",
		SectionHeaderFiles:  "include",
		SectionLegalNotices: "legal",
		SectionManPages:     "man",
		SectionNativeLibs:   "lib",
		SectionNativeCmds:   "bin",
	}
	require.Len(t, Sections(), len(want))

	for _, s := range Sections() {
		assert.Equal(t, want[s], s.Dir())
		assert.True(t, s.Valid())

		got, err := SectionForDir(s.Dir())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
}

func TestSectionUnknown(t *testing.T) {
	t.Parallel()

	_, err := SectionForDir("modules")
	assert.ErrorIs(t, err, ErrUnknownSection)

	s := Section(42)
	assert.False(t, s.Valid())
	assert.Empty(t, s.Dir())
	assert.Equal(t, "Section(42)", s.String())
}
