package jmod

import "fmt"

// Section identifies one of the fixed top-level directories in a JMOD file.
type Section uint8

const (
	// SectionClasses holds class files and module-info.class ("classes").
	SectionClasses Section = iota
	// SectionConfig holds configuration files ("conf").
	SectionConfig
	// SectionHeaderFiles holds C header files ("include").
	SectionHeaderFiles
	// SectionLegalNotices holds license and notice files ("legal").
	SectionLegalNotices
	// SectionManPages holds manual pages ("man").
	SectionManPages
	// SectionNativeLibs holds native shared libraries ("lib").
	SectionNativeLibs
	// SectionNativeCmds holds native launchers and tools ("bin").
	SectionNativeCmds
)

var sectionDirs = [...]string{
	SectionClasses:      "classes",
	SectionConfig:       "conf",
	SectionHeaderFiles:  "include",
	SectionLegalNotices: "legal",
	SectionManPages:     "man",
	SectionNativeLibs:   "lib",
	SectionNativeCmds:   "bin",
}

var sectionNames = [...]string{
	SectionClasses:      "classes",
	SectionConfig:       "config",
	SectionHeaderFiles:  "header files",
	SectionLegalNotices: "legal notices",
	SectionManPages:     "man pages",
	SectionNativeLibs:   "native libraries",
	SectionNativeCmds:   "native commands",
}

// Sections lists every section in declaration order.
func Sections() []Section {
	return []Section{
		SectionClasses,
		SectionConfig,
		SectionHeaderFiles,
		SectionLegalNotices,
		SectionManPages,
		SectionNativeLibs,
		SectionNativeCmds,
	}
}

// Dir returns the directory name used for the section inside the container.
func (s Section) Dir() string {
	if int(s) < len(sectionDirs) {
		return sectionDirs[s]
	}
	return ""
}

func (s Section) String() string {
	if int(s) < len(sectionNames) {
		return sectionNames[s]
	}
	return fmt.Sprintf("Section(%d)", uint8(s))
}

// Valid reports whether s is a known section.
func (s Section) Valid() bool {
	return int(s) < len(sectionDirs)
}

// SectionForDir maps a container directory name to its section.
func SectionForDir(dir string) (Section, error) {
	for i, d := range sectionDirs {
		if d == dir {
			return Section(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSection, dir)
}
