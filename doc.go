// Package jmod reads and writes JMOD containers, the packaging format used
// for Java modules at link time.
//
// A JMOD file is a four byte header followed by a ZIP container:
//   - Bytes 0-1: the magic tag "JM" (0x4A 0x4D)
//   - Byte 2: major version (currently 1)
//   - Byte 3: minor version (currently 0)
//   - Remaining bytes: ZIP entries named "<section>/<relative name>"
//
// Sections are a closed set of directories (classes, conf, include, legal,
// man, lib, bin). [Open] validates the header eagerly and then exposes the
// container through lookup, streaming, and lazy enumeration:
//
//	a, err := jmod.Open("java.base.jmod")
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//
//	for entry, err := range a.Entries() {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(entry.Section(), entry.Name(), entry.Size())
//	}
//
// Archives can also be opened over any [ByteSource], such as the HTTP range
// request source in the http subpackage.
package jmod
