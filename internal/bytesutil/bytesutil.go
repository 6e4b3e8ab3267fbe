// Package bytesutil holds the bulk byte-set and byte-copy primitives the
// allocator builds on. They are intentionally simple loops over raw memory
// — not part of THE CORE, just an external collaborator specified by
// signature, mirroring the original akMemset/akMemcpy.
package bytesutil

import "unsafe"

// Set writes value into each of the size bytes starting at p.
func Set(p unsafe.Pointer, value byte, size uint64) {
	dst := unsafe.Slice((*byte)(p), size)

	for i := range dst {
		dst[i] = value
	}
}

// Copy copies size bytes from src to dst. The ranges must not overlap.
func Copy(dst, src unsafe.Pointer, size uint64) {
	d := unsafe.Slice((*byte)(dst), size)
	s := unsafe.Slice((*byte)(src), size)

	for i := range d {
		d[i] = s[i]
	}
}
