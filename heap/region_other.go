//go:build !unix

package heap

import "unsafe"

// newRegion falls back to a manually page-aligned Go slice on platforms
// without mmap. The slice is over-allocated by one page so an aligned
// window of the requested size always fits inside it; Go's non-moving
// collector keeps the computed base address stable for the slice's
// lifetime, same as the unix mmap path relies on kernel-side stability.
func newRegion(size uintptr) (*Region, error) {
	raw := make([]byte, size+PageSize)
	base := uintptr(unsafe.Pointer(&raw[0]))
	aligned := alignUp(base, PageSize)
	offset := aligned - base

	return &Region{data: raw[offset : offset+size], base: Ptr(aligned)}, nil
}

func releaseRegion(r *Region) error {
	return nil
}
