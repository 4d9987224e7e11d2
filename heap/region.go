package heap

// Region is a single page-aligned backing reservation that the Arena and
// Buddy allocators carve their windows out of. newRegion/releaseRegion are
// supplied per-platform (region_unix.go, region_other.go); this file only
// holds the shared wrapper type so callers never see the build-tag split.
type Region struct {
	data []byte
	base Ptr
}

// Base returns the region's starting address.
func (r *Region) Base() Ptr { return r.base }

// Len returns the region's size in bytes.
func (r *Region) Len() uintptr { return uintptr(len(r.data)) }

// NewRegion reserves size bytes of page-aligned memory.
func NewRegion(size uintptr) (*Region, error) {
	return newRegion(size)
}

// Release returns the region's memory to the operating system. Callers
// must not dereference any Ptr derived from this region afterward.
func (r *Region) Release() error {
	return releaseRegion(r)
}
