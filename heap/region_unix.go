//go:build unix

package heap

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// newRegion reserves an anonymous, private mapping via mmap. Page
// alignment is guaranteed by the kernel: every mmap return address is
// page-aligned.
func newRegion(size uintptr) (*Region, error) {
	data, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, err
	}
	return &Region{data: data, base: Ptr(uintptr(unsafe.Pointer(&data[0])))}, nil
}

func releaseRegion(r *Region) error {
	return unix.Munmap(r.data)
}
