package heap

import "unsafe"

// Arena is a bump allocator. It carries no per-allocation metadata and
// never frees individual allocations.
type Arena struct {
	base       Ptr
	capacity   uintptr
	headOffset uintptr
	region     *Region // non-nil only when this Arena owns its backing memory
}

// NewArena reserves a fresh, owned capacity-byte region and returns an
// Arena over the whole of it.
func NewArena(capacity uintptr) (*Arena, error) {
	region, err := NewRegion(capacity)
	if err != nil {
		return nil, err
	}
	return &Arena{base: region.Base(), capacity: capacity, region: region}, nil
}

// ArenaFromExistingAllocation builds an Arena over memory owned by a
// caller (typically a Heap carving out its infant window); release_all
// never frees the underlying bytes back to the OS, only resets the bump
// pointer.
func ArenaFromExistingAllocation(base Ptr, capacity uintptr) *Arena {
	return &Arena{base: base, capacity: capacity}
}

// RawAlloc reserves size bytes aligned to align, returning (ptr, true), or
// (Null, false) if the arena has no room left.
func (a *Arena) RawAlloc(size, align uintptr) (Ptr, bool) {
	adjusted := alignUp(size, align)
	if adjusted+a.headOffset > a.capacity {
		return Null, false
	}
	result := a.base.add(a.headOffset)
	a.headOffset += adjusted
	return result, true
}

// ReleaseAll resets the bump pointer to the start of the arena. Every
// pointer previously returned by RawAlloc/AllocValue is invalid afterward.
func (a *Arena) ReleaseAll() {
	a.headOffset = 0
}

// Contains reports whether ptr falls within this arena's address range.
func (a *Arena) Contains(ptr Ptr) bool {
	return ptr >= a.base && ptr < a.base.add(a.capacity)
}

// Release returns an owned arena's backing memory to the OS. Arenas built
// via ArenaFromExistingAllocation do not own their memory and silently
// no-op.
func (a *Arena) Release() error {
	if a.region == nil {
		return nil
	}
	return a.region.Release()
}

// AllocValue reserves room for value inside a and writes it in place,
// returning the address it was written to.
func AllocValue[T any](a *Arena, value T) (Ptr, bool) {
	ptr, ok := a.RawAlloc(unsafe.Sizeof(value), unsafe.Alignof(value))
	if !ok {
		return Null, false
	}
	*(*T)(unsafe.Pointer(uintptr(ptr))) = value
	return ptr, true
}
