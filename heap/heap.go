package heap

import (
	"unsafe"

	"github.com/azimuth-vm/azimuth/vmerr"
)

// Generation-sizing constants.
const (
	TeenPoolCount = 2
	BuddyDepth    = 16
	PageSize      = 4096
)

// youngOldRatio and infantTeenRatio are the heap's two generation-sizing
// ratios: young:old = 1:2 overall, and within young, infant:teen = 15:1.
var (
	youngOldRatio   = ratio{1, 2}
	infantTeenRatio = ratio{15, 1}
)

type ratio struct{ a, b int }

// splitRatio divides value between the ratio's two shares, rounding the
// first share to the nearest integer (ties away from zero).
func (r ratio) splitRatio(value uintptr) (first, second uintptr) {
	total := float64(r.a + r.b)
	f := uintptr(float64(r.a)/total*float64(value) + 0.5)
	return f, value - f
}

// Heap is one page-aligned reservation subdivided into an infant arena,
// TeenPoolCount teen buddy pools, and one adult buddy pool.
type Heap struct {
	region *Region
	infant *Arena
	teen   [TeenPoolCount]*Buddy
	adult  *Buddy
}

// NewHeap reserves capacity bytes (rounded up per-generation to a power of
// two, and each buddy window raised to the smallest size whose minimum
// block holds a free-list node, so the buddy preconditions hold) and
// partitions them into the infant/teen/adult windows.
func NewHeap(capacity uintptr) (*Heap, error) {
	young, old := youngOldRatio.splitRatio(capacity)
	infantShare, teenShare := infantTeenRatio.splitRatio(young)

	const minBuddyCapacity = pointerSize << (BuddyDepth - 1)

	infantCapacity := nextPowerOfTwo(infantShare)
	teenCapacity := nextPowerOfTwo(teenShare)
	if teenCapacity < minBuddyCapacity*TeenPoolCount {
		teenCapacity = minBuddyCapacity * TeenPoolCount
	}
	adultCapacity := nextPowerOfTwo(old)
	if adultCapacity < minBuddyCapacity {
		adultCapacity = minBuddyCapacity
	}

	total := infantCapacity + teenCapacity + adultCapacity
	region, err := NewRegion(total)
	if err != nil {
		return nil, vmerr.Wrap(vmerr.PhaseMemory, vmerr.KindBadRequest, err, "reserving heap backing memory")
	}

	infantBase := region.Base()
	teenBase := infantBase.add(infantCapacity)
	adultBase := teenBase.add(teenCapacity)

	h := &Heap{
		region: region,
		infant: ArenaFromExistingAllocation(infantBase, infantCapacity),
	}

	perTeen := teenCapacity / TeenPoolCount
	for i := 0; i < TeenPoolCount; i++ {
		b, err := BuddyFromExistingAllocation(teenBase.add(uintptr(i)*perTeen), perTeen, BuddyDepth)
		if err != nil {
			return nil, err
		}
		h.teen[i] = b
	}

	adult, err := BuddyFromExistingAllocation(adultBase, adultCapacity, BuddyDepth)
	if err != nil {
		return nil, err
	}
	h.adult = adult

	return h, nil
}

// RawAlloc attempts the infant arena first; on failure it runs a minor
// collection (a no-op placeholder - the generational collector itself is
// out of scope) and retries once before giving up.
func (h *Heap) RawAlloc(size, align uintptr) (Ptr, error) {
	if ptr, ok := h.infant.RawAlloc(size, align); ok {
		return ptr, nil
	}

	h.minorCollect()

	if ptr, ok := h.infant.RawAlloc(size, align); ok {
		return ptr, nil
	}
	return Null, vmerr.New(vmerr.PhaseMemory, vmerr.KindOutOfMemory, "infant arena exhausted after minor collection")
}

// HeapAllocValue reserves room for value via h.RawAlloc and writes it in
// place, returning the address it was written to.
func HeapAllocValue[T any](h *Heap, value T) (Ptr, error) {
	ptr, err := h.RawAlloc(unsafe.Sizeof(value), unsafe.Alignof(value))
	if err != nil {
		return Null, err
	}
	*(*T)(unsafe.Pointer(uintptr(ptr))) = value
	return ptr, nil
}

// minorCollect is a placeholder for the out-of-scope generational
// collector: it never promotes or reclaims anything, so the retry in
// RawAlloc only ever succeeds if ReleaseAll was called directly in
// between.
func (h *Heap) minorCollect() {}

// Dealloc routes a free to whichever sub-pool owns ptr; an address outside
// every pool, or one inside the infant pool (which is only ever freed in
// bulk), is silently ignored.
func (h *Heap) Dealloc(ptr Ptr, size, align uintptr) error {
	if h.infant.Contains(ptr) {
		return nil
	}
	for _, t := range h.teen {
		if t.Contains(ptr) {
			return t.RawDealloc(ptr, size, align)
		}
	}
	if h.adult.Contains(ptr) {
		return h.adult.RawDealloc(ptr, size, align)
	}
	return nil
}

// Close returns the heap's entire backing reservation to the OS. The
// backing region outlives every pool carved from it, and is released only
// when its owning Heap is destroyed.
func (h *Heap) Close() error {
	return h.region.Release()
}
