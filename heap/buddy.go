package heap

import (
	"unsafe"

	"github.com/azimuth-vm/azimuth/vmerr"
)

// pointerSize is the minimum block size a buddy allocator's smallest order
// must hold: one free-list node, i.e. one machine pointer. Every free block,
// however small, doubles as a node in its order's intrusive singly-linked
// free list, so the allocator never hands out a block too small to host
// that list's next-pointer.
const pointerSize = unsafe.Sizeof(uintptr(0))

// Buddy is a power-of-two block allocator with depth order classes. Each
// order's free list is intrusive: a free block's first machine word stores
// the address of the next free block at that order (or Null), so the list
// costs no memory beyond the blocks themselves.
type Buddy struct {
	base         Ptr
	capacity     uintptr
	depth        int
	minBlockSize uintptr
	freeHeads    []Ptr // indexed by order; head of each order's intrusive free list
}

// NewBuddy constructs a Buddy over a fresh, owned capacity-byte region.
func NewBuddy(capacity uintptr, depth int) (*Buddy, error) {
	region, err := NewRegion(capacity)
	if err != nil {
		return nil, err
	}
	return buildBuddy(region.Base(), capacity, depth)
}

// BuddyFromExistingAllocation builds a Buddy over memory owned by a
// caller (a Heap's teen/adult window).
func BuddyFromExistingAllocation(base Ptr, capacity uintptr, depth int) (*Buddy, error) {
	return buildBuddy(base, capacity, depth)
}

func buildBuddy(base Ptr, capacity uintptr, depth int) (*Buddy, error) {
	if uintptr(base)%PageSize != 0 {
		return nil, vmerr.New(vmerr.PhaseMemory, vmerr.KindBadConstraints, "buddy base %#x is not page-aligned", base)
	}
	if !isPowerOfTwo(capacity) {
		return nil, vmerr.New(vmerr.PhaseMemory, vmerr.KindBadConstraints, "buddy capacity %d is not a power of two", capacity)
	}
	if depth < 1 {
		return nil, vmerr.New(vmerr.PhaseMemory, vmerr.KindBadConstraints, "buddy depth %d must be at least 1", depth)
	}
	minBlockSize := capacity >> uint(depth-1)
	if capacity < minBlockSize {
		return nil, vmerr.New(vmerr.PhaseMemory, vmerr.KindBadConstraints, "buddy capacity %d smaller than min block size %d", capacity, minBlockSize)
	}
	if minBlockSize < pointerSize {
		return nil, vmerr.New(vmerr.PhaseMemory, vmerr.KindBadConstraints, "buddy min block size %d smaller than a free-list node", minBlockSize)
	}

	b := &Buddy{
		base:         base,
		capacity:     capacity,
		depth:        depth,
		minBlockSize: minBlockSize,
		freeHeads:    make([]Ptr, depth),
	}
	// Initial state: one free block at the top order, rooted at base, with
	// no successor.
	b.writeNext(base, Null)
	b.freeHeads[depth-1] = base
	return b, nil
}

func (b *Buddy) blockSizeAt(order int) uintptr {
	return b.minBlockSize << uint(order)
}

// readNext loads the next-pointer stored in a free block's first word.
func (b *Buddy) readNext(p Ptr) Ptr {
	return Ptr(*(*uintptr)(unsafe.Pointer(uintptr(p))))
}

// writeNext stores next into a free block's first word.
func (b *Buddy) writeNext(p Ptr, next Ptr) {
	*(*uintptr)(unsafe.Pointer(uintptr(p))) = uintptr(next)
}

// pushFree threads p onto the front of order's intrusive free list.
func (b *Buddy) pushFree(order int, p Ptr) {
	b.writeNext(p, b.freeHeads[order])
	b.freeHeads[order] = p
}

// popFree unlinks and returns the block at the front of order's free list.
func (b *Buddy) popFree(order int) (Ptr, bool) {
	head := b.freeHeads[order]
	if head == Null {
		return Null, false
	}
	b.freeHeads[order] = b.readNext(head)
	return head, true
}

// removeFree unlinks p from order's free list if it is present there,
// reporting whether it was found. Used during coalescing, where the buddy
// being merged with may sit anywhere in the list, not just at its head.
func (b *Buddy) removeFree(order int, p Ptr) bool {
	head := b.freeHeads[order]
	if head == Null {
		return false
	}
	if head == p {
		b.freeHeads[order] = b.readNext(p)
		return true
	}
	for prev := head; ; {
		next := b.readNext(prev)
		if next == Null {
			return false
		}
		if next == p {
			b.writeNext(prev, b.readNext(next))
			return true
		}
		prev = next
	}
}

// orderFor derives the order class serving a size/align request: normalize
// against alignment and the minimum block size, then round up to the next
// power of two.
func (b *Buddy) orderFor(size, align uintptr) (int, error) {
	if !isPowerOfTwo(align) || align > PageSize {
		return 0, vmerr.New(vmerr.PhaseMemory, vmerr.KindBadRequest, "alignment %d must be a power of two no greater than the page size", align)
	}
	s := size
	if align > s {
		s = align
	}
	if b.minBlockSize > s {
		s = b.minBlockSize
	}
	s = nextPowerOfTwo(s)

	order := log2(s) - log2(b.minBlockSize)
	if order < 0 {
		order = 0
	}
	if order >= b.depth {
		return 0, vmerr.New(vmerr.PhaseMemory, vmerr.KindBadRequest, "requested size %d exceeds capacity %d", size, b.capacity)
	}
	return order, nil
}

// RawAlloc reserves size bytes aligned to align.
func (b *Buddy) RawAlloc(size, align uintptr) (Ptr, bool) {
	target, err := b.orderFor(size, align)
	if err != nil {
		return Null, false
	}

	source := -1
	for o := target; o < b.depth; o++ {
		if b.freeHeads[o] != Null {
			source = o
			break
		}
	}
	if source < 0 {
		return Null, false
	}

	block, _ := b.popFree(source)

	for o := source - 1; o >= target; o-- {
		upper := block.add(b.blockSizeAt(o))
		b.pushFree(o, upper)
	}

	return block, true
}

// RawDealloc returns a previously allocated block, coalescing with its
// buddy at each order where the buddy is also free.
func (b *Buddy) RawDealloc(ptr Ptr, size, align uintptr) error {
	target, err := b.orderFor(size, align)
	if err != nil {
		return err
	}
	block := ptr

	for o := target; o < b.depth; o++ {
		blockSize := b.blockSizeAt(o)
		buddyOffset := (uintptr(block) - uintptr(b.base)) ^ blockSize
		if buddyOffset >= b.capacity {
			// No buddy exists above the top of the region at this order;
			// nothing further to coalesce with.
			b.pushFree(o, block)
			return nil
		}
		buddy := b.base.add(buddyOffset)
		if b.removeFree(o, buddy) {
			if buddy < block {
				block = buddy
			}
			continue
		}
		b.pushFree(o, block)
		return nil
	}
	return nil
}

// Contains reports whether ptr falls within this buddy pool's range.
func (b *Buddy) Contains(ptr Ptr) bool {
	return ptr >= b.base && ptr < b.base.add(b.capacity)
}
