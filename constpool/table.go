// Package constpool implements the constant table: a typed constant pool
// eagerly copied from the loader's raw entries, plus the encoding rules
// for pushing a constant onto a stack frame.
package constpool

import (
	"math"

	"github.com/azimuth-vm/azimuth/image"
	"github.com/azimuth-vm/azimuth/stack"
	"github.com/azimuth-vm/azimuth/vmerr"
)

// Table is the constant pool a Runner hands to the dispatcher. It holds its
// own copy of every image.Constant, so it owns no reference back to the
// image buffer beyond string contents that already escaped to the Go heap
// during parsing.
type Table struct {
	entries []image.Constant
}

// New builds a Table by eager copy from the parser's raw entries.
func New(entries []image.Constant) *Table {
	t := &Table{entries: make([]image.Constant, len(entries))}
	copy(t.entries, entries)
	return t
}

// Get returns the constant at index, or false if index is out of range.
func (t *Table) Get(index uint32) (image.Constant, bool) {
	if index >= uint32(len(t.entries)) {
		return image.Constant{}, false
	}
	return t.entries[index], true
}

// Len reports the number of constants in the pool.
func (t *Table) Len() int {
	return len(t.entries)
}

// PushEntry pushes the constant at index onto frame's operand stack,
// encoding it as a 64-bit word by tag. It returns vmerr.KindIndexOutOfBounds
// for a bad index and vmerr.KindStackOverflow if the push would exceed the
// frame's capacity.
func (t *Table) PushEntry(frame *stack.Frame, index uint32) error {
	c, ok := t.Get(index)
	if !ok {
		return vmerr.New(vmerr.PhaseExecute, vmerr.KindIndexOutOfBounds, "constant index %d out of range (%d constants)", index, len(t.entries))
	}

	var word uint64
	switch c.Tag {
	case image.TagInt32:
		word = uint64(c.Int32)
	case image.TagInt64:
		word = c.Int64
	case image.TagFloat32:
		word = uint64(math.Float32bits(c.F32))
	case image.TagFloat64:
		word = math.Float64bits(c.F64)
	case image.TagString:
		word = stringRef(index)
	}

	if !frame.Push(word) {
		return vmerr.New(vmerr.PhaseExecute, vmerr.KindStackOverflow, "pushing constant %d", index)
	}
	return nil
}

// stringRef derives the opaque, non-zero reference pushed for a String
// constant. A real heap/metaspace reference for interned strings is a
// future extension; until then the constant's own table index (offset by
// one so index 0 is never confused with a null/zero word) stands in as
// that opaque reference.
func stringRef(index uint32) uint64 {
	return uint64(index) + 1
}
