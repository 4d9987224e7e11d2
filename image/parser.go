// Package image decodes Azimuth's binary program image into a structured
// FileLayout. It never executes anything and never retains a mutable
// reference back into the caller's buffer beyond what it documents: every
// FunctionInfo.Code is a slice into the original input, which must outlive
// the FileLayout. Constant.Str is a copy of the string's bytes.
package image

import (
	"encoding/binary"
	"math"

	"github.com/azimuth-vm/azimuth/vmerr"
)

// MagicNumber is the little-endian u64 formed by the 8 bytes "azimuth\0".
const MagicNumber uint64 = 0x006874756d697a61 // LE of "azimuth\0"

// FileLayout is the fully-parsed, validated structure of a program image.
type FileLayout struct {
	Version   uint8
	Constants []Constant
	Functions []FunctionInfo
}

// cursor walks an input buffer left to right, consuming bytes as it goes.
// It never copies; every returned slice aliases the original input.
type cursor struct {
	remaining []byte
}

func (c *cursor) take(n int) ([]byte, bool) {
	if len(c.remaining) < n {
		return nil, false
	}
	out := c.remaining[:n]
	c.remaining = c.remaining[n:]
	return out, true
}

func (c *cursor) takeU8() (uint8, bool) {
	b, ok := c.take(1)
	if !ok {
		return 0, false
	}
	return b[0], true
}

func (c *cursor) takeU16() (uint16, bool) {
	b, ok := c.take(2)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint16(b), true
}

func (c *cursor) takeU32() (uint32, bool) {
	b, ok := c.take(4)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b), true
}

func (c *cursor) takeU64() (uint64, bool) {
	b, ok := c.take(8)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint64(b), true
}

// peekIsDirective reports whether the next two bytes are
// (DirectiveOpcode, sub), without consuming anything.
func (c *cursor) peekIsDirective(sub uint8) bool {
	return len(c.remaining) >= 2 && c.remaining[0] == DirectiveOpcode && c.remaining[1] == sub
}

// Parse decodes a complete program image. Any structural failure discards
// all partial state and returns a *vmerr.Error with Phase == vmerr.PhaseParse.
func Parse(input []byte) (*FileLayout, error) {
	c := &cursor{remaining: input}

	magic, ok := c.takeU64()
	if !ok {
		return nil, vmerr.New(vmerr.PhaseParse, vmerr.KindTruncated, "truncated magic number")
	}
	if magic != MagicNumber {
		return nil, vmerr.New(vmerr.PhaseParse, vmerr.KindBadMagic, "got 0x%016x", magic)
	}

	version, ok := c.takeU8()
	if !ok {
		return nil, vmerr.New(vmerr.PhaseParse, vmerr.KindTruncated, "truncated version byte")
	}

	constantCount, ok := c.takeU32()
	if !ok {
		return nil, vmerr.New(vmerr.PhaseParse, vmerr.KindTruncated, "truncated constant count")
	}

	constants, err := parseConstants(c, constantCount)
	if err != nil {
		return nil, err
	}

	functions, err := parseFunctions(c, constants)
	if err != nil {
		return nil, err
	}

	return &FileLayout{
		Version:   version,
		Constants: constants,
		Functions: functions,
	}, nil
}

func parseConstants(c *cursor, count uint32) ([]Constant, error) {
	entries := make([]Constant, 0, count)
	var i uint32
	for i = 0; i < count; i++ {
		tag, ok := c.takeU8()
		if !ok {
			return nil, vmerr.New(vmerr.PhaseParse, vmerr.KindTruncated, "truncated constant entry %d (missing tag)", i)
		}

		entry, err := parseConstantPayload(c, ConstantTag(tag), i)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func parseConstantPayload(c *cursor, tag ConstantTag, index uint32) (Constant, error) {
	switch tag {
	case TagInt32:
		v, ok := c.takeU32()
		if !ok {
			return Constant{}, vmerr.New(vmerr.PhaseParse, vmerr.KindTruncated, "truncated int32 constant %d", index)
		}
		return Constant{Tag: TagInt32, Int32: v}, nil
	case TagInt64:
		v, ok := c.takeU64()
		if !ok {
			return Constant{}, vmerr.New(vmerr.PhaseParse, vmerr.KindTruncated, "truncated int64 constant %d", index)
		}
		return Constant{Tag: TagInt64, Int64: v}, nil
	case TagFloat32:
		bits, ok := c.takeU32()
		if !ok {
			return Constant{}, vmerr.New(vmerr.PhaseParse, vmerr.KindTruncated, "truncated float32 constant %d", index)
		}
		return Constant{Tag: TagFloat32, F32: math.Float32frombits(bits)}, nil
	case TagFloat64:
		bits, ok := c.takeU64()
		if !ok {
			return Constant{}, vmerr.New(vmerr.PhaseParse, vmerr.KindTruncated, "truncated float64 constant %d", index)
		}
		return Constant{Tag: TagFloat64, F64: math.Float64frombits(bits)}, nil
	case TagString:
		strLen, ok := c.takeU32()
		if !ok {
			return Constant{}, vmerr.New(vmerr.PhaseParse, vmerr.KindTruncated, "truncated string constant %d length", index)
		}
		raw, ok := c.take(int(strLen))
		if !ok {
			return Constant{}, vmerr.New(vmerr.PhaseParse, vmerr.KindTruncated, "truncated string constant %d body", index)
		}
		return Constant{Tag: TagString, Str: string(raw)}, nil
	default:
		return Constant{}, vmerr.New(vmerr.PhaseParse, vmerr.KindUnknownDirective, "unknown constant tag %d at entry %d", tag, index)
	}
}

// parseFunctions reads function records while the remaining bytes begin
// with a Symbol directive. The records must consume the rest of the input,
// and there must be at least one of them.
func parseFunctions(c *cursor, constants []Constant) ([]FunctionInfo, error) {
	var functions []FunctionInfo
	for c.peekIsDirective(SubSymbol) {
		fn, err := parseFunction(c, constants)
		if err != nil {
			return nil, err
		}
		functions = append(functions, fn)
	}
	if len(c.remaining) > 0 {
		return nil, vmerr.New(vmerr.PhaseParse, vmerr.KindMissingDirective, "%d trailing bytes do not begin with a symbol directive", len(c.remaining))
	}
	if len(functions) == 0 {
		return nil, vmerr.New(vmerr.PhaseParse, vmerr.KindTruncated, "image ends before its first function record")
	}
	return functions, nil
}

func parseFunction(c *cursor, constants []Constant) (FunctionInfo, error) {
	// Mandatory leading Symbol directive.
	opcode, _ := c.takeU8()
	sub, _ := c.takeU8()
	_ = opcode
	_ = sub

	nameIndex, ok := c.takeU32()
	if !ok {
		return FunctionInfo{}, vmerr.New(vmerr.PhaseParse, vmerr.KindTruncated, "truncated symbol directive (name index)")
	}
	codeLength, ok := c.takeU32()
	if !ok {
		return FunctionInfo{}, vmerr.New(vmerr.PhaseParse, vmerr.KindTruncated, "truncated symbol directive (code length)")
	}

	if nameIndex >= uint32(len(constants)) {
		return FunctionInfo{}, vmerr.New(vmerr.PhaseParse, vmerr.KindIndexOutOfRange, "symbol name index %d out of range (%d constants)", nameIndex, len(constants))
	}
	if constants[nameIndex].Tag != TagString {
		return FunctionInfo{}, vmerr.New(vmerr.PhaseParse, vmerr.KindIndexOutOfRange, "symbol name index %d does not refer to a string constant", nameIndex)
	}

	var directives []Directive
	for len(c.remaining) >= 1 && c.remaining[0] == DirectiveOpcode {
		if len(c.remaining) < 2 {
			return FunctionInfo{}, vmerr.New(vmerr.PhaseParse, vmerr.KindTruncated, "truncated directive (missing sub-opcode)")
		}
		subOp := c.remaining[1]
		if subOp == SubSymbol {
			return FunctionInfo{}, vmerr.New(vmerr.PhaseParse, vmerr.KindDuplicateSymbol, "second symbol directive in function %q", constants[nameIndex].Str)
		}

		c.remaining = c.remaining[2:]
		d, err := parseDirectiveBody(c, subOp)
		if err != nil {
			return FunctionInfo{}, err
		}
		directives = append(directives, d)
	}

	code, ok := c.take(int(codeLength))
	if !ok {
		return FunctionInfo{}, vmerr.New(vmerr.PhaseParse, vmerr.KindTruncated, "truncated code section (want %d bytes) in function %q", codeLength, constants[nameIndex].Str)
	}

	return FunctionInfo{
		NameIndex:  nameIndex,
		Directives: directives,
		Code:       code,
	}, nil
}

func parseDirectiveBody(c *cursor, sub uint8) (Directive, error) {
	switch sub {
	case SubStart:
		return Directive{Kind: DirStart}, nil
	case SubMaxStack:
		v, ok := c.takeU16()
		if !ok {
			return Directive{}, vmerr.New(vmerr.PhaseParse, vmerr.KindTruncated, "truncated max_stack directive")
		}
		return Directive{Kind: DirMaxStack, Value: v}, nil
	case SubMaxLocals:
		v, ok := c.takeU16()
		if !ok {
			return Directive{}, vmerr.New(vmerr.PhaseParse, vmerr.KindTruncated, "truncated max_locals directive")
		}
		return Directive{Kind: DirMaxLocals, Value: v}, nil
	default:
		return Directive{}, vmerr.New(vmerr.PhaseParse, vmerr.KindUnknownDirective, "unknown directive sub-opcode %d", sub)
	}
}
