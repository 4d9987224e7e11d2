package image

import (
	"encoding/binary"
	"math"
)

// Serialize re-encodes a FileLayout into the same binary wire format Parse
// reads. It exists so round-tripping a well-formed image ("parse(bytes)
// .serialize() == bytes") is a checkable property, not just an implicit
// assumption of Parse.
func (l *FileLayout) Serialize() []byte {
	var buf []byte
	buf = appendU64(buf, MagicNumber)
	buf = append(buf, l.Version)
	buf = appendU32(buf, uint32(len(l.Constants)))

	for _, c := range l.Constants {
		buf = append(buf, byte(c.Tag))
		switch c.Tag {
		case TagInt32:
			buf = appendU32(buf, c.Int32)
		case TagInt64:
			buf = appendU64(buf, c.Int64)
		case TagFloat32:
			buf = appendU32(buf, math.Float32bits(c.F32))
		case TagFloat64:
			buf = appendU64(buf, math.Float64bits(c.F64))
		case TagString:
			buf = appendU32(buf, uint32(len(c.Str)))
			buf = append(buf, c.Str...)
		}
	}

	for _, fn := range l.Functions {
		buf = append(buf, DirectiveOpcode, SubSymbol)
		buf = appendU32(buf, fn.NameIndex)
		buf = appendU32(buf, uint32(len(fn.Code)))

		for _, d := range fn.Directives {
			buf = append(buf, DirectiveOpcode, directiveSub(d.Kind))
			switch d.Kind {
			case DirMaxStack, DirMaxLocals:
				buf = appendU16(buf, d.Value)
			}
		}

		buf = append(buf, fn.Code...)
	}

	return buf
}

func directiveSub(kind DirectiveKind) uint8 {
	switch kind {
	case DirSymbol:
		return SubSymbol
	case DirStart:
		return SubStart
	case DirMaxStack:
		return SubMaxStack
	case DirMaxLocals:
		return SubMaxLocals
	default:
		return 0xFF
	}
}

func appendU16(buf []byte, v uint16) []byte {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendU32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendU64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}
