// Package stackword implements the bit-cast conversions between a 64-bit
// stack word and the typed views opcodes interpret it as. Arithmetic
// handlers are instantiated over four concrete numeric views - int64,
// uint64, float32, float64 - via the free functions below rather than a
// generic conversion trait.
package stackword

import "math"

// Int64 reinterprets a stack word as a signed 64-bit two's-complement
// integer. No bits are discarded or extended; this is a pure reinterpret.
func Int64(w uint64) int64 { return int64(w) }

// FromInt64 packs a signed 64-bit integer into a stack word.
func FromInt64(v int64) uint64 { return uint64(v) }

// Uint64 reinterprets a stack word as an unsigned 64-bit integer.
func Uint64(w uint64) uint64 { return w }

// FromUint64 packs an unsigned 64-bit integer into a stack word.
func FromUint64(v uint64) uint64 { return v }

// Float32 reinterprets the low 32 bits of a stack word as an IEEE-754
// binary32 value. Narrow-float stack words always carry zero in the high
// 32 bits, so only the low half is consulted.
func Float32(w uint64) float32 { return math.Float32frombits(uint32(w)) }

// FromFloat32 packs an IEEE-754 binary32 value into a stack word, zero-
// extending its bit pattern into the high 32 bits.
func FromFloat32(v float32) uint64 { return uint64(math.Float32bits(v)) }

// Float64 reinterprets a stack word as an IEEE-754 binary64 value.
func Float64(w uint64) float64 { return math.Float64frombits(w) }

// FromFloat64 packs an IEEE-754 binary64 value into a stack word.
func FromFloat64(v float64) uint64 { return math.Float64bits(v) }
