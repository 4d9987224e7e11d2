package dispatch

import (
	"encoding/binary"
	"math"

	"github.com/azimuth-vm/azimuth/stackword"
	"github.com/azimuth-vm/azimuth/vmerr"
)

// handlerFn is the signature every table entry's handler satisfies. It
// receives the context already carrying params sliced to its declared
// operand byte count.
type handlerFn func(c *Context) (InstructionResult, error)

func nopHandler(c *Context) (InstructionResult, error) {
	return nextResult, nil
}

func retHandler(c *Context) (InstructionResult, error) {
	return returnResult(false), nil
}

func retValHandler(c *Context) (InstructionResult, error) {
	return returnResult(true), nil
}

// iConstImmediate returns a handler pushing the fixed 64-bit value v; used
// for i.const.{0..3} and f4/f8.const.{0,1} (the latter via their bit
// patterns, already packed into v by the table).
func iConstImmediate(v uint64) handlerFn {
	return func(c *Context) (InstructionResult, error) {
		if err := c.Push(v); err != nil {
			return InstructionResult{}, err
		}
		return nextResult, nil
	}
}

func iConstHandler(c *Context) (InstructionResult, error) {
	params, err := c.PullParams(1)
	if err != nil {
		return InstructionResult{}, err
	}
	if err := c.Push(uint64(params[0])); err != nil {
		return InstructionResult{}, err
	}
	return nextResult, nil
}

func iConstWHandler(c *Context) (InstructionResult, error) {
	params, err := c.PullParams(2)
	if err != nil {
		return InstructionResult{}, err
	}
	if err := c.Push(uint64(binary.LittleEndian.Uint16(params))); err != nil {
		return InstructionResult{}, err
	}
	return nextResult, nil
}

func constHandler(c *Context) (InstructionResult, error) {
	params, err := c.PullParams(4)
	if err != nil {
		return InstructionResult{}, err
	}
	index := binary.LittleEndian.Uint32(params)
	if err := c.Constants.PushEntry(c.Frame, index); err != nil {
		return InstructionResult{}, err
	}
	return nextResult, nil
}

// ldArgImmediate returns a handler pushing local[i] for a fixed index.
func ldArgImmediate(i int) handlerFn {
	return func(c *Context) (InstructionResult, error) {
		v, err := c.LocalGet(i)
		if err != nil {
			return InstructionResult{}, err
		}
		if err := c.Push(v); err != nil {
			return InstructionResult{}, err
		}
		return nextResult, nil
	}
}

func ldArgHandler(c *Context) (InstructionResult, error) {
	params, err := c.PullParams(1)
	if err != nil {
		return InstructionResult{}, err
	}
	v, err := c.LocalGet(int(params[0]))
	if err != nil {
		return InstructionResult{}, err
	}
	if err := c.Push(v); err != nil {
		return InstructionResult{}, err
	}
	return nextResult, nil
}

// stArgImmediate returns a handler popping into local[i] for a fixed index.
func stArgImmediate(i int) handlerFn {
	return func(c *Context) (InstructionResult, error) {
		v, err := c.Pop()
		if err != nil {
			return InstructionResult{}, err
		}
		if _, err := c.LocalSet(i, v); err != nil {
			return InstructionResult{}, err
		}
		return nextResult, nil
	}
}

func stArgHandler(c *Context) (InstructionResult, error) {
	params, err := c.PullParams(1)
	if err != nil {
		return InstructionResult{}, err
	}
	v, err := c.Pop()
	if err != nil {
		return InstructionResult{}, err
	}
	if _, err := c.LocalSet(int(params[0]), v); err != nil {
		return InstructionResult{}, err
	}
	return nextResult, nil
}

func popHandler(c *Context) (InstructionResult, error) {
	if _, err := c.Pop(); err != nil {
		return InstructionResult{}, err
	}
	return nextResult, nil
}

func dupHandler(c *Context) (InstructionResult, error) {
	v, err := c.Pop()
	if err != nil {
		return InstructionResult{}, err
	}
	if err := c.Push(v); err != nil {
		return InstructionResult{}, err
	}
	if err := c.Push(v); err != nil {
		return InstructionResult{}, err
	}
	return nextResult, nil
}

func swapHandler(c *Context) (InstructionResult, error) {
	top, err := c.Pop()
	if err != nil {
		return InstructionResult{}, err
	}
	below, err := c.Pop()
	if err != nil {
		return InstructionResult{}, err
	}
	if err := c.Push(top); err != nil {
		return InstructionResult{}, err
	}
	if err := c.Push(below); err != nil {
		return InstructionResult{}, err
	}
	return nextResult, nil
}

// popOperands pops b then a (b is the more-recently pushed, top-of-stack
// entry), matching the left-to-right evaluation order binary operators push
// their operands in.
func popOperands(c *Context) (a, b uint64, err error) {
	b, err = c.Pop()
	if err != nil {
		return 0, 0, err
	}
	a, err = c.Pop()
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

func iArith(op func(a, b int64) (int64, error)) handlerFn {
	return func(c *Context) (InstructionResult, error) {
		a, b, err := popOperands(c)
		if err != nil {
			return InstructionResult{}, err
		}
		result, err := op(stackword.Int64(a), stackword.Int64(b))
		if err != nil {
			return InstructionResult{}, err
		}
		if err := c.Push(stackword.FromInt64(result)); err != nil {
			return InstructionResult{}, err
		}
		return nextResult, nil
	}
}

func f4Arith(op func(a, b float32) float32) handlerFn {
	return func(c *Context) (InstructionResult, error) {
		a, b, err := popOperands(c)
		if err != nil {
			return InstructionResult{}, err
		}
		result := op(stackword.Float32(a), stackword.Float32(b))
		if err := c.Push(stackword.FromFloat32(result)); err != nil {
			return InstructionResult{}, err
		}
		return nextResult, nil
	}
}

func f8Arith(op func(a, b float64) float64) handlerFn {
	return func(c *Context) (InstructionResult, error) {
		a, b, err := popOperands(c)
		if err != nil {
			return InstructionResult{}, err
		}
		result := op(stackword.Float64(a), stackword.Float64(b))
		if err := c.Push(stackword.FromFloat64(result)); err != nil {
			return InstructionResult{}, err
		}
		return nextResult, nil
	}
}

func iNegHandler(c *Context) (InstructionResult, error) {
	v, err := c.Pop()
	if err != nil {
		return InstructionResult{}, err
	}
	if err := c.Push(stackword.FromInt64(-stackword.Int64(v))); err != nil {
		return InstructionResult{}, err
	}
	return nextResult, nil
}

func f4NegHandler(c *Context) (InstructionResult, error) {
	v, err := c.Pop()
	if err != nil {
		return InstructionResult{}, err
	}
	if err := c.Push(stackword.FromFloat32(-stackword.Float32(v))); err != nil {
		return InstructionResult{}, err
	}
	return nextResult, nil
}

func f8NegHandler(c *Context) (InstructionResult, error) {
	v, err := c.Pop()
	if err != nil {
		return InstructionResult{}, err
	}
	if err := c.Push(stackword.FromFloat64(-stackword.Float64(v))); err != nil {
		return InstructionResult{}, err
	}
	return nextResult, nil
}

// bitwiseOp returns a handler implementing one of the 64-bit bitwise /
// shift opcodes; shift counts are taken modulo 64.
func bitwiseOp(op func(a, b uint64) uint64) handlerFn {
	return func(c *Context) (InstructionResult, error) {
		a, b, err := popOperands(c)
		if err != nil {
			return InstructionResult{}, err
		}
		result := op(stackword.Uint64(a), stackword.Uint64(b))
		if err := c.Push(stackword.FromUint64(result)); err != nil {
			return InstructionResult{}, err
		}
		return nextResult, nil
	}
}

func notHandler(c *Context) (InstructionResult, error) {
	v, err := c.Pop()
	if err != nil {
		return InstructionResult{}, err
	}
	if err := c.Push(stackword.FromUint64(^stackword.Uint64(v))); err != nil {
		return InstructionResult{}, err
	}
	return nextResult, nil
}

func unimplementedHandler(c *Context) (InstructionResult, error) {
	return InstructionResult{}, vmerr.New(vmerr.PhaseExecute, vmerr.KindIllegalOpcode, "opcode %d", c.Opcode)
}

// Integer arithmetic ops: i.add/sub/mul/neg use wrapping two's-complement
// (plain Go int64 arithmetic wraps identically); i.div/i.rem reject a zero
// divisor with IllegalParam, and i.rem follows truncated-division
// remainder (Go's % already does this for int64).

func iAddOp(a, b int64) (int64, error) { return a + b, nil }
func iSubOp(a, b int64) (int64, error) { return a - b, nil }
func iMulOp(a, b int64) (int64, error) { return a * b, nil }

func iDivOp(a, b int64) (int64, error) {
	if b == 0 {
		return 0, vmerr.New(vmerr.PhaseExecute, vmerr.KindIllegalParam, "division by zero")
	}
	return a / b, nil
}

func iRemOp(a, b int64) (int64, error) {
	if b == 0 {
		return 0, vmerr.New(vmerr.PhaseExecute, vmerr.KindIllegalParam, "division by zero")
	}
	return a % b, nil
}

func f4AddOp(a, b float32) float32 { return a + b }
func f4SubOp(a, b float32) float32 { return a - b }
func f4MulOp(a, b float32) float32 { return a * b }
func f4DivOp(a, b float32) float32 { return a / b }

func f8AddOp(a, b float64) float64 { return a + b }
func f8SubOp(a, b float64) float64 { return a - b }
func f8MulOp(a, b float64) float64 { return a * b }
func f8DivOp(a, b float64) float64 { return a / b }

// f4RemOp/f8RemOp follow IEEE-754 remainder-after-truncating-division;
// math.Mod matches that definition (result has the sign of the dividend).
func f4RemOp(a, b float32) float32 { return float32(math.Mod(float64(a), float64(b))) }
func f8RemOp(a, b float64) float64 { return math.Mod(a, b) }

// Bitwise / shift ops, 64-bit, shift counts taken modulo 64. Go's shift
// operators do not mask the count (shifting by 64 or more yields 0 for a
// uint64, or all sign bits for an int64 >>), so the explicit `b % 64` is
// what applies the modulo rule.
func shlOp(a, b uint64) uint64  { return a << (b % 64) }
func shrOp(a, b uint64) uint64  { return a >> (b % 64) }
func ashrOp(a, b uint64) uint64 { return uint64(stackword.Int64(a) >> (b % 64)) }
func andOp(a, b uint64) uint64  { return a & b }
func orOp(a, b uint64) uint64   { return a | b }
func xorOp(a, b uint64) uint64  { return a ^ b }
