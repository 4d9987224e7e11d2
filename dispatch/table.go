package dispatch

import (
	"github.com/azimuth-vm/azimuth/constpool"
	"github.com/azimuth-vm/azimuth/heap"
	"github.com/azimuth-vm/azimuth/stack"
	"github.com/azimuth-vm/azimuth/stackword"
	"github.com/azimuth-vm/azimuth/vmerr"
)

// entry is one row of the 256-entry handler table: the opcode it expects
// to own that slot, its fixed operand byte count, and its handler.
type entry struct {
	expectedOpcode Opcode
	operandBytes   int
	handler        handlerFn
}

// table is statically initialized by init() below rather than as a package
// var literal, since f4Const0/f8Const1/etc need their immediates packed
// through stackword/math.Float64bits - expressions Go doesn't allow inside
// a const-indexed array literal alongside iota-derived keys as cleanly as
// a small init loop does.
var table [256]entry

func init() {
	for i := range table {
		table[i] = entry{
			expectedOpcode: Opcode(i),
			operandBytes:   0,
			handler:        unimplementedHandler,
		}
	}

	set := func(op Opcode, operandBytes int, h handlerFn) {
		table[op] = entry{expectedOpcode: op, operandBytes: operandBytes, handler: h}
	}

	set(Nop, 0, nopHandler)
	set(Ret, 0, retHandler)
	set(RetVal, 0, retValHandler)

	set(IConst0, 0, iConstImmediate(0))
	set(IConst1, 0, iConstImmediate(1))
	set(IConst2, 0, iConstImmediate(2))
	set(IConst3, 0, iConstImmediate(3))
	set(IConst, 1, iConstHandler)
	set(IConstW, 2, iConstWHandler)

	set(F4Const0, 0, iConstImmediate(stackword.FromFloat32(0.0)))
	set(F4Const1, 0, iConstImmediate(stackword.FromFloat32(1.0)))
	set(F8Const0, 0, iConstImmediate(stackword.FromFloat64(0.0)))
	set(F8Const1, 0, iConstImmediate(stackword.FromFloat64(1.0)))

	set(Const, 4, constHandler)

	set(LdArg0, 0, ldArgImmediate(0))
	set(LdArg1, 0, ldArgImmediate(1))
	set(LdArg2, 0, ldArgImmediate(2))
	set(LdArg3, 0, ldArgImmediate(3))
	set(LdArg, 1, ldArgHandler)
	set(StArg0, 0, stArgImmediate(0))
	set(StArg1, 0, stArgImmediate(1))
	set(StArg2, 0, stArgImmediate(2))
	set(StArg3, 0, stArgImmediate(3))
	set(StArg, 1, stArgHandler)

	set(Pop, 0, popHandler)
	set(Dup, 0, dupHandler)
	set(Swap, 0, swapHandler)

	set(IAdd, 0, iArith(iAddOp))
	set(ISub, 0, iArith(iSubOp))
	set(IMul, 0, iArith(iMulOp))
	set(IDiv, 0, iArith(iDivOp))
	set(IRem, 0, iArith(iRemOp))
	set(INeg, 0, iNegHandler)

	set(F4Add, 0, f4Arith(f4AddOp))
	set(F4Sub, 0, f4Arith(f4SubOp))
	set(F4Mul, 0, f4Arith(f4MulOp))
	set(F4Div, 0, f4Arith(f4DivOp))
	set(F4Rem, 0, f4Arith(f4RemOp))
	set(F4Neg, 0, f4NegHandler)

	set(F8Add, 0, f8Arith(f8AddOp))
	set(F8Sub, 0, f8Arith(f8SubOp))
	set(F8Mul, 0, f8Arith(f8MulOp))
	set(F8Div, 0, f8Arith(f8DivOp))
	set(F8Rem, 0, f8Arith(f8RemOp))
	set(F8Neg, 0, f8NegHandler)

	set(Shl, 0, bitwiseOp(shlOp))
	set(Shr, 0, bitwiseOp(shrOp))
	set(AShr, 0, bitwiseOp(ashrOp))
	set(And, 0, bitwiseOp(andOp))
	set(Or, 0, bitwiseOp(orOp))
	set(Xor, 0, bitwiseOp(xorOp))
	set(Not, 0, notHandler)

	// Directive (254) must never appear in executable code; its slot keeps
	// the default unimplementedHandler, which reports IllegalOpcode.
}

// ExecInstruction runs the single instruction at the head of codeSlice
// against frame/constants/heap: look up the opcode, verify its operand
// bytes are present, slice them off, and invoke the handler.
func ExecInstruction(codeSlice []byte, frame *stack.Frame, constants *constpool.Table, h *heap.Heap) (InstructionResult, error) {
	if len(codeSlice) == 0 {
		return InstructionResult{}, vmerr.New(vmerr.PhaseDispatch, vmerr.KindOpcodeNotFound, "")
	}
	opcode := Opcode(codeSlice[0])
	rest := codeSlice[1:]

	e := table[opcode]
	if e.expectedOpcode != opcode {
		panic("dispatch: handler table corrupted: index/expected_opcode mismatch")
	}

	if len(rest) < e.operandBytes {
		return InstructionResult{}, vmerr.New(vmerr.PhaseExecute, vmerr.KindMissingParams, "opcode %d needs %d operand bytes, got %d", opcode, e.operandBytes, len(rest))
	}

	ctx := &Context{
		Opcode:    opcode,
		Params:    rest[:e.operandBytes],
		Frame:     frame,
		Constants: constants,
		Heap:      h,
	}
	return e.handler(ctx)
}

// OperandByteCount reports the number of operand bytes a given opcode's
// instruction occupies, as required by the Runner's PC-advance arithmetic.
func OperandByteCount(opcode byte) int {
	return table[Opcode(opcode)].operandBytes
}
