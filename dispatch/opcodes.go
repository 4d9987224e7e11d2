package dispatch

// Opcode values, numbered in catalog order starting at 0; Directive and
// Unimplemented keep their explicit high values (254, 255) reserved.
type Opcode uint8

const (
	Nop Opcode = iota
	IConst0
	IConst1
	IConst2
	IConst3
	F4Const0
	F4Const1
	F8Const0
	F8Const1
	IConst
	IConstW
	Const
	LdArg0
	LdArg1
	LdArg2
	LdArg3
	LdArg
	StArg0
	StArg1
	StArg2
	StArg3
	StArg
	Pop
	Dup
	Swap
	Ret
	RetVal
	IAdd
	F4Add
	F8Add
	ISub
	F4Sub
	F8Sub
	IMul
	F4Mul
	F8Mul
	IDiv
	F4Div
	F8Div
	IRem
	F4Rem
	F8Rem
	INeg
	F4Neg
	F8Neg
	Shl
	Shr
	AShr
	And
	Or
	Xor
	Not
)

// Directive is the reserved opcode byte that must never appear in an
// executable code stream; it is handled by unimplementedHandler, which
// reports IllegalOpcode.
const Directive Opcode = 254

// Unimplemented fills every unassigned opcode slot in the handler table.
const Unimplemented Opcode = 255
